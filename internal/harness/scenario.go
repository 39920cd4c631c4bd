package harness

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/contfrac/internal/tree"
)

// Scenario defines a scripted tree session.
// Scenarios execute a flow of tree operations against a fresh store and
// assert on the step results and the final tree.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Root is the ordinal path of the root record. Defaults to [1].
	Root []int `yaml:"root,omitempty"`

	// MaxLabelBits bounds label numerators and denominators; 0 is unbounded.
	MaxLabelBits int `yaml:"max_label_bits,omitempty"`

	// Setup lists paths created before the main flow.
	// Setup paths are assumed to succeed.
	Setup []string `yaml:"setup,omitempty"`

	// Flow contains the main session, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final tree.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FlowStep is one tree operation.
type FlowStep struct {
	// Op is one of the Op* constants.
	Op string `yaml:"op"`

	// Path is the name path the operation addresses.
	Path string `yaml:"path"`

	// To is the destination of move and copy.
	To string `yaml:"to,omitempty"`

	// Name is the new name for rename.
	Name string `yaml:"name,omitempty"`

	// Content is written by write.
	Content string `yaml:"content,omitempty"`

	// Title is a heading reported before the step runs.
	Title string `yaml:"title,omitempty"`

	// Expect specifies the expected outcome. If nil the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected step outcome.
// Only the fields that are set are compared.
type ExpectClause struct {
	// Error is the expected tree error code, e.g. NODE_NOT_FOUND.
	Error string `yaml:"error,omitempty"`

	// Path is the expected ordinal path ("1.2.1") of create, move and copy.
	Path string `yaml:"path,omitempty"`

	// Content is the expected result of read.
	Content *string `yaml:"content,omitempty"`
}

// Assertion validates the final tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "children": the names of Path's children in ordinal order
	// - "content": the content of Path
	// - "exists": Path resolves
	// - "absent": Path does not resolve
	// - "labels_consistent": every stored label matches its ordinal path
	Type string `yaml:"type"`

	Path string `yaml:"path,omitempty"`

	// Names are the expected child names (used by children).
	Names []string `yaml:"names,omitempty"`

	// Content is the expected content (used by content).
	Content string `yaml:"content,omitempty"`
}

// Flow operations.
const (
	OpCreate = "create"
	OpWrite  = "write"
	OpRead   = "read"
	OpMove   = "move"
	OpCopy   = "copy"
	OpRemove = "remove"
	OpRename = "rename"
	OpPrint  = "print"
)

// Assertion type constants.
const (
	AssertChildren         = "children"
	AssertContent          = "content"
	AssertExists           = "exists"
	AssertAbsent           = "absent"
	AssertLabelsConsistent = "labels_consistent"
)

var knownCodes = map[string]bool{
	string(tree.ErrCodeInvalidPath):   true,
	string(tree.ErrCodeLabelOverflow): true,
	string(tree.ErrCodeNotFound):      true,
	string(tree.ErrCodeAlreadyExists): true,
	string(tree.ErrCodeStoreFailure):  true,
	string(tree.ErrCodeContentIO):     true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if s.MaxLabelBits < 0 {
		return fmt.Errorf("max_label_bits must be non-negative")
	}

	for i, p := range s.Setup {
		if p == "" {
			return fmt.Errorf("setup[%d]: path is required", i)
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step *FlowStep) error {
	switch step.Op {
	case OpCreate, OpWrite, OpRead, OpRemove, OpPrint:
	case OpMove, OpCopy:
		if step.To == "" {
			return fmt.Errorf("flow[%d]: to is required for %s", index, step.Op)
		}
	case OpRename:
		if step.Name == "" {
			return fmt.Errorf("flow[%d]: name is required for rename", index)
		}
	case "":
		return fmt.Errorf("flow[%d]: op is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, step.Op)
	}

	if step.Path == "" {
		return fmt.Errorf("flow[%d]: path is required", index)
	}

	if step.Expect != nil && step.Expect.Error != "" && !knownCodes[step.Expect.Error] {
		return fmt.Errorf("flow[%d].expect: unknown error code %q", index, step.Expect.Error)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertChildren, AssertContent, AssertExists, AssertAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertLabelsConsistent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
