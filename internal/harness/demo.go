package harness

import (
	_ "embed"
)

//go:embed scenarios/demo.yaml
var demoYAML []byte

// Demo returns the built-in demonstration session: a small directory tree,
// four files, a subtree move and a read back through the new paths.
func Demo() (*Scenario, error) {
	return ParseScenario(demoYAML)
}
