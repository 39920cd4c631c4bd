package store

import (
	"fmt"

	"github.com/roach88/contfrac/internal/label"
	"github.com/roach88/contfrac/internal/tree"
)

// nodeColumns is the column list shared by every node SELECT.
const nodeColumns = `key, num, den, bound_key, bound_num, bound_den, depth, name, content`

// row is the storage form of a tree.Node.
type row struct {
	Key      string
	Num      string
	Den      string
	BoundKey string
	BoundNum string
	BoundDen string
	Depth    int
	Name     string
	Content  string
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// marshalNode converts a node to its storage row.
func marshalNode(n tree.Node, places int) (row, error) {
	key, err := label.SortKey(n.Label, places)
	if err != nil {
		return row{}, fmt.Errorf("marshal label: %w", err)
	}
	boundKey, err := label.SortKey(n.Bound, places)
	if err != nil {
		return row{}, fmt.Errorf("marshal bound: %w", err)
	}
	return row{
		Key:      key,
		Num:      n.Label.Num().String(),
		Den:      n.Label.Den().String(),
		BoundKey: boundKey,
		BoundNum: n.Bound.Num().String(),
		BoundDen: n.Bound.Den().String(),
		Depth:    n.Depth,
		Name:     n.Name,
		Content:  n.Content,
	}, nil
}

// unmarshalNode converts a storage row back to a node.
func unmarshalNode(r row) (tree.Node, error) {
	l, err := label.FromStrings(r.Num, r.Den)
	if err != nil {
		return tree.Node{}, fmt.Errorf("unmarshal label at %s: %w", r.Key, err)
	}
	b, err := label.FromStrings(r.BoundNum, r.BoundDen)
	if err != nil {
		return tree.Node{}, fmt.Errorf("unmarshal bound at %s: %w", r.Key, err)
	}
	return tree.Node{
		Label:   l,
		Bound:   b,
		Depth:   r.Depth,
		Name:    r.Name,
		Content: r.Content,
	}, nil
}

// scanNode scans one row into a node.
func scanNode(s scanner) (tree.Node, error) {
	var r row
	if err := s.Scan(
		&r.Key, &r.Num, &r.Den, &r.BoundKey, &r.BoundNum, &r.BoundDen,
		&r.Depth, &r.Name, &r.Content,
	); err != nil {
		return tree.Node{}, err
	}
	return unmarshalNode(r)
}
