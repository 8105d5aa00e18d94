// Package grouping partitions rows into a nested hierarchy keyed by an
// ordered list of fields.
package grouping

import (
	"github.com/hupe1980/gridgo/row"
)

// UnknownKey is the group key of rows whose field is missing, nil or empty.
const UnknownKey = "Unknown"

// Group is one bucket of the hierarchy.
//
// Items holds every row of the bucket in input order. Children is nil on the
// last level.
type Group struct {
	Field    string    `json:"field"`
	Key      string    `json:"key"`
	Items    []row.Row `json:"items"`
	Children []*Group  `json:"children,omitempty"`
}

// Count returns the number of rows in the group.
func (g *Group) Count() int {
	return len(g.Items)
}

// Find returns the child group with the given key.
func (g *Group) Find(key string) (*Group, bool) {
	return find(g.Children, key)
}

// Build groups rows by fields, one level per field. Groups appear in order
// of first occurrence, so the input order (the active sort) carries over.
// Build returns nil when fields is empty.
func Build(rows []row.Row, fields []string) []*Group {
	if len(fields) == 0 {
		return nil
	}
	return build(rows, fields, 0)
}

func build(rows []row.Row, fields []string, level int) []*Group {
	field := fields[level]

	var groups []*Group
	index := make(map[string]*Group)

	for _, r := range rows {
		key := groupKey(r[field])
		g, ok := index[key]
		if !ok {
			g = &Group{Field: field, Key: key}
			index[key] = g
			groups = append(groups, g)
		}
		g.Items = append(g.Items, r)
	}

	if level+1 < len(fields) {
		for _, g := range groups {
			g.Children = build(g.Items, fields, level+1)
		}
	}

	return groups
}

func groupKey(v any) string {
	s := row.String(v)
	if s == "" {
		return UnknownKey
	}
	return s
}

// Find returns the top-level group with the given key.
func Find(groups []*Group, key string) (*Group, bool) {
	return find(groups, key)
}

func find(groups []*Group, key string) (*Group, bool) {
	for _, g := range groups {
		if g.Key == key {
			return g, true
		}
	}
	return nil, false
}

// Flatten walks the hierarchy depth-first and calls fn with every group and
// its depth (0 for top-level groups). Returning false from fn skips the
// group's children.
func Flatten(groups []*Group, fn func(g *Group, depth int) bool) {
	flatten(groups, 0, fn)
}

func flatten(groups []*Group, depth int, fn func(*Group, int) bool) {
	for _, g := range groups {
		if fn(g, depth) && len(g.Children) > 0 {
			flatten(g.Children, depth+1, fn)
		}
	}
}
