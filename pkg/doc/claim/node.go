/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package claim models credential claims as a tree of JSON values and produces
// their canonical byte form.
package claim

import (
	"math"
)

// Kind is the variant held by a Node.
type Kind int

// Node kinds.
const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "bool"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	default:
		return "unknown"
	}
}

// Node is a JSON value. Object fields keep insertion order for display; the
// canonical form sorts them. A nil *Node behaves as null.
type Node struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	items  []*Node
	keys   []string
	fields map[string]*Node
}

// Null returns a null node.
func Null() *Node {
	return &Node{kind: NullKind}
}

// Bool returns a boolean node.
func Bool(b bool) *Node {
	return &Node{kind: BoolKind, b: b}
}

// Number returns a numeric node.
func Number(n float64) *Node {
	return &Node{kind: NumberKind, n: n}
}

// String returns a string node.
func String(s string) *Node {
	return &Node{kind: StringKind, s: s}
}

// Array returns an array node holding items in order.
func Array(items ...*Node) *Node {
	return &Node{kind: ArrayKind, items: append([]*Node{}, items...)}
}

// Object returns an empty object node.
func Object() *Node {
	return &Node{kind: ObjectKind, fields: make(map[string]*Node)}
}

// Set adds or replaces a field of an object node and returns the node for chaining.
// It panics if the node is not an object.
func (n *Node) Set(key string, value *Node) *Node {
	if n.Kind() != ObjectKind {
		panic("claim: Set on non-object node")
	}

	if _, ok := n.fields[key]; !ok {
		n.keys = append(n.keys, key)
	}

	n.fields[key] = value

	return n
}

// Kind returns the variant of the node.
func (n *Node) Kind() Kind {
	if n == nil {
		return NullKind
	}

	return n.kind
}

// IsNull reports whether the node is null.
func (n *Node) IsNull() bool {
	return n.Kind() == NullKind
}

// BoolValue returns the boolean value.
func (n *Node) BoolValue() (bool, bool) {
	if n.Kind() != BoolKind {
		return false, false
	}

	return n.b, true
}

// NumberValue returns the numeric value.
func (n *Node) NumberValue() (float64, bool) {
	if n.Kind() != NumberKind {
		return 0, false
	}

	return n.n, true
}

// StringValue returns the string value.
func (n *Node) StringValue() (string, bool) {
	if n.Kind() != StringKind {
		return "", false
	}

	return n.s, true
}

// Items returns the elements of an array node.
func (n *Node) Items() []*Node {
	if n.Kind() != ArrayKind {
		return nil
	}

	return n.items
}

// Keys returns the field names of an object node in insertion order.
func (n *Node) Keys() []string {
	if n.Kind() != ObjectKind {
		return nil
	}

	return n.keys
}

// Field returns a field of an object node.
func (n *Node) Field(key string) (*Node, bool) {
	if n.Kind() != ObjectKind {
		return nil, false
	}

	v, ok := n.fields[key]

	return v, ok
}

// Len returns the number of array items or object fields.
func (n *Node) Len() int {
	switch n.Kind() {
	case ArrayKind:
		return len(n.items)
	case ObjectKind:
		return len(n.keys)
	default:
		return 0
	}
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}

	c := &Node{kind: n.kind, b: n.b, n: n.n, s: n.s}

	switch n.kind {
	case ArrayKind:
		c.items = make([]*Node, len(n.items))
		for i, item := range n.items {
			c.items[i] = item.Clone()
		}
	case ObjectKind:
		c.keys = append([]string(nil), n.keys...)
		c.fields = make(map[string]*Node, len(n.fields))

		for k, v := range n.fields {
			c.fields[k] = v.Clone()
		}
	}

	return c
}

// Equal reports whether two nodes hold the same JSON value. Field order is ignored.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}

	switch a.Kind() {
	case NullKind:
		return true
	case BoolKind:
		return a.b == b.b
	case NumberKind:
		return a.n == b.n || (math.IsNaN(a.n) && math.IsNaN(b.n))
	case StringKind:
		return a.s == b.s
	case ArrayKind:
		if len(a.items) != len(b.items) {
			return false
		}

		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}

		return true
	case ObjectKind:
		if len(a.fields) != len(b.fields) {
			return false
		}

		for k, av := range a.fields {
			bv, ok := b.fields[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}

		return true
	}

	return false
}
