/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claim

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Leaf is a terminal value of a claim tree with its JSON Pointer path. Scalars
// and empty arrays or objects are leaves.
type Leaf struct {
	Path  string
	Value *Node
}

// Leaves returns every leaf of the tree in a deterministic order: object fields
// sorted by name, array items by index.
func Leaves(n *Node) []Leaf {
	var leaves []Leaf

	collectLeaves(n, "", &leaves)

	return leaves
}

func collectLeaves(n *Node, path string, leaves *[]Leaf) {
	switch {
	case n.Kind() == ArrayKind && len(n.items) > 0:
		for i, item := range n.items {
			collectLeaves(item, path+"/"+strconv.Itoa(i), leaves)
		}
	case n.Kind() == ObjectKind && len(n.keys) > 0:
		keys := append([]string(nil), n.keys...)
		slices.Sort(keys)

		for _, k := range keys {
			collectLeaves(n.fields[k], path+"/"+EscapeToken(k), leaves)
		}
	default:
		*leaves = append(*leaves, Leaf{Path: path, Value: n})
	}
}

// EscapeToken escapes a single reference token.
func EscapeToken(token string) string {
	return strings.ReplaceAll(strings.ReplaceAll(token, "~", "~0"), "/", "~1")
}

// ParsePointer splits a JSON Pointer into unescaped reference tokens.
func ParsePointer(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("invalid JSON pointer %q: must start with '/'", path)
	}

	tokens := strings.Split(path[1:], "/")
	for i, t := range tokens {
		tokens[i] = strings.ReplaceAll(strings.ReplaceAll(t, "~1", "/"), "~0", "~")
	}

	return tokens, nil
}

// Get returns the node at path.
func (n *Node) Get(path string) (*Node, error) {
	tokens, err := ParsePointer(path)
	if err != nil {
		return nil, err
	}

	cur := n

	for _, token := range tokens {
		switch cur.Kind() {
		case ObjectKind:
			next, ok := cur.fields[token]
			if !ok {
				return nil, fmt.Errorf("path %s: no field %q", path, token)
			}

			cur = next
		case ArrayKind:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(cur.items) {
				return nil, fmt.Errorf("path %s: invalid array index %q", path, token)
			}

			cur = cur.items[idx]
		default:
			return nil, fmt.Errorf("path %s: cannot descend into %s", path, cur.Kind())
		}
	}

	return cur, nil
}

// With returns a copy of the tree with value placed at path. Missing intermediate
// containers are created: arrays when the next token is an index, objects otherwise.
// Arrays are padded with nulls.
func (n *Node) With(path string, value *Node) (*Node, error) {
	tokens, err := ParsePointer(path)
	if err != nil {
		return nil, err
	}

	return with(n.Clone(), tokens, value, path)
}

func with(cur *Node, tokens []string, value *Node, path string) (*Node, error) {
	if len(tokens) == 0 {
		return value, nil
	}

	token, rest := tokens[0], tokens[1:]

	if cur.IsNull() {
		if _, err := strconv.Atoi(token); err == nil {
			cur = Array()
		} else {
			cur = Object()
		}
	}

	switch cur.Kind() {
	case ObjectKind:
		child := cur.fields[token]

		updated, err := with(child, rest, value, path)
		if err != nil {
			return nil, err
		}

		return cur.Set(token, updated), nil
	case ArrayKind:
		idx, err := strconv.Atoi(token)
		if err != nil || idx < 0 {
			return nil, fmt.Errorf("path %s: invalid array index %q", path, token)
		}

		for len(cur.items) <= idx {
			cur.items = append(cur.items, Null())
		}

		updated, err := with(cur.items[idx], rest, value, path)
		if err != nil {
			return nil, err
		}

		cur.items[idx] = updated

		return cur, nil
	default:
		return nil, fmt.Errorf("path %s: cannot descend into %s", path, cur.Kind())
	}
}
