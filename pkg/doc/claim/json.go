/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package claim

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
	"github.com/valyala/fastjson"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hyperledger/aries-trust-core/pkg/common/trusterr"
)

// Parse builds a node from JSON text. Later duplicate object members win.
func Parse(data []byte) (*Node, error) {
	var p fastjson.Parser

	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, trusterr.Wrap(trusterr.CanonicalizationError, err, "parse claim JSON")
	}

	return fromFastJSON(v)
}

func fromFastJSON(v *fastjson.Value) (*Node, error) {
	switch v.Type() {
	case fastjson.TypeNull:
		return Null(), nil
	case fastjson.TypeTrue:
		return Bool(true), nil
	case fastjson.TypeFalse:
		return Bool(false), nil
	case fastjson.TypeNumber:
		f, err := v.Float64()
		if err != nil {
			return nil, trusterr.Wrap(trusterr.CanonicalizationError, err, "parse number")
		}

		return Number(f), nil
	case fastjson.TypeString:
		b, err := v.StringBytes()
		if err != nil {
			return nil, trusterr.Wrap(trusterr.CanonicalizationError, err, "parse string")
		}

		return String(string(b)), nil
	case fastjson.TypeArray:
		values, err := v.Array()
		if err != nil {
			return nil, trusterr.Wrap(trusterr.CanonicalizationError, err, "parse array")
		}

		items := make([]*Node, len(values))

		for i, item := range values {
			if items[i], err = fromFastJSON(item); err != nil {
				return nil, err
			}
		}

		return Array(items...), nil
	case fastjson.TypeObject:
		obj, err := v.Object()
		if err != nil {
			return nil, trusterr.Wrap(trusterr.CanonicalizationError, err, "parse object")
		}

		node := Object()

		var visitErr error

		obj.Visit(func(key []byte, value *fastjson.Value) {
			if visitErr != nil {
				return
			}

			child, err := fromFastJSON(value)
			if err != nil {
				visitErr = err

				return
			}

			node.Set(string(key), child)
		})

		if visitErr != nil {
			return nil, visitErr
		}

		return node, nil
	}

	return nil, trusterr.New(trusterr.CanonicalizationError, "unsupported JSON type %s", v.Type())
}

// MarshalJSON emits the canonical form.
func (n *Node) MarshalJSON() ([]byte, error) {
	return Canonicalize(n)
}

// UnmarshalJSON parses JSON into the node.
func (n *Node) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}

	*n = *parsed

	return nil
}

// FromGo converts plain Go values (maps, slices, numbers, strings, bools, nil and
// anything encoding/json can marshal) to a node.
func FromGo(v interface{}) (*Node, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case *Node:
		return t.Clone(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, trusterr.Wrap(trusterr.CanonicalizationError, err, "convert number")
		}

		return Number(f), nil
	case []interface{}:
		items := make([]*Node, len(t))

		for i, item := range t {
			node, err := FromGo(item)
			if err != nil {
				return nil, err
			}

			items[i] = node
		}

		return Array(items...), nil
	case map[string]interface{}:
		obj := Object()
		keys := maps.Keys(t)
		slices.Sort(keys)

		for _, k := range keys {
			node, err := FromGo(t[k])
			if err != nil {
				return nil, err
			}

			obj.Set(k, node)
		}

		return obj, nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, trusterr.Wrap(trusterr.CanonicalizationError, err,
			"convert %s", reflect.TypeOf(v))
	}

	return Parse(data)
}

// MustFromGo is FromGo for literals known to be valid. It panics on error.
func MustFromGo(v interface{}) *Node {
	n, err := FromGo(v)
	if err != nil {
		panic(err)
	}

	return n
}

// ToGo converts the node to map[string]interface{}, []interface{}, float64,
// string, bool or nil.
func (n *Node) ToGo() interface{} {
	switch n.Kind() {
	case BoolKind:
		return n.b
	case NumberKind:
		return n.n
	case StringKind:
		return n.s
	case ArrayKind:
		out := make([]interface{}, len(n.items))
		for i, item := range n.items {
			out[i] = item.ToGo()
		}

		return out
	case ObjectKind:
		out := make(map[string]interface{}, len(n.fields))
		for k, v := range n.fields {
			out[k] = v.ToGo()
		}

		return out
	default:
		return nil
	}
}

// Decode copies the node into a struct using json field tags.
func Decode(n *Node, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create claim decoder: %w", err)
	}

	if err := decoder.Decode(n.ToGo()); err != nil {
		return fmt.Errorf("decode claim: %w", err)
	}

	return nil
}
