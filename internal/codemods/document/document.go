// Package document edits YAML and JSON files as node trees so that key
// order and comments survive a rewrite.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrEmpty is returned when content holds no YAML document.
var ErrEmpty = errors.New("empty document")

// ParseDocument parses YAML (or JSON, which is valid YAML) into a node tree
// that keeps key order and comments. The document node is returned so that
// comments above the first key survive re-encoding.
func ParseDocument(content string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmpty
	}
	return &doc, nil
}

// Parse is ParseDocument returning the top level node.
func Parse(content string) (*yaml.Node, error) {
	doc, err := ParseDocument(content)
	if err != nil {
		return nil, err
	}
	return doc.Content[0], nil
}

// EncodeYAML renders node as YAML with two space indentation.
func EncodeYAML(node *yaml.Node) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// EncodeJSON renders node as JSON with two space indentation and without a
// trailing newline. Comments are dropped.
func EncodeJSON(node *yaml.Node) (string, error) {
	var compact bytes.Buffer
	if err := writeJSON(&compact, node); err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

func writeJSON(buf *bytes.Buffer, node *yaml.Node) error {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, node.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, node.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(node.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			buf.Write(quote(node.Content[i].Value))
			buf.WriteByte(':')
			if err := writeJSON(buf, node.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range node.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		switch node.ShortTag() {
		case "!!int", "!!float", "!!bool":
			buf.WriteString(node.Value)
		case "!!null":
			buf.WriteString("null")
		default:
			buf.Write(quote(node.Value))
		}
	default:
		return fmt.Errorf("unsupported node kind %v", node.Kind)
	}
	return nil
}

// Get returns the value for key in a mapping node, or nil.
func Get(node *yaml.Node, key string) *yaml.Node {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

// Lookup follows keys through nested mappings.
func Lookup(node *yaml.Node, keys ...string) *yaml.Node {
	for _, key := range keys {
		node = Get(node, key)
		if node == nil {
			return nil
		}
	}
	return node
}

// Set replaces the value of key in a mapping node or appends the pair.
func Set(node *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			node.Content[i+1] = value
			return
		}
	}
	node.Content = append(node.Content, String(key), value)
}

// Delete removes key from a mapping node and reports whether it was there.
func Delete(node *yaml.Node, key string) bool {
	if node == nil || node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			node.Content = append(node.Content[:i], node.Content[i+2:]...)
			return true
		}
	}
	return false
}

// DeleteIn removes the value at the given key path.
func DeleteIn(node *yaml.Node, keys ...string) bool {
	if len(keys) == 0 {
		return false
	}
	return Delete(Lookup(node, keys[:len(keys)-1]...), keys[len(keys)-1])
}

func String(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// Mapping builds a mapping node from alternating keys and values. Values may
// be strings or *yaml.Node.
func Mapping(pairs ...any) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		var value *yaml.Node
		switch v := pairs[i+1].(type) {
		case *yaml.Node:
			value = v
		case string:
			value = String(v)
		default:
			value = &yaml.Node{}
			_ = value.Encode(v)
		}
		node.Content = append(node.Content, String(key), value)
	}
	return node
}

// SequenceContains reports whether a sequence holds the string s, or a
// scalar contains it as a substring.
func SequenceContains(node *yaml.Node, s string) bool {
	if node == nil {
		return false
	}
	switch node.Kind {
	case yaml.SequenceNode:
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode && item.Value == s {
				return true
			}
		}
	case yaml.ScalarNode:
		return strings.Contains(node.Value, s)
	}
	return false
}

// Equal compares two nodes by their decoded values, ignoring style and
// comments.
func Equal(a, b *yaml.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	var av, bv any
	if err := a.Decode(&av); err != nil {
		return false
	}
	if err := b.Decode(&bv); err != nil {
		return false
	}
	return reflect.DeepEqual(av, bv)
}

func quote(s string) []byte {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return bytes.TrimRight(buf.Bytes(), "\n")
}
