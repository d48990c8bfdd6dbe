// Copyright 2026 The BetterAutoModerator Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rule

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is a YAML mapping with stable key order. Rule keys are examined in
// declared order during evaluation and rendered in the same order when a rule
// is pushed back to AutoModerator, so plain Go maps are not enough.
//
// Setting an existing key keeps its original position and replaces the value,
// which mirrors how a YAML mapping with duplicate keys loads.
type Config struct {
	keys   []string
	values map[string]any
}

// NewConfig returns an empty ordered mapping.
func NewConfig() *Config {
	return &Config{values: make(map[string]any)}
}

// Set stores a value under key, preserving the first insertion position.
func (c *Config) Set(key string, value any) {
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present.
func (c *Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// Keys returns the keys in insertion order. The returned slice is shared;
// callers must not modify it.
func (c *Config) Keys() []string {
	return c.keys
}

// Len returns the number of keys.
func (c *Config) Len() int {
	return len(c.keys)
}

// Clone returns a shallow copy of the mapping.
func (c *Config) Clone() *Config {
	out := NewConfig()
	for _, k := range c.keys {
		out.Set(k, c.values[k])
	}
	return out
}

// MarshalYAML renders the mapping as a YAML node in insertion order.
func (c *Config) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range c.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
		valNode := &yaml.Node{}
		if err := valNode.Encode(c.values[k]); err != nil {
			return nil, fmt.Errorf("encoding config key %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

// UnmarshalYAML loads the mapping from a YAML node, keeping key order.
func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := configFromNode(node)
	if err != nil {
		return err
	}
	*c = *parsed
	return nil
}

// configFromNode converts a YAML mapping node into an ordered Config.
func configFromNode(node *yaml.Node) (*Config, error) {
	for node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return NewConfig(), nil
		}
		node = node.Content[0]
	}
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a YAML mapping, got %s at line %d", nodeKind(node), node.Line)
	}

	cfg := NewConfig()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, fmt.Errorf("decoding mapping key at line %d: %w", keyNode.Line, err)
		}
		value, err := decodeNode(node.Content[i+1])
		if err != nil {
			return nil, err
		}
		cfg.Set(key, value)
	}
	return cfg, nil
}

// decodeNode converts a YAML value node into a Go value, producing *Config
// for nested mappings so that sub-rule key order survives.
func decodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		return configFromNode(node)
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return decodeNode(node.Alias)
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return decodeNode(node.Content[0])
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, fmt.Errorf("decoding scalar at line %d: %w", node.Line, err)
		}
		return v, nil
	}
}

func nodeKind(node *yaml.Node) string {
	switch node.Kind {
	case yaml.ScalarNode:
		return "scalar"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	}
	return "unknown"
}
