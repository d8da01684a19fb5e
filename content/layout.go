package content

import (
	"github.com/pkg/errors"
)

const (
	layoutKeyComponent = "component"
	layoutKeySettings  = "settings"
	layoutKeyChildren  = "children"
	layoutKeyColumns   = "columns"
)

// LayoutNode a component in a layout tree. Children and Columns are nil when
// the raw node does not carry them.
type LayoutNode struct {
	Component string
	Settings  map[string]interface{}
	Children  []*LayoutNode
	Columns   []*LayoutNode
	// Extra keeps every other raw key untouched
	Extra map[string]interface{}
}

// DecodeLayout reads a layout tree from a decoded json value or from its
// string encoding
func DecodeLayout(v interface{}) ([]*LayoutNode, error) {
	if s, ok := v.(string); ok {
		var decoded interface{}
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			return nil, errors.Wrap(err, "failed to decode layout string")
		}
		v = decoded
	}
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil, errors.Errorf("layout must be a list, got %T", v)
	}
	nodes := make([]*LayoutNode, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, errors.Errorf("layout node %d must be an object, got %T", i, item)
		}
		node, err := decodeLayoutNode(m)
		if err != nil {
			return nil, errors.Wrapf(err, "layout node %d", i)
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeLayoutNode(m map[string]interface{}) (*LayoutNode, error) {
	n := &LayoutNode{Extra: map[string]interface{}{}}
	for k, v := range m {
		switch k {
		case layoutKeyComponent:
			n.Component, _ = v.(string)
		case layoutKeySettings:
			n.Settings, _ = v.(map[string]interface{})
		case layoutKeyChildren, layoutKeyColumns:
			nodes, err := DecodeLayout(v)
			if err != nil {
				return nil, errors.Wrap(err, k)
			}
			if nodes == nil {
				nodes = []*LayoutNode{}
			}
			if k == layoutKeyChildren {
				n.Children = nodes
			} else {
				n.Columns = nodes
			}
		default:
			n.Extra[k] = v
		}
	}
	if n.Settings == nil {
		n.Settings = map[string]interface{}{}
	}
	return n, nil
}

// Clone copies the node and its settings map, the subtrees are shared
func (n *LayoutNode) Clone() *LayoutNode {
	c := *n
	c.Settings = make(map[string]interface{}, len(n.Settings))
	for k, v := range n.Settings {
		c.Settings[k] = v
	}
	return &c
}

// Value converts the node back into a plain json value
func (n *LayoutNode) Value() map[string]interface{} {
	m := make(map[string]interface{}, len(n.Extra)+4)
	for k, v := range n.Extra {
		m[k] = v
	}
	if n.Component != "" {
		m[layoutKeyComponent] = n.Component
	}
	m[layoutKeySettings] = n.Settings
	if n.Children != nil {
		m[layoutKeyChildren] = LayoutValue(n.Children)
	}
	if n.Columns != nil {
		m[layoutKeyColumns] = LayoutValue(n.Columns)
	}
	return m
}

// LayoutValue converts a layout tree into plain json values
func LayoutValue(nodes []*LayoutNode) []interface{} {
	ret := make([]interface{}, len(nodes))
	for i, n := range nodes {
		ret[i] = n.Value()
	}
	return ret
}
