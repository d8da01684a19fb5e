package content

import (
	"github.com/pkg/errors"
)

// reserved node keys, transformed fields never overwrite them
const (
	nodeKeyID       = "id"
	nodeKeyChildren = "children"
	nodeKeyParent   = "parent"
	nodeKeyInternal = "internal"
)

// Internal bookkeeping of a node for the host pipeline
type Internal struct {
	Type          string `json:"type"`
	ContentDigest string `json:"contentDigest"`
}

// Node one assembled entry. Fields are flattened into the top level when
// serialized.
type Node struct {
	ID       string
	Parent   string
	Children []string
	Internal Internal
	Fields   map[string]interface{}
}

// MarshalJSON flattens the transformed fields next to the node identity
func (n *Node) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(n.Fields)+4)
	for k, v := range n.Fields {
		m[k] = v
	}
	children := n.Children
	if children == nil {
		children = []string{}
	}
	var parent interface{}
	if n.Parent != "" {
		parent = n.Parent
	}
	m[nodeKeyID] = n.ID
	m[nodeKeyChildren] = children
	m[nodeKeyParent] = parent
	m[nodeKeyInternal] = n.Internal
	return json.Marshal(m)
}

// UnmarshalJSON reads a flattened node back, used when restoring snapshots
func (n *Node) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "failed to decode node")
	}
	n.ID, _ = m[nodeKeyID].(string)
	n.Parent, _ = m[nodeKeyParent].(string)
	n.Children = []string{}
	if children, ok := m[nodeKeyChildren].([]interface{}); ok {
		for _, child := range children {
			if id, ok := child.(string); ok {
				n.Children = append(n.Children, id)
			}
		}
	}
	if internal, ok := m[nodeKeyInternal].(map[string]interface{}); ok {
		n.Internal.Type, _ = internal["type"].(string)
		n.Internal.ContentDigest, _ = internal["contentDigest"].(string)
	}
	for _, key := range []string{nodeKeyID, nodeKeyParent, nodeKeyChildren, nodeKeyInternal} {
		delete(m, key)
	}
	n.Fields = m
	return nil
}
