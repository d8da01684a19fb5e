// Package clean strips placeholder sentinels from built nodes before they
// are rendered
package clean

import (
	"github.com/foomo/cockpitsource/content"
)

type (
	Cleaner struct {
		value      string
		emptyArray string
	}
	Option func(*Cleaner)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(opts ...Option) *Cleaner {
	inst := &Cleaner{
		value:      content.DefaultPlaceholderValue,
		emptyArray: content.DefaultPlaceholderValueEmptyArray,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPlaceholderValue(v string) Option {
	return func(o *Cleaner) {
		o.value = v
	}
}

func WithPlaceholderValueEmptyArray(v string) Option {
	return func(o *Cleaner) {
		o.emptyArray = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Clean returns a copy of v without placeholders. The value sentinel becomes
// nil, the empty array sentinel an empty list, objects marked as not set
// become nil and nil elements are dropped from lists.
func (c *Cleaner) Clean(v interface{}) interface{} {
	switch t := v.(type) {
	case []interface{}:
		ret := make([]interface{}, 0, len(t))
		for _, item := range t {
			if cleaned := c.Clean(item); cleaned != nil {
				ret = append(ret, cleaned)
			}
		}
		return ret
	case map[string]interface{}:
		if isSet, ok := t[content.KeyIsSet].(bool); ok && !isSet {
			return nil
		}
		ret := make(map[string]interface{}, len(t))
		for k, item := range t {
			ret[k] = c.Clean(item)
		}
		return ret
	case string:
		switch t {
		case c.value:
			return nil
		case c.emptyArray:
			return []interface{}{}
		}
		return t
	default:
		return v
	}
}

// CleanNode returns a copy of n with cleaned fields
func (c *Cleaner) CleanNode(n *content.Node) *content.Node {
	ret := *n
	ret.Fields = make(map[string]interface{}, len(n.Fields))
	for k, v := range n.Fields {
		ret.Fields[k] = c.Clean(v)
	}
	return &ret
}
