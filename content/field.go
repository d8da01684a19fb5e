package content

import (
	"sort"

	"github.com/pkg/errors"
)

// FieldType cockpit field type tag
type FieldType string

const (
	FieldTypeText           FieldType = "text"
	FieldTypeTextarea       FieldType = "textarea"
	FieldTypeWysiwyg        FieldType = "wysiwyg"
	FieldTypeHTML           FieldType = "html"
	FieldTypeMarkdown       FieldType = "markdown"
	FieldTypeColor          FieldType = "color"
	FieldTypeColorTag       FieldType = "colortag"
	FieldTypeRating         FieldType = "rating"
	FieldTypeDate           FieldType = "date"
	FieldTypeTime           FieldType = "time"
	FieldTypeCode           FieldType = "code"
	FieldTypePassword       FieldType = "password"
	FieldTypeSelect         FieldType = "select"
	FieldTypeMultipleSelect FieldType = "multipleselect"
	FieldTypeTags           FieldType = "tags"
	FieldTypeBoolean        FieldType = "boolean"
	FieldTypeObject         FieldType = "object"
	FieldTypeLocation       FieldType = "location"
	FieldTypeImage          FieldType = "image"
	FieldTypeAsset          FieldType = "asset"
	FieldTypeFile           FieldType = "file"
	FieldTypeGallery        FieldType = "gallery"
	FieldTypeCollectionLink FieldType = "collectionlink"
	FieldTypeRepeater       FieldType = "repeater"
	FieldTypeSet            FieldType = "set"
	FieldTypeLayout         FieldType = "layout"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText: {}, FieldTypeTextarea: {}, FieldTypeWysiwyg: {}, FieldTypeHTML: {},
	FieldTypeMarkdown: {}, FieldTypeColor: {}, FieldTypeColorTag: {}, FieldTypeRating: {},
	FieldTypeDate: {}, FieldTypeTime: {}, FieldTypeCode: {}, FieldTypePassword: {},
	FieldTypeSelect: {}, FieldTypeMultipleSelect: {}, FieldTypeTags: {}, FieldTypeBoolean: {},
	FieldTypeObject: {}, FieldTypeLocation: {}, FieldTypeImage: {}, FieldTypeAsset: {},
	FieldTypeFile: {}, FieldTypeGallery: {}, FieldTypeCollectionLink: {}, FieldTypeRepeater: {},
	FieldTypeSet: {}, FieldTypeLayout: {},
}

// Known reports whether t is one of the field types cockpit ships with
func (t FieldType) Known() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// Field schema of a single entry attribute
type Field struct {
	Name    string                 `json:"name"`
	Type    FieldType              `json:"type"`
	Label   string                 `json:"label,omitempty"`
	Options map[string]interface{} `json:"options,omitempty"`
}

// SubField returns the element schema of a repeater. Repeaters declaring a
// list of fields fall back to the first one, repeaters without any options to
// a text field. The element is named after the repeater unless it carries its
// own name.
func (f *Field) SubField() *Field {
	var sub *Field
	if v, ok := f.Options["field"]; ok {
		sub, _ = FieldFromValue(v)
	}
	if sub == nil {
		if list, ok := f.Options["fields"].([]interface{}); ok && len(list) > 0 {
			sub, _ = FieldFromValue(list[0])
		}
	}
	if sub == nil {
		sub = &Field{Type: FieldTypeText}
	}
	if sub.Name == "" {
		sub.Name = f.Name
	}
	return sub
}

// SubFields returns the name keyed schema of a set
func (f *Field) SubFields() Fields {
	fields := Fields{}
	list, _ := f.Options["fields"].([]interface{})
	for _, v := range list {
		if sub, err := FieldFromValue(v); err == nil && sub.Name != "" {
			fields[sub.Name] = sub
		}
	}
	return fields
}

// FieldFromValue reads a field schema from a decoded json value as found in
// set options and repeater items
func FieldFromValue(v interface{}) (*Field, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("field schema must be an object, got %T", v)
	}
	f := &Field{}
	f.Name, _ = m["name"].(string)
	f.Label, _ = m["label"].(string)
	if t, ok := m["type"].(string); ok {
		f.Type = FieldType(t)
	}
	if f.Type == "" {
		f.Type = FieldTypeText
	}
	f.Options, _ = m["options"].(map[string]interface{})
	return f, nil
}

// Fields schema of a collection keyed by field name
type Fields map[string]*Field

// Names returns the field names in a stable order
func (fs Fields) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnmarshalJSON accepts both the object form cockpit uses for collections and
// the list form it uses for regions
func (fs *Fields) UnmarshalJSON(data []byte) error {
	var list []*Field
	if err := json.Unmarshal(data, &list); err == nil {
		*fs = make(Fields, len(list))
		for _, f := range list {
			if f == nil || f.Name == "" {
				continue
			}
			(*fs)[f.Name] = f
		}
		return nil
	}
	var m map[string]*Field
	if err := json.Unmarshal(data, &m); err != nil {
		return errors.Wrap(err, "fields must be a list or an object")
	}
	*fs = make(Fields, len(m))
	for name, f := range m {
		if f == nil {
			continue
		}
		if f.Name == "" {
			f.Name = name
		}
		(*fs)[name] = f
	}
	return nil
}

// RepeaterItem splits a raw repeater element into its field schema and value.
// Elements without their own schema use sub.
func RepeaterItem(sub *Field, item interface{}) (*Field, interface{}) {
	m, ok := item.(map[string]interface{})
	if !ok {
		return sub, item
	}
	value, hasValue := m["value"]
	raw, hasField := m["field"]
	if !hasValue && !hasField {
		return sub, item
	}
	if hasField {
		if f, err := FieldFromValue(raw); err == nil {
			if f.Name == "" {
				f.Name = sub.Name
			}
			return f, value
		}
	}
	return sub, value
}
