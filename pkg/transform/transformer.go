// Package transform turns raw cockpit entries into normalized field values.
// Every declared field yields a value, absent data is replaced with a
// placeholder so the shape of a node never depends on its content.
package transform

import (
	"context"
	"fmt"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrUnknownFieldType        = errors.New("unknown field type")
	ErrUnsupportedNestedLayout = errors.New("layout fields are only supported at the top level")
)

// Resolver fetches assets that were not part of the asset map, like images
// embedded in rich text
type Resolver interface {
	Resolve(ctx context.Context, url string) (*content.AssetHandle, error)
}

type (
	// Transformer is read only after construction and safe for concurrent use
	Transformer struct {
		l                *zap.Logger
		assets           content.AssetMap
		placeholders     *content.Placeholders
		resolver         Resolver
		host             string
		customComponents map[string]struct{}
		issues           *issues.Collector
	}
	Option func(*Transformer)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, assets content.AssetMap, placeholders *content.Placeholders, opts ...Option) *Transformer {
	inst := &Transformer{
		l:                l.Named("transformer"),
		assets:           assets,
		placeholders:     placeholders,
		customComponents: map[string]struct{}{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithResolver(v Resolver) Option {
	return func(o *Transformer) {
		o.resolver = v
	}
}

func WithHost(v string) Option {
	return func(o *Transformer) {
		o.host = v
	}
}

func WithCustomComponents(v ...string) Option {
	return func(o *Transformer) {
		for _, c := range v {
			o.customComponents[c] = struct{}{}
		}
	}
}

func WithIssues(v *issues.Collector) Option {
	return func(o *Transformer) {
		o.issues = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ProcessFields transforms every declared field of raw. Collection links are
// emitted under their link key and layout fields add the ids of the assets
// they reference under <name>_files___NODE.
func (t *Transformer) ProcessFields(ctx context.Context, fields content.Fields, raw map[string]interface{}) map[string]interface{} {
	return t.processFields(ctx, fields, raw, "", false)
}

// ProcessField transforms a single top level field. The bool is false when
// the field yields no value. Layout asset ids are only returned by
// ProcessLayoutField and emitted by ProcessFields.
func (t *Transformer) ProcessField(ctx context.Context, field *content.Field, raw interface{}) (interface{}, bool) {
	if field.Type == content.FieldTypeLayout {
		v, _ := t.processLayoutField(ctx, raw, field.Name)
		return v, true
	}
	return t.processField(ctx, field, raw, field.Name, false)
}

// ProcessLayoutField walks a top level layout field and returns the tree
// together with the distinct ids of the assets it references
func (t *Transformer) ProcessLayoutField(ctx context.Context, field *content.Field, raw interface{}) (interface{}, []string) {
	return t.processLayoutField(ctx, raw, field.Name)
}

// Key is the node key a field value is emitted under, collection links carry
// the link marker
func Key(field *content.Field, name string) string {
	if field.Type == content.FieldTypeCollectionLink {
		return name + content.LinkSuffix
	}
	return name
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (t *Transformer) processFields(ctx context.Context, fields content.Fields, raw map[string]interface{}, prefix string, nested bool) map[string]interface{} {
	ret := make(map[string]interface{}, len(fields))
	for _, name := range fields.Names() {
		field := fields[name]
		fieldPath := joinFieldPath(prefix, name)
		switch {
		case field.Type == content.FieldTypeLayout && !nested:
			v, files := t.processLayoutField(ctx, raw[name], fieldPath)
			ret[name] = v
			if len(files) > 0 {
				ids := make([]interface{}, len(files))
				for i, id := range files {
					ids[i] = id
				}
				ret[name+"_files"+content.LinkSuffix] = ids
			}
		default:
			if v, ok := t.processField(ctx, field, raw[name], fieldPath, nested); ok {
				ret[Key(field, name)] = v
			}
		}
	}
	return ret
}

func (t *Transformer) processField(ctx context.Context, field *content.Field, raw interface{}, fieldPath string, nested bool) (interface{}, bool) {
	switch field.Type {
	case content.FieldTypeText, content.FieldTypeTextarea, content.FieldTypeWysiwyg, content.FieldTypeHTML,
		content.FieldTypeMarkdown, content.FieldTypeColor, content.FieldTypeColorTag, content.FieldTypeRating,
		content.FieldTypeDate, content.FieldTypeTime, content.FieldTypeCode, content.FieldTypePassword,
		content.FieldTypeSelect:
		// bodies are passed through, images inside of them are not extracted
		return t.simple(raw, t.placeholders.Value), true
	case content.FieldTypeMultipleSelect, content.FieldTypeTags:
		return t.simple(raw, t.placeholders.EmptyArray), true
	case content.FieldTypeBoolean:
		if raw == nil {
			return false, true
		}
		return raw, true
	case content.FieldTypeObject:
		if raw == nil {
			return content.PlaceholderEmptyObject, true
		}
		return raw, true
	case content.FieldTypeLocation:
		if raw == nil {
			return t.placeholders.Location(), true
		}
		return raw, true
	case content.FieldTypeImage:
		return t.processImage(ctx, raw, fieldPath, t.placeholders.Image), true
	case content.FieldTypeAsset:
		return t.processImage(ctx, raw, fieldPath, t.placeholders.Asset), true
	case content.FieldTypeFile:
		return t.processFile(ctx, raw, fieldPath), true
	case content.FieldTypeGallery:
		return t.processGallery(ctx, raw, fieldPath), true
	case content.FieldTypeCollectionLink:
		return processCollectionLink(raw), true
	case content.FieldTypeRepeater:
		return t.processRepeater(ctx, field, raw, fieldPath), true
	case content.FieldTypeSet:
		m, _ := raw.(map[string]interface{})
		if m == nil {
			m = map[string]interface{}{}
		}
		return t.processFields(ctx, field.SubFields(), m, fieldPath, true), true
	case content.FieldTypeLayout:
		if !nested {
			v, _ := t.processLayoutField(ctx, raw, fieldPath)
			return v, true
		}
		t.report(ctx, issues.KindUnsupportedField, fieldPath, "", ErrUnsupportedNestedLayout)
		return nil, false
	default:
		t.l.Warn("unhandled field type",
			zap.String("collection", issues.ScopeFrom(ctx).Collection),
			zap.String("entry", issues.ScopeFrom(ctx).EntryID),
			zap.String("field", fieldPath),
			zap.String("type", string(field.Type)),
		)
		t.report(ctx, issues.KindUnknownFieldType, fieldPath, "", errors.Wrapf(ErrUnknownFieldType, "%q", field.Type))
		return nil, false
	}
}

func (t *Transformer) simple(raw interface{}, placeholder interface{}) interface{} {
	if raw == nil {
		return placeholder
	}
	if list, ok := raw.([]interface{}); ok && len(list) == 0 {
		return placeholder
	}
	return raw
}

func (t *Transformer) processImage(ctx context.Context, raw interface{}, fieldPath string, placeholder func() map[string]interface{}) interface{} {
	path, ok := content.PathOf(raw)
	if !ok {
		return placeholder()
	}
	h, ok := t.lookup(ctx, path, fieldPath)
	if !ok {
		return placeholder()
	}
	ret := copyMap(raw.(map[string]interface{}))
	ret[content.KeyIsSet] = true
	ret[content.KeyLocalFile] = h.ID
	return ret
}

func (t *Transformer) processFile(ctx context.Context, raw interface{}, fieldPath string) interface{} {
	path, _ := raw.(string)
	if path == "" {
		return t.placeholders.Image()
	}
	h, ok := t.lookup(ctx, path, fieldPath)
	if !ok {
		return t.placeholders.Image()
	}
	return map[string]interface{}{
		content.KeyIsSet:     true,
		content.KeyPath:      path,
		content.KeyLocalFile: h.ID,
	}
}

func (t *Transformer) processGallery(ctx context.Context, raw interface{}, fieldPath string) interface{} {
	list, _ := raw.([]interface{})
	if len(list) == 0 {
		return []interface{}{t.placeholders.GalleryImage()}
	}
	ret := make([]interface{}, len(list))
	for i, item := range list {
		ret[i] = t.processImage(ctx, item, fmt.Sprintf("%s[%d]", fieldPath, i), t.placeholders.GalleryImage)
	}
	return ret
}

func (t *Transformer) processRepeater(ctx context.Context, field *content.Field, raw interface{}, fieldPath string) interface{} {
	sub := field.SubField()
	list, _ := raw.([]interface{})
	if len(list) == 0 {
		stub := map[string]interface{}{content.KeyIsSet: false}
		if v, ok := t.processField(ctx, sub, nil, fieldPath, true); ok {
			stub[Key(sub, sub.Name)] = v
		}
		return []interface{}{stub}
	}
	ret := make([]interface{}, len(list))
	for i, item := range list {
		itemField, value := content.RepeaterItem(sub, item)
		element := map[string]interface{}{}
		if v, ok := t.processField(ctx, itemField, value, fmt.Sprintf("%s[%d]", fieldPath, i), true); ok {
			element[Key(itemField, itemField.Name)] = v
		}
		ret[i] = element
	}
	return ret
}

// processLayoutField returns the walked tree and the ids of the assets it
// references
func (t *Transformer) processLayoutField(ctx context.Context, raw interface{}, fieldPath string) (interface{}, []string) {
	nodes, err := content.DecodeLayout(raw)
	if err != nil {
		t.report(ctx, issues.KindLayout, fieldPath, "", err)
		return t.placeholders.EmptyArray, nil
	}
	if len(nodes) == 0 {
		return t.placeholders.EmptyArray, nil
	}
	parsed, assets := t.parseLayout(ctx, nodes, fieldPath)
	return content.LayoutValue(parsed), assets
}

func processCollectionLink(raw interface{}) interface{} {
	switch v := raw.(type) {
	case map[string]interface{}:
		return v[content.KeyID]
	case []interface{}:
		ids := make([]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok && m[content.KeyID] != nil {
				ids = append(ids, m[content.KeyID])
			}
		}
		return ids
	default:
		return nil
	}
}

// lookup finds the handle of a referenced asset and reports when there is none
func (t *Transformer) lookup(ctx context.Context, path, fieldPath string) (*content.AssetHandle, bool) {
	h, err := t.assets.Lookup(path)
	if err == nil {
		return h, true
	}
	kind := issues.KindAssetMissing
	if errors.Is(err, content.ErrAmbiguousAsset) {
		kind = issues.KindAmbiguousAsset
	}
	t.l.Debug("no asset for path", zap.String("field", fieldPath), zap.String("path", path), zap.Error(err))
	t.report(ctx, kind, fieldPath, path, err)
	return nil, false
}

func (t *Transformer) report(ctx context.Context, kind issues.Kind, fieldPath, asset string, err error) {
	t.issues.Add(issues.Issue{
		Kind:  kind,
		Scope: issues.ScopeFrom(ctx),
		Field: fieldPath,
		Asset: asset,
		Err:   err,
	})
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	ret := make(map[string]interface{}, len(m)+2)
	for k, v := range m {
		ret[k] = v
	}
	return ret
}

func joinFieldPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
