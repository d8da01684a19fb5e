package assets

import (
	"context"
	"strings"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/foomo/cockpitsource/pkg/richtext"
	"github.com/foomo/cockpitsource/pkg/utils"
	"go.uber.org/zap"
)

type (
	// Discoverer walks entries against their schema and collects every asset
	// path they reference
	Discoverer struct {
		l                *zap.Logger
		host             string
		placeholderImage string
		customComponents map[string]struct{}
		issues           *issues.Collector
	}
	DiscovererOption func(*Discoverer)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewDiscoverer(l *zap.Logger, host string, opts ...DiscovererOption) *Discoverer {
	inst := &Discoverer{
		l:                l.Named("discoverer"),
		host:             host,
		placeholderImage: content.DefaultPlaceholderImage,
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

func DiscovererWithPlaceholderImage(v string) DiscovererOption {
	return func(o *Discoverer) {
		o.placeholderImage = v
	}
}

func DiscovererWithCustomComponents(v ...string) DiscovererOption {
	return func(o *Discoverer) {
		for _, c := range v {
			o.customComponents[c] = struct{}{}
		}
	}
}

func DiscovererWithIssues(v *issues.Collector) DiscovererOption {
	return func(o *Discoverer) {
		o.issues = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Discover returns the placeholder image first, then the cockpit asset library
// and then every path referenced by the entries of collections. Paths are
// absolute and unique.
func (d *Discoverer) Discover(ctx context.Context, library []content.AssetPath, collections ...*content.Collection) []content.AssetPath {
	acc := newPathSet()
	d.add(ctx, acc, d.placeholderImage, "placeholder")
	for _, asset := range LibraryPaths(d.host, library) {
		d.add(ctx, acc, asset.Path, "library")
	}
	for _, c := range collections {
		for _, entry := range c.Entries {
			entryCtx := issues.WithScope(ctx, issues.Scope{Collection: c.Name, EntryID: entry.ID()})
			d.walkFields(entryCtx, acc, c.Fields, entry, "")
		}
	}
	d.l.Debug("discovered asset paths", zap.Int("count", len(acc.paths)))
	return acc.paths
}

// DiscoverEntries returns the paths referenced by entries sharing fields,
// without placeholder and library
func (d *Discoverer) DiscoverEntries(ctx context.Context, entries []content.Entry, fields content.Fields) []content.AssetPath {
	acc := newPathSet()
	for _, entry := range entries {
		d.walkFields(ctx, acc, fields, entry, "")
	}
	return acc.paths
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (d *Discoverer) walkFields(ctx context.Context, acc *pathSet, fields content.Fields, raw map[string]interface{}, prefix string) {
	for _, name := range fields.Names() {
		d.walkField(ctx, acc, fields[name], raw[name], joinFieldPath(prefix, name))
	}
}

func (d *Discoverer) walkField(ctx context.Context, acc *pathSet, field *content.Field, raw interface{}, fieldPath string) {
	if raw == nil {
		return
	}
	switch field.Type {
	case content.FieldTypeImage:
		if path, ok := content.PathOf(raw); ok {
			d.add(ctx, acc, path, fieldPath)
		}
	case content.FieldTypeAsset:
		// asset paths are relative to the uploads folder like the library
		if path, ok := content.PathOf(raw); ok {
			if !utils.IsURI(path) {
				path = content.UploadsFolder + "/" + strings.TrimLeft(path, "/")
			}
			d.add(ctx, acc, path, fieldPath)
		}
	case content.FieldTypeFile:
		if path, ok := raw.(string); ok && path != "" {
			d.add(ctx, acc, path, fieldPath)
		}
	case content.FieldTypeGallery:
		list, _ := raw.([]interface{})
		for _, item := range list {
			if path, ok := content.PathOf(item); ok {
				d.add(ctx, acc, path, fieldPath)
			}
		}
	case content.FieldTypeRepeater:
		list, _ := raw.([]interface{})
		sub := field.SubField()
		for _, item := range list {
			itemField, value := content.RepeaterItem(sub, item)
			d.walkField(ctx, acc, itemField, value, fieldPath)
		}
	case content.FieldTypeSet:
		if m, ok := raw.(map[string]interface{}); ok {
			d.walkFields(ctx, acc, field.SubFields(), m, fieldPath)
		}
	case content.FieldTypeLayout:
		nodes, err := content.DecodeLayout(raw)
		if err != nil {
			// the transformer reports broken layouts
			return
		}
		d.walkLayout(ctx, acc, nodes, fieldPath)
	}
}

func (d *Discoverer) walkLayout(ctx context.Context, acc *pathSet, nodes []*content.LayoutNode, fieldPath string) {
	for _, node := range nodes {
		if node.Component == "text" || node.Component == "html" {
			for _, key := range []string{"text", "html"} {
				body, _ := node.Settings[key].(string)
				for _, src := range richtext.Sources(body) {
					if abs, err := utils.AbsoluteURL(d.host, src); err == nil && utils.IsValidURL(abs) {
						acc.add(abs)
					}
				}
			}
		}
		if _, ok := d.customComponents[node.Component]; ok {
			for _, key := range sortedKeys(node.Settings) {
				switch setting := node.Settings[key].(type) {
				case map[string]interface{}:
					if path, ok := content.PathOf(setting); ok {
						d.add(ctx, acc, path, fieldPath)
					}
				case []interface{}:
					for _, item := range setting {
						if path, ok := content.PathOf(item); ok {
							d.add(ctx, acc, path, fieldPath)
						}
					}
				}
			}
		}
		d.walkLayout(ctx, acc, node.Children, fieldPath)
		d.walkLayout(ctx, acc, node.Columns, fieldPath)
	}
}

func (d *Discoverer) add(ctx context.Context, acc *pathSet, path, fieldPath string) {
	abs, err := utils.AbsoluteURL(d.host, path)
	if err != nil {
		d.l.Warn("skipping malformed asset path", zap.String("field", fieldPath), zap.Error(err))
		d.issues.Add(issues.Issue{
			Kind:  issues.KindMalformedAssetPath,
			Scope: issues.ScopeFrom(ctx),
			Field: fieldPath,
			Err:   err,
		})
		return
	}
	acc.add(abs)
}

type pathSet struct {
	seen  map[string]struct{}
	paths []content.AssetPath
}

func newPathSet() *pathSet {
	return &pathSet{seen: map[string]struct{}{}}
}

func (s *pathSet) add(path string) {
	if _, ok := s.seen[path]; ok {
		return
	}
	s.seen[path] = struct{}{}
	s.paths = append(s.paths, content.AssetPath{Path: path})
}

// LibraryPaths turns the relative paths of the cockpit asset library into
// absolute urls below the uploads folder
func LibraryPaths(host string, library []content.AssetPath) []content.AssetPath {
	ret := make([]content.AssetPath, 0, len(library))
	prefix := strings.TrimRight(host, "/") + content.UploadsFolder
	for _, asset := range library {
		if utils.IsURI(asset.Path) {
			ret = append(ret, asset)
			continue
		}
		ret = append(ret, content.AssetPath{Path: prefix + "/" + strings.TrimLeft(asset.Path, "/")})
	}
	return ret
}
