package transform

import (
	"context"
	"sort"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/foomo/cockpitsource/pkg/richtext"
	"github.com/foomo/cockpitsource/pkg/utils"
	"go.uber.org/zap"
)

var richTextComponents = map[string][]string{
	"text": {"text", "html"},
	"html": {"text", "html"},
}

// ParseLayout walks a layout tree. It returns a rewritten copy of the tree
// and the distinct ids of the assets referenced by custom components in
// order of appearance. Image sources in rich text are rewritten to their
// static path before ParseLayout returns.
func (t *Transformer) ParseLayout(ctx context.Context, nodes []*content.LayoutNode) ([]*content.LayoutNode, []string) {
	return t.parseLayout(ctx, nodes, "")
}

func (t *Transformer) parseLayout(ctx context.Context, nodes []*content.LayoutNode, fieldPath string) ([]*content.LayoutNode, []string) {
	parsed, assets := t.walkLayout(ctx, nodes, fieldPath, false)
	return parsed, distinct(assets)
}

func (t *Transformer) walkLayout(ctx context.Context, nodes []*content.LayoutNode, fieldPath string, isColumn bool) ([]*content.LayoutNode, []string) {
	var assets []string
	parsed := make([]*content.LayoutNode, len(nodes))
	for i, node := range nodes {
		n := node.Clone()
		if keys, ok := richTextComponents[n.Component]; ok {
			t.rewriteRichText(ctx, n, keys, fieldPath)
		}
		if _, ok := t.customComponents[n.Component]; ok {
			assets = append(assets, t.parseCustomComponent(ctx, n, fieldPath)...)
		}
		if n.Children != nil {
			if !isColumn {
				t.l.Debug("component", zap.String("component", n.Component), zap.String("field", fieldPath))
			} else {
				t.l.Debug("column", zap.String("field", fieldPath))
			}
			children, childAssets := t.walkLayout(ctx, n.Children, fieldPath, false)
			n.Children = children
			assets = append(assets, childAssets...)
		}
		if n.Columns != nil {
			columns, columnAssets := t.walkLayout(ctx, n.Columns, fieldPath, true)
			n.Columns = columns
			assets = append(assets, columnAssets...)
		}
		parsed[i] = n
	}
	return parsed, assets
}

// rewriteRichText points every image source of the node's rich text settings
// to the static path of the fetched image
func (t *Transformer) rewriteRichText(ctx context.Context, n *content.LayoutNode, keys []string, fieldPath string) {
	for _, key := range keys {
		body, ok := n.Settings[key].(string)
		if !ok || body == "" {
			continue
		}
		replacements := map[string]string{}
		for _, src := range richtext.Sources(body) {
			abs, err := utils.AbsoluteURL(t.host, src)
			if err != nil {
				t.report(ctx, issues.KindRichText, fieldPath, src, err)
				continue
			}
			if !utils.IsValidURL(abs) {
				continue
			}
			if h := t.richTextAsset(ctx, abs); h != nil {
				replacements[src] = h.StaticPath()
			}
		}
		n.Settings[key] = richtext.Rewrite(body, replacements)
	}
}

func (t *Transformer) richTextAsset(ctx context.Context, url string) *content.AssetHandle {
	if h, ok := t.assets[url]; ok {
		return h
	}
	if t.resolver == nil {
		return nil
	}
	h, err := t.resolver.Resolve(ctx, url)
	if err != nil {
		// failed fetches are reported by the resolver
		t.l.Debug("leaving rich text image untouched", zap.String("url", url), zap.Error(err))
		return nil
	}
	return h
}

// parseCustomComponent links image and image list settings to their assets
func (t *Transformer) parseCustomComponent(ctx context.Context, n *content.LayoutNode, fieldPath string) []string {
	var assets []string
	keys := make([]string, 0, len(n.Settings))
	for k := range n.Settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		switch setting := n.Settings[key].(type) {
		case map[string]interface{}:
			if image, id, ok := t.linkSetting(ctx, setting, fieldPath); ok {
				n.Settings[key] = image
				assets = append(assets, id)
			}
		case []interface{}:
			if len(setting) == 0 {
				continue
			}
			if _, ok := content.PathOf(setting[0]); !ok {
				continue
			}
			images := make([]interface{}, len(setting))
			for i, item := range setting {
				images[i] = item
				m, ok := item.(map[string]interface{})
				if !ok {
					continue
				}
				if image, id, ok := t.linkSetting(ctx, m, fieldPath); ok {
					images[i] = image
					assets = append(assets, id)
				}
			}
			n.Settings[key] = images
		}
	}
	return assets
}

func (t *Transformer) linkSetting(ctx context.Context, setting map[string]interface{}, fieldPath string) (map[string]interface{}, string, bool) {
	path, ok := content.PathOf(setting)
	if !ok {
		return nil, "", false
	}
	h, ok := t.lookup(ctx, path, fieldPath)
	if !ok {
		return nil, "", false
	}
	image := copyMap(setting)
	image[content.KeyLocalFileID] = h.ID
	return image, h.ID, true
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	ret := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ret = append(ret, id)
	}
	return ret
}
