package content

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrAssetNotFound  = errors.New("no asset for path")
	ErrAmbiguousAsset = errors.New("path matches more than one asset")
)

// AssetPath reference to a binary asset found while walking entries
type AssetPath struct {
	Path string `json:"path"`
}

// AssetHandle identity of a fetched and stored asset
type AssetHandle struct {
	URL           string `json:"url"`
	ID            string `json:"id"`
	Ext           string `json:"ext"`
	Name          string `json:"name"`
	ContentDigest string `json:"contentDigest"`
}

// StaticPath is the public path the asset is served from after the build
func (h *AssetHandle) StaticPath() string {
	return "/static/" + h.Name + "-" + h.ContentDigest + h.Ext
}

// AssetMap resolved assets keyed by absolute url. It is built once per run
// and read only afterwards.
type AssetMap map[string]*AssetHandle

// Lookup finds the asset for a raw path. An exact url wins, otherwise every
// url containing path is a candidate and more than one distinct candidate is
// an ErrAmbiguousAsset.
func (m AssetMap) Lookup(path string) (*AssetHandle, error) {
	if path == "" {
		return nil, errors.Wrap(ErrAssetNotFound, "empty path")
	}
	if h, ok := m[path]; ok {
		return h, nil
	}
	var found *AssetHandle
	for _, url := range m.urls() {
		h := m[url]
		if !strings.Contains(url, path) {
			continue
		}
		if found != nil && found.ID != h.ID {
			return nil, errors.Wrapf(ErrAmbiguousAsset, "%q matches %q and %q", path, found.URL, h.URL)
		}
		found = h
	}
	if found == nil {
		return nil, errors.Wrapf(ErrAssetNotFound, "%q", path)
	}
	return found, nil
}

func (m AssetMap) urls() []string {
	urls := make([]string, 0, len(m))
	for url := range m {
		urls = append(urls, url)
	}
	sort.Strings(urls)
	return urls
}

// PathOf returns the path of a raw image or asset value
func PathOf(v interface{}) (string, bool) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", false
	}
	path, ok := m[KeyPath].(string)
	return path, ok && path != ""
}
