package content_test

import (
	"testing"

	"github.com/foomo/cockpitsource/content"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestAssetMap_Lookup(t *testing.T) {
	m := content.AssetMap{
		"https://cms.example.com/storage/uploads/photos/a.png": {ID: "file-a", URL: "https://cms.example.com/storage/uploads/photos/a.png"},
		"https://cms.example.com/storage/uploads/x/same.png":   {ID: "file-x", URL: "https://cms.example.com/storage/uploads/x/same.png"},
		"https://cms.example.com/storage/uploads/y/same.png":   {ID: "file-y", URL: "https://cms.example.com/storage/uploads/y/same.png"},
		"https://cdn.example.com/photos/a.png":                 {ID: "file-cdn", URL: "https://cdn.example.com/photos/a.png"},
	}

	t.Run("exact", func(t *testing.T) {
		h, err := m.Lookup("https://cdn.example.com/photos/a.png")
		require.NoError(t, err)
		assert.Equal(t, "file-cdn", h.ID)
	})

	t.Run("contained", func(t *testing.T) {
		h, err := m.Lookup("/x/same.png")
		require.NoError(t, err)
		assert.Equal(t, "file-x", h.ID)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := m.Lookup("same.png")
		assert.ErrorIs(t, err, content.ErrAmbiguousAsset)
		_, err = m.Lookup("/photos/a.png")
		assert.ErrorIs(t, err, content.ErrAmbiguousAsset)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := m.Lookup("/nope.png")
		assert.ErrorIs(t, err, content.ErrAssetNotFound)
		_, err = m.Lookup("")
		assert.ErrorIs(t, err, content.ErrAssetNotFound)
	})

	t.Run("same asset under two urls", func(t *testing.T) {
		shared := &content.AssetHandle{ID: "file-s"}
		_, err := content.AssetMap{
			"https://a.example.com/s.png": shared,
			"https://b.example.com/s.png": shared,
		}.Lookup("/s.png")
		require.NoError(t, err)
	})
}

func TestAssetHandle_StaticPath(t *testing.T) {
	h := &content.AssetHandle{Name: "photo", Ext: ".jpg", ContentDigest: "abc123"}
	assert.Equal(t, "/static/photo-abc123.jpg", h.StaticPath())
}

func TestPathOf(t *testing.T) {
	path, ok := content.PathOf(map[string]interface{}{"path": "/a.png"})
	assert.True(t, ok)
	assert.Equal(t, "/a.png", path)

	_, ok = content.PathOf(map[string]interface{}{"path": ""})
	assert.False(t, ok)
	_, ok = content.PathOf("/a.png")
	assert.False(t, ok)
}

func TestFields_UnmarshalJSON(t *testing.T) {
	t.Run("object", func(t *testing.T) {
		var fs content.Fields
		require.NoError(t, json.Unmarshal([]byte(`{"title":{"type":"text"},"image":{"name":"image","type":"image"}}`), &fs))
		assert.Equal(t, []string{"image", "title"}, fs.Names())
		assert.Equal(t, "title", fs["title"].Name)
		assert.Equal(t, content.FieldTypeImage, fs["image"].Type)
	})

	t.Run("list", func(t *testing.T) {
		var fs content.Fields
		require.NoError(t, json.Unmarshal([]byte(`[{"name":"copyright","type":"text"},{"type":"text"}]`), &fs))
		assert.Equal(t, []string{"copyright"}, fs.Names())
	})

	t.Run("invalid", func(t *testing.T) {
		var fs content.Fields
		assert.Error(t, json.Unmarshal([]byte(`"title"`), &fs))
	})
}

func TestFieldType_Known(t *testing.T) {
	assert.True(t, content.FieldTypeLayout.Known())
	assert.True(t, content.FieldTypeCollectionLink.Known())
	assert.False(t, content.FieldType("unknown").Known())
}

func TestField_SubField(t *testing.T) {
	t.Run("field option", func(t *testing.T) {
		f := &content.Field{Name: "images", Options: map[string]interface{}{
			"field": map[string]interface{}{"type": "image"},
		}}
		sub := f.SubField()
		assert.Equal(t, "images", sub.Name)
		assert.Equal(t, content.FieldTypeImage, sub.Type)
	})

	t.Run("fields option", func(t *testing.T) {
		f := &content.Field{Name: "items", Options: map[string]interface{}{
			"fields": []interface{}{
				map[string]interface{}{"name": "first", "type": "boolean"},
				map[string]interface{}{"name": "second", "type": "text"},
			},
		}}
		sub := f.SubField()
		assert.Equal(t, "first", sub.Name)
		assert.Equal(t, content.FieldTypeBoolean, sub.Type)
	})

	t.Run("no options", func(t *testing.T) {
		sub := (&content.Field{Name: "tags"}).SubField()
		assert.Equal(t, &content.Field{Name: "tags", Type: content.FieldTypeText}, sub)
	})
}

func TestField_SubFields(t *testing.T) {
	f := &content.Field{Name: "seo", Options: map[string]interface{}{
		"fields": []interface{}{
			map[string]interface{}{"name": "title", "type": "text"},
			map[string]interface{}{"type": "text"},
			"broken",
		},
	}}
	assert.Equal(t, []string{"title"}, f.SubFields().Names())
}

func TestRepeaterItem(t *testing.T) {
	sub := &content.Field{Name: "items", Type: content.FieldTypeText}

	f, v := content.RepeaterItem(sub, "plain")
	assert.Same(t, sub, f)
	assert.Equal(t, "plain", v)

	f, v = content.RepeaterItem(sub, map[string]interface{}{"value": "wrapped"})
	assert.Same(t, sub, f)
	assert.Equal(t, "wrapped", v)

	f, v = content.RepeaterItem(sub, map[string]interface{}{
		"field": map[string]interface{}{"type": "boolean"},
		"value": true,
	})
	assert.Equal(t, "items", f.Name)
	assert.Equal(t, content.FieldTypeBoolean, f.Type)
	assert.Equal(t, true, v)
}

func TestDecodeLayout(t *testing.T) {
	raw := `[{"component":"section","settings":{"id":"s"},"children":[{"component":"text","settings":{"text":"hi"}}],"_uid":"1"},{"component":"grid","columns":[{"settings":{},"children":null}]}]`

	fromString, err := content.DecodeLayout(raw)
	require.NoError(t, err)
	var decoded interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	fromValue, err := content.DecodeLayout(decoded)
	require.NoError(t, err)
	assert.Equal(t, fromString, fromValue)

	require.Len(t, fromValue, 2)
	section := fromValue[0]
	assert.Equal(t, "section", section.Component)
	assert.Equal(t, "1", section.Extra["_uid"])
	require.Len(t, section.Children, 1)
	assert.Equal(t, "hi", section.Children[0].Settings["text"])
	assert.Nil(t, section.Columns)

	grid := fromValue[1]
	require.Len(t, grid.Columns, 1)
	assert.Equal(t, []*content.LayoutNode{}, grid.Columns[0].Children)
	assert.Equal(t, map[string]interface{}{}, grid.Settings)

	t.Run("value", func(t *testing.T) {
		value := content.LayoutValue(fromValue)
		assert.Equal(t, map[string]interface{}{
			"component": "section",
			"settings":  map[string]interface{}{"id": "s"},
			"_uid":      "1",
			"children": []interface{}{
				map[string]interface{}{
					"component": "text",
					"settings":  map[string]interface{}{"text": "hi"},
				},
			},
		}, value[0])
	})

	t.Run("clone", func(t *testing.T) {
		c := section.Clone()
		c.Settings["id"] = "changed"
		assert.Equal(t, "s", section.Settings["id"])
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := content.DecodeLayout("[")
		assert.Error(t, err)
		_, err = content.DecodeLayout(map[string]interface{}{})
		assert.Error(t, err)
		_, err = content.DecodeLayout([]interface{}{"text"})
		assert.Error(t, err)
	})

	t.Run("nil", func(t *testing.T) {
		nodes, err := content.DecodeLayout(nil)
		require.NoError(t, err)
		assert.Nil(t, nodes)
	})
}

func TestNode_JSON(t *testing.T) {
	n := &content.Node{
		ID:       "post-1",
		Internal: content.Internal{Type: "post", ContentDigest: "d"},
		Fields: map[string]interface{}{
			"title": "Hello",
			"id":    "ignored",
		},
	}
	data, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"post-1","children":[],"parent":null,"internal":{"type":"post","contentDigest":"d"},"title":"Hello"}`, string(data))

	restored := &content.Node{}
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, "post-1", restored.ID)
	assert.Equal(t, "", restored.Parent)
	assert.Equal(t, []string{}, restored.Children)
	assert.Equal(t, n.Internal, restored.Internal)
	assert.Equal(t, map[string]interface{}{"title": "Hello"}, restored.Fields)
}

func TestPlaceholders(t *testing.T) {
	p := content.NewPlaceholders("file-placeholder")
	assert.Equal(t, content.DefaultPlaceholderValue, p.Value)
	assert.Equal(t, content.DefaultPlaceholderValueEmptyArray, p.EmptyArray)

	img := p.Image()
	assert.Equal(t, false, img[content.KeyIsSet])
	assert.Equal(t, "file-placeholder", img[content.KeyLocalFile])

	img["path"] = "changed"
	assert.Equal(t, "", p.Image()["path"], "every call returns a fresh stub")

	assert.Nil(t, content.NewPlaceholders("").Image()[content.KeyLocalFile])
	assert.Contains(t, p.GalleryImage(), content.KeyMeta)
	assert.Equal(t, "someid", p.Asset()[content.KeyID])
	assert.Equal(t, 360, p.Location()["lat"])
}
