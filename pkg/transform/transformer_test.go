package transform

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testHost          = "https://cms.example.com"
	testPlaceholderID = "placeholder-file"
)

func testAssets() content.AssetMap {
	return content.AssetMap{
		testHost + "/storage/uploads/photos/a.png": {URL: testHost + "/storage/uploads/photos/a.png", ID: "file-a", Name: "a", Ext: ".png", ContentDigest: "aaa"},
		testHost + "/storage/uploads/docs/b.pdf":   {URL: testHost + "/storage/uploads/docs/b.pdf", ID: "file-b", Name: "b", Ext: ".pdf", ContentDigest: "bbb"},
		testHost + "/storage/uploads/x/same.png":   {URL: testHost + "/storage/uploads/x/same.png", ID: "file-x", Name: "same", Ext: ".png", ContentDigest: "xxx"},
		testHost + "/storage/uploads/y/same.png":   {URL: testHost + "/storage/uploads/y/same.png", ID: "file-y", Name: "same", Ext: ".png", ContentDigest: "yyy"},
	}
}

func newTestTransformer(t *testing.T, opts ...Option) (*Transformer, *issues.Collector) {
	t.Helper()
	collector := issues.NewCollector()
	opts = append([]Option{WithHost(testHost), WithIssues(collector)}, opts...)
	return New(zaptest.NewLogger(t), testAssets(), content.NewPlaceholders(testPlaceholderID), opts...), collector
}

func TestProcessField_NeverAbsent(t *testing.T) {
	tr, _ := newTestTransformer(t)
	types := []content.FieldType{
		content.FieldTypeText, content.FieldTypeTextarea, content.FieldTypeWysiwyg, content.FieldTypeHTML,
		content.FieldTypeMarkdown, content.FieldTypeColor, content.FieldTypeColorTag, content.FieldTypeRating,
		content.FieldTypeDate, content.FieldTypeTime, content.FieldTypeCode, content.FieldTypePassword,
		content.FieldTypeSelect, content.FieldTypeMultipleSelect, content.FieldTypeTags, content.FieldTypeBoolean,
		content.FieldTypeObject, content.FieldTypeLocation, content.FieldTypeImage, content.FieldTypeAsset,
		content.FieldTypeFile, content.FieldTypeGallery, content.FieldTypeRepeater, content.FieldTypeSet,
		content.FieldTypeLayout,
	}
	for _, fieldType := range types {
		t.Run(string(fieldType), func(t *testing.T) {
			require.True(t, fieldType.Known())
			for _, raw := range []interface{}{nil, []interface{}{}} {
				v, ok := tr.ProcessField(context.Background(), &content.Field{Name: "f", Type: fieldType}, raw)
				assert.True(t, ok)
				assert.NotNil(t, v, spew.Sdump(raw))
			}
		})
	}
}

func TestProcessField_AbsentCollectionLink(t *testing.T) {
	tr, _ := newTestTransformer(t)
	field := &content.Field{Name: "author", Type: content.FieldTypeCollectionLink}
	for _, raw := range []interface{}{nil, "broken"} {
		v, ok := tr.ProcessField(context.Background(), field, raw)
		assert.True(t, ok, "an absent link is still emitted")
		assert.Nil(t, v, "an absent link is null")
	}
	v, ok := tr.ProcessField(context.Background(), field, []interface{}{})
	assert.True(t, ok)
	assert.Equal(t, []interface{}{}, v)
}

func TestProcessField_Placeholders(t *testing.T) {
	tr, _ := newTestTransformer(t)
	tests := []struct {
		fieldType content.FieldType
		raw       interface{}
		want      interface{}
	}{
		{content.FieldTypeText, nil, content.DefaultPlaceholderValue},
		{content.FieldTypeText, []interface{}{}, content.DefaultPlaceholderValue},
		{content.FieldTypeText, "hello", "hello"},
		{content.FieldTypeMarkdown, "# title", "# title"},
		{content.FieldTypeSelect, "a", "a"},
		{content.FieldTypeTags, nil, content.DefaultPlaceholderValueEmptyArray},
		{content.FieldTypeTags, []interface{}{}, content.DefaultPlaceholderValueEmptyArray},
		{content.FieldTypeTags, []interface{}{"a"}, []interface{}{"a"}},
		{content.FieldTypeMultipleSelect, nil, content.DefaultPlaceholderValueEmptyArray},
		{content.FieldTypeBoolean, nil, false},
		{content.FieldTypeBoolean, true, true},
		{content.FieldTypeObject, nil, "{}"},
		{content.FieldTypeObject, map[string]interface{}{"a": 1.0}, map[string]interface{}{"a": 1.0}},
		{content.FieldTypeLocation, nil, map[string]interface{}{"lat": 360, "lng": 360}},
		{content.FieldTypeLocation, map[string]interface{}{"lat": 1.0, "lng": 2.0}, map[string]interface{}{"lat": 1.0, "lng": 2.0}},
		{content.FieldTypeImage, nil, map[string]interface{}{"_isset": false, "path": "", "localFile___NODE": testPlaceholderID}},
		{content.FieldTypeImage, map[string]interface{}{"title": "no path"}, map[string]interface{}{"_isset": false, "path": "", "localFile___NODE": testPlaceholderID}},
		{content.FieldTypeFile, nil, map[string]interface{}{"_isset": false, "path": "", "localFile___NODE": testPlaceholderID}},
	}
	for _, test := range tests {
		t.Run(string(test.fieldType), func(t *testing.T) {
			v, ok := tr.ProcessField(context.Background(), &content.Field{Name: "f", Type: test.fieldType}, test.raw)
			require.True(t, ok)
			assert.Equal(t, test.want, v)
		})
	}
}

func TestProcessField_Asset(t *testing.T) {
	tr, _ := newTestTransformer(t)
	v, ok := tr.ProcessField(context.Background(), &content.Field{Name: "f", Type: content.FieldTypeAsset}, nil)
	require.True(t, ok)
	stub := v.(map[string]interface{})
	assert.Equal(t, false, stub["_isset"])
	assert.Equal(t, "someid", stub["_id"])
	assert.Equal(t, "someone", stub["_by"])
	assert.Equal(t, testPlaceholderID, stub["localFile___NODE"])

	v, _ = tr.ProcessField(context.Background(), &content.Field{Name: "f", Type: content.FieldTypeAsset}, map[string]interface{}{
		"path":  "/docs/b.pdf",
		"title": "B",
	})
	assert.Equal(t, map[string]interface{}{
		"_isset":           true,
		"path":             "/docs/b.pdf",
		"title":            "B",
		"localFile___NODE": "file-b",
	}, v)
}

func TestProcessField_Gallery(t *testing.T) {
	tr, _ := newTestTransformer(t)
	field := &content.Field{Name: "gallery", Type: content.FieldTypeGallery}

	for _, raw := range []interface{}{nil, []interface{}{}, "not a list"} {
		v, ok := tr.ProcessField(context.Background(), field, raw)
		require.True(t, ok)
		assert.Equal(t, []interface{}{map[string]interface{}{
			"meta":             map[string]interface{}{"title": ""},
			"_isset":           false,
			"path":             "",
			"localFile___NODE": testPlaceholderID,
		}}, v)
	}

	v, _ := tr.ProcessField(context.Background(), field, []interface{}{
		map[string]interface{}{"path": "photos/a.png", "meta": map[string]interface{}{"title": "A"}},
	})
	assert.Equal(t, []interface{}{map[string]interface{}{
		"_isset":           true,
		"path":             "photos/a.png",
		"meta":             map[string]interface{}{"title": "A"},
		"localFile___NODE": "file-a",
	}}, v)
}

func TestProcessField_Image(t *testing.T) {
	tr, collector := newTestTransformer(t)
	field := &content.Field{Name: "image", Type: content.FieldTypeImage}
	raw := map[string]interface{}{"path": "photos/a.png"}

	v, ok := tr.ProcessField(context.Background(), field, raw)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"_isset":           true,
		"path":             "photos/a.png",
		"localFile___NODE": "file-a",
	}, v)
	assert.Equal(t, map[string]interface{}{"path": "photos/a.png"}, raw, "raw values must not be modified")
	assert.Zero(t, collector.Len())

	t.Run("missing", func(t *testing.T) {
		v, _ := tr.ProcessField(context.Background(), field, map[string]interface{}{"path": "photos/missing.png"})
		assert.Equal(t, false, v.(map[string]interface{})["_isset"])
	})

	t.Run("ambiguous", func(t *testing.T) {
		v, _ := tr.ProcessField(context.Background(), field, map[string]interface{}{"path": "same.png"})
		assert.Equal(t, false, v.(map[string]interface{})["_isset"])
	})

	kinds := collector.Summary()
	assert.Equal(t, 1, kinds[issues.KindAssetMissing])
	assert.Equal(t, 1, kinds[issues.KindAmbiguousAsset])
}

func TestProcessField_File(t *testing.T) {
	tr, _ := newTestTransformer(t)
	v, ok := tr.ProcessField(context.Background(), &content.Field{Name: "file", Type: content.FieldTypeFile}, "docs/b.pdf")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"_isset":           true,
		"path":             "docs/b.pdf",
		"localFile___NODE": "file-b",
	}, v)
}

func TestProcessField_Repeater(t *testing.T) {
	tr, _ := newTestTransformer(t)

	t.Run("undefined yields a stub of the sub field", func(t *testing.T) {
		field := &content.Field{Name: "slides", Type: content.FieldTypeRepeater, Options: map[string]interface{}{
			"field": map[string]interface{}{"type": "image"},
		}}
		v, ok := tr.ProcessField(context.Background(), field, nil)
		require.True(t, ok)
		assert.Equal(t, []interface{}{map[string]interface{}{
			"_isset": false,
			"slides": map[string]interface{}{"_isset": false, "path": "", "localFile___NODE": testPlaceholderID},
		}}, v)
	})

	t.Run("repeater without options", func(t *testing.T) {
		v, _ := tr.ProcessField(context.Background(), &content.Field{Name: "lines", Type: content.FieldTypeRepeater}, []interface{}{})
		assert.Equal(t, []interface{}{map[string]interface{}{
			"_isset": false,
			"lines":  content.DefaultPlaceholderValue,
		}}, v)
	})

	t.Run("items", func(t *testing.T) {
		field := &content.Field{Name: "items", Type: content.FieldTypeRepeater}
		v, _ := tr.ProcessField(context.Background(), field, []interface{}{
			map[string]interface{}{"field": map[string]interface{}{"type": "text", "name": "headline"}, "value": "hi"},
			map[string]interface{}{"field": map[string]interface{}{"type": "image"}, "value": map[string]interface{}{"path": "photos/a.png"}},
			map[string]interface{}{"field": map[string]interface{}{"type": "text"}, "value": nil},
		})
		assert.Equal(t, []interface{}{
			map[string]interface{}{"headline": "hi"},
			map[string]interface{}{"items": map[string]interface{}{"_isset": true, "path": "photos/a.png", "localFile___NODE": "file-a"}},
			map[string]interface{}{"items": content.DefaultPlaceholderValue},
		}, v)
	})

	t.Run("linked elements keep the link key", func(t *testing.T) {
		field := &content.Field{Name: "authors", Type: content.FieldTypeRepeater, Options: map[string]interface{}{
			"field": map[string]interface{}{"type": "collectionlink"},
		}}
		v, _ := tr.ProcessField(context.Background(), field, []interface{}{
			map[string]interface{}{"value": map[string]interface{}{"_id": "a1"}},
			map[string]interface{}{"_id": "a2"},
		})
		assert.Equal(t, []interface{}{
			map[string]interface{}{"authors___NODE": "a1"},
			map[string]interface{}{"authors___NODE": "a2"},
		}, v)
	})

	t.Run("stub of a linked sub field keeps the link key", func(t *testing.T) {
		field := &content.Field{Name: "authors", Type: content.FieldTypeRepeater, Options: map[string]interface{}{
			"field": map[string]interface{}{"type": "collectionlink"},
		}}
		v, _ := tr.ProcessField(context.Background(), field, nil)
		assert.Equal(t, []interface{}{map[string]interface{}{
			"_isset":         false,
			"authors___NODE": nil,
		}}, v)
	})

	t.Run("nested layout is unsupported", func(t *testing.T) {
		tr, collector := newTestTransformer(t)
		v, _ := tr.ProcessField(context.Background(), &content.Field{Name: "items", Type: content.FieldTypeRepeater}, []interface{}{
			map[string]interface{}{"field": map[string]interface{}{"type": "layout"}, "value": []interface{}{}},
		})
		assert.Equal(t, []interface{}{map[string]interface{}{}}, v)
		assert.Equal(t, 1, collector.Summary()[issues.KindUnsupportedField])
	})
}

func TestProcessField_Set(t *testing.T) {
	tr, _ := newTestTransformer(t)
	field := &content.Field{Name: "meta", Type: content.FieldTypeSet, Options: map[string]interface{}{
		"fields": []interface{}{
			map[string]interface{}{"name": "title", "type": "text"},
			map[string]interface{}{"name": "cover", "type": "image"},
			map[string]interface{}{"name": "visible", "type": "boolean"},
		},
	}}

	v, ok := tr.ProcessField(context.Background(), field, nil)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{
		"title":   content.DefaultPlaceholderValue,
		"cover":   map[string]interface{}{"_isset": false, "path": "", "localFile___NODE": testPlaceholderID},
		"visible": false,
	}, v)

	v, _ = tr.ProcessField(context.Background(), field, map[string]interface{}{"title": "T", "visible": true})
	assert.Equal(t, "T", v.(map[string]interface{})["title"])
	assert.Equal(t, true, v.(map[string]interface{})["visible"])
}

func TestProcessFields(t *testing.T) {
	tr, collector := newTestTransformer(t)
	fields := content.Fields{
		"title":   {Name: "title", Type: content.FieldTypeText},
		"author":  {Name: "author", Type: content.FieldTypeCollectionLink},
		"related": {Name: "related", Type: content.FieldTypeCollectionLink},
		"missing": {Name: "missing", Type: content.FieldTypeCollectionLink},
		"weird":   {Name: "weird", Type: content.FieldType("hologram")},
	}
	got := tr.ProcessFields(context.Background(), fields, map[string]interface{}{
		"title":   "Hello",
		"author":  map[string]interface{}{"_id": "a1", "display": "Ann"},
		"related": []interface{}{map[string]interface{}{"_id": "p1"}, map[string]interface{}{"_id": "p2"}},
		"weird":   "?",
		"extra":   "not declared",
	})
	assert.Equal(t, map[string]interface{}{
		"title":          "Hello",
		"author___NODE":  "a1",
		"related___NODE": []interface{}{"p1", "p2"},
		"missing___NODE": nil,
	}, got)
	all := collector.Issues()
	require.Len(t, all, 1)
	assert.Equal(t, issues.KindUnknownFieldType, all[0].Kind)
	assert.ErrorIs(t, all[0].Err, ErrUnknownFieldType)
}

func TestProcessFields_Idempotent(t *testing.T) {
	tr, _ := newTestTransformer(t)
	fields := content.Fields{
		"image":   {Name: "image", Type: content.FieldTypeImage},
		"gallery": {Name: "gallery", Type: content.FieldTypeGallery},
		"layout":  {Name: "layout", Type: content.FieldTypeLayout},
	}
	raw := map[string]interface{}{
		"image":   map[string]interface{}{"path": "photos/a.png"},
		"gallery": []interface{}{map[string]interface{}{"path": "docs/b.pdf"}},
		"layout":  `[{"component":"text","settings":{"text":"<img src=\"/storage/uploads/photos/a.png\">"}}]`,
	}
	first := tr.ProcessFields(context.Background(), fields, raw)
	second := tr.ProcessFields(context.Background(), fields, raw)
	assert.Equal(t, first, second, spew.Sdump(first))
}
