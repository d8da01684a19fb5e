package cockpit

import (
	"context"
	"testing"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/cockpit/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestHTTPClient(t *testing.T) {
	server := mock.GetMockServer(t)
	c := NewHTTPClient(zaptest.NewLogger(t), server.URL, HTTPClientWithAccessToken(mock.Token), HTTPClientWithHTTPClient(server.Client()))
	ctx := context.Background()

	t.Run("collection names", func(t *testing.T) {
		names, err := c.CollectionNames(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"posts", "authors"}, names)
	})

	t.Run("collections", func(t *testing.T) {
		collections, err := c.Collections(ctx)
		require.NoError(t, err)
		require.Len(t, collections, 2)

		posts := collections[0]
		assert.Equal(t, "posts", posts.Name)
		assert.Len(t, posts.Entries, 2)
		assert.Equal(t, content.FieldTypeCollectionLink, posts.Fields["author"].Type)
		assert.Equal(t, "post-1", posts.Entries[0].ID())

		authors := collections[1]
		assert.Equal(t, "authors", authors.Name)
		require.Contains(t, authors.Fields, "avatar", "list schemas are keyed by name")
		assert.Equal(t, content.FieldTypeImage, authors.Fields["avatar"].Type)
	})

	t.Run("regions", func(t *testing.T) {
		regions, err := c.Regions(ctx)
		require.NoError(t, err)
		require.Len(t, regions, 1)
		assert.Equal(t, "footer", regions[0].Name)
		assert.Equal(t, []string{"copyright", "logo"}, regions[0].Fields.Names())
		require.Len(t, regions[0].Entries, 1)
		assert.Equal(t, "ACME", regions[0].Entries[0]["copyright"])
	})

	t.Run("assets", func(t *testing.T) {
		assets, err := c.Assets(ctx)
		require.NoError(t, err)
		assert.Equal(t, []content.AssetPath{{Path: "/photos/library.png"}}, assets)
	})
}

func TestHTTPClient_Unauthorized(t *testing.T) {
	server := mock.GetMockServer(t)
	c := NewHTTPClient(zaptest.NewLogger(t), server.URL, HTTPClientWithHTTPClient(server.Client()))
	_, err := c.Collections(context.Background())
	require.Error(t, err)
}

func TestFile(t *testing.T) {
	f, err := NewFile(zaptest.NewLogger(t), "testdata/dump.yaml")
	require.NoError(t, err)
	ctx := context.Background()

	names, err := f.CollectionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pages"}, names)

	collections, err := f.Collections(ctx)
	require.NoError(t, err)
	require.Len(t, collections, 1)
	pages := collections[0]
	assert.Equal(t, "hero", pages.Fields["hero"].Name)
	assert.Equal(t, content.FieldTypeImage, pages.Fields["hero"].Type)
	assert.Equal(t, map[string]interface{}{"path": "/storage/uploads/hero.png"}, pages.Entries[0]["hero"])

	regions, err := f.Regions(ctx)
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "Hello", regions[0].Entries[0]["claim"])

	assets, err := f.Assets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []content.AssetPath{{Path: "/hero.png"}}, assets)
}

func TestFile_Missing(t *testing.T) {
	_, err := NewFile(zaptest.NewLogger(t), "testdata/missing.yaml")
	require.Error(t, err)
}
