package utils_test

import (
	"testing"

	"github.com/foomo/cockpitsource/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURI(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.png":  true,
		"http://localhost:8080/x":    true,
		"data:image/png;base64,AAAA": true,
		"mailto:someone@example.com": true,
		"/storage/uploads/a.png":     false,
		"storage/uploads/a.png":      false,
		"::not a uri::":              false,
		"https://example.com/%zz":    false,
		"https://example.com/a b":    false,
		"":                           false,
	}
	for str, want := range tests {
		t.Run(str, func(t *testing.T) {
			assert.Equal(t, want, utils.IsURI(str))
		})
	}
}

func TestIsValidURL(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/a.png":  true,
		"http://localhost:8080":      true,
		"ftp://example.com/a.png":    false,
		"mailto:someone@example.com": false,
		"data:image/png;base64,AAAA": false,
		"/storage/uploads/a.png":     false,
	}
	for str, want := range tests {
		t.Run(str, func(t *testing.T) {
			assert.Equal(t, want, utils.IsValidURL(str))
		})
	}
}

func TestAbsoluteURL(t *testing.T) {
	host := "https://cms.example.com/"

	t.Run("relative", func(t *testing.T) {
		abs, err := utils.AbsoluteURL(host, "/storage/uploads/a.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cms.example.com/storage/uploads/a.png", abs)
	})

	t.Run("without leading slash", func(t *testing.T) {
		abs, err := utils.AbsoluteURL("https://cms.example.com/cockpit", "storage/a.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cms.example.com/cockpit/storage/a.png", abs)
	})

	t.Run("absolute", func(t *testing.T) {
		abs, err := utils.AbsoluteURL(host, "https://cdn.example.com/b.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/b.png", abs)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := utils.AbsoluteURL(host, "a b.png")
		assert.ErrorIs(t, err, utils.ErrMalformedPath)
	})
}
