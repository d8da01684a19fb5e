// Package cockpit reads collections, regions and the asset library of a
// cockpit installation
package cockpit

import (
	"context"

	"github.com/foomo/cockpitsource/content"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client source of raw content. Regions are returned as collections holding
// the region data as their single entry.
type Client interface {
	CollectionNames(ctx context.Context) ([]string, error)
	Collections(ctx context.Context) ([]*content.Collection, error)
	Regions(ctx context.Context) ([]*content.Collection, error)
	Assets(ctx context.Context) ([]content.AssetPath, error)
}
