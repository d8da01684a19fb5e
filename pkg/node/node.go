// Package node assembles transformed entries into nodes and registers them
package node

import (
	"crypto/md5" //nolint:gosec
	"encoding/hex"

	"github.com/foomo/cockpitsource/content"
	"github.com/gertd/go-pluralize"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

// map keys are sorted so equal entries always serialize the same way
var json = jsoniter.ConfigCompatibleWithStandardLibrary

var plural = pluralize.NewClient()

// ContentDigest md5 hex digest of the raw entry json
func ContentDigest(entry content.Entry) (string, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return "", errors.Wrap(err, "failed to serialize entry")
	}
	sum := md5.Sum(data) //nolint:gosec
	return hex.EncodeToString(sum[:]), nil
}

// Assemble combines the transformed fields of entry with its identity. The
// digest is computed from the raw entry, not from fields.
func Assemble(entry content.Entry, fields map[string]interface{}, id, typeName string) (*content.Node, error) {
	if id == "" {
		return nil, errors.Errorf("missing id for %s node", typeName)
	}
	digest, err := ContentDigest(entry)
	if err != nil {
		return nil, errors.Wrapf(err, "node %q", id)
	}
	return &content.Node{
		ID:       id,
		Children: []string{},
		Internal: content.Internal{
			Type:          typeName,
			ContentDigest: digest,
		},
		Fields: fields,
	}, nil
}

// CollectionIdentity id and type of a collection entry node
func CollectionIdentity(collection string, entry content.Entry) (id, typeName string) {
	return entry.ID(), plural.Singular(collection)
}

// RegionIdentity id and type of the single node of a region
func RegionIdentity(region string) (id, typeName string) {
	return "region-" + region, "region" + region
}
