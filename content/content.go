// Package content contains the data structures that describe cockpit content
// and the nodes built from it
package content

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// LinkSuffix marks a key whose value references other nodes by id
	LinkSuffix = "___NODE"
	// UploadsFolder is where cockpit keeps the files of its asset library
	UploadsFolder = "/storage/uploads"
)

// keys used in raw and transformed values
const (
	KeyID          = "_id"
	KeyIsSet       = "_isset"
	KeyPath        = "path"
	KeyMeta        = "meta"
	KeyLocalFile   = "localFile" + LinkSuffix
	KeyLocalFileID = "localFileId"
)
