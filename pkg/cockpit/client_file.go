package cockpit

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/foomo/cockpitsource/content"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Dump all content of a cockpit installation in one document
type Dump struct {
	Collections []*content.Collection `json:"collections"`
	Regions     []*content.Collection `json:"regions"`
	Assets      []content.AssetPath   `json:"assets"`
}

// File serves a dump read from a yaml or json file
type File struct {
	l    *zap.Logger
	dump *Dump
}

func NewFile(l *zap.Logger, filename string) (*File, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read dump")
	}
	var dump *Dump
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		dump, err = DecodeYAMLDump(data)
	default:
		dump = &Dump{}
		err = json.Unmarshal(data, dump)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode dump %q", filename)
	}
	l = l.Named("file")
	l.Info("loaded dump",
		zap.String("file", filename),
		zap.Int("collections", len(dump.Collections)),
		zap.Int("regions", len(dump.Regions)),
		zap.Int("assets", len(dump.Assets)),
	)
	return &File{l: l, dump: dump}, nil
}

// DecodeYAMLDump reads a yaml dump. Values are normalized to what a json
// response would decode to.
func DecodeYAMLDump(data []byte) (*Dump, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse yaml")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to convert yaml")
	}
	dump := &Dump{}
	if err := json.Unmarshal(encoded, dump); err != nil {
		return nil, err
	}
	return dump, nil
}

func (f *File) CollectionNames(context.Context) ([]string, error) {
	names := make([]string, len(f.dump.Collections))
	for i, c := range f.dump.Collections {
		names[i] = c.Name
	}
	return names, nil
}

func (f *File) Collections(context.Context) ([]*content.Collection, error) {
	return f.dump.Collections, nil
}

func (f *File) Regions(context.Context) ([]*content.Collection, error) {
	return f.dump.Regions, nil
}

func (f *File) Assets(context.Context) ([]content.AssetPath, error) {
	return f.dump.Assets, nil
}
