package source

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/foomo/cockpitsource/pkg/storage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	HistoryNodesJSONPrefix = "cockpitsource-nodes-"
	HistoryNodesJSONSuffix = ".json"
	CurrentKey             = HistoryNodesJSONPrefix + "current" + HistoryNodesJSONSuffix

	// fixed width so backups sort by time
	backupTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

type (
	// History keeps the node snapshots of the latest successful runs
	History struct {
		l            *zap.Logger
		storage      storage.Storage
		historyDir   string
		historyLimit int
		mu           sync.RWMutex
	}
	HistoryOption func(*History)
)

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func HistoryWithHistoryLimit(v int) HistoryOption {
	return func(o *History) {
		o.historyLimit = v
	}
}

func HistoryWithHistoryDir(v string) HistoryOption {
	return func(o *History) {
		o.historyDir = v
	}
}

func HistoryWithStorage(v storage.Storage) HistoryOption {
	return func(o *History) {
		o.storage = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewHistory(l *zap.Logger, opts ...HistoryOption) (*History, error) {
	inst := &History{
		l:            l.Named("history"),
		historyDir:   "/var/lib/cockpitsource",
		historyLimit: 2,
	}

	for _, opt := range opts {
		opt(inst)
	}

	if inst.storage == nil {
		fs, err := storage.NewFilesystem(inst.historyDir)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create default filesystem storage")
		}
		inst.storage = fs
	}

	return inst, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Add stores a snapshot as backup and as the current one
func (h *History) Add(ctx context.Context, data []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	backupKey := HistoryNodesJSONPrefix + time.Now().UTC().Format(backupTimeLayout) + HistoryNodesJSONSuffix
	if err := h.storage.Write(ctx, backupKey, data); err != nil {
		return errors.Wrap(err, "failed to write backup snapshot")
	}

	h.l.Debug("writing snapshots",
		zap.String("backup", backupKey),
		zap.String("current", CurrentKey),
	)

	if err := h.storage.Write(ctx, CurrentKey, data); err != nil {
		return errors.Wrap(err, "failed to write current snapshot")
	}

	if err := h.cleanup(ctx); err != nil {
		return errors.Wrap(err, "failed to clean up history")
	}
	return nil
}

// GetCurrent returns the current snapshot, os.ErrNotExist if there is none
func (h *History) GetCurrent(ctx context.Context) ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.storage.Read(ctx, CurrentKey)
}

func (h *History) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.storage != nil {
		return h.storage.Close()
	}
	return nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// backups newest first
func (h *History) backups(ctx context.Context) ([]string, error) {
	keys, err := h.storage.List(ctx, HistoryNodesJSONPrefix)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, key := range keys {
		if key != CurrentKey &&
			strings.HasPrefix(key, HistoryNodesJSONPrefix) &&
			strings.HasSuffix(key, HistoryNodesJSONSuffix) {
			files = append(files, key)
		}
	}
	return files, nil
}

func (h *History) cleanup(ctx context.Context) error {
	files, err := h.backups(ctx)
	if err != nil {
		return errors.Wrap(err, "could not list backups")
	}
	if len(files) <= h.historyLimit {
		return nil
	}
	for _, f := range files[h.historyLimit:] {
		h.l.Debug("removing outdated backup", zap.String("file", f))
		if err := h.storage.Delete(ctx, f); err != nil {
			return errors.Wrapf(err, "could not remove %s", f)
		}
	}
	return nil
}
