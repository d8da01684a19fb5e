// Package issues collects the recoverable problems of a source run so they
// can be reported once at the end instead of aborting the run
package issues

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/foomo/cockpitsource/pkg/metrics"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Kind of a recoverable issue
type Kind string

const (
	KindMalformedAssetPath Kind = "malformed_asset_path"
	KindAssetFetch         Kind = "asset_fetch"
	KindAssetMissing       Kind = "asset_missing"
	KindAmbiguousAsset     Kind = "ambiguous_asset"
	KindUnknownFieldType   Kind = "unknown_field_type"
	KindUnsupportedField   Kind = "unsupported_field"
	KindLayout             Kind = "layout"
	KindRichText           Kind = "rich_text"
	KindEntry              Kind = "entry"
)

type (
	// Scope locates an issue in the content
	Scope struct {
		Collection string
		EntryID    string
	}
	// Issue a single recoverable problem
	Issue struct {
		Kind  Kind
		Scope Scope
		Field string
		Asset string
		Err   error
	}
	scopeKey struct{}
)

func (i Issue) Error() string {
	var b strings.Builder
	b.WriteString(string(i.Kind))
	for _, kv := range [][2]string{
		{"collection", i.Scope.Collection},
		{"entry", i.Scope.EntryID},
		{"field", i.Field},
		{"asset", i.Asset},
	} {
		if kv[1] != "" {
			b.WriteString(" " + kv[0] + "=" + kv[1])
		}
	}
	if i.Err != nil {
		b.WriteString(": " + i.Err.Error())
	}
	return b.String()
}

// WithScope attaches the entry being processed to ctx
func WithScope(ctx context.Context, s Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFrom returns the scope attached by WithScope
func ScopeFrom(ctx context.Context) Scope {
	s, _ := ctx.Value(scopeKey{}).(Scope)
	return s
}

// Collector is safe for concurrent use. Issues about the same asset and kind
// are recorded once.
type Collector struct {
	mu     sync.Mutex
	issues []Issue
	seen   map[string]struct{}
}

func NewCollector() *Collector {
	return &Collector{
		seen: map[string]struct{}{},
	}
}

// Add records i, a nil collector drops it
func (c *Collector) Add(i Issue) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if i.Asset != "" {
		key := string(i.Kind) + "|" + i.Asset
		if _, ok := c.seen[key]; ok {
			return
		}
		c.seen[key] = struct{}{}
	}
	c.issues = append(c.issues, i)
	metrics.IssuesCounter.WithLabelValues(string(i.Kind)).Inc()
}

func (c *Collector) Issues() []Issue {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ret := make([]Issue, len(c.issues))
	copy(ret, c.issues)
	return ret
}

func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// Err combines all issues, nil if there are none
func (c *Collector) Err() error {
	var err error
	for _, i := range c.Issues() {
		err = multierr.Append(err, i)
	}
	return err
}

// Summary counts issues per kind
func (c *Collector) Summary() map[Kind]int {
	summary := map[Kind]int{}
	for _, i := range c.Issues() {
		summary[i.Kind]++
	}
	return summary
}

// Log writes the aggregated summary and every issue on debug level
func (c *Collector) Log(l *zap.Logger) {
	all := c.Issues()
	if len(all) == 0 {
		l.Info("no issues")
		return
	}
	summary := c.Summary()
	kinds := make([]string, 0, len(summary))
	for kind := range summary {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	fields := make([]zap.Field, 0, len(kinds)+1)
	fields = append(fields, zap.Int("total", len(all)))
	for _, kind := range kinds {
		fields = append(fields, zap.Int(kind, summary[Kind(kind)]))
	}
	l.Warn("recoverable issues", fields...)
	for _, i := range all {
		l.Debug("issue", zap.Error(i))
	}
}
