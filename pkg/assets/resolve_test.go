package assets

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeDownloader struct {
	mu     sync.Mutex
	calls  map[string]int
	failed map[string]bool
	slow   map[string]bool
}

func newFakeDownloader() *fakeDownloader {
	return &fakeDownloader{
		calls:  map[string]int{},
		failed: map[string]bool{},
		slow:   map[string]bool{},
	}
}

func (f *fakeDownloader) FetchAndStore(ctx context.Context, url string) (*content.AssetHandle, error) {
	f.mu.Lock()
	f.calls[url]++
	failed, slow := f.failed[url], f.slow[url]
	f.mu.Unlock()

	if slow {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if failed {
		return nil, errors.New("boom")
	}
	return &content.AssetHandle{URL: url, ID: AssetID(url), Name: "a", Ext: ".png", ContentDigest: "d"}, nil
}

func (f *fakeDownloader) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func TestResolver_ResolveAll(t *testing.T) {
	d := newFakeDownloader()
	d.failed["https://cms.example.com/broken.png"] = true
	collector := issues.NewCollector()
	r := NewResolver(zaptest.NewLogger(t), d, ResolverWithIssues(collector), ResolverWithConcurrency(2))

	assetMap, err := r.ResolveAll(context.Background(), []content.AssetPath{
		{Path: "https://cms.example.com/a.png"},
		{Path: "https://cms.example.com/broken.png"},
		{Path: "https://cms.example.com/b.png"},
	})
	require.NoError(t, err)
	assert.Len(t, assetMap, 2)
	assert.Contains(t, assetMap, "https://cms.example.com/a.png")
	assert.NotContains(t, assetMap, "https://cms.example.com/broken.png")

	all := collector.Issues()
	require.Len(t, all, 1)
	assert.Equal(t, issues.KindAssetFetch, all[0].Kind)
	assert.Equal(t, "https://cms.example.com/broken.png", all[0].Asset)
}

func TestResolver_Memoized(t *testing.T) {
	d := newFakeDownloader()
	d.failed["https://cms.example.com/broken.png"] = true
	collector := issues.NewCollector()
	r := NewResolver(zaptest.NewLogger(t), d, ResolverWithIssues(collector))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Resolve(context.Background(), "https://cms.example.com/a.png")
			_, _ = r.Resolve(context.Background(), "https://cms.example.com/broken.png")
		}()
	}
	wg.Wait()

	h, err := r.Resolve(context.Background(), "https://cms.example.com/a.png")
	require.NoError(t, err)
	assert.Equal(t, AssetID("https://cms.example.com/a.png"), h.ID)

	_, err = r.Resolve(context.Background(), "https://cms.example.com/broken.png")
	require.Error(t, err)

	assert.Equal(t, 1, d.count("https://cms.example.com/a.png"))
	assert.Equal(t, 1, d.count("https://cms.example.com/broken.png"))
	assert.Equal(t, 1, collector.Len(), "a failing asset is reported once")
}

func TestResolver_Timeout(t *testing.T) {
	d := newFakeDownloader()
	d.slow["https://cms.example.com/slow.png"] = true
	collector := issues.NewCollector()
	r := NewResolver(zaptest.NewLogger(t), d, ResolverWithIssues(collector), ResolverWithTimeout(20*time.Millisecond))

	assetMap, err := r.ResolveAll(context.Background(), []content.AssetPath{
		{Path: "https://cms.example.com/slow.png"},
		{Path: "https://cms.example.com/fast.png"},
	})
	require.NoError(t, err, "a timeout only fails the asset")
	assert.Len(t, assetMap, 1)
	assert.Equal(t, 1, collector.Len())
}

func TestResolver_Canceled(t *testing.T) {
	d := newFakeDownloader()
	d.slow["https://cms.example.com/slow.png"] = true
	r := NewResolver(zaptest.NewLogger(t), d, ResolverWithTimeout(0))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := r.ResolveAll(ctx, []content.AssetPath{{Path: "https://cms.example.com/slow.png"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
