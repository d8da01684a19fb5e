package assets

import (
	"context"
	"sync"
	"time"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/foomo/cockpitsource/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Downloader turns an asset url into a stored file. FetchAndStore must be
// idempotent per url and safe to call concurrently for different urls.
type Downloader interface {
	FetchAndStore(ctx context.Context, url string) (*content.AssetHandle, error)
}

type (
	// Resolver fetches assets through a Downloader. Every url is fetched at
	// most once per resolver, failures included.
	Resolver struct {
		l           *zap.Logger
		downloader  Downloader
		timeout     time.Duration
		concurrency int
		issues      *issues.Collector
		group       singleflight.Group
		resultsLock sync.RWMutex
		results     map[string]result
	}
	ResolverOption func(*Resolver)
	result         struct {
		handle *content.AssetHandle
		err    error
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func NewResolver(l *zap.Logger, downloader Downloader, opts ...ResolverOption) *Resolver {
	inst := &Resolver{
		l:           l.Named("resolver"),
		downloader:  downloader,
		timeout:     30 * time.Second,
		concurrency: 8,
		results:     map[string]result{},
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func ResolverWithTimeout(v time.Duration) ResolverOption {
	return func(o *Resolver) {
		o.timeout = v
	}
}

func ResolverWithConcurrency(v int) ResolverOption {
	return func(o *Resolver) {
		o.concurrency = v
	}
}

func ResolverWithIssues(v *issues.Collector) ResolverOption {
	return func(o *Resolver) {
		o.issues = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// ResolveAll fetches all paths concurrently and returns once every fetch has
// finished. Failed assets are reported and left out of the map, only a
// canceled ctx fails the call.
func (r *Resolver) ResolveAll(ctx context.Context, paths []content.AssetPath) (content.AssetMap, error) {
	handles := make([]*content.AssetHandle, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, p := range paths {
		g.Go(func() error {
			h, err := r.Resolve(gCtx, p.Path)
			if err != nil {
				return gCtx.Err()
			}
			handles[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "asset resolution aborted")
	}

	assetMap := make(content.AssetMap, len(paths))
	for i, h := range handles {
		if h != nil {
			assetMap[paths[i].Path] = h
		}
	}
	r.l.Info("resolved assets",
		zap.Int("requested", len(paths)),
		zap.Int("resolved", len(assetMap)),
	)
	return assetMap, nil
}

// Resolve fetches a single url, repeated calls return the first result
func (r *Resolver) Resolve(ctx context.Context, url string) (*content.AssetHandle, error) {
	if res, ok := r.result(url); ok {
		return res.handle, res.err
	}
	v, err, _ := r.group.Do(url, func() (interface{}, error) {
		if res, ok := r.result(url); ok {
			return res.handle, res.err
		}
		h, err := r.fetch(ctx, url)
		if err != nil && ctx.Err() != nil {
			// not the asset's fault, allow a later retry
			return nil, ctx.Err()
		}
		r.resultsLock.Lock()
		r.results[url] = result{handle: h, err: err}
		r.resultsLock.Unlock()
		return h, err
	})
	if err != nil {
		return nil, err
	}
	h, _ := v.(*content.AssetHandle)
	return h, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (r *Resolver) result(url string) (result, bool) {
	r.resultsLock.RLock()
	defer r.resultsLock.RUnlock()
	res, ok := r.results[url]
	return res, ok
}

func (r *Resolver) fetch(ctx context.Context, url string) (*content.AssetHandle, error) {
	fetchCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	h, err := r.downloader.FetchAndStore(fetchCtx, url)
	metrics.AssetFetchDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.AssetsFetchedCounter.WithLabelValues().Inc()
		r.l.Debug("fetched asset", zap.String("url", url), zap.String("id", h.ID))
		return h, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	reason := "error"
	if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
		reason = "timeout"
	}
	metrics.AssetsFailedCounter.WithLabelValues(reason).Inc()
	r.l.Warn("failed to fetch asset",
		zap.String("url", url),
		zap.String("reason", reason),
		zap.Error(err),
	)
	r.issues.Add(issues.Issue{
		Kind:  issues.KindAssetFetch,
		Asset: url,
		Err:   err,
	})
	return nil, err
}
