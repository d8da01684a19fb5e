package source

import (
	"context"
	"time"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/assets"
	"github.com/foomo/cockpitsource/pkg/cockpit"
	"github.com/foomo/cockpitsource/pkg/config"
	"github.com/foomo/cockpitsource/pkg/issues"
	"github.com/foomo/cockpitsource/pkg/node"
	"github.com/foomo/cockpitsource/pkg/transform"
	"github.com/foomo/cockpitsource/pkg/utils"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result of a single run
type Result struct {
	Nodes  []*content.Node
	Assets content.AssetMap
	Issues []issues.Issue
	// SourceRuntime time spent reading from cockpit
	SourceRuntime time.Duration
}

type job struct {
	collection string
	entry      content.Entry
	fields     content.Fields
	id         string
	typeName   string
}

// Pipeline reads cockpit, fetches every referenced asset and turns every
// entry into a node
type Pipeline struct {
	l          *zap.Logger
	cfg        config.Config
	client     cockpit.Client
	downloader assets.Downloader
}

func NewPipeline(l *zap.Logger, cfg config.Config, client cockpit.Client, downloader assets.Downloader) *Pipeline {
	return &Pipeline{
		l:          l.Named("pipeline"),
		cfg:        cfg,
		client:     client,
		downloader: downloader,
	}
}

// Run hands every node to registry in a stable order. Only failures to read
// cockpit and a canceled ctx abort a run, everything else is recorded in the
// result issues.
func (p *Pipeline) Run(ctx context.Context, registry node.Registry) (*Result, error) {
	start := time.Now()
	collector := issues.NewCollector()

	var (
		collections []*content.Collection
		regions     []*content.Collection
		library     []content.AssetPath
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		collections, err = p.client.Collections(gCtx)
		return err
	})
	g.Go(func() (err error) {
		regions, err = p.client.Regions(gCtx)
		return err
	})
	g.Go(func() (err error) {
		library, err = p.client.Assets(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "failed to read cockpit")
	}
	result := &Result{SourceRuntime: time.Since(start)}
	p.l.Info("read cockpit",
		zap.Int("collections", len(collections)),
		zap.Int("regions", len(regions)),
		zap.Int("library", len(library)),
		zap.Duration("duration", result.SourceRuntime),
	)

	// phase 1: every asset is resolved before any entry is transformed
	discoverer := assets.NewDiscoverer(p.l, p.cfg.Host(),
		assets.DiscovererWithPlaceholderImage(p.cfg.PlaceholderImage),
		assets.DiscovererWithCustomComponents(p.cfg.CustomComponents...),
		assets.DiscovererWithIssues(collector),
	)
	paths := discoverer.Discover(ctx, library, append(append([]*content.Collection{}, collections...), regions...)...)
	resolver := assets.NewResolver(p.l, p.downloader,
		assets.ResolverWithTimeout(p.cfg.FetchTimeout),
		assets.ResolverWithConcurrency(p.cfg.FetchConcurrency),
		assets.ResolverWithIssues(collector),
	)
	assetMap, err := resolver.ResolveAll(ctx, paths)
	if err != nil {
		return nil, err
	}
	result.Assets = assetMap

	// phase 2
	tr := transform.New(p.l, assetMap, p.cfg.Placeholders(p.placeholderFileID(assetMap)),
		transform.WithResolver(resolver),
		transform.WithHost(p.cfg.Host()),
		transform.WithCustomComponents(p.cfg.CustomComponents...),
		transform.WithIssues(collector),
	)
	jobs := p.jobs(collections, regions)
	nodes := make([]*content.Node, len(jobs))
	g, gCtx = errgroup.WithContext(ctx)
	if p.cfg.TransformConcurrency > 0 {
		g.SetLimit(p.cfg.TransformConcurrency)
	}
	for i, j := range jobs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			nodes[i] = p.assemble(gCtx, tr, collector, j)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "transformation aborted")
	}

	for i, n := range nodes {
		if n == nil {
			continue
		}
		if err := registry.CreateNode(ctx, n); err != nil {
			collector.Add(issues.Issue{
				Kind:  issues.KindEntry,
				Scope: issues.Scope{Collection: jobs[i].collection, EntryID: n.ID},
				Err:   err,
			})
			continue
		}
		result.Nodes = append(result.Nodes, n)
	}

	result.Issues = collector.Issues()
	collector.Log(p.l)
	p.l.Info("run finished",
		zap.Int("nodes", len(result.Nodes)),
		zap.Int("assets", len(assetMap)),
		zap.Int("issues", len(result.Issues)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (p *Pipeline) placeholderFileID(assetMap content.AssetMap) string {
	if p.cfg.PlaceholderImage == "" {
		return ""
	}
	abs, err := utils.AbsoluteURL(p.cfg.Host(), p.cfg.PlaceholderImage)
	if err != nil {
		return ""
	}
	if h, ok := assetMap[abs]; ok {
		return h.ID
	}
	p.l.Warn("placeholder image is not available", zap.String("url", abs))
	return ""
}

func (p *Pipeline) jobs(collections, regions []*content.Collection) []job {
	var jobs []job
	for _, c := range collections {
		for _, entry := range c.Entries {
			id, typeName := node.CollectionIdentity(c.Name, entry)
			jobs = append(jobs, job{collection: c.Name, entry: entry, fields: c.Fields, id: id, typeName: typeName})
		}
	}
	for _, r := range regions {
		entry := content.Entry{}
		if len(r.Entries) > 0 && r.Entries[0] != nil {
			entry = r.Entries[0]
		}
		id, typeName := node.RegionIdentity(r.Name)
		jobs = append(jobs, job{collection: r.Name, entry: entry, fields: r.Fields, id: id, typeName: typeName})
	}
	return jobs
}

func (p *Pipeline) assemble(ctx context.Context, tr *transform.Transformer, collector *issues.Collector, j job) *content.Node {
	scope := issues.Scope{Collection: j.collection, EntryID: j.id}
	fields := tr.ProcessFields(issues.WithScope(ctx, scope), j.fields, j.entry)
	n, err := node.Assemble(j.entry, fields, j.id, j.typeName)
	if err != nil {
		p.l.Warn("skipping entry", zap.String("collection", j.collection), zap.Error(err))
		collector.Add(issues.Issue{Kind: issues.KindEntry, Scope: scope, Err: err})
		return nil
	}
	return n
}
