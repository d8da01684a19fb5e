// Package source runs the cockpit pipeline on demand or on an interval and
// keeps the latest node snapshot
package source

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/clean"
	"github.com/foomo/cockpitsource/pkg/metrics"
	"github.com/foomo/cockpitsource/pkg/node"
	"github.com/foomo/cockpitsource/requests"
	"github.com/foomo/cockpitsource/responses"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	json              = jsoniter.ConfigCompatibleWithStandardLibrary
	ErrUpdateRejected = errors.New("update rejected: queue full")
)

type (
	Source struct {
		l                       *zap.Logger
		pipeline                *Pipeline
		history                 *History
		cleaner                 *clean.Cleaner
		poll                    bool
		pollInterval            time.Duration
		onLoaded                func()
		loaded                  *atomic.Bool
		updateInProgressChannel chan chan updateResponse
		snapshot                *snapshot
		snapshotLock            sync.RWMutex
	}
	Option func(*Source)

	snapshot struct {
		nodes []*content.Node
		byID  map[string]*content.Node
		data  []byte
	}

	updateResponse struct {
		sourceRuntime time.Duration
		nodes         int
		assets        int
		issues        int
		err           error
	}
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, pipeline *Pipeline, history *History, opts ...Option) *Source {
	inst := &Source{
		l:                       l.Named("source"),
		pipeline:                pipeline,
		history:                 history,
		cleaner:                 clean.New(),
		pollInterval:            time.Minute,
		loaded:                  &atomic.Bool{},
		updateInProgressChannel: make(chan chan updateResponse),
		snapshot:                newSnapshot(nil, nil),
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

func WithPoll(v bool) Option {
	return func(o *Source) {
		o.poll = v
	}
}

func WithPollInterval(v time.Duration) Option {
	return func(o *Source) {
		o.pollInterval = v
	}
}

func WithCleaner(v *clean.Cleaner) Option {
	return func(o *Source) {
		o.cleaner = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Getter
// ------------------------------------------------------------------------------------------------

func (s *Source) Loaded() bool {
	return s.loaded.Load()
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

func (s *Source) OnLoaded(fn func()) {
	s.onLoaded = fn
}

// GetNodes returns the nodes of the current snapshot matching req in
// registration order
func (s *Source) GetNodes(req *requests.Nodes) []*content.Node {
	snap := s.current()
	var candidates []*content.Node
	if len(req.IDs) > 0 {
		for _, id := range req.IDs {
			if n, ok := snap.byID[id]; ok {
				candidates = append(candidates, n)
			}
		}
	} else {
		candidates = snap.nodes
	}

	types := make(map[string]struct{}, len(req.Types))
	for _, t := range req.Types {
		types[t] = struct{}{}
	}
	ret := make([]*content.Node, 0, len(candidates))
	for _, n := range candidates {
		if _, ok := types[n.Internal.Type]; len(types) > 0 && !ok {
			continue
		}
		if req.Clean {
			n = s.cleaner.CleanNode(n)
		}
		ret = append(ret, n)
	}
	return ret
}

// WriteSnapshotBytes writes the json of the current snapshot, falling back
// to the history when nothing is loaded
func (s *Source) WriteSnapshotBytes(ctx context.Context, w io.Writer) error {
	data := s.current().data
	if len(data) == 0 {
		var err error
		if data, err = s.history.GetCurrent(ctx); err != nil {
			return errors.Wrap(err, "failed to read snapshot from history")
		}
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "failed to write snapshot")
	}
	return nil
}

// Sync runs the pipeline right away without the update routine
func (s *Source) Sync(ctx context.Context) *responses.Update {
	start := time.Now()
	return s.response(s.update(ctx), start)
}

// Update queues a run on the update routine and waits for it
func (s *Source) Update() *responses.Update {
	s.l.Info("update triggered")
	start := time.Now()
	return s.response(s.tryUpdate(), start)
}

func (s *Source) Start(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	l := s.l.Named("start")

	up := make(chan bool, 1)
	g.Go(func() error {
		l.Debug("starting update routine")
		up <- true
		return s.UpdateRoutine(gCtx)
	})
	l.Debug("waiting for UpdateRoutine")
	<-up

	l.Debug("trying to restore previous snapshot")
	if err := s.tryToRestoreCurrent(ctx); errors.Is(err, os.ErrNotExist) {
		l.Info("previous snapshot does not exist")
	} else if err != nil {
		l.Warn("could not restore previous snapshot", zap.Error(err))
	} else {
		l.Info("restored previous snapshot")
	}

	if s.poll {
		g.Go(func() error {
			l.Debug("starting poll routine")
			return s.PollRoutine(gCtx)
		})
	}

	l.Debug("trying to update initial state")
	if resp := s.Update(); !resp.Success {
		l.Error("failed to update initial state",
			zap.String("error", resp.ErrorMessage),
			zap.Float64("own_runtime", resp.Stats.OwnRuntime),
			zap.Float64("source_runtime", resp.Stats.SourceRuntime),
		)
	}

	return g.Wait()
}

func (s *Source) PollRoutine(ctx context.Context) error {
	l := s.l.Named("routine.poll")
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case <-ticker.C:
			resChan := make(chan updateResponse)
			select {
			case s.updateInProgressChannel <- resChan:
			case <-ctx.Done():
				return nil
			}
			if response := <-resChan; response.err == nil {
				l.Info("update success", zap.Int("nodes", response.nodes))
			} else {
				l.Error("update failed", zap.Error(response.err))
			}
		}
	}
}

func (s *Source) UpdateRoutine(ctx context.Context) error {
	l := s.l.Named("routine.update")
	for {
		select {
		case <-ctx.Done():
			l.Debug("routine canceled", zap.Error(ctx.Err()))
			return nil
		case resChan := <-s.updateInProgressChannel:
			resChan <- s.update(context.WithoutCancel(ctx))
		}
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

// limit resources and allow only one update request at once
func (s *Source) tryUpdate() updateResponse {
	c := make(chan updateResponse)
	select {
	case s.updateInProgressChannel <- c:
		s.l.Debug("update request added to queue")
		return <-c
	default:
		s.l.Info("update request rejected, an update is in progress")
		return updateResponse{err: ErrUpdateRejected}
	}
}

func (s *Source) update(ctx context.Context) updateResponse {
	start := time.Now()
	l := s.l.With(zap.String("run_id", uuid.New().String()))
	l.Info("update started")

	res := s.run(ctx, l)
	if res.err != nil {
		l.Error("update failed", zap.Error(res.err))
		metrics.UpdatesFailedCounter.WithLabelValues().Inc()
	} else {
		if !s.Loaded() {
			s.loaded.Store(true)
			l.Info("initial update success")
			if s.onLoaded != nil {
				s.onLoaded()
			}
		} else {
			l.Info("update success")
		}
		metrics.UpdatesCompletedCounter.WithLabelValues().Inc()
	}
	metrics.UpdateDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	return res
}

func (s *Source) run(ctx context.Context, l *zap.Logger) updateResponse {
	registry := node.NewMemoryRegistry()
	result, err := s.pipeline.Run(ctx, registry)
	if err != nil {
		return updateResponse{err: err}
	}
	nodes := result.Nodes
	if nodes == nil {
		nodes = []*content.Node{}
	}
	data, err := json.Marshal(nodes)
	if err != nil {
		return updateResponse{err: errors.Wrap(err, "failed to serialize nodes")}
	}
	s.setSnapshot(newSnapshot(nodes, data))

	if err := s.history.Add(ctx, data); err != nil {
		l.Error("could not persist snapshot in history", zap.Error(err))
		metrics.HistoryPersistFailedCounter.WithLabelValues().Inc()
	} else {
		l.Info("persisted snapshot to history")
	}

	return updateResponse{
		sourceRuntime: result.SourceRuntime,
		nodes:         len(result.Nodes),
		assets:        len(result.Assets),
		issues:        len(result.Issues),
	}
}

func (s *Source) response(res updateResponse, start time.Time) *responses.Update {
	resp := &responses.Update{}
	resp.Stats.SourceRuntime = res.sourceRuntime.Seconds()
	if res.err != nil {
		resp.Success = false
		resp.ErrorMessage = res.err.Error()
		resp.Stats.NumberOfNodes = -1
		resp.Stats.NumberOfAssets = -1
	} else {
		resp.Success = true
		resp.Stats.NumberOfNodes = res.nodes
		resp.Stats.NumberOfAssets = res.assets
		resp.Stats.NumberOfIssues = res.issues
	}
	resp.Stats.OwnRuntime = time.Since(start).Seconds() - resp.Stats.SourceRuntime
	return resp
}

func (s *Source) tryToRestoreCurrent(ctx context.Context) error {
	data, err := s.history.GetCurrent(ctx)
	if err != nil {
		return err
	}
	var nodes []*content.Node
	if err := json.Unmarshal(data, &nodes); err != nil {
		return errors.Wrap(err, "failed to decode snapshot")
	}
	s.setSnapshot(newSnapshot(nodes, data))
	return nil
}

func (s *Source) current() *snapshot {
	s.snapshotLock.RLock()
	defer s.snapshotLock.RUnlock()
	return s.snapshot
}

func (s *Source) setSnapshot(v *snapshot) {
	s.snapshotLock.Lock()
	defer s.snapshotLock.Unlock()
	s.snapshot = v
}

func newSnapshot(nodes []*content.Node, data []byte) *snapshot {
	byID := make(map[string]*content.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return &snapshot{
		nodes: nodes,
		byID:  byID,
		data:  data,
	}
}
