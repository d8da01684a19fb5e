package node

import (
	"context"
	"sync"

	"github.com/foomo/cockpitsource/content"
	"github.com/foomo/cockpitsource/pkg/metrics"
	"github.com/pkg/errors"
)

var ErrDuplicateNode = errors.New("node already registered")

// Registry receives every assembled node exactly once
type Registry interface {
	CreateNode(ctx context.Context, n *content.Node) error
}

// MemoryRegistry keeps nodes in registration order
type MemoryRegistry struct {
	lock  sync.RWMutex
	nodes []*content.Node
	index map[string]int
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		index: map[string]int{},
	}
}

func (r *MemoryRegistry) CreateNode(_ context.Context, n *content.Node) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.index[n.ID]; ok {
		return errors.Wrapf(ErrDuplicateNode, "%q", n.ID)
	}
	r.index[n.ID] = len(r.nodes)
	r.nodes = append(r.nodes, n)
	metrics.NodesCreatedCounter.WithLabelValues(n.Internal.Type).Inc()
	return nil
}

// Nodes returns a copy of the registered nodes
func (r *MemoryRegistry) Nodes() []*content.Node {
	r.lock.RLock()
	defer r.lock.RUnlock()
	ret := make([]*content.Node, len(r.nodes))
	copy(ret, r.nodes)
	return ret
}

func (r *MemoryRegistry) Node(id string) (*content.Node, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.nodes[i], true
}

func (r *MemoryRegistry) ByType(typeName string) []*content.Node {
	r.lock.RLock()
	defer r.lock.RUnlock()
	var ret []*content.Node
	for _, n := range r.nodes {
		if n.Internal.Type == typeName {
			ret = append(ret, n)
		}
	}
	return ret
}

func (r *MemoryRegistry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.nodes)
}
