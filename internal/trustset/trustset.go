// Package trustset computes the transitively-trusted identity set from a
// root identity, using weighted Dijkstra-style relaxation bounded by a
// configurable distance budget.
package trustset

import (
	"container/heap"

	"github.com/ThomasdenH/crev/internal/id"
)

// TrustDistanceParams controls edge weights and the traversal budget.
type TrustDistanceParams struct {
	MaxDistance uint64
	High        uint64
	Medium      uint64
	Low         uint64
}

// DefaultTrustDistanceParams matches the external interface's stated
// default: max_distance=10, high=0, medium=1, low=5.
func DefaultTrustDistanceParams() TrustDistanceParams {
	return TrustDistanceParams{MaxDistance: 10, High: 0, Medium: 1, Low: 5}
}

// DistanceByLevel returns the edge weight for level, or false if the level
// does not propagate trust (None, Distrust).
func (p TrustDistanceParams) DistanceByLevel(level id.TrustLevel) (uint64, bool) {
	switch level {
	case id.High:
		return p.High, true
	case id.Medium:
		return p.Medium, true
	case id.Low:
		return p.Low, true
	default:
		return 0, false
	}
}

// EdgeSource is the read-only view of TrustDB's outgoing-trust-edges query
// TrustSetResolver needs, kept narrow so it can be tested against a fake.
type EdgeSource interface {
	TrustEdges(author id.Id) map[id.Id]id.TrustLevel
}

// visit is one entry in the resolver's frontier: a candidate distance to
// reach an id. The heap orders by (distance, id) for a deterministic
// tie-break, matching the algorithm note.
type visit struct {
	distance uint64
	id       id.Id
}

type frontier []visit

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].distance != f[j].distance {
		return f[i].distance < f[j].distance
	}
	return id.Less(f[i].id, f[j].id)
}
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)        { *f = append(*f, x.(visit)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	v := old[n-1]
	*f = old[:n-1]
	return v
}

// Resolve returns the set of ids reachable from root through the trust
// relation exposed by db, bounded by params.MaxDistance. The root is
// always included at distance 0, even with zero outgoing edges.
func Resolve(db EdgeSource, root id.Id, params TrustDistanceParams) map[id.Id]struct{} {
	visited := make(map[id.Id]uint64)
	visited[root] = 0

	pq := &frontier{{distance: 0, id: root}}
	heap.Init(pq)

	for pq.Len() > 0 {
		current := heap.Pop(pq).(visit)

		// Skip stale entries: a better path to this id was already found
		// and relaxed since this entry was enqueued.
		if best, ok := visited[current.id]; ok && best < current.distance {
			continue
		}

		for target, level := range db.TrustEdges(current.id) {
			weight, ok := params.DistanceByLevel(level)
			if !ok {
				continue // Distrust/None: edge does not exist
			}
			candidateTotal := current.distance + weight
			if candidateTotal > params.MaxDistance {
				continue
			}
			if existing, seen := visited[target]; !seen || candidateTotal < existing {
				visited[target] = candidateTotal
				heap.Push(pq, visit{distance: candidateTotal, id: target})
			}
		}
	}

	out := make(map[id.Id]struct{}, len(visited))
	for k := range visited {
		out[k] = struct{}{}
	}
	return out
}
