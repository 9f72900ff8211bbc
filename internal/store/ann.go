package store

import (
	"log/slog"
	"math/rand"

	"github.com/coder/hnsw"
)

// annSeed fixes HNSW level assignment so that an imported snapshot, whose
// entries arrive in the same order, rebuilds the same graph.
const annSeed = 0x5eed

// annGraph mirrors the index entries in an HNSW graph keyed by position.
// Entries are append-only, so the graph is extended rather than rebuilt.
type annGraph struct {
	graph *hnsw.Graph[uint64]
	size  int
}

func newANNGraph() *annGraph {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 64
	g.Ml = 0.25
	g.Rng = rand.New(rand.NewSource(annSeed))
	return &annGraph{graph: g}
}

// syncGraph adds entries appended since the last query.
func (ix *Index) syncGraph() {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.ann == nil {
		ix.ann = newANNGraph()
	}
	if ix.ann.size == len(ix.entries) {
		return
	}

	added := 0
	for pos := ix.ann.size; pos < len(ix.entries); pos++ {
		// Zero vectors have no direction; the exact scan still sees them.
		if ix.norms[pos] == 0 {
			continue
		}
		vec := make([]float32, len(ix.entries[pos].Vector))
		inv := float32(1 / ix.norms[pos])
		for i, x := range ix.entries[pos].Vector {
			vec[i] = x * inv
		}
		ix.ann.graph.Add(hnsw.MakeNode(uint64(pos), vec))
		added++
	}
	ix.ann.size = len(ix.entries)
	slog.Debug("ann_graph_synced", slog.Int("added", added), slog.Int("nodes", ix.ann.graph.Len()))
}

// annSearch gathers candidates from the graph and re-ranks them exactly.
// ok is false when the filtered candidate set cannot fill k, in which case
// the caller falls back to a full scan. Must hold mu.
func (ix *Index) annSearch(vec []float32, qnorm float64, k int, filter Filter) ([]Result, bool) {
	if qnorm == 0 || ix.ann.graph.Len() == 0 {
		return nil, false
	}

	want := k * ix.cfg.ANNOverfetch
	if want > ix.ann.graph.Len() {
		want = ix.ann.graph.Len()
	}

	q := make([]float32, len(vec))
	inv := float32(1 / qnorm)
	for i, x := range vec {
		q[i] = x * inv
	}

	nodes := ix.ann.graph.Search(q, want)
	hits := make([]Result, 0, len(nodes))
	for _, n := range nodes {
		pos := int(n.Key)
		e := ix.entries[pos]
		if filter != nil && !filter.Match(e.Chunk.Metadata) {
			continue
		}
		hits = append(hits, Result{
			Chunk:    e.Chunk,
			Score:    cosine(vec, e.Vector, qnorm, ix.norms[pos]),
			Position: pos,
		})
	}

	if len(hits) < k && len(hits) < len(ix.entries) {
		return nil, false
	}
	return topK(hits, k), true
}
