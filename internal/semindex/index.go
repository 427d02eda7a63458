package semindex

import (
	"container/heap"
	"context"
	"sort"
	"sync"

	"github.com/coder/hnsw"

	"github.com/solace-labs/memoria/internal/embedtext"
	merrors "github.com/solace-labs/memoria/internal/errors"
)

// Config tunes the ANN backend.
type Config struct {
	Dimensions     int
	MaxElements    int
	M              int
	EfConstruction int
	EfSearch       int
}

// DefaultConfig returns memoria's default HNSW parameters.
func DefaultConfig(dimensions int) Config {
	return Config{
		Dimensions:     dimensions,
		MaxElements:    10000,
		M:              16,
		EfConstruction: 100,
		EfSearch:       50,
	}
}

// Result is one match from Query.
type Result struct {
	ID       string
	Distance float32
}

// Index is the string-ID-keyed semantic index described in doc.go.
type Index struct {
	embedder embedtext.Embedder
	config   Config

	mu sync.RWMutex

	graph *hnsw.Graph[uint64]

	idToSlot map[string]int
	slotToID map[int]string
	freeSlots *slotHeap
	nextSlot  int

	idToGraphKey   map[string]uint64
	graphKeyToID   map[uint64]string
	nextGraphKey   uint64
}

// New constructs an Index. Call Init before use.
func New(embedder embedtext.Embedder, cfg Config) *Index {
	return &Index{embedder: embedder, config: cfg}
}

// Init loads the embedder (a no-op for in-process embedders, but the hook
// exists for parity with embedders that warm up a model) and resets the
// backend to a fresh, empty state.
func (idx *Index) Init() error {
	idx.Reset()
	return nil
}

// Reset allocates a fresh ANN backend with the configured parameters and
// clears every façade map and counter.
func (idx *Index) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	graph := hnsw.NewGraph[uint64]()
	graph.Distance = hnsw.CosineDistance
	graph.M = idx.config.M
	graph.EfSearch = idx.config.EfSearch
	graph.Ml = 0.25

	idx.graph = graph
	idx.idToSlot = make(map[string]int)
	idx.slotToID = make(map[int]string)
	idx.freeSlots = newSlotHeap()
	idx.nextSlot = 0
	idx.idToGraphKey = make(map[string]uint64)
	idx.graphKeyToID = make(map[uint64]string)
	idx.nextGraphKey = 0
}

// AddDocument embeds text and adds it to the index under id. If id is
// already present, the previous entry is removed first.
func (idx *Index) AddDocument(ctx context.Context, id, text string) error {
	vec, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return merrors.Wrap(merrors.ErrCodeEmbedderUnavailable, err)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, exists := idx.idToSlot[id]; exists {
		idx.removeDocumentLocked(id)
	}

	slot := idx.allocateSlotLocked()
	if slot >= idx.config.MaxElements {
		return merrors.CapacityExceeded(idx.config.MaxElements)
	}

	graphKey := idx.nextGraphKey
	idx.nextGraphKey++

	idx.graph.Add(hnsw.MakeNode(graphKey, vec))

	idx.idToSlot[id] = slot
	idx.slotToID[slot] = id
	idx.idToGraphKey[id] = graphKey
	idx.graphKeyToID[graphKey] = id

	return nil
}

// RemoveDocument drops id from the index. Returns false if id was unknown.
func (idx *Index) RemoveDocument(id string) bool {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.removeDocumentLocked(id)
}

func (idx *Index) removeDocumentLocked(id string) bool {
	slot, ok := idx.idToSlot[id]
	if !ok {
		return false
	}

	graphKey := idx.idToGraphKey[id]
	// Lazy delete: forget the graph key mapping but leave the node in the
	// graph. The node becomes an orphan that Query filters out.
	delete(idx.graphKeyToID, graphKey)
	delete(idx.idToGraphKey, id)

	delete(idx.idToSlot, id)
	delete(idx.slotToID, slot)
	heap.Push(idx.freeSlots, slot)

	return true
}

// UpdateDocument is equivalent to RemoveDocument followed by AddDocument.
func (idx *Index) UpdateDocument(ctx context.Context, id, text string) error {
	idx.mu.Lock()
	idx.removeDocumentLocked(id)
	idx.mu.Unlock()
	return idx.AddDocument(ctx, id, text)
}

// Query embeds text and returns up to k nearest neighbors by id, nearest
// first. k is capped at the current document count; a zero document count
// returns an empty result.
func (idx *Index) Query(ctx context.Context, text string, k int) ([]Result, error) {
	idx.mu.RLock()
	count := len(idx.idToSlot)
	idx.mu.RUnlock()

	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	vec, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, merrors.Wrap(merrors.ErrCodeEmbedderUnavailable, err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	nodes := idx.graph.Search(vec, k)

	results := make([]Result, 0, len(nodes))
	for _, node := range nodes {
		id, ok := idx.graphKeyToID[node.Key]
		if !ok {
			continue
		}
		distance := idx.graph.Distance(vec, node.Value)
		results = append(results, Result{ID: id, Distance: distance})
	}

	return results, nil
}

// HasDocument reports whether id is currently indexed.
func (idx *Index) HasDocument(id string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	_, ok := idx.idToSlot[id]
	return ok
}

// GetDocumentCount returns the number of live documents.
func (idx *Index) GetDocumentCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idToSlot)
}

// GetAllIds returns every currently indexed id, sorted.
func (idx *Index) GetAllIds() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	ids := make([]string, 0, len(idx.idToSlot))
	for id := range idx.idToSlot {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// allocateSlotLocked returns the smallest free slot, or the next never-used
// slot if none are free. Caller holds idx.mu.
func (idx *Index) allocateSlotLocked() int {
	if idx.freeSlots.Len() > 0 {
		return heap.Pop(idx.freeSlots).(int)
	}
	slot := idx.nextSlot
	idx.nextSlot++
	return slot
}

// slotHeap is a min-heap of free slot numbers, giving smallest-available
// reuse order.
type slotHeap []int

func newSlotHeap() *slotHeap {
	h := slotHeap{}
	heap.Init(&h)
	return &h
}

func (h slotHeap) Len() int            { return len(h) }
func (h slotHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h slotHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *slotHeap) Push(x interface{}) { *h = append(*h, x.(int)) }
func (h *slotHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
