package repository

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/mzare/ecotrace/internal/domain/model"
	"github.com/mzare/ecotrace/pkg/metrics"
)

// Treap-based, in-memory CorpusStore implementation.
//
// Ordering: CF score ASC, then productID ASC (deterministic). "Less"
// means more sustainable, so in-order traversal walks the corpus from
// greenest to dirtiest. Subtree sizes give O(log n) rank queries.

// scoreScale controls fixed-point scaling from float64. Scores live in
// [0,100], so 12 decimal places fit comfortably in int64.
const scoreScale = 1_000_000_000_000

type scoreFP int64

func toFixedPoint(x float64) scoreFP {
	if math.IsNaN(x) {
		return 0
	}
	return scoreFP(math.Round(x * scoreScale))
}

// treapNode is a node of the score-ordered treap.
type treapNode struct {
	id    string
	score scoreFP
	prio  uint64
	left  *treapNode
	right *treapNode
	size  int
}

func nsize(n *treapNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *treapNode) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks before (bScore, bID), i.e.
// has the lower footprint, with id ASC as tie-breaker.
func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore < bScore
	}
	return aID < bID
}

func rotateRight(y *treapNode) *treapNode {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *treapNode) *treapNode {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// fnv1aPriority derives a stable pseudo-random heap priority from the
// product id so rebuilds of the same corpus shape the same treap.
func fnv1aPriority(id string) uint64 {
	const (
		offset = 14695981039346656037
		prime  = 1099511628211
	)
	h := uint64(offset)
	for i := 0; i < len(id); i++ {
		h ^= uint64(id[i])
		h *= prime
	}
	return h
}

func insert(n *treapNode, id string, score scoreFP) *treapNode {
	if n == nil {
		return &treapNode{id: id, score: score, prio: fnv1aPriority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *treapNode, id string, score scoreFP) *treapNode {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// rankOf returns the 1-based rank of (score, id), counting nodes that
// order before it.
func rankOf(n *treapNode, id string, score scoreFP) int {
	rank := 1
	for n != nil {
		if score == n.score && id == n.id {
			return rank + nsize(n.left)
		}
		if less(score, id, n.score, n.id) {
			n = n.left
		} else {
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0
}

// collectGreenest appends up to limit ids in rank order (lowest scores
// first) via in-order traversal.
func collectGreenest(n *treapNode, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectGreenest(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectGreenest(n.right, limit, out)
	}
}

// TreapCorpus implements CorpusStore over a score-ordered treap plus
// secondary indexes preserving insertion order.
type TreapCorpus struct {
	mu   sync.RWMutex
	root *treapNode
	byID map[string]model.Product

	// Insertion-order indexes for the filter queries.
	order      []string
	byCategory map[string][]string
}

// NewTreapCorpus constructs an empty corpus store.
func NewTreapCorpus(ctx context.Context) *TreapCorpus {
	return &TreapCorpus{
		byID:       make(map[string]model.Product),
		byCategory: make(map[string][]string),
	}
}

// Add implements CorpusStore.Add with O(log n) expected time.
func (s *TreapCorpus) Add(ctx context.Context, p model.Product) (bool, error) {
	if p.ProductID == "" {
		return false, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.byID[p.ProductID]
	if existed {
		s.root = deleteNode(s.root, p.ProductID, toFixedPoint(prev.Score.Value))
		if prev.Attributes.CategoryCode != p.Attributes.CategoryCode {
			s.byCategory[prev.Attributes.CategoryCode] = removeID(s.byCategory[prev.Attributes.CategoryCode], p.ProductID)
			s.byCategory[p.Attributes.CategoryCode] = append(s.byCategory[p.Attributes.CategoryCode], p.ProductID)
		}
	} else {
		s.order = append(s.order, p.ProductID)
		s.byCategory[p.Attributes.CategoryCode] = append(s.byCategory[p.Attributes.CategoryCode], p.ProductID)
	}

	s.root = insert(s.root, p.ProductID, toFixedPoint(p.Score.Value))
	s.byID[p.ProductID] = p

	metrics.UpdateCorpusSize(len(s.byID))
	return !existed, nil
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

// GetByID implements CorpusStore.GetByID.
func (s *TreapCorpus) GetByID(ctx context.Context, productID string) (model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[productID]
	if !ok {
		return model.Product{}, ErrNotFound
	}
	return p, nil
}

// FilterByCategory implements CorpusStore.FilterByCategory. The exact
// dotted code is matched; results keep insertion order.
func (s *TreapCorpus) FilterByCategory(ctx context.Context, categoryCode string) []model.Product {
	start := time.Now()
	defer func() {
		metrics.RecordCorpusQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCategory[categoryCode]
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FilterByBrand implements CorpusStore.FilterByBrand.
func (s *TreapCorpus) FilterByBrand(ctx context.Context, brand string, limit int) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	want := strings.ToLower(brand)
	var out []model.Product
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		p := s.byID[id]
		if strings.ToLower(p.Attributes.Brand) == want {
			out = append(out, p)
		}
	}
	return out
}

// FilterByBand implements CorpusStore.FilterByBand.
func (s *TreapCorpus) FilterByBand(ctx context.Context, band model.Band, limit int) []model.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Product
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		p := s.byID[id]
		if p.Score.Band == band {
			out = append(out, p)
		}
	}
	return out
}

// GreenestN implements CorpusStore.GreenestN.
func (s *TreapCorpus) GreenestN(ctx context.Context, n int) ([]model.Product, error) {
	if n < 1 {
		return nil, ErrInvalidLimit
	}
	start := time.Now()
	defer func() {
		metrics.RecordCorpusQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, n)
	collectGreenest(s.root, n, &ids)
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Rank implements CorpusStore.Rank with O(log n) expected time.
func (s *TreapCorpus) Rank(ctx context.Context, productID string) (RankedProduct, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byID[productID]
	if !ok {
		return RankedProduct{}, ErrNotFound
	}
	r := rankOf(s.root, productID, toFixedPoint(p.Score.Value))
	if r == 0 {
		return RankedProduct{}, ErrNotFound
	}
	return RankedProduct{Rank: r, Product: p}, nil
}

// Count implements CorpusStore.Count.
func (s *TreapCorpus) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
