// Package dsa holds small data-structure building blocks shared across the
// engine's infra packages.
package dsa

// ─── Top-K Selector (Bounded Min-Heap) ─────────────────────────────────────
//
// Used wherever the engine needs the K highest-scoring items out of a much
// larger stream without sorting everything: flagged rows ranked by anomaly
// score before their local SHAP explanation is computed, and reason-code
// candidates ranked by triggering-feature magnitude before the top 5 are
// kept.
//
// Operations:
//   Add:   O(log k)
//   Items: O(k²) insertion sort — only called once, to drain the final ranking

// ScoredItem is one candidate considered by a TopK selector.
type ScoredItem struct {
	Score float64
	Index int // position in the original, unsorted stream
	Value any
}

// TopK keeps the k highest-scoring items seen so far. Ties are broken by
// Index so results are stable and reproducible regardless of arrival order
// beyond the first k.
type TopK struct {
	k    int
	heap []ScoredItem
}

// NewTopK returns a selector that retains at most k items. k <= 0 means
// "keep nothing" and Items always returns an empty slice.
func NewTopK(k int) *TopK {
	return &TopK{k: k}
}

// Add offers one item to the selector. If the heap is below capacity the
// item is kept outright; once at capacity, it is kept only if it outranks
// the current weakest retained item, which is then evicted.
func (t *TopK) Add(item ScoredItem) {
	if t.k <= 0 {
		return
	}
	if len(t.heap) < t.k {
		t.heap = append(t.heap, item)
		t.siftUp(len(t.heap) - 1)
		return
	}
	if t.weaker(t.heap[0], item) {
		t.heap[0] = item
		t.siftDown(0)
	}
}

// Len returns how many items are currently retained.
func (t *TopK) Len() int {
	return len(t.heap)
}

// Items drains the selector and returns its contents sorted by descending
// score, ties broken by ascending original index. The selector is emptied.
func (t *TopK) Items() []ScoredItem {
	out := make([]ScoredItem, len(t.heap))
	copy(out, t.heap)
	t.heap = nil

	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && t.ranksAbove(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ranksAbove reports whether a belongs before b in final descending order.
func (t *TopK) ranksAbove(a, b ScoredItem) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Index < b.Index
}

// weaker reports whether the heap root a is a worse candidate than b, i.e.
// b deserves a's spot. Lower score is weaker; among equal scores, the
// later-arriving (higher-index) item is weaker so earlier items survive ties.
func (t *TopK) weaker(a, b ScoredItem) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.Index > b.Index
}

func (t *TopK) siftUp(idx int) {
	for idx > 0 {
		parent := (idx - 1) / 2
		if t.weaker(t.heap[idx], t.heap[parent]) {
			t.heap[idx], t.heap[parent] = t.heap[parent], t.heap[idx]
			idx = parent
		} else {
			break
		}
	}
}

func (t *TopK) siftDown(idx int) {
	n := len(t.heap)
	for {
		smallest := idx
		left := 2*idx + 1
		right := 2*idx + 2
		if left < n && t.weaker(t.heap[left], t.heap[smallest]) {
			smallest = left
		}
		if right < n && t.weaker(t.heap[right], t.heap[smallest]) {
			smallest = right
		}
		if smallest == idx {
			break
		}
		t.heap[idx], t.heap[smallest] = t.heap[smallest], t.heap[idx]
		idx = smallest
	}
}
