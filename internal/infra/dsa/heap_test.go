package dsa

import "testing"

func TestTopK_KeepsHighestScores(t *testing.T) {
	tk := NewTopK(3)
	scores := []float64{5, 1, 9, 3, 7, 2}
	for i, s := range scores {
		tk.Add(ScoredItem{Score: s, Index: i})
	}
	items := tk.Items()
	if len(items) != 3 {
		t.Fatalf("len(Items()) = %d, want 3", len(items))
	}
	want := []float64{9, 7, 5}
	for i, w := range want {
		if items[i].Score != w {
			t.Errorf("Items()[%d].Score = %f, want %f", i, items[i].Score, w)
		}
	}
}

func TestTopK_FewerItemsThanCapacity(t *testing.T) {
	tk := NewTopK(10)
	tk.Add(ScoredItem{Score: 1, Index: 0})
	tk.Add(ScoredItem{Score: 2, Index: 1})
	items := tk.Items()
	if len(items) != 2 {
		t.Fatalf("len(Items()) = %d, want 2", len(items))
	}
	if items[0].Score != 2 || items[1].Score != 1 {
		t.Errorf("Items() = %+v, want descending [2,1]", items)
	}
}

func TestTopK_TiesBreakByEarlierIndex(t *testing.T) {
	tk := NewTopK(2)
	tk.Add(ScoredItem{Score: 5, Index: 0})
	tk.Add(ScoredItem{Score: 5, Index: 1})
	tk.Add(ScoredItem{Score: 5, Index: 2}) // should be dropped; index 0 and 1 arrived first

	items := tk.Items()
	if len(items) != 2 {
		t.Fatalf("len(Items()) = %d, want 2", len(items))
	}
	if items[0].Index != 0 || items[1].Index != 1 {
		t.Errorf("Items() indices = [%d,%d], want [0,1]", items[0].Index, items[1].Index)
	}
}

func TestTopK_ZeroCapacityKeepsNothing(t *testing.T) {
	tk := NewTopK(0)
	tk.Add(ScoredItem{Score: 100, Index: 0})
	if len(tk.Items()) != 0 {
		t.Error("expected no items retained with zero capacity")
	}
}

func TestTopK_PreservesValuePayload(t *testing.T) {
	tk := NewTopK(1)
	tk.Add(ScoredItem{Score: 1, Index: 0, Value: "low"})
	tk.Add(ScoredItem{Score: 2, Index: 1, Value: "high"})
	items := tk.Items()
	if items[0].Value != "high" {
		t.Errorf("Items()[0].Value = %v, want %q", items[0].Value, "high")
	}
}
