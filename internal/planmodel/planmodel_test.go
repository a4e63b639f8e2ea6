package planmodel

import "testing"

func TestKindDestructive(t *testing.T) {
	destructive := []Kind{PreCleanup, Duplicate, Orphan, PostCleanup}
	for _, k := range destructive {
		if !k.Destructive() {
			t.Errorf("%s should be destructive", k)
		}
	}
	cosmetic := []Kind{Reorganize, Permissions, Ownership}
	for _, k := range cosmetic {
		if k.Destructive() {
			t.Errorf("%s should not be destructive", k)
		}
	}
}

func TestPlanAddAndOps(t *testing.T) {
	p := NewPlan()
	p.Add(Operation{Kind: Duplicate, Path: "/r/a.jpg"})
	p.Add(Operation{Kind: Duplicate, Path: "/r/b.jpg"})
	p.Add(Operation{Kind: Orphan, Path: "/r/only/solo.xml"})

	if got := len(p.Ops(Duplicate)); got != 2 {
		t.Errorf("Duplicate ops = %d, want 2", got)
	}
	if got := len(p.Ops(Orphan)); got != 1 {
		t.Errorf("Orphan ops = %d, want 1", got)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestPlanTotalBytes(t *testing.T) {
	p := NewPlan()
	p.Add(Operation{Kind: PreCleanup, Path: "/r/a"})
	p.Add(Operation{Kind: Reorganize, Path: "/r/b"})

	sizes := map[string]int64{"/r/a": 100, "/r/b": 9999}
	if got := p.TotalBytes(func(path string) int64 { return sizes[path] }); got != 100 {
		t.Errorf("TotalBytes = %d, want 100 (Reorganize is non-destructive, excluded)", got)
	}
}

func TestExecutionOrderMatchesSpec(t *testing.T) {
	want := []Kind{PreCleanup, Duplicate, Orphan, Reorganize, Permissions, Ownership, PostCleanup}
	if len(ExecutionOrder) != len(want) {
		t.Fatalf("ExecutionOrder length = %d, want %d", len(ExecutionOrder), len(want))
	}
	for i, k := range want {
		if ExecutionOrder[i] != k {
			t.Errorf("ExecutionOrder[%d] = %s, want %s", i, ExecutionOrder[i], k)
		}
	}
}
