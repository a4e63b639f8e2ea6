package executor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"archivist/internal/fsops"
	"archivist/internal/logging"
	"archivist/internal/planmodel"
)

// erroringMover fails every Move call, used to exercise the Failed tally.
type erroringMover struct {
	fsops.FakeMover
}

func (m *erroringMover) Move(src, dst string) error {
	return errors.New("boom")
}

func newTestExecutor(mover fsops.Mover, autoYesToAll bool) *ConsoleExecutor {
	return &ConsoleExecutor{
		Mover:        mover,
		Logger:       logging.Nop(),
		In:           strings.NewReader(""),
		Out:          &bytes.Buffer{},
		AutoYesToAll: autoYesToAll,
		sizeOf:       func(string) int64 { return 1024 },
	}
}

func planWith(ops ...planmodel.Operation) *planmodel.Plan {
	p := planmodel.NewPlan()
	for _, op := range ops {
		p.Add(op)
	}
	return p
}

func TestRunAutoYesToAllAppliesMoves(t *testing.T) {
	mover := &fsops.FakeMover{}
	exec := newTestExecutor(mover, true)

	plan := planWith(
		planmodel.Operation{Kind: planmodel.Duplicate, Path: "/data/a.jpg", MoveTo: "/data/#recycle/a.jpg", Reason: "duplicate"},
		planmodel.Operation{Kind: planmodel.Duplicate, Path: "/data/b.jpg", MoveTo: "/data/#recycle/b.jpg", Reason: "duplicate"},
	)

	outcomes := exec.Run(context.Background(), plan)
	if len(outcomes) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outcomes))
	}
	out := outcomes[0]
	if out.Applied != 2 {
		t.Errorf("expected 2 applied, got %d", out.Applied)
	}
	if out.BytesMoved != 2048 {
		t.Errorf("expected 2048 bytes moved, got %d", out.BytesMoved)
	}
	if len(mover.Moves) != 2 {
		t.Errorf("expected 2 moves recorded, got %d", len(mover.Moves))
	}
}

func TestRunNonInteractiveDefaultsToNo(t *testing.T) {
	mover := &fsops.FakeMover{}
	exec := newTestExecutor(mover, false)

	plan := planWith(planmodel.Operation{Kind: planmodel.Orphan, Path: "/data/lonely.raw", MoveTo: "/data/#recycle/lonely.raw"})

	outcomes := exec.Run(context.Background(), plan)
	out := outcomes[0]
	if out.Applied != 0 {
		t.Errorf("expected 0 applied under non-interactive stdin, got %d", out.Applied)
	}
	if out.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", out.Skipped)
	}
	if len(mover.Moves) != 0 {
		t.Errorf("non-interactive run must never touch the mover, got %d moves", len(mover.Moves))
	}
}

func TestRunTalliesFailures(t *testing.T) {
	mover := &erroringMover{}
	exec := newTestExecutor(mover, true)

	plan := planWith(planmodel.Operation{Kind: planmodel.Reorganize, Path: "/data/x.jpg", MoveTo: "/data/2024/01/x.jpg"})

	outcomes := exec.Run(context.Background(), plan)
	out := outcomes[0]
	if out.Failed != 1 {
		t.Errorf("expected 1 failed, got %d", out.Failed)
	}
	if out.Applied != 0 {
		t.Errorf("expected 0 applied, got %d", out.Applied)
	}
}

func TestRunChmodAndChownApply(t *testing.T) {
	mover := &fsops.FakeMover{}
	exec := newTestExecutor(mover, true)

	plan := planWith(
		planmodel.Operation{Kind: planmodel.Permissions, Path: "/data/f.jpg", CurrentMode: 0o664, DesiredMode: 0o644},
		planmodel.Operation{Kind: planmodel.Ownership, Path: "/data/f.jpg", CurrentOwner: "root", DesiredOwner: "media", NewUid: 1000, NewGid: 1000},
	)

	outcomes := exec.Run(context.Background(), plan)
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	for _, out := range outcomes {
		if out.Applied != 1 {
			t.Errorf("kind %s: expected 1 applied, got %d", out.Kind, out.Applied)
		}
	}
	if len(mover.Chmods) != 1 || mover.Chmods[0].Mode != 0o644 {
		t.Errorf("expected one chmod to 0644, got %+v", mover.Chmods)
	}
	if len(mover.Chowns) != 1 || mover.Chowns[0].Uid != 1000 {
		t.Errorf("expected one chown to uid 1000, got %+v", mover.Chowns)
	}
}

func TestRunEmptyPlanProducesNoOutcomes(t *testing.T) {
	mover := &fsops.FakeMover{}
	exec := newTestExecutor(mover, true)

	outcomes := exec.Run(context.Background(), planmodel.NewPlan())
	if len(outcomes) != 0 {
		t.Errorf("expected no outcomes for an empty plan, got %d", len(outcomes))
	}
}
