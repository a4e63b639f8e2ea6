// Package arbiter implements §4.10: merging each analyzer's Operation
// list into a single Plan while enforcing destructive/non-destructive
// precedence via a DESTRUCTIVE path set.
package arbiter

import "archivist/internal/planmodel"

// Inputs bundles each analyzer's raw output, keyed by the config action
// token that gates it. A nil slice means that action wasn't enabled (per
// §9's Design Note: a path is only claimed destructive when its owning
// action is actually in RootConfig.Actions, closing the "destructivePaths
// leaks across disabled actions" ambiguity).
type Inputs struct {
	PreCleanupDirs, PreCleanupFiles []planmodel.Operation
	Duplicates                     []planmodel.Operation
	Orphans                        []planmodel.Operation
	Reorganize                     []planmodel.Operation
	Permissions                    []planmodel.Operation
	Ownership                      []planmodel.Operation
}

// Arbitrate builds the final Plan from in, per §4.10's ordered rules:
//
//  1. Pre-cleanup claims its paths first.
//  2. Duplicate, then Orphan — each skips any path already claimed;
//     accepted paths join DESTRUCTIVE.
//  3. Reorganize, Permissions, Ownership — each filters out any path
//     already in DESTRUCTIVE.
//
// Post-cleanup is not handled here: it runs against a fresh rescan after
// execution and is arbitrated by ArbitratePostCleanup, since by definition
// nothing else runs in that pass.
func Arbitrate(in Inputs) *planmodel.Plan {
	plan := planmodel.NewPlan()
	destructive := make(map[string]bool)

	for _, op := range in.PreCleanupDirs {
		plan.Add(op)
		destructive[op.Path] = true
	}
	for _, op := range in.PreCleanupFiles {
		plan.Add(op)
		destructive[op.Path] = true
	}

	for _, op := range in.Duplicates {
		if destructive[op.Path] {
			continue
		}
		plan.Add(op)
		destructive[op.Path] = true
		for _, sc := range op.SidecarFiles {
			destructive[sc] = true
		}
	}
	for _, op := range in.Orphans {
		if destructive[op.Path] {
			continue
		}
		plan.Add(op)
		destructive[op.Path] = true
	}

	for _, op := range in.Reorganize {
		if destructive[op.Path] {
			continue
		}
		plan.Add(op)
	}
	for _, op := range in.Permissions {
		if destructive[op.Path] {
			continue
		}
		plan.Add(op)
	}
	for _, op := range in.Ownership {
		if destructive[op.Path] {
			continue
		}
		plan.Add(op)
	}

	return plan
}

// ArbitratePostCleanup installs post-cleanup Operations under their own
// Kind, claimed destructively against a fresh rescan. There is nothing
// left to arbitrate against, since pre-cleanup through ownership have
// already executed by the time this runs.
func ArbitratePostCleanup(dirs, files []planmodel.Operation) *planmodel.Plan {
	plan := planmodel.NewPlan()
	for _, op := range dirs {
		op.Kind = planmodel.PostCleanup
		plan.Add(op)
	}
	for _, op := range files {
		op.Kind = planmodel.PostCleanup
		plan.Add(op)
	}
	return plan
}
