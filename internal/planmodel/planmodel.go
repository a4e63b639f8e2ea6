// Package planmodel defines the Operation tagged union and the Plan that
// collects them (§3), per spec.md §9's Design Note: replace in-place
// object shape-shifting (entries gaining analyzer-specific fields via
// spread/merge) with an explicit tagged-union carrying only the fields its
// Kind requires.
package planmodel

// Kind identifies which analyzer produced an Operation and which fields on
// it are meaningful.
type Kind int

const (
	PreCleanup Kind = iota
	Duplicate
	Orphan
	Reorganize
	Permissions
	Ownership
	PostCleanup
)

func (k Kind) String() string {
	switch k {
	case PreCleanup:
		return "pre-cleanup"
	case Duplicate:
		return "duplicates"
	case Orphan:
		return "orphans"
	case Reorganize:
		return "reorganize"
	case Permissions:
		return "permissions"
	case Ownership:
		return "ownership"
	case PostCleanup:
		return "post-cleanup"
	default:
		return "unknown"
	}
}

// Destructive reports whether k changes a path's name or location on disk.
// Per the GLOSSARY: cleanup, duplicate, and orphan are destructive;
// reorganize, permissions, and ownership only touch metadata or propose a
// structural rename that the arbiter still treats as non-destructive.
func (k Kind) Destructive() bool {
	switch k {
	case PreCleanup, Duplicate, Orphan, PostCleanup:
		return true
	default:
		return false
	}
}

// Operation is the tagged record described in §3. Only the fields relevant
// to Kind are populated; callers must switch on Kind rather than testing
// field presence (the second half of the same Design Note).
type Operation struct {
	Kind Kind
	Path string

	// Move fields (PreCleanup, Duplicate, Orphan, Reorganize, PostCleanup).
	MoveTo       string
	SidecarFiles []string
	OriginalPath string
	Reason       string

	// Permissions fields.
	CurrentMode uint32
	DesiredMode uint32

	// Ownership fields.
	CurrentOwner string
	CurrentGroup string
	DesiredOwner string
	DesiredGroup string
	NewUid       uint32
	NewGid       uint32
}

// Plan maps each Kind to the ordered sequence of Operations its analyzer
// produced. Execution order is fixed by §6: pre-cleanup, duplicates,
// orphans, reorganize, permissions, ownership, post-cleanup.
type Plan struct {
	ops map[Kind][]Operation
}

// NewPlan returns an empty Plan.
func NewPlan() *Plan {
	return &Plan{ops: make(map[Kind][]Operation)}
}

// Add appends op to its Kind's sequence, preserving analyzer emission order.
func (p *Plan) Add(op Operation) {
	p.ops[op.Kind] = append(p.ops[op.Kind], op)
}

// SetAll replaces the sequence for kind wholesale, installing a filtered
// list without rebuilding it one Add call at a time.
func (p *Plan) SetAll(kind Kind, ops []Operation) {
	p.ops[kind] = ops
}

// Ops returns the Operations recorded under kind, in emission order.
func (p *Plan) Ops(kind Kind) []Operation {
	return p.ops[kind]
}

// ExecutionOrder lists the Kinds in the sequence the executor must walk
// them, per §6. PostCleanup is last and runs only after a fresh rescan.
var ExecutionOrder = []Kind{
	PreCleanup, Duplicate, Orphan, Reorganize, Permissions, Ownership, PostCleanup,
}

// Len returns the total number of Operations across all kinds.
func (p *Plan) Len() int {
	n := 0
	for _, ops := range p.ops {
		n += len(ops)
	}
	return n
}

// TotalBytes sums a caller-supplied size lookup over every Operation whose
// Kind is destructive, used to report reclaimable size after cleanup and
// duplicate/orphan analysis.
func (p *Plan) TotalBytes(sizeOf func(path string) int64) int64 {
	var total int64
	for _, kind := range []Kind{PreCleanup, Duplicate, Orphan, PostCleanup} {
		for _, op := range p.ops[kind] {
			total += sizeOf(op.Path)
		}
	}
	return total
}
