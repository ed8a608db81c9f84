package dispute

import "time"

// Status represents the lifecycle of a dispute.
type Status string

const (
	StatusOpen     Status = "open"
	StatusEvidence Status = "evidence"
	StatusResolved Status = "resolved"
	// StatusAppealed is declared in the data model but no operation
	// transitions into it; the appeal deadline is recorded and never acted
	// upon.
	StatusAppealed Status = "appealed"
)

// AppealWindow is the number of blocks after resolution during which the
// recorded appeal deadline stays open (roughly one day of blocks).
const AppealWindow = 144

// Record mirrors the disputes table.
//
// Amount is fixed at creation. EvidenceCount only grows and doubles as the
// last-assigned evidence sequence, since evidence is never deleted.
// Outcome and Confidence are written exactly once, at resolution.
type Record struct {
	ID             int64
	PlaintiffID    string
	DefendantID    string
	Amount         int64
	Status         Status
	CreatedHeight  int64
	ResolvedHeight *int64
	Outcome        *bool
	Confidence     *int
	EvidenceCount  int
	AppealDeadline *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Party reports whether id is the plaintiff or defendant of the dispute.
func (r Record) Party(id string) bool {
	return id != "" && (id == r.PlaintiffID || id == r.DefendantID)
}

// Resolution bundles what ResolveDispute returns to the caller.
type Resolution struct {
	Record     Record
	WinnerID   string
	Amount     int64
	Confidence int
}
