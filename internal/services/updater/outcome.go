package updater

// ItemOutcome classifies what happened to one item of a chunk. Callers
// branch on the value rather than on recovered errors.
type ItemOutcome int

const (
	// OutcomeSkipped — nothing fetched for the item (too fresh, missing
	// token, or both streams absent). No writes, no penalty; the item is
	// due again next run.
	OutcomeSkipped ItemOutcome = iota
	// OutcomeFailed — both streams errored or persistence failed. The
	// exceptions are recorded, the bookkeeping stays untouched.
	OutcomeFailed
	// OutcomePersisted — the document was merged and stored and the entry
	// bookkeeping refreshed.
	OutcomePersisted
)

func (o ItemOutcome) String() string {
	switch o {
	case OutcomeFailed:
		return "failed"
	case OutcomePersisted:
		return "persisted"
	default:
		return "skipped"
	}
}
