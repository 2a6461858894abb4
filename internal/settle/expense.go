package settle

import "time"

// Format discriminates the two supported expense shapes. Every consumer must
// handle both; there is no duck typing on field presence.
type Format int

const (
	// FormatLegacy marks an expense split evenly across the current list
	// membership at query time. The even-split fraction is not stored on the
	// record; it is derived from present membership whenever balances are
	// computed, so the split follows members joining and leaving.
	FormatLegacy Format = 1
	// FormatWeighted marks an expense with explicit per-participant share
	// fractions.
	FormatWeighted Format = 2
)

// Valid reports whether the format tag is one of the supported variants.
func (f Format) Valid() bool {
	return f == FormatLegacy || f == FormatWeighted
}

func (f Format) String() string {
	switch f {
	case FormatLegacy:
		return "legacy"
	case FormatWeighted:
		return "weighted"
	default:
		return "unknown"
	}
}

// Expense is a single recorded payment made by one participant.
//
// Shares is only meaningful for FormatWeighted. A participant absent from
// Shares is not party to the expense and owes nothing for it; a participant
// with an explicit zero share is party with zero obligation. The two cases
// are deliberately distinct. Shares are not required to sum to 1; the engine
// consumes whatever fraction is present per participant.
type Expense struct {
	PayerID    string             `json:"payer_id"`
	Amount     Money              `json:"amount"`
	Format     Format             `json:"format"`
	Shares     map[string]float64 `json:"shares,omitempty"`
	RecordedAt time.Time          `json:"recorded_at"`
}

// shareOf resolves the fraction of this expense the given participant is
// responsible for. Legacy expenses synthesize the supplied even-split
// fraction; weighted expenses read the stored share, treating absence as
// zero.
func (e Expense) shareOf(userID string, evenSplit float64) float64 {
	if e.Format == FormatLegacy {
		return evenSplit
	}
	return e.Shares[userID]
}
