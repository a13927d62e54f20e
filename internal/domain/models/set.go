package models

// AliasReleaseDate is the fabricated release date carried by hand-curated
// alias entries. It compares greater than any real ISO date.
const AliasReleaseDate = "9999-12-31"

// Set is a catalog entity: a named, short-coded card-game expansion.
// Values are immutable once produced by the catalog.
type Set struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	NormalizedName string `json:"-"`
	ReleasedAt     string `json:"released_at"` // ISO-like date, sortable as a string
}

// IsAlias reports whether the set came from the curated alias list.
func (s Set) IsAlias() bool {
	return s.ReleasedAt == AliasReleaseDate
}

// Candidate is a set with the score it received for a particular query.
type Candidate struct {
	Set   Set `json:"set"`
	Score int `json:"score"`
}
