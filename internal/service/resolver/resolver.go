package resolver

import (
	"sort"
	"strings"

	"cardquery/internal/domain/models"
	"cardquery/internal/utils"
)

// DefaultLimit is the number of candidates returned when no limit is given.
const DefaultLimit = 6

// containmentScore outranks any possible token overlap.
const containmentScore = 100

// Resolve ranks catalog sets against a free-form query and returns at most
// limit candidates. A set whose normalized name appears in the normalized
// query scores 100; otherwise it scores the number of tokens it shares with
// the query. Scoring is tried both on the full strings and on their
// stop-word-stripped forms, and the higher score is kept.
//
// Each code appears at most once; ties are broken by newer release date,
// then by code.
func Resolve(query string, catalog []models.Set, limit int) []models.Candidate {
	if limit <= 0 {
		limit = DefaultLimit
	}

	q := utils.Normalize(query)
	if q == "" {
		return []models.Candidate{}
	}
	tq := utils.Tighten(q)

	best := make(map[string]models.Candidate)
	for _, set := range catalog {
		name := set.NormalizedName
		if name == "" {
			name = utils.Normalize(set.Name)
		}

		score := max(rawScore(q, name), rawScore(tq, utils.Tighten(name)))
		if score < 1 {
			continue
		}

		if prev, ok := best[set.Code]; ok && prev.Score >= score {
			continue
		}
		best[set.Code] = models.Candidate{Set: set, Score: score}
	}

	out := make([]models.Candidate, 0, len(best))
	for _, c := range best {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Set.ReleasedAt != b.Set.ReleasedAt {
			return a.Set.ReleasedAt > b.Set.ReleasedAt
		}
		return a.Set.Code < b.Set.Code
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// rawScore returns 100 when a contains b, otherwise the number of distinct
// tokens of b that also occur in a.
func rawScore(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if strings.Contains(a, b) {
		return containmentScore
	}

	have := make(map[string]struct{})
	for _, t := range utils.Tokens(a) {
		have[t] = struct{}{}
	}

	shared := 0
	seen := make(map[string]struct{})
	for _, t := range utils.Tokens(b) {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := have[t]; ok {
			shared++
		}
	}
	return shared
}
