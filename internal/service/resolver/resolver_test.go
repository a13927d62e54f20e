package resolver

import (
	"reflect"
	"testing"

	"cardquery/internal/domain/models"
	"cardquery/internal/utils"
)

func set(code, name, released string) models.Set {
	return models.Set{Code: code, Name: name, NormalizedName: utils.Normalize(name), ReleasedAt: released}
}

func testCatalog() []models.Set {
	return []models.Set{
		set("dom", "Dominaria", "2018-04-27"),
		set("dmu", "Dominaria United", "2022-09-09"),
		set("dmr", "Dominaria Remastered", "2023-01-13"),
		set("cmm", "Commander Masters", "2023-08-04"),
		set("cmr", "Commander Legends", "2020-11-20"),
		set("2xm", "Double Masters", "2020-08-07"),
		set("ltr", "The Lord of the Rings: Tales of Middle-earth", "2023-06-23"),
		set("khm", "Kaldheim", "2021-02-05"),
		set("cmm", "Commander Masters", models.AliasReleaseDate),
	}
}

func codes(cands []models.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Set.Code
	}
	return out
}

func TestResolve_SubstringMatchScores100(t *testing.T) {
	got := Resolve("legendary elves from Dominaria", []models.Set{set("dom", "Dominaria", "2018-04-27")}, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d: %v", len(got), codes(got))
	}
	if got[0].Set.Code != "dom" || got[0].Score != 100 {
		t.Errorf("got %s/%d, want dom/100", got[0].Set.Code, got[0].Score)
	}
}

func TestResolve_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "?!"} {
		got := Resolve(q, testCatalog(), 6)
		if got == nil || len(got) != 0 {
			t.Errorf("Resolve(%q) = %v, want empty non-nil slice", q, got)
		}
	}
}

func TestResolve_NoMatches(t *testing.T) {
	got := Resolve("blue dinosaurs", testCatalog(), 6)
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %v", codes(got))
	}
}

func TestResolve_SubstringDominatesTokenOverlap(t *testing.T) {
	catalog := []models.Set{
		set("aaa", "Kaldheim", "2021-02-05"),
		set("bbb", "Kaldheim Vikings Snow Gods", "2030-01-01"),
	}
	got := Resolve("kaldheim snow vikings gods deck", catalog, 6)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %v", codes(got))
	}
	if got[0].Set.Code != "aaa" || got[0].Score != 100 {
		t.Errorf("substring match should rank first, got %v", got)
	}
	if got[1].Score >= 100 {
		t.Errorf("token overlap scored %d", got[1].Score)
	}
}

func TestResolve_CodeUniqueKeepsHighestScore(t *testing.T) {
	catalog := []models.Set{
		set("ltr", "Tales of Middle-earth", "2023-06-23"),
		set("ltr", "Lord of the Rings", models.AliasReleaseDate),
	}
	got := Resolve("lord of the rings gandalf", catalog, 6)
	if len(got) != 1 {
		t.Fatalf("expected one entry per code, got %v", codes(got))
	}
	if got[0].Score != 100 || got[0].Set.Name != "Lord of the Rings" {
		t.Errorf("expected alias entry with score 100, got %+v", got[0])
	}

	seen := map[string]bool{}
	for _, c := range Resolve("commander masters dominaria", testCatalog(), 10) {
		if seen[c.Set.Code] {
			t.Fatalf("duplicate code %q", c.Set.Code)
		}
		seen[c.Set.Code] = true
	}
}

func TestResolve_TieBreakNewestFirst(t *testing.T) {
	got := Resolve("dominaria", testCatalog(), 6)
	want := []string{"dom", "dmr", "dmu"}
	if !reflect.DeepEqual(codes(got), want) {
		t.Errorf("got %v, want %v", codes(got), want)
	}
	if got[1].Score != got[2].Score {
		t.Errorf("expected tie between dmr and dmu, got %d and %d", got[1].Score, got[2].Score)
	}
}

func TestResolve_TightenedScoringPath(t *testing.T) {
	// "commander masters" contains stop word "masters"; the tightened path
	// lets "commander" still match Commander Masters via containment.
	catalog := []models.Set{set("cmm", "Commander Masters", "2023-08-04")}
	got := Resolve("commander staples", catalog, 6)
	if len(got) != 1 || got[0].Score != 100 {
		t.Fatalf("expected tightened containment match, got %+v", got)
	}
}

func TestResolve_Limit(t *testing.T) {
	var catalog []models.Set
	for _, code := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7", "a8"} {
		catalog = append(catalog, set(code, "Shared Word "+code, "2020-01-01"))
	}
	if got := Resolve("shared word", catalog, 0); len(got) != DefaultLimit {
		t.Errorf("default limit: got %d", len(got))
	}
	if got := Resolve("shared word", catalog, 3); len(got) != 3 {
		t.Errorf("limit 3: got %d", len(got))
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first := Resolve("commander legends dominaria masters", testCatalog(), 6)
	for i := 0; i < 20; i++ {
		if got := Resolve("commander legends dominaria masters", testCatalog(), 6); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d differs: %v vs %v", i, codes(got), codes(first))
		}
	}
}

func TestRawScore(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"legendary elves from dominaria", "dominaria", 100},
		{"dominaria", "dominaria united", 1},
		{"commander legends", "commander masters", 1},
		{"a b c", "c b a", 3},
		{"x y", "z", 0},
		{"anything", "", 0},
		{"", "dominaria", 0},
		{"kaldheim kaldheim", "kaldheim gods", 1},
	}
	for _, tt := range tests {
		if got := rawScore(tt.a, tt.b); got != tt.want {
			t.Errorf("rawScore(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
