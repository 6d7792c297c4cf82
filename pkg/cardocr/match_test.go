package cardocr

import "testing"

func TestLevenshtein(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "AB", 2},
		{"ABC", "ABC", 0},
		{"KITTEN", "SITTING", 3},
		{"LEPONTIFE", "LEPONTIFF", 1},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Fatalf("levenshtein(%q,%q)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestNamesMatchExact(t *testing.T) {
	cfg := DefaultMatchConfig()
	if !NamesMatch("IGRE URBAIN LEPONTIFE", "IGRE URBAIN LEPONTIFE", cfg) {
		t.Fatal("identical names must match")
	}
}

func TestNamesMatchSingleTypo(t *testing.T) {
	cfg := DefaultMatchConfig()
	// One substituted character on the last token keeps the ratio at 3/3.
	if !NamesMatch("IGRE URBAIN LEPONTIFE", "IGRE URBAIN LEPONTIFF", cfg) {
		t.Fatal("single-character OCR typo must still match")
	}
}

func TestNamesMatchRejectsDifferentPerson(t *testing.T) {
	cfg := DefaultMatchConfig()
	if NamesMatch("JEAN PAUL DURAND", "MARIE CLAIRE", cfg) {
		t.Fatal("unrelated names must not match")
	}
}

func TestNamesMatchTokenOrder(t *testing.T) {
	cfg := DefaultMatchConfig()
	if !NamesMatch("DURAND JEAN PAUL", "JEAN PAUL DURAND", cfg) {
		t.Fatal("token order must not matter")
	}
}

func TestNamesMatchAccentsAndCase(t *testing.T) {
	cfg := DefaultMatchConfig()
	if !NamesMatch("Kouamé Pierre", "KOUAME PIERRE", cfg) {
		t.Fatal("accent and case variants must match")
	}
	if !NamesMatch("François ÇEDIL", "FRANCOIS CEDIL", cfg) {
		t.Fatal("cedilla folding must apply")
	}
}

func TestNamesMatchNormalizationSymmetry(t *testing.T) {
	cfg := DefaultMatchConfig()
	pairs := [][2]string{
		{"Igre Urbain Lepontife", "IGRE URBAIN LEPONTIFE"},
		{"KOUAMÉ PIERRE", "kouame pierre"},
		{"JEAN PAUL DURAND", "MARIE CLAIRE"},
	}
	for _, p := range pairs {
		raw := NamesMatch(p[0], p[1], cfg)
		norm := NamesMatch(normalizeName(p[0]), normalizeName(p[1]), cfg)
		if raw != norm {
			t.Fatalf("matcher not invariant under normalization for %v: %v vs %v", p, raw, norm)
		}
	}
}

func TestNamesMatchConfigurableThreshold(t *testing.T) {
	strict := MatchConfig{MinRatio: 1.0, MaxDistance: 0}
	if NamesMatch("IGRE URBAIN LEPONTIFE", "IGRE URBAIN LEPONTIFF", strict) {
		t.Fatal("strict config must reject the typo")
	}
	loose := MatchConfig{MinRatio: 0.30, MaxDistance: 1}
	if !NamesMatch("IGRE URBAIN LEPONTIFE", "IGRE AUTRE CHOSE", loose) {
		t.Fatal("loose config must accept a 1/3 token match")
	}
}

func TestNamesMatchEmptyExpected(t *testing.T) {
	cfg := DefaultMatchConfig()
	if NamesMatch("", "IGRE URBAIN", cfg) {
		t.Fatal("empty expected name must not match a non-empty card name")
	}
}
