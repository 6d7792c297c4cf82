package cardocr

import (
	"regexp"
	"strings"
)

// MatchConfig holds the empirically tuned tolerances of the name matcher.
// They gate an authentication path, so they are configuration rather than
// constants.
type MatchConfig struct {
	// MinRatio is the fraction of expected-name tokens that must find a
	// matching card token.
	MinRatio float64
	// MaxDistance is the Levenshtein distance still accepted between two
	// tokens.
	MaxDistance int
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{MinRatio: 0.70, MaxDistance: 1}
}

var nonUpperSpaceRE = regexp.MustCompile(`[^A-Z\s]`)

// NamesMatch fuzzily compares a stored full name against the name read off
// a card. OCR on printed cards reliably introduces single-character
// substitutions and token-order variance, so exact comparison would reject
// most legitimate scans.
func NamesMatch(expected, card string, cfg MatchConfig) bool {
	ne := normalizeName(expected)
	nc := normalizeName(card)

	if ne == nc {
		return true
	}

	expWords := keepSignificant(strings.Fields(ne))
	cardWords := keepSignificant(strings.Fields(nc))
	if len(expWords) == 0 {
		return false
	}

	matched := 0
	for _, w := range expWords {
		for _, cw := range cardWords {
			if strings.Contains(cw, w) || strings.Contains(w, cw) || levenshtein(w, cw) <= cfg.MaxDistance {
				matched++
				break
			}
		}
	}
	return float64(matched)/float64(len(expWords)) >= cfg.MinRatio
}

// normalizeName uppercases, folds the common accented letters to their
// base form and strips everything that is not a plain letter or space.
func normalizeName(name string) string {
	s := strings.Map(foldAccent, strings.ToUpper(name))
	s = nonUpperSpaceRE.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func foldAccent(r rune) rune {
	switch r {
	case 'À', 'Á', 'Â', 'Ã', 'Ä', 'Å':
		return 'A'
	case 'È', 'É', 'Ê', 'Ë':
		return 'E'
	case 'Ì', 'Í', 'Î', 'Ï':
		return 'I'
	case 'Ò', 'Ó', 'Ô', 'Õ', 'Ö':
		return 'O'
	case 'Ù', 'Ú', 'Û', 'Ü':
		return 'U'
	case 'Ç':
		return 'C'
	}
	return r
}

// keepSignificant drops single-character tokens (initials, OCR debris).
func keepSignificant(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if len(w) > 1 {
			out = append(out, w)
		}
	}
	return out
}

// levenshtein is the standard dynamic-programming edit distance with unit
// costs. Inputs are already uppercased ASCII at the call site.
func levenshtein(a, b string) int {
	la, lb := len(a), len(b)
	if la == 0 {
		return lb
	}
	if lb == 0 {
		return la
	}
	matrix := make([][]int, lb+1)
	for i := 0; i <= lb; i++ {
		matrix[i] = make([]int, la+1)
		matrix[i][0] = i
	}
	for j := 0; j <= la; j++ {
		matrix[0][j] = j
	}
	for i := 1; i <= lb; i++ {
		for j := 1; j <= la; j++ {
			if b[i-1] == a[j-1] {
				matrix[i][j] = matrix[i-1][j-1]
				continue
			}
			m := matrix[i-1][j-1] // substitute
			if matrix[i][j-1] < m {
				m = matrix[i][j-1] // insert
			}
			if matrix[i-1][j] < m {
				m = matrix[i-1][j] // delete
			}
			matrix[i][j] = m + 1
		}
	}
	return matrix[lb][la]
}
