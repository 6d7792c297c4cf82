package cardocr

import (
	"regexp"
	"strings"
)

// CardData is the structured record pulled out of the canonical text.
// Either field may be absent; extraction never fails.
type CardData struct {
	Matricule string `json:"matricule,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Uppercase letters as printed on the cards, including the accented forms.
const upperLetters = `A-ZÀÁÂÃÄÅÆÇÈÉÊËÌÍÎÏÐÑÒÓÔÕÖ`

var (
	// 4 digits + 1 letter + 3 digits, optionally preceded by its label.
	matriculeRE = regexp.MustCompile(`(?i)(?:Matricule\s*:?\s*)?(\d{4}[a-zA-Z]\d{3})`)

	labeledNameRE  = regexp.MustCompile(`(?i)Nom\s*\(s\)\s*:?\s*([` + upperLetters + `\s]+?)(?:\s+Né\(e\)|$)`)
	markerNameRE   = regexp.MustCompile(`(?i)([` + upperLetters + `\s]{3,}?)\s+NÉ\(E\)`)
	fallbackNameRE = regexp.MustCompile(`([` + upperLetters + `]{2,}\s+[` + upperLetters + `]{2,}(?:\s+[` + upperLetters + `]{2,})*)`)
)

// Institution/document boilerplate that the heuristic fallback must not
// mistake for a student name.
var boilerplateWords = []string{"INSTITUT", "CARTE", "ETUDIANT"}

// nameStrategies are tried in order; the first success wins.
var nameStrategies = []struct {
	name string
	fn   func(text, matricule string) (string, bool)
}{
	{"labeled", labeledName},
	{"birth-marker", markerName},
	{"after-matricule", afterMatriculeName},
	{"capitalized-run", fallbackName},
}

// Extract pulls the matricule and full name out of canonical text. Fields
// are populated independently.
func Extract(text string) CardData {
	var data CardData
	if m := matriculeRE.FindStringSubmatch(text); m != nil {
		data.Matricule = strings.ToLower(m[1])
	}
	for _, s := range nameStrategies {
		if name, ok := s.fn(text, data.Matricule); ok {
			data.Name = name
			break
		}
	}
	return data
}

// labeledName: text following "Nom(s):" up to the birth-date marker or end
// of string.
func labeledName(text, _ string) (string, bool) {
	m := labeledNameRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), true
}

// markerName: an unlabeled uppercase run directly in front of "Né(e)".
func markerName(text, _ string) (string, bool) {
	m := markerNameRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), true
}

// afterMatriculeName: the text between the already-extracted matricule and
// the birth-date marker.
func afterMatriculeName(text, matricule string) (string, bool) {
	if matricule == "" {
		return "", false
	}
	re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(matricule) + `\s+([` + upperLetters + `\s]+?)\s+NÉ\(E\)`)
	if err != nil {
		return "", false
	}
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(strings.TrimSpace(m[1])), true
}

// fallbackName: first run of two or more capitalized words anywhere in the
// text, rejected when it contains document boilerplate.
func fallbackName(text, _ string) (string, bool) {
	m := fallbackNameRE.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	candidate := strings.TrimSpace(m[1])
	for _, w := range boilerplateWords {
		if strings.Contains(candidate, w) {
			return "", false
		}
	}
	return strings.ToUpper(candidate), true
}
