package cardocr

import "regexp"

// Validation reports every rule violation at once; Valid is true iff
// Errors is empty.
type Validation struct {
	Valid  bool     `json:"isValid"`
	Errors []string `json:"errors"`
}

var matriculeFormatRE = regexp.MustCompile(`^\d{4}[a-zA-Z]\d{3}$`)

// Validate checks the extracted fields against the card format rules.
// All rules are evaluated; nothing short-circuits.
func Validate(data CardData) Validation {
	var errs []string
	if data.Matricule == "" {
		errs = append(errs, "Matricule manquant")
	} else if !matriculeFormatRE.MatchString(data.Matricule) {
		errs = append(errs, "Format de matricule invalide")
	}
	if len(data.Name) < 2 {
		errs = append(errs, "Nom manquant ou invalide")
	}
	return Validation{Valid: len(errs) == 0, Errors: errs}
}
