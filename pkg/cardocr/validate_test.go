package cardocr

import "testing"

func TestValidateAccepts(t *testing.T) {
	v := Validate(CardData{Matricule: "2223i278", Name: "IGRE URBAIN LEPONTIFE"})
	if !v.Valid || len(v.Errors) != 0 {
		t.Fatalf("expected valid, got %+v", v)
	}
}

func TestValidateMatriculeFormat(t *testing.T) {
	v := Validate(CardData{Matricule: "123a456", Name: "IGRE URBAIN"})
	if v.Valid {
		t.Fatal("wrong digit counts must be rejected")
	}
	if len(v.Errors) != 1 || v.Errors[0] != "Format de matricule invalide" {
		t.Fatalf("unexpected errors %v", v.Errors)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	v := Validate(CardData{})
	if v.Valid {
		t.Fatal("empty data must be invalid")
	}
	if len(v.Errors) != 2 {
		t.Fatalf("expected both violations reported, got %v", v.Errors)
	}
	if v.Errors[0] != "Matricule manquant" || v.Errors[1] != "Nom manquant ou invalide" {
		t.Fatalf("unexpected errors %v", v.Errors)
	}
}

func TestValidateShortName(t *testing.T) {
	v := Validate(CardData{Matricule: "2223i278", Name: "X"})
	if v.Valid {
		t.Fatal("single-character name must be rejected")
	}
}
