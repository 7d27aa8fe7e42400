package validation

import (
	"strings"
	"testing"
)

type sampleForm struct {
	Name   string `validate:"required"`
	Number int    `validate:"required,gte=1,lte=45"`
}

func TestFormatValidationErrors(t *testing.T) {
	v := NewValidator()

	err := v.ValidateStruct(sampleForm{Number: 99})
	if err == nil {
		t.Fatal("ValidateStruct accepted an invalid form")
	}

	fields := FormatValidationErrors(err)

	if got := fields["name"]; got != "Name is required" {
		t.Errorf("fields[name] = %q", got)
	}
	if got := fields["number"]; !strings.Contains(got, "less than or equal to 45") {
		t.Errorf("fields[number] = %q", got)
	}
}

func TestFormatValidationErrorsNonValidatorError(t *testing.T) {
	v := NewValidator()
	if err := v.ValidateStruct(sampleForm{Name: "ok", Number: 3}); err != nil {
		t.Fatalf("ValidateStruct rejected a valid form: %v", err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  김교사\x00 "); got != "김교사" {
		t.Errorf("SanitizeString = %q", got)
	}
}
