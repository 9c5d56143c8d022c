package validation

import (
	"testing"

	"github.com/skillsenselab/scribe/errors"
)

type submitForm struct {
	APIKey   string `json:"apiKey" validate:"required"`
	Language string `json:"language" validate:"omitempty,bcp47_language_tag"`
}

func TestValidate_OK(t *testing.T) {
	if err := Validate(submitForm{APIKey: "gsk_123", Language: "pt-BR"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(submitForm{APIKey: "gsk_123"}); err != nil {
		t.Fatalf("empty optional language rejected: %v", err)
	}
}

func TestValidate_Required(t *testing.T) {
	err := Validate(submitForm{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 1 {
		t.Fatalf("expected one field error, got %v", appErr.Details["fields"])
	}
	if fields[0].Field != "apiKey" {
		t.Errorf("expected json tag name apiKey, got %s", fields[0].Field)
	}
}

func TestValidate_LanguageTag(t *testing.T) {
	err := Validate(submitForm{APIKey: "k", Language: "not a language"})
	if err == nil {
		t.Fatal("expected error for malformed language tag")
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("MaxBodySize"); got != "max_body_size" {
		t.Errorf("toSnakeCase = %q", got)
	}
}
