package common

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidator_Rules(t *testing.T) {
	v := NewValidator().
		Field("name", "  ", Required).
		Field("limit", 900, NonNegative, MaxInt(500)).
		Field("offset", -1, NonNegative).
		Field("ttl", -time.Second, NonNegative).
		Field("format", "xml", OneOf("text", "json")).
		Field("step", int64(0), Positive)

	if got := len(v.Errors()); got != 6 {
		t.Fatalf("errors = %d, want 6: %s", got, v.ErrorMessage())
	}
	if !strings.Contains(v.ErrorMessage(), "must be at most 500") {
		t.Errorf("message = %q", v.ErrorMessage())
	}
}

func TestValidateAndReturnError(t *testing.T) {
	if err := ValidateAndReturnError(NewValidator().Field("limit", 10, NonNegative, MaxInt(500))); err != nil {
		t.Fatalf("valid input: %v", err)
	}

	err := ValidateAndReturnError(NewValidator().Field("offset", -3, NonNegative))
	if !errors.Is(err, ErrValidation) || !IsInputError(err) {
		t.Fatalf("expected validation input error, got %v", err)
	}
	var ae *AppError
	if !errors.As(err, &ae) || ae.Code != CodeBadRequest {
		t.Errorf("expected %s AppError, got %v", CodeBadRequest, err)
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "ctx") != nil {
		t.Error("nil stays nil")
	}
	err := WrapError(ErrNotFound, "hospitals.csv")
	if !errors.Is(err, ErrNotFound) || err.Error() != "hospitals.csv: resource not found" {
		t.Errorf("unexpected wrap: %v", err)
	}
}
