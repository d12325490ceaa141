package validate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type input struct {
	Kind string   `json:"kind" validate:"required,oneof=a b"`
	Body string   `json:"body" validate:"max=5"`
	Tags []string `json:"tags" validate:"max=2,dive,max=3"`
}

func TestStructValid(t *testing.T) {
	if err := Struct(input{Kind: "a", Body: "hi", Tags: []string{"x"}}); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructFieldErrors(t *testing.T) {
	err := Struct(input{Kind: "c", Body: "too long", Tags: []string{"a", "b", "c"}})

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	want := []FieldError{
		{Field: "kind", Message: "kind must be one of: a b"},
		{Field: "body", Message: "body must be at most 5 characters"},
		{Field: "tags", Message: "tags must have at most 2 items"},
	}
	if diff := cmp.Diff(want, verr.Fields); diff != "" {
		t.Errorf("field errors mismatch (-want +got):\n%s", diff)
	}
}

func TestStructDive(t *testing.T) {
	err := Struct(input{Kind: "b", Tags: []string{"long"}})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if len(verr.Fields) != 1 || verr.Fields[0].Field != "tags[0]" {
		t.Errorf("unexpected fields %+v", verr.Fields)
	}
}

func TestStructRequired(t *testing.T) {
	err := Struct(input{})
	if err == nil || err.Error() != "kind is required" {
		t.Errorf("expected required message, got %v", err)
	}
}
