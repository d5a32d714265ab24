package validator

import (
	"testing"
)

type runRequest struct {
	ID    string `param:"id" validate:"required,uuid"`
	Model string `form:"model" validate:"omitempty,max=5"`
}

func TestValidate(t *testing.T) {
	cv := New()

	if err := cv.Validate(&runRequest{ID: "6f1c2a4e-8d3b-4b8e-9f1a-2c3d4e5f6a7b"}); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	err := cv.Validate(&runRequest{ID: "nope", Model: "en-US_BroadbandModel"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if got, want := err.Error(), "id must satisfy uuid; model must satisfy max=5"; got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}
