package error

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDBError_Is(t *testing.T) {
	err := Newf(ErrCategoryUser, CodeMalformedIndex, "index %q has no columns", "idx_a")

	if !errors.Is(err, ErrMalformedIndex) {
		t.Errorf("expected errors.Is to match ErrMalformedIndex")
	}
	if errors.Is(err, ErrDuplicatePrimaryKey) {
		t.Errorf("expected errors.Is not to match ErrDuplicatePrimaryKey")
	}

	wrapped := fmt.Errorf("apply failed: %w", err)
	if !errors.Is(wrapped, ErrMalformedIndex) {
		t.Errorf("expected wrapped error to match ErrMalformedIndex")
	}
	if got := CodeOf(wrapped); got != CodeMalformedIndex {
		t.Errorf("expected code %s, got %s", CodeMalformedIndex, got)
	}
}

func TestDBError_ErrorFormat(t *testing.T) {
	err := New(ErrCategoryUser, CodeDuplicatePrimaryKey, "duplicate primary key").
		WithDetail("table %s", "orders").
		At("ResolveConstraints", "ConstraintResolver")

	msg := err.Error()
	for _, want := range []string{
		"[DUPLICATE_PRIMARY_KEY]",
		"duplicate primary key: table orders",
		"operation: ResolveConstraints",
		"component: ConstraintResolver",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil, "X", "op", "comp") != nil {
		t.Fatal("expected nil for nil error")
	}

	cause := errors.New("boom")
	wrapped := Wrap(cause, CodeInvalidDefinition, "Validate", "Catalog")
	if !errors.Is(wrapped, cause) {
		t.Errorf("expected cause in chain")
	}
	if wrapped.Category != ErrCategorySystem {
		t.Errorf("expected system category, got %s", wrapped.Category)
	}

	existing := New(ErrCategoryUser, CodeMalformedSchema, "bad ordinal")
	again := Wrap(existing, "OTHER", "Compile", "SchemaCompiler")
	if again != existing {
		t.Fatal("expected the same DBError to be returned")
	}
	if again.Code != CodeMalformedSchema || again.Operation != "Compile" {
		t.Errorf("unexpected enrichment: %+v", again)
	}
}

func TestCodeOf_NonDBError(t *testing.T) {
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
	if got := CodeOf(nil); got != "" {
		t.Errorf("expected empty code, got %q", got)
	}
}
