package apperr

import (
	"fmt"
	"testing"
)

func TestWrappedKind(t *testing.T) {
	err := fmt.Errorf("create: %w", Conflict("This time slot is no longer available"))
	if !Is(err, KindConflict) {
		t.Fatalf("expected conflict kind through wrapping")
	}
	e, ok := As(err)
	if !ok || e.Message != "This time slot is no longer available" {
		t.Fatalf("unexpected unwrap: %+v", e)
	}
	if Is(fmt.Errorf("plain"), KindConflict) {
		t.Fatalf("plain error should not match")
	}
}
