package storage

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestErrorClassification(t *testing.T) {
	overlap := fmt.Errorf("insert booking: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "bookings_no_overlap"})
	if !IsConflict(overlap) {
		t.Fatalf("expected exclusion violation to be a conflict")
	}
	if IsConflict(&pgconn.PgError{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a conflict")
	}
	if !IsNotFound(fmt.Errorf("get: %w", pgx.ErrNoRows)) {
		t.Fatalf("expected wrapped ErrNoRows to be not found")
	}
	if !IsInvalidInput(&pgconn.PgError{Code: "22P02"}) {
		t.Fatalf("expected invalid text representation to be invalid input")
	}
}

func TestIdempotencyRecordCompleted(t *testing.T) {
	if (IdempotencyRecord{}).Completed() {
		t.Fatalf("fresh record must not be completed")
	}
	if !(IdempotencyRecord{StatusCode: 201, ResponsePayload: []byte(`{}`)}).Completed() {
		t.Fatalf("expected record with response to be completed")
	}
}
