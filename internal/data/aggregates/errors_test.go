package aggregates

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/classroom-backend/internal/domain/aggregates"
	"gorm.io/gorm"
)

func TestMapError_Validation(t *testing.T) {
	err := MapError("op", ValidationError("bad input"))
	if !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("expected validation code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Conflict(t *testing.T) {
	err := MapError("op", ConflictError("stale"))
	if !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("expected conflict code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_Precondition(t *testing.T) {
	err := MapError("op", PreconditionError("course is not published"))
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("expected precondition code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_NotFound(t *testing.T) {
	err := MapError("op", gorm.ErrRecordNotFound)
	if !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("expected not_found code, got %q (%v)", domainagg.CodeOf(err), err)
	}
}

func TestMapError_PassthroughAggregateError(t *testing.T) {
	in := domainagg.NewError(domainagg.CodeNotEnrolled, "op", "not enrolled", errors.New("boom"))
	out := MapError("other", in)
	if out != in {
		t.Fatalf("expected passthrough aggregate error")
	}
	wrapped := fmt.Errorf("tx body: %w", in)
	if got := MapError("other", wrapped); !domainagg.IsCode(got, domainagg.CodeNotEnrolled) {
		t.Fatalf("expected wrapped aggregate error to keep its code, got %v", got)
	}
}

func TestMapError_PostgresCodes(t *testing.T) {
	cases := []struct {
		code      string
		want      domainagg.ErrorCode
		retryable bool
	}{
		{"23505", domainagg.CodeConflict, false},
		{"23503", domainagg.CodePreconditionFailed, false},
		{"40001", domainagg.CodePersistence, true},
		{"40P01", domainagg.CodePersistence, true},
		{"55P03", domainagg.CodePersistence, true},
		{"42P01", domainagg.CodePersistence, false},
	}
	for _, tc := range cases {
		err := MapError("op", &pgconn.PgError{Code: tc.code, Message: "pg"})
		if !domainagg.IsCode(err, tc.want) {
			t.Fatalf("code %s: want=%s got=%s", tc.code, tc.want, domainagg.CodeOf(err))
		}
		if domainagg.IsRetryable(err) != tc.retryable {
			t.Fatalf("code %s: retryable want=%v", tc.code, tc.retryable)
		}
	}
}

func TestMapError_StorageFallbacks(t *testing.T) {
	if err := MapError("op", errors.New("UNIQUE constraint failed: enrollment.user_id")); !domainagg.IsCode(err, domainagg.CodeConflict) {
		t.Fatalf("sqlite unique: got %v", err)
	}
	if err := MapError("op", errors.New("database is locked")); !domainagg.IsRetryable(err) {
		t.Fatalf("sqlite busy should be retryable: got %v", err)
	}
	if err := MapError("op", context.DeadlineExceeded); !domainagg.IsCode(err, domainagg.CodePersistence) || !domainagg.IsRetryable(err) {
		t.Fatalf("deadline: got %v", err)
	}
	if err := MapError("op", errors.New("connection refused")); !domainagg.IsCode(err, domainagg.CodePersistence) || domainagg.IsRetryable(err) {
		t.Fatalf("generic failure: got %v", err)
	}
}
