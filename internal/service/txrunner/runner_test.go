package txrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mamadbah2/kandang/internal/domain/models"
	"github.com/mamadbah2/kandang/internal/repository"
)

type stubStore struct {
	calls int
	errs  []error
	block bool
}

func (s *stubStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	s.calls++
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if len(s.errs) == 0 {
		return nil
	}
	err := s.errs[0]
	s.errs = s.errs[1:]
	return err
}

func (s *stubStore) Close(context.Context) error { return nil }

func noop(context.Context, repository.Tx) error { return nil }

func TestRunRetriesConflicts(t *testing.T) {
	store := &stubStore{errs: []error{
		models.Conflict("batch", "b1", errors.New("stale")),
		models.Conflict("batch", "b1", errors.New("stale")),
	}}
	r := New(store, Options{MaxRetries: 3}, nil)

	if err := r.Run(context.Background(), "test", noop); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if store.calls != 3 {
		t.Fatalf("expected 3 attempts got %d", store.calls)
	}
}

func TestRunSurfacesConflictAfterLimit(t *testing.T) {
	conflict := models.Conflict("coop", "c1", errors.New("stale"))
	store := &stubStore{errs: []error{conflict, conflict, conflict}}
	r := New(store, Options{MaxRetries: 2}, nil)

	err := r.Run(context.Background(), "test", noop)
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
	if !models.IsRetryable(err) {
		t.Fatalf("conflict must be retryable")
	}
	if store.calls != 3 {
		t.Fatalf("expected 3 attempts got %d", store.calls)
	}
}

func TestRunDoesNotRetryDomainErrors(t *testing.T) {
	store := &stubStore{errs: []error{models.Insufficient("batch", "b1", "1", "2")}}
	r := New(store, Options{}, nil)

	err := r.Run(context.Background(), "test", noop)
	if !errors.Is(err, models.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock got %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("expected a single attempt got %d", store.calls)
	}
}

func TestRunMapsDeadlineToTimeout(t *testing.T) {
	store := &stubStore{block: true}
	r := New(store, Options{Timeout: 10 * time.Millisecond}, nil)

	err := r.Run(context.Background(), "test", noop)
	if !errors.Is(err, models.ErrTimeout) {
		t.Fatalf("expected timeout got %v", err)
	}
	if models.KindOf(err) != models.KindTimeout {
		t.Fatalf("unexpected kind %q", models.KindOf(err))
	}
}
