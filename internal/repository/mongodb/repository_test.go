package mongodb

import (
	"errors"
	"fmt"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/kandang/internal/domain/models"
)

func TestTranslateWriteConflict(t *testing.T) {
	err := translate(fmt.Errorf("save batch: %w", mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}))
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestTranslateTransientLabel(t *testing.T) {
	err := translate(mongo.CommandError{Code: 251, Labels: []string{transientTransactionLabel}})
	if !errors.Is(err, models.ErrConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestTranslatePassesThrough(t *testing.T) {
	if translate(nil) != nil {
		t.Fatalf("expected nil")
	}

	domainErr := models.Insufficient("batch", "b1", "10", "20")
	if got := translate(domainErr); got != error(domainErr) {
		t.Fatalf("expected domain error unchanged got %v", got)
	}

	other := mongo.CommandError{Code: 11000, Name: "DuplicateKey"}
	got := translate(other)
	if errors.Is(got, models.ErrConflict) {
		t.Fatalf("duplicate key must not map to conflict")
	}
}

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(mongo.ErrNoDocuments, "coop", "c1")
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	if models.KindOf(notFoundOr(errors.New("socket closed"), "coop", "c1")) != "" {
		t.Fatalf("expected infrastructure error to stay untyped")
	}
}

func TestLiveFilter(t *testing.T) {
	f := liveFilter(bson.M{"_id": "x"})
	if f["is_deleted"] != false || f["_id"] != "x" {
		t.Fatalf("unexpected filter %v", f)
	}
}
