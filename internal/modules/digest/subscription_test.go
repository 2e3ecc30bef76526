package digest

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrasebox/core/internal/database"
	"github.com/phrasebox/core/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func TestSubscribeLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	sub, err := svc.Subscribe("u1", "mika@example.com")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if sub.Verified {
		t.Error("fresh subscription must start unverified")
	}
	if len(sub.CancelToken) != 32 {
		t.Errorf("cancel token length %d, want 32 hex chars", len(sub.CancelToken))
	}

	// Unverified subscribers never receive digests.
	verified, err := svc.VerifiedSubscribers()
	if err != nil {
		t.Fatalf("VerifiedSubscribers: %v", err)
	}
	if len(verified) != 0 {
		t.Errorf("unverified subscriber listed: %d", len(verified))
	}

	if err := svc.Verify(sub.CancelToken); err != nil {
		t.Fatalf("verify: %v", err)
	}
	verified, err = svc.VerifiedSubscribers()
	if err != nil {
		t.Fatalf("VerifiedSubscribers: %v", err)
	}
	if len(verified) != 1 {
		t.Fatalf("expected 1 verified subscriber, got %d", len(verified))
	}

	if err := svc.Unsubscribe(sub.CancelToken); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if got, err := svc.Mine("u1"); err != nil || got != nil {
		t.Errorf("subscription survived unsubscribe: (%v, %v)", got, err)
	}
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	if err := svc.Verify("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
	if err := svc.Unsubscribe("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestResubscribeAfterUnsubscribe(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	first, err := svc.Subscribe("u1", "mika@example.com")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := svc.Verify(first.CancelToken); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := svc.Unsubscribe(first.CancelToken); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}

	second, err := svc.Subscribe("u1", "mika@example.com")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if err := svc.Verify(second.CancelToken); err != nil {
		t.Fatalf("verify after resubscribe: %v", err)
	}

	got, err := svc.Mine("u1")
	if err != nil || got == nil {
		t.Fatalf("resubscribed user has no visible subscription: (%v, %v)", got, err)
	}
	if !got.Verified {
		t.Error("verification after resubscribe did not stick")
	}

	// The unique mailbox must stay a single row, soft-deleted remnants included.
	var n int64
	if err := db.Unscoped().Model(&models.DigestSubscriptionModel{}).Count(&n).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 subscription row, got %d", n)
	}
}

func TestResubscribeResetsVerification(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db)

	first, err := svc.Subscribe("u1", "mika@example.com")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := svc.Verify(first.CancelToken); err != nil {
		t.Fatalf("verify: %v", err)
	}

	second, err := svc.Subscribe("u2", "mika@example.com")
	if err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if second.CancelToken == first.CancelToken {
		t.Error("resubscribe reused the old cancel token")
	}

	got, err := svc.Mine("u2")
	if err != nil || got == nil {
		t.Fatalf("Mine: (%v, %v)", got, err)
	}
	if got.Verified {
		t.Error("address handover kept the old verification")
	}
}
