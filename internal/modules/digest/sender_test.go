package digest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/modules/study/summary"
	"github.com/phrasebox/core/internal/modules/system/configs"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedStudyMaterial(t *testing.T, db *gorm.DB) models.UserModel {
	t.Helper()
	user := models.UserModel{Username: "mika", Password: "hashed", PreferredLanguage: "ja"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	lang := models.LanguageModel{Code: "ja", Name: "Japanese", Active: true}
	if err := db.Create(&lang).Error; err != nil {
		t.Fatalf("create language: %v", err)
	}
	deck := models.BookmarkModel{UserID: user.ID, LanguageID: lang.ID, Title: "core phrases"}
	if err := db.Create(&deck).Error; err != nil {
		t.Fatalf("create deck: %v", err)
	}
	for i := 0; i < 3; i++ {
		r := models.ResponseModel{
			UserID:     user.ID,
			LanguageID: lang.ID,
			Content:    fmt.Sprintf("phrase %d", i),
			Rank:       1,
			Source:     models.ResponseSourceLocal,
		}
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("create response: %v", err)
		}
		err := db.Model(&deck).Association("Responses").
			Append(&models.ResponseModel{Base: models.Base{ID: r.ID}})
		if err != nil {
			t.Fatalf("attach to deck: %v", err)
		}
	}
	return user
}

func newSenderService(db *gorm.DB) *Service {
	noSleep := func(ctx context.Context, d time.Duration) {}
	return NewService(
		NewSubscriptionService(db),
		summary.NewService(db, summary.WithSleep(noSleep)),
		configs.NewService(db),
		zap.NewNop(),
	)
}

func snapshotTotal(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var n int64
	err := db.Model(&models.DailySummaryModel{}).Where("user_id = ?", userID).Count(&n).Error
	if err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	return n
}

func TestScheduledDeliveryGeneratesSnapshot(t *testing.T) {
	db := newTestDB(t)
	user := seedStudyMaterial(t, db)
	svc := newSenderService(db)
	ctx := context.Background()

	result, err := svc.deliverySummary(ctx, user.ID, false)
	if err != nil {
		t.Fatalf("deliverySummary: %v", err)
	}
	if len(result.Responses) == 0 {
		t.Fatal("scheduled delivery produced no content")
	}
	if got := snapshotTotal(t, db, user.ID); got != 1 {
		t.Fatalf("expected 1 snapshot after scheduled delivery, got %d", got)
	}

	// The self-test path reads the stored snapshot without sampling again.
	again, err := svc.deliverySummary(ctx, user.ID, true)
	if err != nil {
		t.Fatalf("read-only delivery: %v", err)
	}
	if len(again.Responses) != len(result.Responses) {
		t.Errorf("read-only delivery returned %d responses, want %d", len(again.Responses), len(result.Responses))
	}
	if got := snapshotTotal(t, db, user.ID); got != 1 {
		t.Errorf("read-only delivery created a snapshot: %d rows", got)
	}
}

func TestScheduledDeliveryWithoutLanguagesIsNotAFailure(t *testing.T) {
	db := newTestDB(t)
	svc := newSenderService(db)

	stray := models.UserModel{Username: "nolang", Password: "hashed"}
	if err := db.Create(&stray).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := svc.deliverySummary(context.Background(), stray.ID, false); !errors.Is(err, ErrNothingToSend) {
		t.Errorf("expected ErrNothingToSend for user without languages, got %v", err)
	}
}
