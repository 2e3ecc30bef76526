package responses

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/phrasebox/core/internal/database"
	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/pkg/pagination"
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

func seedLanguage(t *testing.T, db *gorm.DB, code string, active bool) models.LanguageModel {
	t.Helper()
	lang := models.LanguageModel{Code: code, Name: code, Active: active}
	if err := db.Create(&lang).Error; err != nil {
		t.Fatalf("create language: %v", err)
	}
	return lang
}

func intPtr(v int) *int { return &v }

func TestCreateDefaultsAndRankBounds(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja", true)
	svc := NewService(db)
	ctx := context.Background()

	r, code, err := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "こんにちは", Language: "ja"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if code != "ja" {
		t.Errorf("language code %q, want ja", code)
	}
	if r.Rank != models.RankMin {
		t.Errorf("default rank %d, want %d", r.Rank, models.RankMin)
	}
	if r.Source != models.ResponseSourceLocal {
		t.Errorf("source %q, want local", r.Source)
	}

	for _, rank := range []int{0, 4, -1} {
		_, _, err := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "x", Language: "ja", Rank: intPtr(rank)})
		if !errors.Is(err, ErrInvalidRank) {
			t.Errorf("rank %d: expected ErrInvalidRank, got %v", rank, err)
		}
	}

	if _, _, err := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "x", Language: "zz"}); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("unknown language: expected ErrUnknownLanguage, got %v", err)
	}
}

func TestGetByIDScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja", true)
	svc := NewService(db)
	ctx := context.Background()

	r, _, err := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "mine", Language: "ja"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := svc.GetByID(ctx, "u2", r.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got != nil {
		t.Error("another user's read returned the response")
	}

	got, err = svc.GetByID(ctx, "u1", r.ID)
	if err != nil || got == nil {
		t.Errorf("owner read failed: (%v, %v)", got, err)
	}
}

func TestSetRankBounds(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja", true)
	svc := NewService(db)
	ctx := context.Background()

	r, _, err := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "x", Language: "ja"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.SetRank(ctx, "u1", r.ID, 4); !errors.Is(err, ErrInvalidRank) {
		t.Errorf("expected ErrInvalidRank, got %v", err)
	}
	updated, err := svc.SetRank(ctx, "u1", r.ID, 3)
	if err != nil {
		t.Fatalf("SetRank: %v", err)
	}
	if updated.Rank != 3 {
		t.Errorf("rank %d, want 3", updated.Rank)
	}
}

func TestListFilters(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja", true)
	svc := NewService(db)
	ctx := context.Background()

	r1, _, _ := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "a", Language: "ja", Rank: intPtr(1)})
	r2, _, _ := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "b", Language: "ja", Rank: intPtr(2)})
	if _, err := svc.SetPaused(ctx, "u1", r2.ID, true); err != nil {
		t.Fatalf("pause: %v", err)
	}
	svc.Create(ctx, "u2", &CreateResponseDTO{Content: "c", Language: "ja"})

	q := pagination.Query{Page: 1, Size: 20}

	items, _, err := svc.List(ctx, "u1", q, ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("unfiltered list: %d items, want 2", len(items))
	}

	items, _, err = svc.List(ctx, "u1", q, ListFilter{Rank: intPtr(1)})
	if err != nil {
		t.Fatalf("list by rank: %v", err)
	}
	if len(items) != 1 || items[0].ID != r1.ID {
		t.Errorf("rank filter returned wrong items: %d", len(items))
	}

	paused := true
	items, _, err = svc.List(ctx, "u1", q, ListFilter{Paused: &paused})
	if err != nil {
		t.Fatalf("list paused: %v", err)
	}
	if len(items) != 1 || items[0].ID != r2.ID {
		t.Errorf("paused filter returned wrong items: %d", len(items))
	}
}

func TestDeleteClearsDecksAndRetiresShare(t *testing.T) {
	db := newTestDB(t)
	lang := seedLanguage(t, db, "ja", true)
	svc := NewService(db)
	ctx := context.Background()

	r, _, err := svc.Create(ctx, "u1", &CreateResponseDTO{Content: "x", Language: "ja"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deck := models.BookmarkModel{UserID: "u1", LanguageID: lang.ID, Title: "verbs"}
	if err := db.Create(&deck).Error; err != nil {
		t.Fatalf("create deck: %v", err)
	}
	err = db.Model(&deck).Association("Responses").
		Append(&models.ResponseModel{Base: models.Base{ID: r.ID}})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}

	share := models.CommunityResponseModel{
		OriginalResponseID: r.ID,
		UserID:             "u1",
		LanguageID:         lang.ID,
		Content:            r.Content,
		IsActive:           true,
	}
	if err := db.Create(&share).Error; err != nil {
		t.Fatalf("create share: %v", err)
	}

	deleted, err := svc.Delete(ctx, "u1", r.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: (%v, %v)", deleted, err)
	}

	var n int64
	if err := db.Table("response_bookmarks").Where("response_id = ?", r.ID).Count(&n).Error; err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 deck memberships, got %d", n)
	}

	var cr models.CommunityResponseModel
	if err := db.First(&cr, "original_response_id = ?", r.ID).Error; err != nil {
		t.Fatalf("load share: %v", err)
	}
	if cr.IsActive {
		t.Error("community share still active after response delete")
	}

	if got, _ := svc.GetByID(ctx, "u1", r.ID); got != nil {
		t.Error("deleted response still readable")
	}

	// Deleting an absent response reports false without error.
	deleted, err = svc.Delete(ctx, "u1", r.ID)
	if err != nil || deleted {
		t.Errorf("double delete: (%v, %v), want (false, nil)", deleted, err)
	}
}
