package community

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

func seedResponse(t *testing.T, db *gorm.DB, userID, languageID, source string) models.ResponseModel {
	t.Helper()
	r := models.ResponseModel{
		UserID:     userID,
		LanguageID: languageID,
		Content:    "content " + uuid.New().String()[:8],
		Breakdown:  "breakdown",
		Rank:       models.RankMin,
		Source:     source,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create response: %v", err)
	}
	return r
}

func TestShareRejectsImportedResponses(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	r := seedResponse(t, db, "u1", "l1", models.ResponseSourceImported)

	if _, err := svc.Share(ctx, "u1", r.ID); !errors.Is(err, ErrNotShareable) {
		t.Errorf("expected ErrNotShareable, got %v", err)
	}
}

func TestShareUnshareReshareKeepsOneRow(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	r := seedResponse(t, db, "u1", "l1", models.ResponseSourceLocal)

	first, err := svc.Share(ctx, "u1", r.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	ok, err := svc.Unshare(ctx, "u1", r.ID)
	if err != nil || !ok {
		t.Fatalf("unshare: (%v, %v)", ok, err)
	}

	// Content edits between unshare and reshare must be picked up.
	if err := db.Model(&r).Update("content", "edited").Error; err != nil {
		t.Fatalf("edit response: %v", err)
	}

	second, err := svc.Share(ctx, "u1", r.ID)
	if err != nil {
		t.Fatalf("reshare: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("reshare created a new community row: %s != %s", second.ID, first.ID)
	}
	if !second.IsActive || second.Content != "edited" {
		t.Errorf("reshare did not reactivate and refresh: active=%v content=%q", second.IsActive, second.Content)
	}

	var n int64
	if err := db.Model(&models.CommunityResponseModel{}).Where("original_response_id = ?", r.ID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 community row, got %d", n)
	}
}

func TestFeedExcludesInactiveShares(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	active := seedResponse(t, db, "u1", "l1", models.ResponseSourceLocal)
	retired := seedResponse(t, db, "u1", "l1", models.ResponseSourceLocal)
	if _, err := svc.Share(ctx, "u1", active.ID); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := svc.Share(ctx, "u1", retired.ID); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := svc.Unshare(ctx, "u1", retired.ID); err != nil {
		t.Fatalf("unshare: %v", err)
	}

	items, _, err := svc.Feed(ctx, pagination.Query{Page: 1, Size: 20}, "")
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 feed item, got %d", len(items))
	}
	if items[0].OriginalResponseID != active.ID {
		t.Errorf("wrong feed item: %s", items[0].OriginalResponseID)
	}
}

func TestImportRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	r := seedResponse(t, db, "owner", "l1", models.ResponseSourceLocal)
	cr, err := svc.Share(ctx, "owner", r.ID)
	if err != nil {
		t.Fatalf("share: %v", err)
	}

	if _, err := svc.Import(ctx, "owner", cr.ID); !errors.Is(err, ErrOwnShare) {
		t.Errorf("own import: expected ErrOwnShare, got %v", err)
	}

	imported, err := svc.Import(ctx, "learner", cr.ID)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if imported.Source != models.ResponseSourceImported {
		t.Errorf("imported copy has source %q", imported.Source)
	}
	if imported.Rank != models.RankMin {
		t.Errorf("imported copy has rank %d, want %d", imported.Rank, models.RankMin)
	}
	if imported.CommunityResponseID == nil || *imported.CommunityResponseID != cr.ID {
		t.Error("imported copy missing back-reference to the community row")
	}

	// Importing again returns the existing copy.
	again, err := svc.Import(ctx, "learner", cr.ID)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if again.ID != imported.ID {
		t.Errorf("duplicate import created a new response: %s != %s", again.ID, imported.ID)
	}

	// Retired shares cannot be imported.
	if _, err := svc.Unshare(ctx, "owner", r.ID); err != nil {
		t.Fatalf("unshare: %v", err)
	}
	if _, err := svc.Import(ctx, "someone-else", cr.ID); !errors.Is(err, ErrShareInactive) {
		t.Errorf("inactive import: expected ErrShareInactive, got %v", err)
	}
}

func TestDeactivateOrphans(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	kept := seedResponse(t, db, "u1", "l1", models.ResponseSourceLocal)
	doomed := seedResponse(t, db, "u1", "l1", models.ResponseSourceLocal)
	if _, err := svc.Share(ctx, "u1", kept.ID); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := svc.Share(ctx, "u1", doomed.ID); err != nil {
		t.Fatalf("share: %v", err)
	}

	// Hard-delete the origin behind the service's back.
	if err := db.Unscoped().Delete(&doomed).Error; err != nil {
		t.Fatalf("delete response: %v", err)
	}

	n, err := svc.DeactivateOrphans(ctx)
	if err != nil {
		t.Fatalf("DeactivateOrphans: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 orphan, got %d", n)
	}

	var rows []models.CommunityResponseModel
	if err := db.Order("created_at ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load shares: %v", err)
	}
	for _, row := range rows {
		wantActive := row.OriginalResponseID == kept.ID
		if row.IsActive != wantActive {
			t.Errorf("share %s active=%v, want %v", row.OriginalResponseID, row.IsActive, wantActive)
		}
	}
}
