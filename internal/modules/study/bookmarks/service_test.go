package bookmarks

import (
	"context"
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

func seedLanguage(t *testing.T, db *gorm.DB, code string) models.LanguageModel {
	t.Helper()
	lang := models.LanguageModel{Code: code, Name: code, Active: true}
	if err := db.Create(&lang).Error; err != nil {
		t.Fatalf("create language: %v", err)
	}
	return lang
}

func seedResponse(t *testing.T, db *gorm.DB, userID, languageID string) models.ResponseModel {
	t.Helper()
	r := models.ResponseModel{
		UserID:     userID,
		LanguageID: languageID,
		Content:    "content " + uuid.New().String()[:8],
		Rank:       models.RankMin,
		Source:     models.ResponseSourceLocal,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create response: %v", err)
	}
	return r
}

func TestCreateRejectsReservedTitle(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja")
	svc := NewService(db)
	ctx := context.Background()

	for _, title := range []string{"daily summary", "Daily Summary", "  DAILY SUMMARY  ", ""} {
		_, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: title, Language: "ja"})
		if !errors.Is(err, ErrReservedTitle) {
			t.Errorf("title %q: expected ErrReservedTitle, got %v", title, err)
		}
	}
}

func TestCreateRejectsDuplicateTitlePerLanguage(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja")
	seedLanguage(t, db, "ko")
	svc := NewService(db)
	ctx := context.Background()

	if _, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"}); !errors.Is(err, ErrDuplicateTitle) {
		t.Errorf("expected ErrDuplicateTitle, got %v", err)
	}

	// Same title in another language and for another user is fine.
	if _, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ko"}); err != nil {
		t.Errorf("cross-language duplicate rejected: %v", err)
	}
	if _, _, err := svc.Create(ctx, "u2", &CreateBookmarkDTO{Title: "verbs", Language: "ja"}); err != nil {
		t.Errorf("cross-user duplicate rejected: %v", err)
	}
}

func TestCreateUnknownLanguage(t *testing.T) {
	db := newTestDB(t)
	inactive := models.LanguageModel{Code: "la", Name: "Latin", Active: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("create language: %v", err)
	}
	svc := NewService(db)
	ctx := context.Background()

	if _, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "x", Language: "zz"}); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("unknown code: expected ErrUnknownLanguage, got %v", err)
	}
	if _, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "x", Language: "la"}); !errors.Is(err, ErrUnknownLanguage) {
		t.Errorf("inactive code: expected ErrUnknownLanguage, got %v", err)
	}
}

func TestAttachIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	lang := seedLanguage(t, db, "ja")
	svc := NewService(db)
	ctx := context.Background()

	b, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"})
	if err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	r := seedResponse(t, db, "u1", lang.ID)

	for i := 0; i < 3; i++ {
		if err := svc.Attach(ctx, "u1", b.ID, r.ID); err != nil {
			t.Fatalf("attach #%d: %v", i+1, err)
		}
	}

	count := db.Model(b).Association("Responses").Count()
	if count != 1 {
		t.Errorf("expected 1 membership after repeated attach, got %d", count)
	}
}

func TestAttachRejectsLanguageMixup(t *testing.T) {
	db := newTestDB(t)
	seedLanguage(t, db, "ja")
	ko := seedLanguage(t, db, "ko")
	svc := NewService(db)
	ctx := context.Background()

	b, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"})
	if err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	r := seedResponse(t, db, "u1", ko.ID)

	if err := svc.Attach(ctx, "u1", b.ID, r.ID); !errors.Is(err, ErrLanguageMixup) {
		t.Errorf("expected ErrLanguageMixup, got %v", err)
	}
}

func TestAttachScopesToOwner(t *testing.T) {
	db := newTestDB(t)
	lang := seedLanguage(t, db, "ja")
	svc := NewService(db)
	ctx := context.Background()

	b, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"})
	if err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	other := seedResponse(t, db, "u2", lang.ID)

	if err := svc.Attach(ctx, "u1", b.ID, other.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("attaching someone else's response: expected ErrRecordNotFound, got %v", err)
	}
	if err := svc.Attach(ctx, "u2", b.ID, other.ID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("attaching to someone else's bookmark: expected ErrRecordNotFound, got %v", err)
	}
}

func TestArchiveBookmarkCannotBeRenamedOrDeleted(t *testing.T) {
	db := newTestDB(t)
	lang := seedLanguage(t, db, "ja")
	svc := NewService(db)
	ctx := context.Background()

	archive := models.BookmarkModel{
		UserID:     "u1",
		LanguageID: lang.ID,
		Title:      models.ArchiveBookmarkTitle,
	}
	if err := db.Create(&archive).Error; err != nil {
		t.Fatalf("create archive: %v", err)
	}

	if _, err := svc.Rename(ctx, "u1", archive.ID, "my deck"); !errors.Is(err, ErrReservedTitle) {
		t.Errorf("rename archive: expected ErrReservedTitle, got %v", err)
	}
	if _, err := svc.Delete(ctx, "u1", archive.ID); !errors.Is(err, ErrReservedTitle) {
		t.Errorf("delete archive: expected ErrReservedTitle, got %v", err)
	}

	// Still addressable for browsing.
	got, err := svc.GetByID(ctx, "u1", archive.ID)
	if err != nil || got == nil {
		t.Errorf("archive should be readable, got (%v, %v)", got, err)
	}
}

func TestDetachNonMemberIsNoop(t *testing.T) {
	db := newTestDB(t)
	lang := seedLanguage(t, db, "ja")
	svc := NewService(db)
	ctx := context.Background()

	b, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"})
	if err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	r := seedResponse(t, db, "u1", lang.ID)

	if err := svc.Detach(ctx, "u1", b.ID, r.ID); err != nil {
		t.Errorf("detach non-member: %v", err)
	}
}

func TestDeleteClearsMemberships(t *testing.T) {
	db := newTestDB(t)
	lang := seedLanguage(t, db, "ja")
	svc := NewService(db)
	ctx := context.Background()

	b, _, err := svc.Create(ctx, "u1", &CreateBookmarkDTO{Title: "verbs", Language: "ja"})
	if err != nil {
		t.Fatalf("create bookmark: %v", err)
	}
	r := seedResponse(t, db, "u1", lang.ID)
	if err := svc.Attach(ctx, "u1", b.ID, r.ID); err != nil {
		t.Fatalf("attach: %v", err)
	}

	deleted, err := svc.Delete(ctx, "u1", b.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: (%v, %v)", deleted, err)
	}

	var n int64
	if err := db.Table("response_bookmarks").Where("bookmark_id = ?", b.ID).Count(&n).Error; err != nil {
		t.Fatalf("count memberships: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 memberships after delete, got %d", n)
	}

	// The member response itself survives.
	var r2 models.ResponseModel
	if err := db.First(&r2, "id = ?", r.ID).Error; err != nil {
		t.Errorf("response was deleted with the bookmark: %v", err)
	}
}
