package summary

import (
	"context"
	"fmt"
	"testing"
	"time"

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

type fixture struct {
	db   *gorm.DB
	svc  *Service
	user models.UserModel
	lang models.LanguageModel
	deck models.BookmarkModel
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	user := models.UserModel{
		Username:          "mika",
		Password:          "hashed",
		PreferredLanguage: "ja",
	}
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

	svc := NewService(db,
		WithSleep(func(ctx context.Context, d time.Duration) {}),
	)
	return &fixture{db: db, svc: svc, user: user, lang: lang, deck: deck}
}

func (f *fixture) addResponse(t *testing.T, rank int, paused, decked bool) models.ResponseModel {
	t.Helper()
	r := models.ResponseModel{
		UserID:     f.user.ID,
		LanguageID: f.lang.ID,
		Content:    fmt.Sprintf("phrase rank%d %s", rank, uuid.New().String()[:8]),
		Rank:       rank,
		IsPaused:   paused,
		Source:     models.ResponseSourceLocal,
	}
	if err := f.db.Create(&r).Error; err != nil {
		t.Fatalf("create response: %v", err)
	}
	if decked {
		err := f.db.Model(&f.deck).Association("Responses").
			Append(&models.ResponseModel{Base: models.Base{ID: r.ID}})
		if err != nil {
			t.Fatalf("attach to deck: %v", err)
		}
	}
	return r
}

func (f *fixture) snapshotCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	err := f.db.Model(&models.DailySummaryModel{}).
		Where("user_id = ? AND language_id = ?", f.user.ID, f.lang.ID).
		Count(&n).Error
	if err != nil {
		t.Fatalf("count snapshots: %v", err)
	}
	return n
}

func rankCounts(views []ResponseView) map[int]int {
	counts := map[int]int{}
	for _, v := range views {
		counts[v.Rank]++
	}
	return counts
}

func TestGetSummaryIsReadOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.addResponse(t, 1, false, true)
	}

	result, err := f.svc.GetSummary(ctx, f.user.ID, "")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if len(result.Responses) != 0 {
		t.Errorf("expected empty summary before generation, got %d responses", len(result.Responses))
	}
	if result.CreatedAt != nil {
		t.Errorf("expected nil CreatedAt, got %v", result.CreatedAt)
	}
	if n := f.snapshotCount(t); n != 0 {
		t.Errorf("read created %d snapshot rows, want 0", n)
	}
}

func TestGenerateSamplesPerRankQuotas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		f.addResponse(t, 1, false, true)
	}
	for i := 0; i < 5; i++ {
		f.addResponse(t, 2, false, true)
	}
	for i := 0; i < 4; i++ {
		f.addResponse(t, 3, false, true)
	}

	result, err := f.svc.Generate(ctx, f.user.ID, false, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Responses) != 9 {
		t.Fatalf("expected 9 sampled responses, got %d", len(result.Responses))
	}
	counts := rankCounts(result.Responses)
	if counts[1] != 4 || counts[2] != 3 || counts[3] != 2 {
		t.Errorf("expected rank counts 4/3/2, got %d/%d/%d", counts[1], counts[2], counts[3])
	}
	if result.CreatedAt == nil {
		t.Error("expected a snapshot timestamp")
	}
}

func TestGenerateShortPoolsHaveNoCrossRankBackfill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pausedIDs := map[string]bool{}
	for i := 0; i < 5; i++ {
		f.addResponse(t, 1, false, true)
	}
	for i := 0; i < 2; i++ {
		r := f.addResponse(t, 1, true, true)
		pausedIDs[r.ID] = true
	}
	f.addResponse(t, 2, false, true)

	result, err := f.svc.Generate(ctx, f.user.ID, false, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Responses) != 5 {
		t.Fatalf("expected exactly 5 sampled (4 rank1 + 1 rank2), got %d", len(result.Responses))
	}
	counts := rankCounts(result.Responses)
	if counts[1] != 4 || counts[2] != 1 {
		t.Errorf("expected 4 rank1 and 1 rank2, got %d/%d", counts[1], counts[2])
	}
	for _, v := range result.Responses {
		if pausedIDs[v.ID] {
			t.Errorf("paused response %s was sampled", v.ID)
		}
	}
}

func TestGenerateExcludesUndeckedResponses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addResponse(t, 1, false, false)

	archive := models.BookmarkModel{
		UserID:     f.user.ID,
		LanguageID: f.lang.ID,
		Title:      models.ArchiveBookmarkTitle,
	}
	if err := f.db.Create(&archive).Error; err != nil {
		t.Fatalf("create archive: %v", err)
	}
	archived := f.addResponse(t, 1, false, false)
	err := f.db.Model(&archive).Association("Responses").
		Append(&models.ResponseModel{Base: models.Base{ID: archived.ID}})
	if err != nil {
		t.Fatalf("attach to archive: %v", err)
	}

	result, err := f.svc.Generate(ctx, f.user.ID, false, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.Responses) != 0 {
		t.Errorf("expected no sampled responses, got %d", len(result.Responses))
	}
	if n := f.snapshotCount(t); n != 0 {
		t.Errorf("empty sample persisted %d snapshot rows, want 0", n)
	}
}

func TestGenerateAnchorsOnArchiveDeckBeforeReuse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.addResponse(t, 1, false, true)
	}
	if _, err := f.svc.Generate(ctx, f.user.ID, false, false); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got := f.snapshotCount(t); got != 1 {
		t.Fatalf("expected 1 snapshot, got %d", got)
	}

	// Drop the archive deck; the reuse path must recreate the anchor row
	// before checking for an existing snapshot.
	err := f.db.Unscoped().
		Where("user_id = ? AND language_id = ? AND title = ?", f.user.ID, f.lang.ID, models.ArchiveBookmarkTitle).
		Delete(&models.BookmarkModel{}).Error
	if err != nil {
		t.Fatalf("drop archive deck: %v", err)
	}

	result, err := f.svc.Generate(ctx, f.user.ID, false, false)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if len(result.Responses) != 3 {
		t.Errorf("reuse returned %d responses, want 3", len(result.Responses))
	}
	if got := f.snapshotCount(t); got != 1 {
		t.Errorf("unforced regenerate created a new snapshot: %d rows", got)
	}

	var archives int64
	err = f.db.Model(&models.BookmarkModel{}).
		Where("user_id = ? AND language_id = ? AND title = ?", f.user.ID, f.lang.ID, models.ArchiveBookmarkTitle).
		Count(&archives).Error
	if err != nil {
		t.Fatalf("count archive decks: %v", err)
	}
	if archives != 1 {
		t.Errorf("archive deck not recreated on the reuse path: %d rows", archives)
	}
}

func TestGenerateReusesExistingSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.addResponse(t, 1, false, true)
	}

	first, err := f.svc.Generate(ctx, f.user.ID, false, true)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	if len(first.Responses) != 3 {
		t.Fatalf("expected 3 sampled, got %d", len(first.Responses))
	}

	// New material must not change an unforced re-read.
	f.addResponse(t, 1, false, true)
	f.addResponse(t, 2, false, true)

	second, err := f.svc.Generate(ctx, f.user.ID, false, true)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if len(second.Responses) != 3 {
		t.Errorf("unforced regenerate resampled: got %d responses, want 3", len(second.Responses))
	}
	if n := f.snapshotCount(t); n != 1 {
		t.Errorf("expected a single snapshot row, got %d", n)
	}
}

func TestGenerateForceCreatesNewSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		f.addResponse(t, 1, false, true)
	}

	if _, err := f.svc.Generate(ctx, f.user.ID, false, true); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	forced, err := f.svc.Generate(ctx, f.user.ID, true, true)
	if err != nil {
		t.Fatalf("forced Generate: %v", err)
	}
	if len(forced.Responses) != 4 {
		t.Errorf("forced sample returned %d responses, want 4", len(forced.Responses))
	}
	if n := f.snapshotCount(t); n != 2 {
		t.Errorf("expected 2 snapshot rows after force, got %d", n)
	}

	read, err := f.svc.GetSummary(ctx, f.user.ID, "ja")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if read.CreatedAt == nil || forced.CreatedAt == nil {
		t.Fatal("expected snapshot timestamps")
	}
	if read.CreatedAt.Before(*forced.CreatedAt) {
		t.Errorf("read returned an older snapshot: %v < %v", read.CreatedAt, forced.CreatedAt)
	}
}

func TestGenerateNoLanguages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	stray := models.UserModel{Username: "nolang", Password: "hashed", PreferredLanguage: "xx"}
	if err := f.db.Create(&stray).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}

	if _, err := f.svc.Generate(ctx, stray.ID, false, false); err != ErrNoLanguages {
		t.Errorf("expected ErrNoLanguages, got %v", err)
	}
}

func TestGenerateArchivesSampledIdempotently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		f.addResponse(t, 1, false, true)
	}

	if _, err := f.svc.Generate(ctx, f.user.ID, false, true); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var archive models.BookmarkModel
	err := f.db.
		Where("user_id = ? AND language_id = ? AND title = ?", f.user.ID, f.lang.ID, models.ArchiveBookmarkTitle).
		First(&archive).Error
	if err != nil {
		t.Fatalf("archive bookmark missing: %v", err)
	}
	count := f.db.Model(&archive).Association("Responses").Count()
	if count != 3 {
		t.Errorf("archive holds %d responses, want 3", count)
	}

	// A forced resample of the same material must not duplicate memberships.
	if _, err := f.svc.Generate(ctx, f.user.ID, true, true); err != nil {
		t.Fatalf("forced Generate: %v", err)
	}
	count = f.db.Model(&archive).Association("Responses").Count()
	if count != 3 {
		t.Errorf("archive holds %d responses after force, want 3", count)
	}
}

func TestGenerateAnnotatesDecksAndSharing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	shared := f.addResponse(t, 1, false, true)
	plain := f.addResponse(t, 1, false, true)

	cr := models.CommunityResponseModel{
		OriginalResponseID: shared.ID,
		UserID:             f.user.ID,
		LanguageID:         f.lang.ID,
		Content:            shared.Content,
		IsActive:           true,
	}
	if err := f.db.Create(&cr).Error; err != nil {
		t.Fatalf("create share: %v", err)
	}

	result, err := f.svc.Generate(ctx, f.user.ID, false, true)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	byID := map[string]ResponseView{}
	for _, v := range result.Responses {
		byID[v.ID] = v
	}

	sv, ok := byID[shared.ID]
	if !ok {
		t.Fatal("shared response was not sampled")
	}
	if !sv.IsSharedToCommunity {
		t.Error("shared response not annotated as shared")
	}
	if pv := byID[plain.ID]; pv.IsSharedToCommunity {
		t.Error("unshared response annotated as shared")
	}
	if title, ok := sv.Decks[f.deck.ID]; !ok || title != "core phrases" {
		t.Errorf("deck annotation missing or wrong: %v", sv.Decks)
	}
}
