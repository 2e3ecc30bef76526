package summary

import (
	"context"
	"testing"

	"github.com/phrasebox/core/internal/models"
)

func TestActiveSharesEmptyInput(t *testing.T) {
	r := NewSharingResolver(nil)

	set, err := r.ActiveShares(context.Background(), nil)
	if err != nil {
		t.Fatalf("ActiveShares: %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected empty set, got %d entries", len(set))
	}
}

func TestActiveSharesFiltersInactive(t *testing.T) {
	db := newTestDB(t)
	r := NewSharingResolver(db)

	rows := []models.CommunityResponseModel{
		{OriginalResponseID: "r-active", UserID: "u1", LanguageID: "l1", IsActive: true},
		{OriginalResponseID: "r-inactive", UserID: "u1", LanguageID: "l1", IsActive: false},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("create share: %v", err)
		}
	}

	set, err := r.ActiveShares(context.Background(), []string{"r-active", "r-inactive", "r-missing"})
	if err != nil {
		t.Fatalf("ActiveShares: %v", err)
	}
	if _, ok := set["r-active"]; !ok {
		t.Error("active share missing from set")
	}
	if _, ok := set["r-inactive"]; ok {
		t.Error("inactive share present in set")
	}
	if _, ok := set["r-missing"]; ok {
		t.Error("unknown id present in set")
	}
}

func TestIsSharedImportedNeverCounts(t *testing.T) {
	r := NewSharingResolver(nil)
	active := map[string]struct{}{"r1": {}}

	local := &models.ResponseModel{Base: models.Base{ID: "r1"}, Source: models.ResponseSourceLocal}
	imported := &models.ResponseModel{Base: models.Base{ID: "r1"}, Source: models.ResponseSourceImported}

	if !r.IsShared(local, active) {
		t.Error("local response with active share should count as shared")
	}
	if r.IsShared(imported, active) {
		t.Error("imported response must never count as shared")
	}
	if r.IsShared(&models.ResponseModel{Base: models.Base{ID: "r2"}, Source: models.ResponseSourceLocal}, active) {
		t.Error("response without a share counted as shared")
	}
}
