package summary

import (
	"context"

	"github.com/phrasebox/core/internal/models"
	"gorm.io/gorm"
)

// SharingResolver answers "which of these responses are currently shared to
// the community" in one batched query.
type SharingResolver struct {
	db *gorm.DB
}

func NewSharingResolver(db *gorm.DB) *SharingResolver {
	return &SharingResolver{db: db}
}

// ActiveShares returns the set of response ids that have an active community
// copy. Empty input returns an empty set without touching the database.
func (r *SharingResolver) ActiveShares(ctx context.Context, responseIDs []string) (map[string]struct{}, error) {
	set := make(map[string]struct{}, len(responseIDs))
	if len(responseIDs) == 0 {
		return set, nil
	}

	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.CommunityResponseModel{}).
		Where("original_response_id IN ? AND is_active = ?", responseIDs, true).
		Pluck("original_response_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// IsShared applies the annotation rule: imported responses never count as
// shared, even when their origin row is still active.
func (r *SharingResolver) IsShared(resp *models.ResponseModel, active map[string]struct{}) bool {
	if resp.Source != models.ResponseSourceLocal {
		return false
	}
	_, ok := active[resp.ID]
	return ok
}
