package community

import (
	"context"
	"errors"

	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/pkg/pagination"
	"github.com/phrasebox/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// Share publishes a locally created response. Sharing again after an
// unshare reactivates the existing community row and refreshes its content,
// so earlier imports keep pointing at the same id.
func (s *Service) Share(ctx context.Context, userID, responseID string) (*models.CommunityResponseModel, error) {
	var r models.ResponseModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", responseID, userID).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	if r.Source != models.ResponseSourceLocal {
		return nil, ErrNotShareable
	}

	var cr models.CommunityResponseModel
	err = s.db.WithContext(ctx).
		Where("original_response_id = ?", r.ID).
		First(&cr).Error
	if err == nil {
		updates := map[string]interface{}{
			"is_active": true,
			"content":   r.Content,
			"breakdown": r.Breakdown,
			"furigana":  r.Furigana,
		}
		if err := s.db.WithContext(ctx).Model(&cr).Updates(updates).Error; err != nil {
			return nil, err
		}
		cr.IsActive = true
		cr.Content = r.Content
		cr.Breakdown = r.Breakdown
		cr.Furigana = r.Furigana
		return &cr, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cr = models.CommunityResponseModel{
		OriginalResponseID: r.ID,
		UserID:             userID,
		LanguageID:         r.LanguageID,
		Content:            r.Content,
		Breakdown:          r.Breakdown,
		Furigana:           r.Furigana,
		IsActive:           true,
	}
	return &cr, s.db.WithContext(ctx).Create(&cr).Error
}

// Unshare retires the community copy without deleting it.
func (s *Service) Unshare(ctx context.Context, userID, responseID string) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.CommunityResponseModel{}).
		Where("original_response_id = ? AND user_id = ?", responseID, userID).
		Update("is_active", false)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Feed lists active shares, newest first, optionally scoped to a language.
func (s *Service) Feed(ctx context.Context, q pagination.Query, languageCode string) ([]models.CommunityResponseModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.CommunityResponseModel{}).
		Where("is_active = ?", true).
		Order("created_at DESC")

	if languageCode != "" {
		tx = tx.Where("language_id IN (?)", s.db.Model(&models.LanguageModel{}).
			Select("id").Where("code = ?", languageCode))
	}

	var items []models.CommunityResponseModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

// Import copies an active share into the caller's own material. The copy is
// marked imported and back-references the community row. Importing the same
// share twice returns the existing copy.
func (s *Service) Import(ctx context.Context, userID, communityResponseID string) (*models.ResponseModel, error) {
	var cr models.CommunityResponseModel
	err := s.db.WithContext(ctx).
		Where("id = ?", communityResponseID).
		First(&cr).Error
	if err != nil {
		return nil, err
	}
	if !cr.IsActive {
		return nil, ErrShareInactive
	}
	if cr.UserID == userID {
		return nil, ErrOwnShare
	}

	var existing models.ResponseModel
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND community_response_id = ?", userID, cr.ID).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	r := models.ResponseModel{
		UserID:              userID,
		LanguageID:          cr.LanguageID,
		Content:             cr.Content,
		Breakdown:           cr.Breakdown,
		Furigana:            cr.Furigana,
		Rank:                models.RankMin,
		Source:              models.ResponseSourceImported,
		CommunityResponseID: &cr.ID,
	}
	return &r, s.db.WithContext(ctx).Create(&r).Error
}

// DeactivateOrphans retires shares whose original response was deleted.
// Returns the number of shares flipped off.
func (s *Service) DeactivateOrphans(ctx context.Context) (int64, error) {
	liveResponses := s.db.Model(&models.ResponseModel{}).Select("id")

	res := s.db.WithContext(ctx).
		Model(&models.CommunityResponseModel{}).
		Where("is_active = ?", true).
		Where("original_response_id NOT IN (?)", liveResponses).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

func (s *Service) languageCodes(ctx context.Context, ids []string) (map[string]string, error) {
	codes := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return codes, nil
	}
	var langs []models.LanguageModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&langs).Error; err != nil {
		return nil, err
	}
	for _, l := range langs {
		codes[l.ID] = l.Code
	}
	return codes, nil
}

func (s *Service) userNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.UserModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		name := u.Name
		if name == "" {
			name = u.Username
		}
		names[u.ID] = name
	}
	return names, nil
}
