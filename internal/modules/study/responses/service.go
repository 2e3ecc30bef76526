package responses

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

// languageByCode resolves an active language. Unknown or inactive codes map
// to ErrUnknownLanguage.
func (s *Service) languageByCode(ctx context.Context, code string) (*models.LanguageModel, error) {
	var lang models.LanguageModel
	err := s.db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&lang).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownLanguage
		}
		return nil, err
	}
	return &lang, nil
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

func (s *Service) Create(ctx context.Context, userID string, dto *CreateResponseDTO) (*models.ResponseModel, string, error) {
	lang, err := s.languageByCode(ctx, dto.Language)
	if err != nil {
		return nil, "", err
	}

	rank := models.RankMin
	if dto.Rank != nil {
		rank = *dto.Rank
		if rank < models.RankMin || rank > models.RankMax {
			return nil, "", ErrInvalidRank
		}
	}

	r := models.ResponseModel{
		UserID:       userID,
		LanguageID:   lang.ID,
		Content:      dto.Content,
		Breakdown:    dto.Breakdown,
		Furigana:     dto.Furigana,
		ShowPhonetic: dto.ShowPhonetic,
		ShowKana:     dto.ShowKana,
		AudioURL:     dto.AudioURL,
		Rank:         rank,
		Source:       models.ResponseSourceLocal,
		Tags:         models.StringArray(dto.Tags),
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		return nil, "", err
	}
	return &r, lang.Code, nil
}

// GetByID returns the response only when owned by userID, nil when absent.
func (s *Service) GetByID(ctx context.Context, userID, id string) (*models.ResponseModel, error) {
	var r models.ResponseModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (s *Service) List(ctx context.Context, userID string, q pagination.Query, filter ListFilter) ([]models.ResponseModel, response.Pagination, error) {
	tx := s.db.WithContext(ctx).
		Model(&models.ResponseModel{}).
		Where("user_id = ?", userID).
		Order("created_at DESC")

	if filter.LanguageCode != "" {
		lang, err := s.languageByCode(ctx, filter.LanguageCode)
		if err != nil {
			return nil, response.Pagination{}, err
		}
		tx = tx.Where("language_id = ?", lang.ID)
	}
	if filter.Rank != nil {
		tx = tx.Where("`rank` = ?", *filter.Rank)
	}
	if filter.Paused != nil {
		tx = tx.Where("is_paused = ?", *filter.Paused)
	}
	if filter.Source != "" {
		tx = tx.Where("source = ?", filter.Source)
	}

	var items []models.ResponseModel
	pag, err := pagination.Paginate(tx, q, &items)
	return items, pag, err
}

func (s *Service) Update(ctx context.Context, userID, id string, dto *UpdateResponseDTO) (*models.ResponseModel, error) {
	r, err := s.GetByID(ctx, userID, id)
	if err != nil || r == nil {
		return r, err
	}

	updates := map[string]interface{}{}
	if dto.Content != nil {
		updates["content"] = *dto.Content
	}
	if dto.Breakdown != nil {
		updates["breakdown"] = *dto.Breakdown
	}
	if dto.Furigana != nil {
		updates["furigana"] = *dto.Furigana
	}
	if dto.ShowPhonetic != nil {
		updates["show_phonetic"] = *dto.ShowPhonetic
	}
	if dto.ShowKana != nil {
		updates["show_kana"] = *dto.ShowKana
	}
	if dto.AudioURL != nil {
		updates["audio_url"] = *dto.AudioURL
	}
	if dto.Tags != nil {
		updates["tags"] = models.StringArray(*dto.Tags)
	}
	if len(updates) == 0 {
		return r, nil
	}

	if err := s.db.WithContext(ctx).Model(r).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, userID, id)
}

// SetRank moves a response between difficulty ranks.
func (s *Service) SetRank(ctx context.Context, userID, id string, rank int) (*models.ResponseModel, error) {
	if rank < models.RankMin || rank > models.RankMax {
		return nil, ErrInvalidRank
	}
	r, err := s.GetByID(ctx, userID, id)
	if err != nil || r == nil {
		return r, err
	}
	if err := s.db.WithContext(ctx).Model(r).Update("rank", rank).Error; err != nil {
		return nil, err
	}
	r.Rank = rank
	return r, nil
}

// SetPaused toggles the summary-sampling pause flag.
func (s *Service) SetPaused(ctx context.Context, userID, id string, paused bool) (*models.ResponseModel, error) {
	r, err := s.GetByID(ctx, userID, id)
	if err != nil || r == nil {
		return r, err
	}
	if err := s.db.WithContext(ctx).Model(r).Update("is_paused", paused).Error; err != nil {
		return nil, err
	}
	r.IsPaused = paused
	return r, nil
}

// Delete removes the response, its deck memberships, and deactivates any
// community copy so imported duplicates keep a resolvable origin.
func (s *Service) Delete(ctx context.Context, userID, id string) (bool, error) {
	r, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if r == nil {
		return false, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(r).Association("Bookmarks").Clear(); err != nil {
			return err
		}
		if err := tx.Model(&models.CommunityResponseModel{}).
			Where("original_response_id = ?", r.ID).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Delete(r).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
