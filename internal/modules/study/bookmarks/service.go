package bookmarks

import (
	"context"
	"errors"
	"strings"

	"github.com/phrasebox/core/internal/models"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func isReservedTitle(title string) bool {
	return strings.EqualFold(strings.TrimSpace(title), models.ArchiveBookmarkTitle)
}

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

func (s *Service) Create(ctx context.Context, userID string, dto *CreateBookmarkDTO) (*models.BookmarkModel, string, error) {
	title := strings.TrimSpace(dto.Title)
	if title == "" {
		return nil, "", ErrReservedTitle
	}
	if isReservedTitle(title) {
		return nil, "", ErrReservedTitle
	}

	lang, err := s.languageByCode(ctx, dto.Language)
	if err != nil {
		return nil, "", err
	}

	var count int64
	err = s.db.WithContext(ctx).Model(&models.BookmarkModel{}).
		Where("user_id = ? AND language_id = ? AND title = ?", userID, lang.ID, title).
		Count(&count).Error
	if err != nil {
		return nil, "", err
	}
	if count > 0 {
		return nil, "", ErrDuplicateTitle
	}

	b := models.BookmarkModel{UserID: userID, LanguageID: lang.ID, Title: title}
	if err := s.db.WithContext(ctx).Create(&b).Error; err != nil {
		return nil, "", err
	}
	return &b, lang.Code, nil
}

// GetByID returns the bookmark only when owned by userID, nil when absent.
// The summary archive bookmark is addressable here so its contents can be
// browsed, but it cannot be renamed or deleted.
func (s *Service) GetByID(ctx context.Context, userID, id string) (*models.BookmarkModel, error) {
	var b models.BookmarkModel
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&b).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// List returns all of the user's bookmarks, optionally scoped to one
// language, with per-bookmark response counts.
func (s *Service) List(ctx context.Context, userID, languageCode string) ([]models.BookmarkModel, map[string]int64, map[string]string, error) {
	tx := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC")

	if languageCode != "" {
		lang, err := s.languageByCode(ctx, languageCode)
		if err != nil {
			return nil, nil, nil, err
		}
		tx = tx.Where("language_id = ?", lang.ID)
	}

	var items []models.BookmarkModel
	if err := tx.Find(&items).Error; err != nil {
		return nil, nil, nil, err
	}

	counts, err := s.responseCounts(ctx, items)
	if err != nil {
		return nil, nil, nil, err
	}

	langIDs := make([]string, 0, len(items))
	for _, b := range items {
		langIDs = append(langIDs, b.LanguageID)
	}
	codes, err := s.languageCodes(ctx, langIDs)
	if err != nil {
		return nil, nil, nil, err
	}
	return items, counts, codes, nil
}

func (s *Service) responseCounts(ctx context.Context, items []models.BookmarkModel) (map[string]int64, error) {
	counts := make(map[string]int64, len(items))
	if len(items) == 0 {
		return counts, nil
	}
	ids := make([]string, len(items))
	for i, b := range items {
		ids[i] = b.ID
	}

	type row struct {
		BookmarkID string
		N          int64
	}
	var rows []row
	err := s.db.WithContext(ctx).
		Table("response_bookmarks").
		Select("bookmark_id, COUNT(*) AS n").
		Where("bookmark_id IN ?", ids).
		Group("bookmark_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.BookmarkID] = r.N
	}
	return counts, nil
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

func (s *Service) Rename(ctx context.Context, userID, id, title string) (*models.BookmarkModel, error) {
	title = strings.TrimSpace(title)
	if title == "" || isReservedTitle(title) {
		return nil, ErrReservedTitle
	}

	b, err := s.GetByID(ctx, userID, id)
	if err != nil || b == nil {
		return b, err
	}
	if b.Title == models.ArchiveBookmarkTitle {
		return nil, ErrReservedTitle
	}

	if err := s.db.WithContext(ctx).Model(b).Update("title", title).Error; err != nil {
		return nil, err
	}
	b.Title = title
	return b, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) (bool, error) {
	b, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return false, err
	}
	if b == nil {
		return false, nil
	}
	if b.Title == models.ArchiveBookmarkTitle {
		return false, ErrReservedTitle
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(b).Association("Responses").Clear(); err != nil {
			return err
		}
		return tx.Delete(b).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Attach adds a response to a deck. Both sides must be owned by the caller
// and share a language. Re-attaching an existing member is a no-op.
func (s *Service) Attach(ctx context.Context, userID, bookmarkID, responseID string) error {
	b, err := s.GetByID(ctx, userID, bookmarkID)
	if err != nil {
		return err
	}
	if b == nil {
		return gorm.ErrRecordNotFound
	}

	var r models.ResponseModel
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", responseID, userID).
		First(&r).Error
	if err != nil {
		return err
	}
	if r.LanguageID != b.LanguageID {
		return ErrLanguageMixup
	}

	return s.db.WithContext(ctx).Model(b).
		Association("Responses").
		Append(&models.ResponseModel{Base: models.Base{ID: r.ID}})
}

// Detach removes a response from a deck. Detaching a non-member is a no-op.
func (s *Service) Detach(ctx context.Context, userID, bookmarkID, responseID string) error {
	b, err := s.GetByID(ctx, userID, bookmarkID)
	if err != nil {
		return err
	}
	if b == nil {
		return gorm.ErrRecordNotFound
	}
	return s.db.WithContext(ctx).Model(b).
		Association("Responses").
		Delete(&models.ResponseModel{Base: models.Base{ID: responseID}})
}

// ListResponses returns the deck's members, newest first.
func (s *Service) ListResponses(ctx context.Context, userID, bookmarkID string) (*models.BookmarkModel, []models.ResponseModel, error) {
	b, err := s.GetByID(ctx, userID, bookmarkID)
	if err != nil || b == nil {
		return b, nil, err
	}

	var items []models.ResponseModel
	err = s.db.WithContext(ctx).Model(b).
		Association("Responses").
		Find(&items)
	if err != nil {
		return nil, nil, err
	}
	return b, items, nil
}
