package bookmarks

import (
	"errors"
	"time"

	"github.com/phrasebox/core/internal/models"
)

type CreateBookmarkDTO struct {
	Title    string `json:"title"    binding:"required"`
	Language string `json:"language" binding:"required"`
}

type RenameBookmarkDTO struct {
	Title string `json:"title" binding:"required"`
}

type AttachDTO struct {
	ResponseID string `json:"response_id" binding:"required"`
}

type bookmarkView struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Language      string    `json:"language"`
	ResponseCount int64     `json:"response_count"`
	Created       time.Time `json:"created"`
	Modified      time.Time `json:"modified"`
}

var (
	ErrReservedTitle   = errors.New("reserved bookmark title")
	ErrDuplicateTitle  = errors.New("duplicate bookmark title")
	ErrUnknownLanguage = errors.New("unknown language")
	ErrLanguageMixup   = errors.New("response and bookmark languages differ")
)

func toView(b *models.BookmarkModel, languageCode string, count int64) bookmarkView {
	return bookmarkView{
		ID:            b.ID,
		Title:         b.Title,
		Language:      languageCode,
		ResponseCount: count,
		Created:       b.CreatedAt,
		Modified:      b.UpdatedAt,
	}
}
