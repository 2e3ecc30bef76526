package community

import (
	"errors"
	"time"

	"github.com/phrasebox/core/internal/models"
)

type ShareDTO struct {
	ResponseID string `json:"response_id" binding:"required"`
}

type ImportDTO struct {
	CommunityResponseID string `json:"community_response_id" binding:"required"`
}

type feedItem struct {
	ID         string    `json:"id"`
	Language   string    `json:"language"`
	Content    string    `json:"content"`
	Breakdown  string    `json:"breakdown"`
	Furigana   string    `json:"furigana"`
	SharedBy   string    `json:"shared_by"`
	IsOwnShare bool      `json:"is_own_share"`
	Created    time.Time `json:"created"`
}

var (
	ErrNotShareable  = errors.New("imported responses cannot be shared")
	ErrShareInactive = errors.New("share is no longer active")
	ErrOwnShare      = errors.New("cannot import your own share")
)

func toFeedItem(cr *models.CommunityResponseModel, languageCode, sharedBy, viewerID string) feedItem {
	return feedItem{
		ID:         cr.ID,
		Language:   languageCode,
		Content:    cr.Content,
		Breakdown:  cr.Breakdown,
		Furigana:   cr.Furigana,
		SharedBy:   sharedBy,
		IsOwnShare: cr.UserID == viewerID,
		Created:    cr.CreatedAt,
	}
}
