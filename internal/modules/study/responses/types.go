package responses

import (
	"errors"
	"time"

	"github.com/phrasebox/core/internal/models"
)

type CreateResponseDTO struct {
	Content      string   `json:"content"       binding:"required"`
	Language     string   `json:"language"      binding:"required"`
	Breakdown    string   `json:"breakdown"`
	Furigana     string   `json:"furigana"`
	ShowPhonetic bool     `json:"show_phonetic"`
	ShowKana     bool     `json:"show_kana"`
	AudioURL     string   `json:"audio_url"`
	Rank         *int     `json:"rank"`
	Tags         []string `json:"tags"`
}

type UpdateResponseDTO struct {
	Content      *string   `json:"content"`
	Breakdown    *string   `json:"breakdown"`
	Furigana     *string   `json:"furigana"`
	ShowPhonetic *bool     `json:"show_phonetic"`
	ShowKana     *bool     `json:"show_kana"`
	AudioURL     *string   `json:"audio_url"`
	Tags         *[]string `json:"tags"`
}

type SetRankDTO struct {
	Rank int `json:"rank" binding:"required"`
}

// ListFilter narrows the owner-scoped listing.
type ListFilter struct {
	LanguageCode string
	Rank         *int
	Paused       *bool
	Source       string
}

type responseView struct {
	ID                  string    `json:"id"`
	Language            string    `json:"language"`
	Content             string    `json:"content"`
	Breakdown           string    `json:"breakdown"`
	Furigana            string    `json:"furigana"`
	ShowPhonetic        bool      `json:"show_phonetic"`
	ShowKana            bool      `json:"show_kana"`
	AudioURL            string    `json:"audio_url"`
	Rank                int       `json:"rank"`
	IsPaused            bool      `json:"is_paused"`
	Source              string    `json:"source"`
	CommunityResponseID *string   `json:"community_response_id"`
	Tags                []string  `json:"tags"`
	Created             time.Time `json:"created"`
	Modified            time.Time `json:"modified"`
}

var (
	ErrUnknownLanguage = errors.New("unknown language")
	ErrInvalidRank     = errors.New("invalid rank")
)

func toView(r *models.ResponseModel, languageCode string) responseView {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return responseView{
		ID:                  r.ID,
		Language:            languageCode,
		Content:             r.Content,
		Breakdown:           r.Breakdown,
		Furigana:            r.Furigana,
		ShowPhonetic:        r.ShowPhonetic,
		ShowKana:            r.ShowKana,
		AudioURL:            r.AudioURL,
		Rank:                r.Rank,
		IsPaused:            r.IsPaused,
		Source:              r.Source,
		CommunityResponseID: r.CommunityResponseID,
		Tags:                tags,
		Created:             r.CreatedAt,
		Modified:            r.UpdatedAt,
	}
}
