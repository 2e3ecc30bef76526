package summary

import "time"

// Per-rank sampling quotas. Rank 1 material is resurfaced most aggressively.
const (
	rank1Quota = 4
	rank2Quota = 3
	rank3Quota = 2
)

// ResponseView is the enriched representation of a response inside a summary.
type ResponseView struct {
	ID                  string            `json:"id"`
	Content             string            `json:"content"`
	Rank                int               `json:"rank"`
	IsPaused            bool              `json:"is_paused"`
	Breakdown           string            `json:"breakdown"`
	Furigana            string            `json:"furigana"`
	ShowPhonetic        bool              `json:"show_phonetic"`
	ShowKana            bool              `json:"show_kana"`
	AudioURL            string            `json:"audio_url"`
	Source              string            `json:"source"`
	CommunityResponseID *string           `json:"community_response_id"`
	Decks               map[string]string `json:"decks"`
	IsSharedToCommunity bool              `json:"is_shared_to_community"`
}

// Result is a summary read or generation outcome. CreatedAt is the newest
// snapshot time across all contributing languages, nil when nothing exists.
type Result struct {
	Responses []ResponseView `json:"responses"`
	CreatedAt *time.Time     `json:"created_at"`
}

// GenerateDTO is the request body for POST /summary/generate.
type GenerateDTO struct {
	Force        bool `json:"force"`
	AllLanguages bool `json:"all_languages"`
}
