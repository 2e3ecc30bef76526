package models

// Response source values.
const (
	ResponseSourceLocal    = "local"
	ResponseSourceImported = "imported"
)

// Response rank bounds. Rank 1 is the hardest material and is resurfaced most.
const (
	RankMin = 1
	RankMax = 3
)

// ResponseModel is a single piece of study material: a phrase with its
// grammar breakdown and reading aids.
type ResponseModel struct {
	Base
	UserID              string      `json:"user_id"               gorm:"index;not null"`
	LanguageID          string      `json:"language_id"           gorm:"index;not null"`
	Content             string      `json:"content"               gorm:"type:longtext"`
	Breakdown           string      `json:"breakdown"             gorm:"type:longtext"`
	Furigana            string      `json:"furigana"              gorm:"type:longtext"`
	ShowPhonetic        bool        `json:"show_phonetic"`
	ShowKana            bool        `json:"show_kana"`
	AudioURL            string      `json:"audio_url"`
	Rank                int         `json:"rank"                  gorm:"index;default:1"`
	IsPaused            bool        `json:"is_paused"             gorm:"index;default:false"`
	Source              string      `json:"source"                gorm:"size:16;default:'local'"`
	CommunityResponseID *string     `json:"community_response_id" gorm:"type:char(36)"`
	Tags                StringArray `json:"tags"                  gorm:"type:longtext"`

	Bookmarks []BookmarkModel `json:"bookmarks,omitempty" gorm:"many2many:response_bookmarks;joinForeignKey:ResponseID;joinReferences:BookmarkID"`
}

func (ResponseModel) TableName() string { return "responses" }
