package models

// CommunityResponseModel is the public copy of a shared response. Unsharing
// flips IsActive off instead of deleting, so imports keep a valid reference.
type CommunityResponseModel struct {
	Base
	OriginalResponseID string `json:"original_response_id" gorm:"uniqueIndex;type:char(36);not null"`
	UserID             string `json:"user_id"              gorm:"index;not null"`
	LanguageID         string `json:"language_id"          gorm:"index;not null"`
	Content            string `json:"content"              gorm:"type:longtext"`
	Breakdown          string `json:"breakdown"            gorm:"type:longtext"`
	Furigana           string `json:"furigana"             gorm:"type:longtext"`
	IsActive           bool   `json:"is_active"            gorm:"index;default:true"`
}

func (CommunityResponseModel) TableName() string { return "community_responses" }
