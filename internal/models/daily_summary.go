package models

// DailySummaryModel is an immutable snapshot of sampled responses for one
// (user, language) pair. The newest row per pair is the current summary.
type DailySummaryModel struct {
	Base
	UserID     string `json:"user_id"     gorm:"index:idx_summary_user_lang;not null"`
	LanguageID string `json:"language_id" gorm:"index:idx_summary_user_lang;not null"`

	Responses []ResponseModel `json:"responses,omitempty" gorm:"many2many:daily_summary_responses;joinForeignKey:DailySummaryID;joinReferences:ResponseID"`
}

func (DailySummaryModel) TableName() string { return "daily_summaries" }
