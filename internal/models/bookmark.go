package models

// ArchiveBookmarkTitle is the reserved per-(user, language) bookmark that
// collects everything sampled into daily summaries. It never appears as a
// user deck.
const ArchiveBookmarkTitle = "daily summary"

// BookmarkModel is a user-named deck of responses within one language.
type BookmarkModel struct {
	Base
	UserID     string `json:"user_id"     gorm:"index;not null"`
	LanguageID string `json:"language_id" gorm:"index;not null"`
	Title      string `json:"title"       gorm:"not null"`

	Responses []ResponseModel `json:"responses,omitempty" gorm:"many2many:response_bookmarks;joinForeignKey:BookmarkID;joinReferences:ResponseID"`
}

func (BookmarkModel) TableName() string { return "bookmarks" }
