package models

// LanguageModel is a study language available on the instance.
type LanguageModel struct {
	Base
	Code   string `json:"code"   gorm:"uniqueIndex;size:16;not null"`
	Name   string `json:"name"   gorm:"not null"`
	Active bool   `json:"active" gorm:"default:true"`
}

func (LanguageModel) TableName() string { return "languages" }
