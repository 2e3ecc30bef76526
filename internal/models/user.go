package models

import "time"

// UserModel represents a learner account.
type UserModel struct {
	Base
	Username          string      `json:"username"           gorm:"uniqueIndex;size:80;not null"`
	Name              string      `json:"name"`
	Avatar            string      `json:"avatar"`
	Password          string      `json:"-"                  gorm:"not null"`
	Mail              string      `json:"mail"`
	PreferredLanguage string      `json:"preferred_language" gorm:"size:16"`
	StudyLanguages    StringArray `json:"study_languages"    gorm:"type:longtext"`
	LastLoginTime     *time.Time  `json:"last_login_time"`
	LastLoginIP       string      `json:"last_login_ip"`

	APITokens []APIToken `json:"api_tokens,omitempty" gorm:"foreignKey:UserID"`
}

func (UserModel) TableName() string { return "users" }

// APIToken represents a personal API token for programmatic access.
type APIToken struct {
	Base
	UserID    string     `json:"-"          gorm:"index;not null"`
	Token     string     `json:"token"      gorm:"uniqueIndex;not null"`
	Name      string     `json:"name"`
	ExpiredAt *time.Time `json:"expired_at"`
}

func (APIToken) TableName() string { return "api_tokens" }
