package models

// DigestSubscriptionModel opts a mailbox into the daily digest email.
type DigestSubscriptionModel struct {
	Base
	UserID      string `json:"user_id"      gorm:"index;not null"`
	Email       string `json:"email"        gorm:"uniqueIndex;size:191;not null"`
	CancelToken string `json:"-"            gorm:"uniqueIndex;size:64;not null"`
	Verified    bool   `json:"verified"     gorm:"default:false"`
}

func (DigestSubscriptionModel) TableName() string { return "digest_subscriptions" }
