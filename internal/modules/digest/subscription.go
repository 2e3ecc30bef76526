package digest

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/phrasebox/core/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscribeDTO struct {
	Email string `json:"email" binding:"required,email"`
}

var ErrInvalidToken = errors.New("invalid token")

type SubscriptionService struct{ db *gorm.DB }

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// Subscribe registers (or re-registers) a mailbox for the user's daily
// digest. Re-subscribing rotates the cancel token and resets verification.
func (s *SubscriptionService) Subscribe(userID, email string) (*models.DigestSubscriptionModel, error) {
	token := make([]byte, 16)
	if _, err := rand.Read(token); err != nil {
		return nil, err
	}

	sub := models.DigestSubscriptionModel{
		UserID:      userID,
		Email:       email,
		CancelToken: hex.EncodeToString(token),
		Verified:    false,
	}

	// The conflict target also matches rows soft-deleted by Unsubscribe, so
	// the assignment must clear deleted_at to resurrect them.
	result := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "email"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"user_id":      sub.UserID,
			"cancel_token": sub.CancelToken,
			"verified":     false,
			"deleted_at":   nil,
		}),
	}).Create(&sub)

	return &sub, result.Error
}

func (s *SubscriptionService) Verify(cancelToken string) error {
	result := s.db.Model(&models.DigestSubscriptionModel{}).
		Where("cancel_token = ?", cancelToken).
		Update("verified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidToken
	}
	return nil
}

func (s *SubscriptionService) Unsubscribe(cancelToken string) error {
	result := s.db.Where("cancel_token = ?", cancelToken).
		Delete(&models.DigestSubscriptionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInvalidToken
	}
	return nil
}

// Mine returns the user's subscription, nil when absent.
func (s *SubscriptionService) Mine(userID string) (*models.DigestSubscriptionModel, error) {
	var sub models.DigestSubscriptionModel
	err := s.db.Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// VerifiedSubscribers returns every verified subscription.
func (s *SubscriptionService) VerifiedSubscribers() ([]models.DigestSubscriptionModel, error) {
	var subs []models.DigestSubscriptionModel
	err := s.db.Where("verified = ?", true).Find(&subs).Error
	return subs, err
}

func buildTokenURL(baseURL, path, token string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "", fmt.Errorf("digest url is not configured")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
