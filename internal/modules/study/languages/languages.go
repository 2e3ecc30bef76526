package languages

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

type CreateLanguageDTO struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type ToggleLanguageDTO struct {
	Active bool `json:"active"`
}

var errDuplicateCode = errors.New("duplicate language code")

// ListActive returns every language learners can currently pick.
func (s *Service) ListActive(ctx context.Context) ([]models.LanguageModel, error) {
	var items []models.LanguageModel
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (s *Service) ListAll(ctx context.Context) ([]models.LanguageModel, error) {
	var items []models.LanguageModel
	err := s.db.WithContext(ctx).Order("code ASC").Find(&items).Error
	return items, err
}

// Mine returns the active languages the user has material or decks in,
// ordered by code.
func (s *Service) Mine(ctx context.Context, userID string) ([]models.LanguageModel, error) {
	responseLangs := s.db.Model(&models.ResponseModel{}).
		Select("DISTINCT language_id").
		Where("user_id = ?", userID)
	bookmarkLangs := s.db.Model(&models.BookmarkModel{}).
		Select("DISTINCT language_id").
		Where("user_id = ?", userID)

	var items []models.LanguageModel
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("id IN (?) OR id IN (?)", responseLangs, bookmarkLangs).
		Order("code ASC").
		Find(&items).Error
	return items, err
}

func (s *Service) Create(ctx context.Context, dto *CreateLanguageDTO) (*models.LanguageModel, error) {
	code := strings.ToLower(strings.TrimSpace(dto.Code))

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.LanguageModel{}).
		Where("code = ?", code).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, errDuplicateCode
	}

	lang := models.LanguageModel{Code: code, Name: strings.TrimSpace(dto.Name), Active: true}
	return &lang, s.db.WithContext(ctx).Create(&lang).Error
}

// SetActive toggles availability. Deactivating keeps existing material
// readable but hides the language from pickers and summary generation.
func (s *Service) SetActive(ctx context.Context, id string, active bool) (*models.LanguageModel, error) {
	var lang models.LanguageModel
	if err := s.db.WithContext(ctx).First(&lang, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(&lang).Update("active", active).Error; err != nil {
		return nil, err
	}
	lang.Active = active
	return &lang, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/languages")
	g.GET("", h.list)

	a := g.Group("", authMW)
	a.GET("/mine", h.mine)
	a.GET("/all", h.listAll)
	a.POST("", h.create)
	a.PATCH("/:id", h.toggle)
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) listAll(c *gin.Context) {
	items, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) mine(c *gin.Context) {
	items, err := h.svc.Mine(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, items)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateLanguageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lang, err := h.svc.Create(c.Request.Context(), &dto)
	if err != nil {
		if errors.Is(err, errDuplicateCode) {
			response.Conflict(c, "language code already exists")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Created(c, lang)
}

func (h *Handler) toggle(c *gin.Context) {
	var dto ToggleLanguageDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	lang, err := h.svc.SetActive(c.Request.Context(), c.Param("id"), dto.Active)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if lang == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, lang)
}
