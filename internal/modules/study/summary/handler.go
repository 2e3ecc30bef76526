package summary

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/summary", authMW)
	g.GET("", h.get)
	g.POST("/generate", h.generate)
}

func (h *Handler) get(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	result, err := h.svc.GetSummary(c.Request.Context(), userID, c.Query("lang"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *Handler) generate(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var dto GenerateDTO
	if err := c.ShouldBindJSON(&dto); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.svc.Generate(c.Request.Context(), userID, dto.Force, dto.AllLanguages)
	if err != nil {
		if errors.Is(err, ErrNoLanguages) {
			response.UnprocessableEntity(c, "no study languages found for this account")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, result)
}
