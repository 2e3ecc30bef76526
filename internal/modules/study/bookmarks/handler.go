package bookmarks

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/bookmarks", authMW)

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id/responses", h.listResponses)
	g.PATCH("/:id", h.rename)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/responses", h.attach)
	g.DELETE("/:id/responses/:responseId", h.detach)
}

// GET /bookmarks?lang=ja
func (h *Handler) list(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	items, counts, codes, err := h.svc.List(c.Request.Context(), userID, c.Query("lang"))
	if err != nil {
		if errors.Is(err, ErrUnknownLanguage) {
			response.BadRequest(c, "unknown language code")
			return
		}
		response.InternalError(c, err)
		return
	}

	out := make([]bookmarkView, len(items))
	for i, b := range items {
		out[i] = toView(&b, codes[b.LanguageID], counts[b.ID])
	}
	response.OK(c, out)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateBookmarkDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, code, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrReservedTitle):
			response.UnprocessableEntity(c, "that title is reserved")
		case errors.Is(err, ErrDuplicateTitle):
			response.Conflict(c, "a bookmark with that title already exists")
		case errors.Is(err, ErrUnknownLanguage):
			response.BadRequest(c, "unknown language code")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, toView(b, code, 0))
}

func (h *Handler) listResponses(c *gin.Context) {
	b, items, err := h.svc.ListResponses(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, gin.H{
		"id":        b.ID,
		"title":     b.Title,
		"responses": items,
	})
}

func (h *Handler) rename(c *gin.Context) {
	var dto RenameBookmarkDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	b, err := h.svc.Rename(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Title)
	if err != nil {
		if errors.Is(err, ErrReservedTitle) {
			response.UnprocessableEntity(c, "that title is reserved")
			return
		}
		response.InternalError(c, err)
		return
	}
	if b == nil {
		response.NotFound(c)
		return
	}
	response.OK(c, gin.H{"id": b.ID, "title": b.Title})
}

func (h *Handler) delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrReservedTitle) {
			response.UnprocessableEntity(c, "the summary archive cannot be deleted")
			return
		}
		response.InternalError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

// POST /bookmarks/:id/responses
func (h *Handler) attach(c *gin.Context) {
	var dto AttachDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	err := h.svc.Attach(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.ResponseID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		case errors.Is(err, ErrLanguageMixup):
			response.UnprocessableEntity(c, "response and bookmark belong to different languages")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.NoContent(c)
}

func (h *Handler) detach(c *gin.Context) {
	err := h.svc.Detach(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), c.Param("responseId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}
