package community

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/pkg/pagination"
	"github.com/phrasebox/core/internal/pkg/response"
	"gorm.io/gorm"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/community", authMW)

	g.GET("/feed", h.feed)
	g.POST("/share", h.share)
	g.DELETE("/share/:responseId", h.unshare)
	g.POST("/import", h.importShare)
}

// GET /community/feed?lang=ja
func (h *Handler) feed(c *gin.Context) {
	q := pagination.FromContext(c)
	items, pag, err := h.svc.Feed(c.Request.Context(), q, c.Query("lang"))
	if err != nil {
		response.InternalError(c, err)
		return
	}

	langIDs := make([]string, 0, len(items))
	userIDs := make([]string, 0, len(items))
	for _, cr := range items {
		langIDs = append(langIDs, cr.LanguageID)
		userIDs = append(userIDs, cr.UserID)
	}
	codes, err := h.svc.languageCodes(c.Request.Context(), langIDs)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	names, err := h.svc.userNames(c.Request.Context(), userIDs)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	viewerID := middleware.CurrentUserID(c)
	out := make([]feedItem, len(items))
	for i, cr := range items {
		out[i] = toFeedItem(&cr, codes[cr.LanguageID], names[cr.UserID], viewerID)
	}
	response.Paged(c, out, pag)
}

func (h *Handler) share(c *gin.Context) {
	var dto ShareDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cr, err := h.svc.Share(c.Request.Context(), middleware.CurrentUserID(c), dto.ResponseID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		case errors.Is(err, ErrNotShareable):
			response.UnprocessableEntity(c, "imported responses cannot be shared back to the community")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, cr)
}

func (h *Handler) unshare(c *gin.Context) {
	ok, err := h.svc.Unshare(c.Request.Context(), middleware.CurrentUserID(c), c.Param("responseId"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !ok {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

func (h *Handler) importShare(c *gin.Context) {
	var dto ImportDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, err := h.svc.Import(c.Request.Context(), middleware.CurrentUserID(c), dto.CommunityResponseID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c)
		case errors.Is(err, ErrShareInactive):
			response.UnprocessableEntity(c, "this share is no longer available")
		case errors.Is(err, ErrOwnShare):
			response.UnprocessableEntity(c, "that one is already yours")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, r)
}
