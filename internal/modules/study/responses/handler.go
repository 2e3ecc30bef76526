package responses

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/pkg/pagination"
	"github.com/phrasebox/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/responses", authMW)

	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PATCH("/:id", h.update)
	g.PATCH("/:id/rank", h.setRank)
	g.POST("/:id/pause", h.pause)
	g.POST("/:id/resume", h.resume)
	g.DELETE("/:id", h.delete)
}

// GET /responses?lang=ja&rank=2&paused=false&source=local
func (h *Handler) list(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	q := pagination.FromContext(c)

	filter := ListFilter{
		LanguageCode: c.Query("lang"),
		Source:       c.Query("source"),
	}
	if v := c.Query("rank"); v != "" {
		rank, err := strconv.Atoi(v)
		if err != nil || rank < models.RankMin || rank > models.RankMax {
			response.BadRequest(c, "rank must be between 1 and 3")
			return
		}
		filter.Rank = &rank
	}
	if v := c.Query("paused"); v != "" {
		paused, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(c, "paused must be true or false")
			return
		}
		filter.Paused = &paused
	}

	items, pag, err := h.svc.List(c.Request.Context(), userID, q, filter)
	if err != nil {
		if errors.Is(err, ErrUnknownLanguage) {
			response.BadRequest(c, "unknown language code")
			return
		}
		response.InternalError(c, err)
		return
	}

	ids := make([]string, 0, len(items))
	for _, r := range items {
		ids = append(ids, r.LanguageID)
	}
	codes, err := h.svc.languageCodes(c.Request.Context(), ids)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	out := make([]responseView, len(items))
	for i, r := range items {
		out[i] = toView(&r, codes[r.LanguageID])
	}
	response.Paged(c, out, pag)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateResponseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	r, code, err := h.svc.Create(c.Request.Context(), middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownLanguage):
			response.BadRequest(c, "unknown language code")
		case errors.Is(err, ErrInvalidRank):
			response.BadRequest(c, "rank must be between 1 and 3")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, toView(r, code))
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.svc.GetByID(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFound(c)
		return
	}
	h.respondOne(c, r)
}

func (h *Handler) update(c *gin.Context) {
	var dto UpdateResponseDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	r, err := h.svc.Update(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), &dto)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFound(c)
		return
	}
	h.respondOne(c, r)
}

// PATCH /responses/:id/rank
func (h *Handler) setRank(c *gin.Context) {
	var dto SetRankDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	r, err := h.svc.SetRank(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), dto.Rank)
	if err != nil {
		if errors.Is(err, ErrInvalidRank) {
			response.BadRequest(c, "rank must be between 1 and 3")
			return
		}
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFound(c)
		return
	}
	h.respondOne(c, r)
}

func (h *Handler) pause(c *gin.Context)  { h.togglePause(c, true) }
func (h *Handler) resume(c *gin.Context) { h.togglePause(c, false) }

func (h *Handler) togglePause(c *gin.Context, paused bool) {
	r, err := h.svc.SetPaused(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"), paused)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if r == nil {
		response.NotFound(c)
		return
	}
	h.respondOne(c, r)
}

func (h *Handler) delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if !deleted {
		response.NotFound(c)
		return
	}
	response.NoContent(c)
}

func (h *Handler) respondOne(c *gin.Context, r *models.ResponseModel) {
	codes, err := h.svc.languageCodes(c.Request.Context(), []string{r.LanguageID})
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, toView(r, codes[r.LanguageID]))
}
