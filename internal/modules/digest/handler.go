package digest

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/digest")

	g.GET("/subscriptions/verify", h.verify)
	g.GET("/subscriptions/cancel", h.cancel)

	a := g.Group("", authMW)
	a.POST("/subscriptions", h.subscribe)
	a.GET("/subscriptions/mine", h.mine)
	a.POST("/test", h.sendTest)
}

func (h *Handler) subscribe(c *gin.Context) {
	var dto SubscribeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.svc.Subscriptions().Subscribe(middleware.CurrentUserID(c), dto.Email)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if err := h.svc.SendVerification(sub); err != nil {
		response.InternalError(c, err)
		return
	}
	response.Created(c, gin.H{"email": sub.Email, "verified": sub.Verified})
}

// GET /digest/subscriptions/verify?token=...
func (h *Handler) verify(c *gin.Context) {
	if err := h.svc.Subscriptions().Verify(c.Query("token")); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			response.NotFoundMsg(c, "that link has expired or was already used")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"verified": true})
}

// GET /digest/subscriptions/cancel?token=...
func (h *Handler) cancel(c *gin.Context) {
	if err := h.svc.Subscriptions().Unsubscribe(c.Query("token")); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			response.NotFoundMsg(c, "that link has expired or was already used")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"unsubscribed": true})
}

func (h *Handler) mine(c *gin.Context) {
	sub, err := h.svc.Subscriptions().Mine(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sub == nil {
		response.OK(c, gin.H{"subscribed": false})
		return
	}
	response.OK(c, gin.H{
		"subscribed": true,
		"email":      sub.Email,
		"verified":   sub.Verified,
	})
}

// POST /digest/test sends the digest to the caller's own subscription
// regardless of the feature gate.
func (h *Handler) sendTest(c *gin.Context) {
	sub, err := h.svc.Subscriptions().Mine(middleware.CurrentUserID(c))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if sub == nil {
		response.NotFoundMsg(c, "subscribe first, then send a test")
		return
	}

	err = h.svc.SendTo(c.Request.Context(), sub, true)
	if err != nil {
		switch {
		case errors.Is(err, ErrDigestDisabled):
			response.UnprocessableEntity(c, "mail delivery is not configured")
		case errors.Is(err, ErrNothingToSend):
			response.UnprocessableEntity(c, "generate a summary first")
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.OK(c, gin.H{"sent": true})
}
