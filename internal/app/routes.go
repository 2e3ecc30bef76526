package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/middleware"
	"github.com/phrasebox/core/internal/modules/community"
	"github.com/phrasebox/core/internal/modules/digest"
	"github.com/phrasebox/core/internal/modules/processing/ai"
	"github.com/phrasebox/core/internal/modules/study/bookmarks"
	"github.com/phrasebox/core/internal/modules/study/languages"
	"github.com/phrasebox/core/internal/modules/study/responses"
	"github.com/phrasebox/core/internal/modules/study/summary"
	appconfigs "github.com/phrasebox/core/internal/modules/system/configs"
	"github.com/phrasebox/core/internal/modules/system/health"
	"github.com/phrasebox/core/internal/modules/tasks/crontask"
	"github.com/phrasebox/core/internal/modules/user"
	pkgredis "github.com/phrasebox/core/internal/pkg/redis"
	"github.com/phrasebox/core/internal/pkg/response"
	"github.com/phrasebox/core/internal/pkg/taskqueue"
)

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":     "phrasebox-core",
		"version":  "1.0.0",
		"homepage": "https://github.com/phrasebox/core",
		"issues":   "https://github.com/phrasebox/core/issues",
	}

	apiPrefix := "/api/v2"

	// Shared services
	cfgSvc := appconfigs.NewService(db)
	taskSvc := taskqueue.NewService(rc)

	summaryOpts := []summary.Option{summary.WithLogger(a.logger)}
	if cfg, err := cfgSvc.Get(); err == nil {
		summaryOpts = append(summaryOpts,
			summary.WithPacing(summary.PacingFromOptions(cfg.DigestOptions)),
			summary.WithDefaultLanguage(cfg.DigestOptions.DefaultLanguage),
		)
	}
	summarySvc := summary.NewService(db, summaryOpts...)

	subsSvc := digest.NewSubscriptionService(db)
	digestSvc := digest.NewService(subsSvc, summarySvc, cfgSvc, a.logger)

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw(), a.logger))
	r.Use(middleware.Idempotence(rc.Raw()))

	// Versioned API
	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))
	api.Use(middleware.HTTPCache(rc.Raw(), middleware.HTTPCacheOptions{
		TTL:                    15 * time.Second,
		EnableCDNHeader:        true,
		EnableForceCacheHeader: false,
		Disable:                a.cfg.IsDev(),
		SkipPaths:              httpCacheSkipPaths(apiPrefix),
	}))

	// Infrastructure
	health.RegisterRoutes(api, db, a.sched, cfgSvc, authMW)

	// App info endpoint
	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptimeMs := time.Since(a.startTime()).Milliseconds()
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptimeMs,
			"humanize":  humanizeDuration(time.Duration(uptimeMs) * time.Millisecond),
		})
	})

	cleanCache := func(c *gin.Context) {
		cfgSvc.Invalidate()
		deleted, err := middleware.PurgeHTTPCache(c.Request.Context(), rc.Raw())
		if err != nil {
			response.InternalError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "deleted": deleted})
	}
	api.GET("/clean_cache", authMW, cleanCache)
	api.GET("/clean_redis", authMW, func(c *gin.Context) {
		rc.Raw().FlushDB(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// Config
	appconfigs.NewHandler(cfgSvc).RegisterRoutes(api, authMW)

	// Account & sessions
	user.NewHandler(user.NewService(db)).RegisterRoutes(api, authMW)

	// Study
	languages.NewHandler(languages.NewService(db)).RegisterRoutes(api, authMW)
	responses.NewHandler(responses.NewService(db)).RegisterRoutes(api, authMW)
	bookmarks.NewHandler(bookmarks.NewService(db)).RegisterRoutes(api, authMW)
	summary.NewHandler(summarySvc).RegisterRoutes(api, authMW)

	// Community feed
	community.NewHandler(community.NewService(db)).RegisterRoutes(api, authMW)

	// Email digest
	digest.NewHandler(digestSvc).RegisterRoutes(api, authMW)

	// AI-assisted study aids
	aiSvc := ai.NewService(db, cfgSvc, taskSvc, a.logger)
	ai.NewHandler(aiSvc).RegisterRoutes(api, authMW)

	// Cron task management (admin)
	crontask.NewHandler(a.sched, taskSvc).RegisterRoutes(api, authMW)
}

func httpCacheSkipPaths(apiPrefix string) []string {
	p := strings.TrimSuffix(strings.TrimSpace(apiPrefix), "/")
	if p == "" {
		p = "/api/v2"
	}
	return []string{
		p + "/uptime",
		p + "/clean_cache",
		p + "/clean_redis",
		p + "/health",
		p + "/health/*",
		p + "/digest/subscriptions/verify",
		p + "/digest/subscriptions/cancel",
	}
}
