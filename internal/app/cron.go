package app

import (
	"context"
	"fmt"
	"time"

	"github.com/phrasebox/core/internal/modules/community"
	"github.com/phrasebox/core/internal/modules/digest"
	"github.com/phrasebox/core/internal/modules/study/summary"
	appconfigs "github.com/phrasebox/core/internal/modules/system/configs"
	pkgcron "github.com/phrasebox/core/internal/pkg/cron"
	pkgredis "github.com/phrasebox/core/internal/pkg/redis"
	sessionpkg "github.com/phrasebox/core/internal/pkg/session"
	"github.com/phrasebox/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// registerCronJobs registers all scheduled background jobs.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, rc *pkgredis.Client, logger *zap.Logger) {
	cfgSvc := appconfigs.NewService(db)
	summaryOpts := []summary.Option{summary.WithLogger(logger)}
	if cfg, err := cfgSvc.Get(); err == nil {
		summaryOpts = append(summaryOpts,
			summary.WithPacing(summary.PacingFromOptions(cfg.DigestOptions)),
			summary.WithDefaultLanguage(cfg.DigestOptions.DefaultLanguage),
		)
	}
	summarySvc := summary.NewService(db, summaryOpts...)
	digestSvc := digest.NewService(digest.NewSubscriptionService(db), summarySvc, cfgSvc, logger)
	communitySvc := community.NewService(db)
	taskSvc := taskqueue.NewService(rc)
	cronLogger := logger.Named("CronService")

	sched.Register(pkgcron.Job{
		Name:        "daily_digest",
		Description: "Send the daily summary email to verified subscribers",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			sent, failed, err := digestSvc.SendAll(ctx)
			if err != nil {
				cronLogger.Warn("daily digest run failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("daily digest sent to %d subscribers, %d failed", sent, failed))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_sessions",
		Description: "Remove expired user sessions",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			removed, err := sessionpkg.CleanupExpired(db, time.Now())
			if err != nil {
				cronLogger.Warn("session cleanup failed", zap.Error(err))
				return err
			}
			cronLogger.Info(fmt.Sprintf("session cleanup done, removed %d rows", removed))
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "deactivate_orphan_shares",
		Description: "Deactivate community shares whose source response was deleted",
		Interval:    12 * time.Hour,
		Fn: func(ctx context.Context) error {
			deactivated, err := communitySvc.DeactivateOrphans(ctx)
			if err != nil {
				cronLogger.Warn("orphan share sweep failed", zap.Error(err))
				return err
			}
			if deactivated > 0 {
				cronLogger.Info(fmt.Sprintf("deactivated %d orphaned shares", deactivated))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "cleanup_finished_tasks",
		Description: "Drop finished queue tasks older than 7 days",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			cutoff := time.Now().AddDate(0, 0, -7).UnixMilli()
			if err := taskSvc.DeleteCompleted(ctx, cutoff); err != nil {
				cronLogger.Warn("task cleanup failed", zap.Error(err))
				return err
			}
			return nil
		},
	})
}
