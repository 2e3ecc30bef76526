package ai

import (
	"github.com/phrasebox/core/internal/modules/system/configs"
	"github.com/phrasebox/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service generates study aids (grammar breakdown, reading) for phrases.
type Service struct {
	db      *gorm.DB
	cfgSvc  *configs.Service
	taskSvc *taskqueue.Service
	logger  *zap.Logger
}

func NewService(db *gorm.DB, cfgSvc *configs.Service, taskSvc *taskqueue.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, cfgSvc: cfgSvc, taskSvc: taskSvc, logger: logger}
}
