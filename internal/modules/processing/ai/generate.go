package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/pkg/taskqueue"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TaskTypeGenerate = "ai:generate"

var (
	ErrGenerationDisabled = errors.New("ai generation is disabled")
	ErrNoProvider         = errors.New("no enabled ai provider")
)

// EnqueueGenerate queues aid generation for one owned response. A pending
// task for the same response is returned instead of duplicated.
func (s *Service) EnqueueGenerate(ctx context.Context, userID, responseID string) (*taskqueue.Task, error) {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return nil, err
	}
	if !cfg.AI.EnableGeneration {
		return nil, ErrGenerationDisabled
	}
	if selectAIProvider(cfg.AI, cfg.AI.GenerationModel) == nil {
		return nil, ErrNoProvider
	}

	var r models.ResponseModel
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", responseID, userID).
		First(&r).Error
	if err != nil {
		return nil, err
	}

	var lang models.LanguageModel
	if err := s.db.WithContext(ctx).First(&lang, "id = ?", r.LanguageID).Error; err != nil {
		return nil, err
	}

	payload := GeneratePayload{
		ResponseID:   r.ID,
		UserID:       userID,
		LanguageCode: lang.Code,
	}
	task, err := s.taskSvc.Enqueue(ctx, TaskTypeGenerate, payload, r.ID, userID)
	if err != nil {
		return nil, err
	}

	if task.Status == taskqueue.TaskPending {
		go s.executeGenerate(context.Background(), task.ID, payload)
	}
	return task, nil
}

func (s *Service) executeGenerate(ctx context.Context, taskID string, payload GeneratePayload) {
	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, "")

	cfg, err := s.cfgSvc.Get()
	if err != nil || !cfg.AI.EnableGeneration {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, "ai generation is disabled")
		return
	}

	provider := selectAIProvider(cfg.AI, cfg.AI.GenerationModel)
	if provider == nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, "no enabled ai provider")
		return
	}

	var r models.ResponseModel
	err = s.db.Where("id = ? AND user_id = ?", payload.ResponseID, payload.UserID).First(&r).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, "response not found")
			return
		}
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	systemPrompt, prompt := buildGeneratePrompt(payload.LanguageCode, r.Content)
	raw, err := callAIWithSystemPrompt(provider, systemPrompt, prompt)
	if err != nil {
		s.logger.Warn("aid generation failed",
			zap.String("response_id", payload.ResponseID),
			zap.Error(err),
		)
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	var aids generatedAids
	if err := unmarshalAIJSON(raw, &aids); err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}
	if strings.TrimSpace(aids.Breakdown) == "" {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, "breakdown is empty in AI response")
		return
	}

	updates := map[string]interface{}{"breakdown": strings.TrimSpace(aids.Breakdown)}
	if reading := strings.TrimSpace(aids.Reading); reading != "" {
		updates["furigana"] = reading
	}
	if err := s.db.Model(&r).Updates(updates).Error; err != nil {
		s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}

	s.taskSvc.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, gin.H{
		"response_id": r.ID,
		"breakdown":   aids.Breakdown,
		"reading":     aids.Reading,
	}, "")
}
