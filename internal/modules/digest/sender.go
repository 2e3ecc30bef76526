package digest

import (
	"context"
	"errors"
	"fmt"

	"github.com/phrasebox/core/internal/models"
	"github.com/phrasebox/core/internal/modules/study/summary"
	"github.com/phrasebox/core/internal/modules/system/configs"
	pkgmail "github.com/phrasebox/core/internal/pkg/mail"
	"go.uber.org/zap"
)

var (
	ErrDigestDisabled = errors.New("email digest is disabled")
	ErrNothingToSend  = errors.New("no summary available to send")
)

// Service composes the user's latest summary into a digest email and
// delivers it.
type Service struct {
	subs       *SubscriptionService
	summarySvc *summary.Service
	cfgSvc     *configs.Service
	logger     *zap.Logger
}

func NewService(subs *SubscriptionService, summarySvc *summary.Service, cfgSvc *configs.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{subs: subs, summarySvc: summarySvc, cfgSvc: cfgSvc, logger: logger}
}

func (s *Service) Subscriptions() *SubscriptionService { return s.subs }

// SendTo renders and delivers one digest. Unverified subscriptions are
// skipped unless force is set (used by the self-test endpoint).
func (s *Service) SendTo(ctx context.Context, sub *models.DigestSubscriptionModel, force bool) error {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return err
	}
	if !cfg.MailOptions.Enable || (!force && !cfg.FeatureList.EmailDigest) {
		return ErrDigestDisabled
	}
	if !sub.Verified && !force {
		return nil
	}

	result, err := s.deliverySummary(ctx, sub.UserID, force)
	if err != nil {
		return err
	}
	if len(result.Responses) == 0 {
		return ErrNothingToSend
	}

	bodyHTML, err := RenderHTML(result.Responses, cfg.DigestOptions.ContentFormat)
	if err != nil {
		return err
	}

	baseURL := firstNonEmpty(cfg.URL.ServerURL, cfg.URL.WebURL)
	unsubscribeURL, err := buildTokenURL(baseURL, "/api/v2/digest/subscriptions/cancel", sub.CancelToken)
	if err != nil {
		return err
	}

	sender := pkgmail.New(pkgmail.BuildMailConfig(cfg))
	return sender.SendDailyDigest(sub.Email, pkgmail.DailyDigestData{
		SiteName:       cfg.Site.Name,
		BodyHTML:       bodyHTML,
		BodyText:       RenderText(result.Responses),
		UnsubscribeURL: unsubscribeURL,
	})
}

// deliverySummary resolves the content for one digest. The scheduled path
// generates missing snapshots so subscribers who never call the interactive
// endpoint still get mail; the self-test path only reads what exists.
func (s *Service) deliverySummary(ctx context.Context, userID string, readOnly bool) (*summary.Result, error) {
	if readOnly {
		return s.summarySvc.GetSummary(ctx, userID, "")
	}
	result, err := s.summarySvc.Generate(ctx, userID, false, true)
	if errors.Is(err, summary.ErrNoLanguages) {
		return nil, ErrNothingToSend
	}
	return result, err
}

// SendAll delivers the digest to every verified subscriber. Per-subscriber
// failures are logged and counted, never fatal.
func (s *Service) SendAll(ctx context.Context) (sent, failed int, err error) {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return 0, 0, err
	}
	if !cfg.FeatureList.EmailDigest || !cfg.MailOptions.Enable {
		return 0, 0, ErrDigestDisabled
	}

	subs, err := s.subs.VerifiedSubscribers()
	if err != nil {
		return 0, 0, err
	}

	for i := range subs {
		if ctx.Err() != nil {
			return sent, failed, ctx.Err()
		}
		if sendErr := s.SendTo(ctx, &subs[i], false); sendErr != nil {
			if errors.Is(sendErr, ErrNothingToSend) {
				continue
			}
			failed++
			s.logger.Warn("digest delivery failed",
				zap.String("email", subs[i].Email),
				zap.Error(sendErr),
			)
			continue
		}
		sent++
	}
	return sent, failed, nil
}

// SendVerification emails the double-opt-in link for a fresh subscription.
func (s *Service) SendVerification(sub *models.DigestSubscriptionModel) error {
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return err
	}
	if !cfg.MailOptions.Enable {
		return nil
	}

	baseURL := firstNonEmpty(cfg.URL.ServerURL, cfg.URL.WebURL)
	verifyURL, err := buildTokenURL(baseURL, "/api/v2/digest/subscriptions/verify", sub.CancelToken)
	if err != nil {
		return fmt.Errorf("build verify url: %w", err)
	}

	sender := pkgmail.New(pkgmail.BuildMailConfig(cfg))
	return sender.SendDigestVerify(sub.Email, pkgmail.DigestVerifyData{
		SiteName:  cfg.Site.Name,
		VerifyURL: verifyURL,
	})
}
