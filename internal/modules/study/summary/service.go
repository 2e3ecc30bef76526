package summary

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/phrasebox/core/internal/config"
	"github.com/phrasebox/core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoLanguages is returned by Generate when no study language can be
// resolved for the user.
var ErrNoLanguages = errors.New("no study languages resolved for user")

// Pacing throttles batch work during generation.
type Pacing struct {
	LanguageBatchSize int
	LanguagePause     time.Duration
	TagBatchSize      int
	TagPause          time.Duration
}

// DefaultPacing matches the DigestOptions defaults.
func DefaultPacing() Pacing {
	return Pacing{
		LanguageBatchSize: 2,
		LanguagePause:     time.Second,
		TagBatchSize:      10,
		TagPause:          100 * time.Millisecond,
	}
}

// PacingFromOptions builds a Pacing from runtime digest options, falling back
// to defaults for unset values.
func PacingFromOptions(opts config.DigestOptions) Pacing {
	p := DefaultPacing()
	if opts.LanguageBatchSize > 0 {
		p.LanguageBatchSize = opts.LanguageBatchSize
	}
	if opts.LanguageBatchPauseMS > 0 {
		p.LanguagePause = time.Duration(opts.LanguageBatchPauseMS) * time.Millisecond
	}
	if opts.TagBatchSize > 0 {
		p.TagBatchSize = opts.TagBatchSize
	}
	if opts.TagBatchPauseMS > 0 {
		p.TagPause = time.Duration(opts.TagBatchPauseMS) * time.Millisecond
	}
	return p
}

// Service samples daily summaries and reads back stored snapshots.
type Service struct {
	db              *gorm.DB
	logger          *zap.Logger
	sharing         *SharingResolver
	pacing          Pacing
	defaultLanguage string
	sleep           func(ctx context.Context, d time.Duration)
	now             func() time.Time
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithPacing(p Pacing) Option {
	return func(s *Service) { s.pacing = p }
}

func WithDefaultLanguage(code string) Option {
	return func(s *Service) {
		if code != "" {
			s.defaultLanguage = code
		}
	}
}

// WithSleep overrides the pause function. Tests inject a no-op.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(s *Service) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{
		db:              db,
		logger:          zap.NewNop(),
		sharing:         NewSharingResolver(db),
		pacing:          DefaultPacing(),
		defaultLanguage: "ja",
		sleep:           defaultSleep,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sharing exposes the resolver for callers that annotate outside a summary.
func (s *Service) Sharing() *SharingResolver { return s.sharing }

// GetSummary returns the newest stored snapshot per language without
// generating anything. An empty languageCode reads across every active
// language the user has material in. Never mutates state.
func (s *Service) GetSummary(ctx context.Context, userID, languageCode string) (*Result, error) {
	var (
		langs []models.LanguageModel
		err   error
	)
	if languageCode == "" {
		langs, err = s.userLanguages(ctx, userID)
	} else {
		langs, err = s.singleLanguage(ctx, languageCode)
	}
	if err != nil {
		return nil, err
	}

	result := &Result{Responses: []ResponseView{}}
	for _, lang := range langs {
		snap, err := s.latestSnapshot(s.db.WithContext(ctx), userID, lang.ID)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			continue
		}
		views, err := s.enrich(ctx, snap.Responses)
		if err != nil {
			return nil, err
		}
		result.Responses = append(result.Responses, views...)
		result.CreatedAt = maxTime(result.CreatedAt, snap.CreatedAt)
	}
	return result, nil
}

// Generate returns the current summary per language, sampling a fresh
// snapshot where none exists (or always, when forceRefresh). Languages are
// processed sequentially in paced batches; a failure in one language is
// logged and skipped rather than failing the whole run.
func (s *Service) Generate(ctx context.Context, userID string, forceRefresh, allLanguages bool) (*Result, error) {
	langs, err := s.resolveGenerateLanguages(ctx, userID, allLanguages)
	if err != nil {
		return nil, err
	}
	if len(langs) == 0 {
		return nil, ErrNoLanguages
	}

	result := &Result{Responses: []ResponseView{}}
	batch := s.pacing.LanguageBatchSize
	if batch <= 0 {
		batch = 1
	}
	for i := 0; i < len(langs); i += batch {
		if i > 0 {
			s.sleep(ctx, s.pacing.LanguagePause)
		}
		end := i + batch
		if end > len(langs) {
			end = len(langs)
		}
		for _, lang := range langs[i:end] {
			snap, err := s.generateForLanguage(ctx, userID, lang, forceRefresh)
			if err != nil {
				s.logger.Warn("summary generation failed for language",
					zap.String("user_id", userID),
					zap.String("language", lang.Code),
					zap.Error(err),
				)
				continue
			}
			if snap == nil {
				continue
			}
			views, err := s.enrich(ctx, snap.Responses)
			if err != nil {
				s.logger.Warn("summary enrichment failed for language",
					zap.String("language", lang.Code),
					zap.Error(err),
				)
				continue
			}
			result.Responses = append(result.Responses, views...)
			result.CreatedAt = maxTime(result.CreatedAt, snap.CreatedAt)
		}
	}
	return result, nil
}

func (s *Service) resolveGenerateLanguages(ctx context.Context, userID string, allLanguages bool) ([]models.LanguageModel, error) {
	if allLanguages {
		return s.userLanguages(ctx, userID)
	}

	var user models.UserModel
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	code := user.PreferredLanguage
	if code == "" {
		code = s.defaultLanguage
	}
	return s.singleLanguage(ctx, code)
}

func (s *Service) userLanguages(ctx context.Context, userID string) ([]models.LanguageModel, error) {
	responseLangs := s.db.Model(&models.ResponseModel{}).
		Select("language_id").
		Where("user_id = ?", userID)
	bookmarkLangs := s.db.Model(&models.BookmarkModel{}).
		Select("language_id").
		Where("user_id = ?", userID)

	var langs []models.LanguageModel
	err := s.db.WithContext(ctx).
		Where("active = ?", true).
		Where("id IN (?) OR id IN (?)", responseLangs, bookmarkLangs).
		Order("code ASC").
		Find(&langs).Error
	return langs, err
}

func (s *Service) singleLanguage(ctx context.Context, code string) ([]models.LanguageModel, error) {
	var lang models.LanguageModel
	err := s.db.WithContext(ctx).
		Where("code = ? AND active = ?", code, true).
		First(&lang).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []models.LanguageModel{lang}, nil
}

// generateForLanguage reuses the newest non-empty snapshot unless forced,
// otherwise samples and persists a new one. The archive deck row is re-read
// FOR UPDATE on MySQL before the reuse check: without it the check is a
// non-locking snapshot read, and two concurrent unforced calls would both
// insert. SQLite serializes writers on its own.
func (s *Service) generateForLanguage(ctx context.Context, userID string, lang models.LanguageModel, force bool) (*models.DailySummaryModel, error) {
	var (
		snap      *models.DailySummaryModel
		toArchive []models.ResponseModel
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		archive, err := s.ensureArchiveBookmark(tx, userID, lang.ID)
		if err != nil {
			return err
		}
		if tx.Dialector.Name() == "mysql" {
			var anchor models.BookmarkModel
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&anchor, "id = ?", archive.ID).Error
			if err != nil {
				return err
			}
		}

		if !force {
			existing, err := s.latestSnapshot(tx, userID, lang.ID)
			if err != nil {
				return err
			}
			if existing != nil && len(existing.Responses) > 0 {
				snap = existing
				return nil
			}
		}

		sampled, err := s.sampleResponses(tx, userID, lang.ID)
		if err != nil {
			return err
		}
		if len(sampled) == 0 {
			return nil
		}

		model := &models.DailySummaryModel{
			UserID:     userID,
			LanguageID: lang.ID,
			Responses:  sampled,
		}
		if err := tx.Omit("Responses.*").Create(model).Error; err != nil {
			return err
		}
		snap = model
		toArchive = sampled
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(toArchive) > 0 {
		if err := s.archiveSampled(ctx, userID, lang.ID, toArchive); err != nil {
			// The snapshot itself is already committed.
			s.logger.Warn("archive tagging failed",
				zap.String("user_id", userID),
				zap.String("language", lang.Code),
				zap.Error(err),
			)
		}
	}
	return snap, nil
}

func (s *Service) latestSnapshot(tx *gorm.DB, userID, languageID string) (*models.DailySummaryModel, error) {
	var snap models.DailySummaryModel
	err := tx.
		Preload("Responses").
		Where("user_id = ? AND language_id = ?", userID, languageID).
		Order("created_at DESC").
		First(&snap).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// ensureArchiveBookmark creates the reserved archive deck on demand, so a
// missing one never silently skips a language.
func (s *Service) ensureArchiveBookmark(tx *gorm.DB, userID, languageID string) (*models.BookmarkModel, error) {
	bm := &models.BookmarkModel{}
	err := tx.
		Where("user_id = ? AND language_id = ? AND title = ?", userID, languageID, models.ArchiveBookmarkTitle).
		FirstOrCreate(bm, models.BookmarkModel{
			UserID:     userID,
			LanguageID: languageID,
			Title:      models.ArchiveBookmarkTitle,
		}).Error
	if err != nil {
		return nil, err
	}
	return bm, nil
}

// sampleResponses draws each rank pool independently, shuffles it and takes
// the rank quota. Short pools contribute everything they have; there is no
// cross-rank backfill.
func (s *Service) sampleResponses(tx *gorm.DB, userID, languageID string) ([]models.ResponseModel, error) {
	quotas := []struct {
		rank  int
		quota int
	}{
		{1, rank1Quota},
		{2, rank2Quota},
		{3, rank3Quota},
	}

	var sampled []models.ResponseModel
	for _, q := range quotas {
		pool, err := s.eligibleByRank(tx, userID, languageID, q.rank)
		if err != nil {
			return nil, err
		}
		rand.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		take := q.quota
		if len(pool) < take {
			take = len(pool)
		}
		sampled = append(sampled, pool[:take]...)
	}
	return sampled, nil
}

// eligibleByRank pools owned, unpaused responses that sit in at least one
// real user deck (non-empty title, not the reserved archive).
func (s *Service) eligibleByRank(tx *gorm.DB, userID, languageID string, rank int) ([]models.ResponseModel, error) {
	deckMembers := tx.Session(&gorm.Session{NewDB: true}).
		Table("response_bookmarks").
		Select("response_bookmarks.response_id").
		Joins("JOIN bookmarks ON bookmarks.id = response_bookmarks.bookmark_id").
		Where("bookmarks.deleted_at IS NULL AND bookmarks.title <> '' AND bookmarks.title <> ?", models.ArchiveBookmarkTitle)

	var pool []models.ResponseModel
	err := tx.
		Where("user_id = ? AND language_id = ? AND `rank` = ? AND is_paused = ?", userID, languageID, rank, false).
		Where("id IN (?)", deckMembers).
		Find(&pool).Error
	return pool, err
}

// archiveSampled attaches sampled responses to the archive deck in paced
// sub-batches. Attachment is idempotent.
func (s *Service) archiveSampled(ctx context.Context, userID, languageID string, sampled []models.ResponseModel) error {
	archive, err := s.ensureArchiveBookmark(s.db.WithContext(ctx), userID, languageID)
	if err != nil {
		return err
	}

	batch := s.pacing.TagBatchSize
	if batch <= 0 {
		batch = len(sampled)
	}
	for i := 0; i < len(sampled); i += batch {
		if i > 0 {
			s.sleep(ctx, s.pacing.TagPause)
		}
		end := i + batch
		if end > len(sampled) {
			end = len(sampled)
		}
		chunk := make([]models.ResponseModel, end-i)
		copy(chunk, sampled[i:end])
		if err := s.db.WithContext(ctx).Model(archive).Association("Responses").Append(&chunk); err != nil {
			return err
		}
	}
	return nil
}

// enrich builds the API view: deck membership map plus community sharing
// annotation, both resolved in single batched queries.
func (s *Service) enrich(ctx context.Context, responses []models.ResponseModel) ([]ResponseView, error) {
	if len(responses) == 0 {
		return []ResponseView{}, nil
	}

	ids := make([]string, 0, len(responses))
	for _, r := range responses {
		ids = append(ids, r.ID)
	}

	type deckRow struct {
		ResponseID string
		BookmarkID string
		Title      string
	}
	var rows []deckRow
	err := s.db.WithContext(ctx).
		Table("response_bookmarks").
		Select("response_bookmarks.response_id AS response_id, bookmarks.id AS bookmark_id, bookmarks.title AS title").
		Joins("JOIN bookmarks ON bookmarks.id = response_bookmarks.bookmark_id").
		Where("response_bookmarks.response_id IN ?", ids).
		Where("bookmarks.deleted_at IS NULL AND bookmarks.title <> '' AND bookmarks.title <> ?", models.ArchiveBookmarkTitle).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	decksByResponse := make(map[string]map[string]string, len(responses))
	for _, row := range rows {
		if decksByResponse[row.ResponseID] == nil {
			decksByResponse[row.ResponseID] = map[string]string{}
		}
		decksByResponse[row.ResponseID][row.BookmarkID] = row.Title
	}

	active, err := s.sharing.ActiveShares(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]ResponseView, 0, len(responses))
	for i := range responses {
		r := &responses[i]
		decks := decksByResponse[r.ID]
		if decks == nil {
			decks = map[string]string{}
		}
		views = append(views, ResponseView{
			ID:                  r.ID,
			Content:             r.Content,
			Rank:                r.Rank,
			IsPaused:            r.IsPaused,
			Breakdown:           r.Breakdown,
			Furigana:            r.Furigana,
			ShowPhonetic:        r.ShowPhonetic,
			ShowKana:            r.ShowKana,
			AudioURL:            r.AudioURL,
			Source:              r.Source,
			CommunityResponseID: r.CommunityResponseID,
			Decks:               decks,
			IsSharedToCommunity: s.sharing.IsShared(r, active),
		})
	}
	return views, nil
}

func maxTime(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.After(*current) {
		c := candidate
		return &c
	}
	return current
}

func defaultSleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
