package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gatesweb/emlak-directory/internal/dto"
	"github.com/gatesweb/emlak-directory/internal/metrics"
	"github.com/gatesweb/emlak-directory/internal/repository"
)

// Batch ceilings keep a single HTTP-triggered run bounded; callers repeat
// runs to work through larger datasets.
const (
	defaultBatchLimit = 500
	maxBatchLimit     = 2000

	enrichConcurrency = 5
)

// ErrInvalidCount rejects non-positive generation or expansion targets.
var ErrInvalidCount = errors.New("count must be positive")

// PipelineService drives the dataset lifecycle: generate records, attach
// emails, verify deliverability and expand towards a verified target.
type PipelineService struct {
	repo      repository.CompaniesRepository
	generator *Generator
	enricher  *Enricher
	verifier  *Verifier
	expander  *Expander
	log       *zap.Logger
}

// NewPipelineService wires the pipeline stages together.
func NewPipelineService(
	repo repository.CompaniesRepository,
	generator *Generator,
	enricher *Enricher,
	verifier *Verifier,
	expander *Expander,
	log *zap.Logger,
) *PipelineService {
	return &PipelineService{
		repo:      repo,
		generator: generator,
		enricher:  enricher,
		verifier:  verifier,
		expander:  expander,
		log:       log,
	}
}

// Generate produces count fresh records and persists them.
func (s *PipelineService) Generate(ctx context.Context, count int) (dto.GenerateSummary, error) {
	if count <= 0 {
		return dto.GenerateSummary{}, ErrInvalidCount
	}

	companies := s.generator.Batch(count)
	metrics.CompaniesGenerated.WithLabelValues("generate").Add(float64(len(companies)))

	result, err := s.repo.BulkUpsert(ctx, companies)
	if err != nil {
		return dto.GenerateSummary{}, err
	}

	s.log.Info("generation run completed",
		zap.Int("requested", count),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
	)

	return dto.GenerateSummary{
		Requested: count,
		Generated: len(companies),
		Inserted:  result.Inserted,
		Updated:   result.Updated,
	}, nil
}

// Enrich attaches emails to records that have none yet, scraping company
// websites concurrently with a bounded worker group.
func (s *PipelineService) Enrich(ctx context.Context, limit int) (dto.EnrichSummary, error) {
	limit = clampLimit(limit)

	companies, err := s.repo.ListMissingEmail(ctx, limit)
	if err != nil {
		return dto.EnrichSummary{}, err
	}
	if len(companies) == 0 {
		return dto.EnrichSummary{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(enrichConcurrency)
	for i := range companies {
		i := i
		g.Go(func() error {
			s.enricher.Enrich(gctx, &companies[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return dto.EnrichSummary{}, err
	}

	summary := dto.EnrichSummary{Processed: len(companies)}
	for i := range companies {
		if companies[i].EmailSource == EmailSourceScraped {
			summary.Scraped++
		} else {
			summary.Generated++
		}
		if err := s.repo.SetEmail(ctx, companies[i].ID, companies[i].Email, companies[i].EmailSource); err != nil {
			return summary, err
		}
	}

	s.log.Info("enrichment run completed",
		zap.Int("processed", summary.Processed),
		zap.Int("scraped", summary.Scraped),
		zap.Int("generated", summary.Generated),
	)

	return summary, nil
}

// Verify labels unverified records and persists the outcomes.
func (s *PipelineService) Verify(ctx context.Context, limit int) (dto.VerifySummary, error) {
	limit = clampLimit(limit)

	companies, err := s.repo.ListUnverified(ctx, limit)
	if err != nil {
		return dto.VerifySummary{}, err
	}
	if len(companies) == 0 {
		return dto.VerifySummary{}, nil
	}

	deliverable, bad, err := s.verifier.VerifyBatch(ctx, companies)
	if err != nil {
		return dto.VerifySummary{}, err
	}

	for i := range companies {
		if companies[i].EmailVerification == nil {
			continue
		}
		if err := s.repo.SetVerification(ctx, companies[i].ID, *companies[i].EmailVerification); err != nil {
			return dto.VerifySummary{}, err
		}
	}

	summary := dto.VerifySummary{
		Processed:   len(companies),
		Deliverable: deliverable,
		Bad:         bad,
	}
	if summary.Processed > 0 {
		summary.SuccessRate = float64(deliverable) / float64(summary.Processed) * 100
	}

	s.log.Info("verification run completed",
		zap.Int("processed", summary.Processed),
		zap.Int("deliverable", deliverable),
		zap.Int("bad", bad),
	)

	return summary, nil
}

// Expand grows the dataset until it holds targetVerified deliverable
// records. A no-op when the target is already met.
func (s *PipelineService) Expand(ctx context.Context, targetVerified int) (dto.ExpandSummary, error) {
	if targetVerified <= 0 {
		return dto.ExpandSummary{}, ErrInvalidCount
	}

	current, err := s.repo.VerifiedCount(ctx)
	if err != nil {
		return dto.ExpandSummary{}, err
	}

	summary := dto.ExpandSummary{
		TargetVerified: targetVerified,
		VerifiedBefore: current,
	}

	needed := targetVerified - current
	if needed <= 0 {
		summary.AlreadySatisfied = true
		return summary, nil
	}

	companies := s.expander.Expand(ctx, needed)
	metrics.CompaniesGenerated.WithLabelValues("expand").Add(float64(len(companies)))

	result, err := s.repo.BulkUpsert(ctx, companies)
	if err != nil {
		return summary, err
	}
	summary.Added = result.Inserted

	s.log.Info("expansion run completed",
		zap.Int("target", targetVerified),
		zap.Int("verified_before", current),
		zap.Int("added", result.Inserted),
	)

	return summary, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultBatchLimit
	}
	if limit > maxBatchLimit {
		return maxBatchLimit
	}
	return limit
}
