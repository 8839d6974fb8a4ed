package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/horizon-rp/department-backend/internal/model"
	"github.com/horizon-rp/department-backend/internal/repository"
)

// ArchiveService serves the examiner-facing result archive.
type ArchiveService struct {
	results *repository.ResultRepository
	log     zerolog.Logger
}

// NewArchiveService creates a new ArchiveService.
func NewArchiveService(results *repository.ResultRepository, log zerolog.Logger) *ArchiveService {
	return &ArchiveService{
		results: results,
		log:     log.With().Str("component", "archive_service").Logger(),
	}
}

// ListResults returns a page of archived/unarchived results.
func (s *ArchiveService) ListResults(ctx context.Context, page, perPage int, examTypeID *uuid.UUID, archived *bool) ([]repository.ResultRow, int64, error) {
	return s.results.ListResults(ctx, page, perPage, examTypeID, archived)
}

// SetArchived toggles the archived flag on a result.
func (s *ArchiveService) SetArchived(ctx context.Context, resultID uuid.UUID, archived bool) error {
	return s.results.SetArchived(ctx, resultID, archived)
}

// LatestResult returns the candidate's most recent persisted result.
func (s *ArchiveService) LatestResult(ctx context.Context, candidateID uuid.UUID) (*model.Result, error) {
	return s.results.GetLatestByCandidate(ctx, candidateID)
}
