// Package service implements moderation history over a bound repo
package service

import (
	"context"

	"moderato/internal/core/moderation"
	"moderato/internal/platform/logger"
	"moderato/internal/services/history/domain"
)

// Service implements domain.ReaderPort and domain.WriterPort
type Service struct {
	repo domain.Repo
	log  logger.Logger
}

// New constructs a history service
func New(repo domain.Repo) *Service {
	if repo == nil {
		panic("history: nil repo")
	}
	return &Service{repo: repo, log: *logger.Named("history")}
}

// Context returns the author's prior history within a thread
func (s *Service) Context(ctx context.Context, author, threadID string) (moderation.DecisionContext, error) {
	return s.repo.Context(ctx, author, threadID)
}

// OptedOut reports whether the author opted out of moderation messages
func (s *Service) OptedOut(ctx context.Context, author string) (bool, error) {
	return s.repo.OptedOut(ctx, author)
}

// AlreadyModerated reports whether the utterance was handled before
func (s *Service) AlreadyModerated(ctx context.Context, utteranceID string) (bool, error) {
	return s.repo.AlreadyModerated(ctx, utteranceID)
}

// RecordIntervention persists one finalized intervention
func (s *Service) RecordIntervention(ctx context.Context, rec domain.InterventionRecord) error {
	if err := s.repo.RecordIntervention(ctx, rec); err != nil {
		return err
	}
	s.log.Debug().Str("utterance", rec.UtteranceID).Str("strategy", string(rec.Strategy)).
		Msg("intervention recorded")
	return nil
}

// OptOut registers the author in the opt-out registry
func (s *Service) OptOut(ctx context.Context, author string) error {
	if err := s.repo.OptOut(ctx, author); err != nil {
		return err
	}
	s.log.Info().Str("author", author).Msg("author opted out")
	return nil
}
