package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Dosada05/tournament-engine/locks"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"github.com/Dosada05/tournament-engine/storage"
	"go.uber.org/zap"
)

const reasonEvidenceRejected = "evidence verification failed"

var ErrEvidenceStorageDisabled = errors.New("evidence storage is not configured")

// SubmitResultInput is one team's report, with scores from that team's point of view.
type SubmitResultInput struct {
	MatchID         int    `json:"-"`
	TeamID          int    `json:"team_id"`
	Score           int    `json:"score"`
	OpponentScore   int    `json:"opponent_score"`
	ExtraTime       bool   `json:"extra_time"`
	Penalties       bool   `json:"penalties"`
	PenaltyWinnerID *int   `json:"penalty_winner_id,omitempty"`
	EvidenceKey     string `json:"evidence_key,omitempty"`
}

// report returns the submission in home/away orientation.
func (in SubmitResultInput) report(home bool) models.ScoreReport {
	r := models.ScoreReport{
		HomeScore:       in.Score,
		AwayScore:       in.OpponentScore,
		ExtraTime:       in.ExtraTime,
		Penalties:       in.Penalties,
		PenaltyWinnerID: in.PenaltyWinnerID,
		EvidenceKey:     in.EvidenceKey,
	}
	if !home {
		r.HomeScore, r.AwayScore = in.OpponentScore, in.Score
	}
	return r
}

// ResolveDisputeInput is the organizer's definitive result for a disputed match.
type ResolveDisputeInput struct {
	MatchID         int  `json:"-"`
	HomeScore       int  `json:"home_score"`
	AwayScore       int  `json:"away_score"`
	ExtraTime       bool `json:"extra_time"`
	Penalties       bool `json:"penalties"`
	PenaltyWinnerID *int `json:"penalty_winner_id,omitempty"`
}

type ResultService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	Submit(ctx context.Context, input SubmitResultInput) (*models.Match, error)
	Reopen(ctx context.Context, matchID int) (*models.Match, error)
	ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*models.Match, error)
	UploadEvidence(ctx context.Context, matchID, teamID int, filename, contentType string, body io.Reader) (*storage.UploadResult, error)
}

type resultService struct {
	store       repositories.Store
	locker      locks.Locker
	progression ProgressionController
	notifier    Notifier
	verifier    Verifier
	evidence    storage.EvidenceStore
	logger      *zap.Logger
}

// NewResultService wires the reconciliation flow. verifier and evidence may be nil.
func NewResultService(
	store repositories.Store,
	locker locks.Locker,
	progression ProgressionController,
	notifier Notifier,
	verifier Verifier,
	evidence storage.EvidenceStore,
	logger *zap.Logger,
) ResultService {
	return &resultService{
		store:       store,
		locker:      locker,
		progression: progression,
		notifier:    notifier,
		verifier:    verifier,
		evidence:    evidence,
		logger:      logger.Named("results"),
	}
}

func (s *resultService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return m, nil
}

type submissionOutcome int

const (
	outcomePending submissionOutcome = iota
	outcomeConfirmed
	outcomeDisputed
)

func (s *resultService) Submit(ctx context.Context, input SubmitResultInput) (*models.Match, error) {
	unlock, err := s.locker.Lock(ctx, locks.MatchKey(input.MatchID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		match   *models.Match
		outcome submissionOutcome
	)
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		m, err := tx.Matches().GetForUpdate(ctx, input.MatchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if !m.Involves(input.TeamID) {
			return fmt.Errorf("%w: team %d, match %d", ErrUnauthorizedSubmission, input.TeamID, m.ID)
		}
		if m.Status != models.MatchScheduled && m.Status != models.MatchPending {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidMatchState, m.ID, m.Status)
		}

		home := m.IsHome(input.TeamID)
		if m.Result.HasSubmitted(home) {
			return fmt.Errorf("%w: team %d, match %d", ErrDuplicateSubmission, input.TeamID, m.ID)
		}

		report := input.report(home)
		if err := validateReport(m, report); err != nil {
			return err
		}
		if input.EvidenceKey != "" && !strings.HasPrefix(input.EvidenceKey, storage.EvidencePrefix(m.ID, input.TeamID)) {
			return fmt.Errorf("%w: evidence %s does not belong to team %d in match %d", ErrValidationFailed, input.EvidenceKey, input.TeamID, m.ID)
		}

		verified := true
		if s.verifier != nil {
			verified, err = s.verifier.Verify(ctx, report, input.EvidenceKey)
			if err != nil {
				return fmt.Errorf("evidence verification for match %d: %w", m.ID, err)
			}
		}

		m.Result.Record(home, report)
		switch {
		case !verified:
			m.Status = models.MatchDisputed
			m.DisputeReason = stringPtr(reasonEvidenceRejected)
			outcome = outcomeDisputed
		case m.Result.Confirmed():
			homeReport, awayReport := *m.Result.HomeReport, *m.Result.AwayReport
			if homeReport.Agrees(awayReport) {
				m.Result.Finalize(m, homeReport)
				outcome = outcomeConfirmed
			} else {
				m.Status = models.MatchDisputed
				m.DisputeReason = stringPtr(disputeReason(homeReport, awayReport))
				outcome = outcomeDisputed
			}
		default:
			m.Status = models.MatchPending
			outcome = outcomePending
		}

		if err := tx.Matches().Update(ctx, m); err != nil {
			return handleRepositoryError(err)
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("result submitted",
		zap.Int("match_id", match.ID), zap.Int("team_id", input.TeamID), zap.String("status", string(match.Status)))

	switch outcome {
	case outcomePending:
		s.notifier.NotifyPendingConfirmation(ctx, match, match.OpponentOf(input.TeamID))
	case outcomeDisputed:
		s.notifier.NotifyMatchDisputed(ctx, match)
	case outcomeConfirmed:
		return s.afterConfirmation(ctx, match)
	}
	return match, nil
}

func (s *resultService) Reopen(ctx context.Context, matchID int) (*models.Match, error) {
	unlock, err := s.locker.Lock(ctx, locks.MatchKey(matchID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var match *models.Match
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		m, err := tx.Matches().GetForUpdate(ctx, matchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if m.Status != models.MatchDisputed {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidMatchState, m.ID, m.Status)
		}

		m.Result.Reset()
		m.Status = models.MatchScheduled
		m.DisputeReason = nil
		m.HomeScore, m.AwayScore = nil, nil
		m.ExtraTime, m.Penalties = false, false
		m.PenaltyWinnerID = nil

		if err := tx.Matches().Update(ctx, m); err != nil {
			return handleRepositoryError(err)
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("disputed match reopened", zap.Int("match_id", matchID))
	return match, nil
}

func (s *resultService) ResolveDispute(ctx context.Context, input ResolveDisputeInput) (*models.Match, error) {
	unlock, err := s.locker.Lock(ctx, locks.MatchKey(input.MatchID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var match *models.Match
	err = s.store.WithinTx(ctx, func(tx repositories.Store) error {
		m, err := tx.Matches().GetForUpdate(ctx, input.MatchID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if m.Status != models.MatchDisputed {
			return fmt.Errorf("%w: match %d is %s", ErrInvalidMatchState, m.ID, m.Status)
		}

		report := models.ScoreReport{
			HomeScore:       input.HomeScore,
			AwayScore:       input.AwayScore,
			ExtraTime:       input.ExtraTime,
			Penalties:       input.Penalties,
			PenaltyWinnerID: input.PenaltyWinnerID,
		}
		if err := validateReport(m, report); err != nil {
			return err
		}
		m.Result.Finalize(m, report)

		if err := tx.Matches().Update(ctx, m); err != nil {
			return handleRepositoryError(err)
		}
		match = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("dispute resolved by override",
		zap.Int("match_id", match.ID), zap.Int("home_score", input.HomeScore), zap.Int("away_score", input.AwayScore))
	return s.afterConfirmation(ctx, match)
}

// afterConfirmation runs once a confirmation is committed. A progression
// error is returned together with the confirmed match.
func (s *resultService) afterConfirmation(ctx context.Context, match *models.Match) (*models.Match, error) {
	s.notifier.NotifyMatchConfirmed(ctx, match)
	if _, err := s.progression.Advance(ctx, match.TournamentID); err != nil {
		return match, err
	}
	return match, nil
}

func (s *resultService) UploadEvidence(ctx context.Context, matchID, teamID int, filename, contentType string, body io.Reader) (*storage.UploadResult, error) {
	if s.evidence == nil {
		return nil, ErrEvidenceStorageDisabled
	}
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if !m.Involves(teamID) {
		return nil, fmt.Errorf("%w: team %d, match %d", ErrUnauthorizedSubmission, teamID, m.ID)
	}
	if m.Status != models.MatchScheduled && m.Status != models.MatchPending {
		return nil, fmt.Errorf("%w: match %d is %s", ErrInvalidMatchState, m.ID, m.Status)
	}

	key := storage.EvidenceKey(matchID, teamID, filename)
	res, err := s.evidence.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, fmt.Errorf("failed to store evidence for match %d: %w", matchID, err)
	}
	return res, nil
}

// validateReport checks a report against the match stage before anything is written.
func validateReport(m *models.Match, r models.ScoreReport) error {
	if r.HomeScore < 0 || r.AwayScore < 0 {
		return fmt.Errorf("%w: scores cannot be negative", ErrValidationFailed)
	}

	level := r.HomeScore == r.AwayScore
	if !m.Stage.IsKnockout() {
		if r.Penalties || r.PenaltyWinnerID != nil {
			return fmt.Errorf("%w: group matches have no penalty shoot-out", ErrValidationFailed)
		}
		return nil
	}

	if level {
		if !r.Penalties || r.PenaltyWinnerID == nil || !m.Involves(*r.PenaltyWinnerID) {
			return fmt.Errorf("%w: match %d reported %d-%d", ErrKnockoutDrawUnresolved, m.ID, r.HomeScore, r.AwayScore)
		}
		return nil
	}
	if r.Penalties || r.PenaltyWinnerID != nil {
		return fmt.Errorf("%w: penalty winner given for a decided score", ErrValidationFailed)
	}
	return nil
}

func disputeReason(home, away models.ScoreReport) string {
	parts := make([]string, 0, 4)
	if home.HomeScore != away.HomeScore || home.AwayScore != away.AwayScore {
		parts = append(parts, fmt.Sprintf("home team reported %d-%d, away team reported %d-%d",
			home.HomeScore, home.AwayScore, away.HomeScore, away.AwayScore))
	}
	if home.ExtraTime != away.ExtraTime {
		parts = append(parts, "reports disagree on extra time")
	}
	if home.Penalties != away.Penalties {
		parts = append(parts, "reports disagree on penalties")
	}
	if !samePenaltyWinner(home.PenaltyWinnerID, away.PenaltyWinnerID) {
		parts = append(parts, "reports name different penalty winners")
	}
	if len(parts) == 0 {
		return "reports do not match"
	}
	return strings.Join(parts, "; ")
}

func samePenaltyWinner(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
