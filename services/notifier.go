package services

import (
	"context"
	"time"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"go.uber.org/zap"
)

// Notifier delivers engine side effects. Calls never fail the operation that
// triggered them; implementations log their own errors.
type Notifier interface {
	NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int)
	NotifyMatchConfirmed(ctx context.Context, match *models.Match)
	NotifyMatchDisputed(ctx context.Context, match *models.Match)
	NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome)
}

// Имена событий в логах.
const (
	EventConfirmationRequired = "CONFIRMATION_REQUIRED"
	EventMatchConfirmed       = "MATCH_CONFIRMED"
	EventMatchDisputed        = "MATCH_DISPUTED"
	EventStageAdvanced        = "STAGE_ADVANCED"
)

type multiNotifier struct {
	notifiers []Notifier
}

// NewMultiNotifier fans every notification out to all non-nil notifiers in order.
func NewMultiNotifier(notifiers ...Notifier) Notifier {
	active := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			active = append(active, n)
		}
	}
	return &multiNotifier{notifiers: active}
}

func (m *multiNotifier) NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int) {
	for _, n := range m.notifiers {
		n.NotifyPendingConfirmation(ctx, match, awaitingTeamID)
	}
}

func (m *multiNotifier) NotifyMatchConfirmed(ctx context.Context, match *models.Match) {
	for _, n := range m.notifiers {
		n.NotifyMatchConfirmed(ctx, match)
	}
}

func (m *multiNotifier) NotifyMatchDisputed(ctx context.Context, match *models.Match) {
	for _, n := range m.notifiers {
		n.NotifyMatchDisputed(ctx, match)
	}
}

func (m *multiNotifier) NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome) {
	for _, n := range m.notifiers {
		n.NotifyStageAdvanced(ctx, outcome)
	}
}

type logNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) Notifier {
	return &logNotifier{logger: logger.Named("notifications")}
}

func matchFields(match *models.Match) []zap.Field {
	fields := []zap.Field{
		zap.Int("tournament_id", match.TournamentID),
		zap.Int("match_id", match.ID),
		zap.String("stage", string(match.Stage)),
		zap.String("status", string(match.Status)),
		zap.Int("home_team_id", match.HomeTeamID),
		zap.Int("away_team_id", match.AwayTeamID),
	}
	if match.HomeScore != nil && match.AwayScore != nil {
		fields = append(fields, zap.Int("home_score", *match.HomeScore), zap.Int("away_score", *match.AwayScore))
	}
	return fields
}

func (n *logNotifier) NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int) {
	fields := append(matchFields(match), zap.String("event", EventConfirmationRequired), zap.Int("awaiting_team_id", awaitingTeamID))
	n.logger.Info("match result awaits confirmation", fields...)
}

func (n *logNotifier) NotifyMatchConfirmed(ctx context.Context, match *models.Match) {
	fields := append(matchFields(match), zap.String("event", EventMatchConfirmed))
	n.logger.Info("match result confirmed", fields...)
}

func (n *logNotifier) NotifyMatchDisputed(ctx context.Context, match *models.Match) {
	fields := append(matchFields(match), zap.String("event", EventMatchDisputed), zap.String("reason", derefString(match.DisputeReason)))
	n.logger.Warn("match result disputed", fields...)
}

func (n *logNotifier) NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome) {
	fields := []zap.Field{
		zap.String("event", EventStageAdvanced),
		zap.Int("tournament_id", outcome.TournamentID),
		zap.String("from", string(outcome.From)),
		zap.String("to", string(outcome.To)),
		zap.Int("matches_created", len(outcome.Matches)),
	}
	if outcome.Stage != "" {
		fields = append(fields, zap.String("stage", string(outcome.Stage)))
	}
	if outcome.ChampionTeamID != nil {
		fields = append(fields, zap.Int("champion_team_id", *outcome.ChampionTeamID))
	}
	n.logger.Info("tournament stage advanced", fields...)
}

// EventPublisher is the part of events.Publisher the notifier needs.
type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload interface{}) error
}

type eventNotifier struct {
	publisher EventPublisher
	logger    *zap.Logger
}

func NewEventNotifier(publisher EventPublisher, logger *zap.Logger) Notifier {
	return &eventNotifier{publisher: publisher, logger: logger}
}

func newMatchEvent(match *models.Match) events.MatchEvent {
	return events.MatchEvent{
		TournamentID: match.TournamentID,
		MatchID:      match.ID,
		Stage:        string(match.Stage),
		Status:       string(match.Status),
		HomeTeamID:   match.HomeTeamID,
		AwayTeamID:   match.AwayTeamID,
		HomeScore:    match.HomeScore,
		AwayScore:    match.AwayScore,
		Reason:       derefString(match.DisputeReason),
		OccurredAt:   time.Now().UTC(),
	}
}

func (n *eventNotifier) publish(ctx context.Context, subject string, payload interface{}) {
	if err := n.publisher.Publish(ctx, subject, payload); err != nil {
		n.logger.Error("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}

func (n *eventNotifier) NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int) {
	ev := newMatchEvent(match)
	ev.AwaitingTeamID = awaitingTeamID
	n.publish(ctx, events.SubjectConfirmationRequired, ev)
}

func (n *eventNotifier) NotifyMatchConfirmed(ctx context.Context, match *models.Match) {
	n.publish(ctx, events.SubjectMatchConfirmed, newMatchEvent(match))
}

func (n *eventNotifier) NotifyMatchDisputed(ctx context.Context, match *models.Match) {
	n.publish(ctx, events.SubjectMatchDisputed, newMatchEvent(match))
}

func (n *eventNotifier) NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome) {
	n.publish(ctx, events.SubjectStageAdvanced, events.StageEvent{
		TournamentID:   outcome.TournamentID,
		FromStatus:     string(outcome.From),
		ToStatus:       string(outcome.To),
		Stage:          string(outcome.Stage),
		MatchesCreated: len(outcome.Matches),
		ChampionTeamID: outcome.ChampionTeamID,
		OccurredAt:     time.Now().UTC(),
	})
}

// RoomBroadcaster is implemented by brackets.Hub.
type RoomBroadcaster interface {
	BroadcastToRoom(roomID string, message brackets.WebSocketMessage)
}

type hubNotifier struct {
	hub RoomBroadcaster
}

func NewHubNotifier(hub RoomBroadcaster) Notifier {
	return &hubNotifier{hub: hub}
}

func (n *hubNotifier) NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int) {
	ev := newMatchEvent(match)
	ev.AwaitingTeamID = awaitingTeamID
	n.hub.BroadcastToRoom(brackets.TournamentRoom(match.TournamentID), brackets.WebSocketMessage{
		Type:    brackets.MessageMatchPending,
		Payload: ev,
	})
}

func (n *hubNotifier) NotifyMatchConfirmed(ctx context.Context, match *models.Match) {
	n.hub.BroadcastToRoom(brackets.TournamentRoom(match.TournamentID), brackets.WebSocketMessage{
		Type:    brackets.MessageMatchConfirmed,
		Payload: newMatchEvent(match),
	})
}

func (n *hubNotifier) NotifyMatchDisputed(ctx context.Context, match *models.Match) {
	n.hub.BroadcastToRoom(brackets.TournamentRoom(match.TournamentID), brackets.WebSocketMessage{
		Type:    brackets.MessageMatchDisputed,
		Payload: newMatchEvent(match),
	})
}

func (n *hubNotifier) NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome) {
	n.hub.BroadcastToRoom(brackets.TournamentRoom(outcome.TournamentID), brackets.WebSocketMessage{
		Type:    brackets.MessageStageAdvanced,
		Payload: outcome,
	})
}
