package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Dosada05/tournament-engine/brackets"
	"github.com/Dosada05/tournament-engine/events"
	"github.com/Dosada05/tournament-engine/models"
	"go.uber.org/zap"
)

type publishedEvent struct {
	subject string
	payload interface{}
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	p.published = append(p.published, publishedEvent{subject: subject, payload: payload})
	return p.err
}

type fakeBroadcaster struct {
	rooms    []string
	messages []brackets.WebSocketMessage
}

func (b *fakeBroadcaster) BroadcastToRoom(roomID string, message brackets.WebSocketMessage) {
	b.rooms = append(b.rooms, roomID)
	b.messages = append(b.messages, message)
}

func sampleMatch() *models.Match {
	home, away := 3, 1
	return &models.Match{
		ID:           11,
		TournamentID: 5,
		Stage:        models.StageSemi,
		HomeTeamID:   21,
		AwayTeamID:   22,
		Status:       models.MatchConfirmed,
		HomeScore:    &home,
		AwayScore:    &away,
	}
}

func TestMultiNotifierSkipsNil(t *testing.T) {
	first, second := &recordingNotifier{}, &recordingNotifier{}
	n := NewMultiNotifier(first, nil, second)
	ctx := context.Background()

	n.NotifyMatchConfirmed(ctx, sampleMatch())
	n.NotifyPendingConfirmation(ctx, sampleMatch(), 22)
	n.NotifyStageAdvanced(ctx, &ProgressionOutcome{TournamentID: 5, Advanced: true})

	for i, r := range []*recordingNotifier{first, second} {
		if len(r.confirmed) != 1 || len(r.pending) != 1 || len(r.advanced) != 1 {
			t.Errorf("notifier %d received %d/%d/%d calls", i, len(r.confirmed), len(r.pending), len(r.advanced))
		}
	}
}

func TestEventNotifierSubjects(t *testing.T) {
	publisher := &fakePublisher{}
	n := NewEventNotifier(publisher, zap.NewNop())
	ctx := context.Background()

	n.NotifyPendingConfirmation(ctx, sampleMatch(), 22)
	n.NotifyMatchConfirmed(ctx, sampleMatch())
	n.NotifyMatchDisputed(ctx, sampleMatch())
	champion := 21
	n.NotifyStageAdvanced(ctx, &ProgressionOutcome{
		TournamentID:   5,
		From:           models.StatusKnockout,
		To:             models.StatusCompleted,
		Stage:          models.StageFinal,
		ChampionTeamID: &champion,
		Advanced:       true,
	})

	want := []string{
		events.SubjectConfirmationRequired,
		events.SubjectMatchConfirmed,
		events.SubjectMatchDisputed,
		events.SubjectStageAdvanced,
	}
	if len(publisher.published) != len(want) {
		t.Fatalf("published %d events, want %d", len(publisher.published), len(want))
	}
	for i, subject := range want {
		if publisher.published[i].subject != subject {
			t.Errorf("event %d subject = %s, want %s", i, publisher.published[i].subject, subject)
		}
	}

	pending, ok := publisher.published[0].payload.(events.MatchEvent)
	if !ok || pending.AwaitingTeamID != 22 || pending.MatchID != 11 {
		t.Errorf("pending payload = %+v", publisher.published[0].payload)
	}
	stage, ok := publisher.published[3].payload.(events.StageEvent)
	if !ok || stage.ToStatus != string(models.StatusCompleted) || stage.ChampionTeamID == nil || *stage.ChampionTeamID != 21 {
		t.Errorf("stage payload = %+v", publisher.published[3].payload)
	}
}

func TestEventNotifierSwallowsPublishErrors(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("nats down")}
	n := NewEventNotifier(publisher, zap.NewNop())

	n.NotifyMatchConfirmed(context.Background(), sampleMatch())
	if len(publisher.published) != 1 {
		t.Errorf("publish attempts = %d, want 1", len(publisher.published))
	}
}

func TestHubNotifierBroadcastsToTournamentRoom(t *testing.T) {
	hub := &fakeBroadcaster{}
	n := NewHubNotifier(hub)
	ctx := context.Background()

	n.NotifyMatchDisputed(ctx, sampleMatch())
	n.NotifyStageAdvanced(ctx, &ProgressionOutcome{TournamentID: 5, Advanced: true})

	if len(hub.rooms) != 2 {
		t.Fatalf("broadcasts = %d, want 2", len(hub.rooms))
	}
	for _, room := range hub.rooms {
		if room != brackets.TournamentRoom(5) {
			t.Errorf("room = %s, want %s", room, brackets.TournamentRoom(5))
		}
	}
	if hub.messages[0].Type != brackets.MessageMatchDisputed || hub.messages[1].Type != brackets.MessageStageAdvanced {
		t.Errorf("message types = %s, %s", hub.messages[0].Type, hub.messages[1].Type)
	}
}

type sentEmail struct {
	to      []string
	subject string
	body    string
}

type fakeSender struct {
	sent []sentEmail
}

func (s *fakeSender) SendEmail(to []string, subject string, body string) error {
	s.sent = append(s.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func TestEmailNotifierMailsManagers(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t, nil)
	awayManager := e.createUser(t, "away@example.com", models.RoleManager)

	tournament, err := e.tournaments.Create(ctx, e.organizer.ID, CreateTournamentInput{Name: "Mail Cup", StartDate: testStart})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	home, err := e.teams.Register(ctx, e.manager.ID, tournament.ID, RegisterTeamInput{Name: "Lions"})
	if err != nil {
		t.Fatalf("Register home: %v", err)
	}
	away, err := e.teams.Register(ctx, awayManager.ID, tournament.ID, RegisterTeamInput{Name: "Tigers"})
	if err != nil {
		t.Fatalf("Register away: %v", err)
	}

	sender := &fakeSender{}
	n := &emailNotifier{sender: sender, store: e.store, logger: zap.NewNop()}

	homeScore, awayScore := 2, 0
	m := &models.Match{
		ID: 7, TournamentID: tournament.ID, Stage: models.StageGroup,
		HomeTeamID: home.ID, AwayTeamID: away.ID,
		Result: &models.Result{HomeScore: homeScore, AwayScore: awayScore},
	}

	n.NotifyPendingConfirmation(ctx, m, away.ID)
	if len(sender.sent) != 1 {
		t.Fatalf("pending emails = %d, want 1", len(sender.sent))
	}
	pending := sender.sent[0]
	if len(pending.to) != 1 || pending.to[0] != "away@example.com" {
		t.Errorf("pending recipient = %v", pending.to)
	}
	if !strings.Contains(pending.body, "Lions") || !strings.Contains(pending.body, "2 - 0") {
		t.Errorf("pending body = %q", pending.body)
	}

	m.Status = models.MatchConfirmed
	m.HomeScore, m.AwayScore = &homeScore, &awayScore
	n.NotifyMatchConfirmed(ctx, m)
	if len(sender.sent) != 3 {
		t.Fatalf("emails after confirmation = %d, want 3", len(sender.sent))
	}

	n.NotifyStageAdvanced(ctx, &ProgressionOutcome{TournamentID: tournament.ID, Advanced: true})
	if len(sender.sent) != 3 {
		t.Errorf("stage change sent an email")
	}
}
