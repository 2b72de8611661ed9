package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
	"go.uber.org/zap"
)

// EmailSender отправляет HTML-письма.
type EmailSender interface {
	SendEmail(to []string, subject string, body string) error
}

type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if len(to) == 0 {
		return nil
	}
	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (порт 465)
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (порт 587)
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

var emailTemplates = template.Must(template.New("emails").Parse(`
{{define "pending"}}<p>Team <b>{{.Opponent}}</b> reported {{.Home}} {{.HomeScore}} - {{.AwayScore}} {{.Away}} ({{.Stage}}).</p>
<p>Please submit your result for match #{{.MatchID}} to confirm it.</p>{{end}}
{{define "confirmed"}}<p>The result {{.Home}} {{.HomeScore}} - {{.AwayScore}} {{.Away}} ({{.Stage}}) is confirmed.</p>{{end}}
{{define "disputed"}}<p>The reports for {{.Home}} vs {{.Away}} ({{.Stage}}) do not match: {{.Reason}}.</p>
<p>The organizer will review match #{{.MatchID}}.</p>{{end}}
`))

type matchEmailData struct {
	MatchID   int
	Stage     models.MatchStage
	Home      string
	Away      string
	Opponent  string
	HomeScore int
	AwayScore int
	Reason    string
}

func renderEmail(name string, data matchEmailData) (string, error) {
	var body bytes.Buffer
	if err := emailTemplates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", name, err)
	}
	return body.String(), nil
}

type emailNotifier struct {
	sender EmailSender
	store  repositories.Store
	logger *zap.Logger
	// async is false in tests so sends happen before the call returns.
	async bool
}

// NewEmailNotifier mails team managers about their matches. Stage changes are not mailed.
func NewEmailNotifier(sender EmailSender, store repositories.Store, logger *zap.Logger) Notifier {
	return &emailNotifier{sender: sender, store: store, logger: logger, async: true}
}

func (n *emailNotifier) NotifyPendingConfirmation(ctx context.Context, match *models.Match, awaitingTeamID int) {
	n.dispatch(ctx, match, "pending", "Result awaiting your confirmation", []int{awaitingTeamID})
}

func (n *emailNotifier) NotifyMatchConfirmed(ctx context.Context, match *models.Match) {
	n.dispatch(ctx, match, "confirmed", "Match result confirmed", []int{match.HomeTeamID, match.AwayTeamID})
}

func (n *emailNotifier) NotifyMatchDisputed(ctx context.Context, match *models.Match) {
	n.dispatch(ctx, match, "disputed", "Match result disputed", []int{match.HomeTeamID, match.AwayTeamID})
}

func (n *emailNotifier) NotifyStageAdvanced(ctx context.Context, outcome *ProgressionOutcome) {}

func (n *emailNotifier) dispatch(ctx context.Context, match *models.Match, tmpl, subject string, teamIDs []int) {
	m := *match
	send := func(ctx context.Context) {
		if err := n.send(ctx, &m, tmpl, subject, teamIDs); err != nil {
			n.logger.Error("failed to send match email",
				zap.Int("match_id", m.ID), zap.String("template", tmpl), zap.Error(err))
		}
	}
	if !n.async {
		send(ctx)
		return
	}
	go send(context.WithoutCancel(ctx))
}

func (n *emailNotifier) send(ctx context.Context, match *models.Match, tmpl, subject string, teamIDs []int) error {
	home, err := n.store.Teams().GetByID(ctx, match.HomeTeamID)
	if err != nil {
		return err
	}
	away, err := n.store.Teams().GetByID(ctx, match.AwayTeamID)
	if err != nil {
		return err
	}

	data := matchEmailData{
		MatchID: match.ID,
		Stage:   match.Stage,
		Home:    home.Name,
		Away:    away.Name,
		Reason:  derefString(match.DisputeReason),
	}
	if match.Result != nil {
		data.HomeScore, data.AwayScore = match.Result.HomeScore, match.Result.AwayScore
	}

	for _, teamID := range teamIDs {
		team := home
		data.Opponent = away.Name
		if teamID == away.ID {
			team = away
			data.Opponent = home.Name
		}
		if team.ManagerID == nil {
			continue
		}
		manager, err := n.store.Users().GetByID(ctx, *team.ManagerID)
		if err != nil {
			return fmt.Errorf("manager of team %d: %w", team.ID, err)
		}
		body, err := renderEmail(tmpl, data)
		if err != nil {
			return err
		}
		if err := n.sender.SendEmail([]string{manager.Email}, subject, body); err != nil {
			return err
		}
	}
	return nil
}
