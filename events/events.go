package events

import "time"

const (
	DefaultStream = "TOURNAMENTS"

	SubjectConfirmationRequired = "tournament.match.confirmation_required"
	SubjectMatchConfirmed       = "tournament.match.confirmed"
	SubjectMatchDisputed        = "tournament.match.disputed"
	SubjectStageAdvanced        = "tournament.stage.advanced"

	SubjectWildcard = "tournament.>"
)

// MatchEvent описывает изменение состояния матча.
type MatchEvent struct {
	TournamentID   int       `json:"tournament_id"`
	MatchID        int       `json:"match_id"`
	Stage          string    `json:"stage"`
	Status         string    `json:"status"`
	HomeTeamID     int       `json:"home_team_id"`
	AwayTeamID     int       `json:"away_team_id"`
	HomeScore      *int      `json:"home_score,omitempty"`
	AwayScore      *int      `json:"away_score,omitempty"`
	AwaitingTeamID int       `json:"awaiting_team_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type StageEvent struct {
	TournamentID   int       `json:"tournament_id"`
	FromStatus     string    `json:"from_status"`
	ToStatus       string    `json:"to_status"`
	Stage          string    `json:"stage,omitempty"`
	MatchesCreated int       `json:"matches_created"`
	ChampionTeamID *int      `json:"champion_team_id,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
