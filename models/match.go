package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	ErrSelfMatch           = errors.New("a team cannot play against itself")
	ErrTeamNotInTournament = errors.New("team does not belong to this tournament")
)

type MatchStage string

const (
	StageGroup   MatchStage = "GROUP"
	StageRO16    MatchStage = "RO16"
	StageQuarter MatchStage = "QUARTER"
	StageSemi    MatchStage = "SEMI"
	StageFinal   MatchStage = "FINAL"
)

// KnockoutStages lists the knockout stages in playing order.
var KnockoutStages = []MatchStage{StageRO16, StageQuarter, StageSemi, StageFinal}

func (s MatchStage) IsKnockout() bool {
	switch s {
	case StageRO16, StageQuarter, StageSemi, StageFinal:
		return true
	}
	return false
}

// Order returns the position of the stage within a tournament, GROUP first.
func (s MatchStage) Order() int {
	switch s {
	case StageGroup:
		return 0
	case StageRO16:
		return 1
	case StageQuarter:
		return 2
	case StageSemi:
		return 3
	case StageFinal:
		return 4
	}
	return -1
}

type MatchStatus string

const (
	MatchScheduled MatchStatus = "SCHEDULED"
	MatchPending   MatchStatus = "PENDING"
	MatchConfirmed MatchStatus = "CONFIRMED"
	MatchDisputed  MatchStatus = "DISPUTED"
)

type Match struct {
	ID              int         `json:"id" db:"id"`
	Slug            string      `json:"slug" db:"slug"`
	TournamentID    int         `json:"tournament_id" db:"tournament_id"`
	Stage           MatchStage  `json:"stage" db:"stage"`
	GroupLabel      *string     `json:"group_label,omitempty" db:"group_label"`
	BracketSlot     int         `json:"bracket_slot" db:"bracket_slot"`
	HomeTeamID      int         `json:"home_team_id" db:"home_team_id"`
	AwayTeamID      int         `json:"away_team_id" db:"away_team_id"`
	MatchDate       time.Time   `json:"match_date" db:"match_date"`
	Status          MatchStatus `json:"status" db:"status"`
	HomeScore       *int        `json:"home_score,omitempty" db:"home_score"`
	AwayScore       *int        `json:"away_score,omitempty" db:"away_score"`
	ExtraTime       bool        `json:"extra_time" db:"extra_time"`
	Penalties       bool        `json:"penalties" db:"penalties"`
	PenaltyWinnerID *int        `json:"penalty_winner_id,omitempty" db:"penalty_winner_id"`
	DisputeReason   *string     `json:"dispute_reason,omitempty" db:"dispute_reason"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`

	Result   *Result `json:"result,omitempty" db:"-"`
	HomeTeam *Team   `json:"home_team,omitempty" db:"-"`
	AwayTeam *Team   `json:"away_team,omitempty" db:"-"`
}

// NewMatch builds a scheduled match together with its empty result.
func NewMatch(tournamentID int, home, away *Team, stage MatchStage, date time.Time) (*Match, error) {
	if home == nil || away == nil {
		return nil, errors.New("both teams are required")
	}
	if home.ID == away.ID {
		return nil, fmt.Errorf("%w: team %d", ErrSelfMatch, home.ID)
	}
	if home.TournamentID != tournamentID || away.TournamentID != tournamentID {
		return nil, fmt.Errorf("%w: tournament %d, teams %d and %d", ErrTeamNotInTournament, tournamentID, home.ID, away.ID)
	}
	return &Match{
		TournamentID: tournamentID,
		Stage:        stage,
		HomeTeamID:   home.ID,
		AwayTeamID:   away.ID,
		MatchDate:    date,
		Status:       MatchScheduled,
		Result:       &Result{},
		HomeTeam:     home,
		AwayTeam:     away,
	}, nil
}

func (m *Match) Involves(teamID int) bool {
	return m.HomeTeamID == teamID || m.AwayTeamID == teamID
}

func (m *Match) IsHome(teamID int) bool {
	return m.HomeTeamID == teamID
}

// OpponentOf returns the other side of the match, or 0 if teamID is not playing.
func (m *Match) OpponentOf(teamID int) int {
	switch teamID {
	case m.HomeTeamID:
		return m.AwayTeamID
	case m.AwayTeamID:
		return m.HomeTeamID
	}
	return 0
}

// Winner returns the team that advances from a confirmed match.
// The second return value is false when the scores are level and no penalty winner is recorded.
func (m *Match) Winner() (int, bool) {
	if m.Status != MatchConfirmed || m.HomeScore == nil || m.AwayScore == nil {
		return 0, false
	}
	switch {
	case *m.HomeScore > *m.AwayScore:
		return m.HomeTeamID, true
	case *m.AwayScore > *m.HomeScore:
		return m.AwayTeamID, true
	case m.Penalties && m.PenaltyWinnerID != nil && m.Involves(*m.PenaltyWinnerID):
		return *m.PenaltyWinnerID, true
	}
	return 0, false
}

// ScoreReport is one side's account of the match, always in home/away orientation.
type ScoreReport struct {
	HomeScore       int    `json:"home_score"`
	AwayScore       int    `json:"away_score"`
	ExtraTime       bool   `json:"extra_time"`
	Penalties       bool   `json:"penalties"`
	PenaltyWinnerID *int   `json:"penalty_winner_id,omitempty"`
	EvidenceKey     string `json:"evidence_key,omitempty"`
}

// Agrees reports whether two reports describe the same outcome. Evidence is not compared.
func (r ScoreReport) Agrees(other ScoreReport) bool {
	if r.HomeScore != other.HomeScore || r.AwayScore != other.AwayScore {
		return false
	}
	if r.ExtraTime != other.ExtraTime || r.Penalties != other.Penalties {
		return false
	}
	if (r.PenaltyWinnerID == nil) != (other.PenaltyWinnerID == nil) {
		return false
	}
	return r.PenaltyWinnerID == nil || *r.PenaltyWinnerID == *other.PenaltyWinnerID
}

func (r ScoreReport) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *ScoreReport) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported score report source %T", src)
	}
}

type Result struct {
	ID              int          `json:"id" db:"id"`
	MatchID         int          `json:"match_id" db:"match_id"`
	HomeScore       int          `json:"home_score" db:"home_score"`
	AwayScore       int          `json:"away_score" db:"away_score"`
	HomeConfirmed   bool         `json:"home_team_confirmed" db:"home_team_confirmed"`
	AwayConfirmed   bool         `json:"away_team_confirmed" db:"away_team_confirmed"`
	ExtraTime       bool         `json:"extra_time" db:"extra_time"`
	Penalties       bool         `json:"penalties" db:"penalties"`
	PenaltyWinnerID *int         `json:"penalty_winner_id,omitempty" db:"penalty_winner_id"`
	HomeReport      *ScoreReport `json:"home_report,omitempty" db:"home_report"`
	AwayReport      *ScoreReport `json:"away_report,omitempty" db:"away_report"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at" db:"updated_at"`
}

func (r *Result) Confirmed() bool {
	return r.HomeConfirmed && r.AwayConfirmed
}

// HasSubmitted reports whether the given side already sent its report.
func (r *Result) HasSubmitted(home bool) bool {
	if home {
		return r.HomeConfirmed
	}
	return r.AwayConfirmed
}

// Record stores one side's report and raises its confirmation flag.
func (r *Result) Record(home bool, report ScoreReport) {
	rep := report
	if home {
		r.HomeReport = &rep
		r.HomeConfirmed = true
	} else {
		r.AwayReport = &rep
		r.AwayConfirmed = true
	}
	if !r.HomeConfirmed || !r.AwayConfirmed {
		r.apply(report)
	}
}

// Finalize writes an agreed report onto the result and mirrors it to the match.
func (r *Result) Finalize(m *Match, report ScoreReport) {
	r.apply(report)
	r.HomeConfirmed = true
	r.AwayConfirmed = true

	home, away := report.HomeScore, report.AwayScore
	m.HomeScore = &home
	m.AwayScore = &away
	m.ExtraTime = report.ExtraTime
	m.Penalties = report.Penalties
	m.PenaltyWinnerID = report.PenaltyWinnerID
	m.DisputeReason = nil
	m.Status = MatchConfirmed
}

// Reset clears all submissions so both sides can report again.
func (r *Result) Reset() {
	r.HomeScore, r.AwayScore = 0, 0
	r.HomeConfirmed, r.AwayConfirmed = false, false
	r.ExtraTime, r.Penalties = false, false
	r.PenaltyWinnerID = nil
	r.HomeReport, r.AwayReport = nil, nil
}

func (r *Result) apply(report ScoreReport) {
	r.HomeScore = report.HomeScore
	r.AwayScore = report.AwayScore
	r.ExtraTime = report.ExtraTime
	r.Penalties = report.Penalties
	r.PenaltyWinnerID = report.PenaltyWinnerID
}
