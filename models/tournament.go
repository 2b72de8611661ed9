package models

import "time"

// TournamentStatus отражает этап жизненного цикла турнира.
type TournamentStatus string

const (
	StatusRegistration TournamentStatus = "REGISTRATION"
	StatusGroupStage   TournamentStatus = "GROUP_STAGE"
	StatusKnockout     TournamentStatus = "KNOCKOUT"
	StatusCompleted    TournamentStatus = "COMPLETED"
)

const (
	DefaultNumberOfGroups = 2
	DefaultTeamsPerGroup  = 4
)

// Tournament представляет турнир: групповой этап и плей-офф.
type Tournament struct {
	ID             int              `json:"id" db:"id"`
	Slug           string           `json:"slug" db:"slug"`
	Name           string           `json:"name" db:"name"`
	OrganizerID    *int             `json:"organizer_id,omitempty" db:"organizer_id"`
	StartDate      time.Time        `json:"start_date" db:"start_date"`
	NumberOfGroups int              `json:"number_of_groups" db:"number_of_groups"`
	TeamsPerGroup  int              `json:"teams_per_group" db:"teams_per_group"`
	IsActive       bool             `json:"is_active" db:"is_active"`
	Status         TournamentStatus `json:"status" db:"status"`
	ChampionTeamID *int             `json:"champion_team_id,omitempty" db:"champion_team_id"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`

	Teams   []*Team  `json:"teams,omitempty" db:"-"`
	Matches []*Match `json:"matches,omitempty" db:"-"`
}

// TeamCount is the number of registration-complete teams the group stage needs.
func (t *Tournament) TeamCount() int {
	return t.NumberOfGroups * t.TeamsPerGroup
}

// GroupMatchCount is the number of round-robin matches inside one group.
func (t *Tournament) GroupMatchCount() int {
	return t.TeamsPerGroup * (t.TeamsPerGroup - 1) / 2
}
