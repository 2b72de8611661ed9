package models

import "time"

const (
	MinPlayersForRegistration = 8
	MaxPlayersPerTeam         = 14
	MaxStrength               = 100
)

type Team struct {
	ID                   int       `json:"id" db:"id"`
	Slug                 string    `json:"slug" db:"slug"`
	TournamentID         int       `json:"tournament_id" db:"tournament_id"`
	Name                 string    `json:"name" db:"name"`
	ManagerID            *int      `json:"manager_id,omitempty" db:"manager_id"`
	Strength             int       `json:"strength" db:"strength"`
	PlayerCount          int       `json:"player_count" db:"player_count"`
	RegistrationComplete bool      `json:"registration_complete" db:"registration_complete"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
}

// EligiblePlayerCount reports whether n players make a complete registration.
func EligiblePlayerCount(n int) bool {
	return n >= MinPlayersForRegistration && n <= MaxPlayersPerTeam
}
