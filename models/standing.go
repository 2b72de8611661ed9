package models

// Standing is a derived table row; it is recomputed from confirmed matches and never stored.
type Standing struct {
	TeamID         int    `json:"team_id"`
	TeamName       string `json:"team_name"`
	Group          string `json:"group,omitempty"`
	Played         int    `json:"matches_played"`
	Wins           int    `json:"wins"`
	Draws          int    `json:"draws"`
	Losses         int    `json:"losses"`
	GoalsFor       int    `json:"goals_for"`
	GoalsAgainst   int    `json:"goals_against"`
	GoalDifference int    `json:"goal_difference"`
	Points         int    `json:"points"`
	Rank           int    `json:"rank"`
}
