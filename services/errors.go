package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed       = errors.New("validation failed")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrTournamentNameRequired = errors.New("tournament name is required")
	ErrInvalidGroupLayout     = errors.New("invalid number of groups or teams per group")
	ErrInvalidStrength        = errors.New("team strength is out of range")
	ErrPlayerLimit            = errors.New("team player count is out of range")
	ErrRegistrationNotOpen    = errors.New("tournament registration is not open")

	// Ошибки конфликтов
	ErrUserEmailConflict      = errors.New("email address is already in use")
	ErrTeamNameConflict       = errors.New("team name is already in use in this tournament")
	ErrTournamentSlugConflict = errors.New("tournament slug already exists")
	ErrMatchConflict          = errors.New("match already exists for this stage")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMatchNotFound      = errors.New("match not found")

	// Ошибки подтверждения результатов
	ErrUnauthorizedSubmission = errors.New("team is not playing in this match")
	ErrInvalidMatchState      = errors.New("match does not accept this action in its current status")
	ErrDuplicateSubmission    = errors.New("team has already submitted a result for this match")
	ErrKnockoutDrawUnresolved = errors.New("knockout match cannot end level without a penalty winner")

	// Ошибки турниров
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrInvalidTournamentState            = errors.New("tournament does not allow this action in its current status")
)

// StageProgressionError wraps any failure while moving a tournament between stages.
type StageProgressionError struct {
	TournamentID int
	Stage        models.TournamentStatus
	Err          error
}

func (e *StageProgressionError) Error() string {
	return fmt.Sprintf("tournament %d: progression from %s failed: %v", e.TournamentID, e.Stage, e.Err)
}

func (e *StageProgressionError) Unwrap() error {
	return e.Err
}
