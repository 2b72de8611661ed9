package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/repositories"
)

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(repositories.NewMemoryStore().Users())

	user, err := auth.Register(ctx, RegisterInput{Nickname: "coach", Email: "Coach@Example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != models.RoleManager {
		t.Errorf("default role = %s, want %s", user.Role, models.RoleManager)
	}
	if user.PasswordHash != "" {
		t.Errorf("password hash leaked from Register")
	}

	logged, err := auth.Login(ctx, LoginInput{Email: "coach@example.com", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.ID != user.ID || logged.PasswordHash != "" {
		t.Errorf("login user = %+v", logged)
	}

	if _, err := auth.Login(ctx, LoginInput{Email: "coach@example.com", Password: "wrong-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: error = %v, want %v", err, ErrInvalidCredentials)
	}
	if _, err := auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: error = %v, want %v", err, ErrInvalidCredentials)
	}
}

func TestAuthServiceRegisterValidation(t *testing.T) {
	ctx := context.Background()
	auth := NewAuthService(repositories.NewMemoryStore().Users())
	if _, err := auth.Register(ctx, RegisterInput{Email: "taken@example.com", Password: "long-enough", Role: models.RoleOrganizer}); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long-enough"}, ErrValidationFailed},
		{"short password", RegisterInput{Email: "short@example.com", Password: "123"}, ErrPasswordTooShort},
		{"admin role", RegisterInput{Email: "root@example.com", Password: "long-enough", Role: models.RoleAdmin}, ErrValidationFailed},
		{"taken email", RegisterInput{Email: "TAKEN@example.com", Password: "long-enough"}, ErrUserEmailConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Register(ctx, tt.input); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}
