package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

type UploadResult struct {
	Key      string `json:"key"`
	Location string `json:"location"`
	ETag     string `json:"etag,omitempty"`
}

// EvidenceStore хранит файлы-доказательства к результатам матчей.
type EvidenceStore interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	Delete(ctx context.Context, key string) error

	GetPublicURL(key string) string
}

// EvidenceKey builds the object key for a team's evidence upload.
func EvidenceKey(matchID, teamID int, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("evidence/match_%d/team_%d/%s%s", matchID, teamID, uuid.NewString(), ext)
}

// EvidencePrefix is the key prefix under which a team's evidence for a match is stored.
func EvidencePrefix(matchID, teamID int) string {
	return fmt.Sprintf("evidence/match_%d/team_%d/", matchID, teamID)
}
