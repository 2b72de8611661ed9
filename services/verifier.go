package services

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-engine/models"
	"github.com/Dosada05/tournament-engine/storage"
)

// Verifier checks a submitted report against its evidence. A false result
// is not an error: the submission is kept and the match goes to dispute.
type Verifier interface {
	Verify(ctx context.Context, report models.ScoreReport, evidenceKey string) (bool, error)
}

type evidenceVerifier struct {
	store storage.EvidenceStore
}

// NewEvidenceVerifier accepts a report only if its evidence object was uploaded.
func NewEvidenceVerifier(store storage.EvidenceStore) Verifier {
	return &evidenceVerifier{store: store}
}

func (v *evidenceVerifier) Verify(ctx context.Context, report models.ScoreReport, evidenceKey string) (bool, error) {
	if evidenceKey == "" {
		return false, nil
	}
	ok, err := v.store.Exists(ctx, evidenceKey)
	if err != nil {
		return false, fmt.Errorf("failed to check evidence %s: %w", evidenceKey, err)
	}
	return ok, nil
}
