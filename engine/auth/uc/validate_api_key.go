package uc

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// Pre-computed bcrypt hash (cost=10) compared against on lookup misses so both
// paths take the same time.
var dummyBcryptHash = []byte("$2a$10$7EqJtq98hPqEX7fNZaFWoOa5hnhtNGRjukDWO2xzg3sjQTL1dDQ2u")

// Caps concurrent last-used updates.
var backgroundTaskSem = make(chan struct{}, 10)

// ValidateAPIKey use case for validating an API key and returning the associated user
type ValidateAPIKey struct {
	repo      Repository
	plaintext string
}

// NewValidateAPIKey creates a new validate API key use case
func NewValidateAPIKey(repo Repository, plaintext string) *ValidateAPIKey {
	return &ValidateAPIKey{repo: repo, plaintext: plaintext}
}

// Execute validates an API key and returns the associated user
func (uc *ValidateAPIKey) Execute(ctx context.Context) (*model.User, error) {
	log := logger.FromContext(ctx)
	fingerprint := sha256.Sum256([]byte(uc.plaintext))
	apiKey, err := uc.repo.GetAPIKeyByFingerprint(ctx, fingerprint[:])
	if err != nil {
		//nolint:errcheck // timing equalization
		_ = bcrypt.CompareHashAndPassword(dummyBcryptHash, []byte(uc.plaintext))
		if errors.Is(err, ErrAPIKeyNotFound) {
			log.Debug("API key not found")
			return nil, ErrInvalidCredentials
		}
		log.Error("Failed to get API key by fingerprint", "error", err)
		return nil, fmt.Errorf("internal error validating API key: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(apiKey.Hash, []byte(uc.plaintext)); err != nil {
		log.Debug("API key hash verification failed")
		return nil, ErrInvalidCredentials
	}
	user, err := uc.repo.GetUserByID(ctx, apiKey.OrgID, apiKey.UserID)
	if err != nil {
		log.Error("Failed to get user for valid API key", "error", err, "user_id", apiKey.UserID)
		return nil, fmt.Errorf("failed to get user for API key: %w", err)
	}
	select {
	case backgroundTaskSem <- struct{}{}:
		go func() {
			defer func() { <-backgroundTaskSem }()
			bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if updateErr := uc.repo.UpdateAPIKeyLastUsed(bgCtx, apiKey.ID); updateErr != nil {
				logger.FromContext(bgCtx).Warn("Failed to update API key last used", "error", updateErr, "key_id", apiKey.ID)
			}
		}()
	default:
		log.Debug("Skipping API key last used update due to high load", "key_id", apiKey.ID)
	}
	return user, nil
}
