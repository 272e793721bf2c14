package uc

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
	"time"

	"github.com/lendflow/lendflow/engine/auth/model"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultKeyPrefix = "lf_"
	keyCharset       = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	keyLength        = 32
)

// GenerateAPIKey use case for generating a new API key for a user
type GenerateAPIKey struct {
	repo   Repository
	user   *model.User
	prefix string
}

// NewGenerateAPIKey creates a new generate API key use case
func NewGenerateAPIKey(repo Repository, user *model.User, prefix string) *GenerateAPIKey {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &GenerateAPIKey{repo: repo, user: user, prefix: prefix}
}

// Execute returns the plaintext key once; only its hash is persisted.
func (uc *GenerateAPIKey) Execute(ctx context.Context) (string, *model.APIKey, error) {
	log := logger.FromContext(ctx)
	keyPart := make([]byte, keyLength)
	for i := range keyPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(keyCharset))))
		if err != nil {
			return "", nil, fmt.Errorf("failed to generate random key part: %w", err)
		}
		keyPart[i] = keyCharset[num.Int64()]
	}
	plaintext := uc.prefix + string(keyPart)
	hashedKey, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash API key: %w", err)
	}
	fingerprint := sha256.Sum256([]byte(plaintext))
	apiKey := &model.APIKey{
		ID:          core.MustNewID(),
		OrgID:       uc.user.OrgID,
		UserID:      uc.user.ID,
		Hash:        hashedKey,
		Fingerprint: fingerprint[:],
		Prefix:      uc.prefix,
		CreatedAt:   time.Now().UTC(),
	}
	if err := uc.repo.CreateAPIKey(ctx, apiKey); err != nil {
		log.Error("Failed to create API key", "error", err, "user_id", uc.user.ID)
		return "", nil, fmt.Errorf("failed to create API key: %w", err)
	}
	log.Info("API key generated successfully", "org_id", uc.user.OrgID, "user_id", uc.user.ID, "key_id", apiKey.ID)
	return plaintext, apiKey, nil
}
