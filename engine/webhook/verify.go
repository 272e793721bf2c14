package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

const (
	StrategyNone = "none"
	StrategyHMAC = "hmac"
)

const prefixEnv = "env://"

// Verifier validates an incoming webhook request using the given raw body.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request, body []byte) error
}

// VerifyConfig defines verification strategy and options.
type VerifyConfig struct {
	Strategy string
	Secret   string
	Header   string
}

// NewVerifier creates a Verifier based on the provided configuration.
func NewVerifier(cfg VerifyConfig) (Verifier, error) {
	switch cfg.Strategy {
	case StrategyNone:
		return noneVerifier{}, nil
	case StrategyHMAC:
		sec, err := resolveSecret(cfg.Secret)
		if err != nil {
			return nil, err
		}
		if cfg.Header == "" {
			return nil, errors.New("missing signature header name for hmac strategy")
		}
		return hmacVerifier{secret: sec, header: cfg.Header}, nil
	default:
		return nil, errors.New("unknown verification strategy")
	}
}

func resolveSecret(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty secret")
	}
	if after, ok := strings.CutPrefix(s, prefixEnv); ok {
		val := os.Getenv(after)
		if val == "" {
			return nil, fmt.Errorf("secret env %q not set", after)
		}
		return []byte(val), nil
	}
	return []byte(s), nil
}

type noneVerifier struct{}

func (noneVerifier) Verify(_ context.Context, _ *http.Request, _ []byte) error {
	return nil
}

type hmacVerifier struct {
	secret []byte
	header string
}

func (v hmacVerifier) Verify(_ context.Context, r *http.Request, body []byte) error {
	sig := r.Header.Get(v.header)
	if sig == "" {
		return errors.New("missing signature header")
	}
	got, err := hex.DecodeString(strings.TrimSpace(sig))
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !hmac.Equal(Sign(v.secret, body), got) {
		return errors.New("signature mismatch")
	}
	return nil
}

// Sign returns the HMAC-SHA256 of payload under secret.
func Sign(secret, payload []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(payload)
	return mac.Sum(nil)
}

// SignHex is Sign encoded as lowercase hex, the form gateways put in headers.
func SignHex(secret, payload []byte) string {
	return hex.EncodeToString(Sign(secret, payload))
}
