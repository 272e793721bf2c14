package uc

import (
	"context"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/lendflow/lendflow/engine/core"
	"github.com/lendflow/lendflow/engine/document"
)

// allowed reports whether contentType, with parameters stripped, is on the list.
func (l Limits) allowed(contentType string) bool {
	base, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, t := range l.AllowedTypes {
		if strings.EqualFold(t, base) {
			return true
		}
	}
	return false
}

// allowedDetected matches a sniffed type, including its aliases, against the list.
func (l Limits) allowedDetected(mt *mimetype.MIME) bool {
	for _, t := range l.AllowedTypes {
		if mt.Is(t) {
			return true
		}
	}
	return false
}

func (l Limits) checkSize(size int64) error {
	if size <= 0 {
		return core.Invalid("size_bytes", "must be greater than zero")
	}
	if l.MaxBytes > 0 && size > l.MaxBytes {
		return document.ErrTooLarge
	}
	return nil
}

// checkTarget verifies the application and, when set, that the party
// belongs to it.
func checkTarget(ctx context.Context, deps Deps, orgID, appID core.ID, partyID *core.ID) error {
	if _, err := deps.Applications.GetApplication(ctx, orgID, appID); err != nil {
		return err
	}
	if partyID == nil || deps.Parties == nil {
		return nil
	}
	p, err := deps.Parties.Get(ctx, orgID, *partyID)
	if err != nil {
		return err
	}
	if p.ApplicationID != appID {
		return core.Invalid("party_id", "party belongs to another application")
	}
	return nil
}
