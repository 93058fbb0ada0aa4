package gcp

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/idtoken"

	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

// GoogleIdentity is the subset of a verified Google ID token the app cares about.
type GoogleIdentity struct {
	Sub           string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type payloadValidator interface {
	Validate(ctx context.Context, token string, audience string) (*idtoken.Payload, error)
}

type GoogleTokenVerifier struct {
	log       *logger.Logger
	audience  string
	validator payloadValidator
}

// NewGoogleTokenVerifier validates Google-issued ID tokens against audience (the OAuth
// client id). An empty audience accepts any audience.
func NewGoogleTokenVerifier(ctx context.Context, log *logger.Logger, audience string) (*GoogleTokenVerifier, error) {
	v, err := idtoken.NewValidator(ctx)
	if err != nil {
		return nil, fmt.Errorf("idtoken validator: %w", err)
	}
	if strings.TrimSpace(audience) == "" {
		log.Warn("GOOGLE_CLIENT_ID not set; Google ID tokens are accepted for any audience")
	}
	return &GoogleTokenVerifier{
		log:       log.With("client", "GoogleTokenVerifier"),
		audience:  strings.TrimSpace(audience),
		validator: v,
	}, nil
}

func (g *GoogleTokenVerifier) VerifyGoogleIDToken(ctx context.Context, token string) (*GoogleIdentity, error) {
	payload, err := g.validator.Validate(ctx, token, g.audience)
	if err != nil {
		return nil, err
	}
	return identityFromPayload(payload)
}

func identityFromPayload(p *idtoken.Payload) (*GoogleIdentity, error) {
	if p == nil {
		return nil, fmt.Errorf("empty token payload")
	}
	id := &GoogleIdentity{Sub: p.Subject}
	id.Email, _ = p.Claims["email"].(string)
	id.Name, _ = p.Claims["name"].(string)
	id.Picture, _ = p.Claims["picture"].(string)
	switch v := p.Claims["email_verified"].(type) {
	case bool:
		id.EmailVerified = v
	case string:
		id.EmailVerified = strings.EqualFold(v, "true")
	}
	if strings.TrimSpace(id.Email) == "" {
		return nil, fmt.Errorf("token has no email claim")
	}
	return id, nil
}
