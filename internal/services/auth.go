package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/medsim-backend/internal/data/repos"
	types "github.com/yungbote/medsim-backend/internal/domain"
	"github.com/yungbote/medsim-backend/internal/platform/apierr"
	"github.com/yungbote/medsim-backend/internal/platform/ctxutil"
	"github.com/yungbote/medsim-backend/internal/platform/dbctx"
	"github.com/yungbote/medsim-backend/internal/platform/gcp"
	"github.com/yungbote/medsim-backend/internal/platform/logger"
)

type ExternalIdentity = gcp.GoogleIdentity

// IdentityVerifier checks a federated identity token and returns the caller's identity.
type IdentityVerifier interface {
	VerifyGoogleIDToken(ctx context.Context, token string) (*ExternalIdentity, error)
}

type JWTClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token string         `json:"token"`
	User  types.UserView `json:"user"`
}

type AuthService interface {
	GoogleLogin(ctx context.Context, idToken, hospital string) (*LoginResult, error)
	DevLogin(ctx context.Context, email, name, hospital string) (*LoginResult, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
}

type AuthConfig struct {
	JWTSecretKey    string
	AccessTTL       time.Duration
	DevLoginEnabled bool
}

type authService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
	verifier IdentityVerifier
	cfg      AuthConfig
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, verifier IdentityVerifier, cfg AuthConfig) AuthService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 7 * 24 * time.Hour
	}
	return &authService{
		db:       db,
		log:      log.With("service", "AuthService"),
		userRepo: userRepo,
		verifier: verifier,
		cfg:      cfg,
	}
}

func (as *authService) GoogleLogin(ctx context.Context, idToken, hospital string) (*LoginResult, error) {
	idToken = strings.TrimSpace(idToken)
	hospital = strings.TrimSpace(hospital)
	if idToken == "" || hospital == "" {
		return nil, apierr.Validation("Missing id_token or hospital")
	}
	if as.verifier == nil {
		return nil, apierr.NotConfigured("google login not configured")
	}
	ident, err := as.verifier.VerifyGoogleIDToken(ctx, idToken)
	if err != nil {
		as.log.Warn("Google token rejected", "error", err)
		return nil, apierr.Unauthorized(fmt.Sprintf("Google token invalid: %v", err))
	}
	email := strings.ToLower(strings.TrimSpace(ident.Email))
	if email == "" {
		return nil, apierr.Unauthorized("Google token invalid: missing email")
	}
	name := strings.TrimSpace(ident.Name)
	if name == "" {
		name = emailLocalPart(email)
	}

	var user *types.User
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}
		now := time.Now().UTC()
		if existing == nil {
			created, err := as.userRepo.Create(dbc, []*types.User{{
				Email:       email,
				Name:        name,
				Picture:     ident.Picture,
				Hospital:    hospital,
				GoogleSub:   ident.Sub,
				LastLoginAt: &now,
			}})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			user = created[0]
			return nil
		}
		updates := map[string]interface{}{
			"name":          name,
			"hospital":      hospital,
			"last_login_at": now,
		}
		existing.Name = name
		existing.Hospital = hospital
		existing.LastLoginAt = &now
		if ident.Picture != "" {
			updates["picture"] = ident.Picture
			existing.Picture = ident.Picture
		}
		if ident.Sub != "" && existing.GoogleSub != ident.Sub {
			updates["google_sub"] = ident.Sub
			existing.GoogleSub = ident.Sub
		}
		if err := as.userRepo.UpdateFields(dbc, existing.ID, updates); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return as.issue(user)
}

func (as *authService) DevLogin(ctx context.Context, email, name, hospital string) (*LoginResult, error) {
	if !as.cfg.DevLoginEnabled {
		return nil, apierr.NotFound("Not found")
	}
	email = strings.ToLower(strings.TrimSpace(email))
	hospital = strings.TrimSpace(hospital)
	name = strings.TrimSpace(name)
	if name == "" {
		name = strings.TrimSpace(emailLocalPart(email))
	}
	if email == "" || hospital == "" {
		return nil, apierr.Validation("email and hospital are required")
	}

	var user *types.User
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		existing, err := as.userRepo.GetByEmail(dbc, email)
		if err != nil {
			return fmt.Errorf("lookup user: %w", err)
		}
		now := time.Now().UTC()
		if existing == nil {
			displayName := name
			if displayName == "" {
				displayName = "Doctor"
			}
			created, err := as.userRepo.Create(dbc, []*types.User{{
				Email:       email,
				Name:        displayName,
				Hospital:    hospital,
				LastLoginAt: &now,
			}})
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			user = created[0]
			return nil
		}
		if name != "" {
			existing.Name = name
		}
		existing.Hospital = hospital
		existing.LastLoginAt = &now
		if err := as.userRepo.UpdateFields(dbc, existing.ID, map[string]interface{}{
			"name":          existing.Name,
			"hospital":      hospital,
			"last_login_at": now,
		}); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return as.issue(user)
}

func (as *authService) issue(user *types.User) (*LoginResult, error) {
	tok, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &LoginResult{Token: tok, User: user.View()}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.cfg.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.cfg.JWTSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthorized("Unauthorized")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.cfg.JWTSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return ctx, apierr.Unauthorized(fmt.Sprintf("Failed to parse token: %v", err))
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apierr.Unauthorized("Invalid or expired JWT token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthorized("Invalid user id in token")
	}
	users, err := as.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load token user: %w", err)
	}
	if len(users) == 0 {
		return ctx, apierr.Unauthorized("Unauthorized")
	}
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
	})
	return ctx, nil
}

func (as *authService) GetAccessTTL() time.Duration {
	return as.cfg.AccessTTL
}

func emailLocalPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}

// requestUserID returns the authenticated caller or a 401.
func requestUserID(ctx context.Context) (uuid.UUID, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("Unauthorized")
	}
	return rd.UserID, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
