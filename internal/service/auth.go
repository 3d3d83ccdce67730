package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/leadrail/leadrail/internal/metrics"
	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/store"
)

var (
	// ErrInvalidCredentials covers every authentication failure: unknown
	// identifier, wrong password, inactive account, and bad tokens. Callers
	// must not distinguish between them.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// TokenTTL is the fixed session token lifetime.
const TokenTTL = 12 * time.Hour

// dummyHash is a valid bcrypt hash of a random string. When no account
// matches the identifier we still run a bcrypt comparison against it so the
// response time does not reveal whether the account exists.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// TokenPrincipal is the identity a verified session token asserts.
type TokenPrincipal struct {
	AdminID int64
	Role    model.Role
}

// AuthService authenticates admins and issues/verifies session tokens.
type AuthService struct {
	store    *store.Store
	recorder *Recorder
	secret   []byte
}

// NewAuthService creates an AuthService signing tokens with secret.
func NewAuthService(st *store.Store, recorder *Recorder, secret string) *AuthService {
	return &AuthService{
		store:    st,
		recorder: recorder,
		secret:   []byte(secret),
	}
}

// ClientInfo carries the request attribution recorded in login history.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Authenticate verifies an identifier/password pair and returns the admin
// plus a fresh session token. The identifier is matched against usernames
// first; identifiers containing "@" fall back to a case-insensitive email
// match. Every attempt lands in login history, with a nil actor when no
// account matched, and every failure mode returns the same error.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string, client ClientInfo) (*model.Admin, string, error) {
	admin := s.lookup(ctx, identifier)

	if admin == nil || !admin.IsActive {
		// Burn a bcrypt comparison so the miss costs the same as a mismatch.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		s.recordAttempt(nil, client, false)
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.recordAttempt(&admin.ID, client, false)
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(admin)
	if err != nil {
		return nil, "", err
	}

	if err := s.store.UpdateAdminLastLogin(ctx, admin.ID); err == nil {
		now := time.Now().UTC()
		admin.LastLoginAt = &now
	}

	s.recordAttempt(&admin.ID, client, true)
	s.recorder.Audit(admin.ID, model.AuditActionLogin, model.TargetAdmin, map[string]interface{}{
		"username": admin.Username,
		"ip":       client.IP,
	})

	return admin, token, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) *model.Admin {
	admin, err := s.store.GetAdminByUsername(ctx, identifier)
	if err == nil {
		return admin
	}
	if !strings.Contains(identifier, "@") {
		return nil
	}
	admin, err = s.store.GetAdminByEmail(ctx, identifier)
	if err != nil {
		return nil
	}
	return admin
}

func (s *AuthService) recordAttempt(actorID *int64, client ClientInfo, success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	s.recorder.Login(actorID, client.IP, client.UserAgent, success)
}

type tokenClaims struct {
	AdminID int64  `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken creates a signed session token embedding the admin's identity
// and role, valid for TokenTTL from now.
func (s *AuthService) IssueToken(admin *model.Admin) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		AdminID: admin.ID,
		Role:    string(admin.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			Issuer:    "leadrail",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken checks the token's signature and expiry and returns the
// asserted principal. Verification is stateless; the HTTP middleware layers
// an is_active re-check on top so deactivation revokes access immediately.
func (s *AuthService) VerifyToken(tokenStr string) (*TokenPrincipal, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return nil, ErrInvalidCredentials
	}

	return &TokenPrincipal{
		AdminID: claims.AdminID,
		Role:    role,
	}, nil
}

// HashPassword returns the bcrypt hash used for stored credentials.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
