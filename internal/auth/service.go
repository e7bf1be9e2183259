package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/imarises/TrustScore-FHE/internal/db"
)

type Repository interface {
	UpsertPrincipal(ctx context.Context, wallet, publicKey, role string) (*db.Principal, error)
	GetPrincipalByID(ctx context.Context, principalID string) (*db.Principal, error)
	CreateSession(ctx context.Context, principalID, refreshHash, userAgent, ipAddress string, expiresAt time.Time) (*db.Session, error)
	GetSessionByID(ctx context.Context, sessionID string) (*db.Session, error)
	RevokeSession(ctx context.Context, sessionID string) error
	UpdateSessionRefreshHash(ctx context.Context, sessionID, refreshHash string) error
}

type Service struct {
	repo            Repository
	jwt             *JWTManager
	accessTTL       time.Duration
	refreshTTL      time.Duration
	loginMaxSkew    time.Duration
	bootstrapAdmin  string
	now             func() time.Time
}

type AuthTokens struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
	Principal    *db.Principal
}

func NewService(repo Repository, jwt *JWTManager, accessTTL, refreshTTL, loginMaxSkew time.Duration, bootstrapAdminWallet string) *Service {
	return &Service{
		repo:           repo,
		jwt:            jwt,
		accessTTL:      accessTTL,
		refreshTTL:     refreshTTL,
		loginMaxSkew:   loginMaxSkew,
		bootstrapAdmin: strings.ToLower(strings.TrimSpace(bootstrapAdminWallet)),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// LoginWithKey verifies an account-key proof and opens a session for the
// proven wallet. First login creates the principal with the borrower role;
// the configured bootstrap wallet gets admin.
func (s *Service) LoginWithKey(ctx context.Context, proof LoginProof, userAgent, ipAddress string) (*AuthTokens, error) {
	wallet, err := VerifyLoginProof(proof, s.now(), s.loginMaxSkew)
	if err != nil {
		return nil, err
	}

	role := RoleBorrower
	if s.bootstrapAdmin != "" && wallet == s.bootstrapAdmin {
		role = RoleAdmin
	}

	principal, err := s.repo.UpsertPrincipal(ctx, wallet, proof.PublicKey, role)
	if err != nil {
		return nil, err
	}

	bundle, err := s.createSessionAndTokens(ctx, principal, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: bundle.AccessToken, RefreshToken: bundle.RefreshToken, SessionID: bundle.SessionID, Principal: principal}, nil
}

type sessionBundle struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}

func (s *Service) Refresh(ctx context.Context, refreshToken, userAgent, ipAddress string) (*AuthTokens, error) {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.Type != "refresh" {
		return nil, errors.New("invalid token type")
	}

	session, err := s.repo.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}
	if session.RevokedAt != nil {
		return nil, errors.New("session revoked")
	}
	if s.now().After(session.ExpiresAt) {
		return nil, errors.New("session expired")
	}
	if session.RefreshTokenHash != hashToken(refreshToken) {
		return nil, errors.New("refresh token mismatch")
	}

	if err := s.repo.RevokeSession(ctx, session.ID); err != nil {
		return nil, err
	}

	principal, err := s.repo.GetPrincipalByID(ctx, session.PrincipalID)
	if err != nil {
		return nil, err
	}

	bundle, err := s.createSessionAndTokens(ctx, principal, userAgent, ipAddress)
	if err != nil {
		return nil, err
	}
	return &AuthTokens{AccessToken: bundle.AccessToken, RefreshToken: bundle.RefreshToken, SessionID: bundle.SessionID, Principal: principal}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.jwt.Parse(refreshToken)
	if err != nil {
		return nil
	}
	if claims.Type != "refresh" || claims.SessionID == "" {
		return nil
	}
	return s.repo.RevokeSession(ctx, claims.SessionID)
}

func (s *Service) Me(ctx context.Context, principalID string) (*db.Principal, error) {
	return s.repo.GetPrincipalByID(ctx, principalID)
}

func (s *Service) createSessionAndTokens(ctx context.Context, principal *db.Principal, userAgent, ipAddress string) (*sessionBundle, error) {
	expiresAt := s.now().Add(s.refreshTTL)
	sessionSeed := uuid.NewString()
	session, err := s.repo.CreateSession(ctx, principal.ID, hashToken(sessionSeed), userAgent, ipAddress, expiresAt)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.jwt.Mint(principal.ID, session.ID, principal.Role, "access", s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.jwt.Mint(principal.ID, session.ID, principal.Role, "refresh", s.refreshTTL)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateSessionRefreshHash(ctx, session.ID, hashToken(refreshToken)); err != nil {
		return nil, err
	}

	return &sessionBundle{AccessToken: accessToken, RefreshToken: refreshToken, SessionID: session.ID}, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func ClientIP(r *http.Request) string {
	xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
