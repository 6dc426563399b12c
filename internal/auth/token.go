package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TokenManager issues HS256 access tokens and validates bearer tokens,
// optionally against an external JWKS endpoint.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	jwks   keyfunc.Keyfunc
}

// Claims describes the JWT payload. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// NewTokenManager builds a manager from auth configuration. When a JWKS URL
// is configured the key set is fetched in the background and refreshed.
func NewTokenManager(cfg config.AuthConfig, logger *zap.Logger) (*TokenManager, error) {
	tm := newTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTLMinutes)
	if cfg.JWKSURL == "" {
		return tm, nil
	}

	refresh := time.Duration(cfg.JWKSRefreshMinutes) * time.Minute
	if refresh <= 0 {
		refresh = 15 * time.Minute
	}
	storage, err := jwkset.NewStorageFromHTTP(cfg.JWKSURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refresh,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("jwks refresh failed", zap.Error(err), zap.String("url", cfg.JWKSURL))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("jwks storage: %w", err)
	}
	kf, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("jwks keyfunc: %w", err)
	}
	tm.jwks = kf
	logger.Info("jwks token validation enabled", zap.String("url", cfg.JWKSURL))
	return tm, nil
}

// NewTokenManagerWithKeyfunc builds a manager around a prepared keyfunc.
func NewTokenManagerWithKeyfunc(secret, issuer string, ttlMinutes int, kf keyfunc.Keyfunc) *TokenManager {
	tm := newTokenManager(secret, issuer, ttlMinutes)
	tm.jwks = kf
	return tm
}

func newTokenManager(secret, issuer string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    time.Duration(ttlMinutes) * time.Minute,
	}
}

// GenerateToken signs an access token for the user.
func (tm *TokenManager) GenerateToken(user *domain.User) (string, time.Time, error) {
	if len(tm.secret) == 0 {
		return "", time.Time{}, errors.New("token signing disabled: no secret configured")
	}
	now := time.Now()
	expiresAt := now.Add(tm.ttl)
	claims := &Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    tm.issuer,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates signature, expiry and issuer and returns the claims.
func (tm *TokenManager) ParseToken(ctx context.Context, tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30 * time.Second),
	}
	if tm.issuer != "" {
		opts = append(opts, jwt.WithIssuer(tm.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, tm.keyfunc(ctx), opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

func (tm *TokenManager) keyfunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if token.Method == jwt.SigningMethodHS256 {
			if len(tm.secret) == 0 {
				return nil, errors.New("symmetric tokens not accepted")
			}
			return tm.secret, nil
		}
		if tm.jwks == nil {
			return nil, errors.New("unexpected signing method")
		}
		return tm.jwks.KeyfuncCtx(ctx)(token)
	}
}
