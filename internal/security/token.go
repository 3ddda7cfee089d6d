package security

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
	ErrMissingTenant  = errors.New("token carries no tenant")
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeService TokenType = "service"
)

const (
	issuer         = "reconledger"
	accessAudience = "ledger-api"
)

// TenantClaims scope every request to one tenant. The ledger never reads the
// tenant from anywhere else.
type TenantClaims struct {
	TenantID int32     `json:"tenant_id"`
	UserID   int32     `json:"user_id,omitempty"`
	Type     TokenType `json:"type"`
	Roles    []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateAccessToken(tenantID, userID int32, roles []string) (string, error)
	// GenerateServiceToken issues a token for jobs and integrations acting on
	// behalf of a tenant rather than a person.
	GenerateServiceToken(tenantID int32, name string) (string, error)
	ValidateToken(tokenString string) (*TenantClaims, error)
}

type tokenManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

func NewTokenManager(secret string, accessTTL time.Duration) TokenManager {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &tokenManager{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

func (m *tokenManager) GenerateAccessToken(tenantID, userID int32, roles []string) (string, error) {
	now := m.now()
	claims := TenantClaims{
		TenantID: tenantID,
		UserID:   userID,
		Type:     TokenTypeAccess,
		Roles:    roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(userID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	return m.sign(claims)
}

func (m *tokenManager) GenerateServiceToken(tenantID int32, name string) (string, error) {
	now := m.now()
	claims := TenantClaims{
		TenantID: tenantID,
		Type:     TokenTypeService,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   name,
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)), // 1 day
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{accessAudience},
			ID:        uuid.NewString(),
		},
	}
	return m.sign(claims)
}

func (m *tokenManager) sign(claims TenantClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*TenantClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TenantClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience(accessAudience), jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TenantClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess && claims.Type != TokenTypeService {
		return nil, ErrWrongTokenType
	}
	if claims.TenantID <= 0 {
		return nil, ErrMissingTenant
	}
	return claims, nil
}
