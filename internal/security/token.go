package security

import (
	"errors"
	"strconv"
	"time"

	"branchrent-backend/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

const audience = "branchrent-api"

// PrincipalClaims carries the acting identity issued by the identity provider.
type PrincipalClaims struct {
	UserID   int32       `json:"user_id"`
	Role     domain.Role `json:"role"`
	BranchID *int32      `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager interface {
	GenerateToken(p domain.Principal, ttl time.Duration) (string, error)
	ValidateToken(tokenString string) (domain.Principal, error)
}

type tokenManager struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenManager(secret, issuer string) TokenManager {
	if issuer == "" {
		issuer = "branchrent-identity"
	}
	return &tokenManager{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (m *tokenManager) GenerateToken(p domain.Principal, ttl time.Duration) (string, error) {
	now := m.now()
	claims := PrincipalClaims{
		UserID:   p.UserID,
		Role:     p.Role,
		BranchID: p.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(p.UserID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Audience:  jwt.ClaimStrings{audience},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken verifies signature, issuer, audience and expiry and returns
// the principal. SYSTEM is never accepted from a token.
func (m *tokenManager) ValidateToken(tokenString string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &PrincipalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithAudience(audience),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrExpiredToken
		}
		return domain.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*PrincipalClaims)
	if !ok || !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}
	if claims.UserID == 0 && claims.Subject != "" {
		uid, _ := strconv.Atoi(claims.Subject)
		claims.UserID = int32(uid)
	}

	switch claims.Role {
	case domain.RoleCustomer, domain.RoleAdmin:
	case domain.RoleEmployee:
		if claims.BranchID == nil {
			return domain.Principal{}, ErrInvalidToken
		}
	default:
		return domain.Principal{}, ErrInvalidToken
	}
	if claims.UserID <= 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	return domain.Principal{UserID: claims.UserID, Role: claims.Role, BranchID: claims.BranchID}, nil
}
