package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nurpe/fleet-trips/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims are issued by the auth service. Drivers and company accounts share
// the same shape; Role tells them apart.
type Claims struct {
	UserID    string `json:"user_id"`
	CompanyID string `json:"company_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad user_id", ErrInvalidToken)
	}
	companyID, err := uuid.Parse(claims.CompanyID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad company_id", ErrInvalidToken)
	}

	role := strings.ToLower(strings.TrimSpace(claims.Role))
	if role == "" {
		role = model.RoleDriver
	}
	return model.Principal{
		UserID:    userID,
		CompanyID: companyID,
		Role:      role,
	}, nil
}

// Issue signs a token for the principal. Used by tooling and tests; the
// production issuer is the auth service.
func (p *Parser) Issue(principal model.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    principal.UserID.String(),
		CompanyID: principal.CompanyID.String(),
		Role:      principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
