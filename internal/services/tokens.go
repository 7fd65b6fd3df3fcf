package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/BhavyaSri138/SE-ProfAid/internal/config"
	"github.com/BhavyaSri138/SE-ProfAid/internal/domain"
)

// ActorClaims are the JWT claims the identity provider issues. Subject
// carries the actor id.
type ActorClaims struct {
	Role     string   `json:"role"`
	Branch   string   `json:"branch,omitempty"`
	Subjects []string `json:"subjects,omitempty"`
	jwt.RegisteredClaims
}

// TokenService resolves bearer credentials to actors. Login and signup
// live with the identity provider; this service only mints tokens for
// it (and for tests) and validates what arrives on requests.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secret: []byte(cfg.AuthSecret),
		ttl:    cfg.TokenTTL,
	}
}

// Issue signs a token for the actor.
func (s *TokenService) Issue(actor domain.Actor) (string, error) {
	now := time.Now()
	claims := ActorClaims{
		Role:     string(actor.Role),
		Branch:   actor.Branch,
		Subjects: actor.Subjects,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a bearer token, returning the actor it
// identifies.
func (s *TokenService) Validate(tokenString string) (domain.Actor, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return domain.Actor{}, fmt.Errorf("validate token: %w", err)
	}

	claims, ok := token.Claims.(*ActorClaims)
	if !ok || !token.Valid {
		return domain.Actor{}, fmt.Errorf("invalid token claims")
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleStudent && role != domain.RoleProfessor {
		return domain.Actor{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Actor{}, fmt.Errorf("token has no subject")
	}

	return domain.Actor{
		ID:       claims.Subject,
		Role:     role,
		Branch:   claims.Branch,
		Subjects: claims.Subjects,
	}, nil
}
