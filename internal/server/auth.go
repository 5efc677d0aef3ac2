package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gravitas-games/hextactics/internal/config"
	"github.com/gravitas-games/hextactics/pkg/models"
)

// ErrMissingToken is returned when a request carries no token.
var ErrMissingToken = errors.New("missing authentication token")

// Claims represents the JWT claims a battle client presents
type Claims struct {
	Name    string         `json:"name"`
	Faction models.Faction `json:"faction"`
	jwt.RegisteredClaims
}

// JWTValidator validates HMAC-signed battle tokens. With no secret configured
// every request is accepted as an anonymous commander of the player faction.
type JWTValidator struct {
	secret  []byte
	issuer  string
	faction models.Faction
}

// NewJWTValidator creates a validator from the auth and battle settings.
func NewJWTValidator(cfg *config.Config) *JWTValidator {
	return &JWTValidator{
		secret:  []byte(cfg.Auth.Secret),
		issuer:  cfg.Auth.Issuer,
		faction: cfg.Battle.PlayerFaction,
	}
}

// Enabled reports whether tokens are checked.
func (v *JWTValidator) Enabled() bool { return len(v.secret) > 0 }

// Authenticate resolves the player behind an HTTP request.
func (v *JWTValidator) Authenticate(r *http.Request) (*models.Player, error) {
	if !v.Enabled() {
		id := r.URL.Query().Get("player")
		if id == "" {
			id = r.RemoteAddr
		}
		return &models.Player{ID: id, Name: id, Faction: v.faction}, nil
	}

	tokenString := extractTokenFromHeader(r)
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	return v.ValidateToken(tokenString)
}

// ValidateToken validates a JWT token and returns player information
func (v *JWTValidator) ValidateToken(tokenString string) (*models.Player, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithIssuer(v.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	name := claims.Name
	if name == "" {
		name = claims.Subject
	}
	return &models.Player{
		ID:      claims.Subject,
		Name:    name,
		Faction: claims.Faction,
	}, nil
}

// IssueToken signs a token for a player. Used by tooling and tests.
func (v *JWTValidator) IssueToken(p *models.Player, ttl time.Duration) (string, error) {
	if !v.Enabled() {
		return "", fmt.Errorf("authentication is disabled")
	}
	now := time.Now()
	claims := Claims{
		Name:    p.Name,
		Faction: p.Faction,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// extractTokenFromHeader extracts JWT token from WebSocket connection header
func extractTokenFromHeader(r *http.Request) string {
	// Sec-WebSocket-Protocol: "access_token, <token>"
	if protocols := r.Header.Get("Sec-WebSocket-Protocol"); protocols != "" {
		parts := splitAndTrim(protocols, ",")
		if len(parts) == 2 && parts[0] == "access_token" {
			return parts[1]
		}
	}

	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}

	// Query parameter (less secure, but supported)
	return r.URL.Query().Get("token")
}

// splitAndTrim splits a string and drops empty parts
func splitAndTrim(s, sep string) []string {
	var result []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
