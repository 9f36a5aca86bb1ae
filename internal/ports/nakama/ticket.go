package nakama

import (
	"errors"
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"
)

// ErrInvalidTicket is returned for any ticket that fails verification.
var ErrInvalidTicket = errors.New("invalid join ticket")

// ticketClaims binds a user to one match for a short time.
type ticketClaims struct {
	MatchID string `json:"mid"`
	jwt.StandardClaims
}

// issueTicket signs a join ticket for userID and matchID.
func issueTicket(secret, userID, matchID string, ttl time.Duration, now time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("ticket secret is not configured")
	}
	if userID == "" || matchID == "" {
		return "", fmt.Errorf("user and match are required")
	}
	claims := ticketClaims{
		MatchID: matchID,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID,
			Id:        uuid.NewString(),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// verifyTicket checks signature, expiry, subject and match.
func verifyTicket(secret, raw, userID, matchID string) error {
	if raw == "" {
		return fmt.Errorf("%w: missing", ErrInvalidTicket)
	}
	claims := &ticketClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if !token.Valid {
		return fmt.Errorf("%w: not valid", ErrInvalidTicket)
	}
	if claims.Subject != userID {
		return fmt.Errorf("%w: issued to another user", ErrInvalidTicket)
	}
	if claims.MatchID != matchID {
		return fmt.Errorf("%w: issued for another match", ErrInvalidTicket)
	}
	return nil
}
