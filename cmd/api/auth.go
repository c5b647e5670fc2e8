package main

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/podiumlab/racenight/src/domain/shared"
)

var errInvalidToken = errors.New("invalid organizer token")

// organizerTokenTTL outlives any plausible tournament night.
const organizerTokenTTL = 30 * 24 * time.Hour

// OrganizerTokens issues and verifies the tournament-scoped tokens that
// gate organizer operations (start, end round, close, delete).
type OrganizerTokens struct {
	secret []byte
	clock  func() time.Time
}

// NewOrganizerTokens creates a token helper with the given HMAC secret.
func NewOrganizerTokens(secret []byte) *OrganizerTokens {
	return &OrganizerTokens{
		secret: secret,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a signed token bound to one tournament.
func (o *OrganizerTokens) Issue(id shared.TournamentID) (string, error) {
	now := o.clock()
	claims := jwt.MapClaims{
		"sub":  string(id),
		"role": "organizer",
		"iat":  now.Unix(),
		"exp":  now.Add(organizerTokenTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(o.secret)
}

// Verify checks the token's signature and that it is bound to the given
// tournament.
func (o *OrganizerTokens) Verify(token string, id shared.TournamentID) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return o.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return errInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return errInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub != string(id) {
		return errInvalidToken
	}
	if role, _ := claims["role"].(string); role != "organizer" {
		return errInvalidToken
	}
	return nil
}
