package delegation

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// The state parameter carried through the provider redirect is a signed,
// time-boxed nonce rather than the bare identity. The signature proves
// the callback belongs to a flow this process started; the server-side
// jti registry makes it single-use.

type stateClaims struct {
	jwt.RegisteredClaims
}

// mintState creates a signed state parameter bound to email. Returns the
// compact JWT and its jti for server-side registration.
func mintState(secret []byte, email string, ttl time.Duration, now time.Time) (string, string, error) {
	nonceID := uuid.New().String()

	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ID:        nonceID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	state, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", "", errors.Wrap(err, "[mintState] SignedString")
	}

	return state, nonceID, nil
}

// parseState verifies the signature and expiry of a state parameter and
// returns the bound identity and nonce ID.
func parseState(secret []byte, state string, now time.Time) (email, nonceID string, err error) {
	claims := &stateClaims{}

	_, err = jwt.ParseWithClaims(state, claims,
		func(t *jwt.Token) (interface{}, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return "", "", errors.Wrap(err, "[parseState] ParseWithClaims")
	}

	if claims.Subject == "" || claims.ID == "" {
		return "", "", errors.New("[parseState] missing subject or nonce ID")
	}

	return claims.Subject, claims.ID, nil
}
