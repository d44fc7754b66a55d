package session

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// TokenClaims extracts the registered claims from an access token without
// verifying the signature. The backend is the verifier; the client only
// inspects expiry and subject for display and logging.
func TokenClaims(access string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(access, claims); err != nil {
		return nil, errors.Wrap(err, "[TokenClaims] parse token")
	}
	return claims, nil
}
