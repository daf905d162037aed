package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthenticated means no usable credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnauthorized means the credential does not match the claimed identity.
	ErrUnauthorized = errors.New("unauthorized")
)

// Verifier gates mutating booking operations: the caller's bearer credential
// must carry the same email the request claims to act for.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

func (v *Verifier) VerifyRequest(r *http.Request, claimedEmail string) error {
	token, err := ExtractTokenFromRequest(r)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	email, err := ExtractEmailFromJWT(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	if !strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(claimedEmail)) {
		return fmt.Errorf("%w: token email does not match requested email", ErrUnauthorized)
	}

	return nil
}
