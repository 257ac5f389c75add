package auth

import "context"

// StaticVerifier accepts every request as one fixed identity. It backs
// AUTH_MODE=none for local development.
type StaticVerifier struct {
	ID Identity
}

func (v StaticVerifier) Verify(context.Context, string) (Identity, error) {
	return v.ID, nil
}

// Deny rejects every credential. It stands in when no verifier is
// configured.
type Deny struct{}

func (Deny) Verify(context.Context, string) (Identity, error) {
	return Identity{}, ErrInvalidToken
}
