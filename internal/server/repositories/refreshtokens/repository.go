// Package refreshtokens manages the single refresh-token slot each user has.
// Storing a token overwrites the previous one, so only the most recently
// issued refresh token is ever accepted.
package refreshtokens

import "context"

type Repository interface {
	// Set overwrites the user's refresh token. Returns a not-found error when
	// the user does not exist.
	Set(ctx context.Context, userID string, token string) error

	// Lock reads the user's current refresh token and locks the row until the
	// surrounding transaction ends. An empty string means no token is stored.
	Lock(ctx context.Context, userID string) (string, error)

	// Clear removes the stored token.
	Clear(ctx context.Context, userID string) error
}
