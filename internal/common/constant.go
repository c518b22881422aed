package common

const (
	// AuthorizationHeaderName carries "Bearer <auth token>".
	AuthorizationHeaderName = "Authorization"

	// PasswordHeaderName carries the plaintext password for strong-tier routes.
	PasswordHeaderName = "Password"

	// RequestIDHeaderName is echoed back on every response.
	RequestIDHeaderName = "X-Request-ID"

	BearerPrefix = "Bearer "
)
