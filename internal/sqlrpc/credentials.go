package sqlrpc

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Credentials supplies the bearer token for each remote call.
type Credentials interface {
	Token(ctx context.Context) (string, error)
}

// EnvCredentials reads the token from an environment variable on every call,
// so a rotated value is picked up without a restart.
type EnvCredentials struct {
	Key string
}

// Token returns the current value of the variable or ErrMissingToken.
func (c EnvCredentials) Token(ctx context.Context) (string, error) {
	token := strings.TrimSpace(os.Getenv(c.Key))
	if token == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingToken, c.Key)
	}
	return token, nil
}

// StaticCredentials always returns the same token.
type StaticCredentials string

// Token returns the static token or ErrMissingToken when it is empty.
func (c StaticCredentials) Token(ctx context.Context) (string, error) {
	if c == "" {
		return "", ErrMissingToken
	}
	return string(c), nil
}
