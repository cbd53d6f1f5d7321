package security

import (
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"
)

// RequireAPIKey guards the internal invoice-creation endpoint. The key
// arrives in X-Api-Key and is compared against a bcrypt hash so the
// plaintext never sits in config. An empty hash disables the check
// (development only).
func RequireAPIKey(hash string) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if hash == "" {
			return e.Next()
		}
		key := e.Request.Header.Get("X-Api-Key")
		if key == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) != nil {
			return apis.NewUnauthorizedError("Invalid api key", nil)
		}
		return e.Next()
	}
}
