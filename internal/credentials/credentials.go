// Package credentials resolves data-provider API keys. Environment
// variables win; the OS keyring is the fallback so keys survive shell
// sessions without landing in config files.
package credentials

import (
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// service namespaces our entries in the OS keyring.
const service = "credit-scorer"

// EnvVar returns the environment variable consulted for a provider, e.g.
// "transaction" -> "TRANSACTION_API_KEY".
func EnvVar(provider string) string {
	return strings.ToUpper(strings.ReplaceAll(provider, "-", "_")) + "_API_KEY"
}

// Resolve returns the API key for a provider, or "" when none is
// configured. A missing key is not an error; simulated providers run
// without one.
func Resolve(provider string) string {
	if v := os.Getenv(EnvVar(provider)); v != "" {
		return v
	}
	key, err := keyring.Get(service, provider)
	if err != nil {
		return ""
	}
	return key
}

// Store saves a provider key in the OS keyring.
func Store(provider, key string) error {
	if provider == "" {
		return fmt.Errorf("provider name required")
	}
	if err := keyring.Set(service, provider, key); err != nil {
		return fmt.Errorf("storing key for %s: %w", provider, err)
	}
	return nil
}

// Delete removes a provider key from the OS keyring. Deleting an absent
// key is not an error.
func Delete(provider string) error {
	err := keyring.Delete(service, provider)
	if err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("deleting key for %s: %w", provider, err)
	}
	return nil
}
