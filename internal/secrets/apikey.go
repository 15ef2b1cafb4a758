package secrets

import (
	"errors"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups the app's secrets in the OS keychain.
const KeyringService = "jobintake"

// ErrNoAPIKey is returned when no classifier API key is configured anywhere.
var ErrNoAPIKey = errors.New("classifier API key not found (set classifier.api_key or run `jobintake secrets set-key`)")

// ResolveAPIKey returns configured when non-empty, otherwise the key stored in
// the keychain under account.
func ResolveAPIKey(configured, account string) (string, error) {
	if k := strings.TrimSpace(configured); k != "" {
		return k, nil
	}
	if strings.TrimSpace(account) == "" {
		return "", ErrNoAPIKey
	}
	k, err := keyring.Get(KeyringService, account)
	if err != nil || strings.TrimSpace(k) == "" {
		return "", ErrNoAPIKey
	}
	return strings.TrimSpace(k), nil
}

// SetAPIKey stores key in the keychain under account.
func SetAPIKey(account, key string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("API key is empty")
	}
	return keyring.Set(KeyringService, account, strings.TrimSpace(key))
}

// DeleteAPIKey removes the stored key for account.
func DeleteAPIKey(account string) error {
	if strings.TrimSpace(account) == "" {
		return errors.New("keyring account name is empty")
	}
	return keyring.Delete(KeyringService, account)
}
