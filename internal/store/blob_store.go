package store

import (
	"context"
	"errors"
)

// Sentinel errors for blob store operations
var (
	ErrKeyNotFound = errors.New("key not found")
	ErrThrottled   = errors.New("request throttled")
)

// Keys under which the application state is persisted. Each key holds one
// JSON-encoded logical record.
const (
	KeyOrganizations    = "app_orgs"
	KeyUsers            = "app_users"
	KeyTasks            = "app_tasks"
	KeyTemplates        = "app_templates"
	KeyThemeMode        = "app_theme_mode"
	KeyChristmasEnabled = "app_christmas_enabled"
	KeyDarkMode         = "app_dark_mode"
	KeyAPIKey           = "app_gemini_key"
	KeyCurrentUser      = "app_current_user"
)

// AllKeys lists every key the application writes, in a stable order.
var AllKeys = []string{
	KeyOrganizations,
	KeyUsers,
	KeyTasks,
	KeyTemplates,
	KeyThemeMode,
	KeyChristmasEnabled,
	KeyDarkMode,
	KeyAPIKey,
	KeyCurrentUser,
}

// BlobStore is the durable key-value medium behind the entity store.
// Values are opaque bytes; callers own the encoding.
type BlobStore interface {
	// Get returns the value stored under key.
	// Returns ErrKeyNotFound if nothing is stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
