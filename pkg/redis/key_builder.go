package redis

import "fmt"

// Key templates for visit draft backups
const (
	KeyVisitBackup = "visit:backup:%s:%s" // visit:backup:{eventID}:{academyID}
)

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{
		prefix: prefix,
	}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyVisitBackup builds the draft backup key for one (event, academy) pair
func (kb *KeyBuilder) KeyVisitBackup(eventID, academyID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyVisitBackup, eventID, academyID))
}
