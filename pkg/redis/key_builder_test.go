package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantPrefix  string
	}{
		{"production", "production", "prod"},
		{"development", "development", "staging"},
		{"staging", "staging", "staging"},
		{"test", "test", "staging"},
		{"unknown defaults to prod", "something-else", "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.wantPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyVisitBackup(t *testing.T) {
	kb := NewKeyBuilder("production")
	assert.Equal(t, "prod:visit:backup:event-1:academy-1", kb.KeyVisitBackup("event-1", "academy-1"))

	kb = NewKeyBuilder("test")
	assert.Equal(t, "staging:visit:backup:event-1:academy-1", kb.KeyVisitBackup("event-1", "academy-1"))
}
