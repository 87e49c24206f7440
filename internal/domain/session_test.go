package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestSessionIsRunning(t *testing.T) {
	tests := []struct {
		name     string
		state    SessionState
		expected bool
	}{
		{"running", StateRunning, true},
		{"finished", StateFinished, false},
		{"zero value", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Session{ID: uuid.New(), CreatedAt: time.Now(), State: tt.state}
			assert.Equal(t, tt.expected, s.IsRunning())
		})
	}
}
