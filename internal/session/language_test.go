package session

import (
	"context"
	"testing"

	"github.com/couchcryptid/shore-hazard-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", "en"},
		{"ta-IN,ta;q=0.9,en;q=0.8", "ta"},
		{"hi", "hi"},
		{"ml-IN", "ml"},
		{"fr-FR,fr;q=0.9", "en"},
		{"garbage;;;", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchLanguage(tt.header))
		})
	}
}

func TestLanguage_SavedPreferenceWins(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	code, err := m.SetLanguage(ctx, "id-1", "bn-IN")
	require.NoError(t, err)
	assert.Equal(t, "bn", code)

	assert.Equal(t, "bn", m.Language(ctx, "id-1", "ta"))
}

func TestLanguage_FallsBackToHeader(t *testing.T) {
	m, _, _ := newTestManager(t)

	assert.Equal(t, "te", m.Language(context.Background(), "id-1", "te-IN"))
	assert.Equal(t, "en", m.Language(context.Background(), "id-1", ""))
}

func TestSetLanguage_Unsupported(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.SetLanguage(context.Background(), "id-1", "de")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)

	_, err = m.SetLanguage(context.Background(), "id-1", "!!")
	assert.ErrorIs(t, err, domain.ErrValidationFailed)
}
