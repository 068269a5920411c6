package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	for _, action := range LivenessActions(42) {
		got, err := ParseActionPayload(action.Payload())
		require.NoError(t, err)
		assert.Equal(t, action.Kind, got.Kind)
		assert.Equal(t, SessionID(42), got.SessionID)
	}
}

func TestParseActionPayloadRejectsGarbage(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "ping_ack", "ping_ack:x", "ping_ack:-1", "dance:4"} {
		_, err := ParseActionPayload(raw)
		assert.ErrorIs(t, err, ErrValidation, raw)
	}
}
