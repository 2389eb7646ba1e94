package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A failed reset-link call must only pass as success for unknown accounts;
// outages have to reach the caller instead of masquerading as a sent email.
func TestResetLinkError(t *testing.T) {
	t.Run("transport failures surface as unavailability", func(t *testing.T) {
		err := resetLinkError(errors.New("dial tcp: connection refused"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("credential failures surface as unavailability", func(t *testing.T) {
		err := resetLinkError(errors.New("oauth2: cannot fetch token"))
		assert.ErrorIs(t, err, ErrUnavailable)
	})
}
