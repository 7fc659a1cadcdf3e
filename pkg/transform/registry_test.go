package transform

import (
	"errors"
	"testing"

	"github.com/aretw0/flowplan/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RoundTrip(t *testing.T) {
	tests := []struct {
		raw   string
		token string
	}{
		{"Find Errors", "find_errors"},
		{"fix   errors", "fix_errors"},
		{"Database Link", "database_link"},
		{"tab\tseparated\nname", "tab_separated_name"},
		{"MixedCase", "mixedcase"},
		{"no\u00a0break\u2003space", "no_break_space"},
	}

	r := NewRegistry()
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			token, err := r.Normalize(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
			assert.Equal(t, tt.raw, r.Revert(token))
		})
	}
	assert.Equal(t, len(tests), r.Len())
}

func TestNormalize_Canonical(t *testing.T) {
	r := NewRegistry()

	token, err := r.Normalize("list_of_errors")
	require.NoError(t, err)
	assert.Equal(t, "list_of_errors", token)
	assert.Zero(t, r.Len(), "identity tokens are not recorded as transforms")

	// Repeated normalization of the same source is idempotent.
	_, err = r.Normalize("Fix Errors")
	require.NoError(t, err)
	_, err = r.Normalize("Fix Errors")
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
}

func TestRevert_Unregistered(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, "never_seen", r.Revert("never_seen"))
}

func TestNormalize_Collision(t *testing.T) {
	t.Run("two sources", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Normalize("Fix Errors")
		require.NoError(t, err)

		_, err = r.Normalize("fix errors")
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrRegistryCollision))

		var collision *domain.CollisionError
		require.ErrorAs(t, err, &collision)
		assert.Equal(t, "fix_errors", collision.Token)
		assert.Equal(t, "Fix Errors", collision.Existing)
		assert.Equal(t, "fix errors", collision.Incoming)
	})

	t.Run("canonical after transformed", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Normalize("Fix Errors")
		require.NoError(t, err)

		_, err = r.Normalize("fix_errors")
		assert.ErrorIs(t, err, domain.ErrRegistryCollision)
	})

	t.Run("transformed after canonical", func(t *testing.T) {
		r := NewRegistry()
		_, err := r.Normalize("fix_errors")
		require.NoError(t, err)

		_, err = r.Normalize("Fix Errors")
		assert.ErrorIs(t, err, domain.ErrRegistryCollision)
	})
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("a > b", "constraint_0"))
	assert.Equal(t, "a > b", r.Revert("constraint_0"))

	err := r.Register("b > c", "constraint_0")
	assert.ErrorIs(t, err, domain.ErrRegistryCollision)

	assert.Equal(t, []Transform{{Source: "a > b", Target: "constraint_0"}}, r.Transforms())
}

func TestTransforms_IsCopy(t *testing.T) {
	r := NewRegistry()
	_, err := r.Normalize("Some Item")
	require.NoError(t, err)

	got := r.Transforms()
	got[0].Source = "mutated"
	assert.Equal(t, "Some Item", r.Revert("some_item"))
}
