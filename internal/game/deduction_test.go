package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeductionStateStartsEmpty(t *testing.T) {
	d := NewDeductionState()
	assert.True(t, d.IsEmpty())
	assert.Empty(t, d.Confirmed())
	assert.Empty(t, d.Excluded())
}

func TestDeductionStateAdds(t *testing.T) {
	d := NewDeductionState()
	require.NoError(t, d.AddConfirmed("red_hair"))
	require.NoError(t, d.AddConfirmed("red_hair"))
	require.NoError(t, d.AddExcluded("short"))
	require.NoError(t, d.AddConfirmedMany([]string{"tall", "glasses"}))

	assert.False(t, d.IsEmpty())
	assert.Equal(t, []string{"glasses", "red_hair", "tall"}, d.Confirmed())
	assert.Equal(t, []string{"short"}, d.Excluded())
	assert.True(t, d.IsConfirmed("tall"))
	assert.True(t, d.IsExcluded("short"))
	assert.Equal(t, Facts{Confirmed: []string{"glasses", "red_hair", "tall"}, Excluded: []string{"short"}}, d.Facts())
}

// Contradicting facts are rejected and leave the state untouched.
func TestDeductionStateRejectsContradiction(t *testing.T) {
	d := NewDeductionState()
	require.NoError(t, d.AddConfirmed("a"))

	err := d.AddExcluded("a")
	assert.ErrorIs(t, err, ErrContradiction)
	assert.False(t, d.IsExcluded("a"))
	assert.Equal(t, []string{"a"}, d.Confirmed())

	require.NoError(t, d.AddExcluded("b"))
	assert.ErrorIs(t, d.AddConfirmed("b"), ErrContradiction)
	assert.False(t, d.IsConfirmed("b"))

	// All or nothing.
	assert.ErrorIs(t, d.AddConfirmedMany([]string{"c", "b"}), ErrContradiction)
	assert.False(t, d.IsConfirmed("c"))
}

func TestFactsAreSnapshots(t *testing.T) {
	d := NewDeductionState()
	require.NoError(t, d.AddConfirmed("a"))
	f := d.Facts()
	f.Confirmed[0] = "zzz"
	assert.Equal(t, []string{"a"}, d.Confirmed())
}
