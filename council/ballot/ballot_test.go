package ballot_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-council/council/ballot"
)

func TestNumber_Ordering(t *testing.T) {
	low := ballot.Number{Counter: 3, MemberID: "M4"}
	high := ballot.Number{Counter: 7, MemberID: "M1"}

	assert.True(t, high.IsGreaterThan(low))
	assert.True(t, low.IsLowerThan(high))
	assert.False(t, low.IsGreaterThan(high))
	assert.True(t, high.IsGEThan(low))
	assert.True(t, low.IsLEThan(high))
}

func TestNumber_TieBreakOnMemberID(t *testing.T) {
	a := ballot.Number{Counter: 5, MemberID: "M2"}
	b := ballot.Number{Counter: 5, MemberID: "M7"}

	assert.True(t, b.IsGreaterThan(a))
	assert.False(t, a.IsGreaterThan(b))
	assert.False(t, a.IsEqualTo(b))

	same := ballot.Number{Counter: 5, MemberID: "M2"}
	assert.True(t, a.IsEqualTo(same))
	assert.True(t, a.IsGEThan(same))
	assert.True(t, a.IsLEThan(same))
	assert.False(t, a.IsGreaterThan(same))
}

func TestNumber_FormatParseRoundTrip(t *testing.T) {
	numbers := []ballot.Number{
		{Counter: 1, MemberID: "M1"},
		{Counter: 7, MemberID: "M4"},
		{Counter: 0, MemberID: "M9"},
		{Counter: 18446744073709551615, MemberID: "M5"},
	}
	for _, n := range numbers {
		parsed, err := ballot.Parse(n.String())
		require.NoError(t, err, n.String())
		assert.Equal(t, n, parsed)
	}
}

func TestNumber_StringForm(t *testing.T) {
	n := ballot.Number{Counter: 7, MemberID: "M4"}
	assert.Equal(t, "7.M4", n.String())
}

func TestParse_Malformed(t *testing.T) {
	for _, s := range []string{
		"",
		"7M4",     // no dot
		"7.",      // empty member id
		".M4",     // empty counter
		"-1.M4",   // negative counter
		"x.M4",    // counter not a number
		"1.5x.M4", // junk inside the counter
	} {
		_, err := ballot.Parse(s)
		require.Error(t, err, "input %q", s)
		assert.True(t, errors.Is(err, ballot.ErrMalformedNumber), "input %q", s)
	}
}

func TestParse_SplitsAtLastDot(t *testing.T) {
	// The counter is everything before the last dot, so "12.node.east"
	// would need "12.node" to be numeric.
	_, err := ballot.Parse("12.node.east")
	require.Error(t, err)

	n, err := ballot.Parse("12.M4")
	require.NoError(t, err)
	assert.Equal(t, ballot.Number{Counter: 12, MemberID: "M4"}, n)
}
