package collision

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/dataless/errs"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	require.NotNil(t, tracker)
	require.Equal(t, 0, tracker.Count())
	require.Zero(t, tracker.Duplicates())
	require.Zero(t, tracker.Distinct())
}

func TestTracker_Claim(t *testing.T) {
	tracker := NewTracker()

	owner, dup, err := tracker.Claim("DATALESS.IU_ANMO", 0x1234567890abcdef)
	require.NoError(t, err)
	require.False(t, dup)
	require.Equal(t, "DATALESS.IU_ANMO", owner)

	owner, dup, err = tracker.Claim("DATALESS.IU_COLA", 0xfedcba0987654321)
	require.NoError(t, err)
	require.False(t, dup)
	require.Equal(t, "DATALESS.IU_COLA", owner)

	require.Equal(t, 2, tracker.Count())
	require.Zero(t, tracker.Duplicates())
	require.Equal(t, 2, tracker.Distinct())
}

func TestTracker_Claim_SameContent(t *testing.T) {
	tracker := NewTracker()

	_, _, err := tracker.Claim("DATALESS.IU_ANMO", 42)
	require.NoError(t, err)

	owner, dup, err := tracker.Claim("DATALESS.IU_ANMO.gz", 42)
	require.NoError(t, err)
	require.True(t, dup)
	require.Equal(t, "DATALESS.IU_ANMO", owner)
	require.Equal(t, 1, tracker.Duplicates())
	require.Equal(t, 2, tracker.Count())
	require.Equal(t, 1, tracker.Distinct())
}

func TestTracker_Claim_Again(t *testing.T) {
	tracker := NewTracker()

	_, _, err := tracker.Claim("a", 1)
	require.NoError(t, err)
	_, _, err = tracker.Claim("b", 1)
	require.NoError(t, err)

	owner, dup, err := tracker.Claim("a", 1)
	require.NoError(t, err)
	require.False(t, dup)
	require.Equal(t, "a", owner)

	owner, dup, err = tracker.Claim("b", 1)
	require.NoError(t, err)
	require.True(t, dup)
	require.Equal(t, "a", owner)

	require.Equal(t, 2, tracker.Count())
	require.Equal(t, 1, tracker.Duplicates())
}

func TestTracker_Claim_Errors(t *testing.T) {
	tracker := NewTracker()

	_, _, err := tracker.Claim("", 1)
	require.ErrorIs(t, err, errs.ErrInvalidSourceName)

	_, _, err = tracker.Claim("a", 1)
	require.NoError(t, err)
	_, _, err = tracker.Claim("a", 2)
	require.ErrorIs(t, err, errs.ErrSourceTracked)
	require.Equal(t, 1, tracker.Count())
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker()

	var wg sync.WaitGroup
	for i := range 64 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := tracker.Claim(fmt.Sprintf("file-%02d", i), uint64(i%8))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, 64, tracker.Count())
	require.Equal(t, 56, tracker.Duplicates())
	require.Equal(t, 8, tracker.Distinct())
}
