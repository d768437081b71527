package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lanternworks/gatehouse/internal/auth/domain"
)

func TestLockoutTriggersAtThreshold(t *testing.T) {
	p := DefaultLockoutPolicy()
	now := time.Now().UTC()

	st := domain.LockoutState{}
	for i := 0; i < p.Threshold-1; i++ {
		st = p.OnFailure(st, now)
		require.False(t, st.Locked(now), "attempt %d must not lock yet", i+1)
	}
	require.Equal(t, p.Threshold-1, st.FailedAttempts)

	st = p.OnFailure(st, now)
	require.True(t, st.Locked(now))
	require.Equal(t, p.Threshold, st.FailedAttempts)
	require.NotNil(t, st.LockedUntil)
	require.Equal(t, now.Add(p.LockDuration), *st.LockedUntil)
}

func TestLockoutWindowResetsCount(t *testing.T) {
	p := LockoutPolicy{Threshold: 3, Window: 10 * time.Minute, LockDuration: time.Hour}
	now := time.Now().UTC()

	st := p.OnFailure(domain.LockoutState{}, now)
	st = p.OnFailure(st, now.Add(time.Minute))
	require.Equal(t, 2, st.FailedAttempts)

	// Next failure lands after the window: fresh count, no lock.
	late := now.Add(11 * time.Minute)
	st = p.OnFailure(st, late)
	require.Equal(t, 1, st.FailedAttempts)
	require.False(t, st.Locked(late))
	require.Equal(t, late, *st.WindowStartedAt)
}

func TestLockoutClearsByTime(t *testing.T) {
	p := LockoutPolicy{Threshold: 1, Window: time.Minute, LockDuration: 30 * time.Minute}
	now := time.Now().UTC()

	st := p.OnFailure(domain.LockoutState{}, now)
	require.True(t, p.Precheck(st, now))
	require.Equal(t, 30*time.Minute, p.RetryAfter(st, now))

	after := now.Add(30*time.Minute + time.Second)
	require.False(t, p.Precheck(st, after))
	require.Zero(t, p.RetryAfter(st, after))
}

func TestLockoutOnSuccessZeroes(t *testing.T) {
	p := DefaultLockoutPolicy()
	now := time.Now().UTC()

	st := p.OnFailure(domain.LockoutState{}, now)
	st = p.OnSuccess(now)
	require.Zero(t, st.FailedAttempts)
	require.Nil(t, st.WindowStartedAt)
	require.Nil(t, st.LockedUntil)
}

func TestLockoutSuccessDoesNotUnlockEarly(t *testing.T) {
	// A lock holds until locked_until even if the correct password arrives;
	// the precheck runs first, so OnSuccess is never reached while locked.
	p := LockoutPolicy{Threshold: 2, Window: time.Minute, LockDuration: time.Hour}
	now := time.Now().UTC()

	st := p.OnFailure(domain.LockoutState{}, now)
	st = p.OnFailure(st, now)
	require.True(t, p.Precheck(st, now.Add(59*time.Minute)))
	require.False(t, p.Precheck(st, now.Add(61*time.Minute)))
}
