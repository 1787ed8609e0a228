package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusTransitionsForward(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusConfirmed))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusPreparing))
	assert.True(t, StatusPreparing.CanTransitionTo(StatusReady))
	assert.True(t, StatusReady.CanTransitionTo(StatusDelivered))

	// Forward skips are allowed.
	assert.True(t, StatusPending.CanTransitionTo(StatusPreparing))
	assert.True(t, StatusConfirmed.CanTransitionTo(StatusDelivered))
}

func TestStatusTransitionsNeverBackward(t *testing.T) {
	assert.False(t, StatusConfirmed.CanTransitionTo(StatusPending))
	assert.False(t, StatusPreparing.CanTransitionTo(StatusConfirmed))
	assert.False(t, StatusReady.CanTransitionTo(StatusPreparing))
	assert.False(t, StatusPending.CanTransitionTo(StatusPending))
}

func TestCancellationReachableFromNonTerminal(t *testing.T) {
	for _, s := range []OrderStatus{StatusPending, StatusConfirmed, StatusPreparing, StatusReady} {
		assert.True(t, s.CanTransitionTo(StatusCancelled), "cancel from %s", s)
	}
}

func TestTerminalStatesAllowNothing(t *testing.T) {
	targets := []OrderStatus{
		StatusPending, StatusConfirmed, StatusPreparing,
		StatusReady, StatusDelivered, StatusCancelled,
	}
	for _, terminal := range []OrderStatus{StatusDelivered, StatusCancelled} {
		assert.True(t, terminal.Terminal())
		for _, next := range targets {
			assert.False(t, terminal.CanTransitionTo(next), "%s -> %s", terminal, next)
		}
	}
}

func TestValidStatus(t *testing.T) {
	for _, s := range []OrderStatus{
		StatusPending, StatusConfirmed, StatusPreparing,
		StatusReady, StatusDelivered, StatusCancelled,
	} {
		assert.True(t, ValidStatus(s))
	}
	assert.False(t, ValidStatus("shipped"))
	assert.False(t, ValidStatus(""))
}

func TestGenerateOrderNumber(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	number, err := GenerateOrderNumber(at)
	assert.NoError(t, err)

	assert.True(t, strings.HasPrefix(number, "MSL-"), number)
	parts := strings.Split(number, "-")
	assert.Len(t, parts, 3)
	assert.Len(t, parts[2], 4, "random suffix is four digits")
}

func TestEstimatePrepMinutes(t *testing.T) {
	offPeak := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	lunch := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	dinner := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	assert.Equal(t, 21, EstimatePrepMinutes(3, 0, offPeak))
	assert.Equal(t, 26, EstimatePrepMinutes(3, 1, offPeak))
	assert.Equal(t, 31, EstimatePrepMinutes(3, 0, lunch))
	assert.Equal(t, 31, EstimatePrepMinutes(3, 0, dinner))

	// Deterministic for identical inputs.
	assert.Equal(t, EstimatePrepMinutes(5, 2, lunch), EstimatePrepMinutes(5, 2, lunch))

	// Clamped at one hour.
	assert.Equal(t, 60, EstimatePrepMinutes(30, 10, dinner))
}
