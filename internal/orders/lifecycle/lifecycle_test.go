package lifecycle

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbio/commerce-platform/pkg/models"
)

func TestDecideTransitionTable(t *testing.T) {
	allowed := map[string]map[string]bool{
		models.OrderStatusPending:    {models.OrderStatusProcessing: true, models.OrderStatusCancelled: true},
		models.OrderStatusProcessing: {models.OrderStatusShipped: true, models.OrderStatusCancelled: true},
		models.OrderStatusShipped:    {models.OrderStatusDelivered: true},
		models.OrderStatusDelivered:  {},
		models.OrderStatusCancelled:  {},
	}

	// Exhaustive 5x5 check against the transition table.
	for _, current := range models.OrderStatuses {
		for _, requested := range models.OrderStatuses {
			err := DecideTransition(current, requested)
			if allowed[current][requested] {
				assert.NoError(t, err, "%s -> %s should be allowed", current, requested)
			} else {
				assert.Error(t, err, "%s -> %s should be rejected", current, requested)
			}
		}
	}
}

func TestDecideTransitionRejectionMessage(t *testing.T) {
	err := DecideTransition(models.OrderStatusPending, models.OrderStatusDelivered)
	require.Error(t, err)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, models.OrderStatusPending, rejection.Current)
	assert.Equal(t, models.OrderStatusDelivered, rejection.Requested)
	assert.Equal(t,
		"invalid status transition from pending to delivered. Valid transitions: processing, cancelled",
		rejection.Reason)
}

func TestDecideTransitionTerminalRendersNone(t *testing.T) {
	err := DecideTransition(models.OrderStatusDelivered, models.OrderStatusPending)
	require.Error(t, err)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Contains(t, rejection.Reason, "Valid transitions: none")
}

func TestDecideTransitionUnknownStatus(t *testing.T) {
	err := DecideTransition("PENDING", models.OrderStatusProcessing)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidStatus), "statuses are case-sensitive")

	err = DecideTransition(models.OrderStatusPending, "dispatched")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidStatus))

	var rejection *RejectionError
	assert.False(t, errors.As(err, &rejection), "unknown status is not a transition rejection")
}

func TestDecideCancellation(t *testing.T) {
	assert.NoError(t, DecideCancellation(models.OrderStatusPending))
	assert.NoError(t, DecideCancellation(models.OrderStatusProcessing))

	for _, status := range []string{models.OrderStatusShipped, models.OrderStatusDelivered, models.OrderStatusCancelled} {
		err := DecideCancellation(status)
		require.Error(t, err, "cancel from %s should be rejected", status)
		assert.Contains(t, err.Error(), "already shipped or delivered")
	}
}

func TestDecideDeletion(t *testing.T) {
	assert.NoError(t, DecideDeletion(models.OrderStatusPending))
	assert.NoError(t, DecideDeletion(models.OrderStatusCancelled))

	for _, status := range []string{models.OrderStatusProcessing, models.OrderStatusShipped, models.OrderStatusDelivered} {
		err := DecideDeletion(status)
		require.Error(t, err, "delete from %s should be rejected", status)
		assert.Contains(t, err.Error(), "in progress or completed")
	}
}

func TestAppendCancellationReason(t *testing.T) {
	assert.Equal(t, "first order\nCancellation reason: damaged",
		AppendCancellationReason("first order", "damaged"))

	// No prior notes: the reason line is the whole note.
	assert.Equal(t, "Cancellation reason: damaged",
		AppendCancellationReason("", "damaged"))
}

func TestValidTargets(t *testing.T) {
	assert.Equal(t, []string{models.OrderStatusProcessing, models.OrderStatusCancelled},
		ValidTargets(models.OrderStatusPending))
	assert.Empty(t, ValidTargets(models.OrderStatusDelivered))
	assert.Empty(t, ValidTargets(models.OrderStatusCancelled))
}
