// Package lifecycle holds the order status state machine. It is pure decision
// logic: callers ask whether a transition or a destructive action is legal and
// apply the result themselves.
package lifecycle

import (
	"fmt"
	"strings"

	"github.com/arbio/commerce-platform/pkg/models"
)

// transitions is the directed status graph. Delivered and cancelled are
// terminal and have no outgoing edges.
var transitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// RejectionError is a refused transition or destructive action. It is
// recoverable: handlers surface Reason to the caller and nothing crashes.
type RejectionError struct {
	Current   string
	Requested string
	Reason    string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// ValidTargets returns the statuses reachable from current. The returned
// slice must not be mutated.
func ValidTargets(current string) []string {
	return transitions[current]
}

// DecideTransition reports whether an order may move from current to
// requested. Unknown statuses are a distinct error from a legal-status pair
// that simply is not in the table.
func DecideTransition(current, requested string) error {
	if !models.ValidOrderStatus(current) {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, current)
	}
	if !models.ValidOrderStatus(requested) {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, requested)
	}

	for _, target := range transitions[current] {
		if target == requested {
			return nil
		}
	}

	valid := "none"
	if targets := transitions[current]; len(targets) > 0 {
		valid = strings.Join(targets, ", ")
	}
	return &RejectionError{
		Current:   current,
		Requested: requested,
		Reason: fmt.Sprintf("invalid status transition from %s to %s. Valid transitions: %s",
			current, requested, valid),
	}
}

// DecideCancellation allows cancelling only orders that have not shipped.
func DecideCancellation(current string) error {
	if !models.ValidOrderStatus(current) {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, current)
	}
	if current == models.OrderStatusPending || current == models.OrderStatusProcessing {
		return nil
	}
	return &RejectionError{
		Current:   current,
		Requested: models.OrderStatusCancelled,
		Reason:    "cannot cancel order that is already shipped or delivered",
	}
}

// DecideDeletion allows deleting only orders that never entered fulfilment.
func DecideDeletion(current string) error {
	if !models.ValidOrderStatus(current) {
		return fmt.Errorf("%w: %q", models.ErrInvalidStatus, current)
	}
	if current == models.OrderStatusPending || current == models.OrderStatusCancelled {
		return nil
	}
	return &RejectionError{
		Current: current,
		Reason:  "cannot delete order that is in progress or completed",
	}
}

// AppendCancellationReason appends the cancellation reason to existing notes
// as a new line. With no prior notes the reason line becomes the whole note.
func AppendCancellationReason(notes, reason string) string {
	return strings.TrimSpace(notes + "\nCancellation reason: " + reason)
}
