// Package lifecycle implements the order state machine: validating new
// orders, building them in their initial state and approving them.
package lifecycle

import (
	"fmt"
	"time"

	"tussles/internal/apperror"
	"tussles/internal/authz"
	"tussles/internal/model"
)

// transitions lists the legal moves out of each status. completed is terminal.
var transitions = map[string][]string{
	model.OrderStatusAwaitingApproval: {model.OrderStatusCompleted},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Approve moves an awaiting order to completed on behalf of an owner.
// On error the order is left untouched.
func Approve(order *model.Order, actor *model.User, now time.Time) error {
	if err := authz.Require(actor, model.RoleOwner); err != nil {
		return err
	}
	if !CanTransition(order.Status, model.OrderStatusCompleted) {
		return apperror.InvalidState(fmt.Sprintf("Order cannot be approved: current status is %s", order.Status))
	}

	approverID := actor.ID
	approvedAt := now
	completedAt := now

	order.Status = model.OrderStatusCompleted
	order.ApprovedBy = &approverID
	order.ApprovedAt = &approvedAt
	order.CompletedAt = &completedAt
	return nil
}
