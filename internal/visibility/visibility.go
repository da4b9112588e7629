// Package visibility decides which orders a viewer gets to see in a listing.
package visibility

import (
	"sort"
	"time"

	"tussles/internal/model"
)

// EmployeeCompletedWindow is how long a completed order stays in an
// employee's listing after it finished.
const EmployeeCompletedWindow = 24 * time.Hour

// CompletedHistoryLimit caps the owner's completed-order history.
const CompletedHistoryLimit = 50

// Visible reports whether viewer may see order at now.
func Visible(order *model.Order, viewer *model.User, now time.Time) bool {
	if viewer == nil {
		return false
	}
	if viewer.Role == model.RoleOwner {
		return true
	}
	if order.Status != model.OrderStatusCompleted {
		return true
	}
	return now.Sub(order.FinishedAt()) <= EmployeeCompletedWindow
}

// Filter applies the optional exact status filter, then the viewer's role
// rule, and returns the survivors newest-first by created_at.
// The input slice is not modified.
func Filter(orders []model.Order, viewer *model.User, statusFilter string, now time.Time) []model.Order {
	out := make([]model.Order, 0, len(orders))
	for i := range orders {
		if statusFilter != "" && orders[i].Status != statusFilter {
			continue
		}
		if !Visible(&orders[i], viewer, now) {
			continue
		}
		out = append(out, orders[i])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// RecentlyApproved returns completed orders sorted by approved_at descending,
// keeping at most limit entries. A non-positive limit means
// CompletedHistoryLimit.
func RecentlyApproved(orders []model.Order, limit int) []model.Order {
	if limit <= 0 {
		limit = CompletedHistoryLimit
	}

	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if o.Status == model.OrderStatusCompleted {
			out = append(out, o)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return approvedAt(out[i]).After(approvedAt(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func approvedAt(o model.Order) time.Time {
	if o.ApprovedAt != nil {
		return *o.ApprovedAt
	}
	return time.Time{}
}
