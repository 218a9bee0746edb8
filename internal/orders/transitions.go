package orders

import "restoran-web/internal/models"

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:        {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:      {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:          {models.OrderStatusDelivering, models.OrderStatusWaitingPayment, models.OrderStatusCompleted},
	models.OrderStatusDelivering:     {models.OrderStatusCompleted},
	models.OrderStatusWaitingPayment: {models.OrderStatusPaid, models.OrderStatusCancelled},
	models.OrderStatusPaid:           {models.OrderStatusCompleted},
}

// CanTransition reports whether the kitchen workflow allows from -> to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	return transitions[s]
}
