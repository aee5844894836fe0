package domain

import "time"

type OrderStatus string

const (
	StatusPending        OrderStatus = "PENDING"
	StatusAccepted       OrderStatus = "ACCEPTED"
	StatusRejected       OrderStatus = "REJECTED"
	StatusInPreparation  OrderStatus = "IN_PREPARATION"
	StatusReadyForPickup OrderStatus = "READY_FOR_PICKUP"
	StatusOnTheWay       OrderStatus = "ON_THE_WAY"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// PendingWindow is how long a business has to accept or reject a new order
// before it auto-expires, counted from Order.CreatedAt.
const PendingWindow = 5 * time.Minute

// transitions is the directed graph of legal status moves. ACCEPTED is kept
// as a transient stop between PENDING and IN_PREPARATION; the accept flow
// collapses it and goes straight to IN_PREPARATION.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:        {StatusAccepted, StatusInPreparation, StatusRejected, StatusCancelled},
	StatusAccepted:       {StatusInPreparation, StatusCancelled},
	StatusInPreparation:  {StatusReadyForPickup, StatusCancelled},
	StatusReadyForPickup: {StatusOnTheWay, StatusCancelled},
	StatusOnTheWay:       {StatusDelivered, StatusCancelled},
	StatusRejected:       nil,
	StatusDelivered:      nil,
	StatusCancelled:      nil,
}

// CanTransition reports whether moving from one status to the other follows
// an edge of the lifecycle graph.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the given status.
func (s OrderStatus) IsTerminal() bool {
	next, known := transitions[s]
	return known && len(next) == 0
}

func (s OrderStatus) IsValid() bool {
	_, known := transitions[s]
	return known
}

// RemainingPendingTime returns how much of the acceptance window is left at
// the given instant. Computed from CreatedAt so a restart does not extend
// the window; zero or negative means the order has expired.
func RemainingPendingTime(createdAt, now time.Time) time.Duration {
	return PendingWindow - now.Sub(createdAt)
}

// statusText maps statuses to the Spanish labels the product uses.
var statusText = map[OrderStatus]string{
	StatusPending:        "Pendiente",
	StatusAccepted:       "Aceptado",
	StatusRejected:       "Rechazado",
	StatusInPreparation:  "En Preparación",
	StatusReadyForPickup: "Listo para Recoger",
	StatusOnTheWay:       "En Camino",
	StatusDelivered:      "Entregado",
	StatusCancelled:      "Cancelado",
}

// Text returns the user-facing label for the status.
func (s OrderStatus) Text() string {
	if t, ok := statusText[s]; ok {
		return t
	}
	return string(s)
}
