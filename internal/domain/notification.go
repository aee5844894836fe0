package domain

import (
	"fmt"
	"time"
)

// EventKind is the closed set of things a notification can announce. The
// kind is the source of truth; titles and severities are derived from it.
type EventKind string

const (
	EventOrderPlaced         EventKind = "order_placed"
	EventOrderAccepted       EventKind = "order_accepted"
	EventOrderRejected       EventKind = "order_rejected"
	EventOrderExpired        EventKind = "order_expired"
	EventOrderReadyForPickup EventKind = "order_ready_for_pickup"
	EventOrderPickedUp       EventKind = "order_picked_up"
	EventOrderDelivered      EventKind = "order_delivered"
	EventOrderCancelled      EventKind = "order_cancelled"
	EventChatMessage         EventKind = "chat_message"
)

// Severity buckets notifications for rendering: info, success, warning,
// error or new_order.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityNewOrder Severity = "new_order"
)

// StatusForKind maps a status-change event kind to the status the order
// ends up in. Feeds use it to update their local copies; ok is false for
// kinds that do not change status (chat, placement toward the client).
func StatusForKind(kind EventKind) (OrderStatus, bool) {
	switch kind {
	case EventOrderAccepted:
		return StatusInPreparation, true
	case EventOrderRejected, EventOrderExpired:
		return StatusRejected, true
	case EventOrderReadyForPickup:
		return StatusReadyForPickup, true
	case EventOrderPickedUp:
		return StatusOnTheWay, true
	case EventOrderDelivered:
		return StatusDelivered, true
	case EventOrderCancelled:
		return StatusCancelled, true
	}
	return "", false
}

// Notification is a transient, role-scoped event record. It is delivered
// at most once to whoever is subscribed at publish time and owned by
// whichever feed keeps it afterwards.
type Notification struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Role      Role      `json:"role"`
	OrderID   string    `json:"order_id,omitempty"`
	Order     *Order    `json:"order,omitempty"` // snapshot, set when the receiver needs more than the status
	Message   string    `json:"message"`
	Text      string    `json:"text,omitempty"` // raw chat text for EventChatMessage
	CreatedAt time.Time `json:"created_at"`
}

// Canned chat lines the tracking view offers each side instead of free-form
// input.
var (
	QuickMessagesClient = []string{
		"Estoy en la puerta, te espero.",
		"Llama a mi teléfono al llegar, por favor.",
		"El timbre no funciona, por favor toca fuerte.",
		"Puedes dejarlo en la recepción con el guardia.",
	}
	QuickMessagesDelivery = []string{
		"Estoy en la puerta",
		"Llego en 15 minutos",
		"Llego en 10 minutos",
		"No encuentro el domicilio",
	}
)

// QuickMessagesFor returns the canned list for the given chat party.
func QuickMessagesFor(role Role) []string {
	switch role {
	case RoleClient:
		return QuickMessagesClient
	case RoleDelivery:
		return QuickMessagesDelivery
	}
	return nil
}

var kindTitles = map[EventKind]string{
	EventOrderPlaced:         "Pedido Realizado",
	EventOrderAccepted:       "Pedido Confirmado",
	EventOrderRejected:       "Pedido Rechazado",
	EventOrderExpired:        "Pedido Rechazado",
	EventOrderReadyForPickup: "Pedido Listo para Recoger",
	EventOrderPickedUp:       "¡Tu pedido está en camino!",
	EventOrderDelivered:      "¡Pedido Entregado!",
	EventOrderCancelled:      "Pedido Cancelado",
	EventChatMessage:         "Mensaje",
}

// Title renders the headline for the notification. New-order events toward
// a business get their own headline regardless of kind.
func (n Notification) Title() string {
	if n.Kind == EventOrderPlaced && n.Order != nil {
		return "¡Nuevo Pedido!"
	}
	if n.Kind == EventChatMessage {
		switch n.Role {
		case RoleDelivery:
			return "Mensaje del Cliente"
		case RoleClient:
			return "Mensaje del Repartidor"
		}
	}
	if t, ok := kindTitles[n.Kind]; ok {
		return t
	}
	return string(n.Kind)
}

// Type returns the rendering severity derived from the kind.
func (n Notification) Type() Severity {
	switch n.Kind {
	case EventOrderPlaced:
		if n.Order != nil {
			return SeverityNewOrder
		}
		return SeverityInfo
	case EventOrderAccepted, EventOrderDelivered:
		return SeveritySuccess
	case EventOrderRejected, EventOrderExpired:
		return SeverityError
	case EventOrderCancelled:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

func (n Notification) String() string {
	return fmt.Sprintf("%s -> %s: %s (order %s)", n.Kind, n.Role, n.Title(), n.OrderID)
}
