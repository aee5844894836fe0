package domain

import (
	"math"
	"time"
)

type Role string

const (
	RoleClient   Role = "CLIENT"
	RoleBusiness Role = "BUSINESS"
	RoleDelivery Role = "DELIVERY"
	RoleAdmin    Role = "ADMIN"
)

// Location is a lat/lng pair in decimal degrees.
type Location struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// DistanceTo returns the straight-line distance between two coordinates,
// in the same degree units. Good enough for arrival detection, not for
// routing.
func (l Location) DistanceTo(other Location) float64 {
	dLat := other.Lat - l.Lat
	dLng := other.Lng - l.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

type Profile struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Role     Role      `json:"role"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone,omitempty"`
	Location *Location `json:"location,omitempty"`
}

type Product struct {
	ID          string  `json:"id" yaml:"id"`
	BusinessID  string  `json:"business_id" yaml:"business_id"`
	Name        string  `json:"name" yaml:"name"`
	Price       float64 `json:"price" yaml:"price"`
	Description string  `json:"description" yaml:"description"`
	Category    string  `json:"category" yaml:"category"`
}

type Business struct {
	ID           string    `json:"id" yaml:"id"`
	Name         string    `json:"name" yaml:"name"`
	Category     string    `json:"category" yaml:"category"`
	Rating       float64   `json:"rating" yaml:"rating"`
	DeliveryTime string    `json:"delivery_time" yaml:"delivery_time"`
	DeliveryFee  float64   `json:"delivery_fee" yaml:"delivery_fee"`
	Location     Location  `json:"location" yaml:"location"`
	IsOpen       bool      `json:"is_open" yaml:"is_open"`
	Phone        string    `json:"phone" yaml:"phone"`
	Address      string    `json:"address" yaml:"address"`
	Email        string    `json:"email" yaml:"email"`
	Products     []Product `json:"products,omitempty" yaml:"products"`
}

type DeliveryPerson struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Phone             string   `json:"phone"`
	Email             string   `json:"email"`
	Vehicle           string   `json:"vehicle"`
	Rating            float64  `json:"rating"`
	IsOnline          bool     `json:"is_online"`
	Location          Location `json:"location"`
	CurrentDeliveries int      `json:"current_deliveries"`
}

type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// CartTotal sums item prices times quantities plus the delivery fee. Orders
// freeze this value at creation time; it is never recomputed afterwards.
func CartTotal(items []CartItem, deliveryFee float64) float64 {
	total := deliveryFee
	for _, it := range items {
		total += it.Product.Price * float64(it.Quantity)
	}
	return total
}

type Order struct {
	ID               string          `json:"id"`
	ClientID         string          `json:"client_id"`
	Client           *Profile        `json:"client,omitempty"`
	BusinessID       string          `json:"business_id"`
	Business         *Business       `json:"business,omitempty"`
	DeliveryPersonID string          `json:"delivery_person_id,omitempty"`
	DeliveryPerson   *DeliveryPerson `json:"delivery_person,omitempty"`
	Items            []CartItem      `json:"items"`
	TotalPrice       float64         `json:"total_price"`
	Status           OrderStatus     `json:"status"`
	DeliveryAddress  string          `json:"delivery_address"`
	DeliveryLocation Location        `json:"delivery_location"`
	SpecialNotes     string          `json:"special_notes,omitempty"`
	PreparationTime  int             `json:"preparation_time,omitempty"` // minutes
	CreatedAt        time.Time       `json:"created_at"`
}

// BusinessName is a display helper for notification messages.
func (o *Order) BusinessName() string {
	if o.Business != nil {
		return o.Business.Name
	}
	return o.BusinessID
}

// ShortID returns the last six characters of the order ID, the form shown
// to users ("Pedido #a1b2c3").
func (o *Order) ShortID() string {
	if len(o.ID) <= 6 {
		return o.ID
	}
	return o.ID[len(o.ID)-6:]
}

type HistoryEntry struct {
	OrderID   string      `json:"order_id"`
	Status    OrderStatus `json:"status"`
	ChangedAt time.Time   `json:"changed_at"`
}
