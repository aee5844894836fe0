package catalog

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
)

// DefaultDelay approximates the network round-trip the mock backend fakes.
const DefaultDelay = 500 * time.Millisecond

// Catalog serves the fixed business list. There is no server-side
// filtering: lookups return the whole set after a simulated delay and
// callers filter locally.
type Catalog struct {
	businesses []domain.Business
	delay      time.Duration
}

type seedFile struct {
	Businesses []domain.Business `yaml:"businesses"`
}

// New returns a catalog backed by the built-in demo data.
func New(delay time.Duration) *Catalog {
	return &Catalog{businesses: defaultBusinesses(), delay: delay}
}

// Load reads a YAML seed file; a missing path falls back to the built-in
// demo data.
func Load(path string, delay time.Duration) (*Catalog, error) {
	if path == "" {
		return New(delay), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("catalog seed not found, using built-in data", zap.String("path", path))
			return New(delay), nil
		}
		return nil, fmt.Errorf("failed to read catalog seed: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed: %w", err)
	}
	if len(seed.Businesses) == 0 {
		return nil, fmt.Errorf("catalog seed %s lists no businesses", path)
	}
	return &Catalog{businesses: seed.Businesses, delay: delay}, nil
}

// NearbyBusinesses returns every business regardless of the coordinate,
// after the simulated delay. The coordinate is accepted for interface
// fidelity only.
func (c *Catalog) NearbyBusinesses(ctx context.Context, _ domain.Location) ([]domain.Business, error) {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	out := make([]domain.Business, len(c.businesses))
	copy(out, c.businesses)
	return out, nil
}

// Business returns one business by ID.
func (c *Catalog) Business(id string) (domain.Business, bool) {
	for _, b := range c.businesses {
		if b.ID == id {
			return b, true
		}
	}
	return domain.Business{}, false
}

// Filter mirrors the client-side filter panel.
type Filter struct {
	Query           string
	Categories      []string
	MinRating       float64
	MaxDeliveryTime int     // minutes, 0 means no limit
	MaxDeliveryFee  float64 // 0 means no limit, 1 means free delivery only
	OpenOnly        bool
}

// Apply filters the list the way the shopping view does, entirely on the
// caller's side.
func Apply(businesses []domain.Business, f Filter) []domain.Business {
	var out []domain.Business
	query := strings.ToLower(strings.TrimSpace(f.Query))
	for _, b := range businesses {
		if query != "" &&
			!strings.Contains(strings.ToLower(b.Name), query) &&
			!strings.Contains(strings.ToLower(b.Category), query) {
			continue
		}
		if len(f.Categories) > 0 && !containsFold(f.Categories, b.Category) {
			continue
		}
		if b.Rating < f.MinRating {
			continue
		}
		if f.MaxDeliveryTime > 0 {
			if mins, ok := maxMinutes(b.DeliveryTime); ok && mins > f.MaxDeliveryTime {
				continue
			}
		}
		if f.MaxDeliveryFee == 1 {
			// Special case for the "Gratis" option.
			if b.DeliveryFee != 0 {
				continue
			}
		} else if f.MaxDeliveryFee > 0 && b.DeliveryFee > f.MaxDeliveryFee {
			continue
		}
		if f.OpenOnly && !b.IsOpen {
			continue
		}
		out = append(out, b)
	}
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

// maxMinutes parses the upper bound out of labels like "25-35 min".
func maxMinutes(label string) (int, bool) {
	label = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(label), "min"))
	parts := strings.Split(label, "-")
	last := strings.TrimSpace(parts[len(parts)-1])
	mins, err := strconv.Atoi(last)
	if err != nil {
		return 0, false
	}
	return mins, true
}

func defaultBusinesses() []domain.Business {
	return []domain.Business{
		{
			ID: "b1", Name: "Taquería El Pastor", Category: "Mexicana", Rating: 4.8,
			DeliveryTime: "25-35 min", DeliveryFee: 30,
			Location: domain.Location{Lat: 19.4300, Lng: -99.1300},
			IsOpen:   true, Phone: "5512345678", Address: "Calle Falsa 123", Email: "contacto@elpastor.com",
			Products: []domain.Product{
				{ID: "p1", BusinessID: "b1", Name: "Tacos al Pastor (5)", Price: 75, Description: "Con piña, cebolla y cilantro", Category: "Tacos"},
				{ID: "p2", BusinessID: "b1", Name: "Gringa", Price: 55, Description: "Tortilla de harina con queso", Category: "Tacos"},
				{ID: "p3", BusinessID: "b1", Name: "Agua de Horchata", Price: 25, Description: "Vaso grande", Category: "Bebidas"},
			},
		},
		{
			ID: "b2", Name: "Sushi Express", Category: "Japonesa", Rating: 4.6,
			DeliveryTime: "30-40 min", DeliveryFee: 0,
			Location: domain.Location{Lat: 19.4350, Lng: -99.1400},
			IsOpen:   true, Phone: "5587654321", Address: "Avenida Siempre Viva 742", Email: "hola@sushiexpress.com",
			Products: []domain.Product{
				{ID: "p4", BusinessID: "b2", Name: "Ramen Tonkotsu", Price: 180, Description: "Caldo de cerdo, 18 horas", Category: "Main"},
				{ID: "p5", BusinessID: "b2", Name: "Rollo California", Price: 120, Description: "8 piezas", Category: "Rolls"},
			},
		},
		{
			ID: "b3", Name: "Pizza Bella", Category: "Italiana", Rating: 4.9,
			DeliveryTime: "20-30 min", DeliveryFee: 25,
			Location: domain.Location{Lat: 19.4290, Lng: -99.1350},
			IsOpen:   false, Phone: "5555555555", Address: "Plaza Central 1", Email: "info@pizzabella.com",
			Products: []domain.Product{
				{ID: "p6", BusinessID: "b3", Name: "Pizza Margherita", Price: 150, Description: "Horno de leña", Category: "Pizzas"},
			},
		},
		{
			ID: "b4", Name: "Burger Joint", Category: "Americana", Rating: 4.5,
			DeliveryTime: "35-45 min", DeliveryFee: 40,
			Location: domain.Location{Lat: 19.4380, Lng: -99.1310},
			IsOpen:   true, Phone: "5511223344", Address: "Boulevard del Sabor 55", Email: "burgers@joint.com",
			Products: []domain.Product{
				{ID: "p7", BusinessID: "b4", Name: "Doble con Queso", Price: 110, Description: "Doble carne, doble queso", Category: "Hamburguesas"},
				{ID: "p8", BusinessID: "b4", Name: "Papas Gajo", Price: 45, Description: "Con aderezo de la casa", Category: "Acompañamientos"},
			},
		},
	}
}
