package admin

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/orders"
)

// Server is the read-only admin surface: live order overview plus
// Prometheus metrics. It stands in for the admin dashboard page.
type Server struct {
	book    *orders.Book
	cache   *orders.ActiveCache
	server  *http.Server
	started time.Time
	timeNow func() time.Time
}

func NewServer(book *orders.Book, cache *orders.ActiveCache) *Server {
	return &Server{
		book:    book,
		cache:   cache,
		timeNow: time.Now,
	}
}

// Router builds the HTTP routes. Split out so tests can drive the handlers
// without a listener.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/admin/overview", s.handleOverview).Methods(http.MethodGet)
	r.HandleFunc("/admin/orders", s.handleListOrders).Methods(http.MethodGet)
	r.HandleFunc("/admin/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)
	r.HandleFunc("/admin/orders/{id}/history", s.handleOrderHistory).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.started = s.timeNow()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("admin server listening", zap.String("addr", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	zap.L().Info("admin server stopped")
	return nil
}

type overviewResponse struct {
	UptimeSeconds  float64                    `json:"uptime_seconds"`
	ActiveOrders   int                        `json:"active_orders"`
	CountsByStatus map[domain.OrderStatus]int `json:"counts_by_status"`
	LiveOrders     []domain.Order             `json:"live_orders"`
	OnlineCouriers []domain.DeliveryPerson    `json:"online_couriers"`
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	live := s.cache.All()
	resp := overviewResponse{
		UptimeSeconds:  s.timeNow().Sub(s.started).Seconds(),
		ActiveOrders:   len(live),
		CountsByStatus: s.book.CountByStatus(),
		LiveOrders:     live,
		OnlineCouriers: couriersOf(s.book.List()),
	}
	writeJSON(w, http.StatusOK, resp)
}

// couriersOf collects the distinct delivery people attached to orders still
// in flight. There is no standalone courier registry; a courier is online
// while they carry an active order.
func couriersOf(all []domain.Order) []domain.DeliveryPerson {
	seen := make(map[string]bool)
	var out []domain.DeliveryPerson
	for _, o := range all {
		if o.Status.IsTerminal() || o.DeliveryPerson == nil || seen[o.DeliveryPerson.ID] {
			continue
		}
		seen[o.DeliveryPerson.ID] = true
		out = append(out, *o.DeliveryPerson)
	}
	return out
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.book.List())
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	order, err := s.book.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) handleOrderHistory(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	history, err := s.book.History(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
