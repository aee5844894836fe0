package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lUISVR2025XD/entregas-ai2025/internal/admin"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/auth"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/bus"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/catalog"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/config"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/domain"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/eventlog"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/feed"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/logger"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/orders"
	"github.com/lUISVR2025XD/entregas-ai2025/internal/tracking"
)

func main() {
	cfg := config.Load()
	lg := logger.New(cfg.Debug)
	defer func() { _ = lg.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		zap.L().Error("fatal", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	notifBus := bus.New()

	cache := orders.NewActiveCache()
	defer cache.Attach(notifBus)()

	var producer eventlog.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = eventlog.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		zap.L().Info("event log producer: kafka", zap.Strings("brokers", cfg.KafkaBrokers))
	} else {
		producer = eventlog.NewConsoleProducer()
		zap.L().Info("event log producer: console")
	}
	pipeline := eventlog.NewPipeline(producer, 2, 5, 500*time.Millisecond)
	pipeline.Start(ctx)
	defer pipeline.Attach(notifBus)()
	defer func() {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		pipeline.Shutdown(shutdownCtx)
	}()

	users, err := auth.NewStore(cfg.DataFile)
	if err != nil {
		return err
	}
	if err := users.Seed(); err != nil {
		return err
	}

	menu, err := catalog.Load(cfg.CatalogSeed, cfg.CatalogDelay)
	if err != nil {
		return err
	}

	book := orders.NewBook(notifBus)

	clientFeed := feed.NewInbox(domain.RoleClient, notifBus, feed.Config{DismissAfter: cfg.ToastDismiss})
	defer clientFeed.Close()
	businessFeed := feed.NewInbox(domain.RoleBusiness, notifBus, feed.Config{DismissAfter: cfg.ToastDismiss})
	defer businessFeed.Close()
	deliveryFeed := feed.NewInbox(domain.RoleDelivery, notifBus, feed.Config{DismissAfter: cfg.ToastDismiss})
	defer deliveryFeed.Close()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return admin.NewServer(book, cache).Run(gctx, cfg.HTTPAddr)
	})
	g.Go(func() error {
		return orders.NewWatcher(book, cfg.ExpirySweep).Run(gctx)
	})
	g.Go(func() error {
		return demo(gctx, cfg, users, menu, book, deliveryFeed)
	})

	return g.Wait()
}

// demo plays the full happy path once: a client orders, the business
// accepts and prepares, a courier picks up, and the simulator drives the
// courier home. Everything observable through the admin surface while it
// runs.
func demo(ctx context.Context, cfg config.Config, users *auth.Store, menu *catalog.Catalog, book *orders.Book, deliveryFeed *feed.Inbox) error {
	client, err := users.Login("ana@cliente.com", "password123")
	if err != nil {
		return err
	}
	zap.L().Info("demo: client logged in", zap.String("name", client.Name))

	businesses, err := menu.NearbyBusinesses(ctx, *client.Location)
	if err != nil {
		return err
	}
	open := catalog.Apply(businesses, catalog.Filter{OpenOnly: true, Categories: []string{"Mexicana"}})
	if len(open) == 0 {
		return errors.New("demo: no open businesses")
	}
	chosen := open[0]

	var gringa domain.Product
	for _, p := range chosen.Products {
		if p.Name == "Gringa" {
			gringa = p
		}
	}
	cart := []domain.CartItem{{Product: gringa, Quantity: 2}}

	order, err := book.PlaceOrder(client, chosen, cart, *client.Location, "Dirección del mapa", "Sin cebolla, por favor")
	if err != nil {
		return err
	}
	zap.L().Info("demo: order placed", zap.String("order_id", order.ID), zap.Float64("total", order.TotalPrice))

	if err := pause(ctx, 2*time.Second); err != nil {
		return err
	}
	if err := book.Accept(order.ID, 15); err != nil {
		return err
	}

	if err := pause(ctx, 2*time.Second); err != nil {
		return err
	}
	if err := book.MarkReady(order.ID); err != nil {
		return err
	}

	// The courier takes the job from their feed, like the delivery
	// dashboard does.
	available := deliveryFeed.Orders()
	if len(available) == 0 {
		return errors.New("demo: courier feed is empty")
	}
	courier := domain.DeliveryPerson{
		ID: "delivery-1", Name: "Pedro R.", Vehicle: "Moto", Rating: 4.9,
		IsOnline: true, Location: chosen.Location,
	}
	if err := book.Pickup(available[0].ID, courier); err != nil {
		return err
	}
	if err := book.SendQuickMessage(order.ID, domain.RoleDelivery, domain.QuickMessagesDelivery[1]); err != nil {
		return err
	}

	sim := tracking.NewSimulator(book, order.ID, chosen.Location, order.DeliveryLocation, tracking.Config{
		Interval: cfg.SimInterval,
	})
	sim.OnMove(func(pos domain.Location) {
		zap.L().Debug("demo: courier moved", zap.Float64("lat", pos.Lat), zap.Float64("lng", pos.Lng))
	})
	if err := sim.Run(ctx); err != nil {
		return err
	}

	final, err := book.Get(order.ID)
	if err != nil {
		return err
	}
	zap.L().Info("demo: scenario finished",
		zap.String("order_id", final.ID),
		zap.String("status", string(final.Status)))

	// Keep serving the admin surface until interrupted.
	<-ctx.Done()
	return ctx.Err()
}

func pause(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
