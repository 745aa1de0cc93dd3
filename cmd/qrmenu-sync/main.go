package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrmenu-sync/internal/config"
	"qrmenu-sync/internal/connections/rabbitmq"
	"qrmenu-sync/internal/connections/redisdb"
	"qrmenu-sync/internal/logger"
	"qrmenu-sync/internal/notify"
	"qrmenu-sync/internal/pull"
	"qrmenu-sync/internal/store"
	"qrmenu-sync/internal/viewer"
)

func main() {
	mode := flag.String("mode", "", "kitchen | waiter | customer")
	table := flag.Int64("table", 0, "customer: table id from the scanned QR code")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch *mode {
	case "kitchen":
		err = runKitchen(ctx, cfg)
	case "waiter":
		err = runWaiter(ctx, cfg)
	case "customer":
		if *table == 0 {
			fmt.Fprintln(os.Stderr, "--table is required for customer mode")
			os.Exit(2)
		}
		err = runCustomer(ctx, cfg, *table)
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: kitchen | waiter | customer")
		os.Exit(2)
	}
	if err != nil {
		logger.New("bootstrap").Error("fatal", err, map[string]any{"mode": *mode})
		os.Exit(1)
	}
}

func runKitchen(ctx context.Context, cfg config.Config) error {
	lg := logger.New("kitchen-viewer")
	mq, err := rabbitmq.Dial(rabbitmq.Config{
		Host: cfg.RabbitHost, Port: cfg.RabbitPort,
		User: cfg.RabbitUser, Password: cfg.RabbitPass,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer mq.Close()

	api := pull.NewClient(cfg.APIBaseURL, pull.StaticToken(cfg.Token))
	k := viewer.NewKitchen(api, mq, lg)
	lg.Info("viewer_started", map[string]any{"viewer": "kitchen"})

	go render(ctx, k.Notifications(), func() string {
		return fmt.Sprintf("new=%d preparing=%d", len(k.Pending()), len(k.Preparing()))
	}, k.Banner)
	return k.Run(ctx)
}

func runWaiter(ctx context.Context, cfg config.Config) error {
	lg := logger.New("waiter-viewer")
	mq, err := rabbitmq.Dial(rabbitmq.Config{
		Host: cfg.RabbitHost, Port: cfg.RabbitPort,
		User: cfg.RabbitUser, Password: cfg.RabbitPass,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer mq.Close()

	api := pull.NewClient(cfg.APIBaseURL, pull.StaticToken(cfg.Token))
	w := viewer.NewWaiter(api, mq, lg)
	lg.Info("viewer_started", map[string]any{"viewer": "waiter"})

	go render(ctx, w.Notifications(), func() string {
		out := ""
		for _, g := range w.ByTable() {
			out += fmt.Sprintf("table %d: %d orders  ", g.TableNumber, len(g.Orders))
		}
		if out == "" {
			out = "no orders"
		}
		return out
	}, w.Banner)
	return w.Run(ctx)
}

func runCustomer(ctx context.Context, cfg config.Config, table int64) error {
	lg := logger.New("customer-viewer")

	var archive store.Archiver
	rdb, err := redisdb.Connect(redisdb.Config{
		Addr: cfg.RedisAddr, Password: cfg.RedisPass, DB: cfg.RedisDB,
	})
	if err != nil {
		// without the archive a reload loses the active-orders list,
		// nothing else
		lg.Error("redis_unavailable", err, map[string]any{"addr": cfg.RedisAddr})
	} else {
		defer rdb.Close()
		archive = store.NewRedisArchive(rdb, table)
	}

	api := pull.NewClient(cfg.APIBaseURL, nil)
	c := viewer.NewCustomer(api, archive, table, lg)
	lg.Info("viewer_started", map[string]any{"viewer": "customer", "table_id": table})

	go render(ctx, c.Notifications(), func() string {
		out := ""
		for _, o := range c.ActiveOrders() {
			line := fmt.Sprintf("order #%d %s", o.ID, o.Status)
			if left, ok := c.Remaining(o.ID); ok {
				line += fmt.Sprintf(" (removing in %ds)", int(left.Seconds()))
			}
			out += line + "  "
		}
		if out == "" {
			out = "no active orders"
		}
		return out
	}, func() error { return nil })

	err = c.Run(ctx)
	if errors.Is(err, viewer.ErrTableUnavailable) {
		fmt.Fprintln(os.Stderr, "table not found or not active, please try again later")
	}
	return err
}

// render prints a one-line summary every couple of seconds. Display
// proper is out of scope; this is only a terminal harness.
func render(ctx context.Context, notes *notify.Queue, summary func() string, banner func() error) {
	t := time.NewTicker(2 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := banner(); err != nil {
				fmt.Printf("!! %v\n", err)
			}
			if cur, ok := notes.Current(); ok {
				fmt.Printf("[%s] %s\n", cur.Severity, cur.Message)
			}
			fmt.Println(summary())
		}
	}
}
