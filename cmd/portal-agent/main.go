// cmd/portal-agent/main.go
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"franchise-portal/internal/common/config"
	"franchise-portal/internal/common/errors"
	"franchise-portal/internal/common/logger"
	"franchise-portal/internal/common/observability"
	"franchise-portal/internal/common/portal"
	"franchise-portal/internal/common/scheduler"
	"franchise-portal/internal/customer/dashboard"
	eventstream "franchise-portal/internal/customer/event-stream"
	sessionguard "franchise-portal/internal/customer/session-guard"
)

const exitUnauthenticated = 2

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting portal agent...", zap.String("version", cfg.App.Version))

	obs := observability.New(cfg.App.Name, log)
	defer obs.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Session store ---
	store, redis, err := sessionguard.OpenStore(cfg)
	if err != nil {
		zapLog.Fatal("session store init failed", zap.Error(err))
	}
	if redis != nil {
		err = retryWithBackoff(func() error {
			return redis.Ping(ctx)
		}, 5, time.Second, zapLog, "Redis connection")
		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		defer redis.Close()
		zapLog.Info("Redis session store connected", zap.String("redis", cfg.Database.Redis.String()))
	}
	guard := sessionguard.NewGuard(sessionguard.LoadConfig(cfg.Session), store, log)

	// --- Portal backend ---
	client := portal.NewClient(cfg.Portal, log)
	clock := scheduler.RealClock()
	subscriber := eventstream.NewSubscriber(eventstream.LoadConfig(cfg.Stream), client, clock, log)

	loop := scheduler.NewLoop(log)
	go loop.Run(ctx)

	dash := dashboard.NewDashboard(dashboard.LoadConfig(cfg), loop, clock, guard, client, subscriber, log, obs)

	// --- Health & Metrics Server ---
	var ready atomic.Bool
	if cfg.Metrics.Enabled {
		go serveHealth(cfg.Metrics.Address, &ready, zapLog)
	}

	session, err := dash.Activate(ctx)
	if err != nil {
		if errors.IsUnauthenticated(err) {
			fmt.Printf("Not logged in. Redirecting to %s\n", guard.LoginPath())
			cancel()
			<-loop.Done()
			os.Exit(exitUnauthenticated)
		}
		zapLog.Fatal("dashboard activation failed", zap.Error(err))
	}
	ready.Store(true)
	fmt.Printf("Welcome, %s (%s)\n", session.Name, session.CustomerID)

	r := &renderer{}
	loop.Call(func() { dash.OnChange(r.render) })

	commands := make(chan string)
	go readCommands(commands)

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	code := run(ctx, dash, loop, commands, sigCh, zapLog)

	ready.Store(false)
	loop.Call(dash.Stop)
	cancel()
	<-loop.Done()
	zapLog.Info("Portal agent stopped gracefully")
	if code != 0 {
		zapLog.Sync()
		os.Exit(code)
	}
}

func run(ctx context.Context, dash *dashboard.Dashboard, loop *scheduler.Loop, commands <-chan string,
	sigCh <-chan os.Signal, zapLog *zap.Logger) int {
	for {
		select {
		case <-sigCh:
			zapLog.Info("Shutdown signal received, stopping dashboard...")
			return 0
		case <-loop.Done():
			return 1
		case line, ok := <-commands:
			if !ok {
				return 0
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
			case "pay":
				loop.Call(dash.Pay)
			case "paid":
				loop.Call(dash.Paid)
			case "cancel":
				loop.Call(dash.CancelPayment)
			case "dismiss":
				loop.Call(dash.Dismiss)
			case "refresh":
				loop.Call(dash.Refresh)
			case "status":
				var v dashboard.View
				loop.Call(func() { v = dash.View() })
				printView(v)
			case "logout":
				logoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
				path, err := dash.Logout(logoutCtx)
				cancel()
				if err != nil {
					fmt.Printf("Logout failed: %v\n", err)
					continue
				}
				fmt.Printf("Logged out. Redirecting to %s\n", path)
				return exitUnauthenticated
			case "quit", "exit":
				return 0
			default:
				fmt.Println("commands: pay, paid, cancel, dismiss, refresh, status, logout, quit")
			}
		}
	}
}

func readCommands(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func serveHealth(addr string, ready *atomic.Bool, zapLog *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status, code := "ready", http.StatusOK
		if !ready.Load() {
			status, code = "not ready", http.StatusServiceUnavailable
		}
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]string{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	zapLog.Info("Health/Metrics server listening", zap.String("address", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		zapLog.Error("Health/Metrics server failed", zap.Error(err))
	}
}

// renderer prints what changed since the last view. It runs on the loop.
type renderer struct {
	notificationID string
	paymentState   string
	paymentTimer   string
	status         string
}

func (r *renderer) render(v dashboard.View) {
	if v.Notification != nil && v.Notification.ID != r.notificationID {
		fmt.Printf("[%s] %s\n", strings.ToUpper(string(v.Notification.Severity)), v.Notification.Message)
	}
	r.notificationID = ""
	if v.Notification != nil {
		r.notificationID = v.Notification.ID
	}

	if v.Status != nil && string(v.Status.Status) != r.status {
		r.status = string(v.Status.Status)
		fmt.Printf("Application status: %s (%d%%) %s\n", v.Status.Status, v.Status.Progress, v.Status.Description)
	}

	state := string(v.Payment.State)
	if state != r.paymentState {
		r.paymentState = state
		switch {
		case v.Payment.Open():
			fmt.Printf("Payment window open: pay %s, QR: %s\n", v.Payment.Amount, v.Payment.QR())
		case v.Payment.Outcome != "":
			fmt.Printf("Payment window closed (%s)\n", v.Payment.Outcome)
		}
	}
	if v.Payment.Open() && v.Payment.Timer != r.paymentTimer && v.Payment.Remaining%30 == 0 {
		fmt.Printf("Time remaining: %s\n", v.Payment.Timer)
	}
	r.paymentTimer = v.Payment.Timer
}

func printView(v dashboard.View) {
	if v.Application == nil {
		if v.Loading {
			fmt.Println("Loading application...")
		} else {
			fmt.Println("No application data available.")
		}
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("render failed: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

