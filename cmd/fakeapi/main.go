// Command fakeapi serves the expense tracker REST API from memory, for local
// front-end and CLI work without the real backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"expensync/internal/cli"
	"expensync/internal/core"
	"expensync/internal/devserver"
	"expensync/internal/gateway/memory"
	"expensync/internal/log"

	"github.com/shopspring/decimal"
)

func main() {
	seed := flag.Bool("seed", false, "register a demo user (mobile 9999999999, password demo) with sample data")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), os.Stdout)

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}

	backend := memory.New(0)
	if *seed {
		if err := seedDemo(context.Background(), backend); err != nil {
			logger.Error("Failed to seed demo data", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Seeded demo user", "mobile", demoMobile)
	}

	srv := devserver.NewServer(":"+cfg.Port, backend, devserver.Options{
		AllowedOrigins:    cfg.CORSOrigins,
		Logger:            logger,
		RequestsPerMinute: cfg.RateLimitPerMinute,
	})

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting fake API server", "port", cfg.Port, "origins", cfg.CORSOrigins)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

const demoMobile = "9999999999"

func seedDemo(ctx context.Context, b *memory.Store) error {
	u, err := b.Signup(ctx, core.Profile{
		FirstName:    "Demo",
		LastName:     "User",
		Email:        "demo@example.com",
		MobileNumber: demoMobile,
		Password:     "demo",
	})
	if err != nil {
		return fmt.Errorf("signup: %w", err)
	}

	now := time.Now()
	expenses := []core.NewExpense{
		{Amount: decimal.RequireFromString("450.00"), Category: "Food", Merchant: "Zomato", Source: core.SourceSMS, Type: core.TypePurchase, Date: core.NewTimestamp(now.AddDate(0, 0, -1))},
		{Amount: decimal.RequireFromString("1299.00"), Category: "Shopping", Merchant: "Amazon", Source: core.SourceMail, Type: core.TypePurchase, Date: core.NewTimestamp(now.AddDate(0, 0, -3))},
		{Amount: decimal.RequireFromString("60.00"), Category: "Transport", Merchant: "Metro", Source: core.SourceManual, Type: core.TypeSpent, Date: core.NewTimestamp(now)},
	}
	for _, e := range expenses {
		e.Currency = "INR"
		e.User = u.Ref()
		if _, err := b.CreateExpense(ctx, e); err != nil {
			return fmt.Errorf("create expense: %w", err)
		}
	}

	bills := []core.NewBill{
		{Title: "Electricity", Amount: decimal.NewFromInt(1850), DueDate: core.NewTimestamp(now.AddDate(0, 0, 5))},
		{Title: "Internet", Amount: decimal.NewFromInt(799), DueDate: core.NewTimestamp(now.AddDate(0, 0, 12))},
	}
	for _, bill := range bills {
		bill.User = u.Ref()
		if _, err := b.CreateBill(ctx, bill); err != nil {
			return fmt.Errorf("create bill: %w", err)
		}
	}
	return nil
}
