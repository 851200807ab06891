// Package main provides the TubeVault command-line client.
//
// Usage:
//
//	tubevault [global flags] <command> [command flags]
//	tubevault -storage sqlite add-video -url https://youtu.be/dQw4w9WgXcQ -title "Never Gonna"
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	"github.com/tubevault/tubevault/internal/config"
	"github.com/tubevault/tubevault/internal/di"
	"github.com/tubevault/tubevault/internal/di/providers"
	"github.com/tubevault/tubevault/internal/errors"
	"github.com/tubevault/tubevault/internal/logger"
	"github.com/tubevault/tubevault/internal/store"
	"github.com/tubevault/tubevault/internal/validation"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 2
	}

	// Create DI container
	injector := di.NewContainer(cfg)

	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		return 1
	}

	log := do.MustInvoke[*logger.Logger](injector)

	// Storage needs explicit shutdown since it uses a wrapper type.
	defer func() {
		if mediumHandle, err := do.Invoke[*providers.MediumHandle](injector); err == nil {
			if err := mediumHandle.Shutdown(); err != nil {
				log.Error("Failed to close storage", "error", err)
			}
		}
		_ = log.Close()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{
		store:     do.MustInvoke[*store.Store](injector),
		validator: do.MustInvoke[*validation.Validator](injector),
		out:       os.Stdout,
		now:       time.Now,
	}

	if err := run(ctx, a, cfg.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tubevault: %v\n", err)
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage())
			return 2
		}
		return 1
	}
	return 0
}
