// Package main provides a read-only inspector for a Badger-backed TubeVault data directory.
//
// Usage:
//
//	DATA_PATH=~/TubeVault/data STORAGE_QUOTA_BYTES=1048576 go run ./cmd/dbinspect
//	go run ./cmd/dbinspect -origin tubevault
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/dgraph-io/badger/v4"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/kv"
	"github.com/tubevault/tubevault/internal/store"
	"github.com/tubevault/tubevault/internal/validation"
)

var origin = flag.String("origin", kv.DefaultOrigin, "Storage origin to inspect")

// inspectEnv holds the variables shared with the main binary's configuration.
type inspectEnv struct {
	DataPath string `env:"DATA_PATH"`
	Quota    int64  `env:"STORAGE_QUOTA_BYTES" envDefault:"5242880"`
}

func main() {
	flag.Parse()

	var cfg inspectEnv
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}
	if cfg.DataPath == "" {
		cfg.DataPath = os.ExpandEnv("$HOME/TubeVault/data")
	}
	dbPath := filepath.Join(cfg.DataPath, "badger")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// The medium only reads here; Close is left to the deferred db.Close.
	medium := kv.NewBadger(db, kv.WithOrigin(*origin))

	if err := inspect(context.Background(), medium, cfg.Quota, validation.New(), os.Stdout); err != nil {
		log.Printf("Inspection failed: %v", err)
		os.Exit(1)
	}
}

// inspect prints every key of the origin with its size and checks the state slot.
// A quota of 0 means unlimited.
func inspect(ctx context.Context, medium *kv.Badger, quota int64, v *validation.Validator, out io.Writer) error {
	fmt.Fprintln(out, "=== Storage Inspection ===")
	fmt.Fprintln(out)

	keys, err := medium.Keys(ctx)
	if err != nil {
		return err
	}

	var total int
	for _, key := range keys {
		value, _, err := medium.GetItem(ctx, key)
		if err != nil {
			return err
		}
		size := len(key) + len(value)
		total += size
		fmt.Fprintf(out, "%-32s %8d bytes\n", key, size)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "=== Summary ===")
	fmt.Fprintf(out, "Keys: %d\n", len(keys))
	if quota > 0 {
		fmt.Fprintf(out, "Used: %d of %d bytes\n", total, quota)
	} else {
		fmt.Fprintf(out, "Used: %d bytes (no quota)\n", total)
	}

	raw, ok, err := medium.GetItem(ctx, store.StorageKey)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(out, "Slot %s: empty\n", store.StorageKey)
		return nil
	}

	state, err := v.ParseAppState([]byte(raw))
	if err != nil {
		fmt.Fprintf(out, "Slot %s: INVALID (reads return the empty state; the next write overwrites it)\n", store.StorageKey)
		fmt.Fprintf(out, "  %v\n", err)
		for _, violation := range validation.Violations(err) {
			fmt.Fprintf(out, "    %s\n", violation)
		}
		return nil
	}

	fmt.Fprintf(out, "Slot %s: valid\n", store.StorageKey)
	printCounts(out, state)
	return nil
}

func printCounts(out io.Writer, state domain.AppState) {
	fmt.Fprintf(out, "Videos: %d\n", len(state.Videos))
	fmt.Fprintf(out, "Tags: %d\n", len(state.Tags))
	fmt.Fprintf(out, "Notes: %d\n", len(state.Notes))

	orphans := 0
	for _, n := range state.Notes {
		if state.FindVideo(n.VideoID) < 0 {
			orphans++
		}
	}
	if orphans > 0 {
		fmt.Fprintf(out, "Notes without a video: %d\n", orphans)
	}
}
