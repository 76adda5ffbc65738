package main

// cmd/evalhash-inspect is a small CLI that polls a running evaluator's
// /stats endpoint and prints the memoization cache's hit/miss/skip counters, either as
// pretty text or JSON, once or on a watch interval.
//
// Usage:
//   go run ./cmd/evalhash-inspect -target http://localhost:6060
//   go run ./cmd/evalhash-inspect -target http://localhost:6060 -watch -interval 2s
//
// © 2025 evalhash authors. MIT License.

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	humanize "github.com/dustin/go-humanize"
)

type options struct {
	target   string
	watch    bool
	interval time.Duration
	json     bool
}

func parseFlags() *options {
	o := &options{}
	flag.StringVar(&o.target, "target", "http://localhost:6060", "base URL of the running evaluator's /stats endpoint")
	flag.BoolVar(&o.watch, "watch", false, "poll repeatedly instead of a single snapshot")
	flag.DurationVar(&o.interval, "interval", 2*time.Second, "poll interval when -watch is set")
	flag.BoolVar(&o.json, "json", false, "print raw JSON instead of a formatted summary")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	if opts.watch {
		ticker := time.NewTicker(opts.interval)
		defer ticker.Stop()
		for {
			if err := dumpOnce(ctx, opts); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			}
			select {
			case <-ticker.C:
				continue
			case <-ctx.Done():
				return
			}
		}
	}

	if err := dumpOnce(ctx, opts); err != nil {
		fatal(err)
	}
}

func dumpOnce(ctx context.Context, opts *options) error {
	snap, err := fetchSnapshot(ctx, opts.target)
	if err != nil {
		return err
	}
	if opts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	return prettyPrint(snap)
}

func fetchSnapshot(ctx context.Context, base string) (map[string]any, error) {
	url := base + "/stats"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", res.Status)
	}
	var data map[string]any
	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return nil, err
	}
	return data, nil
}

func prettyPrint(data map[string]any) error {
	fmt.Printf("Entries:     %s\n", humanize.Comma(toInt(data["entries"])))
	fmt.Printf("Hits:        %s\n", humanize.Comma(toInt(data["hits"])))
	fmt.Printf("Misses:      %s\n", humanize.Comma(toInt(data["misses"])))
	fmt.Printf("Stale hits:  %s\n", humanize.Comma(toInt(data["stale_hits"])))
	fmt.Printf("Impure skip: %s\n", humanize.Comma(toInt(data["impure_skips"])))
	fmt.Printf("Lazy skip:   %s\n", humanize.Comma(toInt(data["lazy_skips"])))
	if l2, ok := data["l2_keys"]; ok {
		fmt.Printf("L2 keys:     %s\n", humanize.Comma(toInt(l2)))
	}
	return nil
}

func toInt(v any) int64 {
	switch t := v.(type) {
	case float64:
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	default:
		return 0
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "evalhash-inspect:", err)
	os.Exit(1)
}
