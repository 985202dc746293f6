package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/aleph-im/nodestatus/internal/merge"
)

// monitorCommand runs a single balance/message/score source in isolation
// and prints each event it yields as it arrives — an operational tool for
// inspecting one ingester's live output without driving the full pipeline.
func monitorCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("monitor requires a source: balance, messages, or scores")
	}

	fs := flag.NewFlagSet("monitor "+args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	platform := fs.String("platform", "ALEPH_ETH", "balance platform to monitor (balance source only)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	var source merge.Source
	switch args[0] {
	case "balance":
		store, closeStore, err := a.chainStore()
		if err != nil {
			return err
		}
		defer closeStore()
		followers := a.balanceFollowers(store, 0, nil)
		f, ok := followers[*platform]
		if !ok {
			return fmt.Errorf("platform %q is not configured in BALANCES_PLATFORMS", *platform)
		}
		source = f
	case "messages":
		source = a.messageFollower(nil)
	case "scores":
		source = a.scoreFollower(nil)
	default:
		return fmt.Errorf("unknown monitor source %q", args[0])
	}

	enc := json.NewEncoder(os.Stdout)
	for {
		ev, err := source.Next(ctx)
		if err != nil {
			return err
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
}
