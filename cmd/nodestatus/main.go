// Command nodestatus runs the node-registry pipeline: it merges chain
// balance, lifecycle/amend message and score-report event sources, drives
// the two-tier node state machine, and publishes snapshots and reward
// distributions to the aggregate store.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var err error
	switch os.Args[1] {
	case "run":
		err = runCommand(ctx, os.Args[2:])
	case "distribute":
		err = distributeCommand(ctx, os.Args[2:])
	case "monitor":
		err = monitorCommand(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "nodestatus: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`nodestatus — two-tier node registry and reward integrator

Usage:
  nodestatus run [--metrics-addr addr]
  nodestatus distribute [--act|--testnet] [--start-height H] --end-height H [--reward-sender addr]
  nodestatus monitor <balance|messages|scores> [--platform NAME]`)
}
