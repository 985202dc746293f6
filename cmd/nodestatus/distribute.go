package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aleph-im/nodestatus/internal/merge"
	"github.com/aleph-im/nodestatus/internal/reward"
	"github.com/aleph-im/nodestatus/publish"
)

// distributeCommand replays the merged event stream between two heights
// through a private reward integrator, batches the resulting recipient
// map, and publishes the distribution result. `--act` and `--testnet` are
// mutually exclusive mode discriminators (§6).
func distributeCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("distribute", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	act := fs.Bool("act", false, "enable real transfers (status=distribution)")
	testnet := fs.Bool("testnet", false, "route publishing to the testnet endpoint (status=simulation)")
	startHeight := fs.Uint64("start-height", 0, "first height of the replay window (defaults to the configured reward start height)")
	endHeight := fs.Uint64("end-height", 0, "last height of the replay window (required)")
	rewardSender := fs.String("reward-sender", "", "address recorded as the batch sender")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *act && *testnet {
		return errors.New("--act and --testnet are mutually exclusive")
	}
	if *endHeight == 0 {
		return errors.New("--end-height is required")
	}

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	status := publish.StatusCalculation
	apiServer := a.settings.AlephAPIServer
	switch {
	case *act:
		status = publish.StatusDistribution
	case *testnet:
		status = publish.StatusSimulation
		apiServer = a.settings.AlephTestnetAPIServer
	}

	store, closeStore, err := a.chainStore()
	if err != nil {
		return err
	}
	defer closeStore()

	sources := make([]merge.Source, 0, len(a.settings.Platforms())+2)
	for _, f := range a.balanceFollowers(store, *endHeight, nil) {
		sources = append(sources, f)
	}
	sources = append(sources, a.messageFollower(nil))
	sources = append(sources, a.scoreFollower(nil))

	merger, err := merge.New(ctx, sources)
	if err != nil {
		return fmt.Errorf("build merger: %w", err)
	}

	rewardCfg := reward.Config{
		RewardStartHeight:           a.settings.RewardStartHeight,
		BlocksPerDay:                a.settings.BlocksPerDay,
		DailyNodesReward:            a.settings.DailyNodesReward,
		DailyStakersBase:            a.settings.DailyStakersBase,
		ResourceNodeMonthlyBase:     a.settings.ResourceNodeMonthlyBase,
		ResourceNodeMonthlyVariable: a.settings.ResourceNodeMonthlyVariable,
		BonusStartHeight:            a.settings.BonusStartHeight,
		BonusModifier:               a.settings.BonusModifier,
		BonusDecay:                  a.settings.BonusDecay,
		NodeMaxPaid:                 a.settings.NodeMaxPaid,
	}
	integrator := reward.New(rewardCfg, a.stateMachineConfig())

	passTimer := prometheus.NewTimer(a.metrics.RewardPassDuration)
	rewards, err := integrator.Run(ctx, merger, *startHeight, *endHeight)
	passTimer.ObserveDuration()
	if err != nil {
		return fmt.Errorf("reward integration: %w", err)
	}

	batcher := a.batcher(*act)
	results := batcher.Prepare(ctx, *rewardSender, rewards)

	pub := a.publisher(apiServer)
	dist := publish.Distribution{
		Incentive:   "nodestatus",
		Status:      status,
		StartHeight: *startHeight,
		EndHeight:   *endHeight,
		Rewards:     rewards,
		Targets:     results,
	}
	if err := pub.PublishDistribution(ctx, dist); err != nil {
		return fmt.Errorf("publish distribution: %w", err)
	}

	a.log.Infof("distribution complete: status=%s recipients=%d batches=%d", status, len(rewards), len(results))
	return nil
}
