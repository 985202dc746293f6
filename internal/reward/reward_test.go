package reward

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aleph-im/nodestatus/internal/nodetypes"
)

func TestS5_ScoreMultiplierEdges(t *testing.T) {
	require.Equal(t, 0.0, ScoreMultiplier(0.19))
	require.Equal(t, 0.0, ScoreMultiplier(0.20))
	require.Equal(t, 0.5, ScoreMultiplier(0.50))
	require.Equal(t, 1.0, ScoreMultiplier(0.80))
}

func TestS6_EndToEndDistribution(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RewardStartHeight = 0

	ig := &Integrator{Config: cfg, Rewards: make(map[string]float64)}

	resource := &nodetypes.ResourceNode{
		Hash:             "crn1",
		Owner:            "crnOwner",
		Reward:           "crnOwner",
		Score:            1.0,
		Decentralization: 1.0,
	}
	core := &nodetypes.CoreNode{
		Hash:          "ccn1",
		Owner:         "operator",
		Reward:        "operator",
		Status:        nodetypes.StatusActive,
		Score:         1.0,
		ResourceNodes: []string{"crn1"},
		TotalStaked:   1000,
		Stakers:       map[string]int64{"B": 500},
	}

	coreNodes := map[string]*nodetypes.CoreNode{"ccn1": core}
	resourceNodes := map[string]*nodetypes.ResourceNode{"crn1": resource}

	ig.integrateSegment(0, 6500, coreNodes, resourceNodes)

	operatorReward := ig.Rewards["operator"]
	expectedOperator := cfg.DailyNodesReward * (6500.0 / float64(cfg.BlocksPerDay)) * 0.8
	require.InDelta(t, expectedOperator, operatorReward, 1e-6)

	stakerReward := ig.Rewards["B"]
	perDayStakers := ((0 + 1.0) / 3) * cfg.DailyStakersBase // log10(1) == 0
	stakersSegment := perDayStakers / float64(cfg.BlocksPerDay) * 6500.0
	expectedStaker := 0.5 * stakersSegment * 0.8
	require.InDelta(t, expectedStaker, stakerReward, 1e-6)
}

func TestIntegrateSegmentSkipsWhenNoActiveNodes(t *testing.T) {
	ig := &Integrator{Config: DefaultConfig(), Rewards: make(map[string]float64)}
	waiting := &nodetypes.CoreNode{Hash: "n", Status: nodetypes.StatusWaiting}

	ig.integrateSegment(0, 100, map[string]*nodetypes.CoreNode{"n": waiting}, nil)
	require.Empty(t, ig.Rewards)
}

func TestPayResourceNodesCapsAtNodeMaxPaid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NodeMaxPaid = 1
	ig := &Integrator{Config: cfg, Rewards: make(map[string]float64)}

	r1 := &nodetypes.ResourceNode{Hash: "r1", Owner: "o1", Reward: "o1", Score: 1.0}
	r2 := &nodetypes.ResourceNode{Hash: "r2", Owner: "o2", Reward: "o2", Score: 1.0}
	resourceNodes := map[string]*nodetypes.ResourceNode{"r1": r1, "r2": r2}

	core := &nodetypes.CoreNode{Hash: "c", ResourceNodes: []string{"r1", "r2"}}
	paid := ig.payResourceNodes(core, resourceNodes, 100)

	require.Equal(t, 1, paid)
	require.NotZero(t, ig.Rewards["o1"])
	require.Zero(t, ig.Rewards["o2"])
}
