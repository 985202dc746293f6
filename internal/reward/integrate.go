package reward

import (
	"math"

	"github.com/aleph-im/nodestatus/internal/nodetypes"
)

// integrateSegment applies one per-block emission step for the block
// interval [since, current) over the given node snapshot.
func (ig *Integrator) integrateSegment(since, current uint64, coreNodes map[string]*nodetypes.CoreNode, resourceNodes map[string]*nodetypes.ResourceNode) {
	blockCount := current - since
	if blockCount == 0 {
		return
	}

	active := activeCoreNodes(coreNodes)
	if len(active) == 0 {
		return
	}

	blocksPerDay := float64(ig.Config.BlocksPerDay)
	blocks := float64(blockCount)

	perNodePerBlock := ig.Config.DailyNodesReward / blocksPerDay / float64(len(active))
	perNodeSegment := perNodePerBlock * blocks

	perBonusSegment := perNodeSegment
	if current > ig.Config.BonusStartHeight {
		modifier := ig.Config.BonusModifier - float64(current-ig.Config.BonusStartHeight)*ig.Config.BonusDecay
		if modifier > 1 {
			perBonusSegment = perNodeSegment * modifier
		}
	}

	perDayStakers := ((math.Log10(float64(len(active))) + 1) / 3) * ig.Config.DailyStakersBase
	stakersSegment := perDayStakers / blocksPerDay * blocks

	var totalStake int64
	for _, n := range active {
		totalStake += n.TotalStaked
	}

	for _, n := range active {
		paid := ig.payResourceNodes(n, resourceNodes, blocks)

		linkage := math.Min(0.7+0.1*float64(paid), 1)
		nodeMult := linkage * ScoreMultiplier(n.Score)

		operatorBase := perNodeSegment
		if n.HasBonus {
			operatorBase = perBonusSegment
		}
		recipient := n.Reward
		if !isValidAddress(recipient) {
			recipient = n.Owner
		}
		ig.credit(recipient, operatorBase*nodeMult)

		if totalStake == 0 {
			continue
		}
		for addr, stake := range n.Stakers {
			share := float64(stake) / float64(totalStake)
			ig.credit(addr, share*stakersSegment*nodeMult)
		}
	}
}

// payResourceNodes credits every linked resource node its segment reward,
// capped at the operator's NodeMaxPaid count, and returns the paid count
// (itself clamped) used to compute the operator's linkage multiplier.
func (ig *Integrator) payResourceNodes(n *nodetypes.CoreNode, resourceNodes map[string]*nodetypes.ResourceNode, blocks float64) int {
	blocksPerDay := float64(ig.Config.BlocksPerDay)
	daysPerMonth := 365.0 / 12.0

	paid := 0
	for _, rHash := range n.ResourceNodes {
		r, ok := resourceNodes[rHash]
		if !ok {
			continue
		}

		crnMult := ScoreMultiplier(r.Score)
		rAmount := (ig.Config.ResourceNodeMonthlyBase + ig.Config.ResourceNodeMonthlyVariable*r.Decentralization) /
			daysPerMonth / blocksPerDay * blocks * crnMult

		if crnMult <= 0 {
			continue
		}
		paid++
		if paid > ig.Config.NodeMaxPaid {
			continue
		}
		recipient := r.Reward
		if !isValidAddress(recipient) {
			recipient = r.Owner
		}
		ig.credit(recipient, rAmount)
	}

	if paid > ig.Config.NodeMaxPaid {
		paid = ig.Config.NodeMaxPaid
	}
	return paid
}

func activeCoreNodes(nodes map[string]*nodetypes.CoreNode) []*nodetypes.CoreNode {
	active := make([]*nodetypes.CoreNode, 0, len(nodes))
	for _, n := range nodes {
		if n.Status == nodetypes.StatusActive {
			active = append(active, n)
		}
	}
	return active
}
