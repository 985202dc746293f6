package statemachine

import "github.com/aleph-im/nodestatus/internal/nodetypes"

// dropCore implements D1: evict a core node, releasing every staker's
// delegation to it and orphaning every linked resource node.
func (sm *StateMachine) dropCore(h string) {
	node, ok := sm.CoreNodes[h]
	if !ok {
		return
	}

	for a := range node.Stakers {
		stakes := removeString(sm.AddressToStakes[a], h)
		if len(stakes) == 0 {
			delete(sm.AddressToStakes, a)
		} else {
			sm.AddressToStakes[a] = stakes
			for _, h2 := range stakes {
				sm.updateNodeStats(h2)
			}
		}
	}

	for _, r := range node.ResourceNodes {
		if rn, ok := sm.ResourceNodes[r]; ok {
			rn.Parent = ""
			rn.Status = nodetypes.StatusWaiting
		}
	}

	delete(sm.AddressToOwnedNode, node.Owner)
	delete(sm.CoreNodes, h)
}

// removeAllStakes implements D2: drop every stake address a holds.
func (sm *StateMachine) removeAllStakes(a string) {
	stakes := sm.AddressToStakes[a]
	for _, h := range stakes {
		if cn, ok := sm.CoreNodes[h]; ok {
			delete(cn.Stakers, a)
			sm.updateNodeStats(h)
		}
	}
	delete(sm.AddressToStakes, a)
}

// dropResource implements D3: evict a resource node, unlinking it from its
// parent first if linked.
func (sm *StateMachine) dropResource(r string) {
	rn, ok := sm.ResourceNodes[r]
	if !ok {
		return
	}
	if rn.Parent != "" {
		if cn, ok := sm.CoreNodes[rn.Parent]; ok {
			cn.RemoveResourceNode(r)
			sm.updateNodeStats(rn.Parent)
		}
	}
	delete(sm.ResourceNodes, r)
}

// removeOneStake implements D4: drop a single stake, recomputing the split
// on every node that remains in a's stake set.
func (sm *StateMachine) removeOneStake(a, h string) {
	stakes := removeString(sm.AddressToStakes[a], h)
	if len(stakes) == 0 {
		delete(sm.AddressToStakes, a)
	} else {
		sm.AddressToStakes[a] = stakes
	}

	if cn, ok := sm.CoreNodes[h]; ok {
		delete(cn.Stakers, a)
		sm.updateNodeStats(h)
	}

	for _, h2 := range stakes {
		sm.updateNodeStats(h2)
	}
}

// updateNodeStats recomputes every staker's equal-split share, the derived
// total_staked, and the active/waiting status of the core node h.
func (sm *StateMachine) updateNodeStats(h string) {
	cn, ok := sm.CoreNodes[h]
	if !ok {
		return
	}

	var total int64
	for a := range cn.Stakers {
		count := len(sm.AddressToStakes[a])
		if count == 0 {
			count = 1
		}
		share := sm.Balances.Balance(a) / int64(count)
		cn.Stakers[a] = share
		total += share
	}
	cn.TotalStaked = total

	if total >= sm.Config.ActivationThreshold-1 {
		cn.Status = nodetypes.StatusActive
	} else {
		cn.Status = nodetypes.StatusWaiting
	}
}
