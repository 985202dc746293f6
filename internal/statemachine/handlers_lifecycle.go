package statemachine

import (
	"github.com/aleph-im/nodestatus/internal/events"
	"github.com/aleph-im/nodestatus/internal/nodetypes"
)

const (
	actionCreateNode         = "create-node"
	actionCreateResourceNode = "create-resource-node"
	actionLink               = "link"
	actionUnlink             = "unlink"
	actionDropNode           = "drop-node"
	actionStake              = "stake"
	actionStakeSplit         = "stake-split"
	actionUnstake            = "unstake"
)

func (sm *StateMachine) applyLifecycle(height uint64, msg *events.LifecycleMessage) (*Snapshot, error) {
	if msg == nil {
		return nil, nil
	}

	mutated := false
	switch msg.Action {
	case actionCreateNode:
		mutated = sm.createNode(height, msg)
	case actionCreateResourceNode:
		mutated = sm.createResourceNode(height, msg)
	case actionLink:
		mutated = sm.link(msg)
	case actionUnlink:
		mutated = sm.unlink(msg)
	case actionDropNode:
		mutated = sm.dropNodeAction(msg)
	case actionStake:
		mutated = sm.stake(msg)
	case actionStakeSplit:
		mutated = sm.stakeSplit(msg)
	case actionUnstake:
		mutated = sm.unstake(msg)
	default:
		return nil, nil
	}

	if !mutated {
		return nil, nil
	}
	sm.LastMessageHeight = height
	return sm.snapshot(height), nil
}

func (sm *StateMachine) createNode(height uint64, msg *events.LifecycleMessage) bool {
	a := msg.Sender
	if _, owns := sm.AddressToOwnedNode[a]; owns {
		return false
	}
	if sm.Balances.Balance(a) < sm.Config.NodeThreshold {
		return false
	}

	if len(sm.stakesOf(a)) > 0 {
		sm.removeAllStakes(a)
	}

	node := nodetypes.NewCoreNode(msg.ItemHash)
	node.Owner = a
	node.Reward = msg.Details.String("reward", a)
	node.Manager = msg.Details.String("manager", "")
	node.Name = msg.Details.String("name", "")
	node.Picture = msg.Details.String("picture", "")
	node.Banner = msg.Details.String("banner", "")
	node.Description = msg.Details.String("description", "")
	node.RegistrationURL = msg.Details.String("registration_url", "")
	node.TermsAndConditions = msg.Details.String("terms_and_conditions", "")
	node.StreamReward = msg.Details.String("stream_reward", "")
	node.Address = msg.Details.String("address", "")
	node.Locked = msg.Details.Bool("locked")
	node.HasBonus = height < sm.Config.BonusStartHeight

	if validated, ok := sm.validateMultiaddress(msg.Details.String("multiaddress", ""), node.Hash); ok {
		node.Multiaddress = validated
	} else {
		node.Multiaddress = ""
	}

	sm.CoreNodes[node.Hash] = node
	sm.AddressToOwnedNode[a] = node.Hash
	return true
}

func (sm *StateMachine) createResourceNode(height uint64, msg *events.LifecycleMessage) bool {
	if !msg.Details.Has("type") {
		return false
	}

	a := msg.Sender
	node := nodetypes.NewResourceNode(msg.ItemHash)
	node.Owner = a
	node.Type = msg.Details.String("type", "")
	node.Manager = msg.Details.String("manager", a)
	node.Reward = msg.Details.String("reward", a)
	node.Name = msg.Details.String("name", "")
	node.Picture = msg.Details.String("picture", "")
	node.Banner = msg.Details.String("banner", "")
	node.Description = msg.Details.String("description", "")
	node.RegistrationURL = msg.Details.String("registration_url", "")
	node.TermsAndConditions = msg.Details.String("terms_and_conditions", "")
	node.StreamReward = msg.Details.String("stream_reward", "")
	node.Locked = msg.Details.Bool("locked")
	node.Parent = ""
	node.Status = nodetypes.StatusWaiting

	if validated, ok := sm.validateResourceAddress(msg.Details.String("address", ""), node.Hash); ok {
		node.Address = validated
	} else {
		node.Address = ""
	}

	sm.ResourceNodes[node.Hash] = node
	return true
}

func (sm *StateMachine) link(msg *events.LifecycleMessage) bool {
	a := msg.Sender
	h, owns := sm.AddressToOwnedNode[a]
	if !owns {
		return false
	}
	core := sm.CoreNodes[h]
	if core == nil || len(core.ResourceNodes) >= sm.Config.MaxLinked {
		return false
	}

	ref := sm.ResourceNodes[msg.Ref]
	if ref == nil || core.HasResourceNode(msg.Ref) || ref.Parent != "" || ref.Locked {
		return false
	}

	core.ResourceNodes = append(core.ResourceNodes, msg.Ref)
	ref.Parent = h
	ref.Status = nodetypes.StatusLinked
	sm.updateNodeStats(h)
	return true
}

func (sm *StateMachine) unlink(msg *events.LifecycleMessage) bool {
	ref := sm.ResourceNodes[msg.Ref]
	if ref == nil || ref.Parent == "" {
		return false
	}

	a := msg.Sender
	ownsParent := sm.AddressToOwnedNode[a] == ref.Parent
	ownsResource := ref.Owner == a
	if !ownsParent && !ownsResource {
		return false
	}

	oldParent := ref.Parent
	if core, ok := sm.CoreNodes[oldParent]; ok {
		core.RemoveResourceNode(msg.Ref)
	}
	ref.Parent = ""
	ref.Status = nodetypes.StatusWaiting
	sm.updateNodeStats(oldParent)
	return true
}

func (sm *StateMachine) dropNodeAction(msg *events.LifecycleMessage) bool {
	a := msg.Sender

	if _, ok := sm.CoreNodes[msg.Ref]; ok {
		if sm.AddressToOwnedNode[a] != msg.Ref {
			return false
		}
		sm.dropCore(msg.Ref)
		return true
	}

	if rn, ok := sm.ResourceNodes[msg.Ref]; ok {
		if rn.Owner != a {
			return false
		}
		sm.dropResource(msg.Ref)
		return true
	}

	return false
}

func (sm *StateMachine) canStake(msg *events.LifecycleMessage) (*nodetypes.CoreNode, bool) {
	a := msg.Sender
	if sm.Balances.Balance(a) < sm.Config.StakingThreshold {
		return nil, false
	}
	core, ok := sm.CoreNodes[msg.Ref]
	if !ok {
		return nil, false
	}
	if _, owns := sm.AddressToOwnedNode[a]; owns {
		return nil, false
	}
	if core.Locked {
		if _, authorized := core.Authorized[a]; !authorized {
			return nil, false
		}
	}
	return core, true
}

func (sm *StateMachine) stake(msg *events.LifecycleMessage) bool {
	core, ok := sm.canStake(msg)
	if !ok {
		return false
	}

	a := msg.Sender
	if len(sm.stakesOf(a)) > 0 {
		sm.removeAllStakes(a)
	}

	core.Stakers[a] = sm.Balances.Balance(a)
	sm.AddressToStakes[a] = []string{msg.Ref}
	sm.updateNodeStats(msg.Ref)
	return true
}

func (sm *StateMachine) stakeSplit(msg *events.LifecycleMessage) bool {
	core, ok := sm.canStake(msg)
	if !ok {
		return false
	}
	_ = core

	a := msg.Sender
	if containsString(sm.AddressToStakes[a], msg.Ref) {
		return false
	}

	sm.AddressToStakes[a] = append(sm.AddressToStakes[a], msg.Ref)
	for _, h := range sm.AddressToStakes[a] {
		if cn, ok := sm.CoreNodes[h]; ok {
			cn.Stakers[a] = 0
		}
	}
	for _, h := range sm.AddressToStakes[a] {
		sm.updateNodeStats(h)
	}
	return true
}

func (sm *StateMachine) unstake(msg *events.LifecycleMessage) bool {
	a := msg.Sender
	if !containsString(sm.AddressToStakes[a], msg.Ref) {
		return false
	}
	sm.removeOneStake(a, msg.Ref)
	return true
}
