package statemachine

import (
	"github.com/aleph-im/nodestatus/internal/events"
	"github.com/aleph-im/nodestatus/internal/nodetypes"
)

func (sm *StateMachine) applyAmend(height uint64, msg *events.AmendMessage) (*Snapshot, error) {
	if msg == nil {
		return nil, nil
	}

	if core, ok := sm.CoreNodes[msg.Ref]; ok {
		if msg.Sender != core.Owner && msg.Sender != core.Manager {
			return nil, nil
		}
		sm.amendCoreNode(core, msg)
		return sm.snapshot(height), nil
	}

	if resource, ok := sm.ResourceNodes[msg.Ref]; ok {
		if msg.Sender != resource.Owner && msg.Sender != resource.Manager {
			return nil, nil
		}
		sm.amendResourceNode(resource, msg)
		return sm.snapshot(height), nil
	}

	return nil, nil
}

func (sm *StateMachine) amendCoreNode(core *nodetypes.CoreNode, msg *events.AmendMessage) {
	d := msg.Details

	core.Reward = d.String("reward", defaultIfEmpty(core.Reward, msg.Sender))
	core.Manager = d.String("manager", defaultIfEmpty(core.Manager, msg.Sender))
	core.Name = d.String("name", "")
	core.Picture = d.String("picture", "")
	core.Banner = d.String("banner", "")
	core.Description = d.String("description", "")
	core.RegistrationURL = d.String("registration_url", "")
	core.TermsAndConditions = d.String("terms_and_conditions", "")
	core.StreamReward = d.String("stream_reward", "")
	core.Address = d.String("address", "")
	core.Locked = d.Bool("locked")
	core.Authorized = toAuthorizedSet(d.StringSlice("authorized"))

	if validated, ok := sm.validateMultiaddress(d.String("multiaddress", ""), core.Hash); ok {
		core.Multiaddress = validated
	} else {
		core.Multiaddress = ""
	}
}

func (sm *StateMachine) amendResourceNode(resource *nodetypes.ResourceNode, msg *events.AmendMessage) {
	d := msg.Details

	resource.Reward = d.String("reward", defaultIfEmpty(resource.Reward, msg.Sender))
	resource.Manager = d.String("manager", defaultIfEmpty(resource.Manager, msg.Sender))
	resource.Name = d.String("name", "")
	resource.Picture = d.String("picture", "")
	resource.Banner = d.String("banner", "")
	resource.Description = d.String("description", "")
	resource.RegistrationURL = d.String("registration_url", "")
	resource.TermsAndConditions = d.String("terms_and_conditions", "")
	resource.StreamReward = d.String("stream_reward", "")
	resource.Locked = d.Bool("locked")
	resource.Authorized = toAuthorizedSet(d.StringSlice("authorized"))

	if validated, ok := sm.validateResourceAddress(d.String("address", ""), resource.Hash); ok {
		resource.Address = validated
	} else {
		resource.Address = ""
	}
}

func defaultIfEmpty(current, fallback string) string {
	if current != "" {
		return current
	}
	return fallback
}

func toAuthorizedSet(addrs []string) map[string]struct{} {
	out := make(map[string]struct{}, len(addrs))
	for _, a := range addrs {
		out[a] = struct{}{}
	}
	return out
}
