package statemachine

import "github.com/aleph-im/nodestatus/internal/events"

func (sm *StateMachine) applyBalanceUpdate(upd *events.BalanceUpdate) (*Snapshot, error) {
	if upd == nil {
		return nil, nil
	}

	changed := sm.Balances.Apply(upd.Platform, upd.Balances, upd.ChangedAddresses)
	if len(changed) == 0 {
		return nil, nil
	}

	for _, a := range changed {
		balance := sm.Balances.Balance(a)

		if h, owns := sm.AddressToOwnedNode[a]; owns {
			if balance < sm.Config.NodeThreshold {
				sm.dropCore(h)
			}
			continue
		}

		stakes := sm.stakesOf(a)
		if len(stakes) == 0 {
			continue
		}
		if balance < sm.Config.StakingThreshold {
			sm.removeAllStakes(a)
			continue
		}
		for _, h := range stakes {
			sm.updateNodeStats(h)
		}
	}

	return sm.snapshot(upd.Height), nil
}
