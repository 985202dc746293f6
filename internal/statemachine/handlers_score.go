package statemachine

import (
	"github.com/aleph-im/nodestatus/internal/events"
	"github.com/aleph-im/nodestatus/internal/nodetypes"
)

// sameReportWindow is the "another report within 10 heights" smoothing
// window. The off-by-one condition (LastScoreHeight > height - 10, not
// >=) is preserved verbatim from the upstream implementation.
const sameReportWindow = 10

func (sm *StateMachine) applyScoreReport(report *events.ScoreReport) (*Snapshot, error) {
	if report == nil {
		return nil, nil
	}

	smoothing := sameReportWindowActive(sm.LastScoreHeight, report.Height)

	mutated := false
	for _, entry := range report.Core {
		node, ok := sm.CoreNodes[entry.NodeID]
		if !ok {
			continue
		}
		applyScoreEntry(&node.Score, &node.Performance, &node.Decentralization, &node.InactiveSince, entry, report.Height, smoothing)
		mutated = true
	}

	for _, entry := range report.Resource {
		node, ok := sm.ResourceNodes[entry.NodeID]
		if !ok {
			continue
		}
		applyScoreEntry(&node.Score, &node.Performance, &node.Decentralization, &node.InactiveSince, entry, report.Height, smoothing)
		mutated = true

		if sm.resourceNodeShouldEvict(node, report.Height) {
			sm.dropResource(node.Hash)
		}
	}

	sm.LastScoreHeight = report.Height

	if !mutated {
		return nil, nil
	}
	return sm.snapshot(report.Height), nil
}

func sameReportWindowActive(lastScoreHeight, height uint64) bool {
	if height < sameReportWindow {
		return lastScoreHeight > 0
	}
	return lastScoreHeight > height-sameReportWindow
}

func applyScoreEntry(score, performance, decentralization *float64, inactiveSince **uint64, entry events.NodeScore, height uint64, smoothing bool) {
	if smoothing {
		*score = max(*score, entry.TotalScore)
		*performance = max(*performance, entry.Performance)
	} else {
		*score = entry.TotalScore
		*performance = entry.Performance
	}
	*decentralization = entry.Decentralization

	if *score < 0.01 {
		if *inactiveSince == nil {
			h := height
			*inactiveSince = &h
		}
	} else {
		*inactiveSince = nil
	}
}

func (sm *StateMachine) resourceNodeShouldEvict(node *nodetypes.ResourceNode, height uint64) bool {
	if node.Parent != "" || node.InactiveSince == nil {
		return false
	}
	if height <= sm.Config.CRNInactivityCutoffHeight {
		return false
	}
	thresholdBlocks := sm.Config.CRNInactivityThresholdDays * sm.Config.BlocksPerDay
	return int64(height)-int64(*node.InactiveSince) > thresholdBlocks
}
