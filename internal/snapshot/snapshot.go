// Package snapshot renders a statemachine.Snapshot into the externally
// published payload shape, converting integer smallest-unit amounts to
// human units at this one boundary.
package snapshot

import (
	"sort"

	"github.com/aleph-im/nodestatus/internal/nodetypes"
	"github.com/aleph-im/nodestatus/internal/statemachine"
)

// defaultDecimals is the smallest-unit exponent Render uses when it is given
// a non-positive decimals; published amounts divide by 10^decimals exactly
// once, at this boundary.
const defaultDecimals = 18

// Payload is the contractual published shape: {nodes, resource_nodes}.
type Payload struct {
	Nodes         []Node         `json:"nodes"`
	ResourceNodes []ResourceNode `json:"resource_nodes"`
}

// Node is a core node rendered for publication, stakes and total in human
// units.
type Node struct {
	Hash                string             `json:"hash"`
	Owner               string             `json:"owner"`
	Reward              string             `json:"reward"`
	Manager             string             `json:"manager"`
	Name                string             `json:"name"`
	Multiaddress        string             `json:"multiaddress"`
	Address             string             `json:"address"`
	Picture             string             `json:"picture"`
	Banner              string             `json:"banner"`
	Description         string             `json:"description"`
	RegistrationURL     string             `json:"registration_url"`
	TermsAndConditions  string             `json:"terms_and_conditions"`
	StreamReward        string             `json:"stream_reward"`
	Locked              bool               `json:"locked"`
	Authorized          []string           `json:"authorized"`
	Stakers             map[string]float64 `json:"stakers"`
	TotalStaked         float64            `json:"total_staked"`
	Status              string             `json:"status"`
	ResourceNodes       []string           `json:"resource_nodes"`
	HasBonus            bool               `json:"has_bonus"`
	Score               float64            `json:"score"`
	Performance         float64            `json:"performance"`
	Decentralization    float64            `json:"decentralization"`
	InactiveSince       *uint64            `json:"inactive_since"`
}

// ResourceNode is a resource node rendered for publication.
type ResourceNode struct {
	Hash                string   `json:"hash"`
	Type                string   `json:"type"`
	Owner               string   `json:"owner"`
	Manager             string   `json:"manager"`
	Reward              string   `json:"reward"`
	Name                string   `json:"name"`
	Address             string   `json:"address"`
	Picture             string   `json:"picture"`
	Banner              string   `json:"banner"`
	Description         string   `json:"description"`
	RegistrationURL     string   `json:"registration_url"`
	TermsAndConditions  string   `json:"terms_and_conditions"`
	Locked              bool     `json:"locked"`
	Authorized          []string `json:"authorized"`
	Parent              string   `json:"parent"`
	Status              string   `json:"status"`
	Score               float64  `json:"score"`
	Performance         float64  `json:"performance"`
	Decentralization    float64  `json:"decentralization"`
	InactiveSince       *uint64  `json:"inactive_since"`
}

// Render converts a statemachine snapshot into the publish payload,
// dividing stakes/balances by 10^decimals. Output node order is sorted by
// hash for deterministic diffs across publishes.
func Render(snap *statemachine.Snapshot, decimals int) Payload {
	if decimals <= 0 {
		decimals = defaultDecimals
	}
	divisor := pow10(decimals)

	hashes := make([]string, 0, len(snap.CoreNodes))
	for h := range snap.CoreNodes {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)

	nodes := make([]Node, 0, len(hashes))
	for _, h := range hashes {
		nodes = append(nodes, renderNode(snap.CoreNodes[h], divisor))
	}

	rHashes := make([]string, 0, len(snap.ResourceNodes))
	for h := range snap.ResourceNodes {
		rHashes = append(rHashes, h)
	}
	sort.Strings(rHashes)

	resourceNodes := make([]ResourceNode, 0, len(rHashes))
	for _, h := range rHashes {
		resourceNodes = append(resourceNodes, renderResourceNode(snap.ResourceNodes[h]))
	}

	return Payload{Nodes: nodes, ResourceNodes: resourceNodes}
}

func renderNode(n *nodetypes.CoreNode, divisor float64) Node {
	stakers := make(map[string]float64, len(n.Stakers))
	for addr, amount := range n.Stakers {
		stakers[addr] = float64(amount) / divisor
	}

	return Node{
		Hash:               n.Hash,
		Owner:              n.Owner,
		Reward:             n.Reward,
		Manager:            n.Manager,
		Name:               n.Name,
		Multiaddress:       n.Multiaddress,
		Address:            n.Address,
		Picture:            n.Picture,
		Banner:             n.Banner,
		Description:        n.Description,
		RegistrationURL:    n.RegistrationURL,
		TermsAndConditions: n.TermsAndConditions,
		StreamReward:       n.StreamReward,
		Locked:             n.Locked,
		Authorized:         authorizedSlice(n.Authorized),
		Stakers:            stakers,
		TotalStaked:        float64(n.TotalStaked) / divisor,
		Status:             n.Status,
		ResourceNodes:      append([]string(nil), n.ResourceNodes...),
		HasBonus:           n.HasBonus,
		Score:              n.Score,
		Performance:        n.Performance,
		Decentralization:   n.Decentralization,
		InactiveSince:      n.InactiveSince,
	}
}

func renderResourceNode(r *nodetypes.ResourceNode) ResourceNode {
	return ResourceNode{
		Hash:               r.Hash,
		Type:               r.Type,
		Owner:              r.Owner,
		Manager:            r.Manager,
		Reward:             r.Reward,
		Name:               r.Name,
		Address:            r.Address,
		Picture:            r.Picture,
		Banner:             r.Banner,
		Description:        r.Description,
		RegistrationURL:    r.RegistrationURL,
		TermsAndConditions: r.TermsAndConditions,
		Locked:             r.Locked,
		Authorized:         authorizedSlice(r.Authorized),
		Parent:             r.Parent,
		Status:             r.Status,
		Score:              r.Score,
		Performance:        r.Performance,
		Decentralization:   r.Decentralization,
		InactiveSince:      r.InactiveSince,
	}
}

func authorizedSlice(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for a := range set {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func pow10(n int) float64 {
	result := 1.0
	for i := 0; i < n; i++ {
		result *= 10
	}
	return result
}
