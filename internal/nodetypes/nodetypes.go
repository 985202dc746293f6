// Package nodetypes defines the core/resource node domain model shared by
// the merge, state machine and reward packages.
package nodetypes

import "time"

// Status values for a CoreNode.
const (
	StatusActive  = "active"
	StatusWaiting = "waiting"
)

// Status values for a ResourceNode.
const (
	StatusLinked = "linked"
)

// EditableFields lists the amend-message fields recognized on both core and
// resource nodes, in the order the original system declared them.
var EditableFields = []string{
	"name",
	"multiaddress",
	"address",
	"picture",
	"banner",
	"description",
	"reward",
	"stream_reward",
	"manager",
	"authorized",
	"locked",
	"registration_url",
	"terms_and_conditions",
}

// CoreNode is an operator-run node that aggregates stake from delegators.
type CoreNode struct {
	Hash   string
	Owner  string
	Reward string
	Manager string

	Name                string
	Multiaddress        string
	Address             string
	Picture             string
	Banner              string
	Description         string
	RegistrationURL     string
	TermsAndConditions  string
	StreamReward        string

	Locked     bool
	Authorized map[string]struct{}

	Stakers     map[string]int64
	TotalStaked int64
	Status      string

	ResourceNodes []string

	HasBonus bool

	Score            float64
	Performance      float64
	Decentralization float64
	InactiveSince    *uint64

	CreatedAt time.Time
}

// NewCoreNode returns a CoreNode with all maps/slices initialized.
func NewCoreNode(hash string) *CoreNode {
	return &CoreNode{
		Hash:          hash,
		Authorized:    make(map[string]struct{}),
		Stakers:       make(map[string]int64),
		ResourceNodes: make([]string, 0),
		Status:        StatusWaiting,
	}
}

// HasResourceNode reports whether r is already linked to this core node.
func (n *CoreNode) HasResourceNode(r string) bool {
	for _, h := range n.ResourceNodes {
		if h == r {
			return true
		}
	}
	return false
}

// RemoveResourceNode removes r from the linked list, if present.
func (n *CoreNode) RemoveResourceNode(r string) {
	out := n.ResourceNodes[:0]
	for _, h := range n.ResourceNodes {
		if h != r {
			out = append(out, h)
		}
	}
	n.ResourceNodes = out
}

// ResourceNode is a compute node linked to at most one core node.
type ResourceNode struct {
	Hash   string
	Type   string
	Owner  string
	Manager string
	Reward string

	Name                string
	Multiaddress        string
	Address             string
	Picture             string
	Banner              string
	Description         string
	RegistrationURL     string
	TermsAndConditions  string
	StreamReward        string

	Locked     bool
	Authorized map[string]struct{}

	Parent string
	Status string

	Score            float64
	Performance      float64
	Decentralization float64
	InactiveSince    *uint64

	CreatedAt time.Time
}

// NewResourceNode returns a ResourceNode with all maps initialized and
// status defaulted to waiting (unlinked).
func NewResourceNode(hash string) *ResourceNode {
	return &ResourceNode{
		Hash:       hash,
		Authorized: make(map[string]struct{}),
		Status:     StatusWaiting,
	}
}

// IsLinked reports whether the resource node currently has a parent.
func (r *ResourceNode) IsLinked() bool {
	return r.Parent != ""
}
