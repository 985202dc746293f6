// Package balanceview maintains the aggregated address->balance map derived
// from per-platform balance snapshots.
package balanceview

// View aggregates per-platform balance snapshots into a single
// address->balance map by pointwise sum over platforms.
type View struct {
	platforms map[string]map[string]int64
	balances  map[string]int64

	// LastHeightETH and LastHeightOthers hold separate ETH and non-ETH
	// height watermarks. View never updates them, and no caller in this
	// repository sets them.
	LastHeightETH    uint64
	LastHeightOthers uint64
}

// New returns an empty aggregated balance view.
func New() *View {
	return &View{
		platforms: make(map[string]map[string]int64),
		balances:  make(map[string]int64),
	}
}

// Apply replaces the platform's balance snapshot and recomputes the
// aggregated balance for every changed address. It returns the set of
// addresses whose aggregated balance may have changed.
func (v *View) Apply(platform string, balances map[string]int64, changed []string) []string {
	v.platforms[platform] = balances

	for _, addr := range changed {
		v.balances[addr] = v.sumAcrossPlatforms(addr)
	}
	return changed
}

func (v *View) sumAcrossPlatforms(addr string) int64 {
	var total int64
	for _, platformBalances := range v.platforms {
		total += platformBalances[addr]
	}
	return total
}

// Balance returns the current aggregated balance for addr, zero if unknown.
func (v *View) Balance(addr string) int64 {
	return v.balances[addr]
}

// Snapshot returns a copy of the full aggregated balance map, in human-
// facing form only after division by the token's decimals at the publish
// boundary (not performed here).
func (v *View) Snapshot() map[string]int64 {
	out := make(map[string]int64, len(v.balances))
	for k, val := range v.balances {
		out[k] = val
	}
	return out
}
