package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Changeset is everything a single event changed. It is persisted as one unit.
type Changeset struct {
	Position      Position
	LastTx        common.Hash
	Totals        *Totals
	Fees          *FeeConfig
	Settings      *Settings
	Balances      map[common.Address]uint256.Int
	Rewards       []*RewardEvent
	OracleReports []*OracleReport
	Records       []Record
	Usage         *UsageChanges
}

// UsageChanges are the usage entities touched by the event.
type UsageChanges struct {
	Snapshots   []*UsageSnapshot
	Protocol    *ProtocolUsage
	Holders     []*Holder
	HolderStats *HolderStats
}

func (u *UsageChanges) IsEmpty() bool {
	return u == nil || (len(u.Snapshots) == 0 && u.Protocol == nil && len(u.Holders) == 0 && u.HolderStats == nil)
}

// FinalizedRewards returns the reward events closed by this changeset.
func (c *Changeset) FinalizedRewards() []*RewardEvent {
	var out []*RewardEvent
	for _, r := range c.Rewards {
		if r.State == RewardFinalized {
			out = append(out, r)
		}
	}
	return out
}
