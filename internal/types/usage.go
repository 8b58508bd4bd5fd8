package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type Period string

const (
	PeriodHourly Period = "hourly"
	PeriodDaily  Period = "daily"
)

// UsageSnapshot is the activity of one hourly or daily bucket.
type UsageSnapshot struct {
	Period           Period
	ID               string
	BucketStart      uint64
	TxCount          uint64
	ActiveUsersCount uint64
	ActiveUsers      []common.Address
	TVLUSD           decimal.Decimal
	BlockNumber      uint64
	BlockTime        uint64
}

// HasUser reports whether addr was already counted in the bucket.
func (s *UsageSnapshot) HasUser(addr common.Address) bool {
	for _, u := range s.ActiveUsers {
		if u == addr {
			return true
		}
	}
	return false
}

func (s *UsageSnapshot) Clone() *UsageSnapshot {
	c := *s
	c.ActiveUsers = append([]common.Address(nil), s.ActiveUsers...)
	return &c
}

// ProtocolUsage is the protocol-wide running usage state.
type ProtocolUsage struct {
	TVLUSD      decimal.Decimal
	TxCount     uint64
	BlockNumber uint64
}

type Holder struct {
	Address   common.Address
	FirstSeen uint64
}

type HolderStats struct {
	UniqueHolders        uint64
	UniqueAnytimeHolders uint64
}
