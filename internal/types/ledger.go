package types

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const (
	// CalculationUnit is the basis point denominator.
	CalculationUnit = 10000
	// DepositSizeGwei is the ether deposited per validator, in gwei.
	DepositSizeGwei = 32_000_000_000
)

var (
	// Ether is 1e18 wei.
	Ether = uint256.NewInt(1_000_000_000_000_000_000)
	// DepositSize is the ether deposited per validator, in wei.
	DepositSize = new(uint256.Int).Mul(uint256.NewInt(32), Ether)
	// ZeroAddress is the mint and burn counterparty.
	ZeroAddress = common.Address{}
)

// Totals is the protocol-wide pooled ether and share supply.
type Totals struct {
	TotalPooledEther uint256.Int
	TotalShares      uint256.Int
}

func (t Totals) IsZero() bool {
	return t.TotalPooledEther.IsZero() || t.TotalShares.IsZero()
}

// FeeConfig is the current fee projection.
type FeeConfig struct {
	FeeBasisPoints          uint16
	TreasuryFeeBasisPoints  uint16
	InsuranceFeeBasisPoints uint16
	OperatorsFeeBasisPoints uint16
}

// Settings holds the protocol contact addresses fee mints are matched against.
type Settings struct {
	Oracle        common.Address
	Treasury      common.Address
	InsuranceFund common.Address
}

// OperatorShare is one node operator's part of the operators fee.
type OperatorShare struct {
	Address common.Address
	Shares  uint256.Int
}

// RewardEvent aggregates the rebase of one transaction.
type RewardEvent struct {
	TxHash    common.Hash
	Block     uint64
	BlockTime uint64
	LogIndex  uint
	State     RewardState

	Fees         FeeConfig
	TotalsBefore Totals
	TotalsAfter  Totals

	BeaconRewards        sdkmath.Int
	ELRewards            sdkmath.Int
	TotalRewardsWithFees sdkmath.Int
	TotalRewards         sdkmath.Int

	TotalFee     uint256.Int
	InsuranceFee uint256.Int
	OperatorsFee uint256.Int
	TreasuryFee  uint256.Int
	Dust         uint256.Int

	Shares2Mint             uint256.Int
	SharesToInsuranceFund   uint256.Int
	SharesToOperators       uint256.Int
	SharesToOperatorsActual uint256.Int
	SharesToTreasury        uint256.Int
	DustSharesToTreasury    uint256.Int
	OperatorShares          []OperatorShare

	// AssignedShares are the minted shares already credited to recipients.
	AssignedShares uint256.Int
}

// NewRewardEvent opens the reward event of a transaction.
func NewRewardEvent(h Header, fees FeeConfig, before Totals) *RewardEvent {
	return &RewardEvent{
		TxHash:               h.TxHash,
		Block:                h.BlockNumber,
		BlockTime:            h.BlockTime,
		LogIndex:             h.LogIndex,
		State:                RewardAwaitingFees,
		Fees:                 fees,
		TotalsBefore:         before,
		TotalsAfter:          before,
		BeaconRewards:        sdkmath.ZeroInt(),
		ELRewards:            sdkmath.ZeroInt(),
		TotalRewardsWithFees: sdkmath.ZeroInt(),
		TotalRewards:         sdkmath.ZeroInt(),
	}
}

// Clone returns a deep copy safe to mutate inside a state transaction.
func (r *RewardEvent) Clone() *RewardEvent {
	c := *r
	c.OperatorShares = append([]OperatorShare(nil), r.OperatorShares...)
	return &c
}

// UnassignedShares are minted shares not yet credited to any balance.
func (r *RewardEvent) UnassignedShares() uint256.Int {
	var out uint256.Int
	if r.AssignedShares.Gt(&r.Shares2Mint) {
		return out
	}
	out.Sub(&r.Shares2Mint, &r.AssignedShares)
	return out
}

// OperatorShareOf returns the distribution entry for addr.
func (r *RewardEvent) OperatorShareOf(addr common.Address) (uint256.Int, bool) {
	for _, s := range r.OperatorShares {
		if s.Address == addr {
			return s.Shares, true
		}
	}
	return uint256.Int{}, false
}

// OracleReport is a persisted oracle completion keyed by incremental id.
type OracleReport struct {
	ID               string
	EpochID          uint64
	BeaconBalance    uint256.Int
	BeaconValidators uint64
	Block            uint64
	BlockTime        uint64
	TxHash           common.Hash
	LogIndex         uint
	// share rate right after the report's rebase
	PooledEtherAfter uint256.Int
	SharesAfter      uint256.Int
}

// ProtocolSnapshot is the set of singletons restored on start.
type ProtocolSnapshot struct {
	Cursor   Position
	LastTx   common.Hash
	Totals   Totals
	Fees     FeeConfig
	Settings *Settings
}
