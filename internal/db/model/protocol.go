package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const (
	ProtocolStateCollection = "protocol_state"
	ShareBalanceCollection  = "share_balances"
	RewardEventCollection   = "reward_events"
	OracleReportCollection  = "oracle_reports"
)

// ids of the singleton documents in ProtocolStateCollection
const (
	TotalsID        = "totals"
	FeesID          = "fees"
	SettingsID      = "settings"
	CursorID        = "cursor"
	ProtocolUsageID = "usage"
	HolderStatsID   = "holder_stats"
)

type TotalsStateDocument struct {
	ID             string `bson:"_id"`
	TotalsDocument `bson:",inline"`
}

type FeesStateDocument struct {
	ID                string `bson:"_id"`
	FeeConfigDocument `bson:",inline"`
}

type SettingsStateDocument struct {
	ID               string `bson:"_id"`
	SettingsDocument `bson:",inline"`
}

// CursorDocument is the position of the last applied event.
type CursorDocument struct {
	ID       string `bson:"_id"`
	Block    uint64 `bson:"block"`
	TxIndex  uint   `bson:"tx_index"`
	LogIndex uint   `bson:"log_index"`
	LastTx   string `bson:"last_tx"`
}

// BuildProtocolSnapshot assembles the persisted singletons, nil when the
// indexer never applied an event.
func BuildProtocolSnapshot(
	cursor *CursorDocument,
	totals *TotalsStateDocument,
	fees *FeesStateDocument,
	settings *SettingsStateDocument,
) (*types.ProtocolSnapshot, error) {
	if cursor == nil {
		return nil, nil
	}

	snapshot := &types.ProtocolSnapshot{
		Cursor: types.Position{Block: cursor.Block, TxIndex: cursor.TxIndex, LogIndex: cursor.LogIndex},
		LastTx: common.HexToHash(cursor.LastTx),
	}
	p := &amountParser{}
	if totals != nil {
		snapshot.Totals = totals.toTotals(p)
	}
	if fees != nil {
		snapshot.Fees = fees.toFees()
	}
	if settings != nil {
		s := settings.toSettings()
		snapshot.Settings = &s
	}
	return snapshot, p.err
}

type ShareBalanceDocument struct {
	ID     string `bson:"_id"` // holder address
	Shares string `bson:"shares"`
}

func (d *ShareBalanceDocument) ToBalance() (uint256.Int, error) {
	return parseDec(d.Shares)
}

type OperatorShareDocument struct {
	Address string `bson:"address"`
	Shares  string `bson:"shares"`
}

type RewardEventDocument struct {
	ID            string `bson:"_id"` // tx hash
	EventDocument `bson:",inline"`
	State         string            `bson:"state"`
	Fees          FeeConfigDocument `bson:"fees"`
	TotalsBefore  TotalsDocument    `bson:"totals_before"`
	TotalsAfter   TotalsDocument    `bson:"totals_after"`

	BeaconRewards        string `bson:"beacon_rewards"`
	ELRewards            string `bson:"el_rewards"`
	TotalRewardsWithFees string `bson:"total_rewards_with_fees"`
	TotalRewards         string `bson:"total_rewards"`

	TotalFee     string `bson:"total_fee"`
	InsuranceFee string `bson:"insurance_fee"`
	OperatorsFee string `bson:"operators_fee"`
	TreasuryFee  string `bson:"treasury_fee"`
	Dust         string `bson:"dust"`

	Shares2Mint             string                  `bson:"shares2mint"`
	SharesToInsuranceFund   string                  `bson:"shares_to_insurance_fund"`
	SharesToOperators       string                  `bson:"shares_to_operators"`
	SharesToOperatorsActual string                  `bson:"shares_to_operators_actual"`
	SharesToTreasury        string                  `bson:"shares_to_treasury"`
	DustSharesToTreasury    string                  `bson:"dust_shares_to_treasury"`
	OperatorShares          []OperatorShareDocument `bson:"operator_shares"`
	AssignedShares          string                  `bson:"assigned_shares"`
}

func FromRewardEvent(r *types.RewardEvent) *RewardEventDocument {
	doc := &RewardEventDocument{
		ID: r.TxHash.Hex(),
		EventDocument: EventDocument{
			BlockNumber: r.Block,
			BlockTime:   r.BlockTime,
			TxHash:      r.TxHash.Hex(),
			LogIndex:    r.LogIndex,
		},
		State:        r.State.String(),
		Fees:         fromFees(r.Fees),
		TotalsBefore: fromTotals(r.TotalsBefore),
		TotalsAfter:  fromTotals(r.TotalsAfter),

		BeaconRewards:        r.BeaconRewards.String(),
		ELRewards:            r.ELRewards.String(),
		TotalRewardsWithFees: r.TotalRewardsWithFees.String(),
		TotalRewards:         r.TotalRewards.String(),

		TotalFee:     dec(r.TotalFee),
		InsuranceFee: dec(r.InsuranceFee),
		OperatorsFee: dec(r.OperatorsFee),
		TreasuryFee:  dec(r.TreasuryFee),
		Dust:         dec(r.Dust),

		Shares2Mint:             dec(r.Shares2Mint),
		SharesToInsuranceFund:   dec(r.SharesToInsuranceFund),
		SharesToOperators:       dec(r.SharesToOperators),
		SharesToOperatorsActual: dec(r.SharesToOperatorsActual),
		SharesToTreasury:        dec(r.SharesToTreasury),
		DustSharesToTreasury:    dec(r.DustSharesToTreasury),
		AssignedShares:          dec(r.AssignedShares),
	}
	for _, s := range r.OperatorShares {
		doc.OperatorShares = append(doc.OperatorShares, OperatorShareDocument{
			Address: hexAddress(s.Address),
			Shares:  dec(s.Shares),
		})
	}
	return doc
}

func (d *RewardEventDocument) ToRewardEvent() (*types.RewardEvent, error) {
	p := &amountParser{}
	r := &types.RewardEvent{
		TxHash:       common.HexToHash(d.ID),
		Block:        d.BlockNumber,
		BlockTime:    d.BlockTime,
		LogIndex:     d.LogIndex,
		State:        types.RewardState(d.State),
		Fees:         d.Fees.toFees(),
		TotalsBefore: d.TotalsBefore.toTotals(p),
		TotalsAfter:  d.TotalsAfter.toTotals(p),

		BeaconRewards:        p.i(d.BeaconRewards),
		ELRewards:            p.i(d.ELRewards),
		TotalRewardsWithFees: p.i(d.TotalRewardsWithFees),
		TotalRewards:         p.i(d.TotalRewards),

		TotalFee:     p.u(d.TotalFee),
		InsuranceFee: p.u(d.InsuranceFee),
		OperatorsFee: p.u(d.OperatorsFee),
		TreasuryFee:  p.u(d.TreasuryFee),
		Dust:         p.u(d.Dust),

		Shares2Mint:             p.u(d.Shares2Mint),
		SharesToInsuranceFund:   p.u(d.SharesToInsuranceFund),
		SharesToOperators:       p.u(d.SharesToOperators),
		SharesToOperatorsActual: p.u(d.SharesToOperatorsActual),
		SharesToTreasury:        p.u(d.SharesToTreasury),
		DustSharesToTreasury:    p.u(d.DustSharesToTreasury),
		AssignedShares:          p.u(d.AssignedShares),
	}
	for _, s := range d.OperatorShares {
		r.OperatorShares = append(r.OperatorShares, types.OperatorShare{
			Address: common.HexToAddress(s.Address),
			Shares:  p.u(s.Shares),
		})
	}
	return r, p.err
}

type OracleReportDocument struct {
	ID               string `bson:"_id"` // zero padded run number
	EpochID          uint64 `bson:"epoch_id"`
	BeaconBalance    string `bson:"beacon_balance"`
	BeaconValidators uint64 `bson:"beacon_validators"`
	EventDocument    `bson:",inline"`
	PooledEtherAfter string `bson:"pooled_ether_after"`
	SharesAfter      string `bson:"shares_after"`
}

func FromOracleReport(r *types.OracleReport) *OracleReportDocument {
	return &OracleReportDocument{
		ID:               r.ID,
		EpochID:          r.EpochID,
		BeaconBalance:    dec(r.BeaconBalance),
		BeaconValidators: r.BeaconValidators,
		EventDocument: EventDocument{
			BlockNumber: r.Block,
			BlockTime:   r.BlockTime,
			TxHash:      r.TxHash.Hex(),
			LogIndex:    r.LogIndex,
		},
		PooledEtherAfter: dec(r.PooledEtherAfter),
		SharesAfter:      dec(r.SharesAfter),
	}
}

func (d *OracleReportDocument) ToOracleReport() (*types.OracleReport, error) {
	p := &amountParser{}
	r := &types.OracleReport{
		ID:               d.ID,
		EpochID:          d.EpochID,
		BeaconBalance:    p.u(d.BeaconBalance),
		BeaconValidators: d.BeaconValidators,
		Block:            d.BlockNumber,
		BlockTime:        d.BlockTime,
		TxHash:           common.HexToHash(d.TxHash),
		LogIndex:         d.LogIndex,
		PooledEtherAfter: p.u(d.PooledEtherAfter),
		SharesAfter:      p.u(d.SharesAfter),
	}
	return r, p.err
}
