package model

import (
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// amounts are stored as base 10 strings, mongo numbers can not hold 256 bits

func dec(v uint256.Int) string {
	return v.Dec()
}

func parseDec(s string) (uint256.Int, error) {
	if s == "" {
		return uint256.Int{}, nil
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return uint256.Int{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return *v, nil
}

func parseSigned(s string) (sdkmath.Int, error) {
	if s == "" {
		return sdkmath.ZeroInt(), nil
	}
	v, ok := sdkmath.NewIntFromString(s)
	if !ok {
		return sdkmath.Int{}, fmt.Errorf("invalid signed amount %q", s)
	}
	return v, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func hexAddress(a common.Address) string {
	return a.Hex()
}

// amountParser collects the first parse error so documents convert in one pass.
type amountParser struct {
	err error
}

func (p *amountParser) u(s string) uint256.Int {
	v, err := parseDec(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *amountParser) i(s string) sdkmath.Int {
	v, err := parseSigned(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

func (p *amountParser) d(s string) decimal.Decimal {
	v, err := parseDecimal(s)
	if err != nil && p.err == nil {
		p.err = err
	}
	return v
}

// EventDocument holds the chain coordinates embedded in every record.
type EventDocument struct {
	BlockNumber uint64 `bson:"block_number"`
	BlockTime   uint64 `bson:"block_time"`
	TxHash      string `bson:"tx_hash"`
	TxIndex     uint   `bson:"tx_index"`
	LogIndex    uint   `bson:"log_index"`
}

func fromHeader(h types.Header) EventDocument {
	return EventDocument{
		BlockNumber: h.BlockNumber,
		BlockTime:   h.BlockTime,
		TxHash:      h.TxHash.Hex(),
		TxIndex:     h.TxIndex,
		LogIndex:    h.LogIndex,
	}
}

type TotalsDocument struct {
	TotalPooledEther string `bson:"total_pooled_ether"`
	TotalShares      string `bson:"total_shares"`
}

func fromTotals(t types.Totals) TotalsDocument {
	return TotalsDocument{TotalPooledEther: dec(t.TotalPooledEther), TotalShares: dec(t.TotalShares)}
}

func (d TotalsDocument) toTotals(p *amountParser) types.Totals {
	return types.Totals{TotalPooledEther: p.u(d.TotalPooledEther), TotalShares: p.u(d.TotalShares)}
}

type FeeConfigDocument struct {
	FeeBasisPoints          uint16 `bson:"fee_basis_points"`
	TreasuryFeeBasisPoints  uint16 `bson:"treasury_fee_basis_points"`
	InsuranceFeeBasisPoints uint16 `bson:"insurance_fee_basis_points"`
	OperatorsFeeBasisPoints uint16 `bson:"operators_fee_basis_points"`
}

func fromFees(f types.FeeConfig) FeeConfigDocument {
	return FeeConfigDocument{
		FeeBasisPoints:          f.FeeBasisPoints,
		TreasuryFeeBasisPoints:  f.TreasuryFeeBasisPoints,
		InsuranceFeeBasisPoints: f.InsuranceFeeBasisPoints,
		OperatorsFeeBasisPoints: f.OperatorsFeeBasisPoints,
	}
}

func (d FeeConfigDocument) toFees() types.FeeConfig {
	return types.FeeConfig{
		FeeBasisPoints:          d.FeeBasisPoints,
		TreasuryFeeBasisPoints:  d.TreasuryFeeBasisPoints,
		InsuranceFeeBasisPoints: d.InsuranceFeeBasisPoints,
		OperatorsFeeBasisPoints: d.OperatorsFeeBasisPoints,
	}
}

type SettingsDocument struct {
	Oracle        string `bson:"oracle"`
	Treasury      string `bson:"treasury"`
	InsuranceFund string `bson:"insurance_fund"`
}

func fromSettings(s types.Settings) SettingsDocument {
	return SettingsDocument{
		Oracle:        hexAddress(s.Oracle),
		Treasury:      hexAddress(s.Treasury),
		InsuranceFund: hexAddress(s.InsuranceFund),
	}
}

func (d SettingsDocument) toSettings() types.Settings {
	return types.Settings{
		Oracle:        common.HexToAddress(d.Oracle),
		Treasury:      common.HexToAddress(d.Treasury),
		InsuranceFund: common.HexToAddress(d.InsuranceFund),
	}
}
