package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Record is an immutable derived entity written once per event.
type Record interface {
	RecordID() string
	isRecord()
}

type TransferClassification string

const (
	ClassInsuranceFee TransferClassification = "insurance_fee"
	ClassTreasuryFee  TransferClassification = "treasury_fee"
	ClassTreasuryDust TransferClassification = "treasury_dust"
	ClassOperatorFee  TransferClassification = "operator_fee"
	ClassStakeMint    TransferClassification = "stake_mint"
	ClassTransfer     TransferClassification = "transfer"
)

type TransferRecord struct {
	Header
	From           common.Address
	To             common.Address
	Value          uint256.Int
	Shares         uint256.Int
	Classification TransferClassification
	// MintWithoutSubmission marks a mint from the zero address paid out by a
	// reward event rather than by a Submitted of the same transaction.
	MintWithoutSubmission bool

	SharesBeforeDecrease uint256.Int
	SharesAfterDecrease  uint256.Int
	SharesBeforeIncrease uint256.Int
	SharesAfterIncrease  uint256.Int
	BalanceAfterDecrease uint256.Int
	BalanceAfterIncrease uint256.Int
	Totals               Totals
	SenderDrained        bool
}

type SubmissionRecord struct {
	Header
	Sender       common.Address
	Amount       uint256.Int
	Referral     common.Address
	Shares       uint256.Int
	SharesBefore uint256.Int
	SharesAfter  uint256.Int
	TotalsBefore Totals
	TotalsAfter  Totals
}

type WithdrawalRecord struct {
	Header
	Sender         common.Address
	TokenAmount    uint256.Int
	SentFromBuffer uint256.Int
	PubkeyHash     common.Hash
	EtherAmount    uint256.Int
	Shares         uint256.Int
	TotalsAfter    Totals
}

type FeeChangeRecord struct {
	Header
	Kind EventType
	Fees FeeConfig
}

type NodeOperatorFeeRecord struct {
	Header
	Operator common.Address
	Fee      uint256.Int
	Shares   uint256.Int
}

type SharesBurnRecord struct {
	Header
	Account               common.Address
	PreRebaseTokenAmount  uint256.Int
	PostRebaseTokenAmount uint256.Int
	SharesAmount          uint256.Int
}

type SharesTransferRecord struct {
	Header
	From        common.Address
	To          common.Address
	SharesValue uint256.Int
}

type ApprovalRecord struct {
	Header
	Owner   common.Address
	Spender common.Address
	Value   uint256.Int
}

type ContactsChangeRecord struct {
	Header
	Settings Settings
}

type ProtocolStatusRecord struct {
	Header
	Status ProtocolStatus
	Params []Param
}

type OracleChangeRecord struct {
	Header
	Change OracleChange
	Params []Param
}

type ReconciliationRecord struct {
	Header
	Reason         EventType
	PooledEtherOld uint256.Int
	PooledEtherNew uint256.Int
}

type AnomalyRecord struct {
	Header
	Kind    AnomalyKind
	Event   EventType
	Message string
}

func (r *TransferRecord) RecordID() string        { return r.ID() }
func (r *SubmissionRecord) RecordID() string      { return r.ID() }
func (r *WithdrawalRecord) RecordID() string      { return r.ID() }
func (r *FeeChangeRecord) RecordID() string       { return r.ID() }
func (r *NodeOperatorFeeRecord) RecordID() string { return r.ID() }
func (r *SharesBurnRecord) RecordID() string      { return r.ID() }
func (r *SharesTransferRecord) RecordID() string  { return r.ID() }
func (r *ApprovalRecord) RecordID() string        { return r.ID() }
func (r *ContactsChangeRecord) RecordID() string  { return r.ID() }
func (r *ProtocolStatusRecord) RecordID() string  { return r.ID() }
func (r *OracleChangeRecord) RecordID() string    { return r.ID() }

// synthetic events share the zero tx hash, so reconciliations are keyed by block
func (r *ReconciliationRecord) RecordID() string {
	return r.Position().String() + "-" + r.Reason.String()
}

func (r *AnomalyRecord) RecordID() string {
	return r.Position().String() + "-" + string(r.Kind)
}

func (*TransferRecord) isRecord()        {}
func (*SubmissionRecord) isRecord()      {}
func (*WithdrawalRecord) isRecord()      {}
func (*FeeChangeRecord) isRecord()       {}
func (*NodeOperatorFeeRecord) isRecord() {}
func (*SharesBurnRecord) isRecord()      {}
func (*SharesTransferRecord) isRecord()  {}
func (*ApprovalRecord) isRecord()        {}
func (*ContactsChangeRecord) isRecord()  {}
func (*ProtocolStatusRecord) isRecord()  {}
func (*OracleChangeRecord) isRecord()    {}
func (*ReconciliationRecord) isRecord()  {}
func (*AnomalyRecord) isRecord()         {}
