package types

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type EventType string

func (e EventType) String() string {
	return string(e)
}

const (
	EventSubmitted               EventType = "Submitted"
	EventTransfer                EventType = "Transfer"
	EventTransferShares          EventType = "TransferShares"
	EventApproval                EventType = "Approval"
	EventWithdrawal              EventType = "Withdrawal"
	EventSharesBurnt             EventType = "SharesBurnt"
	EventOracleCompleted         EventType = "Completed"
	EventELRewardsReceived       EventType = "ELRewardsReceived"
	EventFeeSet                  EventType = "FeeSet"
	EventFeeDistributionSet      EventType = "FeeDistributionSet"
	EventProtocolContactsSet     EventType = "ProtocolContactsSet"
	EventBeaconValidatorsUpdated EventType = "BeaconValidatorsUpdated"
	EventReconcileBlock          EventType = "ReconcileBlock"
	EventProtocolStatusChanged   EventType = "ProtocolStatusChanged"
	EventOracleChanged           EventType = "OracleChanged"
)

// blockLevelIndex places synthetic block events after every log of the block.
const blockLevelIndex = math.MaxUint32

// Position orders events by (block, tx index, log index).
type Position struct {
	Block    uint64 `json:"block"`
	TxIndex  uint   `json:"tx_index"`
	LogIndex uint   `json:"log_index"`
}

// Compare returns -1, 0 or 1.
func (p Position) Compare(o Position) int {
	switch {
	case p.Block != o.Block:
		return cmpUint(p.Block, o.Block)
	case p.TxIndex != o.TxIndex:
		return cmpUint(uint64(p.TxIndex), uint64(o.TxIndex))
	default:
		return cmpUint(uint64(p.LogIndex), uint64(o.LogIndex))
	}
}

func (p Position) IsZero() bool {
	return p == Position{}
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Block, p.TxIndex, p.LogIndex)
}

func cmpUint(a, b uint64) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// Header carries the chain coordinates shared by every event.
type Header struct {
	BlockNumber uint64
	BlockTime   uint64
	TxHash      common.Hash
	TxIndex     uint
	LogIndex    uint
}

func (h Header) EventHeader() Header {
	return h
}

func (h Header) Position() Position {
	return Position{Block: h.BlockNumber, TxIndex: h.TxIndex, LogIndex: h.LogIndex}
}

// ID is the natural key of records derived from the event.
func (h Header) ID() string {
	return fmt.Sprintf("%s-%d", h.TxHash.Hex(), h.LogIndex)
}

func (Header) isEvent() {}

// BlockHeader builds the header of a synthetic block-level event.
func BlockHeader(block, blockTime uint64) Header {
	return Header{
		BlockNumber: block,
		BlockTime:   blockTime,
		TxIndex:     blockLevelIndex,
		LogIndex:    blockLevelIndex,
	}
}

// Event is the closed set of chain events understood by the accounting engine.
type Event interface {
	Type() EventType
	EventHeader() Header
	isEvent()
}

type Submitted struct {
	Header
	Sender   common.Address
	Amount   uint256.Int
	Referral common.Address
}

type Transfer struct {
	Header
	From  common.Address
	To    common.Address
	Value uint256.Int
}

type TransferShares struct {
	Header
	From        common.Address
	To          common.Address
	SharesValue uint256.Int
}

type Approval struct {
	Header
	Owner   common.Address
	Spender common.Address
	Value   uint256.Int
}

type Withdrawal struct {
	Header
	Sender         common.Address
	TokenAmount    uint256.Int
	SentFromBuffer uint256.Int
	PubkeyHash     common.Hash
	EtherAmount    uint256.Int
}

type SharesBurnt struct {
	Header
	Account               common.Address
	PreRebaseTokenAmount  uint256.Int
	PostRebaseTokenAmount uint256.Int
	SharesAmount          uint256.Int
}

// OracleCompleted is the oracle's beacon chain report.
type OracleCompleted struct {
	Header
	EpochID          uint64
	BeaconBalance    uint256.Int
	BeaconValidators uint64
}

// ELRewardsReceived reports execution layer rewards moved into the pool.
type ELRewardsReceived struct {
	Header
	Amount uint256.Int
}

type FeeSet struct {
	Header
	FeeBasisPoints uint16
}

type FeeDistributionSet struct {
	Header
	TreasuryFeeBasisPoints  uint16
	InsuranceFeeBasisPoints uint16
	OperatorsFeeBasisPoints uint16
}

type ProtocolContactsSet struct {
	Header
	Oracle        common.Address
	Treasury      common.Address
	InsuranceFund common.Address
}

type BeaconValidatorsUpdated struct {
	Header
	BeaconValidators uint64
}

// ReconcileBlock asks for a pooled ether resync at an allow-listed height.
type ReconcileBlock struct {
	Header
}

type ProtocolStatus string

const (
	StatusStopped                     ProtocolStatus = "Stopped"
	StatusResumed                     ProtocolStatus = "Resumed"
	StatusStakingPaused               ProtocolStatus = "StakingPaused"
	StatusStakingResumed              ProtocolStatus = "StakingResumed"
	StatusStakingLimitSet             ProtocolStatus = "StakingLimitSet"
	StatusStakingLimitRemoved         ProtocolStatus = "StakingLimitRemoved"
	StatusWithdrawalCredentialsSet    ProtocolStatus = "WithdrawalCredentialsSet"
	StatusELRewardsVaultSet           ProtocolStatus = "ELRewardsVaultSet"
	StatusELRewardsWithdrawalLimitSet ProtocolStatus = "ELRewardsWithdrawalLimitSet"
	StatusUnbuffered                  ProtocolStatus = "Unbuffered"
)

// Param is one decoded event argument, values are rendered as decimal
// numbers or hex.
type Param struct {
	Name  string
	Value string
}

// ProtocolStatusChanged covers the informational events of the token
// contract. They are recorded but do not touch the ledger.
type ProtocolStatusChanged struct {
	Header
	Status ProtocolStatus
	Params []Param
}

type OracleChange string

const (
	OracleMemberAdded                                   OracleChange = "MemberAdded"
	OracleMemberRemoved                                 OracleChange = "MemberRemoved"
	OracleQuorumChanged                                 OracleChange = "QuorumChanged"
	OracleContractVersionSet                            OracleChange = "ContractVersionSet"
	OraclePostTotalShares                               OracleChange = "PostTotalShares"
	OracleBeaconReported                                OracleChange = "BeaconReported"
	OracleBeaconSpecSet                                 OracleChange = "BeaconSpecSet"
	OracleExpectedEpochIdUpdated                        OracleChange = "ExpectedEpochIdUpdated"
	OracleBeaconReportReceiverSet                       OracleChange = "BeaconReportReceiverSet"
	OracleAllowedBeaconBalanceRelativeDecreaseSet       OracleChange = "AllowedBeaconBalanceRelativeDecreaseSet"
	OracleAllowedBeaconBalanceAnnualRelativeIncreaseSet OracleChange = "AllowedBeaconBalanceAnnualRelativeIncreaseSet"
)

// OracleChanged is any oracle event other than a completed report: member
// and quorum management, single member reports and oracle parameters.
type OracleChanged struct {
	Header
	Change OracleChange
	Params []Param
}

func (Submitted) Type() EventType               { return EventSubmitted }
func (Transfer) Type() EventType                { return EventTransfer }
func (TransferShares) Type() EventType          { return EventTransferShares }
func (Approval) Type() EventType                { return EventApproval }
func (Withdrawal) Type() EventType              { return EventWithdrawal }
func (SharesBurnt) Type() EventType             { return EventSharesBurnt }
func (OracleCompleted) Type() EventType         { return EventOracleCompleted }
func (ELRewardsReceived) Type() EventType       { return EventELRewardsReceived }
func (FeeSet) Type() EventType                  { return EventFeeSet }
func (FeeDistributionSet) Type() EventType      { return EventFeeDistributionSet }
func (ProtocolContactsSet) Type() EventType     { return EventProtocolContactsSet }
func (BeaconValidatorsUpdated) Type() EventType { return EventBeaconValidatorsUpdated }
func (ReconcileBlock) Type() EventType          { return EventReconcileBlock }
func (ProtocolStatusChanged) Type() EventType   { return EventProtocolStatusChanged }
func (OracleChanged) Type() EventType           { return EventOracleChanged }
