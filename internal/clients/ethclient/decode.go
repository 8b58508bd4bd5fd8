package ethclient

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

var (
	ErrNoTopic      = errors.New("log has no topics")
	ErrUnknownEvent = errors.New("unknown event")
)

type submittedLog struct {
	Sender   common.Address
	Amount   *big.Int
	Referral common.Address
}

type transferLog struct {
	From  common.Address
	To    common.Address
	Value *big.Int
}

type transferSharesLog struct {
	From        common.Address
	To          common.Address
	SharesValue *big.Int
}

type approvalLog struct {
	Owner   common.Address
	Spender common.Address
	Value   *big.Int
}

type withdrawalLog struct {
	Sender         common.Address
	TokenAmount    *big.Int
	SentFromBuffer *big.Int
	PubkeyHash     [32]byte
	EtherAmount    *big.Int
}

type sharesBurntLog struct {
	Account               common.Address
	PreRebaseTokenAmount  *big.Int
	PostRebaseTokenAmount *big.Int
	SharesAmount          *big.Int
}

type amountLog struct {
	Amount *big.Int
}

type feeSetLog struct {
	FeeBasisPoints uint16
}

type feeDistributionSetLog struct {
	TreasuryFeeBasisPoints  uint16
	InsuranceFeeBasisPoints uint16
	OperatorsFeeBasisPoints uint16
}

type protocolContactsSetLog struct {
	Oracle        common.Address
	Treasury      common.Address
	InsuranceFund common.Address
}

type beaconValidatorsUpdatedLog struct {
	BeaconValidators *big.Int
}

type completedLog struct {
	EpochId          *big.Int
	BeaconBalance    *big.Int
	BeaconValidators *big.Int
}

// parseLog unpacks both data and indexed topics of l into out.
func parseLog(contract *abi.ABI, name string, out any, l ethtypes.Log) error {
	if len(l.Data) > 0 {
		if err := contract.UnpackIntoInterface(out, name, l.Data); err != nil {
			return fmt.Errorf("failed to unpack %s data: %w", name, err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range contract.Events[name].Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopics(out, indexed, l.Topics[1:]); err != nil {
		return fmt.Errorf("failed to parse %s topics: %w", name, err)
	}
	return nil
}

// parseParams unpacks every argument of a record-only event in declaration
// order.
func parseParams(contract *abi.ABI, name string, l ethtypes.Log) ([]types.Param, error) {
	event := contract.Events[name]
	values := make(map[string]any, len(event.Inputs))
	if len(l.Data) > 0 {
		if err := contract.UnpackIntoMap(values, name, l.Data); err != nil {
			return nil, fmt.Errorf("failed to unpack %s data: %w", name, err)
		}
	}
	var indexed abi.Arguments
	for _, arg := range event.Inputs {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	if err := abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
		return nil, fmt.Errorf("failed to parse %s topics: %w", name, err)
	}

	if len(event.Inputs) == 0 {
		return nil, nil
	}
	params := make([]types.Param, 0, len(event.Inputs))
	for _, arg := range event.Inputs {
		v, ok := values[arg.Name]
		if !ok {
			return nil, fmt.Errorf("%s has no %s argument", name, arg.Name)
		}
		params = append(params, types.Param{Name: arg.Name, Value: formatParam(v)})
	}
	return params, nil
}

func formatParam(v any) string {
	switch v := v.(type) {
	case *big.Int:
		return v.String()
	case common.Address:
		return v.Hex()
	case [32]byte:
		return common.Hash(v).Hex()
	case []byte:
		return common.Bytes2Hex(v)
	default:
		return fmt.Sprint(v)
	}
}

func toUint256(name string, v *big.Int) (uint256.Int, error) {
	if v == nil {
		return uint256.Int{}, nil
	}
	if v.Sign() < 0 {
		return uint256.Int{}, fmt.Errorf("%s is negative: %s", name, v)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return uint256.Int{}, fmt.Errorf("%s overflows 256 bits: %s", name, v)
	}
	return *u, nil
}

func toUint64(name string, v *big.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("%s does not fit in 64 bits: %s", name, v)
	}
	return v.Uint64(), nil
}

// uints converts pairs of (name, value) in order, stopping at the first error.
func uints(pairs ...any) ([]uint256.Int, error) {
	out := make([]uint256.Int, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		u, err := toUint256(pairs[i].(string), pairs[i+1].(*big.Int))
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func logHeader(l ethtypes.Log, blockTime uint64) types.Header {
	return types.Header{
		BlockNumber: l.BlockNumber,
		BlockTime:   blockTime,
		TxHash:      l.TxHash,
		TxIndex:     l.TxIndex,
		LogIndex:    l.Index,
	}
}

// Decoder turns protocol contract logs into events.
type Decoder struct {
	lido   common.Address
	oracle common.Address
}

func NewDecoder(lido, oracle common.Address) *Decoder {
	return &Decoder{lido: lido, oracle: oracle}
}

// Topics are the event ids the protocol contracts are filtered on.
func (d *Decoder) Topics() []common.Hash {
	topics := make([]common.Hash, 0, len(lidoABI.Events)+len(oracleABI.Events))
	for _, ev := range lidoABI.Events {
		topics = append(topics, ev.ID)
	}
	for _, ev := range oracleABI.Events {
		topics = append(topics, ev.ID)
	}
	return topics
}

func (d *Decoder) Addresses() []common.Address {
	return []common.Address{d.lido, d.oracle}
}

// Decode maps a log to its event. Logs of other contracts or events yield
// ErrUnknownEvent.
func (d *Decoder) Decode(l ethtypes.Log, blockTime uint64) (types.Event, error) {
	if len(l.Topics) == 0 {
		return nil, ErrNoTopic
	}
	h := logHeader(l, blockTime)

	switch l.Address {
	case d.oracle:
		ev, err := oracleABI.EventByID(l.Topics[0])
		if err != nil {
			return nil, fmt.Errorf("%w: oracle topic %s", ErrUnknownEvent, l.Topics[0].Hex())
		}
		if ev.Name == "Completed" {
			return decodeCompleted(h, l)
		}
		params, err := parseParams(&oracleABI, ev.Name, l)
		if err != nil {
			return nil, err
		}
		return types.OracleChanged{Header: h, Change: types.OracleChange(ev.Name), Params: params}, nil
	case d.lido:
		ev, err := lidoABI.EventByID(l.Topics[0])
		if err != nil {
			return nil, fmt.Errorf("%w: lido topic %s", ErrUnknownEvent, l.Topics[0].Hex())
		}
		return decodeLido(ev.Name, h, l)
	}
	return nil, fmt.Errorf("%w: contract %s", ErrUnknownEvent, l.Address.Hex())
}

func decodeCompleted(h types.Header, l ethtypes.Log) (types.Event, error) {
	var c completedLog
	if err := parseLog(&oracleABI, "Completed", &c, l); err != nil {
		return nil, err
	}
	epoch, err := toUint64("epochId", c.EpochId)
	if err != nil {
		return nil, err
	}
	validators, err := toUint64("beaconValidators", c.BeaconValidators)
	if err != nil {
		return nil, err
	}
	balance, err := toUint256("beaconBalance", c.BeaconBalance)
	if err != nil {
		return nil, err
	}
	return types.OracleCompleted{Header: h, EpochID: epoch, BeaconBalance: balance, BeaconValidators: validators}, nil
}

func decodeLido(name string, h types.Header, l ethtypes.Log) (types.Event, error) {
	switch name {
	case "Submitted":
		var c submittedLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		amount, err := toUint256("amount", c.Amount)
		if err != nil {
			return nil, err
		}
		return types.Submitted{Header: h, Sender: c.Sender, Amount: amount, Referral: c.Referral}, nil

	case "Transfer":
		var c transferLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		value, err := toUint256("value", c.Value)
		if err != nil {
			return nil, err
		}
		return types.Transfer{Header: h, From: c.From, To: c.To, Value: value}, nil

	case "TransferShares":
		var c transferSharesLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		shares, err := toUint256("sharesValue", c.SharesValue)
		if err != nil {
			return nil, err
		}
		return types.TransferShares{Header: h, From: c.From, To: c.To, SharesValue: shares}, nil

	case "Approval":
		var c approvalLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		value, err := toUint256("value", c.Value)
		if err != nil {
			return nil, err
		}
		return types.Approval{Header: h, Owner: c.Owner, Spender: c.Spender, Value: value}, nil

	case "Withdrawal":
		var c withdrawalLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		v, err := uints("tokenAmount", c.TokenAmount, "sentFromBuffer", c.SentFromBuffer, "etherAmount", c.EtherAmount)
		if err != nil {
			return nil, err
		}
		return types.Withdrawal{
			Header:         h,
			Sender:         c.Sender,
			TokenAmount:    v[0],
			SentFromBuffer: v[1],
			PubkeyHash:     common.Hash(c.PubkeyHash),
			EtherAmount:    v[2],
		}, nil

	case "SharesBurnt":
		var c sharesBurntLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		v, err := uints(
			"preRebaseTokenAmount", c.PreRebaseTokenAmount,
			"postRebaseTokenAmount", c.PostRebaseTokenAmount,
			"sharesAmount", c.SharesAmount,
		)
		if err != nil {
			return nil, err
		}
		return types.SharesBurnt{
			Header:                h,
			Account:               c.Account,
			PreRebaseTokenAmount:  v[0],
			PostRebaseTokenAmount: v[1],
			SharesAmount:          v[2],
		}, nil

	case "ELRewardsReceived":
		var c amountLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		amount, err := toUint256("amount", c.Amount)
		if err != nil {
			return nil, err
		}
		return types.ELRewardsReceived{Header: h, Amount: amount}, nil

	case "FeeSet":
		var c feeSetLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		return types.FeeSet{Header: h, FeeBasisPoints: c.FeeBasisPoints}, nil

	case "FeeDistributionSet":
		var c feeDistributionSetLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		return types.FeeDistributionSet{
			Header:                  h,
			TreasuryFeeBasisPoints:  c.TreasuryFeeBasisPoints,
			InsuranceFeeBasisPoints: c.InsuranceFeeBasisPoints,
			OperatorsFeeBasisPoints: c.OperatorsFeeBasisPoints,
		}, nil

	case "ProtocolContactsSet":
		var c protocolContactsSetLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		return types.ProtocolContactsSet{Header: h, Oracle: c.Oracle, Treasury: c.Treasury, InsuranceFund: c.InsuranceFund}, nil

	case "BeaconValidatorsUpdated":
		var c beaconValidatorsUpdatedLog
		if err := parseLog(&lidoABI, name, &c, l); err != nil {
			return nil, err
		}
		validators, err := toUint64("beaconValidators", c.BeaconValidators)
		if err != nil {
			return nil, err
		}
		return types.BeaconValidatorsUpdated{Header: h, BeaconValidators: validators}, nil

	case "Stopped", "Resumed", "StakingPaused", "StakingResumed",
		"StakingLimitSet", "StakingLimitRemoved",
		"WithdrawalCredentialsSet", "ELRewardsVaultSet", "ELRewardsWithdrawalLimitSet",
		"Unbuffered":
		params, err := parseParams(&lidoABI, name, l)
		if err != nil {
			return nil, err
		}
		return types.ProtocolStatusChanged{Header: h, Status: types.ProtocolStatus(name), Params: params}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, name)
}
