package queue

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// rewardNamespace scopes the deterministic message ids of reward events.
var rewardNamespace = uuid.MustParse("1f9d6b1e-5c1a-4f54-9a8e-1c6b0e2f7a31")

type OperatorShareMessage struct {
	Address string `json:"address"`
	Shares  string `json:"shares"`
}

// RewardFinalizedMessage is published once per finalized reward event.
type RewardFinalizedMessage struct {
	MessageID string `json:"message_id"`
	TxHash    string `json:"tx_hash"`
	Block     uint64 `json:"block"`
	BlockTime uint64 `json:"block_time"`

	TotalPooledEtherBefore string `json:"total_pooled_ether_before"`
	TotalPooledEtherAfter  string `json:"total_pooled_ether_after"`
	TotalSharesBefore      string `json:"total_shares_before"`
	TotalSharesAfter       string `json:"total_shares_after"`

	BeaconRewards        string `json:"beacon_rewards"`
	ELRewards            string `json:"el_rewards"`
	TotalRewardsWithFees string `json:"total_rewards_with_fees"`
	TotalRewards         string `json:"total_rewards"`
	TotalFee             string `json:"total_fee"`

	Shares2Mint             string                 `json:"shares_to_mint"`
	SharesToInsuranceFund   string                 `json:"shares_to_insurance_fund"`
	SharesToOperators       string                 `json:"shares_to_operators"`
	SharesToOperatorsActual string                 `json:"shares_to_operators_actual"`
	SharesToTreasury        string                 `json:"shares_to_treasury"`
	DustSharesToTreasury    string                 `json:"dust_shares_to_treasury"`
	OperatorShares          []OperatorShareMessage `json:"operator_shares"`
}

// MessageID is stable across re-publishing of the same reward event.
func MessageID(r *types.RewardEvent) string {
	return uuid.NewSHA1(rewardNamespace, r.TxHash.Bytes()).String()
}

func NewRewardFinalizedMessage(r *types.RewardEvent) RewardFinalizedMessage {
	operators := make([]OperatorShareMessage, 0, len(r.OperatorShares))
	for _, s := range r.OperatorShares {
		operators = append(operators, OperatorShareMessage{Address: s.Address.Hex(), Shares: s.Shares.Dec()})
	}

	return RewardFinalizedMessage{
		MessageID: MessageID(r),
		TxHash:    r.TxHash.Hex(),
		Block:     r.Block,
		BlockTime: r.BlockTime,

		TotalPooledEtherBefore: r.TotalsBefore.TotalPooledEther.Dec(),
		TotalPooledEtherAfter:  r.TotalsAfter.TotalPooledEther.Dec(),
		TotalSharesBefore:      r.TotalsBefore.TotalShares.Dec(),
		TotalSharesAfter:       r.TotalsAfter.TotalShares.Dec(),

		BeaconRewards:        r.BeaconRewards.String(),
		ELRewards:            r.ELRewards.String(),
		TotalRewardsWithFees: r.TotalRewardsWithFees.String(),
		TotalRewards:         r.TotalRewards.String(),
		TotalFee:             r.TotalFee.Dec(),

		Shares2Mint:             r.Shares2Mint.Dec(),
		SharesToInsuranceFund:   r.SharesToInsuranceFund.Dec(),
		SharesToOperators:       r.SharesToOperators.Dec(),
		SharesToOperatorsActual: r.SharesToOperatorsActual.Dec(),
		SharesToTreasury:        r.SharesToTreasury.Dec(),
		DustSharesToTreasury:    r.DustSharesToTreasury.Dec(),
		OperatorShares:          operators,
	}
}

func (m RewardFinalizedMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}
