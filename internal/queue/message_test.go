package queue

import (
	"encoding/json"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

func finalizedReward() *types.RewardEvent {
	h := types.Header{BlockNumber: 11_000_000, BlockTime: 1_610_000_000, TxHash: testutil.RandomHash()}
	r := types.NewRewardEvent(h, types.FeeConfig{FeeBasisPoints: 1000}, types.Totals{
		TotalPooledEther: *uint256.NewInt(19000),
		TotalShares:      *uint256.NewInt(19000),
	})
	r.State = types.RewardFinalized
	r.BeaconRewards = sdkmath.NewInt(19000)
	r.TotalRewardsWithFees = sdkmath.NewInt(19000)
	r.TotalRewards = sdkmath.NewInt(17100)
	r.Shares2Mint = *uint256.NewInt(1000)
	r.SharesToOperatorsActual = *uint256.NewInt(440)
	r.OperatorShares = []types.OperatorShare{
		{Address: testutil.RandomAddress(), Shares: *uint256.NewInt(220)},
		{Address: testutil.RandomAddress(), Shares: *uint256.NewInt(220)},
	}
	return r
}

func TestRewardFinalizedMessage(t *testing.T) {
	r := finalizedReward()
	msg := NewRewardFinalizedMessage(r)

	body, err := msg.Marshal()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, r.TxHash.Hex(), decoded["tx_hash"])
	assert.Equal(t, "1000", decoded["shares_to_mint"])
	assert.Equal(t, "440", decoded["shares_to_operators_actual"])
	assert.Equal(t, "17100", decoded["total_rewards"])
	assert.Equal(t, "19000", decoded["total_pooled_ether_before"])
	assert.Len(t, decoded["operator_shares"], 2)
}

func TestMessageID(t *testing.T) {
	r := finalizedReward()
	assert.Equal(t, MessageID(r), MessageID(r.Clone()))
	assert.NotEqual(t, MessageID(r), MessageID(finalizedReward()))
}

func TestNoopPublisher(t *testing.T) {
	p, err := NewPublisher(nil)
	require.NoError(t, err)
	assert.IsType(t, NoopPublisher{}, p)
	require.NoError(t, p.PublishRewards(t.Context(), []*types.RewardEvent{finalizedReward()}))
	p.Shutdown()
}
