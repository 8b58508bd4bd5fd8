package accounting

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

// stake submits amount from sender in a fresh transaction, followed by the
// token mint the protocol emits for it.
func stake(block uint64, sender common.Address, amount uint256.Int) []types.Event {
	c := newChainTx(block)
	return []types.Event{
		types.Submitted{Header: c.header(), Sender: sender, Amount: amount},
		types.Transfer{Header: c.header(), From: types.ZeroAddress, To: sender, Value: amount},
	}
}

func feeConfig(block uint64, fee, treasury, insurance, operators uint16) []types.Event {
	c := newChainTx(block)
	return []types.Event{
		types.FeeSet{Header: c.header(), FeeBasisPoints: fee},
		types.FeeDistributionSet{
			Header:                  c.header(),
			TreasuryFeeBasisPoints:  treasury,
			InsuranceFeeBasisPoints: insurance,
			OperatorsFeeBasisPoints: operators,
		},
	}
}

func mint(c *chainTx, to common.Address, value uint64) types.Transfer {
	return types.Transfer{Header: c.header(), From: types.ZeroAddress, To: to, Value: wei(value)}
}

// nextTx emits an unrelated event of another transaction, closing the previous one.
func nextTx(block uint64) types.Event {
	c := newChainTx(block)
	return types.Approval{Header: c.header(), Owner: testutil.RandomAddress(), Spender: testutil.RandomAddress(), Value: wei(1)}
}

func TestSubmission(t *testing.T) {
	t.Run("empty pool mints one to one", func(t *testing.T) {
		h := newHarness(t)
		staker := testutil.RandomAddress()
		h.apply(stake(1, staker, testutil.Ether(1))...)

		balance := h.balance(staker)
		assert.Equal(t, testutil.Ether(1), balance)
		totals := h.engine.State().Totals()
		assert.Equal(t, testutil.Ether(1), totals.TotalPooledEther)
		assert.Equal(t, testutil.Ether(1), totals.TotalShares)

		transfers := h.transfers()
		require.Len(t, transfers, 1)
		assert.Equal(t, types.ClassStakeMint, transfers[0].Classification)
		assert.False(t, transfers[0].MintWithoutSubmission)
		assert.True(t, transfers[0].SharesBeforeIncrease.IsZero())
		assert.Equal(t, testutil.Ether(1), transfers[0].SharesAfterIncrease)
		assert.Equal(t, testutil.Ether(1), transfers[0].BalanceAfterIncrease)
		assert.Empty(t, h.anomalies())
		h.requireSharesInvariant()
	})

	t.Run("proportional to the share rate", func(t *testing.T) {
		h := newHarness(t, 5)
		staker := testutil.RandomAddress()
		h.apply(stake(1, staker, testutil.Ether(1))...)

		h.chain.On("GetTotalPooledEther", mock.Anything, uint64(5)).
			Return(*uint256.MustFromDecimal("1100000000000000000"), nil).Once()
		h.apply(types.ReconcileBlock{Header: types.BlockHeader(5, testBlockTime+60)})

		other := testutil.RandomAddress()
		h.apply(stake(6, other, *uint256.MustFromDecimal("500000000000000000"))...)

		assert.Equal(t, "454545454545454545", func() string { b := h.balance(other); return b.Dec() }())
		totals := h.engine.State().Totals()
		assert.Equal(t, "1600000000000000000", totals.TotalPooledEther.Dec())
		assert.Equal(t, "1454545454545454545", totals.TotalShares.Dec())
		h.requireSharesInvariant()
	})

	t.Run("mint without submission is flagged and not credited", func(t *testing.T) {
		h := newHarness(t)
		to := testutil.RandomAddress()
		c := newChainTx(1)
		h.apply(mint(c, to, 100))

		transfers := h.transfers()
		require.Len(t, transfers, 1)
		assert.Equal(t, types.ClassStakeMint, transfers[0].Classification)
		assert.False(t, transfers[0].MintWithoutSubmission)
		assert.True(t, transfers[0].SharesAfterIncrease.IsZero())
		assert.Equal(t, []types.AnomalyKind{types.KindMissingRequiredPriorRecord}, h.anomalies())
		assert.True(t, func() bool { b := h.balance(to); return b.IsZero() }())
	})

	t.Run("submission of another transaction does not match", func(t *testing.T) {
		h := newHarness(t)
		staker := testutil.RandomAddress()
		h.apply(stake(1, staker, wei(100))[0])
		h.apply(mint(newChainTx(2), staker, 100))

		transfers := h.transfers()
		require.Len(t, transfers, 1)
		assert.Equal(t, []types.AnomalyKind{types.KindMissingRequiredPriorRecord}, h.anomalies())
		assert.Equal(t, wei(100), h.balance(staker))
	})

	t.Run("restaking after draining starts from zero", func(t *testing.T) {
		h := newHarness(t)
		alice := testutil.RandomAddress()
		bob := testutil.RandomAddress()
		h.apply(stake(1, alice, wei(100))...)
		h.apply(types.Transfer{Header: newChainTx(2).header(), From: alice, To: bob, Value: wei(100)})
		require.True(t, h.transfers()[1].SenderDrained)

		h.apply(stake(3, alice, wei(40))...)
		restake := h.transfers()[2]
		assert.Equal(t, types.ClassStakeMint, restake.Classification)
		assert.True(t, restake.SharesBeforeIncrease.IsZero())
		assert.Equal(t, wei(40), restake.SharesAfterIncrease)
		assert.Equal(t, wei(40), restake.Shares)
		assert.Empty(t, h.anomalies())
		h.requireSharesInvariant()
	})

	t.Run("a dropped mint is matched again on retry", func(t *testing.T) {
		h := newHarness(t)
		staker := testutil.RandomAddress()
		events := stake(1, staker, wei(100))
		h.apply(events[0])

		dropped, err := h.engine.Apply(t.Context(), events[1])
		require.NoError(t, err)
		require.NotNil(t, dropped)

		h.apply(events[1])
		transfers := h.transfers()
		require.Len(t, transfers, 1)
		assert.Equal(t, types.ClassStakeMint, transfers[0].Classification)
		assert.False(t, transfers[0].MintWithoutSubmission)
		assert.Equal(t, wei(100), transfers[0].SharesAfterIncrease)
		assert.Empty(t, h.anomalies())
		h.requireSharesInvariant()
	})
}

func TestTransfer(t *testing.T) {
	h := newHarness(t)
	alice := testutil.RandomAddress()
	bob := testutil.RandomAddress()
	h.apply(stake(1, alice, wei(100))...)

	t.Run("moves shares at the current rate", func(t *testing.T) {
		c := newChainTx(2)
		h.apply(types.Transfer{Header: c.header(), From: alice, To: bob, Value: wei(30)})

		assert.Equal(t, wei(70), h.balance(alice))
		assert.Equal(t, wei(30), h.balance(bob))
		last := h.transfers()[len(h.transfers())-1]
		assert.Equal(t, types.ClassTransfer, last.Classification)
		assert.Equal(t, wei(100), last.SharesBeforeDecrease)
		assert.Equal(t, wei(70), last.SharesAfterDecrease)
		assert.Equal(t, wei(30), last.SharesAfterIncrease)
		assert.False(t, last.SenderDrained)
		h.requireSharesInvariant()
	})

	t.Run("draining the sender", func(t *testing.T) {
		c := newChainTx(3)
		h.apply(types.Transfer{Header: c.header(), From: bob, To: alice, Value: wei(30)})

		last := h.transfers()[len(h.transfers())-1]
		assert.True(t, last.SenderDrained)
		assert.True(t, func() bool { b := h.balance(bob); return b.IsZero() }())
		h.requireSharesInvariant()
	})

	t.Run("overdraft is clamped", func(t *testing.T) {
		c := newChainTx(4)
		h.apply(types.Transfer{Header: c.header(), From: bob, To: alice, Value: wei(10)})

		assert.Contains(t, h.anomalies(), types.KindNegativeBalance)
		assert.Equal(t, wei(100), h.balance(alice))
		h.requireSharesInvariant()
	})
}

func TestRebaseWithTreasuryFee(t *testing.T) {
	h := newHarness(t)
	staker := testutil.RandomAddress()
	op1, op2 := testutil.RandomAddress(), testutil.RandomAddress()

	h.apply(feeConfig(1, 1000, 5000, 500, 4500)...)
	h.apply(stake(2, staker, wei(19000))...)

	// operators are short of 10 of the 450 requested shares
	h.registry.On("GetRewardsDistribution", mock.Anything, uint64(3), wei(450)).
		Return([]types.OperatorShare{{Address: op1, Shares: wei(220)}, {Address: op2, Shares: wei(220)}}, nil).Once()

	report := newChainTx(3)
	h.apply(types.OracleCompleted{Header: report.header(), EpochID: 1, BeaconBalance: wei(19000)})

	reward := h.reward(report.hash)
	assert.Equal(t, types.RewardAwaitingFees, reward.State)
	assert.Equal(t, "19000", reward.BeaconRewards.String())
	assert.Equal(t, wei(1000), reward.Shares2Mint)
	assert.Equal(t, wei(50), reward.SharesToInsuranceFund)
	assert.Equal(t, wei(450), reward.SharesToOperators)
	assert.Equal(t, wei(440), reward.SharesToOperatorsActual)
	assert.Equal(t, wei(510), reward.SharesToTreasury)
	assert.True(t, reward.DustSharesToTreasury.IsZero())
	assert.Equal(t, wei(38000), reward.TotalsAfter.TotalPooledEther)
	assert.Equal(t, wei(20000), reward.TotalsAfter.TotalShares)

	h.apply(
		mint(report, h.settings.InsuranceFund, 50),
		mint(report, h.settings.Treasury, 510),
		mint(report, op1, 220),
		mint(report, op2, 220),
	)

	reward = h.reward(report.hash)
	assert.Equal(t, types.RewardTreasuryRecorded, reward.State)
	assert.Equal(t, wei(1000), reward.TotalFee)
	assert.Equal(t, wei(50), reward.InsuranceFee)
	assert.Equal(t, wei(510), reward.TreasuryFee)
	assert.Equal(t, wei(440), reward.OperatorsFee)
	assert.Equal(t, "18000", reward.TotalRewards.String())
	unassigned := reward.UnassignedShares()
	assert.True(t, unassigned.IsZero())

	transfers := h.transfers()
	assert.False(t, transfers[0].MintWithoutSubmission)
	classes := make([]types.TransferClassification, 0)
	for _, tr := range transfers[1:] {
		classes = append(classes, tr.Classification)
		assert.True(t, tr.MintWithoutSubmission, tr.Classification)
	}
	assert.Equal(t, []types.TransferClassification{
		types.ClassInsuranceFee, types.ClassTreasuryFee, types.ClassOperatorFee, types.ClassOperatorFee,
	}, classes)

	assert.Equal(t, wei(50), h.balance(h.settings.InsuranceFund))
	assert.Equal(t, wei(510), h.balance(h.settings.Treasury))
	assert.Equal(t, wei(220), h.balance(op1))
	h.requireSharesInvariant()

	t.Run("finalized by the next transaction", func(t *testing.T) {
		h.apply(nextTx(4))
		assert.Equal(t, types.RewardFinalized, h.reward(report.hash).State)
		assert.Empty(t, h.anomalies())
		h.requireSharesInvariant()
	})

	t.Run("report is stored with the rate after the rebase", func(t *testing.T) {
		r, err := h.store.LoadOracleReport(t.Context(), "000000000000")
		require.NoError(t, err)
		require.NotNil(t, r)
		assert.Equal(t, uint64(1), r.EpochID)
		assert.Equal(t, wei(38000), r.PooledEtherAfter)
		assert.Equal(t, wei(20000), r.SharesAfter)
	})
}

func TestRebaseWithDust(t *testing.T) {
	h := newHarness(t)
	op := testutil.RandomAddress()

	// no treasury fee, the split does not add up to the calculation unit
	h.apply(feeConfig(1, 1000, 0, 500, 5000)...)
	assert.Contains(t, h.anomalies(), types.KindInvalidFeeSplit)

	h.apply(stake(2, testutil.RandomAddress(), wei(19000))...)

	h.registry.On("GetRewardsDistribution", mock.Anything, uint64(3), wei(500)).
		Return([]types.OperatorShare{{Address: op, Shares: wei(480)}}, nil).Once()

	report := newChainTx(3)
	h.apply(
		types.OracleCompleted{Header: report.header(), BeaconBalance: wei(19000)},
		mint(report, h.settings.InsuranceFund, 50),
		mint(report, op, 480),
		mint(report, h.settings.Treasury, 470),
	)

	reward := h.reward(report.hash)
	assert.Equal(t, wei(1000), reward.Shares2Mint)
	assert.Equal(t, wei(50), reward.SharesToInsuranceFund)
	assert.Equal(t, wei(500), reward.SharesToOperators)
	assert.Equal(t, wei(480), reward.SharesToOperatorsActual)
	assert.True(t, reward.SharesToTreasury.IsZero())
	assert.Equal(t, wei(470), reward.DustSharesToTreasury)
	assert.Equal(t, wei(470), reward.Dust)

	transfers := h.transfers()
	for _, tr := range transfers[1:] {
		assert.True(t, tr.MintWithoutSubmission, tr.Classification)
	}
	last := transfers[len(transfers)-1]
	assert.Equal(t, types.ClassTreasuryDust, last.Classification)
	assert.Equal(t, wei(470), h.balance(h.settings.Treasury))
	h.requireSharesInvariant()
}

func TestTreasuryBeforeInsuranceIsUnclassifiable(t *testing.T) {
	h := newHarness(t)
	h.apply(feeConfig(1, 1000, 5000, 500, 4500)...)
	h.apply(stake(2, testutil.RandomAddress(), wei(19000))...)
	h.registry.On("GetRewardsDistribution", mock.Anything, mock.Anything, mock.Anything).
		Return([]types.OperatorShare{}, nil)

	report := newChainTx(3)
	h.apply(
		types.OracleCompleted{Header: report.header(), BeaconBalance: wei(19000)},
		mint(report, h.settings.Treasury, 510),
	)

	last := h.transfers()[len(h.transfers())-1]
	assert.Equal(t, types.ClassTransfer, last.Classification)
	assert.True(t, last.MintWithoutSubmission)
	assert.Contains(t, h.anomalies(), types.KindUnclassifiableTransfer)
	assert.Equal(t, types.RewardAwaitingFees, h.reward(report.hash).State)

	t.Run("finalizing with unassigned shares", func(t *testing.T) {
		h.apply(nextTx(4))
		assert.Equal(t, types.RewardFinalized, h.reward(report.hash).State)
		assert.Contains(t, h.anomalies(), types.KindUnassignedRewardShares)
	})
}

func TestNegativeRewards(t *testing.T) {
	h := newHarness(t)
	h.apply(feeConfig(1, 1000, 5000, 500, 4500)...)
	h.apply(stake(2, testutil.RandomAddress(), wei(19000))...)

	// one validator appears with exactly its deposit, no rewards
	first := newChainTx(3)
	h.apply(types.OracleCompleted{Header: first.header(), BeaconBalance: *types.DepositSize, BeaconValidators: 1})
	assert.True(t, h.reward(first.hash).Shares2Mint.IsZero())

	// the validator loses 1000 wei
	second := newChainTx(4)
	balance := *types.DepositSize
	balance.Sub(&balance, uint256.NewInt(1000))
	h.apply(types.OracleCompleted{Header: second.header(), BeaconBalance: balance, BeaconValidators: 1})

	reward := h.reward(second.hash)
	assert.Equal(t, "-1000", reward.BeaconRewards.String())
	assert.True(t, reward.Shares2Mint.IsZero())
	assert.Equal(t, wei(18000), reward.TotalsAfter.TotalPooledEther)
	assert.Equal(t, wei(19000), reward.TotalsAfter.TotalShares)
	assert.Contains(t, h.anomalies(), types.KindNonPositiveRewards)

	r, err := h.store.LoadOracleReport(t.Context(), "000000000001")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, wei(18000), r.PooledEtherAfter)
	h.requireSharesInvariant()
}

func TestExecutionLayerRewardsConverge(t *testing.T) {
	settings := types.Settings{
		Treasury:      testutil.RandomAddress(),
		InsuranceFund: testutil.RandomAddress(),
	}
	staker := testutil.RandomAddress()
	op := testutil.RandomAddress()
	reportHash := testutil.RandomHash()

	run := func(t *testing.T, elFirst bool) *types.RewardEvent {
		h := newHarnessWithSettings(t, settings)
		h.registry.On("GetRewardsDistribution", mock.Anything, mock.Anything, mock.Anything).
			Return(func(_ context.Context, _ uint64, shares uint256.Int) ([]types.OperatorShare, error) {
				return []types.OperatorShare{{Address: op, Shares: shares}}, nil
			})

		h.apply(feeConfig(1, 1000, 5000, 500, 4500)...)
		h.apply(stake(2, staker, wei(19000))...)

		c := &chainTx{block: 3, hash: reportHash}
		el := types.ELRewardsReceived{Amount: wei(1000)}
		completed := types.OracleCompleted{BeaconBalance: wei(18000)}
		if elFirst {
			el.Header = c.header()
			completed.Header = c.header()
			h.apply(el, completed)
		} else {
			completed.Header = c.header()
			el.Header = c.header()
			h.apply(completed, el)
		}
		return h.reward(reportHash)
	}

	a := run(t, true)
	b := run(t, false)

	assert.Equal(t, "18000", a.BeaconRewards.String())
	assert.Equal(t, "1000", a.ELRewards.String())
	assert.Equal(t, wei(1000), a.Shares2Mint)
	assert.Equal(t, a.Shares2Mint, b.Shares2Mint)
	assert.Equal(t, a.TotalsAfter, b.TotalsAfter)
	assert.Equal(t, a.SharesToTreasury, b.SharesToTreasury)
	assert.Equal(t, a.SharesToOperatorsActual, b.SharesToOperatorsActual)
	assert.Equal(t, a.TotalRewardsWithFees.String(), b.TotalRewardsWithFees.String())
}

func TestLateRewardUpdate(t *testing.T) {
	h := newHarness(t)
	h.apply(feeConfig(1, 1000, 5000, 500, 4500)...)
	h.apply(stake(2, testutil.RandomAddress(), wei(19000))...)
	h.registry.On("GetRewardsDistribution", mock.Anything, mock.Anything, mock.Anything).
		Return([]types.OperatorShare{}, nil)

	report := newChainTx(3)
	h.apply(
		types.OracleCompleted{Header: report.header(), BeaconBalance: wei(19000)},
		mint(report, h.settings.InsuranceFund, 50),
		types.ELRewardsReceived{Header: report.header(), Amount: wei(1000)},
	)

	reward := h.reward(report.hash)
	assert.Equal(t, types.RewardInsuranceRecorded, reward.State)
	assert.True(t, reward.ELRewards.IsZero())
	assert.Contains(t, h.anomalies(), types.KindLateRewardUpdate)
}

func TestReplay(t *testing.T) {
	settings := types.Settings{Treasury: testutil.RandomAddress(), InsuranceFund: testutil.RandomAddress()}
	alice, bob := testutil.RandomAddress(), testutil.RandomAddress()

	var events []types.Event
	events = append(events, feeConfig(1, 1000, 5000, 500, 4500)...)
	events = append(events, stake(2, alice, wei(19000))...)
	report := newChainTx(3)
	events = append(events,
		types.OracleCompleted{Header: report.header(), BeaconBalance: wei(19000)},
		mint(report, settings.InsuranceFund, 50),
		mint(report, settings.Treasury, 950),
	)
	transfer := newChainTx(4)
	events = append(events, types.Transfer{Header: transfer.header(), From: alice, To: bob, Value: wei(380)})

	build := func(t *testing.T) *harness {
		h := newHarnessWithSettings(t, settings)
		h.registry.On("GetRewardsDistribution", mock.Anything, mock.Anything, mock.Anything).
			Return([]types.OperatorShare{}, nil)
		h.apply(events...)
		return h
	}

	h := build(t)
	h.requireSharesInvariant()
	totals := h.engine.State().Totals()
	records := len(h.records)

	t.Run("applied events are skipped", func(t *testing.T) {
		h.apply(events...)
		assert.Len(t, h.records, records)
		assert.Equal(t, totals, h.engine.State().Totals())
	})

	t.Run("a fresh run converges", func(t *testing.T) {
		other := build(t)
		assert.Equal(t, totals, other.engine.State().Totals())
		assert.Equal(t, h.balance(alice), other.balance(alice))
		assert.Equal(t, h.balance(bob), other.balance(bob))
		assert.Equal(t, h.reward(report.hash), other.reward(report.hash))
		assert.Equal(t, h.records, other.records)

		collections := h.store.Collections()
		require.Equal(t, collections, other.store.Collections())
		for _, c := range collections {
			ids := h.store.IDs(c)
			require.Equal(t, ids, other.store.IDs(c), c)
			for _, id := range ids {
				want, _ := h.store.Raw(c, id)
				got, ok := other.store.Raw(c, id)
				require.True(t, ok)
				assert.Equal(t, []byte(want), []byte(got), "%s/%s", c, id)
			}
		}
	})

	t.Run("state is restored from the store", func(t *testing.T) {
		st := h.engine.State()
		cursor, ok := st.Cursor()
		require.True(t, ok)
		assert.Equal(t, transfer.block, cursor.Block)

		snapshot, err := h.store.LoadProtocolSnapshot(t.Context())
		require.NoError(t, err)
		require.NotNil(t, snapshot)
		assert.Equal(t, cursor, snapshot.Cursor)
		assert.Equal(t, totals, snapshot.Totals)
	})
}

func TestReconciliation(t *testing.T) {
	h := newHarness(t, 5)
	staker := testutil.RandomAddress()
	h.apply(stake(1, staker, wei(100))...)

	t.Run("allow-listed block", func(t *testing.T) {
		h.chain.On("GetTotalPooledEther", mock.Anything, uint64(5)).Return(wei(120), nil).Once()
		h.apply(types.ReconcileBlock{Header: types.BlockHeader(5, testBlockTime)})

		totals := h.engine.State().Totals()
		assert.Equal(t, wei(120), totals.TotalPooledEther)
		assert.Equal(t, wei(100), totals.TotalShares)
	})

	t.Run("other blocks are rejected", func(t *testing.T) {
		h.apply(types.ReconcileBlock{Header: types.BlockHeader(6, testBlockTime)})
		assert.Contains(t, h.anomalies(), types.KindRejectedReconciliation)
		assert.Equal(t, wei(120), h.engine.State().Totals().TotalPooledEther)
	})

	t.Run("beacon validators update", func(t *testing.T) {
		h.chain.On("GetTotalPooledEther", mock.Anything, uint64(7)).Return(wei(130), nil).Once()
		c := newChainTx(7)
		h.apply(types.BeaconValidatorsUpdated{Header: c.header(), BeaconValidators: 3})
		assert.Equal(t, wei(130), h.engine.State().Totals().TotalPooledEther)
	})
	h.requireSharesInvariant()
}

func TestWithdrawal(t *testing.T) {
	t.Run("before any pooled ether", func(t *testing.T) {
		h := newHarness(t)
		c := newChainTx(1)
		h.apply(types.Withdrawal{Header: c.header(), Sender: testutil.RandomAddress(), TokenAmount: wei(10)})

		assert.Contains(t, h.anomalies(), types.KindMissingRequiredPriorRecord)
		totals := h.engine.State().Totals()
		assert.True(t, totals.TotalShares.IsZero())
		h.requireSharesInvariant()
	})

	t.Run("burns the sender shares", func(t *testing.T) {
		h := newHarness(t)
		staker := testutil.RandomAddress()
		h.apply(stake(1, staker, wei(100))...)

		c := newChainTx(2)
		h.apply(types.Withdrawal{Header: c.header(), Sender: staker, TokenAmount: wei(40), EtherAmount: wei(40)})

		assert.Equal(t, wei(60), h.balance(staker))
		totals := h.engine.State().Totals()
		assert.Equal(t, wei(60), totals.TotalPooledEther)
		assert.Equal(t, wei(60), totals.TotalShares)
		h.requireSharesInvariant()
	})
}

func TestSharesBurnt(t *testing.T) {
	h := newHarness(t)
	staker := testutil.RandomAddress()
	h.apply(stake(1, staker, wei(100))...)

	c := newChainTx(2)
	h.apply(types.SharesBurnt{
		Header:                c.header(),
		Account:               staker,
		PreRebaseTokenAmount:  wei(40),
		PostRebaseTokenAmount: wei(40),
		SharesAmount:          wei(40),
	})

	assert.Equal(t, wei(60), h.balance(staker))
	totals := h.engine.State().Totals()
	assert.Equal(t, wei(100), totals.TotalPooledEther)
	assert.Equal(t, wei(60), totals.TotalShares)
	h.requireSharesInvariant()
}

func TestProtocolSettings(t *testing.T) {
	h := newHarness(t)
	treasury, insurance := testutil.RandomAddress(), testutil.RandomAddress()

	c := newChainTx(1)
	h.apply(
		types.ProtocolContactsSet{Header: c.header(), Oracle: testutil.RandomAddress(), Treasury: treasury, InsuranceFund: insurance},
		types.ProtocolStatusChanged{Header: c.header(), Status: types.StatusStakingPaused},
	)

	settings := h.engine.State().Settings()
	assert.Equal(t, treasury, settings.Treasury)
	assert.Equal(t, insurance, settings.InsuranceFund)

	h.apply(feeConfig(2, 1000, 5000, 500, 4500)...)
	assert.Equal(t, types.FeeConfig{
		FeeBasisPoints:          1000,
		TreasuryFeeBasisPoints:  5000,
		InsuranceFeeBasisPoints: 500,
		OperatorsFeeBasisPoints: 4500,
	}, h.engine.State().Fees())
	assert.Empty(t, h.anomalies())
}

func TestInformationalEventsAreRecorded(t *testing.T) {
	h := newHarness(t)
	h.apply(stake(1, testutil.RandomAddress(), wei(100))...)
	totals := h.engine.State().Totals()

	member := testutil.RandomAddress()
	c := newChainTx(2)
	h.apply(
		types.OracleChanged{
			Header: c.header(),
			Change: types.OracleMemberAdded,
			Params: []types.Param{{Name: "member", Value: member.Hex()}},
		},
		types.ProtocolStatusChanged{
			Header: c.header(),
			Status: types.StatusStakingLimitSet,
			Params: []types.Param{{Name: "maxStakeLimit", Value: "150000"}, {Name: "stakeLimitIncreasePerBlock", Value: "20"}},
		},
	)

	assert.Equal(t, totals, h.engine.State().Totals())
	assert.Empty(t, h.anomalies())
	assert.Equal(t, []string{c.hash.Hex() + "-0"}, h.store.IDs(model.OracleChangeCollection))
	require.Equal(t, 1, h.store.Count(model.ProtocolStatusCollection))

	var doc model.OracleChangeDocument
	found, err := h.store.Decode(model.OracleChangeCollection, c.hash.Hex()+"-0", &doc)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, string(types.OracleMemberAdded), doc.Change)
	assert.Equal(t, []model.ParamDocument{{Name: "member", Value: member.Hex()}}, doc.Params)
}
