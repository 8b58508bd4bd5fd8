//go:build e2e

package e2etest

import (
	"context"
	"errors"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/stakewatch/lido-ledger-indexer/internal/clients/ethclient"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
	"github.com/stakewatch/lido-ledger-indexer/testutil"
)

const chainGenesisTime = 1_610_000_000

var _ ethclient.EthInterface = (*Chain)(nil)

// Chain serves scripted protocol events in place of an rpc node.
type Chain struct {
	mu           sync.Mutex
	head         uint64
	events       []types.Event
	distribution map[uint64][]types.OperatorShare
}

func NewChain() *Chain {
	return &Chain{distribution: make(map[uint64][]types.OperatorShare)}
}

// Tx builds the headers of one transaction mined at block.
type Tx struct {
	block uint64
	hash  common.Hash
	next  uint
}

func NewTx(block uint64) *Tx {
	return &Tx{block: block, hash: testutil.RandomHash()}
}

func (tx *Tx) Hash() common.Hash {
	return tx.hash
}

func (tx *Tx) Header() types.Header {
	h := types.Header{
		BlockNumber: tx.block,
		BlockTime:   chainGenesisTime + tx.block*12,
		TxHash:      tx.hash,
		LogIndex:    tx.next,
	}
	tx.next++
	return h
}

// Mine appends events and moves the head to the highest block among them.
func (c *Chain) Mine(events ...types.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ev := range events {
		c.head = max(c.head, ev.EventHeader().BlockNumber)
	}
	c.events = append(c.events, events...)
	slices.SortStableFunc(c.events, func(a, b types.Event) int {
		return a.EventHeader().Position().Compare(b.EventHeader().Position())
	})
}

// SetRewardsDistribution fixes the registry answer at block.
func (c *Chain) SetRewardsDistribution(block uint64, shares []types.OperatorShare) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.distribution[block] = shares
}

func (c *Chain) GetLatestBlockNumber(context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head, nil
}

func (c *Chain) FetchEvents(_ context.Context, from, to uint64) ([]types.Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []types.Event
	for _, ev := range c.events {
		if b := ev.EventHeader().BlockNumber; b >= from && b <= to {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (c *Chain) GetTotalPooledEther(context.Context, uint64) (uint256.Int, error) {
	return uint256.Int{}, errors.New("not scripted")
}

func (c *Chain) GetRewardsDistribution(_ context.Context, block uint64, _ uint256.Int) ([]types.OperatorShare, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	shares, ok := c.distribution[block]
	if !ok {
		return nil, errors.New("no distribution scripted")
	}
	return shares, nil
}

func (c *Chain) LatestRoundAnswer(context.Context, common.Address, common.Address, uint64) (*big.Int, error) {
	return nil, errors.New("not scripted")
}

func (c *Chain) Decimals(context.Context, common.Address, common.Address, uint64) (uint8, error) {
	return 0, errors.New("not scripted")
}

func (c *Chain) GetPriceUsdcRecommended(context.Context, common.Address, uint64) (*big.Int, error) {
	return nil, errors.New("not scripted")
}
