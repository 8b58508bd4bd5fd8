package ethclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	gethclient "github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog/log"

	"github.com/stakewatch/lido-ledger-indexer/internal/config"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// Backend is the subset of the JSON-RPC client used here.
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*ethtypes.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]ethtypes.Log, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

type EthClient struct {
	backend Backend
	cfg     *config.EthConfig
	decoder *Decoder

	lido            common.Address
	registry        common.Address
	feedRegistry    common.Address
	yearnLens       common.Address
	reconcileBlocks []uint64
}

func NewEthClient(
	ctx context.Context,
	cfg *config.EthConfig,
	network *config.NetworkConfig,
	prices *config.PriceConfig,
) (*EthClient, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	c, err := gethclient.DialContext(dialCtx, cfg.RPCAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial eth rpc: %w", err)
	}
	return NewEthClientWithBackend(c, cfg, network, prices), nil
}

func NewEthClientWithBackend(
	backend Backend,
	cfg *config.EthConfig,
	network *config.NetworkConfig,
	prices *config.PriceConfig,
) *EthClient {
	blocks := append([]uint64(nil), network.ReconcileBlocks...)
	sort.Slice(blocks, func(i, j int) bool { return blocks[i] < blocks[j] })

	c := &EthClient{
		backend:         backend,
		cfg:             cfg,
		decoder:         NewDecoder(network.LidoAddress(), network.OracleAddress()),
		lido:            network.LidoAddress(),
		registry:        network.RegistryAddress(),
		reconcileBlocks: blocks,
	}
	if prices != nil {
		if common.IsHexAddress(prices.ChainlinkRegistry) {
			c.feedRegistry = common.HexToAddress(prices.ChainlinkRegistry)
		}
		if common.IsHexAddress(prices.YearnLens) {
			c.yearnLens = common.HexToAddress(prices.YearnLens)
		}
	}
	return c
}

func (c *EthClient) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	head, err := clientCallWithRetry(ctx, func() (uint64, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		return c.backend.BlockNumber(callCtx)
	}, c.cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block number: %w", err)
	}
	return head, nil
}

func (c *EthClient) FetchEvents(ctx context.Context, from, to uint64) ([]types.Event, error) {
	if from > to {
		return nil, fmt.Errorf("invalid block range [%d, %d]", from, to)
	}

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: c.decoder.Addresses(),
		Topics:    [][]common.Hash{c.decoder.Topics()},
	}
	logs, err := clientCallWithRetry(ctx, func() ([]ethtypes.Log, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		return c.backend.FilterLogs(callCtx, query)
	}, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to filter logs of [%d, %d]: %w", from, to, err)
	}

	times := make(map[uint64]uint64)
	blockTime := func(block uint64) (uint64, error) {
		if ts, ok := times[block]; ok {
			return ts, nil
		}
		ts, err := c.getBlockTime(ctx, block)
		if err != nil {
			return 0, err
		}
		times[block] = ts
		return ts, nil
	}

	events := make([]types.Event, 0, len(logs))
	for _, l := range logs {
		if l.Removed {
			continue
		}
		ts, err := blockTime(l.BlockNumber)
		if err != nil {
			return nil, err
		}
		ev, err := c.decoder.Decode(l, ts)
		if errors.Is(err, ErrUnknownEvent) {
			log.Ctx(ctx).Warn().
				Err(err).
				Uint64("block", l.BlockNumber).
				Str("tx", l.TxHash.Hex()).
				Msg("skipping unknown log")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode log %s-%d: %w", l.TxHash.Hex(), l.Index, err)
		}
		events = append(events, ev)
	}

	for _, b := range c.reconcileBlocks {
		if b < from || b > to {
			continue
		}
		ts, err := blockTime(b)
		if err != nil {
			return nil, err
		}
		events = append(events, types.ReconcileBlock{Header: types.BlockHeader(b, ts)})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventHeader().Position().Compare(events[j].EventHeader().Position()) < 0
	})
	return events, nil
}

func (c *EthClient) getBlockTime(ctx context.Context, block uint64) (uint64, error) {
	header, err := clientCallWithRetry(ctx, func() (*ethtypes.Header, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		return c.backend.HeaderByNumber(callCtx, new(big.Int).SetUint64(block))
	}, c.cfg)
	if err != nil {
		return 0, fmt.Errorf("failed to get header of block %d: %w", block, err)
	}
	return header.Time, nil
}

func (c *EthClient) GetTotalPooledEther(ctx context.Context, block uint64) (uint256.Int, error) {
	out, err := c.call(ctx, &lidoABI, c.lido, block, "getTotalPooledEther")
	if err != nil {
		return uint256.Int{}, err
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return uint256.Int{}, fmt.Errorf("unexpected getTotalPooledEther output %T", out[0])
	}
	return toUint256("totalPooledEther", v)
}

func (c *EthClient) GetRewardsDistribution(
	ctx context.Context, block uint64, totalRewardShares uint256.Int,
) ([]types.OperatorShare, error) {
	out, err := c.call(ctx, &nodeOperatorsRegistryABI, c.registry, block, "getRewardsDistribution", totalRewardShares.ToBig())
	if err != nil {
		return nil, err
	}
	recipients, ok := out[0].([]common.Address)
	if !ok {
		return nil, fmt.Errorf("unexpected recipients output %T", out[0])
	}
	shares, ok := out[1].([]*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected shares output %T", out[1])
	}
	if len(recipients) != len(shares) {
		return nil, fmt.Errorf("rewards distribution length mismatch: %d recipients, %d shares", len(recipients), len(shares))
	}

	distribution := make([]types.OperatorShare, 0, len(recipients))
	for i, r := range recipients {
		s, err := toUint256("shares", shares[i])
		if err != nil {
			return nil, err
		}
		distribution = append(distribution, types.OperatorShare{Address: r, Shares: s})
	}
	return distribution, nil
}

func (c *EthClient) LatestRoundAnswer(ctx context.Context, base, quote common.Address, block uint64) (*big.Int, error) {
	if c.feedRegistry == (common.Address{}) {
		return nil, errors.New("chainlink feed registry is not configured")
	}
	out, err := c.call(ctx, &feedRegistryABI, c.feedRegistry, block, "latestRoundData", base, quote)
	if err != nil {
		return nil, err
	}
	answer, ok := out[1].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected latestRoundData answer %T", out[1])
	}
	return answer, nil
}

func (c *EthClient) Decimals(ctx context.Context, base, quote common.Address, block uint64) (uint8, error) {
	if c.feedRegistry == (common.Address{}) {
		return 0, errors.New("chainlink feed registry is not configured")
	}
	out, err := c.call(ctx, &feedRegistryABI, c.feedRegistry, block, "decimals", base, quote)
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals output %T", out[0])
	}
	return decimals, nil
}

func (c *EthClient) GetPriceUsdcRecommended(ctx context.Context, token common.Address, block uint64) (*big.Int, error) {
	if c.yearnLens == (common.Address{}) {
		return nil, errors.New("yearn lens is not configured")
	}
	out, err := c.call(ctx, &yearnLensABI, c.yearnLens, block, "getPriceUsdcRecommended", token)
	if err != nil {
		return nil, err
	}
	price, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected getPriceUsdcRecommended output %T", out[0])
	}
	return price, nil
}

// call runs a read only contract method at block and unpacks its outputs.
func (c *EthClient) call(
	ctx context.Context, contract *abi.ABI, to common.Address, block uint64, method string, args ...any,
) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}

	raw, err := clientCallWithRetry(ctx, func() ([]byte, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
		out, err := c.backend.CallContract(callCtx, msg, new(big.Int).SetUint64(block))
		if err != nil && strings.Contains(err.Error(), "execution reverted") {
			return nil, retry.Unrecoverable(err)
		}
		return out, err
	}, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s at block %d: %w", method, block, err)
	}

	out, err := contract.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s output", method)
	}
	return out, nil
}

func clientCallWithRetry[T any](
	ctx context.Context, call retry.RetryableFuncWithData[T], cfg *config.EthConfig,
) (T, error) {
	return retry.DoWithData(call,
		retry.Context(ctx),
		retry.Attempts(cfg.MaxRetryTimes),
		retry.Delay(cfg.RetryInterval),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the eth client")
		}))
}
