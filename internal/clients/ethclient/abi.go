package ethclient

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const lidoABIJSON = `[
	{"type":"event","name":"Submitted","anonymous":false,"inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"referral","type":"address","indexed":false}]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"TransferShares","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"sharesValue","type":"uint256","indexed":false}]},
	{"type":"event","name":"Approval","anonymous":false,"inputs":[
		{"name":"owner","type":"address","indexed":true},
		{"name":"spender","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"Withdrawal","anonymous":false,"inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"tokenAmount","type":"uint256","indexed":false},
		{"name":"sentFromBuffer","type":"uint256","indexed":false},
		{"name":"pubkeyHash","type":"bytes32","indexed":true},
		{"name":"etherAmount","type":"uint256","indexed":false}]},
	{"type":"event","name":"SharesBurnt","anonymous":false,"inputs":[
		{"name":"account","type":"address","indexed":true},
		{"name":"preRebaseTokenAmount","type":"uint256","indexed":false},
		{"name":"postRebaseTokenAmount","type":"uint256","indexed":false},
		{"name":"sharesAmount","type":"uint256","indexed":false}]},
	{"type":"event","name":"ELRewardsReceived","anonymous":false,"inputs":[
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"FeeSet","anonymous":false,"inputs":[
		{"name":"feeBasisPoints","type":"uint16","indexed":false}]},
	{"type":"event","name":"FeeDistributionSet","anonymous":false,"inputs":[
		{"name":"treasuryFeeBasisPoints","type":"uint16","indexed":false},
		{"name":"insuranceFeeBasisPoints","type":"uint16","indexed":false},
		{"name":"operatorsFeeBasisPoints","type":"uint16","indexed":false}]},
	{"type":"event","name":"ProtocolContactsSet","anonymous":false,"inputs":[
		{"name":"oracle","type":"address","indexed":false},
		{"name":"treasury","type":"address","indexed":false},
		{"name":"insuranceFund","type":"address","indexed":false}]},
	{"type":"event","name":"BeaconValidatorsUpdated","anonymous":false,"inputs":[
		{"name":"beaconValidators","type":"uint256","indexed":false}]},
	{"type":"event","name":"Stopped","anonymous":false,"inputs":[]},
	{"type":"event","name":"Resumed","anonymous":false,"inputs":[]},
	{"type":"event","name":"StakingPaused","anonymous":false,"inputs":[]},
	{"type":"event","name":"StakingResumed","anonymous":false,"inputs":[]},
	{"type":"event","name":"WithdrawalCredentialsSet","anonymous":false,"inputs":[
		{"name":"withdrawalCredentials","type":"bytes32","indexed":false}]},
	{"type":"event","name":"ELRewardsVaultSet","anonymous":false,"inputs":[
		{"name":"executionLayerRewardsVault","type":"address","indexed":false}]},
	{"type":"event","name":"ELRewardsWithdrawalLimitSet","anonymous":false,"inputs":[
		{"name":"limitPoints","type":"uint256","indexed":false}]},
	{"type":"event","name":"StakingLimitSet","anonymous":false,"inputs":[
		{"name":"maxStakeLimit","type":"uint256","indexed":false},
		{"name":"stakeLimitIncreasePerBlock","type":"uint256","indexed":false}]},
	{"type":"event","name":"StakingLimitRemoved","anonymous":false,"inputs":[]},
	{"type":"event","name":"Unbuffered","anonymous":false,"inputs":[
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"function","name":"getTotalPooledEther","stateMutability":"view","inputs":[],"outputs":[
		{"name":"","type":"uint256"}]}
]`

const oracleABIJSON = `[
	{"type":"event","name":"Completed","anonymous":false,"inputs":[
		{"name":"epochId","type":"uint256","indexed":false},
		{"name":"beaconBalance","type":"uint128","indexed":false},
		{"name":"beaconValidators","type":"uint128","indexed":false}]},
	{"type":"event","name":"MemberAdded","anonymous":false,"inputs":[
		{"name":"member","type":"address","indexed":false}]},
	{"type":"event","name":"MemberRemoved","anonymous":false,"inputs":[
		{"name":"member","type":"address","indexed":false}]},
	{"type":"event","name":"QuorumChanged","anonymous":false,"inputs":[
		{"name":"quorum","type":"uint256","indexed":false}]},
	{"type":"event","name":"ContractVersionSet","anonymous":false,"inputs":[
		{"name":"version","type":"uint256","indexed":false}]},
	{"type":"event","name":"PostTotalShares","anonymous":false,"inputs":[
		{"name":"postTotalPooledEther","type":"uint256","indexed":false},
		{"name":"preTotalPooledEther","type":"uint256","indexed":false},
		{"name":"timeElapsed","type":"uint256","indexed":false},
		{"name":"totalShares","type":"uint256","indexed":false}]},
	{"type":"event","name":"BeaconReported","anonymous":false,"inputs":[
		{"name":"epochId","type":"uint256","indexed":false},
		{"name":"beaconBalance","type":"uint128","indexed":false},
		{"name":"beaconValidators","type":"uint128","indexed":false},
		{"name":"caller","type":"address","indexed":false}]},
	{"type":"event","name":"BeaconSpecSet","anonymous":false,"inputs":[
		{"name":"epochsPerFrame","type":"uint64","indexed":false},
		{"name":"slotsPerEpoch","type":"uint64","indexed":false},
		{"name":"secondsPerSlot","type":"uint64","indexed":false},
		{"name":"genesisTime","type":"uint64","indexed":false}]},
	{"type":"event","name":"ExpectedEpochIdUpdated","anonymous":false,"inputs":[
		{"name":"epochId","type":"uint256","indexed":false}]},
	{"type":"event","name":"BeaconReportReceiverSet","anonymous":false,"inputs":[
		{"name":"callback","type":"address","indexed":false}]},
	{"type":"event","name":"AllowedBeaconBalanceRelativeDecreaseSet","anonymous":false,"inputs":[
		{"name":"value","type":"uint256","indexed":false}]},
	{"type":"event","name":"AllowedBeaconBalanceAnnualRelativeIncreaseSet","anonymous":false,"inputs":[
		{"name":"value","type":"uint256","indexed":false}]}
]`

const nodeOperatorsRegistryABIJSON = `[
	{"type":"function","name":"getRewardsDistribution","stateMutability":"view","inputs":[
		{"name":"_totalRewardShares","type":"uint256"}],"outputs":[
		{"name":"recipients","type":"address[]"},
		{"name":"shares","type":"uint256[]"}]}
]`

const feedRegistryABIJSON = `[
	{"type":"function","name":"latestRoundData","stateMutability":"view","inputs":[
		{"name":"base","type":"address"},
		{"name":"quote","type":"address"}],"outputs":[
		{"name":"roundId","type":"uint80"},
		{"name":"answer","type":"int256"},
		{"name":"startedAt","type":"uint256"},
		{"name":"updatedAt","type":"uint256"},
		{"name":"answeredInRound","type":"uint80"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[
		{"name":"base","type":"address"},
		{"name":"quote","type":"address"}],"outputs":[
		{"name":"","type":"uint8"}]}
]`

const yearnLensABIJSON = `[
	{"type":"function","name":"getPriceUsdcRecommended","stateMutability":"view","inputs":[
		{"name":"tokenAddress","type":"address"}],"outputs":[
		{"name":"","type":"uint256"}]}
]`

var (
	lidoABI                  = mustParseABI(lidoABIJSON)
	oracleABI                = mustParseABI(oracleABIJSON)
	nodeOperatorsRegistryABI = mustParseABI(nodeOperatorsRegistryABIJSON)
	feedRegistryABI          = mustParseABI(feedRegistryABIJSON)
	yearnLensABI             = mustParseABI(yearnLensABIJSON)
)

func mustParseABI(json string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(json))
	if err != nil {
		panic(fmt.Errorf("unable to parse ABI: %w", err))
	}
	return parsed
}
