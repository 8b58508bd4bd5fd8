package types

// AnomalyKind classifies recoverable accounting conditions. They are logged and
// persisted, the event is still applied.
type AnomalyKind string

const (
	KindMissingRequiredPriorRecord AnomalyKind = "missing_required_prior_record"
	KindUnclassifiableTransfer     AnomalyKind = "unclassifiable_transfer"
	KindNegativeBalance            AnomalyKind = "negative_balance"
	KindInvalidFeeSplit            AnomalyKind = "invalid_fee_split"
	KindRejectedReconciliation     AnomalyKind = "rejected_reconciliation"
	KindNonPositiveRewards         AnomalyKind = "non_positive_rewards"
	KindLateRewardUpdate           AnomalyKind = "late_reward_update"
	KindOperatorOverDistribution   AnomalyKind = "operator_over_distribution"
	KindUnassignedRewardShares     AnomalyKind = "unassigned_reward_shares"
)

func (k AnomalyKind) String() string {
	return string(k)
}
