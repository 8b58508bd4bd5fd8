package types

// RewardState tracks which fee mints of a rebase transaction were already
// classified.
type RewardState string

const (
	RewardAwaitingFees      RewardState = "AWAITING_FEES"
	RewardInsuranceRecorded RewardState = "INSURANCE_RECORDED"
	RewardTreasuryRecorded  RewardState = "TREASURY_RECORDED"
	RewardFinalized         RewardState = "FINALIZED"
)

func (s RewardState) String() string {
	return string(s)
}

// QualifiedStatesForInsuranceFee returns the states in which a mint to the
// insurance fund is classified as the insurance fee
func QualifiedStatesForInsuranceFee() []RewardState {
	return []RewardState{RewardAwaitingFees}
}

// QualifiedStatesForTreasuryFee returns the states in which a mint to the
// treasury is classified as the treasury fee or dust
func QualifiedStatesForTreasuryFee() []RewardState {
	return []RewardState{RewardInsuranceRecorded}
}

// QualifiedStatesForOperatorFee returns the states in which a mint can be
// matched against the node operator distribution
func QualifiedStatesForOperatorFee() []RewardState {
	return []RewardState{RewardAwaitingFees, RewardInsuranceRecorded, RewardTreasuryRecorded}
}

// QualifiedStatesForRecompute returns the states in which rewards of the
// transaction can still change
func QualifiedStatesForRecompute() []RewardState {
	return []RewardState{RewardAwaitingFees}
}

func (s RewardState) In(states []RewardState) bool {
	for _, st := range states {
		if s == st {
			return true
		}
	}
	return false
}
