package model

import (
	"fmt"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const (
	TransferCollection        = "transfers"
	SubmissionCollection      = "submissions"
	WithdrawalCollection      = "withdrawals"
	FeeChangeCollection       = "fee_changes"
	NodeOperatorFeeCollection = "node_operator_fees"
	SharesBurnCollection      = "shares_burns"
	SharesTransferCollection  = "shares_transfers"
	ApprovalCollection        = "approvals"
	ContactsChangeCollection  = "contacts_changes"
	ProtocolStatusCollection  = "protocol_status_changes"
	OracleChangeCollection    = "oracle_changes"
	ReconciliationCollection  = "reconciliations"
	AnomalyCollection         = "anomalies"
)

type TransferDocument struct {
	ID                    string `bson:"_id"`
	EventDocument         `bson:",inline"`
	From                  string         `bson:"from"`
	To                    string         `bson:"to"`
	Value                 string         `bson:"value"`
	Shares                string         `bson:"shares"`
	Classification        string         `bson:"classification"`
	MintWithoutSubmission bool           `bson:"mint_without_submission"`
	SharesBeforeDecrease  string         `bson:"shares_before_decrease"`
	SharesAfterDecrease   string         `bson:"shares_after_decrease"`
	SharesBeforeIncrease  string         `bson:"shares_before_increase"`
	SharesAfterIncrease   string         `bson:"shares_after_increase"`
	BalanceAfterDecrease  string         `bson:"balance_after_decrease"`
	BalanceAfterIncrease  string         `bson:"balance_after_increase"`
	Totals                TotalsDocument `bson:"totals"`
	SenderDrained         bool           `bson:"sender_drained"`
}

type SubmissionDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Sender        string         `bson:"sender"`
	Amount        string         `bson:"amount"`
	Referral      string         `bson:"referral"`
	Shares        string         `bson:"shares"`
	SharesBefore  string         `bson:"shares_before"`
	SharesAfter   string         `bson:"shares_after"`
	TotalsBefore  TotalsDocument `bson:"totals_before"`
	TotalsAfter   TotalsDocument `bson:"totals_after"`
}

type WithdrawalDocument struct {
	ID             string `bson:"_id"`
	EventDocument  `bson:",inline"`
	Sender         string         `bson:"sender"`
	TokenAmount    string         `bson:"token_amount"`
	SentFromBuffer string         `bson:"sent_from_buffer"`
	PubkeyHash     string         `bson:"pubkey_hash"`
	EtherAmount    string         `bson:"ether_amount"`
	Shares         string         `bson:"shares"`
	TotalsAfter    TotalsDocument `bson:"totals_after"`
}

type FeeChangeDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Kind          string            `bson:"kind"`
	Fees          FeeConfigDocument `bson:"fees"`
}

type NodeOperatorFeeDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Operator      string `bson:"operator"`
	Fee           string `bson:"fee"`
	Shares        string `bson:"shares"`
}

type SharesBurnDocument struct {
	ID                    string `bson:"_id"`
	EventDocument         `bson:",inline"`
	Account               string `bson:"account"`
	PreRebaseTokenAmount  string `bson:"pre_rebase_token_amount"`
	PostRebaseTokenAmount string `bson:"post_rebase_token_amount"`
	SharesAmount          string `bson:"shares_amount"`
}

type SharesTransferDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	From          string `bson:"from"`
	To            string `bson:"to"`
	SharesValue   string `bson:"shares_value"`
}

type ApprovalDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Owner         string `bson:"owner"`
	Spender       string `bson:"spender"`
	Value         string `bson:"value"`
}

type ContactsChangeDocument struct {
	ID               string `bson:"_id"`
	EventDocument    `bson:",inline"`
	SettingsDocument `bson:",inline"`
}

// ParamDocument keeps decoded event arguments in declaration order.
type ParamDocument struct {
	Name  string `bson:"name"`
	Value string `bson:"value"`
}

type ProtocolStatusDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Status        string          `bson:"status"`
	Params        []ParamDocument `bson:"params,omitempty"`
}

type OracleChangeDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Change        string          `bson:"change"`
	Params        []ParamDocument `bson:"params,omitempty"`
}

func fromParams(params []types.Param) []ParamDocument {
	if len(params) == 0 {
		return nil
	}
	docs := make([]ParamDocument, len(params))
	for i, p := range params {
		docs[i] = ParamDocument{Name: p.Name, Value: p.Value}
	}
	return docs
}

type ReconciliationDocument struct {
	ID             string `bson:"_id"`
	EventDocument  `bson:",inline"`
	Reason         string `bson:"reason"`
	PooledEtherOld string `bson:"pooled_ether_old"`
	PooledEtherNew string `bson:"pooled_ether_new"`
}

type AnomalyDocument struct {
	ID            string `bson:"_id"`
	EventDocument `bson:",inline"`
	Kind          string `bson:"kind"`
	Event         string `bson:"event"`
	Message       string `bson:"message"`
}

// recordDocument maps a record onto its collection and document.
func recordDocument(r types.Record) (string, any, error) {
	id := r.RecordID()
	switch r := r.(type) {
	case *types.TransferRecord:
		return TransferCollection, &TransferDocument{
			ID:                    id,
			EventDocument:         fromHeader(r.Header),
			From:                  hexAddress(r.From),
			To:                    hexAddress(r.To),
			Value:                 dec(r.Value),
			Shares:                dec(r.Shares),
			Classification:        string(r.Classification),
			MintWithoutSubmission: r.MintWithoutSubmission,
			SharesBeforeDecrease:  dec(r.SharesBeforeDecrease),
			SharesAfterDecrease:   dec(r.SharesAfterDecrease),
			SharesBeforeIncrease:  dec(r.SharesBeforeIncrease),
			SharesAfterIncrease:   dec(r.SharesAfterIncrease),
			BalanceAfterDecrease:  dec(r.BalanceAfterDecrease),
			BalanceAfterIncrease:  dec(r.BalanceAfterIncrease),
			Totals:                fromTotals(r.Totals),
			SenderDrained:         r.SenderDrained,
		}, nil
	case *types.SubmissionRecord:
		return SubmissionCollection, &SubmissionDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Sender:        hexAddress(r.Sender),
			Amount:        dec(r.Amount),
			Referral:      hexAddress(r.Referral),
			Shares:        dec(r.Shares),
			SharesBefore:  dec(r.SharesBefore),
			SharesAfter:   dec(r.SharesAfter),
			TotalsBefore:  fromTotals(r.TotalsBefore),
			TotalsAfter:   fromTotals(r.TotalsAfter),
		}, nil
	case *types.WithdrawalRecord:
		return WithdrawalCollection, &WithdrawalDocument{
			ID:             id,
			EventDocument:  fromHeader(r.Header),
			Sender:         hexAddress(r.Sender),
			TokenAmount:    dec(r.TokenAmount),
			SentFromBuffer: dec(r.SentFromBuffer),
			PubkeyHash:     r.PubkeyHash.Hex(),
			EtherAmount:    dec(r.EtherAmount),
			Shares:         dec(r.Shares),
			TotalsAfter:    fromTotals(r.TotalsAfter),
		}, nil
	case *types.FeeChangeRecord:
		return FeeChangeCollection, &FeeChangeDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Kind:          r.Kind.String(),
			Fees:          fromFees(r.Fees),
		}, nil
	case *types.NodeOperatorFeeRecord:
		return NodeOperatorFeeCollection, &NodeOperatorFeeDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Operator:      hexAddress(r.Operator),
			Fee:           dec(r.Fee),
			Shares:        dec(r.Shares),
		}, nil
	case *types.SharesBurnRecord:
		return SharesBurnCollection, &SharesBurnDocument{
			ID:                    id,
			EventDocument:         fromHeader(r.Header),
			Account:               hexAddress(r.Account),
			PreRebaseTokenAmount:  dec(r.PreRebaseTokenAmount),
			PostRebaseTokenAmount: dec(r.PostRebaseTokenAmount),
			SharesAmount:          dec(r.SharesAmount),
		}, nil
	case *types.SharesTransferRecord:
		return SharesTransferCollection, &SharesTransferDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			From:          hexAddress(r.From),
			To:            hexAddress(r.To),
			SharesValue:   dec(r.SharesValue),
		}, nil
	case *types.ApprovalRecord:
		return ApprovalCollection, &ApprovalDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Owner:         hexAddress(r.Owner),
			Spender:       hexAddress(r.Spender),
			Value:         dec(r.Value),
		}, nil
	case *types.ContactsChangeRecord:
		return ContactsChangeCollection, &ContactsChangeDocument{
			ID:               id,
			EventDocument:    fromHeader(r.Header),
			SettingsDocument: fromSettings(r.Settings),
		}, nil
	case *types.ProtocolStatusRecord:
		return ProtocolStatusCollection, &ProtocolStatusDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Status:        string(r.Status),
			Params:        fromParams(r.Params),
		}, nil
	case *types.OracleChangeRecord:
		return OracleChangeCollection, &OracleChangeDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Change:        string(r.Change),
			Params:        fromParams(r.Params),
		}, nil
	case *types.ReconciliationRecord:
		return ReconciliationCollection, &ReconciliationDocument{
			ID:             id,
			EventDocument:  fromHeader(r.Header),
			Reason:         r.Reason.String(),
			PooledEtherOld: dec(r.PooledEtherOld),
			PooledEtherNew: dec(r.PooledEtherNew),
		}, nil
	case *types.AnomalyRecord:
		return AnomalyCollection, &AnomalyDocument{
			ID:            id,
			EventDocument: fromHeader(r.Header),
			Kind:          r.Kind.String(),
			Event:         r.Event.String(),
			Message:       r.Message,
		}, nil
	default:
		return "", nil, fmt.Errorf("unsupported record %T", r)
	}
}
