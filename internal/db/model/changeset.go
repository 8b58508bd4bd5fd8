package model

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

const (
	JournalCollection            = "journal"
	LastProcessedBlockCollection = "last_processed_block"

	PendingJournalID = "pending"
)

// Write is a full document replacement, applying it twice is harmless.
type Write struct {
	Collection string   `bson:"collection"`
	ID         string   `bson:"id"`
	Doc        bson.Raw `bson:"doc"`
}

// JournalDocument holds the writes of a changeset until all of them landed.
type JournalDocument struct {
	ID       string  `bson:"_id"`
	Block    uint64  `bson:"block"`
	TxIndex  uint    `bson:"tx_index"`
	LogIndex uint    `bson:"log_index"`
	Writes   []Write `bson:"writes"`
}

type LastProcessedBlock struct {
	Block uint64 `bson:"block"`
}

func newWrite(collection, id string, doc any) (Write, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return Write{}, fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	return Write{Collection: collection, ID: id, Doc: raw}, nil
}

// ChangesetWrites flattens a changeset into document writes. The cursor is
// always the last write.
func ChangesetWrites(cs *types.Changeset) ([]Write, error) {
	var (
		writes []Write
		err    error
	)
	add := func(collection, id string, doc any) {
		if err != nil {
			return
		}
		var w Write
		w, err = newWrite(collection, id, doc)
		writes = append(writes, w)
	}

	if cs.Totals != nil {
		add(ProtocolStateCollection, TotalsID, &TotalsStateDocument{ID: TotalsID, TotalsDocument: fromTotals(*cs.Totals)})
	}
	if cs.Fees != nil {
		add(ProtocolStateCollection, FeesID, &FeesStateDocument{ID: FeesID, FeeConfigDocument: fromFees(*cs.Fees)})
	}
	if cs.Settings != nil {
		add(ProtocolStateCollection, SettingsID, &SettingsStateDocument{ID: SettingsID, SettingsDocument: fromSettings(*cs.Settings)})
	}

	addrs := make([]common.Address, 0, len(cs.Balances))
	for a := range cs.Balances {
		addrs = append(addrs, a)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})
	for _, a := range addrs {
		id := a.Hex()
		add(ShareBalanceCollection, id, &ShareBalanceDocument{ID: id, Shares: dec(cs.Balances[a])})
	}

	for _, r := range cs.Rewards {
		doc := FromRewardEvent(r)
		add(RewardEventCollection, doc.ID, doc)
	}
	for _, r := range cs.OracleReports {
		add(OracleReportCollection, r.ID, FromOracleReport(r))
	}
	for _, r := range cs.Records {
		collection, doc, recErr := recordDocument(r)
		if recErr != nil {
			return nil, recErr
		}
		add(collection, r.RecordID(), doc)
	}

	if u := cs.Usage; !u.IsEmpty() {
		for _, s := range u.Snapshots {
			add(UsageCollection(s.Period), s.ID, FromUsageSnapshot(s))
		}
		if u.Protocol != nil {
			add(ProtocolStateCollection, ProtocolUsageID, &ProtocolUsageDocument{
				ID:          ProtocolUsageID,
				TVLUSD:      u.Protocol.TVLUSD.String(),
				TxCount:     u.Protocol.TxCount,
				BlockNumber: u.Protocol.BlockNumber,
			})
		}
		for _, h := range u.Holders {
			id := h.Address.Hex()
			add(HolderCollection, id, &HolderDocument{ID: id, FirstSeen: h.FirstSeen})
		}
		if u.HolderStats != nil {
			add(ProtocolStateCollection, HolderStatsID, &HolderStatsDocument{
				ID:                   HolderStatsID,
				UniqueHolders:        u.HolderStats.UniqueHolders,
				UniqueAnytimeHolders: u.HolderStats.UniqueAnytimeHolders,
			})
		}
	}

	add(ProtocolStateCollection, CursorID, &CursorDocument{
		ID:       CursorID,
		Block:    cs.Position.Block,
		TxIndex:  cs.Position.TxIndex,
		LogIndex: cs.Position.LogIndex,
		LastTx:   cs.LastTx.Hex(),
	})

	if err != nil {
		return nil, err
	}
	return writes, nil
}
