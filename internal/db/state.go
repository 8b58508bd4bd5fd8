package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// findByID decodes the document with the given id into out and reports
// whether it exists.
func (db *Database) findByID(ctx context.Context, collection, id string, out any) (bool, error) {
	err := db.collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to find %s/%s: %w", collection, id, err)
	}
	return true, nil
}

func (db *Database) LoadProtocolSnapshot(ctx context.Context) (*types.ProtocolSnapshot, error) {
	var cursor model.CursorDocument
	found, err := db.findByID(ctx, model.ProtocolStateCollection, model.CursorID, &cursor)
	if err != nil || !found {
		return nil, err
	}

	var (
		totals   model.TotalsStateDocument
		fees     model.FeesStateDocument
		settings model.SettingsStateDocument
	)
	hasTotals, err := db.findByID(ctx, model.ProtocolStateCollection, model.TotalsID, &totals)
	if err != nil {
		return nil, err
	}
	hasFees, err := db.findByID(ctx, model.ProtocolStateCollection, model.FeesID, &fees)
	if err != nil {
		return nil, err
	}
	hasSettings, err := db.findByID(ctx, model.ProtocolStateCollection, model.SettingsID, &settings)
	if err != nil {
		return nil, err
	}

	return model.BuildProtocolSnapshot(
		&cursor,
		optional(hasTotals, &totals),
		optional(hasFees, &fees),
		optional(hasSettings, &settings),
	)
}

func optional[T any](found bool, v *T) *T {
	if !found {
		return nil
	}
	return v
}

func (db *Database) LoadShareBalance(ctx context.Context, holder common.Address) (uint256.Int, error) {
	var doc model.ShareBalanceDocument
	found, err := db.findByID(ctx, model.ShareBalanceCollection, holder.Hex(), &doc)
	if err != nil || !found {
		return uint256.Int{}, err
	}
	return doc.ToBalance()
}

func (db *Database) LoadRewardEvent(ctx context.Context, txHash common.Hash) (*types.RewardEvent, error) {
	var doc model.RewardEventDocument
	found, err := db.findByID(ctx, model.RewardEventCollection, txHash.Hex(), &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToRewardEvent()
}

func (db *Database) LoadOracleReport(ctx context.Context, id string) (*types.OracleReport, error) {
	var doc model.OracleReportDocument
	found, err := db.findByID(ctx, model.OracleReportCollection, id, &doc)
	if err != nil || !found {
		return nil, err
	}
	return doc.ToOracleReport()
}

// SumShareBalances streams every balance, the amounts are stored as decimal
// strings so the sum cannot be done server side.
func (db *Database) SumShareBalances(ctx context.Context) (uint256.Int, error) {
	var sum uint256.Int

	opts := options.Find().SetProjection(bson.M{"shares": 1})
	cursor, err := db.collection(model.ShareBalanceCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return sum, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc model.ShareBalanceDocument
		if err := cursor.Decode(&doc); err != nil {
			return sum, err
		}
		balance, err := doc.ToBalance()
		if err != nil {
			return sum, err
		}
		if _, overflow := sum.AddOverflow(&sum, &balance); overflow {
			return sum, fmt.Errorf("share balances overflow")
		}
	}

	return sum, cursor.Err()
}
