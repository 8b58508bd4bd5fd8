package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
)

// GetLastProcessedBlock returns the last block whose logs were all applied, 0 if none.
func (db *Database) GetLastProcessedBlock(ctx context.Context) (uint64, error) {
	var result model.LastProcessedBlock
	err := db.collection(model.LastProcessedBlockCollection).
		FindOne(ctx, bson.M{}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.Block, nil
}

func (db *Database) UpdateLastProcessedBlock(ctx context.Context, block uint64) error {
	update := bson.M{"$set": bson.M{"block": block}}
	opts := options.Update().SetUpsert(true)
	_, err := db.collection(model.LastProcessedBlockCollection).
		UpdateOne(ctx, bson.M{}, update, opts)
	return err
}
