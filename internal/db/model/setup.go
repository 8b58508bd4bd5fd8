package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakewatch/lido-ledger-indexer/internal/config"
)

const setupTimeout = 30 * time.Second

type index struct {
	Indexes map[string]int
	Unique  bool
}

var collections = map[string][]index{
	ProtocolStateCollection:      {{Indexes: map[string]int{}}},
	ShareBalanceCollection:       {{Indexes: map[string]int{}}},
	RewardEventCollection:        {{Indexes: map[string]int{"block_number": 1}}, {Indexes: map[string]int{"state": 1}}},
	OracleReportCollection:       {{Indexes: map[string]int{"epoch_id": 1}}},
	TransferCollection:           {{Indexes: map[string]int{"from": 1}}, {Indexes: map[string]int{"to": 1}}, {Indexes: map[string]int{"block_number": 1}}},
	SubmissionCollection:         {{Indexes: map[string]int{"sender": 1}}},
	WithdrawalCollection:         {{Indexes: map[string]int{"sender": 1}}},
	FeeChangeCollection:          {{Indexes: map[string]int{"block_number": 1}}},
	NodeOperatorFeeCollection:    {{Indexes: map[string]int{"operator": 1}}},
	SharesBurnCollection:         {{Indexes: map[string]int{"account": 1}}},
	SharesTransferCollection:     {{Indexes: map[string]int{"block_number": 1}}},
	ApprovalCollection:           {{Indexes: map[string]int{"owner": 1}}},
	ContactsChangeCollection:     {{Indexes: map[string]int{}}},
	ProtocolStatusCollection:     {{Indexes: map[string]int{}}},
	OracleChangeCollection:       {{Indexes: map[string]int{"change": 1}}},
	ReconciliationCollection:     {{Indexes: map[string]int{}}},
	AnomalyCollection:            {{Indexes: map[string]int{"kind": 1}}},
	HourlyUsageCollection:        {{Indexes: map[string]int{"bucket_start": 1}}},
	DailyUsageCollection:         {{Indexes: map[string]int{"bucket_start": 1}}},
	HolderCollection:             {{Indexes: map[string]int{}}},
	JournalCollection:            {{Indexes: map[string]int{}}},
	LastProcessedBlockCollection: {{Indexes: map[string]int{}}},
}

// Setup creates the collections and their indexes.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(ctx); err != nil {
			log.Error().Err(err).Msg("failed to disconnect from mongo after setup")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	database := client.Database(cfg.DbName)
	for name, idxs := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		for _, idx := range idxs {
			if len(idx.Indexes) == 0 {
				continue
			}
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	log.Info().Msg("Collections and Indexes created successfully.")
	return nil
}

func createCollection(ctx context.Context, database *mongo.Database, name string) error {
	err := database.CreateCollection(ctx, name)
	var cmdErr mongo.CommandError
	// 48 is NamespaceExists
	if err == nil || (errors.As(err, &cmdErr) && cmdErr.Code == 48) {
		return nil
	}
	return fmt.Errorf("failed to create collection %s: %w", name, err)
}

func createIndex(ctx context.Context, database *mongo.Database, collection string, idx index) error {
	keys := bson.D{}
	for field, order := range idx.Indexes {
		keys = append(keys, bson.E{Key: field, Value: order})
	}

	indexModel := mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collection).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collection, err)
	}
	return nil
}
