package db

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stakewatch/lido-ledger-indexer/internal/db/model"
	"github.com/stakewatch/lido-ledger-indexer/internal/types"
)

// SaveChangeset first stores the whole changeset as one journal document,
// then replays it as upserts and finally drops the journal. A single document
// write is atomic, so a crash leaves either no journal (nothing happened) or
// a complete one that RecoverJournal replays.
func (db *Database) SaveChangeset(ctx context.Context, cs *types.Changeset) error {
	writes, err := model.ChangesetWrites(cs)
	if err != nil {
		return err
	}

	journal := &model.JournalDocument{
		ID:       model.PendingJournalID,
		Block:    cs.Position.Block,
		TxIndex:  cs.Position.TxIndex,
		LogIndex: cs.Position.LogIndex,
		Writes:   writes,
	}
	_, err = db.collection(model.JournalCollection).ReplaceOne(
		ctx, bson.M{"_id": model.PendingJournalID}, journal, options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to write journal at %s: %w", cs.Position, err)
	}

	return db.applyJournal(ctx, journal)
}

func (db *Database) RecoverJournal(ctx context.Context) (bool, error) {
	var journal model.JournalDocument
	found, err := db.findByID(ctx, model.JournalCollection, model.PendingJournalID, &journal)
	if err != nil || !found {
		return false, err
	}

	if err := db.applyJournal(ctx, &journal); err != nil {
		return false, err
	}
	return true, nil
}

func (db *Database) applyJournal(ctx context.Context, journal *model.JournalDocument) error {
	for _, w := range journal.Writes {
		_, err := db.collection(w.Collection).ReplaceOne(
			ctx, bson.M{"_id": w.ID}, w.Doc, options.Replace().SetUpsert(true),
		)
		if err != nil {
			var writeErr mongo.WriteException
			if errors.As(err, &writeErr) && writeErr.HasErrorCode(11000) {
				return &DuplicateKeyError{
					Key:     w.Collection + "/" + w.ID,
					Message: "duplicate key while applying journal",
				}
			}
			return fmt.Errorf("failed to write %s/%s: %w", w.Collection, w.ID, err)
		}
	}

	_, err := db.collection(model.JournalCollection).DeleteOne(ctx, bson.M{"_id": model.PendingJournalID})
	return err
}
