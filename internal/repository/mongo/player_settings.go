package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const playerSettingsID = "player"

type playerSettingsDoc struct {
	ID                string            `bson:"_id"`
	Autoplay          *bool             `bson:"autoplay,omitempty"`
	PreferredVersions map[string]string `bson:"preferredVersions,omitempty"`
	UpdatedAt         int64             `bson:"updatedAt"`
}

// PlayerSettingsRepository stores player preferences in a single fixed
// settings document, keyed alongside the other settings documents in the
// shared collection.
type PlayerSettingsRepository struct {
	collection *mongo.Collection
}

func NewPlayerSettingsRepository(client *mongo.Client, dbName string) *PlayerSettingsRepository {
	return &PlayerSettingsRepository{collection: client.Database(dbName).Collection("settings")}
}

func (r *PlayerSettingsRepository) GetPreferredVersion(ctx context.Context, titleID string) (string, bool, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return "", false, err
	}
	pref, ok := doc.PreferredVersions[titleID]
	return pref, ok && pref != "", nil
}

func (r *PlayerSettingsRepository) SetPreferredVersion(ctx context.Context, titleID, versionRef string) error {
	update := bson.M{
		"$set": bson.M{
			"preferredVersions." + titleID: versionRef,
			"updatedAt":                    time.Now().Unix(),
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": playerSettingsID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *PlayerSettingsRepository) GetAutoplay(ctx context.Context) (bool, bool, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return false, false, err
	}
	if doc.Autoplay == nil {
		return false, false, nil
	}
	return *doc.Autoplay, true, nil
}

func (r *PlayerSettingsRepository) SetAutoplay(ctx context.Context, enabled bool) error {
	update := bson.M{
		"$set": bson.M{
			"autoplay":  enabled,
			"updatedAt": time.Now().Unix(),
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": playerSettingsID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *PlayerSettingsRepository) load(ctx context.Context) (playerSettingsDoc, error) {
	var doc playerSettingsDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": playerSettingsID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return playerSettingsDoc{}, nil
		}
		return playerSettingsDoc{}, err
	}
	return doc, nil
}
