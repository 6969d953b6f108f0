package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"playbackengine/internal/domain"
)

type watchPositionDoc struct {
	ID        string  `bson:"_id"`
	TitleID   string  `bson:"titleId"`
	VersionID string  `bson:"versionId"`
	Position  float64 `bson:"position"`
	Duration  float64 `bson:"duration"`
	TitleName string  `bson:"titleName,omitempty"`
	UpdatedAt int64   `bson:"updatedAt"`
}

// WatchHistoryRepository keeps one resume document per (title, version)
// pair, so switching versions never clobbers progress in the other.
type WatchHistoryRepository struct {
	collection *mongo.Collection
}

func NewWatchHistoryRepository(client *mongo.Client, dbName string) *WatchHistoryRepository {
	return &WatchHistoryRepository{collection: client.Database(dbName).Collection("watch_history")}
}

func (r *WatchHistoryRepository) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "titleId", Value: 1}}},
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func watchDocID(titleID string, versionID domain.VersionID) string {
	return titleID + ":" + string(versionID)
}

func (r *WatchHistoryRepository) Upsert(ctx context.Context, wp domain.WatchPosition) error {
	update := bson.M{
		"$set": bson.M{
			"titleId":   wp.TitleID,
			"versionId": string(wp.VersionID),
			"position":  wp.Position,
			"duration":  wp.Duration,
			"titleName": wp.TitleName,
			"updatedAt": wp.UpdatedAt.Unix(),
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": watchDocID(wp.TitleID, wp.VersionID)},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *WatchHistoryRepository) Get(ctx context.Context, titleID string, versionID domain.VersionID) (domain.WatchPosition, error) {
	var doc watchPositionDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": watchDocID(titleID, versionID)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.WatchPosition{}, domain.ErrNotFound
		}
		return domain.WatchPosition{}, err
	}
	return watchPositionFromDoc(doc), nil
}

func (r *WatchHistoryRepository) ListRecent(ctx context.Context, limit int) ([]domain.WatchPosition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []watchPositionDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.WatchPosition, 0, len(docs))
	for _, doc := range docs {
		out = append(out, watchPositionFromDoc(doc))
	}
	return out, nil
}

func watchPositionFromDoc(doc watchPositionDoc) domain.WatchPosition {
	return domain.WatchPosition{
		TitleID:   doc.TitleID,
		VersionID: domain.VersionID(doc.VersionID),
		Position:  doc.Position,
		Duration:  doc.Duration,
		TitleName: doc.TitleName,
		UpdatedAt: timeFromUnix(doc.UpdatedAt),
	}
}
