package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"playbackengine/internal/domain"
)

// Catalog persists the playable versions known per title. One document
// per title, versions embedded: version lists are small and always read
// together.
type Catalog struct {
	collection *mongo.Collection
}

type trackDoc struct {
	ID               int    `bson:"id"`
	Kind             string `bson:"kind"`
	Label            string `bson:"label"`
	Language         string `bson:"language,omitempty"`
	Codec            string `bson:"codec,omitempty"`
	Forced           bool   `bson:"forced,omitempty"`
	Default          bool   `bson:"default,omitempty"`
	HearingImpaired  bool   `bson:"hearingImpaired,omitempty"`
	AudioDescription bool   `bson:"audioDescription,omitempty"`
}

type techDoc struct {
	WidthPx           int     `bson:"widthPx,omitempty"`
	HeightPx          int     `bson:"heightPx,omitempty"`
	ResolutionHint    string  `bson:"resolutionHint,omitempty"`
	VideoCodec        string  `bson:"videoCodec,omitempty"`
	VideoProfile      string  `bson:"videoProfile,omitempty"`
	AudioCodec        string  `bson:"audioCodec,omitempty"`
	AudioProfile      string  `bson:"audioProfile,omitempty"`
	AudioChannelCount int     `bson:"audioChannelCount,omitempty"`
	BitrateKbps       int     `bson:"bitrateKbps,omitempty"`
	ContainerFormat   string  `bson:"containerFormat,omitempty"`
	FileSizeMB        float64 `bson:"fileSizeMB,omitempty"`
	HDR               string  `bson:"hdr,omitempty"`
}

type versionDoc struct {
	ID             string     `bson:"id"`
	Label          string     `bson:"label"`
	URI            string     `bson:"uri"`
	AudioTracks    []trackDoc `bson:"audioTracks,omitempty"`
	SubtitleTracks []trackDoc `bson:"subtitleTracks,omitempty"`
	Tech           techDoc    `bson:"tech"`
}

type titleDoc struct {
	ID        string       `bson:"_id"`
	Versions  []versionDoc `bson:"versions"`
	UpdatedAt int64        `bson:"updatedAt"`
}

func NewCatalog(client *mongo.Client, dbName string) *Catalog {
	return &Catalog{collection: client.Database(dbName).Collection("titles")}
}

func Connect(ctx context.Context, uri string, extra ...*options.ClientOptions) (*mongo.Client, error) {
	opts := append([]*options.ClientOptions{options.Client().ApplyURI(uri)}, extra...)
	client, err := mongo.Connect(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Catalog) EnsureIndexes(ctx context.Context) error {
	if r == nil || r.collection == nil {
		return nil
	}
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "updatedAt", Value: -1}}},
		{Keys: bson.D{{Key: "versions.id", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, models)
	return err
}

func (r *Catalog) Get(ctx context.Context, titleID string) ([]domain.Version, error) {
	var doc titleDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": titleID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return versionsFromDocs(doc.Versions), nil
}

func (r *Catalog) Put(ctx context.Context, titleID string, versions []domain.Version) error {
	update := bson.M{
		"$set": bson.M{
			"versions":  versionsToDocs(versions),
			"updatedAt": time.Now().UTC().Unix(),
		},
	}
	_, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": titleID},
		update,
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *Catalog) Delete(ctx context.Context, titleID string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": titleID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func versionsToDocs(versions []domain.Version) []versionDoc {
	docs := make([]versionDoc, 0, len(versions))
	for _, v := range versions {
		docs = append(docs, versionDoc{
			ID:             string(v.ID),
			Label:          v.Label,
			URI:            v.URI,
			AudioTracks:    tracksToDocs(v.AudioTracks),
			SubtitleTracks: tracksToDocs(v.SubtitleTracks),
			Tech: techDoc{
				WidthPx:           v.Tech.WidthPx,
				HeightPx:          v.Tech.HeightPx,
				ResolutionHint:    v.Tech.ResolutionHint,
				VideoCodec:        v.Tech.VideoCodec,
				VideoProfile:      v.Tech.VideoProfile,
				AudioCodec:        v.Tech.AudioCodec,
				AudioProfile:      v.Tech.AudioProfile,
				AudioChannelCount: v.Tech.AudioChannelCount,
				BitrateKbps:       v.Tech.BitrateKbps,
				ContainerFormat:   v.Tech.ContainerFormat,
				FileSizeMB:        v.Tech.FileSizeMB,
				HDR:               v.Tech.HDR,
			},
		})
	}
	return docs
}

func versionsFromDocs(docs []versionDoc) []domain.Version {
	versions := make([]domain.Version, 0, len(docs))
	for _, doc := range docs {
		versions = append(versions, domain.Version{
			ID:             domain.VersionID(doc.ID),
			Label:          doc.Label,
			URI:            doc.URI,
			AudioTracks:    tracksFromDocs(doc.AudioTracks),
			SubtitleTracks: tracksFromDocs(doc.SubtitleTracks),
			Tech: domain.TechDescriptor{
				WidthPx:           doc.Tech.WidthPx,
				HeightPx:          doc.Tech.HeightPx,
				ResolutionHint:    doc.Tech.ResolutionHint,
				VideoCodec:        doc.Tech.VideoCodec,
				VideoProfile:      doc.Tech.VideoProfile,
				AudioCodec:        doc.Tech.AudioCodec,
				AudioProfile:      doc.Tech.AudioProfile,
				AudioChannelCount: doc.Tech.AudioChannelCount,
				BitrateKbps:       doc.Tech.BitrateKbps,
				ContainerFormat:   doc.Tech.ContainerFormat,
				FileSizeMB:        doc.Tech.FileSizeMB,
				HDR:               doc.Tech.HDR,
			},
		})
	}
	return versions
}

func tracksToDocs(tracks []domain.Track) []trackDoc {
	docs := make([]trackDoc, 0, len(tracks))
	for _, t := range tracks {
		docs = append(docs, trackDoc{
			ID:               t.ID,
			Kind:             string(t.Kind),
			Label:            t.Label,
			Language:         t.Language,
			Codec:            t.Codec,
			Forced:           t.Flags.Forced,
			Default:          t.Flags.Default,
			HearingImpaired:  t.Flags.HearingImpaired,
			AudioDescription: t.Flags.AudioDescription,
		})
	}
	return docs
}

func timeFromUnix(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func tracksFromDocs(docs []trackDoc) []domain.Track {
	if len(docs) == 0 {
		return nil
	}
	tracks := make([]domain.Track, 0, len(docs))
	for _, doc := range docs {
		tracks = append(tracks, domain.Track{
			ID:       doc.ID,
			Kind:     domain.TrackKind(doc.Kind),
			Label:    doc.Label,
			Language: doc.Language,
			Codec:    doc.Codec,
			Flags: domain.TrackFlags{
				Forced:           doc.Forced,
				Default:          doc.Default,
				HearingImpaired:  doc.HearingImpaired,
				AudioDescription: doc.AudioDescription,
			},
		})
	}
	return tracks
}
