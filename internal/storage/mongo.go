package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"kinotut-bot/internal/catalog"
)

const catalogDocID = "catalog"

// Mongo keeps the catalog as a single document in the `catalog` collection.
type Mongo struct {
	client *mongo.Client
	col    *mongo.Collection
}

type catalogRecord struct {
	ID        string          `bson:"_id"`
	Genres    []string        `bson:"genres"`
	Movies    []catalog.Movie `bson:"movies"`
	UpdatedAt time.Time       `bson:"updated_at"`
}

func NewMongo(ctx context.Context, uri string, database string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("MONGODB_URI is empty")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	col := client.Database(database).Collection("catalog")
	return &Mongo{client: client, col: col}, nil
}

func (m *Mongo) Load(ctx context.Context) (*catalog.Document, error) {
	var rec catalogRecord
	err := m.col.FindOne(ctx, bson.M{"_id": catalogDocID}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	doc := &catalog.Document{Genres: rec.Genres, Movies: rec.Movies}
	normalize(doc)
	return doc, nil
}

func (m *Mongo) Save(ctx context.Context, doc *catalog.Document) error {
	rec := catalogRecord{ID: catalogDocID, Genres: doc.Genres, Movies: doc.Movies, UpdatedAt: time.Now()}
	if rec.Genres == nil {
		rec.Genres = []string{}
	}
	if rec.Movies == nil {
		rec.Movies = []catalog.Movie{}
	}
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": catalogDocID}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// Init inserts an empty catalog unless one is stored already.
func (m *Mongo) Init(ctx context.Context) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"_id": catalogDocID},
		bson.M{"$setOnInsert": bson.M{
			"genres":     []string{},
			"movies":     []catalog.Movie{},
			"updated_at": time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
