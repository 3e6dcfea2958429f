package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Istiyak4099/Airdrop/models"
)

const mongoCollection = "documents"

// MongoStore keeps every document in a single collection keyed by path.
// Field values are stored under "data" so merge writes can $set individual keys.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	logger *slog.Logger
}

type mongoRow struct {
	ID   string   `bson:"_id"`
	Data bson.Raw `bson:"data"`
}

type bsonDocument struct {
	ref Ref
	raw bson.Raw
}

func (d bsonDocument) Ref() Ref { return d.ref }

func (d bsonDocument) Decode(dst any) error {
	return bson.Unmarshal(d.raw, dst)
}

// NewMongoStore connects, pings and ensures the parent index exists.
func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(database).Collection(mongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parent", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create parent index: %w", err)
	}

	logger.Info("connected to mongo", "database", database)
	return &MongoStore{client: client, coll: coll, logger: logger}, nil
}

func (s *MongoStore) GetDoc(ctx context.Context, ref Ref, dst any) error {
	var row mongoRow
	err := s.coll.FindOne(ctx, bson.M{"_id": string(ref)}).Decode(&row)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", ref, err)
	}
	if err := bson.Unmarshal(row.Data, dst); err != nil {
		return malformed(ref, err)
	}
	return nil
}

func (s *MongoStore) SetDoc(ctx context.Context, ref Ref, data map[string]any, opts ...SetOption) error {
	if err := ref.validate(); err != nil {
		return err
	}
	now := time.Now().UTC()

	if applySetOptions(opts).merge {
		set := bson.M{"parent": ref.Parent(), "updatedAt": now}
		for k, v := range data {
			set["data."+k] = v
		}
		_, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": string(ref)},
			bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("merge %s: %w", ref, err)
		}
		return nil
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": string(ref)},
		bson.M{"_id": string(ref), "parent": ref.Parent(), "data": data, "createdAt": now, "updatedAt": now},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	return nil
}

func (s *MongoStore) AddDoc(ctx context.Context, collection string, data map[string]any) (Ref, error) {
	ref, withID := newDocument(collection, data)
	if err := s.SetDoc(ctx, ref, withID); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *MongoStore) ListDocs(ctx context.Context, collection, orderField string, order Order, limit int) ([]Document, error) {
	dir := 1
	if order == Descending {
		dir = -1
	}
	findOpts := options.Find().SetSort(bson.D{
		{Key: "data." + orderField, Value: dir},
		{Key: "createdAt", Value: dir},
	})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cur, err := s.coll.Find(ctx, bson.M{"parent": collection}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	var docs []Document
	for cur.Next(ctx) {
		var row mongoRow
		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		docs = append(docs, bsonDocument{ref: Ref(row.ID), raw: row.Data})
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *MongoStore) QueryMessages(ctx context.Context, conversation Ref, limit int, order Order) ([]models.Message, error) {
	return queryMessages(ctx, s, conversation, limit, order)
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
