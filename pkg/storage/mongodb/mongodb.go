/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mongodb is a storage provider keeping each store in its own MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hyperledger/aries-trust-core/internal/storageutil"
	spi "github.com/hyperledger/aries-trust-core/spi/storage"
)

const defaultTimeout = 15 * time.Second

type clientOpts struct {
	timeout time.Duration
}

// ClientOpt configures the provider.
type ClientOpt func(opts *clientOpts)

// WithTimeout bounds every MongoDB call.
func WithTimeout(timeout time.Duration) ClientOpt {
	return func(opts *clientOpts) {
		opts.timeout = timeout
	}
}

// Provider is a MongoDB backed spi.Provider.
type Provider struct {
	client       *mongo.Client
	databaseName string
	timeout      time.Duration
}

// NewProvider connects to MongoDB and uses databaseName for all stores.
func NewProvider(connString, databaseName string, opts ...ClientOpt) (*Provider, error) {
	op := &clientOpts{timeout: defaultTimeout}

	for _, fn := range opts {
		fn(op)
	}

	mongoOpts := mongooptions.Client().ApplyURI(connString)
	mongoOpts.MaxPoolSize = lo.ToPtr(uint64(100))

	ctx, cancel := context.WithTimeout(context.Background(), op.timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, mongoOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	return &Provider{client: client, databaseName: databaseName, timeout: op.timeout}, nil
}

// OpenStore returns the collection backed store for name.
func (p *Provider) OpenStore(name string) (spi.Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}

	return &store{
		coll:    p.client.Database(p.databaseName).Collection(strings.ToLower(name)),
		timeout: p.timeout,
	}, nil
}

// Close disconnects the client.
func (p *Provider) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	return nil
}

type tagDocument struct {
	Name  string `bson:"name"`
	Value string `bson:"value"`
}

type document struct {
	ID    string        `bson:"_id"`
	Value []byte        `bson:"value"`
	Tags  []tagDocument `bson:"tags,omitempty"`
}

type store struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func (s *store) Put(key string, value []byte, tags ...spi.Tag) error {
	doc, err := newDocument(key, value, tags)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, mongooptions.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to run ReplaceOne command in MongoDB: %w", err)
	}

	return nil
}

func (s *store) Insert(key string, value []byte, tags ...spi.Tag) error {
	doc, err := newDocument(key, value, tags)
	if err != nil {
		return err
	}

	ctx, cancel := s.context()
	defer cancel()

	if _, err = s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return spi.ErrDuplicateKey
		}

		return fmt.Errorf("failed to run InsertOne command in MongoDB: %w", err)
	}

	return nil
}

func (s *store) Get(key string) ([]byte, error) {
	doc, err := s.find(key)
	if err != nil {
		return nil, err
	}

	return doc.Value, nil
}

func (s *store) GetTags(key string) ([]spi.Tag, error) {
	doc, err := s.find(key)
	if err != nil {
		return nil, err
	}

	return toTags(doc.Tags), nil
}

func (s *store) Query(expression string) (spi.Iterator, error) {
	name, value, err := spi.ParseQuery(expression)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"tags.name": name}
	if value != "" {
		filter = bson.M{"tags": bson.M{"$elemMatch": bson.M{"name": name, "value": value}}}
	}

	ctx, cancel := s.context()
	defer cancel()

	cursor, err := s.coll.Find(ctx, filter, mongooptions.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to run Find command in MongoDB: %w", err)
	}

	var docs []document
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode MongoDB documents: %w", err)
	}

	entries := lo.Map(docs, func(doc document, _ int) spi.Entry {
		return spi.Entry{Key: doc.ID, Value: doc.Value, Tags: toTags(doc.Tags)}
	})

	return storageutil.NewSliceIterator(entries), nil
}

func (s *store) Delete(key string) error {
	if key == "" {
		return errors.New("key is mandatory")
	}

	ctx, cancel := s.context()
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to run DeleteOne command in MongoDB: %w", err)
	}

	return nil
}

func (s *store) Close() error {
	return nil
}

func (s *store) find(key string) (*document, error) {
	if key == "" {
		return nil, errors.New("key is mandatory")
	}

	ctx, cancel := s.context()
	defer cancel()

	doc := &document{}

	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, spi.ErrDataNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to run FindOne command in MongoDB: %w", err)
	}

	return doc, nil
}

func (s *store) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func newDocument(key string, value []byte, tags []spi.Tag) (*document, error) {
	if key == "" || value == nil {
		return nil, errors.New("key and value are mandatory")
	}

	if err := spi.ValidateTags(tags); err != nil {
		return nil, err
	}

	return &document{
		ID:    key,
		Value: value,
		Tags: lo.Map(tags, func(tag spi.Tag, _ int) tagDocument {
			return tagDocument{Name: tag.Name, Value: tag.Value}
		}),
	}, nil
}

func toTags(docs []tagDocument) []spi.Tag {
	if len(docs) == 0 {
		return nil
	}

	return lo.Map(docs, func(doc tagDocument, _ int) spi.Tag {
		return spi.Tag{Name: doc.Name, Value: doc.Value}
	})
}
