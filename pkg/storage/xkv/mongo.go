package xkv

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// mongoDocument 是每个 key 对应的文档结构。
type mongoDocument struct {
	ID    string `bson:"_id"`
	Value []byte `bson:"value"`
}

// mongoStore 基于 MongoDB 集合的存储实现。
type mongoStore struct {
	coll   *mongo.Collection
	closed atomic.Bool
}

// NewMongo 创建 MongoDB 存储。
// 每个 key 对应集合中 _id 为该 key 的一个文档。
//
// 集合所属客户端的生命周期由调用方管理，Close 不会断开连接。
func NewMongo(coll *mongo.Collection) (Store, error) {
	if coll == nil {
		return nil, ErrNilClient
	}
	return &mongoStore{coll: coll}, nil
}

func (s *mongoStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := s.check(ctx, key); err != nil {
		return nil, err
	}
	var doc mongoDocument
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("xkv: mongo find %q: %w", key, err)
	}
	return doc.Value, nil
}

func (s *mongoStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: key}},
		mongoDocument{ID: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("xkv: mongo upsert %q: %w", key, err)
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, key string) error {
	if err := s.check(ctx, key); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return fmt.Errorf("xkv: mongo delete %q: %w", key, err)
	}
	return nil
}

func (s *mongoStore) Keys(ctx context.Context) (keys []string, err error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cursor, err := s.coll.Find(ctx, bson.D{}, options.Find().SetProjection(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("xkv: mongo list keys: %w", err)
	}
	defer func() {
		err = errors.Join(err, cursor.Close(context.WithoutCancel(ctx)))
	}()

	for cursor.Next(ctx) {
		// 集合中可能存在非字符串 _id 的文档（不是由本存储写入的），跳过
		if id, ok := cursor.Current.Lookup("_id").StringValueOK(); ok {
			keys = append(keys, id)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("xkv: mongo iterate keys: %w", err)
	}
	return keys, nil
}

func (s *mongoStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	return nil
}

func (s *mongoStore) check(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return checkKey(ctx, key)
}
