package output

import (
	"context"
	"fmt"
	"sync"
	"time"

	"git.fiblab.net/general/common/v2/mongoutil"
	"go.mongodb.org/mongo-driver/mongo"
)

const mongoBatchSize = 1000

// MongoSink 将出行记录批量写入MongoDB集合
// 说明：记录先缓存在内存中，达到批量大小或Close时写入
type MongoSink struct {
	client *mongo.Client
	coll   *mongo.Collection

	mtx    sync.Mutex
	buffer []any
}

// NewMongoSink 连接MongoDB并创建输出
func NewMongoSink(uri, db, col string) (*MongoSink, error) {
	if db == "" || col == "" {
		return nil, fmt.Errorf("mongo output: db and col are required")
	}
	client := mongoutil.NewClient(uri)
	return &MongoSink{
		client: client,
		coll:   client.Database(db).Collection(col),
		buffer: make([]any, 0, mongoBatchSize),
	}, nil
}

func (s *MongoSink) Write(r *TripRecord) error {
	s.mtx.Lock()
	s.buffer = append(s.buffer, r)
	if len(s.buffer) < mongoBatchSize {
		s.mtx.Unlock()
		return nil
	}
	batch := s.buffer
	s.buffer = make([]any, 0, mongoBatchSize)
	s.mtx.Unlock()
	return s.flush(batch)
}

func (s *MongoSink) flush(batch []any) error {
	if len(batch) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.coll.InsertMany(ctx, batch); err != nil {
		return fmt.Errorf("insert %d trip records: %w", len(batch), err)
	}
	log.Debugf("flushed %d trip records to %s", len(batch), s.coll.Name())
	return nil
}

// Close 写入剩余记录并断开连接
func (s *MongoSink) Close() error {
	s.mtx.Lock()
	batch := s.buffer
	s.buffer = nil
	s.mtx.Unlock()
	err := s.flush(batch)
	if derr := s.client.Disconnect(context.Background()); err == nil {
		err = derr
	}
	return err
}
