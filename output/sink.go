package output

import (
	"errors"
	"sync"
)

// Sink 出行记录的输出目标
// 说明：Write可被多个协程并发调用
type Sink interface {
	Write(r *TripRecord) error
	Close() error
}

// LogSink 以日志输出出行记录
type LogSink struct{}

func (LogSink) Write(r *TripRecord) error {
	log.Infof("trip end: %v", r)
	return nil
}

func (LogSink) Close() error { return nil }

// MemorySink 在内存中保存出行记录
type MemorySink struct {
	mtx     sync.Mutex
	records []*TripRecord
}

func (s *MemorySink) Write(r *TripRecord) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.records = append(s.records, r)
	return nil
}

func (s *MemorySink) Close() error { return nil }

// Records 已写入的记录（副本）
func (s *MemorySink) Records() []*TripRecord {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return append([]*TripRecord{}, s.records...)
}

// MultiSink 同时写入多个输出目标，单个目标失败不影响其余目标
type MultiSink []Sink

func (m MultiSink) Write(r *TripRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
