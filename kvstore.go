package main

import (
	"log"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KV is the textual key-value collaborator the review state is persisted through.
// Set is fire-and-forget: failures are logged, never returned.
type KV interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// DBKV stores entries in the kv_entries table under one namespace (a browser identity).
type DBKV struct {
	db        *gorm.DB
	namespace string
}

func NewDBKV(db *gorm.DB, namespace string) *DBKV {
	return &DBKV{db: db, namespace: namespace}
}

func (s *DBKV) Get(key string) (string, bool) {
	var e KVEntry
	// absent is the normal case for a new namespace; Find does not log it as an error
	res := s.db.Where("namespace = ? AND entry_key = ?", s.namespace, key).Limit(1).Find(&e)
	if res.Error != nil {
		log.Printf("kv get %s/%s: %v", s.namespace, key, res.Error)
		return "", false
	}
	if res.RowsAffected == 0 {
		return "", false
	}
	return e.Value, true
}

func (s *DBKV) Set(key, value string) {
	e := KVEntry{Namespace: s.namespace, Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		log.Printf("kv set %s/%s: %v", s.namespace, key, err)
	}
}

// MemKV keeps entries in process memory.
type MemKV struct {
	mu sync.Mutex
	m  map[string]string
}

func NewMemKV() *MemKV {
	return &MemKV{m: map[string]string{}}
}

func (s *MemKV) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok
}

func (s *MemKV) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
}
