package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChangesChannel is the redis channel SQL stores announce writes on.
const ChangesChannel = "technofest:store:changes"

// Document is one record of the SQL backend.
type Document struct {
	Collection string `gorm:"primaryKey;size:64"`
	Key        string `gorm:"primaryKey;size:64"`
	Data       []byte `gorm:"type:json;not null"`
	UpdatedAt  time.Time
}

// Broker carries change announcements between server instances.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) <-chan []byte
}

// SQL stores records as rows of a documents table. Writes are announced on a
// Broker so subscribers on every instance reload.
type SQL struct {
	db     *gorm.DB
	broker Broker
	feed   *feed
	now    func() time.Time
	cancel context.CancelFunc
}

// NewSQL wraps db and starts listening for changes announced by other
// instances. broker may be nil for a single instance.
func NewSQL(db *gorm.DB, broker Broker) *SQL {
	ctx, cancel := context.WithCancel(context.Background())
	s := &SQL{db: db, broker: broker, feed: newFeed(), now: time.Now, cancel: cancel}
	if broker != nil {
		go s.listen(ctx)
	}
	return s
}

// Migrate creates the documents table.
func (s *SQL) Migrate() error {
	return s.db.AutoMigrate(&Document{})
}

func (s *SQL) listen(ctx context.Context) {
	for payload := range s.broker.Subscribe(ctx, ChangesChannel) {
		s.feed.notify(string(payload))
	}
}

func (s *SQL) changed(ctx context.Context, collection string) {
	s.feed.notify(collection)
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, ChangesChannel, []byte(collection)); err != nil {
		slog.Warn("publish store change", slog.String("collection", collection), slog.Any("error", err))
	}
}

func (s *SQL) Subscribe(ctx context.Context, collection string) (<-chan Snapshot, error) {
	return s.feed.subscribe(ctx, collection, func(ctx context.Context) (Snapshot, error) {
		return s.Once(ctx, collection)
	})
}

func (s *SQL) Once(ctx context.Context, collection string) (Snapshot, error) {
	var docs []Document
	if err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("`key` ASC").
		Find(&docs).Error; err != nil {
		return Snapshot{}, fmt.Errorf("scan %s: %w", collection, err)
	}

	snap := Snapshot{Collection: collection, Children: make([]Child, 0, len(docs))}
	for _, d := range docs {
		v, err := Decode(d.Data)
		if err != nil {
			return Snapshot{}, fmt.Errorf("scan %s/%s: %w", collection, d.Key, err)
		}
		snap.Children = append(snap.Children, Child{Key: d.Key, Value: v})
	}
	return snap, nil
}

func (s *SQL) find(ctx context.Context, tx *gorm.DB, collection, key string) (Value, error) {
	var doc Document
	err := tx.WithContext(ctx).
		Where("collection = ? AND `key` = ?", collection, key).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, key, err)
	}
	return Decode(doc.Data)
}

func (s *SQL) Get(ctx context.Context, collection, key string) (Value, error) {
	return s.find(ctx, s.db, collection, key)
}

func (s *SQL) save(ctx context.Context, tx *gorm.DB, collection, key string, v Value) error {
	raw, err := Encode(v)
	if err != nil {
		return err
	}
	doc := Document{Collection: collection, Key: key, Data: raw, UpdatedAt: s.now()}
	return tx.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&doc).Error
}

func (s *SQL) Set(ctx context.Context, collection, key string, v Value) error {
	if err := s.save(ctx, s.db, collection, key, resolve(v, s.now())); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	s.changed(ctx, collection)
	return nil
}

func (s *SQL) Update(ctx context.Context, collection, key string, patch Value) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.find(ctx, tx, collection, key)
		if err != nil {
			return err
		}
		return s.save(ctx, tx, collection, key, merge(current, patch, s.now()))
	})
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, key, err)
	}
	s.changed(ctx, collection)
	return nil
}

func (s *SQL) Remove(ctx context.Context, collection, key string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND `key` = ?", collection, key).
		Delete(&Document{})
	if res.Error != nil {
		return fmt.Errorf("remove %s/%s: %w", collection, key, res.Error)
	}
	if res.RowsAffected > 0 {
		s.changed(ctx, collection)
	}
	return nil
}

func (s *SQL) Push(ctx context.Context, collection string, v Value) (string, error) {
	key, err := NewPushKey()
	if err != nil {
		return "", err
	}
	if err := s.Set(ctx, collection, key, v); err != nil {
		return "", err
	}
	return key, nil
}

// Close stops the change listener. The gorm connection is owned by the caller.
func (s *SQL) Close() error {
	s.cancel()
	return nil
}
