package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/entities"
	domainerrors "github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/domain/errors"
	"github.com/xshalabs/xsha-sub005/contexts/platform-operations/event-distribution/ports"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
	replayBatchSize  = 100
)

// Store is the postgres-backed event log. Rows are append-only: inserted on
// publish, deleted only by retention cleanup, never updated.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStore(db *gorm.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger,
	}
}

func (s *Store) Save(ctx context.Context, event entities.Event) error {
	if event == nil {
		return domainerrors.ErrNilEvent
	}

	payloadJSON, err := json.Marshal(event.EventPayload())
	if err != nil {
		return fmt.Errorf("serialize event payload: %w", err)
	}
	metadataJSON, err := json.Marshal(event.EventMetadata())
	if err != nil {
		return fmt.Errorf("serialize event metadata: %w", err)
	}

	row := eventModel{
		EventID:     event.EventID(),
		EventType:   event.EventType(),
		Timestamp:   event.OccurredAt().UTC(),
		PayloadJSON: string(payloadJSON),
		Metadata:    string(metadataJSON),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			// One row per envelope identity; a redelivered id is a no-op.
			s.logger.Debug("event already persisted",
				"event", "event_store_duplicate",
				"module", "platform-operations/event-distribution",
				"layer", "adapter",
				"event_id", event.EventID(),
			)
			return nil
		}
		return fmt.Errorf("insert event row: %w", err)
	}
	return nil
}

func (s *Store) GetByID(ctx context.Context, id string) (entities.StoredEvent, error) {
	var row eventModel
	err := s.db.WithContext(ctx).
		Where("event_id = ?", id).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.StoredEvent{}, domainerrors.ErrEventNotFound
		}
		return entities.StoredEvent{}, err
	}
	return row.toEntity(), nil
}

func (s *Store) GetByType(ctx context.Context, eventType string, limit, offset int) ([]entities.StoredEvent, error) {
	tx := s.db.WithContext(ctx).Where("event_type = ?", eventType)
	return s.page(tx, limit, offset)
}

func (s *Store) GetByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]entities.StoredEvent, error) {
	tx := s.db.WithContext(ctx).Where("timestamp >= ? AND timestamp <= ?", from.UTC(), to.UTC())
	return s.page(tx, limit, offset)
}

func (s *Store) GetByTypeAndTimeRange(ctx context.Context, eventType string, from, to time.Time, limit, offset int) ([]entities.StoredEvent, error) {
	tx := s.db.WithContext(ctx).
		Where("event_type = ? AND timestamp >= ? AND timestamp <= ?", eventType, from.UTC(), to.UTC())
	return s.page(tx, limit, offset)
}

func (s *Store) Replay(ctx context.Context, from time.Time, handler ports.ReplayHandler) error {
	return s.replay(ctx, "", from, handler)
}

func (s *Store) ReplayByType(ctx context.Context, eventType string, from time.Time, handler ports.ReplayHandler) error {
	return s.replay(ctx, eventType, from, handler)
}

// replay pages through storage oldest-first in fixed-size batches, invoking
// the handler per stored event. The first handler or fetch error aborts the
// replay at that point.
func (s *Store) replay(ctx context.Context, eventType string, from time.Time, handler ports.ReplayHandler) error {
	offset := 0
	for {
		tx := s.db.WithContext(ctx).Where("timestamp >= ?", from.UTC())
		if eventType != "" {
			tx = tx.Where("event_type = ?", eventType)
		}

		var rows []eventModel
		if err := tx.
			Order("timestamp ASC, event_id ASC").
			Offset(offset).
			Limit(replayBatchSize).
			Find(&rows).
			Error; err != nil {
			return fmt.Errorf("fetch replay batch at offset %d: %w", offset, err)
		}
		if len(rows) == 0 {
			return nil
		}

		for _, row := range rows {
			if err := handler(ctx, row.toEntity()); err != nil {
				return err
			}
		}
		if len(rows) < replayBatchSize {
			return nil
		}
		offset += replayBatchSize
	}
}

func (s *Store) CleanupOldEvents(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("timestamp < ?", before.UTC()).
		Delete(&eventModel{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (s *Store) CountByType(ctx context.Context, eventType string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&eventModel{}).
		Where("event_type = ?", eventType).
		Count(&count).
		Error
	return count, err
}

func (s *Store) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&eventModel{}).
		Where("timestamp >= ? AND timestamp <= ?", from.UTC(), to.UTC()).
		Count(&count).
		Error
	return count, err
}

// page runs a filtered query with newest-first ordering and clamped limits.
func (s *Store) page(tx *gorm.DB, limit, offset int) ([]entities.StoredEvent, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	var rows []eventModel
	if err := tx.
		Order("timestamp DESC, event_id DESC").
		Offset(offset).
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]entities.StoredEvent, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

type eventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	EventType   string    `gorm:"column:event_type;index"`
	Timestamp   time.Time `gorm:"column:timestamp;index"`
	PayloadJSON string    `gorm:"column:payload_json"`
	Metadata    string    `gorm:"column:metadata"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (eventModel) TableName() string {
	return "event_log"
}

func (m eventModel) toEntity() entities.StoredEvent {
	// Payload decodes to whatever the serialized form holds; with the
	// concrete kind unknown at read time that is an untyped map.
	var payload any
	if m.PayloadJSON != "" {
		_ = json.Unmarshal([]byte(m.PayloadJSON), &payload)
	}
	metadata := map[string]string{}
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata)
	}
	return entities.StoredEvent{
		ID:        m.EventID,
		Type:      m.EventType,
		Timestamp: m.Timestamp.UTC(),
		Payload:   payload,
		Metadata:  metadata,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
