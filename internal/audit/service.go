package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restoran-web/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrLogNotFound   = errors.New("audit log not found")
	ErrAlreadyUndone = errors.New("change was already undone")
	ErrNotUndoable   = errors.New("this action cannot be undone")
	ErrUnknownEntity = errors.New("unknown entity type")
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

// Reverter rebuilds rows of one entity type from their logged JSON images.
type Reverter interface {
	Delete(tx *gorm.DB, id uint) error
	Restore(tx *gorm.DB, id uint, image []byte) error
	Recreate(tx *gorm.DB, image []byte) error
}

// Resolver finds the Reverter for an entity type.
type Resolver func(entityType string) (Reverter, bool)

// Chain tries each resolver in turn.
func Chain(resolvers ...Resolver) Resolver {
	return func(entityType string) (Reverter, bool) {
		for _, r := range resolvers {
			if rev, ok := r(entityType); ok {
				return rev, true
			}
		}
		return nil, false
	}
}

type Recorder struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// Write stores one audit entry using tx, so it commits or rolls back with
// the change it describes.
func (r *Recorder) Write(tx *gorm.DB, opts LogOptions) (*models.AuditLog, error) {
	entry := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  toJSON(opts.Before),
		AfterData:   toJSON(opts.After),
	}
	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("write audit log: %w", err)
	}
	return &entry, nil
}

// jsonb columns need the literal null rather than an empty string.
func toJSON(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	if raw, ok := v.(datatypes.JSON); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

type ListFilter struct {
	EntityType string
	EntityID   uint
	UserID     uint
	Limit      int
	Offset     int
}

func (r *Recorder) List(ctx context.Context, f ListFilter) ([]models.AuditLog, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if f.EntityType != "" {
		q = q.Where("entity_type = ?", f.EntityType)
	}
	if f.EntityID > 0 {
		q = q.Where("entity_id = ?", f.EntityID)
	}
	if f.UserID > 0 {
		q = q.Where("user_id = ?", f.UserID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.AuditLog
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(f.Offset).Find(&logs).Error
	return logs, total, err
}

// Undo reverts a logged change: a create is deleted, an update gets its
// before image back and a delete is recreated. The original entry is marked
// undone and an undo entry is written, all in one transaction.
func (r *Recorder) Undo(ctx context.Context, logID, userID uint, userName string, resolve Resolver) (*models.AuditLog, error) {
	var undoEntry *models.AuditLog
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.AuditLog
		if err := tx.First(&entry, logID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLogNotFound
			}
			return err
		}
		if entry.IsUndone {
			return ErrAlreadyUndone
		}

		rev, ok := resolve(entry.EntityType)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEntity, entry.EntityType)
		}

		var err error
		switch entry.Action {
		case models.AuditActionCreate:
			err = rev.Delete(tx, entry.EntityID)
		case models.AuditActionUpdate:
			err = rev.Restore(tx, entry.EntityID, entry.BeforeData)
		case models.AuditActionDelete:
			err = rev.Recreate(tx, entry.BeforeData)
		default:
			return ErrNotUndoable
		}
		if err != nil {
			return fmt.Errorf("revert %s #%d: %w", entry.EntityType, entry.EntityID, err)
		}

		now := r.now()
		entry.IsUndone = true
		entry.UndoneBy = &userID
		entry.UndoneAt = &now
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}

		undoEntry, err = r.Write(tx, LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  entry.EntityType,
			EntityID:    entry.EntityID,
			Action:      models.AuditActionUndo,
			Description: "Undo: " + entry.Description,
			Before:      entry.AfterData,
			After:       entry.BeforeData,
		})
		if err != nil {
			return err
		}
		undoEntry.Undone = true
		return tx.Model(undoEntry).Update("undone", true).Error
	})
	if err != nil {
		return nil, err
	}
	return undoEntry, nil
}
