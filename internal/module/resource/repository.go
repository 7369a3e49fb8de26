package resource

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/query"
)

// Record is the lifecycle view of one stored row.
type Record struct {
	ID        string
	DeletedAt *time.Time
	AssetKey  string
}

// State reports whether the record is active or trashed.
func (r Record) State() domain.State {
	if r.DeletedAt == nil {
		return domain.StateActive
	}
	return domain.StateTrashed
}

// Store executes compiled plans and lifecycle mutations.
type Store interface {
	List(ctx context.Context, p query.Plan) ([]domain.Row, error)
	Count(ctx context.Context, c query.CountPlan) (int64, error)
	Lookup(ctx context.Context, d *query.Descriptor, ids []string) ([]Record, error)
	SoftDelete(ctx context.Context, d *query.Descriptor, ids []string, at time.Time) (int64, error)
	Restore(ctx context.Context, d *query.Descriptor, ids []string, at time.Time) (int64, error)
	Purge(ctx context.Context, d *query.Descriptor, ids []string) (int64, error)
	MediaPage(ctx context.Context, view domain.DeleteView, offset, limit int) ([]domain.Media, int64, error)
}

// gormStore implements Store on a GORM connection. Plans are rendered by
// squirrel and executed as raw statements.
type gormStore struct {
	db *gorm.DB
}

// NewStore creates a Store backed by the given GORM database.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// List runs the list plan and returns rows keyed by column id.
func (s *gormStore) List(ctx context.Context, p query.Plan) ([]domain.Row, error) {
	sqlText, args, err := p.SelectSQL()
	if err != nil {
		return nil, domain.NewAppError(domain.CodeInternal, "render list query", err)
	}
	var raw []map[string]any
	if err := s.db.WithContext(ctx).Raw(sqlText, args...).Scan(&raw).Error; err != nil {
		return nil, mapError(err)
	}
	rows := make([]domain.Row, len(raw))
	for i, r := range raw {
		rows[i] = normalizeRow(p.Columns, r)
	}
	return rows, nil
}

// Count runs the reconciled count plan.
func (s *gormStore) Count(ctx context.Context, c query.CountPlan) (int64, error) {
	sqlText, args, err := c.SQL()
	if err != nil {
		return 0, domain.NewAppError(domain.CodeInternal, "render count query", err)
	}
	var total int64
	if err := s.db.WithContext(ctx).Raw(sqlText, args...).Scan(&total).Error; err != nil {
		return 0, mapError(err)
	}
	return total, nil
}

// Lookup loads id, deleted_at and the asset key of the given ids, whatever
// their state. Unknown ids are simply absent from the result.
func (s *gormStore) Lookup(ctx context.Context, d *query.Descriptor, ids []string) ([]Record, error) {
	asset := "''"
	if d.AssetField != "" {
		asset = d.Table + "." + d.AssetField
	}
	var records []Record
	err := s.db.WithContext(ctx).
		Table(d.Table).
		Select("id", "deleted_at", asset+" AS asset_key").
		Where("id IN ?", ids).
		Order("id").
		Scan(&records).Error
	if err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

// SoftDelete stamps deleted_at on the active rows among ids. Rows that are
// already trashed keep their original timestamp.
func (s *gormStore) SoftDelete(ctx context.Context, d *query.Descriptor, ids []string, at time.Time) (int64, error) {
	return s.exec(ctx, sq.Update(d.Table).
		Set("deleted_at", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": ids}).
		Where(sq.Eq{"deleted_at": nil}))
}

// Restore clears deleted_at on the trashed rows among ids.
func (s *gormStore) Restore(ctx context.Context, d *query.Descriptor, ids []string, at time.Time) (int64, error) {
	return s.exec(ctx, sq.Update(d.Table).
		Set("deleted_at", nil).
		Set("updated_at", at).
		Where(sq.Eq{"id": ids}).
		Where(sq.NotEq{"deleted_at": nil}))
}

// Purge removes the trashed rows among ids.
func (s *gormStore) Purge(ctx context.Context, d *query.Descriptor, ids []string) (int64, error) {
	return s.exec(ctx, sq.Delete(d.Table).
		Where(sq.Eq{"id": ids}).
		Where(sq.NotEq{"deleted_at": nil}))
}

// MediaPage returns one page of media in the given view plus the view total.
func (s *gormStore) MediaPage(ctx context.Context, view domain.DeleteView, offset, limit int) ([]domain.Media, int64, error) {
	base := s.db.WithContext(ctx).Model(&domain.Media{})
	if view.State() == domain.StateTrashed {
		base = base.Where("deleted_at IS NOT NULL")
	} else {
		base = base.Where("deleted_at IS NULL")
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, mapError(err)
	}

	items := []domain.Media{}
	if err := base.Order("created_at DESC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, mapError(err)
	}
	return items, total, nil
}

type sqlizer interface {
	ToSql() (string, []any, error)
}

func (s *gormStore) exec(ctx context.Context, b sqlizer) (int64, error) {
	sqlText, args, err := b.ToSql()
	if err != nil {
		return 0, domain.NewAppError(domain.CodeInternal, "render statement", err)
	}
	result := s.db.WithContext(ctx).Exec(sqlText, args...)
	if result.Error != nil {
		return 0, mapError(result.Error)
	}
	return result.RowsAffected, nil
}

// normalizeRow converts driver values into JSON-friendly values according to
// the column kind. Drivers disagree on how they surface text, booleans and
// JSON documents.
func normalizeRow(cols []query.Column, raw map[string]any) domain.Row {
	row := make(domain.Row, len(cols))
	for _, c := range cols {
		v := raw[c.ID]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		switch c.Kind {
		case query.KindJSON:
			v = decodeJSON(v)
		case query.KindBool:
			v = toBool(v)
		case query.KindNumber, query.KindInteger:
			v = toNumber(v)
		}
		row[c.ID] = v
	}
	return row
}

func decodeJSON(v any) any {
	s, ok := v.(string)
	if !ok || s == "" {
		return v
	}
	var out any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	return out
}

func toBool(v any) any {
	switch b := v.(type) {
	case int64:
		return b != 0
	case int:
		return b != 0
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return v
}

func toNumber(v any) any {
	if s, ok := v.(string); ok {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return v
}

// mapError converts GORM errors to domain errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isDuplicateKeyError(err) {
		return domain.NewAppError(domain.CodeAlreadyExists, "already exists", err)
	}
	return domain.NewAppError(domain.CodeInternal, "database error", err)
}

// isDuplicateKeyError detects unique constraint violations by examining the
// error message. Not every dialector translates driver errors to
// gorm.ErrDuplicatedKey (the pure-Go SQLite driver does not).
func isDuplicateKeyError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}
