package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"ContentCurator/internal/domain"
	"ContentCurator/internal/ports"
)

const table = "content_items"

var itemColumns = []string{
	"id", "title", "content", "source", "category", "url", "published_date", "created_at",
	"is_active", "compliance_status", "engagement_metrics", "content_hash", "approval_timestamp", "priority",
}

// SQLRepository persists content items into SQLite or Postgres.
type SQLRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var _ ports.ContentRepository = (*SQLRepository)(nil)

// NewSQLRepository wires a sql.DB for the given dialect.
func NewSQLRepository(db *sql.DB, dialect Dialect) *SQLRepository {
	return &SQLRepository{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(dialect.placeholder),
	}
}

// InsertBatch runs every insert-if-absent in one transaction. A fingerprint that already
// exists, in the table or earlier in the same batch, yields DuplicateSkipped.
func (r *SQLRepository) InsertBatch(ctx context.Context, items []domain.ContentItem) ([]domain.InsertOutcome, error) {
	if len(items) == 0 {
		return nil, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, unavailable("begin insert", err)
	}

	outcomes := make([]domain.InsertOutcome, 0, len(items))
	for _, item := range items {
		query, args, err := r.insertQuery(item)
		if err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("build insert: %w", err)
		}

		var id int64
		err = tx.QueryRowContext(ctx, query, args...).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			outcomes = append(outcomes, domain.InsertOutcome{Result: domain.DuplicateSkipped, ContentHash: item.ContentHash})
		case err != nil:
			_ = tx.Rollback()
			return nil, unavailable("insert "+item.ContentHash, err)
		default:
			outcomes = append(outcomes, domain.InsertOutcome{Result: domain.Inserted, ID: id, ContentHash: item.ContentHash})
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, unavailable("commit insert", err)
	}
	return outcomes, nil
}

// InsertIfNew is InsertBatch for a single item.
func (r *SQLRepository) InsertIfNew(ctx context.Context, item domain.ContentItem) (domain.InsertOutcome, error) {
	outcomes, err := r.InsertBatch(ctx, []domain.ContentItem{item})
	if err != nil {
		return domain.InsertOutcome{}, err
	}
	return outcomes[0], nil
}

func (r *SQLRepository) insertQuery(item domain.ContentItem) (string, []interface{}, error) {
	status := item.ComplianceStatus
	if status == "" {
		status = domain.StatusPending
	}
	priority := item.Priority
	if priority == 0 {
		priority = domain.DefaultPriority
	}
	metrics, err := item.EngagementMetrics.Value()
	if err != nil {
		return "", nil, fmt.Errorf("encode engagement metrics: %w", err)
	}

	return r.sb.Insert(table).
		Columns(
			"title", "content", "source", "category", "url", "published_date", "created_at",
			"is_active", "compliance_status", "engagement_metrics", "content_hash", "approval_timestamp", "priority",
		).
		Values(
			item.Title,
			item.Content,
			item.Source,
			nullString(item.Category),
			item.URL,
			item.PublishedDate.UTC(),
			item.CreatedAt.UTC(),
			item.IsActive,
			string(status),
			metrics,
			item.ContentHash,
			nullTime(item.ApprovalTimestamp),
			priority,
		).
		Suffix("ON CONFLICT (content_hash) DO NOTHING RETURNING id").
		ToSql()
}

// GetByFingerprint loads the item stored under hash.
func (r *SQLRepository) GetByFingerprint(ctx context.Context, hash string) (domain.ContentItem, error) {
	return r.getOne(ctx, sq.Eq{"content_hash": hash})
}

// GetByID loads the item with the surrogate id.
func (r *SQLRepository) GetByID(ctx context.Context, id int64) (domain.ContentItem, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *SQLRepository) getOne(ctx context.Context, where sq.Eq) (domain.ContentItem, error) {
	query, args, err := r.sb.Select(itemColumns...).From(table).Where(where).Limit(1).ToSql()
	if err != nil {
		return domain.ContentItem{}, fmt.Errorf("build select: %w", err)
	}

	item, err := scanItem(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentItem{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ContentItem{}, unavailable("select item", err)
	}
	return item, nil
}

// TransitionCompliance is a compare-and-set on compliance_status; approval_timestamp is
// written in the same statement so the two never disagree.
func (r *SQLRepository) TransitionCompliance(ctx context.Context, id int64, from, to domain.ComplianceStatus, approvedAt *time.Time) (bool, error) {
	query, args, err := r.sb.Update(table).
		Set("compliance_status", string(to)).
		Set("approval_timestamp", nullTime(approvedAt)).
		Where(sq.Eq{"id": id, "compliance_status": string(from)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build transition: %w", err)
	}

	n, err := r.exec(ctx, query, args...)
	if err != nil {
		return false, unavailable("transition compliance", err)
	}
	return n > 0, nil
}

// SetActive flips the soft-delete flag.
func (r *SQLRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return r.updateByID(ctx, id, "is_active", active)
}

// SetPriority overrides the priority tier.
func (r *SQLRepository) SetPriority(ctx context.Context, id int64, priority int) error {
	if !domain.ValidPriority(priority) {
		return domain.ErrInvalidPriority
	}
	return r.updateByID(ctx, id, "priority", priority)
}

// SetFeatured rewrites the featured flag inside engagement_metrics.
func (r *SQLRepository) SetFeatured(ctx context.Context, id int64, featured bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("begin feature", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := r.sb.Select("engagement_metrics").From(table).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build select metrics: %w", err)
	}
	var metrics domain.EngagementMetrics
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&metrics); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return unavailable("select metrics", err)
	}

	metrics.Featured = featured
	encoded, err := metrics.Value()
	if err != nil {
		return fmt.Errorf("encode engagement metrics: %w", err)
	}
	query, args, err = r.sb.Update(table).Set("engagement_metrics", encoded).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update metrics: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return unavailable("update metrics", err)
	}

	if err := tx.Commit(); err != nil {
		return unavailable("commit feature", err)
	}
	return nil
}

// ListLatest returns approved, active items, newest first with created_at breaking ties.
func (r *SQLRepository) ListLatest(ctx context.Context, q ports.LatestQuery) ([]domain.ContentItem, error) {
	where := sq.Eq{"is_active": true, "compliance_status": string(domain.StatusApproved)}
	if q.Category != "" {
		where["category"] = q.Category
	}

	builder := r.sb.Select(itemColumns...).From(table).Where(where).
		OrderBy("published_date DESC", "created_at DESC", "id DESC")
	return r.list(ctx, withLimit(builder, q.Limit))
}

// ListPending returns the curator queue: active pending items by priority, then recency.
func (r *SQLRepository) ListPending(ctx context.Context, q ports.PendingQuery) ([]domain.ContentItem, error) {
	builder := r.sb.Select(itemColumns...).From(table).
		Where(sq.Eq{"is_active": true, "compliance_status": string(domain.StatusPending)}).
		OrderBy("priority ASC", "published_date DESC", "created_at DESC", "id DESC")
	if !q.PublishedAfter.IsZero() {
		builder = builder.Where(sq.GtOrEq{"published_date": q.PublishedAfter.UTC()})
	}
	return r.list(ctx, withLimit(builder, q.Limit))
}

func (r *SQLRepository) ListApproved(ctx context.Context, limit int) ([]domain.ContentItem, error) {
	builder := r.sb.Select(itemColumns...).From(table).
		Where(sq.Eq{"is_active": true, "compliance_status": string(domain.StatusApproved)}).
		OrderBy("priority ASC", "approval_timestamp DESC", "id DESC")
	return r.list(ctx, withLimit(builder, limit))
}

// ListPicks returns active approved items published before the cutoff, by priority and
// then approval recency.
func (r *SQLRepository) ListPicks(ctx context.Context, q ports.PicksQuery) ([]domain.ContentItem, error) {
	builder := r.sb.Select(itemColumns...).From(table).
		Where(sq.Eq{"is_active": true, "compliance_status": string(domain.StatusApproved)}).
		Where(sq.Lt{"published_date": q.PublishedBefore.UTC()}).
		OrderBy("priority ASC", "approval_timestamp DESC", "id DESC")
	return r.list(ctx, withLimit(builder, q.Limit))
}

func withLimit(builder sq.SelectBuilder, limit int) sq.SelectBuilder {
	if limit > 0 {
		return builder.Limit(uint64(limit))
	}
	return builder
}

func (r *SQLRepository) list(ctx context.Context, builder sq.SelectBuilder) ([]domain.ContentItem, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("query items", err)
	}

	items := make([]domain.ContentItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			_ = rows.Close()
			return nil, unavailable("scan item", err)
		}
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, unavailable("rows iteration", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, unavailable("close rows", closeErr)
	}

	return items, nil
}

func (r *SQLRepository) updateByID(ctx context.Context, id int64, column string, value interface{}) error {
	query, args, err := r.sb.Update(table).Set(column, value).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update %s: %w", column, err)
	}
	n, err := r.exec(ctx, query, args...)
	if err != nil {
		return unavailable("update "+column, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SQLRepository) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (domain.ContentItem, error) {
	var (
		item     domain.ContentItem
		category sql.NullString
		approval sql.NullTime
		status   string
	)
	err := row.Scan(
		&item.ID,
		&item.Title,
		&item.Content,
		&item.Source,
		&category,
		&item.URL,
		&item.PublishedDate,
		&item.CreatedAt,
		&item.IsActive,
		&status,
		&item.EngagementMetrics,
		&item.ContentHash,
		&approval,
		&item.Priority,
	)
	if err != nil {
		return domain.ContentItem{}, err
	}

	item.ComplianceStatus = domain.ComplianceStatus(status)
	item.PublishedDate = item.PublishedDate.UTC()
	item.CreatedAt = item.CreatedAt.UTC()
	if category.Valid {
		c := category.String
		item.Category = &c
	}
	if approval.Valid {
		t := approval.Time.UTC()
		item.ApprovalTimestamp = &t
	}
	return item, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
