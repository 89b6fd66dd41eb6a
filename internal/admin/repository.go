package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/authboard/authboard/internal/shared"
)

// PGRepository implements Repository with dynamically built, parameterized
// SQL over pgx. Table names come from the registry, never from callers.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert writes a record and returns the stored row in one round trip.
func (r *PGRepository) Insert(ctx context.Context, table string, rec Record) (Record, error) {
	keys := sortedKeys(rec)
	if len(keys) == 0 {
		return nil, fmt.Errorf("admin: insert into %s: empty record", table)
	}

	columns := make([]string, len(keys))
	placeholders := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, key := range keys {
		columns[i] = pgx.Identifier{toSnake(key)}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[key]
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stored, err := r.queryOne(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("admin: insert into %s: %w", table, translateError(err))
	}
	return stored, nil
}

// Update applies a partial update and returns the stored row. A missing row
// yields (nil, nil) so the service can apply its payload fallback.
func (r *PGRepository) Update(ctx context.Context, table string, id string, rec Record) (Record, error) {
	keys := sortedKeys(rec)
	assignments := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys)+1)
	for _, key := range keys {
		if key == "id" {
			continue
		}
		args = append(args, rec[key])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", pgx.Identifier{toSnake(key)}.Sanitize(), len(args)))
	}
	if len(assignments) == 0 {
		return nil, fmt.Errorf("admin: update %s: empty record", table)
	}
	args = append(args, id)

	sql := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING *",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(assignments, ", "),
		len(args),
	)

	stored, err := r.queryOne(ctx, sql, args...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("admin: update %s: %w", table, translateError(err))
	}
	return stored, nil
}

// Delete removes a record by id. Zero affected rows is not an error.
func (r *PGRepository) Delete(ctx context.Context, table string, id string) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE id = $1", pgx.Identifier{table}.Sanitize())
	if _, err := r.pool.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("admin: delete from %s: %w", table, err)
	}
	return nil
}

// FindRecent returns the newest records, creation time descending.
func (r *PGRepository) FindRecent(ctx context.Context, table string, limit int) ([]Record, error) {
	sql := fmt.Sprintf(
		"SELECT * FROM %s ORDER BY created_at DESC LIMIT $1",
		pgx.Identifier{table}.Sanitize(),
	)
	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("admin: find %s: %w", table, err)
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("admin: find %s: %w", table, err)
	}
	return records, nil
}

func (r *PGRepository) queryOne(ctx context.Context, sql string, args ...any) (Record, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, pgx.ErrNoRows
	}
	return records[0], nil
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var records []Record
	fields := rows.FieldDescriptions()
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		rec := make(Record, len(fields))
		for i, field := range fields {
			rec[toCamel(field.Name)] = values[i]
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", shared.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func sortedKeys(rec Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// toSnake converts a camelCase wire field name to its column name.
func toSnake(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// toCamel converts a column name back to the camelCase wire field name.
func toCamel(name string) string {
	parts := strings.Split(name, "_")
	var b strings.Builder
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

var _ Repository = (*PGRepository)(nil)
