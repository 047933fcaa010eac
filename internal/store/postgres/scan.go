package postgres

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"hiddenplaces/internal/domain"
)

// scanner is the part of pgx.Row and pgx.Rows the scan helpers need.
type scanner interface {
	Scan(dest ...any) error
}

// optional turns a nullable column value into a pointer, nil for NULL.
func optional[T any](v T, valid bool) *T {
	if !valid {
		return nil
	}
	return &v
}

func int8Ptr(v pgtype.Int8) *int64 { return optional(v.Int64, v.Valid) }

func timestamptzPtr(v pgtype.Timestamptz) *time.Time { return optional(v.Time, v.Valid) }

func int4Ptr(v pgtype.Int4) *int {
	if !v.Valid {
		return nil
	}
	return optional(int(v.Int32), true)
}

// textOrEmpty maps NULL text to "".
func textOrEmpty(v pgtype.Text) string { return v.String }

func uuidOrEmpty(v pgtype.UUID) string {
	if !v.Valid {
		return ""
	}
	return uuid.UUID(v.Bytes).String()
}

// nullIfEmpty stores empty optional strings as NULL.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// truncate cuts s to at most n runes so it fits a VARCHAR(n) column.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func pageArgs(p domain.PageRequest) (limit, offset int) {
	p = domain.NewPageRequest(p.Page, p.PerPage)
	return p.Limit(), p.Offset()
}

func pageResult[T any](items []T, total int, p domain.PageRequest) domain.PageResult[T] {
	p = domain.NewPageRequest(p.Page, p.PerPage)
	return domain.PageResult[T]{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage}
}
