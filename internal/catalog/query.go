// Package catalog lists and aggregates the files a user can see
package catalog

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/YashLoriya02/storage-management/internal/access"
	"github.com/YashLoriya02/storage-management/internal/model"
	"gorm.io/gorm"
)

// Sort is an ordering of a listing. Ties are always broken by insertion order.
type Sort struct {
	Field string
	Desc  bool
}

// DefaultSort is used when no sort or an unknown one is requested
var DefaultSort = Sort{Field: "createdAt", Desc: true}

var sortColumns = map[string]string{
	"createdAt": "files.created_at",
	"updatedAt": "files.updated_at",
	"name":      "files.name",
	"size":      "files.size",
	"type":      "files.type",
}

// ParseSort reads a "field-direction" pair like "createdAt-desc". The legacy
// "$createdAt" spelling is accepted. Anything unrecognized gives DefaultSort.
func ParseSort(s string) Sort {
	field, dir, _ := strings.Cut(strings.TrimSpace(s), "-")
	field = strings.TrimPrefix(field, "$")

	if _, ok := sortColumns[field]; !ok {
		return DefaultSort
	}

	switch strings.ToLower(dir) {
	case "asc":
		return Sort{Field: field}
	case "desc", "":
		return Sort{Field: field, Desc: true}
	}

	return DefaultSort
}

func (s Sort) String() string {
	if s.Desc {
		return s.Field + "-desc"
	}
	return s.Field + "-asc"
}

func (s Sort) apply(db *gorm.DB) *gorm.DB {
	col, ok := sortColumns[s.Field]
	if !ok {
		return DefaultSort.apply(db)
	}

	if s.Desc {
		col += " DESC"
	} else {
		col += " ASC"
	}

	return db.Order(col).Order("files.id ASC")
}

// less orders two loaded files the same way apply orders rows
func (s Sort) less(a, b *model.File) int {
	var c int

	switch s.Field {
	case "updatedAt":
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	case "name":
		c = strings.Compare(a.Name, b.Name)
	case "size":
		c = cmpInt64(a.Size, b.Size)
	case "type":
		c = strings.Compare(a.Type, b.Type)
	case "createdAt":
		c = a.CreatedAt.Compare(b.CreatedAt)
	default:
		return DefaultSort.less(a, b)
	}

	if s.Desc {
		c = -c
	}
	if c != 0 {
		return c
	}

	return cmpInt64(int64(a.ID), int64(b.ID))
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Options narrows a listing. The zero value lists every visible file, newest
// first.
type Options struct {
	Types      []string
	SearchText string
	Sort       Sort
	Limit      int
}

// Expr builds the full predicate for the requester: visibility AND types AND
// (name OR keyword search).
func (o Options) Expr(r access.Requester) Expr {
	exprs := []Expr{Visible(r)}

	if len(o.Types) > 0 {
		exprs = append(exprs, In(FieldType, o.Types...))
	}

	if text := strings.TrimSpace(o.SearchText); text != "" {
		exprs = append(exprs, Or(ContainsFold(FieldName, text), KeywordContains(text)))
	}

	return And(exprs...)
}

// Catalog runs listing and usage queries against the metadata store
type Catalog struct {
	db       *gorm.DB
	capacity int64
}

// New returns a catalog reporting capacity bytes as the storage limit
func New(db *gorm.DB, capacity int64) *Catalog {
	return &Catalog{db: db, capacity: capacity}
}

// ListFiles returns the files visible to the requester that match the
// options, ordered and truncated. Owners are joined with their display name
// only.
func (c *Catalog) ListFiles(ctx context.Context, r access.Requester, o Options) ([]model.File, error) {
	sort := o.Sort
	if sort.Field == "" {
		sort = DefaultSort
	}

	q := Apply(c.db.WithContext(ctx).Model(&model.File{}), o.Expr(r))
	q = sort.apply(q)

	if o.Limit > 0 {
		q = q.Limit(o.Limit)
	}

	var files []model.File

	err := q.
		Preload("Owner", func(db *gorm.DB) *gorm.DB { return db.Select("id", "full_name") }).
		Preload("Grants").
		Find(&files).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list files, %w", err)
	}

	return files, nil
}

// Filter applies the same options to files already in memory. It's what
// ListFiles does, minus the database.
func Filter(files []model.File, r access.Requester, o Options) []model.File {
	sort := o.Sort
	if sort.Field == "" {
		sort = DefaultSort
	}

	e := o.Expr(r)
	out := []model.File{}

	for i := range files {
		if e.Match(&files[i]) {
			out = append(out, files[i])
		}
	}

	slices.SortStableFunc(out, func(a, b model.File) int { return sort.less(&a, &b) })

	if o.Limit > 0 && len(out) > o.Limit {
		out = out[:o.Limit]
	}

	return out
}

// Recent returns the n most recently created visible files
func (c *Catalog) Recent(ctx context.Context, r access.Requester, n int) ([]model.File, error) {
	return c.ListFiles(ctx, r, Options{Sort: DefaultSort, Limit: n})
}

type usageRow struct {
	Type      string
	Size      int64
	UpdatedAt time.Time
}

// AggregateUsage totals the size of every visible file per semantic type in
// one pass. LatestDate is the most recent update in each type.
func (c *Catalog) AggregateUsage(ctx context.Context, r access.Requester) (model.Usage, error) {
	usage := model.Usage{All: c.capacity}

	rows, err := Apply(c.db.WithContext(ctx).Model(&model.File{}), Visible(r)).
		Select("files.type", "files.size", "files.updated_at").
		Rows()
	if err != nil {
		return usage, fmt.Errorf("failed to query usage, %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var row usageRow
		if err := c.db.ScanRows(rows, &row); err != nil {
			return usage, fmt.Errorf("failed to scan usage row, %w", err)
		}

		usage.Add(row.Type, row.Size, row.UpdatedAt)
	}

	if err := rows.Err(); err != nil {
		return usage, fmt.Errorf("failed to read usage rows, %w", err)
	}

	return usage, nil
}

// OwnedSize sums the size of every file the user owns, shared files don't
// count towards a quota
func (c *Catalog) OwnedSize(ctx context.Context, ownerID string) (int64, error) {
	var total int64

	err := Apply(c.db.WithContext(ctx).Model(&model.File{}), Eq(FieldOwner, ownerID)).
		Select("COALESCE(SUM(files.size), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum owned files, %w", err)
	}

	return total, nil
}

// Capacity is the storage limit reported as Usage.All
func (c *Catalog) Capacity() int64 {
	return c.capacity
}
