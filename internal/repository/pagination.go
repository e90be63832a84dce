package repository

import (
	"strings"

	"gorm.io/gorm"
)

// Page sizes per listing.
const (
	UsersPerPage        = 15
	ClientsPerPage      = 15
	ActivityLogsPerPage = 20
	DefaultPerPage      = 10
)

const newestFirst = "created_at DESC, id DESC"

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

// MapPage converts the rows of a page while keeping its position.
func MapPage[T, U any](p *Page[T], fn func(T) U) *Page[U] {
	out := &Page[U]{
		Data:        make([]U, 0, len(p.Data)),
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		Total:       p.Total,
		LastPage:    p.LastPage,
	}
	for _, row := range p.Data {
		out.Data = append(out.Data, fn(row))
	}
	return out
}

// paginate counts q and loads the requested page ordered by order.
// Preloads are applied to the row query only.
func paginate[T any](q *gorm.DB, page, perPage int, order string, preloads ...string) (*Page[T], error) {
	if page < 1 {
		page = 1
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}

	rows := make([]T, 0, perPage)
	find := q
	for _, p := range preloads {
		find = find.Preload(p)
	}
	if err := find.Order(order).Offset((page - 1) * perPage).Limit(perPage).Find(&rows).Error; err != nil {
		return nil, err
	}

	last := int((total + int64(perPage) - 1) / int64(perPage))
	if last < 1 {
		last = 1
	}
	return &Page[T]{
		Data:        rows,
		CurrentPage: page,
		PerPage:     perPage,
		Total:       total,
		LastPage:    last,
	}, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern escaped with '!'.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

// search adds a case-insensitive substring match over any of columns.
func search(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return q
	}
	pattern := likePattern(term)
	conds := make([]string, 0, len(columns))
	args := make([]interface{}, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, "LOWER("+col+") LIKE ? ESCAPE '!'")
		args = append(args, pattern)
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}
