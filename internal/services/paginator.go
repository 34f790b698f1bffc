package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// PageSize is the number of items on every listing page.
const PageSize = 10

// Page is one window of an ordered listing.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalItems int64
	TotalPages int
}

func (p *Page[T]) HasNext() bool     { return p.Number < p.TotalPages }
func (p *Page[T]) HasPrevious() bool { return p.Number > 1 }
func (p *Page[T]) NextNumber() int   { return p.Number + 1 }

func (p *Page[T]) PreviousNumber() int { return p.Number - 1 }

// Pages lists every page number, for the paginator links.
func (p *Page[T]) Pages() []int {
	nums := make([]int, p.TotalPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}

// ParsePageNumber reads the ?page= value. Absent or non-numeric means 1;
// range clamping happens in ListPage once the total is known.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// ListPage slices an ordered query into page `number`. Out-of-range numbers
// clamp to the first or last page. The query runs once for the count and
// once for the window; preloads apply to the window only.
func ListPage[T any](ctx context.Context, query *gorm.DB, number int, preloads ...string) (*Page[T], error) {
	q := query.WithContext(ctx).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count listing: %w", err)
	}

	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	page := &Page[T]{
		Items:      make([]T, 0, PageSize),
		Number:     number,
		TotalItems: total,
		TotalPages: totalPages,
	}
	if total == 0 {
		return page, nil
	}

	window := q.Limit(PageSize).Offset((number - 1) * PageSize)
	for _, p := range preloads {
		window = window.Preload(p)
	}
	if err := window.Find(&page.Items).Error; err != nil {
		return nil, fmt.Errorf("load listing page %d: %w", number, err)
	}
	return page, nil
}
