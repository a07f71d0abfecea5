package domain

import (
	"math"
	"strings"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage — наибольший номер страницы, при котором смещение помещается в int.
	MaxPage = math.MaxInt / MaxPageSize
)

// SortField — поле сортировки из белого списка.
type SortField string

const (
	SortByCreatedAt   SortField = "createdAt"
	SortByUpdatedAt   SortField = "updatedAt"
	SortByTotal       SortField = "totalAmount"
	SortByOrderNumber SortField = "orderNumber"
	SortByStatus      SortField = "status"
)

var sortFields = []SortField{SortByCreatedAt, SortByUpdatedAt, SortByTotal, SortByOrderNumber, SortByStatus}

// SortDirection — направление сортировки.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// ParseSortField сопоставляет имя поля без учёта регистра.
func ParseSortField(raw string) (SortField, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SortByCreatedAt, nil
	}
	for _, f := range sortFields {
		if strings.EqualFold(string(f), raw) {
			return f, nil
		}
	}
	return "", Validationf("unsupported sort field %q", raw)
}

// ParseSortDirection принимает asc/desc; пустое значение даёт DESC.
func ParseSortDirection(raw string) (SortDirection, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "":
		return SortDesc, nil
	case string(SortAsc):
		return SortAsc, nil
	case string(SortDesc):
		return SortDesc, nil
	default:
		return "", Validationf("unsupported sort direction %q", raw)
	}
}

// PageRequest — параметры постраничной выборки. Page считается с нуля.
type PageRequest struct {
	Page      int
	Size      int
	Sort      SortField
	Direction SortDirection
}

// DefaultPageRequest — первая страница, 10 записей, сначала новые.
func DefaultPageRequest() PageRequest {
	return PageRequest{Page: 0, Size: DefaultPageSize, Sort: SortByCreatedAt, Direction: SortDesc}
}

// Normalize подставляет значения по умолчанию и ограничивает размер страницы.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Sort == "" {
		p.Sort = SortByCreatedAt
	}
	if p.Direction == "" {
		p.Direction = SortDesc
	}
	return p
}

// Offset возвращает количество пропускаемых записей. Результат не бывает отрицательным.
func (p PageRequest) Offset() int {
	if p.Page <= 0 || p.Size <= 0 {
		return 0
	}
	if p.Page > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return p.Page * p.Size
}

// Page — страница результата.
type Page[T any] struct {
	Items      []T
	Page       int
	Size       int
	TotalItems int64
	TotalPages int
}

// NewPage собирает страницу и считает число страниц.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Items:      items,
		Page:       req.Page,
		Size:       req.Size,
		TotalItems: total,
		TotalPages: pages,
	}
}
