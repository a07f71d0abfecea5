package httpapi

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
	"github.com/vladislavdragonenkov/fulfillment/internal/service/ordering"
)

// parsePageRequest читает page, size, sort и direction. Отсутствующие параметры берутся по умолчанию.
func parsePageRequest(query url.Values) (domain.PageRequest, error) {
	page := domain.DefaultPageRequest()

	if raw := strings.TrimSpace(query.Get("page")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return domain.PageRequest{}, domain.Validationf("page must be a non-negative integer")
		}
		if n > domain.MaxPage {
			return domain.PageRequest{}, domain.Validationf("page must not exceed %d", domain.MaxPage)
		}
		page.Page = n
	}
	if raw := strings.TrimSpace(query.Get("size")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return domain.PageRequest{}, domain.Validationf("size must be a positive integer")
		}
		page.Size = n
	}

	sort, err := domain.ParseSortField(query.Get("sort"))
	if err != nil {
		return domain.PageRequest{}, err
	}
	direction, err := domain.ParseSortDirection(query.Get("direction"))
	if err != nil {
		return domain.PageRequest{}, err
	}
	page.Sort = sort
	page.Direction = direction
	return page.Normalize(), nil
}

func hasPaging(query url.Values) bool {
	for _, key := range []string{"page", "size", "sort", "direction"} {
		if query.Has(key) {
			return true
		}
	}
	return false
}

func searchParams(query url.Values) ordering.SearchParams {
	return ordering.SearchParams{
		Keyword:       query.Get("keyword"),
		CustomerID:    query.Get("customerId"),
		Status:        query.Get("status"),
		PaymentStatus: query.Get("paymentStatus"),
		StartDate:     query.Get("startDate"),
		EndDate:       query.Get("endDate"),
	}
}
