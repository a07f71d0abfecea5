package postgres

import (
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// sqlArgs копит параметры запроса и выдаёт плейсхолдеры $n.
type sqlArgs struct {
	values []any
}

func (a *sqlArgs) add(v any) string {
	a.values = append(a.values, v)
	return fmt.Sprintf("$%d", len(a.values))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause транслирует условия фильтра в WHERE над orders o LEFT JOIN customers c.
func whereClause(filter domain.OrderFilter, args *sqlArgs) string {
	criteria := filter.Criteria()
	if len(criteria) == 0 {
		return ""
	}

	parts := make([]string, 0, len(criteria))
	for _, c := range criteria {
		switch c.Kind {
		case domain.CriterionKeyword:
			p := args.add("%" + likeEscaper.Replace(c.Text) + "%")
			parts = append(parts, fmt.Sprintf(
				"(LOWER(o.order_number) LIKE %[1]s OR LOWER(o.shipping_name) LIKE %[1]s OR LOWER(o.shipping_phone) LIKE %[1]s"+
					" OR LOWER(COALESCE(c.username, '')) LIKE %[1]s OR LOWER(COALESCE(c.email, '')) LIKE %[1]s)", p))
		case domain.CriterionCustomer:
			parts = append(parts, "o.customer_id = "+args.add(c.Text))
		case domain.CriterionStatus:
			parts = append(parts, "o.status = "+args.add(string(c.Status)))
		case domain.CriterionPaymentStatus:
			parts = append(parts, "o.payment_status = "+args.add(string(c.PaymentStatus)))
		case domain.CriterionCreatedFrom:
			parts = append(parts, "o.created_at >= "+args.add(c.At))
		case domain.CriterionCreatedTo:
			parts = append(parts, "o.created_at <= "+args.add(c.At))
		default:
			// Неизвестный тег ничего не должен пропускать.
			parts = append(parts, "FALSE")
		}
	}
	return " WHERE " + strings.Join(parts, " AND ")
}

var sortColumns = map[domain.SortField]string{
	domain.SortByCreatedAt:   "o.created_at",
	domain.SortByUpdatedAt:   "o.updated_at",
	domain.SortByTotal:       "o.total_amount",
	domain.SortByOrderNumber: "o.order_number",
	domain.SortByStatus:      "o.status",
}

// orderByClause строит ORDER BY только из белого списка колонок.
func orderByClause(page domain.PageRequest) string {
	column, ok := sortColumns[page.Sort]
	if !ok {
		column = sortColumns[domain.SortByCreatedAt]
	}
	dir := "DESC"
	if page.Direction == domain.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, o.id %s", column, dir, dir)
}

func statusStrings(statuses []domain.OrderStatus) []string {
	result := make([]string, 0, len(statuses))
	for _, s := range statuses {
		result = append(result, string(s))
	}
	return result
}
