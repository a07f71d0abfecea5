package domain

// transitions — таблица допустимых переходов статусов.
// Собирается один раз при инициализации пакета и дальше только читается.
var transitions = buildTransitions(map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusProcessing, OrderStatusShipped, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered:  {OrderStatusRefunded},
	OrderStatusCancelled:  {},
	OrderStatusRefunded:   {},
})

func buildTransitions(edges map[OrderStatus][]OrderStatus) map[OrderStatus]map[OrderStatus]struct{} {
	table := make(map[OrderStatus]map[OrderStatus]struct{}, len(edges))
	for from, targets := range edges {
		next := make(map[OrderStatus]struct{}, len(targets))
		for _, to := range targets {
			next[to] = struct{}{}
		}
		table[from] = next
	}
	return table
}

// CanTransition сообщает, есть ли ребро from -> to в таблице переходов.
// Переход в тот же статус ребром не считается.
func CanTransition(from, to OrderStatus) bool {
	_, ok := transitions[from][to]
	return ok
}

// AllowedTransitions возвращает копию списка статусов, достижимых из from.
func AllowedTransitions(from OrderStatus) []OrderStatus {
	result := make([]OrderStatus, 0, len(transitions[from]))
	for _, s := range OrderStatuses {
		if CanTransition(from, s) {
			result = append(result, s)
		}
	}
	return result
}

// ValidateTransition возвращает *InvalidTransitionError, если ребра нет.
// Совпадающие статусы считаются допустимым no-op.
func ValidateTransition(from, to OrderStatus) error {
	if from == to || CanTransition(from, to) {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}
