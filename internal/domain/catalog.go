package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ProductStatus — статус товара в каталоге.
type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "ACTIVE"
	ProductStatusInactive   ProductStatus = "INACTIVE"
	ProductStatusOutOfStock ProductStatus = "OUT_OF_STOCK"
)

// DefaultLowStockThreshold — остаток, начиная с которого товар считается заканчивающимся.
const DefaultLowStockThreshold = 5

// Product — то, что ядро заказов видит из каталога.
type Product struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	StockQuantity int
	Status        ProductStatus
	CreatedAt     time.Time
}

// EffectivePrice возвращает цену со скидкой, если она задана.
func (p Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// Customer — владелец заказа, читается из identity-подсистемы.
type Customer struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
	CreatedAt time.Time
}

// DisplayName возвращает "Имя Фамилия" или username, если имени нет.
func (c Customer) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return c.Username
	}
	return name
}

// CartItem — позиция корзины, которую ядро только читает и удаляет.
type CartItem struct {
	ID         string
	CustomerID string
	ProductID  string
	Quantity   int
	CreatedAt  time.Time
}
