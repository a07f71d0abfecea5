package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/fulfillment/internal/domain"
)

// Store — in-memory хранилище для локальной разработки и тестов.
// Все коллекции защищены одним мьютексом: единица работы держит его целиком,
// поэтому списание остатка и создание заказа не перемешиваются между запросами.
type Store struct {
	mu sync.RWMutex

	customers map[string]domain.Customer
	products  map[string]domain.Product
	carts     map[string]domain.CartItem
	orders    map[string]domain.Order
	numbers   map[string]string
	outbox    map[string]*outboxRecord
	outboxSeq int64
	timeline  map[string][]domain.TimelineEvent
	banners   map[string]bool
	coupons   map[string]bool
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	return &Store{
		customers: make(map[string]domain.Customer),
		products:  make(map[string]domain.Product),
		carts:     make(map[string]domain.CartItem),
		orders:    make(map[string]domain.Order),
		numbers:   make(map[string]string),
		outbox:    make(map[string]*outboxRecord),
		timeline:  make(map[string][]domain.TimelineEvent),
		banners:   make(map[string]bool),
		coupons:   make(map[string]bool),
	}
}

// AddCustomer регистрирует клиента.
func (s *Store) AddCustomer(c domain.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.customers[c.ID] = c
}

// AddProduct добавляет или заменяет товар каталога.
func (s *Store) AddProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Status == "" {
		p.Status = domain.ProductStatusActive
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.products[p.ID] = p
}

// AddCartItem кладёт позицию в корзину.
func (s *Store) AddCartItem(item domain.CartItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	s.carts[item.ID] = item
}

// AddBanner регистрирует баннер маркетинговой подсистемы.
func (s *Store) AddBanner(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.banners[id] = active
}

// AddCoupon регистрирует купон маркетинговой подсистемы.
func (s *Store) AddCoupon(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[id] = active
}

// PutOrder сохраняет готовый заказ в обход единицы работы (для фикстур).
func (s *Store) PutOrder(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = order.Clone()
	s.numbers[order.OrderNumber] = order.ID
}

// Product возвращает текущее состояние товара.
func (s *Store) Product(id string) (domain.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	return p, ok
}

// CartItem возвращает позицию корзины, если она ещё существует.
func (s *Store) CartItem(id string) (domain.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.carts[id]
	return item, ok
}

// Ping всегда успешен; нужен для health-проверки наравне с postgres.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Do выполняет fn под эксклюзивной блокировкой. При ошибке все изменения
// откатываются в обратном порядке по журналу отмены.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, tx domain.Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
		if err != nil {
			tx.rollback()
		}
	}()

	return fn(ctx, tx)
}

// memTx работает с коллекциями Store, пока Do держит блокировку.
type memTx struct {
	s    *Store
	undo []func()
}

func (tx *memTx) onRollback(fn func()) {
	tx.undo = append(tx.undo, fn)
}

func (tx *memTx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *memTx) Customers() domain.CustomerDirectory { return txCustomers{tx} }
func (tx *memTx) Carts() domain.CartStore             { return txCarts{tx} }
func (tx *memTx) Inventory() domain.InventoryLedger   { return txInventory{tx} }
func (tx *memTx) Orders() domain.OrderWriter          { return txOrders{tx} }
func (tx *memTx) Outbox() domain.OutboxWriter         { return txOutbox{tx} }
func (tx *memTx) Timeline() domain.TimelineWriter     { return txTimeline{tx} }

var (
	_ domain.UnitOfWork = (*Store)(nil)
	_ domain.Tx         = (*memTx)(nil)
)
