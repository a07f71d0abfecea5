package ordering

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// OrderNumberPrefix — постоянный префикс номера заказа.
const OrderNumberPrefix = "ORD-"

// NumberGenerator выдаёт уникальные номера заказов.
type NumberGenerator interface {
	Next(now time.Time) (string, error)
}

// ULIDNumberGenerator выдаёт номера вида ORD-<ULID>.
// ULID внутри одной миллисекунды монотонно растёт, поэтому номера
// сортируются в порядке выдачи и не совпадают при параллельном оформлении.
type ULIDNumberGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewULIDNumberGenerator создаёт генератор на криптографической энтропии.
func NewULIDNumberGenerator() *ULIDNumberGenerator {
	return &ULIDNumberGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDNumberGenerator) Next(now time.Time) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return OrderNumberPrefix + id.String(), nil
}
