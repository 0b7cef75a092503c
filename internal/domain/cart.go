package domain

import (
	"encoding/json"
	"math"
)

// DefaultSnapshotSlot - имя слота, под которым клиент хранит снапшот корзины.
const DefaultSnapshotSlot = "delight_cafe_cart"

// CartLine представляет одну позицию корзины.
type CartLine struct {
	// ID - идентификатор блюда из меню, уникален в пределах корзины.
	ID string `json:"id"`
	// Name - отображаемое название блюда.
	Name string `json:"name"`
	// Price - цена за единицу.
	Price float64 `json:"price"`
	// Quantity - количество единиц, всегда >= 1 в сохранённом состоянии.
	Quantity int `json:"quantity"`
}

// LineTotal возвращает стоимость позиции: price * quantity.
func (l CartLine) LineTotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart - упорядоченный список позиций в порядке первого добавления.
type Cart struct {
	Lines []CartLine
}

// NewCart создаёт пустую корзину.
func NewCart() Cart {
	return Cart{Lines: make([]CartLine, 0)}
}

// ValidateLineArgs проверяет аргументы добавления позиции.
func ValidateLineArgs(id, name string, price float64) error {
	if id == "" {
		return ErrLineIDRequired
	}
	if name == "" {
		return ErrLineNameRequired
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return ErrLinePriceInvalid
	}
	return nil
}

// Find возвращает индекс позиции с указанным id или -1.
func (c *Cart) Find(id string) int {
	for i := range c.Lines {
		if c.Lines[i].ID == id {
			return i
		}
	}
	return -1
}

// Add увеличивает количество существующей позиции на 1 или добавляет новую в конец.
func (c *Cart) Add(id, name string, price float64) {
	if i := c.Find(id); i >= 0 {
		c.Lines[i].Quantity++
		return
	}
	c.Lines = append(c.Lines, CartLine{ID: id, Name: name, Price: price, Quantity: 1})
}

// Remove удаляет позицию с указанным id. Возвращает false, если позиции не было.
func (c *Cart) Remove(id string) bool {
	i := c.Find(id)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

// AdjustQuantity добавляет delta к количеству позиции и возвращает новое значение.
// Позиция с результатом <= 0 из корзины не удаляется: это решает вызывающий код.
func (c *Cart) AdjustQuantity(id string, delta int) (int, bool) {
	i := c.Find(id)
	if i < 0 {
		return 0, false
	}
	c.Lines[i].Quantity += delta
	return c.Lines[i].Quantity, true
}

// TotalItemCount - сумма количеств по всем позициям.
func (c Cart) TotalItemCount() int {
	total := 0
	for _, line := range c.Lines {
		total += line.Quantity
	}
	return total
}

// TotalAmount - сумма price * quantity по всем позициям.
func (c Cart) TotalAmount() float64 {
	var total float64
	for _, line := range c.Lines {
		total += line.LineTotal()
	}
	return total
}

// IsEmpty сообщает, что в корзине нет позиций.
func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clone возвращает независимую копию корзины.
func (c Cart) Clone() Cart {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return Cart{Lines: lines}
}

// MarshalSnapshot сериализует корзину в формат снапшота: JSON-массив позиций.
func MarshalSnapshot(c Cart) ([]byte, error) {
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	return json.Marshal(lines)
}

// UnmarshalSnapshot разбирает снапшот. JSON null трактуется как пустая корзина.
func UnmarshalSnapshot(data []byte) (Cart, error) {
	var lines []CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return NewCart(), err
	}
	if lines == nil {
		lines = make([]CartLine, 0)
	}
	return Cart{Lines: lines}, nil
}
