// Package pricecache держит последнюю известную цену по каждому символу.
// Писатель один — стрим маркет-данных; читателей много — воркеры исполнения.
package pricecache

import (
	"sync"
	"time"
)

// Quote — последняя наблюдавшаяся цена и момент наблюдения.
type Quote struct {
	Price      float64
	ObservedAt time.Time
}

type Cache struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

func New() *Cache {
	return &Cache{
		quotes: make(map[string]Quote),
	}
}

// Update безусловно перезаписывает цену символа. Порядок тиков между
// символами не гарантируется; внутри символа — last-write-wins,
// тики приходят из одного соединения последовательно.
func (c *Cache) Update(symbol string, price float64) {
	c.mu.Lock()
	c.quotes[symbol] = Quote{Price: price, ObservedAt: time.Now()}
	c.mu.Unlock()
}

// Get возвращает последнюю цену. ok=false — символ ещё не наблюдали;
// нулевую цену вместо "неизвестно" никогда не отдаём.
func (c *Cache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	q, ok := c.quotes[symbol]
	c.mu.RUnlock()
	return q, ok
}

// Len — сколько символов уже наблюдали (для health-отчёта).
func (c *Cache) Len() int {
	c.mu.RLock()
	n := len(c.quotes)
	c.mu.RUnlock()
	return n
}
