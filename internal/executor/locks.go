package executor

import (
	"sort"
	"sync"
)

// symbolLocks — единственный владелец множества занятых символов.
// Инвариант: символ в множестве ⇔ ровно один воркер сейчас исполняет
// сигнал по нему. Воркеры само множество не видят, только
// TryAcquire/Release.
type symbolLocks struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func newSymbolLocks() *symbolLocks {
	return &symbolLocks{held: make(map[string]struct{})}
}

// TryAcquire атомарно занимает символ. false — по символу уже идёт
// исполнение.
func (l *symbolLocks) TryAcquire(symbol string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.held[symbol]; busy {
		return false
	}
	l.held[symbol] = struct{}{}
	return true
}

// Release снимает блокировку безусловно, при любом исходе исполнения.
func (l *symbolLocks) Release(symbol string) {
	l.mu.Lock()
	delete(l.held, symbol)
	l.mu.Unlock()
}

// Snapshot — отсортированный список занятых символов для /status.
func (l *symbolLocks) Snapshot() []string {
	l.mu.Lock()
	out := make([]string, 0, len(l.held))
	for s := range l.held {
		out = append(out, s)
	}
	l.mu.Unlock()

	sort.Strings(out)
	return out
}
