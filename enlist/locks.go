package enlist

import (
	"sync"

	"github.com/google/uuid"
)

// originLocks - мьютексы исходных единиц работы. Запись удаляется, когда ее больше никто не удерживает и не ждет.
type originLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*originLock
}

type originLock struct {
	sync.Mutex
	refs int
}

// lock захватывает мьютекс исходной единицы работы id и возвращает функцию его освобождения.
func (ol *originLocks) lock(id uuid.UUID) (unlock func()) {
	ol.mu.Lock()
	if ol.locks == nil {
		ol.locks = make(map[uuid.UUID]*originLock)
	}
	l, ok := ol.locks[id]
	if !ok {
		l = &originLock{}
		ol.locks[id] = l
	}
	l.refs++
	ol.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		ol.mu.Lock()
		defer ol.mu.Unlock()
		if l.refs--; l.refs == 0 {
			delete(ol.locks, id)
		}
	}
}

func (ol *originLocks) len() int {
	ol.mu.Lock()
	defer ol.mu.Unlock()
	return len(ol.locks)
}
