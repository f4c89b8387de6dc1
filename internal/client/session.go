package client

import (
	"context"
	"sync"
	"time"

	"vet-clinic/internal/platform/debounce"
	"vet-clinic/internal/platform/pagination"
)

// Fetcher trae una página para una query.
type Fetcher[T any] func(ctx context.Context, q pagination.Query) (ListResult[T], error)

// State es lo que recibe la pantalla tras cada fetch vigente.
type State[T any] struct {
	Query  pagination.Query
	Result ListResult[T]
	Err    error
}

// ListSession es el estado de una pantalla de lista: filtros, página y el
// último resultado. Solo se entrega el resultado del request más reciente;
// los anteriores se descartan al llegar (no se cancelan).
type ListSession[T any] struct {
	ctx      context.Context
	fetch    Fetcher[T]
	onUpdate func(State[T])
	deb      *debounce.Debouncer

	mu     sync.Mutex
	q      pagination.Query
	seq    uint64
	closed bool

	deliver sync.Mutex
	wg      sync.WaitGroup
}

// NewListSession no dispara nada; llamar Refetch para la primera carga.
func NewListSession[T any](ctx context.Context, initial pagination.Query, fetch Fetcher[T], onUpdate func(State[T]), delay time.Duration) *ListSession[T] {
	if initial.Filters == nil {
		initial.Filters = map[string]string{}
	}
	return &ListSession[T]{
		ctx:      ctx,
		fetch:    fetch,
		onUpdate: onUpdate,
		deb:      debounce.New(delay),
		q:        initial,
	}
}

func (s *ListSession[T]) Query() pagination.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.q
}

// SetSearch es debounced: solo el último texto tipeado dispara fetch.
func (s *ListSession[T]) SetSearch(text string) {
	s.mu.Lock()
	s.q = s.q.WithSearch(text)
	s.mu.Unlock()
	s.deb.Trigger(s.start)
}

// SetFilter vuelve a página 1 y busca ya.
func (s *ListSession[T]) SetFilter(key, value string) {
	s.update(func(q pagination.Query) pagination.Query { return q.WithFilter(key, value) })
}

func (s *ListSession[T]) SetLimit(limit int) {
	s.update(func(q pagination.Query) pagination.Query { return q.WithLimit(limit) })
}

// SetPage conserva filtros y búsqueda.
func (s *ListSession[T]) SetPage(page int) {
	s.update(func(q pagination.Query) pagination.Query { return q.WithPage(page) })
}

// Refetch es el reintento manual ("Try again"); nunca se llama solo.
func (s *ListSession[T]) Refetch() {
	s.deb.Cancel()
	s.start()
}

// Wait bloquea hasta que no haya fetches en vuelo.
func (s *ListSession[T]) Wait() { s.wg.Wait() }

// Close espera los fetches en vuelo. Después de Close nada dispara fetch.
func (s *ListSession[T]) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.deb.Stop()
	s.wg.Wait()
}

func (s *ListSession[T]) update(fn func(pagination.Query) pagination.Query) {
	s.mu.Lock()
	s.q = fn(s.q)
	s.mu.Unlock()
	// un cambio inmediato absorbe la búsqueda pendiente
	s.deb.Cancel()
	s.start()
}

func (s *ListSession[T]) start() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.seq++
	seq, q := s.seq, s.q
	// Add bajo el lock: Close no puede estar ya en wg.Wait.
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		res, err := s.fetch(s.ctx, q)

		s.deliver.Lock()
		defer s.deliver.Unlock()
		if !s.isLatest(seq) {
			return
		}
		if s.onUpdate != nil {
			s.onUpdate(State[T]{Query: q, Result: res, Err: err})
		}
	}()
}

func (s *ListSession[T]) isLatest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return seq == s.seq
}
