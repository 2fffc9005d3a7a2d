package service

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/Tomlord1122/taskboard/internal/domain"
)

// TodoFetcher retrieves the remote todo list.
type TodoFetcher interface {
	FetchTodos(ctx context.Context) ([]domain.RemoteTodo, error)
}

// TodoLoader performs a single remote fetch per activation and exposes a
// loading flag that is cleared exactly once, on success or failure.
type TodoLoader struct {
	fetcher TodoFetcher
	delay   time.Duration
	logger  *log.Logger

	// sleep waits d or until ctx ends. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration)

	once sync.Once
	done chan struct{}

	mu      sync.RWMutex
	loading bool
	todos   []domain.RemoteTodo
	err     error
}

// NewTodoLoader creates a loader that holds successful results back for
// delay before publishing them. A nil logger writes to the standard logger.
func NewTodoLoader(fetcher TodoFetcher, delay time.Duration, logger *log.Logger) *TodoLoader {
	if logger == nil {
		logger = log.Default()
	}
	return &TodoLoader{
		fetcher: fetcher,
		delay:   delay,
		logger:  logger,
		sleep:   sleepContext,
		done:    make(chan struct{}),
		loading: true,
		todos:   []domain.RemoteTodo{},
	}
}

// Start begins the fetch on the first call and returns immediately. Later
// calls do nothing. ctx only scopes the background fetch; cancelling it is
// reported like any other fetch failure.
func (l *TodoLoader) Start(ctx context.Context) {
	l.once.Do(func() {
		go l.run(ctx)
	})
}

func (l *TodoLoader) run(ctx context.Context) {
	defer l.finish()

	todos, err := l.fetcher.FetchTodos(ctx)
	if err != nil {
		l.logger.Printf("Error fetching todos: %v", err)
		l.mu.Lock()
		l.err = err
		l.mu.Unlock()
		return
	}

	l.sleep(ctx, l.delay)

	if todos == nil {
		todos = []domain.RemoteTodo{}
	}
	l.mu.Lock()
	l.todos = todos
	l.mu.Unlock()
}

func (l *TodoLoader) finish() {
	l.mu.Lock()
	l.loading = false
	l.mu.Unlock()
	close(l.done)
}

// Snapshot returns the loading flag and a copy of the published items.
func (l *TodoLoader) Snapshot() (bool, []domain.RemoteTodo) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading, slices.Clone(l.todos)
}

// Done is closed once the loader leaves the loading state.
func (l *TodoLoader) Done() <-chan struct{} {
	return l.done
}

// Err returns the fetch failure, if any. It is nil while loading.
func (l *TodoLoader) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
