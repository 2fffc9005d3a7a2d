package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"

	"github.com/Tomlord1122/taskboard/internal/domain"
	"github.com/Tomlord1122/taskboard/internal/repository"
)

// TasksKey is the key under which the full task list is mirrored.
const TasksKey = "tasks"

// TaskStore owns the task list of one board session and mirrors it
// write-through to a KVRepository.
type TaskStore interface {
	// Load hydrates the list from the mirror. Only the first successful call
	// reads storage; an unreadable mirror shows as an empty list.
	Load(ctx context.Context)

	// Tasks returns a copy of the current list in insertion order.
	Tasks(ctx context.Context) []domain.Task

	// NextID is the id the next Add will assign.
	NextID(ctx context.Context) int

	// Input and SetInput hold the pending title typed by the user.
	Input() string
	SetInput(v string)

	// Add appends a task titled with the pending input, persists the list
	// and clears the input. Empty titles are accepted. It fails without
	// writing while the mirror cannot be read.
	Add(ctx context.Context) (domain.Task, error)

	// AddTitle is SetInput followed by Add.
	AddTitle(ctx context.Context, title string) (domain.Task, error)

	// Delete removes the first task with id and persists the list. An unknown
	// id leaves the list unchanged.
	Delete(ctx context.Context, id int) error
}

type taskStore struct {
	repo   repository.KVRepository
	logger *log.Logger
	debug  bool

	mu     sync.Mutex
	loaded bool
	tasks  []domain.Task
	nextID int
	input  string
}

// NewTaskStore creates a TaskStore over repo. A nil logger discards output;
// debug enables before/after traces of every mutation.
func NewTaskStore(repo repository.KVRepository, logger *log.Logger, debug bool) TaskStore {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &taskStore{
		repo:   repo,
		logger: logger,
		debug:  debug,
		nextID: 1,
	}
}

func (s *taskStore) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked(ctx)
}

// loadLocked hydrates the list on first use. The read ignores cancellation of
// ctx: hydration happens once and is shared by every later request. A failed
// read leaves the store unloaded so the next call tries again.
func (s *taskStore) loadLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	tasks, err := decodeTasks(context.WithoutCancel(ctx), s.repo, s.logger, s.debug)
	if err != nil {
		s.tasks = []domain.Task{}
		s.nextID = 1
		return err
	}
	s.loaded = true
	s.tasks = tasks

	maxID := 0
	for _, t := range s.tasks {
		maxID = max(maxID, t.ID)
	}
	s.nextID = maxID + 1
	return nil
}

// decodeTasks reads the mirror. Missing or malformed data counts as an empty
// list; only a failed read is returned as an error.
func decodeTasks(ctx context.Context, repo repository.KVRepository, logger *log.Logger, debug bool) ([]domain.Task, error) {
	raw, ok, err := repo.Get(ctx, TasksKey)
	if err != nil {
		if debug {
			logger.Printf("read %q: %v", TasksKey, err)
		}
		return nil, fmt.Errorf("read %q: %w", TasksKey, err)
	}
	if !ok {
		return []domain.Task{}, nil
	}
	var tasks []domain.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		if debug {
			logger.Printf("parse %q: %v", TasksKey, err)
		}
		return []domain.Task{}, nil
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (s *taskStore) Tasks(ctx context.Context) []domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked(ctx)
	return slices.Clone(s.tasks)
}

func (s *taskStore) NextID(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.loadLocked(ctx)
	return s.nextID
}

func (s *taskStore) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *taskStore) SetInput(v string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = v
}

func (s *taskStore) AddTitle(ctx context.Context, title string) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.input = title
	return s.addLocked(ctx)
}

func (s *taskStore) Add(ctx context.Context) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(ctx)
}

func (s *taskStore) addLocked(ctx context.Context) (domain.Task, error) {
	// Writing without a successful load would overwrite tasks we never saw.
	if err := s.loadLocked(ctx); err != nil {
		return domain.Task{}, err
	}
	s.trace("Before", s.tasks)
	if s.debug {
		s.logger.Printf("New Task: %q", s.input)
	}

	task := domain.Task{ID: s.nextID, Title: s.input, Description: ""}
	updated := append(slices.Clone(s.tasks), task)
	if err := s.persist(ctx, updated); err != nil {
		return domain.Task{}, err
	}

	s.tasks = updated
	s.nextID++
	s.input = ""
	s.trace("After", s.tasks)
	return task, nil
}

func (s *taskStore) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadLocked(ctx); err != nil {
		return err
	}
	s.trace("Before", s.tasks)

	updated := slices.Clone(s.tasks)
	if i := slices.IndexFunc(updated, func(t domain.Task) bool { return t.ID == id }); i >= 0 {
		updated = slices.Delete(updated, i, i+1)
	}
	if err := s.persist(ctx, updated); err != nil {
		return err
	}

	s.tasks = updated
	s.trace("After", s.tasks)
	return nil
}

// persist overwrites the mirror with the full list.
func (s *taskStore) persist(ctx context.Context, tasks []domain.Task) error {
	b, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := s.repo.Set(ctx, TasksKey, string(b)); err != nil {
		return fmt.Errorf("write %q: %w", TasksKey, err)
	}
	return nil
}

func (s *taskStore) trace(label string, tasks []domain.Task) {
	if !s.debug {
		return
	}
	s.logger.Printf("%s: %+v", label, tasks)
}
