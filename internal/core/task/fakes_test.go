// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task_test

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/dobalito/api/internal/core/task"
	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/pkg/pointer"
)

var baseTime = time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)

type memoryRepository struct {
	mu     sync.Mutex
	nextID int64
	tasks  map[int64]*task.Task
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{tasks: make(map[int64]*task.Task)}
}

func (repository *memoryRepository) Create(_ context.Context, t *task.Task) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	repository.nextID++
	t.ID = repository.nextID
	t.CreatedAt = baseTime.Add(time.Duration(t.ID) * time.Minute)
	t.UpdatedAt = t.CreatedAt
	clone := *t
	repository.tasks[t.ID] = &clone
	return nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id int64) (*task.Task, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.tasks[id]
	if !ok {
		return nil, apperr.NotFound("Task")
	}
	clone := *stored
	return &clone, nil
}

func (repository *memoryRepository) List(_ context.Context, query task.Query) ([]*task.Task, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	matches := make([]*task.Task, 0)
	for _, stored := range repository.tasks {
		if query.CreatorID != 0 && stored.CreatorID != query.CreatorID {
			continue
		}
		if query.ExecutorID != 0 && (stored.ExecutorID == nil || *stored.ExecutorID != query.ExecutorID) {
			continue
		}
		if query.CategoryID != 0 && stored.CategoryID != query.CategoryID {
			continue
		}
		if query.Unassigned && stored.ExecutorID != nil {
			continue
		}
		if len(query.Statuses) > 0 && !containsStatus(query.Statuses, stored.Status) {
			continue
		}
		clone := *stored
		matches = append(matches, &clone)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID > matches[j].ID })

	total := len(matches)
	start := min(query.Page.Offset(), total)
	end := min(start+query.Page.Limit, total)
	return matches[start:end], total, nil
}

func (repository *memoryRepository) Update(_ context.Context, t *task.Task) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.tasks[t.ID]
	if !ok {
		return apperr.NotFound("Task")
	}
	stored.Title = t.Title
	stored.Description = t.Description
	stored.StartDate = t.StartDate
	stored.EndDate = t.EndDate
	stored.CategoryID = t.CategoryID
	return nil
}

func (repository *memoryRepository) Assign(_ context.Context, id, executorID int64) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.tasks[id]
	if !ok || stored.Status != task.StatusOpen || stored.ExecutorID != nil || stored.CreatorID == executorID {
		return false, nil
	}
	stored.ExecutorID = pointer.To(executorID)
	stored.Status = task.StatusInProgress
	return true, nil
}

func (repository *memoryRepository) ChangeStatus(_ context.Context, id int64, from, to task.Status, releaseExecutor bool) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	stored, ok := repository.tasks[id]
	if !ok || stored.Status != from {
		return false, nil
	}
	stored.Status = to
	if releaseExecutor {
		stored.ExecutorID = nil
	}
	return true, nil
}

func (repository *memoryRepository) Delete(_ context.Context, id int64) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if _, ok := repository.tasks[id]; !ok {
		return apperr.NotFound("Task")
	}
	delete(repository.tasks, id)
	return nil
}

func (repository *memoryRepository) CountByCreator(_ context.Context, creatorID int64) (map[task.Status]int, error) {
	return repository.count(func(t *task.Task) bool { return t.CreatorID == creatorID }), nil
}

func (repository *memoryRepository) CountByExecutor(_ context.Context, executorID int64) (map[task.Status]int, error) {
	return repository.count(func(t *task.Task) bool { return t.ExecutorID != nil && *t.ExecutorID == executorID }), nil
}

func (repository *memoryRepository) CountOpenUnassigned(_ context.Context) (int, error) {
	counts := repository.count(func(t *task.Task) bool { return t.ExecutorID == nil })
	return counts[task.StatusOpen], nil
}

func (repository *memoryRepository) count(match func(*task.Task) bool) map[task.Status]int {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	counts := make(map[task.Status]int)
	for _, stored := range repository.tasks {
		if match(stored) {
			counts[stored.Status]++
		}
	}
	return counts
}

func containsStatus(statuses []task.Status, status task.Status) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// knownCategories accepts the listed category IDs.
type knownCategories map[int64]bool

func (categories knownCategories) Exists(_ context.Context, id int64) (bool, error) {
	return categories[id], nil
}

// Users in the fixtures.
const (
	creator int64 = 1
	worker  int64 = 2
	other   int64 = 3
)

const categoryRepair int64 = 10

type fixture struct {
	repo    *memoryRepository
	service *task.Service
}

func newFixture() *fixture {
	repo := newMemoryRepository()
	service := task.NewService(repo, knownCategories{categoryRepair: true, 11: true},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		task.WithClock(func() time.Time { return baseTime }),
	)
	return &fixture{repo: repo, service: service}
}

func validInput() task.CreateInput {
	return task.CreateInput{
		Title:      "Fix the kitchen tap",
		StartDate:  pointer.To(baseTime.Add(24 * time.Hour)),
		EndDate:    pointer.To(baseTime.Add(48 * time.Hour)),
		CategoryID: categoryRepair,
	}
}
