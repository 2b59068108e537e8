// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/validate"
	"github.com/dobalito/api/pkg/pagination"
)

// CategoryChecker confirms that a category exists before tasks reference it.
type CategoryChecker interface {
	Exists(context context.Context, id int64) (bool, error)
}

// # Service Layer

// Service orchestrates task business rules.
type Service struct {
	repo       Repository
	categories CategoryChecker
	logger     *slog.Logger
	now        func() time.Time
}

// Option customizes a [Service].
type Option func(*Service)

// WithClock replaces the wall clock. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(service *Service) { service.now = now }
}

// NewService constructs a new task [Service].
func NewService(repo Repository, categories CategoryChecker, logger *slog.Logger, options ...Option) *Service {
	service := &Service{
		repo:       repo,
		categories: categories,
		logger:     logger,
		now:        time.Now,
	}
	for _, option := range options {
		option(service)
	}
	return service
}

// CreateInput is the payload for posting a task.
type CreateInput struct {
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CategoryID  int64      `json:"category_id"`
}

// UpdateInput carries the fields to change. Nil fields are left as they are.
type UpdateInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	CategoryID  *int64     `json:"category_id"`
}

// # Posting

/*
Create posts a new OPEN task on behalf of creatorID.

Returns:
  - *Task: The stored task
  - error: Validation (including an unknown category) or Storage errors
*/
func (service *Service) Create(context context.Context, creatorID int64, input CreateInput) (*Task, error) {
	v := &validate.Validator{}
	title := strings.TrimSpace(input.Title)
	v.Required(FieldTitle, title).MaxLen(FieldTitle, title, MaxTitleLength)
	v.Positive(FieldCategoryID, input.CategoryID)
	v.Custom(FieldStartDate, input.StartDate == nil, "This field is required")
	v.Custom(FieldEndDate, input.EndDate == nil, "This field is required")
	if input.StartDate != nil && input.EndDate != nil {
		v.Custom(FieldEndDate, input.EndDate.Before(*input.StartDate), "Must not be before start_date")
		v.Custom(FieldEndDate, !input.EndDate.After(service.now()), "Must be in the future")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := service.requireCategory(context, input.CategoryID); err != nil {
		return nil, err
	}

	task := &Task{
		Title:       title,
		Description: trimmed(input.Description),
		StartDate:   input.StartDate.UTC(),
		EndDate:     input.EndDate.UTC(),
		Status:      StatusOpen,
		CreatorID:   creatorID,
		CategoryID:  input.CategoryID,
	}
	if err := service.repo.Create(context, task); err != nil {
		return nil, err
	}

	service.logger.InfoContext(context, "task_created",
		slog.Int64("task_id", task.ID),
		slog.Int64("creator_id", creatorID),
		slog.Int64("category_id", task.CategoryID),
	)
	return service.repo.FindByID(context, task.ID)
}

// Update edits a task. Only its creator may do so, and only before it closes.
func (service *Service) Update(context context.Context, callerID, id int64, input UpdateInput) (*Task, error) {
	task, err := service.owned(context, callerID, id)
	if err != nil {
		return nil, err
	}
	if task.Status.IsClosed() {
		return nil, apperr.Unprocessable("Closed tasks cannot be edited")
	}

	if input.Title != nil {
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = trimmed(input.Description)
	}
	if input.StartDate != nil {
		task.StartDate = input.StartDate.UTC()
	}
	if input.EndDate != nil {
		task.EndDate = input.EndDate.UTC()
	}

	v := &validate.Validator{}
	v.Required(FieldTitle, task.Title).MaxLen(FieldTitle, task.Title, MaxTitleLength)
	v.Custom(FieldEndDate, task.EndDate.Before(task.StartDate), "Must not be before start_date")
	if input.CategoryID != nil {
		v.Positive(FieldCategoryID, *input.CategoryID)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if input.CategoryID != nil && *input.CategoryID != task.CategoryID {
		if err := service.requireCategory(context, *input.CategoryID); err != nil {
			return nil, err
		}
		task.CategoryID = *input.CategoryID
	}

	if err := service.repo.Update(context, task); err != nil {
		return nil, err
	}
	return service.repo.FindByID(context, id)
}

// Delete removes a task. Only its creator may do so.
func (service *Service) Delete(context context.Context, callerID, id int64) error {
	if _, err := service.owned(context, callerID, id); err != nil {
		return err
	}
	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.logger.InfoContext(context, "task_deleted",
		slog.Int64("task_id", id),
		slog.Int64("creator_id", callerID),
	)
	return nil
}

// # Lifecycle

/*
Accept makes executorID the executor of an open task and moves it to IN_PROGRESS.

Description: The write is conditional, so when two users race for the same
task exactly one wins and the other gets a Conflict.

Returns:
  - *Task: The accepted task
  - error: NotFound, Forbidden (own task) or Conflict (no longer open)
*/
func (service *Service) Accept(context context.Context, executorID, id int64) (*Task, error) {
	task, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if task.IsCreator(executorID) {
		return nil, apperr.Forbidden("You cannot accept your own task")
	}
	if task.Status != StatusOpen || task.ExecutorID != nil {
		return nil, apperr.Conflict("Task is no longer open")
	}

	assigned, err := service.repo.Assign(context, id, executorID)
	if err != nil {
		return nil, err
	}
	if !assigned {
		return nil, apperr.Conflict("Task is no longer open")
	}

	service.logger.InfoContext(context, "task_accepted",
		slog.Int64("task_id", id),
		slog.Int64("executor_id", executorID),
	)
	return service.repo.FindByID(context, id)
}

/*
ChangeStatus moves a task along its lifecycle on behalf of its creator.

Description: Allowed moves are OPEN→CANCELLED, IN_PROGRESS→COMPLETED,
IN_PROGRESS→CANCELLED and IN_PROGRESS→OPEN. The last one releases the executor.

Returns:
  - *Task: The updated task
  - error: NotFound, Forbidden, Unprocessable (illegal move) or Conflict
*/
func (service *Service) ChangeStatus(context context.Context, callerID, id int64, next Status) (*Task, error) {
	task, err := service.owned(context, callerID, id)
	if err != nil {
		return nil, err
	}
	if !task.Status.CanTransitionTo(next) {
		return nil, apperr.Unprocessable(fmt.Sprintf("Cannot change task status from %s to %s", task.Status, next))
	}

	changed, err := service.repo.ChangeStatus(context, id, task.Status, next, next == StatusOpen)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, apperr.Conflict("Task was modified by another request")
	}

	service.logger.InfoContext(context, "task_status_changed",
		slog.Int64("task_id", id),
		slog.String("from", string(task.Status)),
		slog.String("to", string(next)),
	)
	return service.repo.FindByID(context, id)
}

// # Queries

// Get returns a single task.
func (service *Service) Get(context context.Context, id int64) (*Task, error) {
	return service.repo.FindByID(context, id)
}

// ListOpen returns the marketplace: open tasks nobody has accepted yet.
func (service *Service) ListOpen(context context.Context, page pagination.Params) ([]*Task, int, error) {
	return service.repo.List(context, Query{
		Statuses:   []Status{StatusOpen},
		Unassigned: true,
		Page:       page,
	})
}

// ListCreated returns tasks posted by creatorID. Explicit statuses take
// precedence over scope.
func (service *Service) ListCreated(context context.Context, creatorID int64, scope Scope, statuses []Status, page pagination.Params) ([]*Task, int, error) {
	if len(statuses) == 0 {
		statuses = scope.Statuses()
	}
	return service.repo.List(context, Query{CreatorID: creatorID, Statuses: statuses, Page: page})
}

// ListAssigned returns tasks executorID has accepted.
func (service *Service) ListAssigned(context context.Context, executorID int64, statuses []Status, page pagination.Params) ([]*Task, int, error) {
	return service.repo.List(context, Query{ExecutorID: executorID, Statuses: statuses, Page: page})
}

// ListByCategory returns tasks filed under categoryID.
func (service *Service) ListByCategory(context context.Context, categoryID int64, statuses []Status, page pagination.Params) ([]*Task, int, error) {
	return service.repo.List(context, Query{CategoryID: categoryID, Statuses: statuses, Page: page})
}

// Stats counts userID's tasks per status, both posted and accepted.
func (service *Service) Stats(context context.Context, userID int64) (*Stats, error) {
	created, err := service.repo.CountByCreator(context, userID)
	if err != nil {
		return nil, err
	}
	assigned, err := service.repo.CountByExecutor(context, userID)
	if err != nil {
		return nil, err
	}
	open, err := service.repo.CountOpenUnassigned(context)
	if err != nil {
		return nil, err
	}

	return &Stats{
		Open:               created[StatusOpen],
		InProgress:         created[StatusInProgress],
		Completed:          created[StatusCompleted],
		Cancelled:          created[StatusCancelled],
		AssignedInProgress: assigned[StatusInProgress],
		AssignedCompleted:  assigned[StatusCompleted],
		TotalOpen:          open,
	}, nil
}

// # Helpers

// owned loads a task and checks that callerID created it.
func (service *Service) owned(context context.Context, callerID, id int64) (*Task, error) {
	task, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if !task.IsCreator(callerID) {
		return nil, apperr.Forbidden("Only the task creator can do this")
	}
	return task, nil
}

func (service *Service) requireCategory(context context.Context, id int64) error {
	exists, err := service.categories.Exists(context, id)
	if err != nil {
		return err
	}
	if !exists {
		return validate.RequiredError(FieldCategoryID, "Category does not exist")
	}
	return nil
}

// trimmed returns nil for blank values.
func trimmed(value *string) *string {
	if value == nil {
		return nil
	}
	s := strings.TrimSpace(*value)
	if s == "" {
		return nil
	}
	return &s
}
