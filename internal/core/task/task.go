// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package task implements the marketplace: posting tasks, accepting them
// as an executor, and moving them through their lifecycle.
//
// # Lifecycle
//
//	OPEN ──accept──▶ IN_PROGRESS ──▶ COMPLETED
//	  │                 │  │
//	  ▼                 │  └──release──▶ OPEN
//	CANCELLED ◀─────────┘
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/dobalito/api/pkg/pagination"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusOpen       Status = "OPEN"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Field names used in validation errors.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldCategoryID  = "category_id"
	FieldStatus      = "status"
	FieldScope       = "scope"
)

// MaxTitleLength matches the title column.
const MaxTitleLength = 255

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{StatusOpen, StatusInProgress, StatusCompleted, StatusCancelled}

// transitions holds the status changes a creator may request.
var transitions = map[Status][]Status{
	StatusOpen:       {StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled, StatusOpen},
}

// ParseStatus accepts a status name in any case.
func ParseStatus(value string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, known := range AllStatuses {
		if status == known {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown_task_status: %q", value)
}

// IsClosed reports whether no further work happens on the task.
func (status Status) IsClosed() bool {
	return status == StatusCompleted || status == StatusCancelled
}

// CanTransitionTo reports whether a creator may move a task from status to next.
func (status Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Task is a job posted by a creator and optionally taken by an executor.
type Task struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	Status       Status    `json:"status"`
	CreatorID    int64     `json:"creator_id"`
	CreatorName  string    `json:"creator_name,omitempty"`
	ExecutorID   *int64    `json:"executor_id,omitempty"`
	ExecutorName *string   `json:"executor_name,omitempty"`
	CategoryID   int64     `json:"category_id"`
	CategoryName string    `json:"category_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsCreator reports whether userID posted the task.
func (task *Task) IsCreator(userID int64) bool {
	return task.CreatorID == userID
}

// Scope groups statuses for the "my tasks" listing.
type Scope string

const (
	ScopeAll    Scope = ""
	ScopeOpen   Scope = "open"
	ScopeClosed Scope = "closed"
)

// Statuses returns the statuses a scope covers, or nil for all.
func (scope Scope) Statuses() []Status {
	switch scope {
	case ScopeOpen:
		return []Status{StatusOpen, StatusInProgress}
	case ScopeClosed:
		return []Status{StatusCompleted, StatusCancelled}
	}
	return nil
}

// Query selects a page of tasks. Zero-valued IDs do not filter.
type Query struct {
	CreatorID  int64
	ExecutorID int64
	CategoryID int64
	Statuses   []Status
	Unassigned bool
	Page       pagination.Params
}

// Stats summarises the caller's tasks.
type Stats struct {
	Open               int `json:"open_tasks"`
	InProgress         int `json:"in_progress_tasks"`
	Completed          int `json:"completed_tasks"`
	Cancelled          int `json:"cancelled_tasks"`
	AssignedInProgress int `json:"assigned_in_progress_tasks"`
	AssignedCompleted  int `json:"assigned_completed_tasks"`
	TotalOpen          int `json:"total_open_tasks"`
}
