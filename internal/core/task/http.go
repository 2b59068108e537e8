// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package task

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dobalito/api/internal/platform/middleware"
	requestutil "github.com/dobalito/api/internal/platform/request"
	"github.com/dobalito/api/internal/platform/respond"
	"github.com/dobalito/api/internal/platform/validate"
	"github.com/dobalito/api/pkg/pagination"
	"github.com/dobalito/api/pkg/query"
)

// Handler implements the HTTP layer for tasks.
type Handler struct {
	service *Service
}

// NewHandler constructs a new task [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// statusChangeRequest is the body of PUT /tasks/{id}/status.
type statusChangeRequest struct {
	Status string `json:"status"`
}

// Routes returns a [chi.Router] with the task endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/open", handler.listOpen)
	router.Get("/category/{categoryId}", handler.listByCategory)

	// Authenticated
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/", handler.createTask)
		r.Get("/my", handler.listMine)
		r.Get("/assigned", handler.listAssigned)
		r.Get("/stats", handler.getStats)
		r.Put("/{id}", handler.updateTask)
		r.Delete("/{id}", handler.deleteTask)
		r.Post("/{id}/accept", handler.acceptTask)
		r.Put("/{id}/status", handler.changeStatus)
	})

	router.Get("/{id}", handler.getTask)

	return router
}

// # Listings

/*
GET /api/v1/tasks/open.

Description: The marketplace feed, newest first.

Response:
  - 200: []Task with pagination meta
*/
func (handler *Handler) listOpen(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	tasks, total, err := handler.service.ListOpen(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, tasks, pagination.NewMeta(page.Page, page.Limit, total))
}

/*
GET /api/v1/tasks/my.

Query:
  - scope: "open" (OPEN, IN_PROGRESS) or "closed" (COMPLETED, CANCELLED)
  - status: comma-separated statuses; overrides scope
*/
func (handler *Handler) listMine(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	scope := Scope(request.URL.Query().Get(FieldScope))
	if scope != ScopeAll {
		v := &validate.Validator{}
		if err := v.OneOf(FieldScope, string(scope), string(ScopeOpen), string(ScopeClosed)).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	statuses, err := statusFilter(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	tasks, total, err := handler.service.ListCreated(request.Context(), userID, scope, statuses, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, tasks, pagination.NewMeta(page.Page, page.Limit, total))
}

func (handler *Handler) listAssigned(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	statuses, err := statusFilter(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	tasks, total, err := handler.service.ListAssigned(request.Context(), userID, statuses, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, tasks, pagination.NewMeta(page.Page, page.Limit, total))
}

func (handler *Handler) listByCategory(writer http.ResponseWriter, request *http.Request) {
	categoryID, err := requestutil.Int64Param(request, "categoryId")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	statuses, err := statusFilter(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	tasks, total, err := handler.service.ListByCategory(request.Context(), categoryID, statuses, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, tasks, pagination.NewMeta(page.Page, page.Limit, total))
}

func (handler *Handler) getStats(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	stats, err := handler.service.Stats(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stats)
}

// # Single Task

func (handler *Handler) getTask(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, task)
}

/*
POST /api/v1/tasks.

Request:
  - title, start_date, end_date, category_id: required
  - description: optional

Response:
  - 201: Task (status OPEN)
  - 400: Validation failed or unknown category
*/
func (handler *Handler) createTask(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.service.Create(request.Context(), userID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, task)
}

func (handler *Handler) updateTask(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := callerAndTask(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.service.Update(request.Context(), userID, id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, task)
}

func (handler *Handler) deleteTask(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := callerAndTask(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), userID, id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

/*
POST /api/v1/tasks/{id}/accept.

Response:
  - 200: Task (status IN_PROGRESS, executor set to the caller)
  - 403: Caller created the task
  - 409: Task is no longer open
*/
func (handler *Handler) acceptTask(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := callerAndTask(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	task, err := handler.service.Accept(request.Context(), userID, id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, task)
}

func (handler *Handler) changeStatus(writer http.ResponseWriter, request *http.Request) {
	userID, id, err := callerAndTask(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var body statusChangeRequest
	if err := requestutil.DecodeJSON(writer, request, &body); err != nil {
		respond.Error(writer, request, err)
		return
	}
	next, err := ParseStatus(body.Status)
	if err != nil {
		respond.Error(writer, request, statusError())
		return
	}

	task, err := handler.service.ChangeStatus(request.Context(), userID, id, next)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, task)
}

// # Helpers

func callerAndTask(request *http.Request) (int64, int64, error) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		return 0, 0, err
	}
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		return 0, 0, err
	}
	return userID, id, nil
}

// statusFilter parses the optional comma-separated ?status= parameter.
func statusFilter(request *http.Request) ([]Status, error) {
	values := query.StringSlice(request.URL.Query().Get(FieldStatus))
	statuses := make([]Status, 0, len(values))
	for _, value := range values {
		status, err := ParseStatus(value)
		if err != nil {
			return nil, statusError()
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func statusError() error {
	return validate.RequiredError(FieldStatus, "Must be one of: OPEN, IN_PROGRESS, COMPLETED, CANCELLED")
}
