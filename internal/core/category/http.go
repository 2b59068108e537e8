// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dobalito/api/internal/platform/middleware"
	requestutil "github.com/dobalito/api/internal/platform/request"
	"github.com/dobalito/api/internal/platform/respond"
	"github.com/dobalito/api/pkg/convert"
)

// Handler implements the HTTP layer for categories.
type Handler struct {
	service *Service
}

// NewHandler constructs a new category [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] with the category endpoints. Reads are
// public; changes require a signed-in caller.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", handler.listCategories)
	router.Get("/{id}", handler.getCategory)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/", handler.createCategory)
		r.Put("/{id}", handler.updateCategory)
		r.Put("/{id}/activate", handler.activateCategory)
		r.Put("/{id}/deactivate", handler.deactivateCategory)
		r.Delete("/{id}", handler.deleteCategory)
	})

	return router
}

/*
GET /api/v1/categories.

Query:
  - active: "true" to hide deactivated categories
  - q: case-insensitive search over both names
*/
func (handler *Handler) listCategories(writer http.ResponseWriter, request *http.Request) {
	query := request.URL.Query()
	categories, err := handler.service.List(request.Context(), Filter{
		ActiveOnly: convert.ToBool(query.Get("active")),
		Search:     query.Get("q"),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, categories)
}

func (handler *Handler) getCategory(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.Get(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, category)
}

func (handler *Handler) createCategory(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Created(writer, category)
}

func (handler *Handler) updateCategory(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.Update(request.Context(), id, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, category)
}

func (handler *Handler) activateCategory(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, true)
}

func (handler *Handler) deactivateCategory(writer http.ResponseWriter, request *http.Request) {
	handler.setActive(writer, request, false)
}

func (handler *Handler) setActive(writer http.ResponseWriter, request *http.Request, active bool) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	category, err := handler.service.SetActive(request.Context(), id, active)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, category)
}

// deleteCategory answers 409 while tasks still reference the category.
func (handler *Handler) deleteCategory(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.Delete(request.Context(), id); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}
