// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package category_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dobalito/api/internal/core/category"
	"github.com/dobalito/api/internal/platform/middleware"
	"github.com/dobalito/api/internal/platform/sec"
)

type tokenResolver struct{}

func (tokenResolver) ResolveIdentity(_ context.Context, token string) sec.Identity {
	if token == "admin" {
		return sec.Authenticated{UserID: 1}
	}
	return sec.Anonymous{}
}

func newRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(tokenResolver{}, "jwt_token"))
	router.Mount("/categories", category.NewHandler(newService()).Routes())
	return router
}

func call(router http.Handler, method, target, body string, authenticated bool) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, strings.NewReader(body))
	if authenticated {
		request.Header.Set("Authorization", "Bearer admin")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	return body
}

func TestHandler_Lifecycle(t *testing.T) {
	router := newRouter()

	anonymous := call(router, http.MethodPost, "/categories", `{"name":"Ремонт","english_name":"Repair"}`, false)
	assert.Equal(t, http.StatusUnauthorized, anonymous.Code)

	created := call(router, http.MethodPost, "/categories", `{"name":"Ремонт","english_name":"Repair","color":"#FF9800"}`, true)
	require.Equal(t, http.StatusCreated, created.Code)
	var stored category.Category
	require.NoError(t, json.Unmarshal(decode(t, created).Data, &stored))
	assert.Equal(t, "repair", stored.Slug)

	duplicate := call(router, http.MethodPost, "/categories", `{"name":"Ремонт","english_name":"Fixing"}`, true)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
	assert.Equal(t, "CONFLICT", decode(t, duplicate).Code)

	fetched := call(router, http.MethodGet, "/categories/1", "", false)
	assert.Equal(t, http.StatusOK, fetched.Code)

	deactivated := call(router, http.MethodPut, "/categories/1/deactivate", "", true)
	assert.Equal(t, http.StatusOK, deactivated.Code)

	listed := call(router, http.MethodGet, "/categories?active=true", "", false)
	require.Equal(t, http.StatusOK, listed.Code)
	assert.JSONEq(t, `[]`, string(decode(t, listed).Data))

	searched := call(router, http.MethodGet, "/categories?q=REP", "", false)
	var found []category.Category
	require.NoError(t, json.Unmarshal(decode(t, searched).Data, &found))
	assert.Len(t, found, 1)

	deleted := call(router, http.MethodDelete, "/categories/1", "", true)
	assert.Equal(t, http.StatusNoContent, deleted.Code)

	missing := call(router, http.MethodGet, "/categories/1", "", false)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestHandler_BadRequests(t *testing.T) {
	router := newRouter()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   int
	}{
		{"non_numeric_id", http.MethodGet, "/categories/abc", "", http.StatusBadRequest},
		{"invalid_json", http.MethodPost, "/categories", `{`, http.StatusBadRequest},
		{"validation", http.MethodPost, "/categories", `{"name":""}`, http.StatusBadRequest},
		{"update_missing", http.MethodPut, "/categories/42", `{"name":"x"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := call(router, tt.method, tt.target, tt.body, true)
			assert.Equal(t, tt.want, recorder.Code)
		})
	}
}
