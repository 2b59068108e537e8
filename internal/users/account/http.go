// Copyright (c) 2026 Dobalito. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dobalito/api/internal/platform/apperr"
	"github.com/dobalito/api/internal/platform/constants"
	"github.com/dobalito/api/internal/platform/middleware"
	requestutil "github.com/dobalito/api/internal/platform/request"
	"github.com/dobalito/api/internal/platform/respond"
	"github.com/dobalito/api/internal/platform/validate"
	"github.com/dobalito/api/internal/users/auth"
	"github.com/dobalito/api/pkg/pagination"
	"github.com/dobalito/api/pkg/slice"
)

// avatarFormField is the multipart field carrying the image.
const avatarFormField = "file"

// Handler implements the HTTP layer for user account management.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public
	router.Get("/avatar/{filename}", handler.getAvatar)

	// Authenticated
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/profile", handler.getProfile)
		r.Put("/profile", handler.updateProfile)
		r.Get("/profile/categories", handler.getMySpecializations)
		r.Put("/profile/categories", handler.setMySpecializations)
		r.Post("/avatar", handler.uploadAvatar)
		r.Delete("/avatar", handler.deleteAvatar)

		r.Get("/executors", handler.listExecutors)
		r.Get("/search", handler.searchUsers)
		r.Get("/by-category/{categoryId}", handler.listByCategory)

		r.Get("/{id}", handler.getUser)
		r.Get("/{id}/categories", handler.getUserSpecializations)
	})

	return router
}

// # User Profile Endpoints

/*
GET /api/v1/users/profile.

Description: Retrieves the profile of the authenticated user.

Response:
  - 200: PublicUser
  - 401: Authentication required
*/
func (handler *Handler) getProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Public())
}

// updateProfileRequest defines the expected JSON payload for profile updates.
type updateProfileRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

/*
PUT /api/v1/users/profile.

Description: Updates the name and/or email of the authenticated user.

Response:
  - 200: PublicUser
  - 400: Invalid input data
  - 409: Email already in use
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(auth.FieldName, *input.Name).MaxLen(auth.FieldName, *input.Name, auth.MaxNameLength)
	}
	if input.Email != nil {
		validator.Required(auth.FieldEmail, *input.Email).Email(auth.FieldEmail, *input.Email)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		Name:  input.Name,
		Email: input.Email,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Public())
}

/*
GET /api/v1/users/{id}.

Response:
  - 200: PublicUser
  - 404: User not found
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetProfile(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user.Public())
}

// # Executor Directory Endpoints

func publicUsers(users []*auth.User) []auth.PublicUser {
	public := slice.Map(users, func(user *auth.User) auth.PublicUser { return user.Public() })
	if public == nil {
		public = []auth.PublicUser{}
	}
	return public
}

/*
GET /api/v1/users/executors.

Response:
  - 200: []PublicUser with pagination meta
*/
func (handler *Handler) listExecutors(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	users, total, err := handler.accountService.ListExecutors(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, publicUsers(users), pagination.NewMeta(page.Page, page.Limit, total))
}

/*
GET /api/v1/users/search?q=.

Response:
  - 200: []PublicUser with pagination meta
  - 400: Missing or overlong search term
*/
func (handler *Handler) searchUsers(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	users, total, err := handler.accountService.Search(request.Context(), request.URL.Query().Get(FieldSearch), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, publicUsers(users), pagination.NewMeta(page.Page, page.Limit, total))
}

/*
GET /api/v1/users/by-category/{categoryId}.

Response:
  - 200: []PublicUser with pagination meta
  - 404: Category not found
*/
func (handler *Handler) listByCategory(writer http.ResponseWriter, request *http.Request) {
	categoryID, err := requestutil.Int64Param(request, "categoryId")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	page := pagination.FromRequest(request)

	users, total, err := handler.accountService.ListByCategory(request.Context(), categoryID, page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, publicUsers(users), pagination.NewMeta(page.Page, page.Limit, total))
}

// GET /api/v1/users/profile/categories.
func (handler *Handler) getMySpecializations(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	specializations, err := handler.accountService.Specializations(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, specializations)
}

type specializationsRequest struct {
	CategoryIDs []int64 `json:"category_ids"`
}

/*
PUT /api/v1/users/profile/categories.

Description: Replaces the categories the caller works in.

Request:
  - Body: {"category_ids": [1, 2]}

Response:
  - 200: []Specialization
  - 400: Unknown category or too many categories
*/
func (handler *Handler) setMySpecializations(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input specializationsRequest
	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}
	if input.CategoryIDs == nil {
		respond.Error(writer, request, validate.RequiredError(FieldCategoryIDs, "This field is required"))
		return
	}

	specializations, err := handler.accountService.SetSpecializations(request.Context(), userID, input.CategoryIDs)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, specializations)
}

// GET /api/v1/users/{id}/categories.
func (handler *Handler) getUserSpecializations(writer http.ResponseWriter, request *http.Request) {
	id, err := requestutil.Int64Param(request, "id")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	specializations, err := handler.accountService.Specializations(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, specializations)
}

// # Avatar Endpoints

/*
POST /api/v1/users/avatar.

Description: Accepts a multipart upload in the 'file' field.

Response:
  - 200: {avatarUrl}
  - 400: Missing file, oversized or not an image
*/
func (handler *Handler) uploadAvatar(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Leave room for multipart framing around the file itself.
	request.Body = http.MaxBytesReader(writer, request.Body, MaxAvatarSize+(1<<20))

	file, _, err := request.FormFile(avatarFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(writer, request, apperr.ValidationError("File must not exceed 5 MB"))
			return
		}
		respond.Error(writer, request, validate.RequiredError(avatarFormField, "An image file is required"))
		return
	}
	defer file.Close()

	avatarURL, err := handler.accountService.UploadAvatar(request.Context(), userID, file)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{"avatarUrl": avatarURL})
}

/*
DELETE /api/v1/users/avatar.

Response:
  - 204: Avatar removed
  - 404: No avatar set
*/
func (handler *Handler) deleteAvatar(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.accountService.DeleteAvatar(request.Context(), userID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
GET /api/v1/users/avatar/{filename}.

Description: Streams a stored avatar with a one-hour public cache policy.
Range and If-Modified-Since requests are honoured.
*/
func (handler *Handler) getAvatar(writer http.ResponseWriter, request *http.Request) {
	filename := requestutil.Param(request, "filename")

	file, modified, err := handler.accountService.OpenAvatar(request.Context(), filename)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	defer file.Close()

	writer.Header().Set(constants.HeaderCacheControl, AvatarCacheControl)
	http.ServeContent(writer, request, filename, modified, file)
}
