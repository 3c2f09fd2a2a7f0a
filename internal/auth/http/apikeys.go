package http

import (
	"net/http"

	"github.com/aussiebroadwan/keystone/internal/auth/domain"
	"github.com/aussiebroadwan/keystone/internal/auth/service"
	"github.com/aussiebroadwan/keystone/pkg/authsdk"
	"github.com/aussiebroadwan/keystone/pkg/httpx"
	"github.com/aussiebroadwan/keystone/pkg/idx"
)

// APIKeysHandler handles the API key administration endpoints.
type APIKeysHandler struct {
	APIKeyService *service.APIKeyService
}

func toSDKKey(k domain.APIKey) authsdk.APIKey {
	return authsdk.APIKey{
		ID:          k.ID,
		Name:        k.Name,
		Description: k.Description,
		Key:         k.Key,
		IsActive:    k.IsActive,
		StartDate:   k.StartDate,
		EndDate:     k.EndDate,
		CreatedAt:   k.CreatedAt,
		UpdatedAt:   k.UpdatedAt,
	}
}

func toCredentials(k *domain.APIKeyWithSecret) authsdk.APIKeyCredentials {
	return authsdk.APIKeyCredentials{ID: k.ID, Key: k.Key, Secret: k.Secret}
}

// pathID validates the {id} path value. Unparseable ids cannot exist so
// they are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := idx.Parse(r.PathValue("id"))
	if err != nil {
		authsdk.ErrNotFound.WriteError(w)
		return "", false
	}
	return id.String(), true
}

// HandleList handles GET /v1/api-keys
//
//	@Summary		List API keys
//	@Tags			API Keys
//	@Produce		json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.APIKeyListResponse
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"permission_denied"
//	@Router			/v1/api-keys [get].
func (h *APIKeysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	keys, err := h.APIKeyService.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := authsdk.APIKeyListResponse{APIKeys: make([]authsdk.APIKey, len(keys))}
	for i, k := range keys {
		resp.APIKeys[i] = toSDKKey(k)
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleGet handles GET /v1/api-keys/{id}
//
//	@Summary		Get an API key
//	@Tags			API Keys
//	@Produce		json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			id	path		string	true	"API key id"
//	@Success		200	{object}	authsdk.APIKey
//	@Failure		401	{object}	authsdk.ErrorResponse
//	@Failure		403	{object}	authsdk.ErrorResponse	"permission_denied"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/api-keys/{id} [get].
func (h *APIKeysHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	key, err := h.APIKeyService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toSDKKey(key))
}

// HandleCreate handles POST /v1/api-keys
//
//	@Summary		Create an API key
//	@Description	Generates a key and secret. The secret is only ever returned by this call and by reset.
//	@Tags			API Keys
//	@Accept			json
//	@Produce		json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			request	body		authsdk.CreateAPIKeyRequest	true	"Name and optional validity window"
//	@Success		201		{object}	authsdk.APIKeyCredentials
//	@Failure		400		{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		401		{object}	authsdk.ErrorResponse
//	@Failure		403		{object}	authsdk.ErrorResponse	"permission_denied"
//	@Router			/v1/api-keys [post].
func (h *APIKeysHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req authsdk.CreateAPIKeyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, "request body must be a JSON api key object")
		return
	}

	created, err := h.APIKeyService.Create(r.Context(), service.APIKeyInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, toCredentials(created))
}

// HandleUpdate handles PUT /v1/api-keys/{id}
//
//	@Summary		Rename an API key
//	@Tags			API Keys
//	@Accept			json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			id		path	string						true	"API key id"
//	@Param			request	body	authsdk.UpdateAPIKeyRequest	true	"Name and description"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/api-keys/{id} [put].
func (h *APIKeysHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateAPIKeyRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, "request body must be a JSON api key object")
		return
	}

	if err := h.APIKeyService.UpdateName(r.Context(), id, req.Name, req.Description); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleReset handles PATCH /v1/api-keys/{id}/reset
//
//	@Summary		Reset an API key secret
//	@Description	Generates a new secret. The previous secret stops working immediately.
//	@Tags			API Keys
//	@Produce		json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			id	path		string	true	"API key id"
//	@Success		200	{object}	authsdk.APIKeyCredentials
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/api-keys/{id}/reset [patch].
func (h *APIKeysHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	reset, err := h.APIKeyService.Reset(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toCredentials(reset))
}

// HandleSetActive returns the handler for PATCH /v1/api-keys/{id}/active
// and /inactive.
//
//	@Summary		Activate or deactivate an API key
//	@Tags			API Keys
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			id	path	string	true	"API key id"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/api-keys/{id}/active [patch]
//	@Router			/v1/api-keys/{id}/inactive [patch].
func (h *APIKeysHandler) HandleSetActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		if err := h.APIKeyService.SetActive(r.Context(), id, active); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleUpdateDates handles PUT /v1/api-keys/{id}/date
//
//	@Summary		Set an API key validity window
//	@Description	Replaces both bounds. A null bound is cleared.
//	@Tags			API Keys
//	@Accept			json
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			id		path	string								true	"API key id"
//	@Param			request	body	authsdk.UpdateAPIKeyDatesRequest	true	"Validity window"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid_request"
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/api-keys/{id}/date [put].
func (h *APIKeysHandler) HandleUpdateDates(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req authsdk.UpdateAPIKeyDatesRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		invalidRequest(w, "request body must be a JSON date window")
		return
	}

	if err := h.APIKeyService.UpdateDates(r.Context(), id, req.StartDate, req.EndDate); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /v1/api-keys/{id}
//
//	@Summary		Delete an API key
//	@Tags			API Keys
//	@Security		APIKeyAuth
//	@Security		BearerAuth
//	@Param			id	path	string	true	"API key id"
//	@Success		204
//	@Failure		404	{object}	authsdk.ErrorResponse	"not_found"
//	@Router			/v1/api-keys/{id} [delete].
func (h *APIKeysHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.APIKeyService.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
