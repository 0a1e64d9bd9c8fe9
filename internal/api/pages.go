// ABOUTME: SEO page endpoints for the REST API
// ABOUTME: CRUD plus a rendered markdown preview with metadata warnings

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/shop-admin/internal/seo"
	"github.com/2389/shop-admin/internal/store"
)

func validatePage(req *PageRequest) error {
	req.Slug = strings.TrimSpace(req.Slug)
	req.Title = strings.TrimSpace(req.Title)
	if req.Slug == "" || req.Title == "" {
		return errors.New("slug and title are required")
	}
	return nil
}

// handleListPages handles GET /api/pages.
func (a *API) handleListPages(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r)
	if !ok {
		a.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	pages, err := a.store.ListPages(r.Context(), limit)
	if err != nil {
		a.sendStoreError(w, "list pages", err)
		return
	}

	resp := make([]PageResponse, 0, len(pages))
	for _, p := range pages {
		resp = append(resp, toPageResponse(p))
	}
	a.sendJSON(w, http.StatusOK, resp)
}

// handleCreatePage handles POST /api/pages.
func (a *API) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validatePage(&req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := a.now().UTC()
	p := &store.SEOPage{
		ID:              uuid.New().String(),
		Slug:            req.Slug,
		Title:           req.Title,
		MetaDescription: req.MetaDescription,
		BodyMarkdown:    req.BodyMarkdown,
		Published:       req.Published,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := a.store.CreatePage(r.Context(), p); err != nil {
		a.sendStoreError(w, "create page", err)
		return
	}

	a.sendJSON(w, http.StatusCreated, toPageResponse(p))
}

// handleGetPage handles GET /api/pages/{id}.
func (a *API) handleGetPage(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPage(r.Context(), r.PathValue("id"))
	if err != nil {
		a.sendStoreError(w, "get page", err)
		return
	}
	a.sendJSON(w, http.StatusOK, toPageResponse(p))
}

// handleUpdatePage handles PUT /api/pages/{id}.
func (a *API) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	var req PageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := validatePage(&req); err != nil {
		a.sendJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	p, err := a.store.GetPage(ctx, r.PathValue("id"))
	if err != nil {
		a.sendStoreError(w, "get page", err)
		return
	}

	p.Slug = req.Slug
	p.Title = req.Title
	p.MetaDescription = req.MetaDescription
	p.BodyMarkdown = req.BodyMarkdown
	p.Published = req.Published
	p.UpdatedAt = a.now().UTC()

	if err := a.store.UpdatePage(ctx, p); err != nil {
		a.sendStoreError(w, "update page", err)
		return
	}
	a.sendJSON(w, http.StatusOK, toPageResponse(p))
}

// handleDeletePage handles DELETE /api/pages/{id}.
func (a *API) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.store.DeletePage(r.Context(), id); err != nil {
		a.sendStoreError(w, "delete page", err)
		return
	}
	a.logger.Info("page deleted", "id", id)
	w.WriteHeader(http.StatusNoContent)
}

// handlePreviewPage handles GET /api/pages/{id}/preview.
func (a *API) handlePreviewPage(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPage(r.Context(), r.PathValue("id"))
	if err != nil {
		a.sendStoreError(w, "get page", err)
		return
	}

	preview, err := seo.BuildPreview(p)
	if err != nil {
		a.logger.Error("failed to render page preview", "id", p.ID, "error", err)
		a.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	a.sendJSON(w, http.StatusOK, preview)
}
