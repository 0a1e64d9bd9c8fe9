// ABOUTME: SEO page editor for the admin UI
// ABOUTME: Markdown bodies preview through goldmark alongside metadata warnings

package webadmin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/shop-admin/internal/confirm"
	"github.com/2389/shop-admin/internal/seo"
	"github.com/2389/shop-admin/internal/store"
)

type pageForm struct {
	Action          string
	Slug            string
	Title           string
	MetaDescription string
	BodyMarkdown    string
	Published       bool
}

func pageFormFrom(r *http.Request) pageForm {
	return pageForm{
		Action:          r.URL.Path,
		Slug:            strings.TrimSpace(r.FormValue("slug")),
		Title:           strings.TrimSpace(r.FormValue("title")),
		MetaDescription: strings.TrimSpace(r.FormValue("meta_description")),
		BodyMarkdown:    r.FormValue("body"),
		Published:       r.FormValue("published") != "",
	}
}

func pageFormOf(p *store.SEOPage) pageForm {
	return pageForm{
		Action:          "/admin/pages/" + p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		BodyMarkdown:    p.BodyMarkdown,
		Published:       p.Published,
	}
}

func (f pageForm) apply(p *store.SEOPage) string {
	if f.Slug == "" || f.Title == "" {
		return "Slug and title are required"
	}
	if !store.ValidSlug(f.Slug) {
		return "Slug may only contain lower-case letters, digits, and single hyphens"
	}
	p.Slug = f.Slug
	p.Title = f.Title
	p.MetaDescription = f.MetaDescription
	p.BodyMarkdown = f.BodyMarkdown
	p.Published = f.Published
	return ""
}

// pageErrorMessage turns a store rejection into something to show the editor
func pageErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, store.ErrDuplicateSlug):
		return "Another page already uses that slug", true
	case errors.Is(err, store.ErrInvalidSlug):
		return "Slug may only contain lower-case letters, digits, and single hyphens", true
	}
	return "", false
}

// handlePagesPage lists SEO pages with a create form
func (a *Admin) handlePagesPage(w http.ResponseWriter, r *http.Request) {
	a.renderPages(w, r, http.StatusOK, pageForm{Action: "/admin/pages"}, "")
}

func (a *Admin) renderPages(w http.ResponseWriter, r *http.Request, status int, form pageForm, errorMsg string) {
	pages, err := a.store.ListPages(r.Context(), 0)
	if err != nil {
		a.serverError(w, "list pages", err)
		return
	}

	data := pagesData{Pages: pages, Form: form}
	data.layout = a.layoutFor(w, r, "SEO pages")
	data.Error = errorMsg
	a.render(w, status, "pages.html", data)
}

// handleCreatePage adds a page from the create form
func (a *Admin) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	form := pageFormFrom(r)
	now := a.now().UTC()
	p := &store.SEOPage{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	if msg := form.apply(p); msg != "" {
		a.renderPages(w, r, http.StatusBadRequest, form, msg)
		return
	}

	if err := a.store.CreatePage(r.Context(), p); err != nil {
		if msg, ok := pageErrorMessage(err); ok {
			a.renderPages(w, r, http.StatusConflict, form, msg)
			return
		}
		a.serverError(w, "create page", err)
		return
	}

	http.Redirect(w, r, "/admin/pages/"+p.ID, http.StatusSeeOther)
}

// handlePagePage shows the editor with a rendered preview
func (a *Admin) handlePagePage(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPage(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get page", err)
		return
	}
	a.renderPage(w, r, http.StatusOK, p, pageFormOf(p), "")
}

func (a *Admin) renderPage(w http.ResponseWriter, r *http.Request, status int, p *store.SEOPage, form pageForm, errorMsg string) {
	preview, err := seo.BuildPreview(p)
	if err != nil {
		a.serverError(w, "render preview", err)
		return
	}

	data := pageData{Page: p, Form: form, Preview: preview}
	data.layout = a.layoutFor(w, r, p.Title)
	data.Error = errorMsg
	a.render(w, status, "page.html", data)
}

// handleUpdatePage saves the page editor
func (a *Admin) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := a.store.GetPage(ctx, r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get page", err)
		return
	}

	form := pageFormFrom(r)
	if msg := form.apply(p); msg != "" {
		a.renderPage(w, r, http.StatusBadRequest, p, form, msg)
		return
	}
	p.UpdatedAt = a.now().UTC()

	if err := a.store.UpdatePage(ctx, p); err != nil {
		if msg, ok := pageErrorMessage(err); ok {
			a.renderPage(w, r, http.StatusConflict, p, form, msg)
			return
		}
		a.storeError(w, "update page", err)
		return
	}

	http.Redirect(w, r, "/admin/pages/"+p.ID, http.StatusSeeOther)
}

// handlePagePreview returns the rendered preview (htmx partial)
func (a *Admin) handlePagePreview(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPage(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get page", err)
		return
	}

	preview, err := seo.BuildPreview(p)
	if err != nil {
		a.serverError(w, "render preview", err)
		return
	}
	a.renderPartial(w, "page-preview", preview)
}

// handleDeletePage asks before removing a page
func (a *Admin) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetPage(r.Context(), r.PathValue("id"))
	if err != nil {
		a.storeError(w, "get page", err)
		return
	}

	user := getUserFromContext(r).Username
	req := &confirm.Request{
		Title:       fmt.Sprintf("Delete page /%s?", p.Slug),
		Description: "The page and its SEO metadata will be removed. Links to it will stop working.",
		Kind:        confirm.KindDestructive,
	}
	a.askConfirmation(w, r, req, "/admin/pages", func(ctx context.Context) error {
		if err := a.store.DeletePage(ctx, p.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		a.logger.Info("page deleted", "id", p.ID, "slug", p.Slug, "by", user)
		return nil
	})
}
