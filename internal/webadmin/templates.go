// ABOUTME: Page and partial rendering for the admin UI
// ABOUTME: Templates are compiled into the binary and parsed per page with base.html

package webadmin

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/2389/shop-admin/internal/seo"
	"github.com/2389/shop-admin/internal/store"
)

//go:embed templates/*.html templates/partials/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	"money": formatCents,
	"datetime": func(t time.Time) string {
		return t.Local().Format("2006-01-02 15:04")
	},
}

// layout is what base.html needs on every page
type layout struct {
	Title     string
	User      *store.AdminUser
	CSRFToken string
	Confirm   *confirmView
	Error     string
}

type statusCount struct {
	Status store.OrderStatus
	Count  int
}

type dashboardData struct {
	layout
	Products int
	Orders   int
	ByStatus []statusCount
	Admins   int
}

type productsData struct {
	layout
	Products []*store.Product
	Form     productForm
}

type productData struct {
	layout
	Product *store.Product
	Form    productForm
}

type ordersData struct {
	layout
	Orders   []*store.Order
	Statuses []store.OrderStatus
	Filter   string
}

type orderData struct {
	layout
	Order    *store.Order
	Statuses []store.OrderStatus
}

type pagesData struct {
	layout
	Pages []*store.SEOPage
	Form  pageForm
}

type pageData struct {
	layout
	Page    *store.SEOPage
	Form    pageForm
	Preview *seo.Preview
}

type usersData struct {
	layout
	Users    []*store.AdminUser
	Username string
}

// layoutFor builds the shared page data for a signed-in request
func (a *Admin) layoutFor(w http.ResponseWriter, r *http.Request, title string) layout {
	r, csrfToken := a.ensureCSRFToken(w, r)
	l := layout{
		Title:     title,
		User:      getUserFromContext(r),
		CSRFToken: csrfToken,
	}
	if session := getSessionFromContext(r); session != nil {
		l.Confirm = newConfirmView(a.dialogs.state(session.ID), csrfToken)
	}
	return l
}

// renderLoginPage renders the login page
func (a *Admin) renderLoginPage(w http.ResponseWriter, r *http.Request, status int, errorMsg, csrfToken string) {
	a.render(w, status, "login.html", layout{
		Title:     "Login",
		Error:     errorMsg,
		CSRFToken: csrfToken,
	})
}

// render executes base.html around the named page template
func (a *Admin) render(w http.ResponseWriter, status int, page string, data any) {
	tmpl, err := template.New("base.html").Funcs(templateFuncs).ParseFS(templateFS,
		"templates/base.html",
		"templates/partials/*.html",
		"templates/"+page,
	)
	if err != nil {
		a.serverError(w, "parse "+page, err)
		return
	}
	a.execute(w, status, tmpl, "base.html", data)
}

// renderPartial renders a single partial, for htmx swaps
func (a *Admin) renderPartial(w http.ResponseWriter, name string, data any) {
	tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS, "templates/partials/*.html")
	if err != nil {
		a.serverError(w, "parse partials", err)
		return
	}
	a.execute(w, http.StatusOK, tmpl, name, data)
}

func (a *Admin) execute(w http.ResponseWriter, status int, tmpl *template.Template, name string, data any) {
	// Render into a buffer so a template error never sends half a page
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		a.serverError(w, "render "+name, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		a.logger.Debug("failed to write response", "template", name, "error", err)
	}
}

// formatCents renders an amount in cents as a decimal string
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
