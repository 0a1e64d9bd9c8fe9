// ABOUTME: Terminal client sub-commands backed by the REST API
// ABOUTME: Every command passes the route guard before it touches the network

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"github.com/2389/shop-admin/internal/api"
	"github.com/2389/shop-admin/internal/client"
	"github.com/2389/shop-admin/internal/config"
	"github.com/2389/shop-admin/internal/confirm"
	"github.com/2389/shop-admin/internal/guard"
	"github.com/2389/shop-admin/internal/session"
	"github.com/2389/shop-admin/internal/store"
	"github.com/2389/shop-admin/internal/tui"
)

var errNotSignedIn = errors.New("not signed in; run shop-admin login")

// commandPaths gives each client command a dashboard path for the guard.
var commandPaths = map[string]string{
	"login":            "/auth/login",
	"logout":           "/auth/logout",
	"whoami":           "/me",
	"dashboard":        "/dashboard",
	"products":         "/products",
	"orders":           "/orders",
	"pages":            "/pages",
	"users":            "/users",
	"delete-product":   "/products/delete",
	"delete-order":     "/orders/delete",
	"delete-page":      "/pages/delete",
	"set-order-status": "/orders/status",
	"set-stock":        "/products/stock",
	"publish-page":     "/pages/publish",
	"unpublish-page":   "/pages/unpublish",
}

// commandForPath is the inverse of commandPaths, used to follow a redirect.
func commandForPath(path string) (string, bool) {
	for cmd, p := range commandPaths {
		if p == path {
			return cmd, true
		}
	}
	return "", false
}

// confirmer asks the user to accept or cancel req.
type confirmer func(ctx context.Context, req *confirm.Request) (confirm.Outcome, error)

// clientEnv is what one client command runs against.
type clientEnv struct {
	api     *client.Client
	session *session.Store
	policy  guard.Policy
	out     io.Writer
	in      *bufio.Reader
	confirm confirmer

	password func(question string) (string, error)
}

func runClient(ctx context.Context, cmd string, args []string) error {
	cfgPath := os.Getenv("SHOP_ADMIN_CLIENT_CONFIG")
	if cfgPath == "" {
		cfgPath = config.DefaultClientConfigPath()
	}
	cfg, err := config.LoadClient(cfgPath)
	if err != nil {
		return err
	}

	// Client diagnostics stay quiet unless something goes wrong
	logger := setupLogger(config.LoggingConfig{Level: "warn"}, os.Stderr)

	state, err := store.OpenStateStore(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("opening client state: %w", err)
	}
	defer state.Close()

	sess := session.Open(ctx, state, logger)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sess.Close(closeCtx); err != nil {
			logger.Warn("failed to persist session", "error", err)
		}
	}()

	env := &clientEnv{
		api:     client.New(cfg.APIURL, sess, logger),
		session: sess,
		policy:  guard.DefaultPolicy(),
		out:     os.Stdout,
		in:      stdin,
		confirm: askInTerminal(logger),

		password: passwordReader,
	}
	return env.run(ctx, cmd, args)
}

// run applies the guard to cmd and dispatches it, following at most one
// redirect.
func (e *clientEnv) run(ctx context.Context, cmd string, args []string) error {
	path, ok := commandPaths[cmd]
	if !ok {
		return fmt.Errorf("unknown command: %s", cmd)
	}

	verdict := e.policy.Decide(e.session.HasToken(), path)
	switch verdict.Decision {
	case guard.RedirectLogin:
		return errNotSignedIn
	case guard.RedirectHome:
		home, ok := commandForPath(verdict.Location)
		if !ok {
			return fmt.Errorf("no command for %s", verdict.Location)
		}
		fmt.Fprintln(e.out, "Already signed in.")
		return e.dispatch(ctx, home, nil)
	}

	err := e.dispatch(ctx, cmd, args)
	if errors.Is(err, client.ErrUnauthorized) {
		return fmt.Errorf("%w (%w)", errNotSignedIn, err)
	}
	return err
}

func (e *clientEnv) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return e.login(ctx, args)
	case "logout":
		return e.logout(ctx)
	case "whoami":
		return e.whoami(ctx)
	case "dashboard":
		return e.dashboard(ctx)
	case "products":
		return e.products(ctx)
	case "orders":
		return e.orders(ctx, args)
	case "pages":
		return e.pages(ctx)
	case "users":
		return e.users(ctx)
	case "delete-product", "delete-order", "delete-page":
		return e.delete(ctx, cmd, args)
	case "set-order-status":
		return e.setOrderStatus(ctx, args)
	case "set-stock":
		return e.setStock(ctx, args)
	case "publish-page", "unpublish-page":
		return e.publishPage(ctx, args, cmd == "publish-page")
	}
	return fmt.Errorf("unknown command: %s", cmd)
}

func (e *clientEnv) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	username := fs.String("username", "", "admin username")
	if err := fs.Parse(args); err != nil {
		return err
	}

	name := strings.TrimSpace(*username)
	if name == "" {
		name = prompt(e.in, "Username", "")
	}
	if name == "" {
		return fmt.Errorf("username is required")
	}
	password, err := e.password("Password")
	if err != nil {
		return err
	}

	resp, err := e.api.Login(ctx, name, password)
	if err != nil {
		return err
	}
	// Make sure the token survives this process
	if err := e.session.Flush(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	color.New(color.FgGreen).Fprintf(e.out, "  ✓ Signed in as %s", name)
	fmt.Fprintf(e.out, " (expires %s)\n", resp.ExpiresAt.Local().Format("Jan 02 15:04"))
	return nil
}

func (e *clientEnv) logout(ctx context.Context) error {
	e.api.Logout()
	if err := e.session.Flush(ctx); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	fmt.Fprintln(e.out, "Signed out.")
	return nil
}

func (e *clientEnv) whoami(ctx context.Context) error {
	me, err := e.api.Me(ctx)
	if err != nil {
		return err
	}
	cyan := color.New(color.FgCyan)
	cyan.Fprintln(e.out, "  Signed in")
	fmt.Fprintf(e.out, "  ID:        %s\n", me.ID)
	fmt.Fprintf(e.out, "  Username:  %s\n", me.Username)
	if me.DisplayName != "" {
		fmt.Fprintf(e.out, "  Name:      %s\n", me.DisplayName)
	}
	return nil
}

func (e *clientEnv) dashboard(ctx context.Context) error {
	me, err := e.api.Me(ctx)
	if err != nil {
		return err
	}
	products, err := e.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	orders, err := e.api.ListOrders(ctx, "")
	if err != nil {
		return err
	}
	pages, err := e.api.ListPages(ctx)
	if err != nil {
		return err
	}

	byStatus := make(map[string]int)
	for _, o := range orders {
		byStatus[o.Status]++
	}

	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)
	cyan.Fprintf(e.out, "  Signed in as %s\n\n", me.Username)
	fmt.Fprintf(e.out, "  Products:  %d\n", len(products))
	fmt.Fprintf(e.out, "  Orders:    %d\n", len(orders))
	fmt.Fprintf(e.out, "  Pages:     %d\n", len(pages))
	fmt.Fprintln(e.out)
	yellow.Fprintln(e.out, "  Orders by status")
	for _, s := range store.OrderStatuses {
		fmt.Fprintf(e.out, "  %-10s %d\n", s, byStatus[string(s)])
	}
	return nil
}

func (e *clientEnv) products(ctx context.Context) error {
	products, err := e.api.ListProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Fprintln(e.out, "No products.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSKU\tNAME\tPRICE\tSTOCK\tACTIVE")
	fmt.Fprintln(w, "  --\t---\t----\t-----\t-----\t------")
	for _, p := range products {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%d\t%t\n", p.ID, p.SKU, p.Name, formatCents(p.PriceCents), p.Stock, p.Active)
	}
	return w.Flush()
}

func (e *clientEnv) orders(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("orders", flag.ContinueOnError)
	status := fs.String("status", "", "only orders with this status")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *status != "" && !store.OrderStatus(*status).Valid() {
		return fmt.Errorf("unknown order status %q", *status)
	}

	orders, err := e.api.ListOrders(ctx, *status)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Fprintln(e.out, "No orders.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tNUMBER\tCUSTOMER\tTOTAL\tSTATUS\tCREATED")
	fmt.Fprintln(w, "  --\t------\t--------\t-----\t------\t-------")
	for _, o := range orders {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.Number, o.CustomerEmail, formatCents(o.TotalCents), o.Status,
			o.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (e *clientEnv) pages(ctx context.Context) error {
	pages, err := e.api.ListPages(ctx)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Fprintln(e.out, "No pages.")
		return nil
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tSLUG\tTITLE\tPUBLISHED\tUPDATED")
	fmt.Fprintln(w, "  --\t----\t-----\t---------\t-------")
	for _, p := range pages {
		fmt.Fprintf(w, "  %s\t/%s\t%s\t%t\t%s\n", p.ID, p.Slug, p.Title, p.Published,
			p.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (e *clientEnv) users(ctx context.Context) error {
	users, err := e.api.ListUsers(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(e.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tUSERNAME\tNAME\tCREATED")
	fmt.Fprintln(w, "  --\t--------\t----\t-------")
	for _, u := range users {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", u.ID, u.Username, u.DisplayName,
			u.CreatedAt.Local().Format("2006-01-02"))
	}
	return w.Flush()
}

// deletion describes one destructive command once its target is known.
type deletion struct {
	request *confirm.Request
	label   string
	run     func(context.Context) error
}

func (e *clientEnv) resolveDeletion(ctx context.Context, cmd, id string) (*deletion, error) {
	switch cmd {
	case "delete-product":
		p, err := e.api.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		return &deletion{
			request: &confirm.Request{
				Title:       fmt.Sprintf("Delete product %s?", p.SKU),
				Description: "The product will be removed from the catalog.",
				Kind:        confirm.KindDestructive,
			},
			label: "product " + p.SKU,
			run:   func(ctx context.Context) error { return e.api.DeleteProduct(ctx, p.ID) },
		}, nil
	case "delete-order":
		o, err := e.api.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		return &deletion{
			request: &confirm.Request{
				Title:       fmt.Sprintf("Delete order %s?", o.Number),
				Description: "The order record will be removed permanently.",
				Kind:        confirm.KindDestructive,
			},
			label: "order " + o.Number,
			run:   func(ctx context.Context) error { return e.api.DeleteOrder(ctx, o.ID) },
		}, nil
	case "delete-page":
		p, err := e.api.GetPage(ctx, id)
		if err != nil {
			return nil, err
		}
		return &deletion{
			request: &confirm.Request{
				Title:       fmt.Sprintf("Delete page /%s?", p.Slug),
				Description: "The page and its SEO metadata will be removed.",
				Kind:        confirm.KindDestructive,
			},
			label: "page /" + p.Slug,
			run:   func(ctx context.Context) error { return e.api.DeletePage(ctx, p.ID) },
		}, nil
	}
	return nil, fmt.Errorf("unknown command: %s", cmd)
}

func (e *clientEnv) delete(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation dialog")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: shop-admin %s [-yes] <id>", cmd)
	}

	d, err := e.resolveDeletion(ctx, cmd, fs.Arg(0))
	if err != nil {
		return err
	}

	if !*yes {
		outcome, err := e.confirm(ctx, d.request)
		if err != nil {
			return err
		}
		if !outcome.Confirmed {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
	}

	if err := d.run(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(e.out, "  ✓ Deleted %s\n", d.label)
	return nil
}

// setOrderStatus moves an order along its lifecycle. Cancelling or
// refunding is confirmed first unless -yes is given.
func (e *clientEnv) setOrderStatus(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-order-status", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "skip the confirmation dialog")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return errors.New("usage: shop-admin set-order-status [-yes] <id> <status>")
	}
	status := store.OrderStatus(fs.Arg(1))
	if !status.Valid() {
		return fmt.Errorf("unknown order status %q", status)
	}

	o, err := e.api.GetOrder(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if o.Status == string(status) {
		fmt.Fprintf(e.out, "Order %s is already %s.\n", o.Number, status)
		return nil
	}

	if !*yes && (status == store.OrderStatusCancelled || status == store.OrderStatusRefunded) {
		outcome, err := e.confirm(ctx, &confirm.Request{
			Title:       fmt.Sprintf("Mark order %s %s?", o.Number, status),
			Description: fmt.Sprintf("The order is currently %s. Payment and fulfilment are not touched.", o.Status),
			Kind:        confirm.KindDestructive,
		})
		if err != nil {
			return err
		}
		if !outcome.Confirmed {
			fmt.Fprintln(e.out, "Cancelled.")
			return nil
		}
	}

	updated, err := e.api.UpdateOrderStatus(ctx, o.ID, string(status))
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(e.out, "  ✓ Order %s is now %s\n", updated.Number, updated.Status)
	return nil
}

// setStock changes the stock level of a product, keeping its other fields.
func (e *clientEnv) setStock(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: shop-admin set-stock <id> <count>")
	}
	stock, err := strconv.Atoi(args[1])
	if err != nil || stock < 0 {
		return fmt.Errorf("stock must be a non-negative integer, got %q", args[1])
	}

	p, err := e.api.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}
	updated, err := e.api.UpdateProduct(ctx, p.ID, api.ProductRequest{
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Stock:       stock,
		Active:      &p.Active,
	})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(e.out, "  ✓ %s stock %d -> %d\n", updated.SKU, p.Stock, updated.Stock)
	return nil
}

// publishPage sets whether a page is live, keeping its other fields.
func (e *clientEnv) publishPage(ctx context.Context, args []string, published bool) error {
	if len(args) != 1 {
		return errors.New("usage: shop-admin publish-page|unpublish-page <id>")
	}

	p, err := e.api.GetPage(ctx, args[0])
	if err != nil {
		return err
	}
	updated, err := e.api.UpdatePage(ctx, p.ID, api.PageRequest{
		Slug:            p.Slug,
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		BodyMarkdown:    p.BodyMarkdown,
		Published:       published,
	})
	if err != nil {
		return err
	}

	state := "unpublished"
	if updated.Published {
		state = "published"
	}
	color.New(color.FgGreen).Fprintf(e.out, "  ✓ Page /%s %s\n", updated.Slug, state)
	return nil
}

// askInTerminal confirms through a bubbletea dialog on the controlling
// terminal.
func askInTerminal(logger *slog.Logger) confirmer {
	return func(ctx context.Context, req *confirm.Request) (confirm.Outcome, error) {
		b := confirm.New(confirm.WithLogger(logger.With("component", "confirm")))
		d, err := tui.NewDialog(b)
		if err != nil {
			return confirm.Outcome{}, err
		}
		defer d.Close()
		return tui.Ask(ctx, d, req, os.Stdin, os.Stdout)
	}
}

// formatCents renders an amount in cents as dollars, e.g. 1999 -> "$19.99".
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
