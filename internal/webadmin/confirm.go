// ABOUTME: Browser confirmation dialogs: one confirm.Broker per signed-in session
// ABOUTME: Destructive actions wait in the dialog and run only when the user accepts

package webadmin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/2389/shop-admin/internal/confirm"
	"github.com/2389/shop-admin/internal/store"
)

// action is the work a confirmation guards.
type action func(ctx context.Context) error

// sessionDialog is the dialog view of one browser session. It mounts its
// broker on creation and remembers what to do when the open request is
// accepted.
type sessionDialog struct {
	broker *confirm.Broker

	mu       sync.Mutex
	pending  *confirm.Pending
	run      action
	returnTo string
}

// dialogs holds the sessions that currently have a dialog open.
type dialogs struct {
	mu       sync.Mutex
	sessions map[string]*sessionDialog
	logger   *slog.Logger
	observer confirm.Observer
}

func newDialogs(logger *slog.Logger, obs Observer) *dialogs {
	d := &dialogs{
		sessions: make(map[string]*sessionDialog),
		logger:   logger,
	}
	if obs != nil {
		d.observer = obs
	}
	return d
}

// newSessionDialog takes over b as the view of one browser session.
func newSessionDialog(b *confirm.Broker) (*sessionDialog, error) {
	if err := b.Mount(); err != nil {
		return nil, fmt.Errorf("mounting session dialog: %w", err)
	}
	return &sessionDialog{broker: b}, nil
}

// ask opens req for sessionID. An earlier unanswered request in the same
// session is replaced and its action dropped.
func (d *dialogs) ask(sessionID string, req *confirm.Request, returnTo string, run action) error {
	d.mu.Lock()
	sd, ok := d.sessions[sessionID]
	if !ok {
		var err error
		sd, err = newSessionDialog(confirm.New(confirm.WithLogger(d.logger), confirm.WithObserver(d.observer)))
		if err != nil {
			d.mu.Unlock()
			return err
		}
		d.sessions[sessionID] = sd
	}
	d.mu.Unlock()

	sd.mu.Lock()
	defer sd.mu.Unlock()
	sd.pending = sd.broker.Open(req)
	sd.run = run
	sd.returnTo = returnTo
	return nil
}

// sessionIDs lists the sessions that have a dialog open.
func (d *dialogs) sessionIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.sessions))
	for id := range d.sessions {
		ids = append(ids, id)
	}
	return ids
}

// state returns what the session's dialog should show.
func (d *dialogs) state(sessionID string) confirm.State {
	d.mu.Lock()
	sd, ok := d.sessions[sessionID]
	d.mu.Unlock()
	if !ok {
		return confirm.State{}
	}
	return sd.broker.State()
}

// answer resolves the open request. It returns the outcome, the action to
// run (nil unless confirmed), and where the user came from. ok is false when
// nothing was open.
func (d *dialogs) answer(sessionID string, confirmed bool) (outcome confirm.Outcome, run action, returnTo string, ok bool) {
	d.mu.Lock()
	sd, found := d.sessions[sessionID]
	if found {
		delete(d.sessions, sessionID)
	}
	d.mu.Unlock()
	if !found {
		return confirm.Outcome{}, nil, "", false
	}

	sd.mu.Lock()
	defer sd.mu.Unlock()

	var answered bool
	if confirmed {
		answered = sd.broker.Confirm()
	} else {
		answered = sd.broker.Cancel()
	}
	if !answered || sd.pending == nil {
		return confirm.Outcome{}, nil, "", false
	}

	outcome = <-sd.pending.Done()
	if outcome.Confirmed {
		run = sd.run
	}
	return outcome, run, sd.returnTo, true
}

// forget cancels anything open for sessionID and drops the session.
func (d *dialogs) forget(sessionID string) {
	d.answer(sessionID, false)
}

// confirmView is the template data for the dialog partial.
type confirmView struct {
	Title       string
	Description string
	Destructive bool
	AcceptLabel string
	CSRFToken   string
}

func newConfirmView(state confirm.State, csrfToken string) *confirmView {
	if !state.Open {
		return nil
	}
	req := state.Request.Display()
	label := "Confirm"
	if req.Kind == confirm.KindDestructive {
		label = "Delete"
	}
	return &confirmView{
		Title:       req.Title,
		Description: req.Description,
		Destructive: req.Kind == confirm.KindDestructive,
		AcceptLabel: label,
		CSRFToken:   csrfToken,
	}
}

// askConfirmation opens a destructive confirmation for the signed-in
// session and sends the browser back to returnTo, where the dialog renders.
func (a *Admin) askConfirmation(w http.ResponseWriter, r *http.Request, req *confirm.Request, returnTo string, run action) {
	session := getSessionFromContext(r)
	if err := a.dialogs.ask(session.ID, req, returnTo, run); err != nil {
		a.logger.Error("failed to open confirmation", "title", req.Title, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// PruneDialogs cancels the open dialogs of browser sessions that have
// expired or been deleted, without running their actions. It returns how
// many were dropped.
func (a *Admin) PruneDialogs(ctx context.Context) (int, error) {
	pruned := 0
	for _, id := range a.dialogs.sessionIDs() {
		_, err := a.store.GetAdminSession(ctx, id)
		switch {
		case errors.Is(err, store.ErrAdminSessionNotFound):
			a.dialogs.forget(id)
			pruned++
		case err != nil:
			return pruned, fmt.Errorf("checking session for open dialog: %w", err)
		}
	}
	if pruned > 0 {
		a.logger.Debug("pruned dialogs of expired sessions", "count", pruned)
	}
	return pruned, nil
}

// handleConfirmDialog renders just the dialog (htmx partial)
func (a *Admin) handleConfirmDialog(w http.ResponseWriter, r *http.Request) {
	r, csrfToken := a.ensureCSRFToken(w, r)
	session := getSessionFromContext(r)
	a.renderPartial(w, "confirm-dialog", newConfirmView(a.dialogs.state(session.ID), csrfToken))
}

// handleConfirmAccept answers the open dialog with yes and runs its action
func (a *Admin) handleConfirmAccept(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromContext(r)
	outcome, run, returnTo, ok := a.dialogs.answer(session.ID, true)
	if !ok {
		http.Redirect(w, r, a.policy.HomePath, http.StatusSeeOther)
		return
	}

	if run != nil {
		if err := run(r.Context()); err != nil {
			a.logger.Error("confirmed action failed", "title", outcome.Data.Display().Title, "error", err)
			http.Error(w, "Action failed", http.StatusInternalServerError)
			return
		}
		a.logger.Info("confirmed action completed", "title", outcome.Data.Display().Title)
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// handleConfirmCancel answers the open dialog with no
func (a *Admin) handleConfirmCancel(w http.ResponseWriter, r *http.Request) {
	session := getSessionFromContext(r)
	_, _, returnTo, ok := a.dialogs.answer(session.ID, false)
	if !ok {
		returnTo = a.policy.HomePath
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}
