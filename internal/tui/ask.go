// ABOUTME: One-shot confirmation prompt for command-line use
// ABOUTME: Opens a request on the broker and runs the dialog until it is answered

package tui

import (
	"context"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389/shop-admin/internal/confirm"
)

// Ask shows req through d and blocks until the user answers or ctx ends.
// Quitting the program without answering counts as a cancel.
func Ask(ctx context.Context, d *Dialog, req *confirm.Request, in io.Reader, out io.Writer) (confirm.Outcome, error) {
	pending := d.broker.Open(req)
	d.state = d.broker.State()
	d.QuitOnAnswer = true

	p := tea.NewProgram(d,
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	)
	if _, err := p.Run(); err != nil {
		d.broker.Cancel()
		return confirm.Outcome{}, fmt.Errorf("running confirmation dialog: %w", err)
	}

	// Ended without an answer: treat it as a cancel.
	select {
	case outcome := <-pending.Done():
		return outcome, nil
	default:
		d.broker.Cancel()
		return pending.Wait(ctx)
	}
}
