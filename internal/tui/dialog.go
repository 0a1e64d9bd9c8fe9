// ABOUTME: Terminal confirmation dialog: a bubbletea view mounted on a confirm.Broker
// ABOUTME: Renders the pending request with lipgloss and answers it from y/n/enter/esc

package tui

import (
	"fmt"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389/shop-admin/internal/confirm"
)

var (
	colorAccent = lipgloss.Color("#89b4fa")
	colorDanger = lipgloss.Color("#f38ba8")
	colorSubtle = lipgloss.Color("#a6adc8")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 2)

	dangerBoxStyle = boxStyle.BorderForeground(colorDanger)

	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dangerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	descStyle        = lipgloss.NewStyle().Foreground(colorSubtle)
	hintStyle        = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true)
)

// stateChangedMsg tells the model to re-read the broker's state.
type stateChangedMsg struct{}

// Dialog is the terminal view of a confirm.Broker. Exactly one Dialog may
// be created per broker.
type Dialog struct {
	broker  *confirm.Broker
	state   confirm.State
	changed chan struct{}
	done    chan struct{}
	unsub   func()
	once    sync.Once

	// QuitOnAnswer ends the program after the first answer.
	QuitOnAnswer bool
	answered     bool
	width        int
}

// NewDialog mounts a dialog on b.
func NewDialog(b *confirm.Broker) (*Dialog, error) {
	if err := b.Mount(); err != nil {
		return nil, err
	}

	d := &Dialog{
		broker:  b,
		state:   b.State(),
		changed: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	d.unsub = b.Subscribe(func(confirm.State) {
		// Coalesce: the model reads the latest state when it wakes.
		select {
		case d.changed <- struct{}{}:
		default:
		}
	})
	return d, nil
}

// Close stops listening to the broker and releases any pending wait.
// It is safe to call more than once.
func (d *Dialog) Close() {
	d.once.Do(func() {
		d.unsub()
		close(d.done)
	})
}

// waitForChange blocks until the broker's state changes or the dialog is
// closed; after Close it yields no message.
func (d *Dialog) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-d.changed:
			return stateChangedMsg{}
		case <-d.done:
			return nil
		}
	}
}

// Init implements tea.Model.
func (d *Dialog) Init() tea.Cmd {
	return d.waitForChange()
}

// Update implements tea.Model.
func (d *Dialog) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateChangedMsg:
		d.state = d.broker.State()
		return d, d.waitForChange()

	case tea.WindowSizeMsg:
		d.width = msg.Width
		return d, nil

	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d, nil
}

func (d *Dialog) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		d.broker.Cancel()
		return d, tea.Quit
	}
	if !d.state.Open {
		return d, nil
	}

	var answeredNow bool
	switch strings.ToLower(msg.String()) {
	case "y", "enter":
		answeredNow = d.broker.Confirm()
	case "n", "esc":
		answeredNow = d.broker.Cancel()
	default:
		return d, nil
	}

	d.state = d.broker.State()
	if answeredNow {
		d.answered = true
		if d.QuitOnAnswer {
			return d, tea.Quit
		}
	}
	return d, nil
}

// Answered reports whether the user has answered at least one request.
func (d *Dialog) Answered() bool {
	return d.answered
}

// View implements tea.Model. Nothing is drawn while no request is pending.
func (d *Dialog) View() string {
	if !d.state.Open {
		return ""
	}

	req := d.state.Request.Display()
	box, title := boxStyle, titleStyle
	if req.Kind == confirm.KindDestructive {
		box, title = dangerBoxStyle, dangerTitleStyle
	}
	if d.width > 8 {
		box = box.Width(min(d.width-4, 72))
	}

	var b strings.Builder
	b.WriteString(title.Render(req.Title))
	b.WriteString("\n\n")
	b.WriteString(descStyle.Render(req.Description))
	b.WriteString("\n\n")
	b.WriteString(hintStyle.Render(hint(req.Kind)))
	return box.Render(b.String()) + "\n"
}

func hint(kind confirm.Kind) string {
	action := "confirm"
	if kind == confirm.KindDestructive {
		action = "delete"
	}
	return fmt.Sprintf("[y/enter] %s   [n/esc] cancel", action)
}
