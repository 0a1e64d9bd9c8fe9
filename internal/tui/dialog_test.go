package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shop-admin/internal/confirm"
)

func keyMsg(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func newDialog(t *testing.T) (*Dialog, *confirm.Broker) {
	t.Helper()
	b := confirm.New()
	d, err := NewDialog(b)
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d, b
}

func outcomeOf(t *testing.T, p *confirm.Pending) confirm.Outcome {
	t.Helper()
	select {
	case o := <-p.Done():
		return o
	case <-time.After(time.Second):
		t.Fatal("pending was not resolved")
		return confirm.Outcome{}
	}
}

func TestNewDialog_MountsOnce(t *testing.T) {
	_, b := newDialog(t)
	_, err := NewDialog(b)
	assert.ErrorIs(t, err, confirm.ErrAlreadyMounted)
}

func TestDialog_RendersNothingWhenClosed(t *testing.T) {
	d, _ := newDialog(t)
	assert.Empty(t, d.View())
}

func TestDialog_PicksUpOpenedRequest(t *testing.T) {
	d, b := newDialog(t)
	b.Open(&confirm.Request{Title: "Delete product?", Kind: confirm.KindDestructive})

	// The subscription wakes the model, which re-reads the broker
	msg := d.waitForChange()()
	d.Update(msg)

	view := d.View()
	assert.Contains(t, view, "Delete product?")
	assert.Contains(t, view, confirm.DefaultDescription)
	assert.Contains(t, view, "[y/enter] delete")
}

func TestDialog_CloseReleasesWaiter(t *testing.T) {
	b := confirm.New()
	d, err := NewDialog(b)
	require.NoError(t, err)

	got := make(chan tea.Msg, 1)
	go func() { got <- d.waitForChange()() }()

	d.Close()
	d.Close()

	select {
	case msg := <-got:
		assert.Nil(t, msg)
	case <-time.After(time.Second):
		t.Fatal("waitForChange still blocked after Close")
	}

	// Later transitions no longer reach the closed dialog
	b.Open(&confirm.Request{Title: "ignored"})
	assert.Nil(t, d.waitForChange()())
}

func TestDialog_Keys(t *testing.T) {
	tests := []struct {
		name      string
		key       tea.KeyMsg
		confirmed bool
	}{
		{"y confirms", keyMsg("y"), true},
		{"Y confirms", keyMsg("Y"), true},
		{"enter confirms", tea.KeyMsg{Type: tea.KeyEnter}, true},
		{"n cancels", keyMsg("n"), false},
		{"esc cancels", tea.KeyMsg{Type: tea.KeyEsc}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, b := newDialog(t)
			req := &confirm.Request{Title: "Sure?"}
			p := b.Open(req)
			d.Update(stateChangedMsg{})

			_, cmd := d.Update(tt.key)
			assert.Nil(t, cmd)

			o := outcomeOf(t, p)
			assert.Equal(t, tt.confirmed, o.Confirmed)
			assert.Same(t, req, o.Data)
			assert.True(t, d.Answered())
			assert.Empty(t, d.View())
		})
	}
}

func TestDialog_OtherKeysIgnored(t *testing.T) {
	d, b := newDialog(t)
	p := b.Open(nil)
	d.Update(stateChangedMsg{})

	d.Update(keyMsg("x"))
	assert.True(t, b.State().Open)
	select {
	case <-p.Done():
		t.Fatal("unexpected resolution")
	default:
	}
	assert.Contains(t, d.View(), confirm.DefaultTitle)
}

func TestDialog_QuitOnAnswer(t *testing.T) {
	d, b := newDialog(t)
	d.QuitOnAnswer = true
	b.Open(nil)
	d.Update(stateChangedMsg{})

	_, cmd := d.Update(keyMsg("n"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestDialog_CtrlCCancels(t *testing.T) {
	d, b := newDialog(t)
	p := b.Open(nil)
	d.Update(stateChangedMsg{})

	_, cmd := d.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.False(t, outcomeOf(t, p).Confirmed)
}

func TestAsk_AnswersFromInput(t *testing.T) {
	d, _ := newDialog(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out strings.Builder
	outcome, err := Ask(ctx, d, &confirm.Request{Title: "Ship it?"}, strings.NewReader("y"), &out)
	require.NoError(t, err)
	assert.True(t, outcome.Confirmed)
	assert.Equal(t, "Ship it?", outcome.Data.Title)
}
