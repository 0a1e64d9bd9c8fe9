// Package confirm provides the confirmation broker behind the admin dialog.
//
// # Overview
//
// Destructive actions (deleting a product, refunding an order) ask the user
// before they run. Instead of every handler owning its own dialog, one
// dialog view is mounted per broker and any code holding the broker can ask:
//
//	p := broker.Open(&confirm.Request{Title: "Delete product?", Kind: confirm.KindDestructive})
//	out, err := p.Wait(ctx)
//	if err == nil && out.Confirmed {
//	    // perform the delete
//	}
//
// The dialog view reads State() (or Subscribe) to render itself and calls
// Confirm or Cancel when the user clicks a button.
//
// # Overlapping requests
//
// In ModeReplace (the default) the broker has a single slot. A second Open
// while one is pending replaces it; the first Pending never receives an
// outcome. ModeQueue serves requests in arrival order instead.
//
// # Views
//
//   - webadmin: one broker per browser session, rendered in the base layout
//   - tui.Dialog: a bubbletea model for the terminal client
package confirm
