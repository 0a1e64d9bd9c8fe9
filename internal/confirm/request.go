// ABOUTME: Confirmation request, outcome, and dialog state types
// ABOUTME: Display applies default wording without touching the caller's request

package confirm

// Kind selects how the accept control is emphasised. It does not change
// broker behaviour.
type Kind int

const (
	KindPlain Kind = iota
	KindDestructive
)

// String returns the kind's lowercase name.
func (k Kind) String() string {
	switch k {
	case KindDestructive:
		return "destructive"
	default:
		return "plain"
	}
}

// Default dialog wording used when a request leaves fields empty.
const (
	DefaultTitle       = "Are you sure?"
	DefaultDescription = "This action cannot be undone."
)

// Request describes what the user is being asked to confirm.
type Request struct {
	Title       string
	Description string
	Kind        Kind
}

// Display returns the request with defaults filled in. It is safe to call
// on a nil request.
func (r *Request) Display() Request {
	var out Request
	if r != nil {
		out = *r
	}
	if out.Title == "" {
		out.Title = DefaultTitle
	}
	if out.Description == "" {
		out.Description = DefaultDescription
	}
	return out
}

// Destructive reports whether the request asks for destructive emphasis.
func (r *Request) Destructive() bool {
	return r != nil && r.Kind == KindDestructive
}

// Outcome is the resolved answer to a request. Data is the caller's
// request exactly as passed to Open.
type Outcome struct {
	Confirmed bool
	Data      *Request
}

// State is what the mounted dialog renders.
type State struct {
	Open    bool
	Request *Request
}
