// Package watch turns DynamoDB change notifications into document change
// events. Two intakes are provided: a [Poller] that reads a DynamoDB stream
// directly, and [FromLambdaEvent] for Lambda-hosted consumers. Both produce
// the same [Event] values, consumed by a single apply loop.
package watch

// Kind classifies a change event.
type Kind int

const (
	// Put indicates a document was created or modified.
	Put Kind = iota

	// Delete indicates a document was removed or soft-deleted.
	Delete

	// Other indicates a record that does not affect document content.
	// Consumers skip these.
	Other
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Put:
		return "put"
	case Delete:
		return "delete"
	default:
		return "other"
	}
}

// Event is one document change: which document, and whether it now exists.
type Event struct {
	// ID is the changed document's id.
	ID string

	// Kind is the change classification.
	Kind Kind
}
