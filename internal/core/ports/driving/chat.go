package driving

import "context"

// ChatService answers a tenant's query with retrieved context and
// conversational memory.
type ChatService interface {
	// Answer retrieves context, reads memory, generates a response and
	// records the turn. Generation failures propagate to the caller.
	Answer(ctx context.Context, tenantID, query string) (string, error)
}
