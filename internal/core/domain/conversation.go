package domain

import "time"

// CompactionThreshold is the turn-buffer size that triggers summarization.
const CompactionThreshold = 5

// Turn is one query/response pair in a conversation.
type Turn struct {
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is one compaction of a full turn buffer. The original turns are
// retained alongside the summary text.
type Summary struct {
	Text          string    `json:"text"`
	OriginalTurns []Turn    `json:"original_turns"`
	CreatedAt     time.Time `json:"created_at"`
}

// Memory is a tenant's conversation-memory document: a bounded turn buffer
// plus a growing summary history. Only the memory compactor mutates it.
//
// Version supports optimistic concurrency: stores reject a Save whose
// Version does not match the stored document, and the service retries.
type Memory struct {
	TenantID  string    `json:"tenant_id"`
	Turns     []Turn    `json:"turns"`
	Summaries []Summary `json:"summaries"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewMemory returns an empty memory document for a tenant.
func NewMemory(tenantID string) *Memory {
	return &Memory{TenantID: tenantID}
}

// MemoryWindow is the slice of memory surfaced to the generation prompt:
// the current sub-threshold turn buffer plus at most the latest summary.
// Older summaries stay stored but are not surfaced.
type MemoryWindow struct {
	Turns         []Turn   `json:"turns"`
	LatestSummary *Summary `json:"latest_summary,omitempty"`
}

// Window returns the read shape of the document.
func (m *Memory) Window() MemoryWindow {
	w := MemoryWindow{Turns: m.Turns}
	if n := len(m.Summaries); n > 0 {
		latest := m.Summaries[n-1]
		w.LatestSummary = &latest
	}
	return w
}

// Empty reports whether the window carries nothing worth prompting with.
func (w MemoryWindow) Empty() bool {
	return len(w.Turns) == 0 && w.LatestSummary == nil
}
