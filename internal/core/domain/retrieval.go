package domain

import "time"

// DefaultTopK is the per-partition result count for retrieval queries.
const DefaultTopK = 5

// PartitionResult holds the matches one partition returned for a query.
// A partition that errored or matched nothing has empty Contents.
type PartitionResult struct {
	Partition string   `json:"partition"`
	Contents  []string `json:"contents"`
}

// RetrievalResult aggregates the fan-out over a tenant's partitions.
// Results are in completion order; no cross-partition ranking or
// deduplication is applied.
type RetrievalResult struct {
	Query   string            `json:"query"`
	Results []PartitionResult `json:"results"`
	Took    time.Duration     `json:"took"`
}

// Contents flattens all partition matches, preserving result order.
func (r *RetrievalResult) Contents() []string {
	var out []string
	for _, pr := range r.Results {
		out = append(out, pr.Contents...)
	}
	return out
}
