package domain

import "fmt"

// SourceKind identifies which private partition ingested content lands in.
type SourceKind string

const (
	SourceKindWeb    SourceKind = "web"
	SourceKindGithub SourceKind = "github"
	SourceKindPDF    SourceKind = "pdf"
)

// CommonPartition is the tenant-independent shared partition.
// It is read-only to tenants and populated out of band.
const CommonPartition = "common"

// Valid reports whether the source kind is one of web, github or pdf.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceKindWeb, SourceKindGithub, SourceKindPDF:
		return true
	}
	return false
}

// SourceKinds lists all private partition kinds in a stable order.
func SourceKinds() []SourceKind {
	return []SourceKind{SourceKindWeb, SourceKindGithub, SourceKindPDF}
}

// PartitionName returns the index partition for a tenant's source kind.
// Naming convention: {tenant}_{web|github|pdf}.
func PartitionName(tenantID string, kind SourceKind) string {
	return fmt.Sprintf("%s_%s", tenantID, kind)
}

// PartitionsFor returns every partition a tenant's queries fan out to:
// the shared common partition followed by the three private ones.
func PartitionsFor(tenantID string) []string {
	partitions := make([]string, 0, 4)
	partitions = append(partitions, CommonPartition)
	for _, kind := range SourceKinds() {
		partitions = append(partitions, PartitionName(tenantID, kind))
	}
	return partitions
}
