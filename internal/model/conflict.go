package model

// ConflictStatus is the terminal state of a (section, key) conflict bucket
type ConflictStatus string

const (
	ConflictResolved   ConflictStatus = "resolved"
	ConflictUnresolved ConflictStatus = "unresolved"
)

// Conflict records two or more Findings that share (section, key) but
// disagree on value. Resolved conflicts point at the winning Finding;
// unresolved ones retain every competitor verbatim and depress the enclosing
// section's confidence. Conflicts are recomputed idempotently at each phase
// barrier.
type Conflict struct {
	Section    SectionName    `json:"section"`
	Key        string         `json:"key"`
	Competing  []Finding      `json:"competing"`
	Resolution *Finding       `json:"resolution,omitempty"`
	Status     ConflictStatus `json:"status"`
}
