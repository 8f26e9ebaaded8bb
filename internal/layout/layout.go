// Package layout computes on-disk record offsets. It exists as its own
// seam so that a future variable-width layout can be added alongside
// Fixed without touching the callers that only know about offsets.
package layout

// Fixed addresses records of a uniform size, laid out contiguously after
// a fixed-size header.
type Fixed struct {
	HeaderSize int64
	RecordSize int64
}

// Offset returns the byte offset of record i.
func (f Fixed) Offset(i int) int64 {
	return f.HeaderSize + int64(i)*f.RecordSize
}
