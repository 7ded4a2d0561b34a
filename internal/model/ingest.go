package model

// IngestEnvelope carries one raw input line with the time it was read.
// It is the transport contract between the line producer and the shipping worker.
type IngestEnvelope struct {
	Line      string
	Timestamp int64 // unix seconds
}
