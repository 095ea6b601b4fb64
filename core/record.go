package core

import "time"

// Record is one entry in a command transcript: the command, its classified
// output and timing. Records are immutable once appended.
type Record struct {
	ID       string        `json:"id"`
	Command  string        `json:"command"`
	Output   Output        `json:"output"`
	Err      string        `json:"error,omitempty"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
}

// NewRecord creates a transcript record for a completed command. A non-nil err
// is stored by message; nil leaves Err empty.
func NewRecord(command string, output Output, err error, started time.Time) Record {
	r := Record{
		ID:       NewID(),
		Command:  command,
		Output:   output,
		Started:  started,
		Duration: time.Since(started),
	}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// HistoryStore persists the transcript of executed commands.
type HistoryStore interface {
	// Append adds a record to the transcript.
	Append(r Record) error
	// List returns all records in append order.
	List() ([]Record, error)
	// Len reports the number of stored records.
	Len() int
}
