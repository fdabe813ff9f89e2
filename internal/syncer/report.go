package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Operation names the call an outcome belongs to.
type Operation string

const (
	OpPartyLedger Operation = "party_ledger"
	OpSalesLedger Operation = "sales_ledger"
	OpVoucher     Operation = "voucher"

	// OpInput is recorded once for a record that never produced a call.
	OpInput Operation = "input"
)

// Status classifies an outcome.
type Status string

const (
	StatusAccepted       Status = "accepted"
	StatusRejected       Status = "rejected"
	StatusTransportError Status = "transport_error"
	StatusInvalid        Status = "invalid"
	StatusSkipped        Status = "skipped"
)

// Outcome is the result of one attempted operation.
type Outcome struct {
	Row       int
	Operation Operation
	Subject   string
	Status    Status
	Message   string
	Err       error
}

// String renders the outcome as a single report line.
func (o Outcome) String() string {
	line := fmt.Sprintf("row %d %-12s %-15s %q", o.Row, o.Operation, o.Status, o.Subject)
	if o.Message != "" {
		line += ": " + o.Message
	}
	return line
}

// Report is the append-only outcome log of one run.
type Report struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Outcomes   []Outcome
}

func newReport(records int) *Report {
	return &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		Records:   records,
	}
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
}

func (r *Report) finish() {
	r.FinishedAt = time.Now()
}

// Count returns the number of outcomes with the given status.
func (r *Report) Count(status Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Created is the number of accepted calls.
func (r *Report) Created() int { return r.Count(StatusAccepted) }

// Rejected is the number of calls Tally refused.
func (r *Report) Rejected() int { return r.Count(StatusRejected) }

// Errored is the number of calls that never got a response.
func (r *Report) Errored() int { return r.Count(StatusTransportError) }

// Invalid is the number of records that failed input validation.
func (r *Report) Invalid() int { return r.Count(StatusInvalid) }

// Skipped is the number of ledger creations answered from the run cache.
func (r *Report) Skipped() int { return r.Count(StatusSkipped) }

// Failed reports whether anything other than accepted or skipped happened.
func (r *Report) Failed() bool {
	return r.Rejected()+r.Errored()+r.Invalid() > 0
}

// Summary is the one-line count summary used in logs.
func (r *Report) Summary() string {
	return fmt.Sprintf("records=%d created=%d rejected=%d errored=%d invalid=%d skipped=%d",
		r.Records, r.Created(), r.Rejected(), r.Errored(), r.Invalid(), r.Skipped())
}

// String renders the full report block.
func (r *Report) String() string {
	var b strings.Builder

	b.WriteString("CSV to Tally Sync - Run Report\n")
	b.WriteString("================================================================================\n\n")
	fmt.Fprintf(&b, "Run ID:      %s\n", r.RunID)
	fmt.Fprintf(&b, "Start Time:  %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "End Time:    %s\n", r.FinishedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration:    %s\n\n", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	b.WriteString("Statistics:\n")
	fmt.Fprintf(&b, "  Records:   %d\n", r.Records)
	fmt.Fprintf(&b, "  Created:   %d\n", r.Created())
	fmt.Fprintf(&b, "  Rejected:  %d\n", r.Rejected())
	fmt.Fprintf(&b, "  Errored:   %d\n", r.Errored())
	fmt.Fprintf(&b, "  Invalid:   %d\n", r.Invalid())
	fmt.Fprintf(&b, "  Skipped:   %d\n\n", r.Skipped())

	if len(r.Outcomes) > 0 {
		b.WriteString("Outcomes:\n")
		b.WriteString("--------------------------------------------------------------------------------\n")
		for _, o := range r.Outcomes {
			b.WriteString("  " + o.String() + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("================================================================================\n")
	return b.String()
}
