// =============================================================================
// CSV to Tally Sync - Sync Orchestrator
// =============================================================================
//
// For every record, in file order:
//   1. Validate and convert it (an invalid record is reported once, no calls)
//   2. Create the party ledger
//   3. Create the sales ledger
//   4. Post the voucher
//
// Every call is awaited before the next one starts. A rejected or failed call
// is recorded and the run moves on; only context cancellation stops it early.
//
// =============================================================================

package syncer

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/patrickmn/go-cache"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/converter"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/tally"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/xmlwriter"
)

// Logger is the logging surface the orchestrator needs. *logrus.Logger and
// *logrus.Entry satisfy it.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Sender delivers one request body and returns the raw response.
// Failures to get a response must be *tally.TransportError to be retried.
type Sender interface {
	Send(ctx context.Context, body []byte) ([]byte, error)
}

// Syncer drives a sync run.
type Syncer struct {
	sender  Sender
	builder *xmlwriter.Builder
	log     Logger
	retry   config.RetrySettings

	// ledgers holds "role|name" keys of ledgers accepted during this run.
	// nil when dedupe is off.
	ledgers *cache.Cache
}

// New creates a Syncer from a validated configuration.
func New(cfg *config.Config, sender Sender, log Logger) *Syncer {
	s := &Syncer{
		sender: sender,
		builder: xmlwriter.NewBuilder(xmlwriter.Options{
			CompanyName: cfg.CompanyName,
			Narration:   cfg.Narration,
			VoucherType: cfg.VoucherType,
		}),
		log:   log,
		retry: cfg.Retry,
	}
	if s.retry.MaxAttempts < 1 {
		s.retry.MaxAttempts = 1
	}
	if cfg.Dedupe() {
		s.ledgers = cache.New(cache.NoExpiration, 0)
	}
	return s
}

// Run syncs records in order and returns the report. The error is non-nil
// only when ctx ends the run early; the partial report is still returned.
func (s *Syncer) Run(ctx context.Context, records []types.TransactionRecord) (*Report, error) {
	report := newReport(len(records))
	s.log.Infof("Sync %s started: %d record(s)", report.RunID, len(records))

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			report.finish()
			s.log.Errorf("Sync %s stopped before row %d: %v", report.RunID, record.Row, err)
			return report, err
		}
		s.syncRecord(ctx, record, report)
	}

	report.finish()
	s.log.Infof("Sync %s complete: %s", report.RunID, report.Summary())
	return report, nil
}

func (s *Syncer) syncRecord(ctx context.Context, record types.TransactionRecord, report *Report) {
	s.log.Infof("Processing row %d: %s -> %s, %s on %s",
		record.Row, record.PartyLedger, record.SalesLedger, record.Amount, record.Date)

	reqs, err := converter.Convert(record)
	if err != nil {
		s.log.Errorf("Row %d skipped: %v", record.Row, err)
		report.add(Outcome{
			Row:       record.Row,
			Operation: OpInput,
			Subject:   record.PartyLedger,
			Status:    StatusInvalid,
			Message:   err.Error(),
			Err:       err,
		})
		return
	}

	for _, ledger := range reqs.Ledgers() {
		report.add(s.ensureLedger(ctx, record.Row, ledger))
	}

	report.add(s.call(ctx, record.Row, OpVoucher, reqs.Voucher.PartyLedger, s.builder.Voucher(reqs.Voucher)))
}

// ensureLedger creates a ledger unless this run already had it accepted.
func (s *Syncer) ensureLedger(ctx context.Context, row int, ledger types.LedgerRequest) Outcome {
	op := OpSalesLedger
	if ledger.IsParty() {
		op = OpPartyLedger
	}
	key := ledger.Role.String() + "|" + ledger.Name

	if s.ledgers != nil {
		if _, found := s.ledgers.Get(key); found {
			s.log.Debugf("Row %d: %s ledger %q already created in this run", row, ledger.Role, ledger.Name)
			return Outcome{Row: row, Operation: op, Subject: ledger.Name, Status: StatusSkipped, Message: "already created in this run"}
		}
	}

	outcome := s.call(ctx, row, op, ledger.Name, s.builder.Ledger(ledger))
	if outcome.Status == StatusAccepted && s.ledgers != nil {
		s.ledgers.SetDefault(key, row)
	}
	return outcome
}

// call sends one body and classifies the result.
func (s *Syncer) call(ctx context.Context, row int, op Operation, subject string, body []byte) Outcome {
	outcome := Outcome{Row: row, Operation: op, Subject: subject}

	s.log.Debugf("Row %d %s request:\n%s", row, op, body)

	raw, err := s.send(ctx, body)
	if err != nil {
		outcome.Status = StatusTransportError
		outcome.Message = err.Error()
		outcome.Err = err
		s.log.Errorf("Row %d %s %q failed: %v", row, op, subject, err)
		return outcome
	}

	s.log.Debugf("Row %d %s response:\n%s", row, op, raw)

	resp := tally.Interpret(raw)
	if !resp.Accepted() {
		outcome.Status = StatusRejected
		outcome.Message = resp.Message()
		outcome.Err = resp.Err()
		s.log.Warnf("Row %d %s %q rejected: %s", row, op, subject, resp.Message())
		return outcome
	}

	outcome.Status = StatusAccepted
	outcome.Message = resp.Summary()
	s.log.Infof("Row %d %s %q accepted %s", row, op, subject, resp.Summary())
	return outcome
}

// send retries transport failures with doubling backoff. Other errors are
// returned at once.
func (s *Syncer) send(ctx context.Context, body []byte) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retry.Backoff
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	policy.MaxElapsedTime = 0

	attempt := 0
	var lastErr error

	var operation backoff.OperationWithData[[]byte] = func() ([]byte, error) {
		attempt++
		raw, err := s.sender.Send(ctx, body)
		if err != nil && !tally.IsTransportError(err) {
			return nil, backoff.Permanent(err)
		}
		lastErr = err
		return raw, err
	}

	notify := func(err error, wait time.Duration) {
		s.log.Warnf("Attempt %d/%d failed: %v; retrying in %s", attempt, s.retry.MaxAttempts, err, wait)
	}

	retries := backoff.WithMaxRetries(policy, uint64(s.retry.MaxAttempts-1))
	raw, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(retries, ctx), notify)
	if err != nil && ctx.Err() != nil && lastErr != nil {
		// Cancelled while waiting: report the failure that caused the wait.
		return nil, lastErr
	}
	return raw, err
}
