package syncer

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/config"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/tally"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/types"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/validation"
	"github.com/ginjaninja78/CSV-to-Tally-sync/internal/xmlwriter"
)

const accepted = "<RESPONSE><CREATED>1</CREATED><ALTERED>0</ALTERED><ERRORS>0</ERRORS></RESPONSE>"

// fakeTally records every request body and answers with respond.
type fakeTally struct {
	mu      sync.Mutex
	bodies  [][]byte
	respond func(n int, body []byte) (int, string)
	server  *httptest.Server
}

func newFakeTally(t *testing.T, respond func(n int, body []byte) (int, string)) *fakeTally {
	t.Helper()
	f := &fakeTally{respond: respond}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)

		f.mu.Lock()
		f.bodies = append(f.bodies, body)
		n := len(f.bodies)
		f.mu.Unlock()

		status, reply := http.StatusOK, accepted
		if f.respond != nil {
			status, reply = f.respond(n, body)
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeTally) calls() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.bodies...)
}

func testConfig(dedupe bool) *config.Config {
	return &config.Config{
		CompanyName:   "Demo Co",
		Retry:         config.RetrySettings{MaxAttempts: 1, Backoff: time.Millisecond},
		DedupeLedgers: &dedupe,
	}
}

func acmeRecord(row int) types.TransactionRecord {
	return types.TransactionRecord{
		Row:         row,
		Date:        "01-04-2024",
		PartyLedger: "Acme Corp",
		SalesLedger: "Retail Sales",
		Amount:      "1500",
	}
}

func statuses(r *Report) []Status {
	out := make([]Status, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		out = append(out, o.Status)
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	fake := newFakeTally(t, nil)
	logger, hook := logrustest.NewNullLogger()

	s := New(testConfig(true), tally.NewClient(fake.server.URL), logger)
	report, err := s.Run(context.Background(), []types.TransactionRecord{acmeRecord(2)})
	require.NoError(t, err)

	builder := xmlwriter.NewBuilder(xmlwriter.Options{CompanyName: "Demo Co"})
	calls := fake.calls()
	require.Len(t, calls, 3)
	assert.Equal(t, string(builder.Ledger(types.LedgerRequest{Name: "Acme Corp", Role: types.RoleParty})), string(calls[0]))
	assert.Equal(t, string(builder.Ledger(types.LedgerRequest{Name: "Retail Sales", Role: types.RoleIncome})), string(calls[1]))
	assert.Equal(t, string(builder.Voucher(types.VoucherRequest{
		Date:        "20240401",
		PartyLedger: "Acme Corp",
		SalesLedger: "Retail Sales",
		Amount:      decimal.NewFromInt(1500),
	})), string(calls[2]))

	assert.Contains(t, string(calls[2]), "<DATE>20240401</DATE>")
	assert.Contains(t, string(calls[2]), "<AMOUNT>-1500</AMOUNT>")
	assert.Contains(t, string(calls[2]), "<AMOUNT>1500</AMOUNT>")

	require.Len(t, report.Outcomes, 3)
	assert.Equal(t, []Operation{OpPartyLedger, OpSalesLedger, OpVoucher},
		[]Operation{report.Outcomes[0].Operation, report.Outcomes[1].Operation, report.Outcomes[2].Operation})
	assert.Equal(t, []Status{StatusAccepted, StatusAccepted, StatusAccepted}, statuses(report))
	assert.Equal(t, "created=1 altered=0 errors=0", report.Outcomes[2].Message)
	assert.Equal(t, 3, report.Created())
	assert.False(t, report.Failed())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "complete")
}

func TestRun_InvalidRecordContinues(t *testing.T) {
	fake := newFakeTally(t, nil)
	logger, _ := logrustest.NewNullLogger()

	bad := acmeRecord(2)
	bad.Date = "2024/04/01"

	s := New(testConfig(true), tally.NewClient(fake.server.URL), logger)
	report, err := s.Run(context.Background(), []types.TransactionRecord{bad, acmeRecord(3)})
	require.NoError(t, err)

	assert.Len(t, fake.calls(), 3)
	require.Len(t, report.Outcomes, 4)

	first := report.Outcomes[0]
	assert.Equal(t, 2, first.Row)
	assert.Equal(t, OpInput, first.Operation)
	assert.Equal(t, StatusInvalid, first.Status)
	assert.True(t, validation.IsInputError(first.Err))

	for _, o := range report.Outcomes[1:] {
		assert.Equal(t, 3, o.Row)
		assert.Equal(t, StatusAccepted, o.Status)
	}
	assert.Equal(t, 1, report.Invalid())
	assert.True(t, report.Failed())
}

func TestRun_RejectionIsNotFatal(t *testing.T) {
	fake := newFakeTally(t, func(_ int, body []byte) (int, string) {
		if bytes.Contains(body, []byte("<VOUCHER")) && bytes.Contains(body, []byte("Beta Ltd")) {
			return http.StatusOK, "<RESPONSE><LINEERROR>Voucher totals do not match!</LINEERROR></RESPONSE>"
		}
		return http.StatusOK, accepted
	})
	logger, hook := logrustest.NewNullLogger()

	beta := acmeRecord(2)
	beta.PartyLedger = "Beta Ltd"

	s := New(testConfig(true), tally.NewClient(fake.server.URL), logger)
	report, err := s.Run(context.Background(), []types.TransactionRecord{beta, acmeRecord(3)})
	require.NoError(t, err)

	assert.Equal(t, []Status{
		StatusAccepted, StatusAccepted, StatusRejected,
		StatusAccepted, StatusSkipped, StatusAccepted,
	}, statuses(report))

	rejected := report.Outcomes[2]
	assert.Equal(t, "Voucher totals do not match!", rejected.Message)
	assert.True(t, tally.IsRejection(rejected.Err))

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Level.String() == "warning" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestRun_Dedupe(t *testing.T) {
	records := []types.TransactionRecord{acmeRecord(2), acmeRecord(3)}

	t.Run("on", func(t *testing.T) {
		fake := newFakeTally(t, nil)
		logger, _ := logrustest.NewNullLogger()

		report, err := New(testConfig(true), tally.NewClient(fake.server.URL), logger).Run(context.Background(), records)
		require.NoError(t, err)

		assert.Len(t, fake.calls(), 4)
		assert.Equal(t, 2, report.Skipped())
		assert.Len(t, report.Outcomes, 6)
	})

	t.Run("off", func(t *testing.T) {
		fake := newFakeTally(t, nil)
		logger, _ := logrustest.NewNullLogger()

		report, err := New(testConfig(false), tally.NewClient(fake.server.URL), logger).Run(context.Background(), records)
		require.NoError(t, err)

		assert.Len(t, fake.calls(), 6)
		assert.Equal(t, 0, report.Skipped())
	})

	t.Run("rejected ledgers are not cached", func(t *testing.T) {
		fake := newFakeTally(t, func(_ int, body []byte) (int, string) {
			if bytes.Contains(body, []byte("<LEDGER ")) {
				return http.StatusOK, "<RESPONSE><LINEERROR>Ledger already exists</LINEERROR></RESPONSE>"
			}
			return http.StatusOK, accepted
		})
		logger, _ := logrustest.NewNullLogger()

		report, err := New(testConfig(true), tally.NewClient(fake.server.URL), logger).Run(context.Background(), records)
		require.NoError(t, err)

		assert.Len(t, fake.calls(), 6)
		assert.Equal(t, 4, report.Rejected())
		assert.Equal(t, 2, report.Created())
	})

	t.Run("same name different role", func(t *testing.T) {
		fake := newFakeTally(t, nil)
		logger, _ := logrustest.NewNullLogger()

		swapped := acmeRecord(3)
		swapped.PartyLedger, swapped.SalesLedger = swapped.SalesLedger, swapped.PartyLedger

		_, err := New(testConfig(true), tally.NewClient(fake.server.URL), logger).
			Run(context.Background(), []types.TransactionRecord{acmeRecord(2), swapped})
		require.NoError(t, err)

		assert.Len(t, fake.calls(), 6)
	})
}

func TestRun_RetriesTransportErrors(t *testing.T) {
	fake := newFakeTally(t, func(n int, _ []byte) (int, string) {
		if n <= 2 {
			return http.StatusServiceUnavailable, "busy"
		}
		return http.StatusOK, accepted
	})
	logger, _ := logrustest.NewNullLogger()

	cfg := testConfig(true)
	cfg.Retry.MaxAttempts = 3

	report, err := New(cfg, tally.NewClient(fake.server.URL), logger).Run(context.Background(), []types.TransactionRecord{acmeRecord(2)})
	require.NoError(t, err)

	assert.Len(t, fake.calls(), 5)
	assert.Equal(t, 3, report.Created())
}

func TestRun_RejectionsAreNotRetried(t *testing.T) {
	fake := newFakeTally(t, func(_ int, _ []byte) (int, string) {
		return http.StatusOK, "<LINEERROR>Could not find ledger"
	})
	logger, _ := logrustest.NewNullLogger()

	cfg := testConfig(true)
	cfg.Retry.MaxAttempts = 3

	report, err := New(cfg, tally.NewClient(fake.server.URL), logger).Run(context.Background(), []types.TransactionRecord{acmeRecord(2)})
	require.NoError(t, err)

	assert.Len(t, fake.calls(), 3)
	assert.Equal(t, 3, report.Rejected())
	assert.Equal(t, "Could not find ledger", report.Outcomes[0].Message)
}

func TestRun_CancelDuringBackoff(t *testing.T) {
	var sent atomic.Int32
	sender := senderFunc(func(context.Context, []byte) ([]byte, error) {
		sent.Add(1)
		return nil, &tally.TransportError{Endpoint: "test", Err: io.ErrUnexpectedEOF}
	})
	logger, _ := logrustest.NewNullLogger()

	cfg := testConfig(true)
	cfg.Retry.MaxAttempts = 5
	cfg.Retry.Backoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := New(cfg, sender, logger).Run(ctx, []types.TransactionRecord{acmeRecord(2)})
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 5*time.Second)
	assert.EqualValues(t, 3, sent.Load())
	require.Len(t, report.Outcomes, 3)
	for _, o := range report.Outcomes {
		assert.Equal(t, StatusTransportError, o.Status)
		assert.True(t, tally.IsTransportError(o.Err))
	}
}

func TestRun_TransportErrorContinues(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	logger, _ := logrustest.NewNullLogger()
	cfg := testConfig(true)
	cfg.Retry.MaxAttempts = 2

	report, err := New(cfg, tally.NewClient(url, tally.WithTimeout(time.Second)), logger).
		Run(context.Background(), []types.TransactionRecord{acmeRecord(2), acmeRecord(3)})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 6)
	assert.Equal(t, 6, report.Errored())
	for _, o := range report.Outcomes {
		assert.True(t, tally.IsTransportError(o.Err))
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	var sent atomic.Int32
	sender := senderFunc(func(context.Context, []byte) ([]byte, error) {
		sent.Add(1)
		return []byte(accepted), nil
	})
	logger, _ := logrustest.NewNullLogger()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(testConfig(true), sender, logger).Run(ctx, []types.TransactionRecord{acmeRecord(2)})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, report)
	assert.Empty(t, report.Outcomes)
	assert.Zero(t, sent.Load())
}

func TestRun_DryRun(t *testing.T) {
	logger, hook := logrustest.NewNullLogger()

	report, err := New(testConfig(true), DryRunSender{Log: logger}, logger).
		Run(context.Background(), []types.TransactionRecord{acmeRecord(2)})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Created())

	dryRunLines := 0
	for _, e := range hook.AllEntries() {
		if bytes.HasPrefix([]byte(e.Message), []byte("[dry-run]")) {
			dryRunLines++
		}
	}
	assert.Equal(t, 3, dryRunLines)
}

func TestReport_String(t *testing.T) {
	report := newReport(1)
	report.add(Outcome{Row: 2, Operation: OpVoucher, Subject: "Acme Corp", Status: StatusRejected, Message: "bad"})
	report.finish()

	out := report.String()
	assert.Contains(t, out, report.RunID.String())
	assert.Contains(t, out, "Rejected:  1")
	assert.Contains(t, out, `"Acme Corp": bad`)
	assert.Equal(t, "records=1 created=0 rejected=1 errored=0 invalid=0 skipped=0", report.Summary())
}

type senderFunc func(ctx context.Context, body []byte) ([]byte, error)

func (f senderFunc) Send(ctx context.Context, body []byte) ([]byte, error) {
	return f(ctx, body)
}
