package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	invoicerepo "github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository"
	"github.com/Niconord59/crm-axivity-sub001/internal/invoices/repository/memory"
	invoicesvc "github.com/Niconord59/crm-axivity-sub001/internal/invoices/service"
	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"
	"github.com/Niconord59/crm-axivity-sub001/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC)

type recordingEnqueuer struct {
	mu       sync.Mutex
	seen     map[string]bool
	payloads []DunningRelancePayload
	err      error
}

func (e *recordingEnqueuer) EnqueueDunningRelance(_ context.Context, p DunningRelancePayload) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return false, e.err
	}
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if e.seen[p.TaskID()] {
		return false, nil
	}
	e.seen[p.TaskID()] = true
	e.payloads = append(e.payloads, p)
	return true, nil
}

func newSweepService(t *testing.T) (*invoicesvc.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc := invoicesvc.New(store, nil, nil, nil)
	svc.SetClock(func() time.Time { return fixedNow })
	return svc, store
}

func dueDaysAgo(n int) time.Time {
	return time.Date(2024, 5, 14, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -n)
}

func putReachable(store *memory.Store, inv invoicerepo.Invoice) invoicerepo.Invoice {
	inv = store.PutInvoice(inv)
	email := "billing@acme.test"
	store.PutRecipient(inv.ID, invoicerepo.Recipient{AccountName: "Acme", ContactEmail: &email})
	return inv
}

func TestSweepOnceEnqueuesCandidates(t *testing.T) {
	svc, store := newSweepService(t)
	a := putReachable(store, invoicerepo.Invoice{InvoiceNumber: "A", DueDate: dueDaysAgo(3)})
	b := putReachable(store, invoicerepo.Invoice{InvoiceNumber: "B", DueDate: dueDaysAgo(20), EscalationLevel: 2})
	putReachable(store, invoicerepo.Invoice{InvoiceNumber: "C", DueDate: dueDaysAgo(4), EscalationLevel: 1})

	enq := &recordingEnqueuer{}
	sweep := NewDunningSweep(svc, enq, time.Minute, nil)

	res, err := sweep.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, 2, res.Enqueued)

	got := map[string]int{}
	for _, p := range enq.payloads {
		got[p.InvoiceID] = p.Level
	}
	assert.Equal(t, map[string]int{a.ID.String(): 1, b.ID.String(): 3}, got)

	res, err = sweep.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Enqueued)
	assert.Equal(t, 2, res.Duplicates)
}

func TestSweepOnceReportsEnqueueFailure(t *testing.T) {
	svc, store := newSweepService(t)
	putReachable(store, invoicerepo.Invoice{InvoiceNumber: "A", DueDate: dueDaysAgo(3)})

	sweep := NewDunningSweep(svc, &recordingEnqueuer{err: errors.New("redis down")}, time.Minute, nil)
	res, err := sweep.SweepOnce(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 0, res.Enqueued)
}

func TestSweepRunStopsOnCancel(t *testing.T) {
	svc, store := newSweepService(t)
	putReachable(store, invoicerepo.Invoice{InvoiceNumber: "A", DueDate: dueDaysAgo(3)})
	enq := &recordingEnqueuer{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewDunningSweep(svc, enq, time.Hour, nil).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		enq.mu.Lock()
		defer enq.mu.Unlock()
		return len(enq.payloads) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweep did not stop")
	}
}

type stubRelancer struct {
	result invoicesvc.RelanceResult
	err    error
	calls  int
}

func (r *stubRelancer) Relance(context.Context, uuid.UUID) (invoicesvc.RelanceResult, error) {
	r.calls++
	return r.result, r.err
}

func relanceTask(t *testing.T, invoiceID string, level int) *asynq.Task {
	t.Helper()
	task, err := NewDunningRelanceTask(DunningRelancePayload{InvoiceID: invoiceID, Level: level})
	require.NoError(t, err)
	return task
}

func TestDunningRelanceTaskRoundTrip(t *testing.T) {
	id := uuid.NewString()
	task := relanceTask(t, id, 2)

	assert.Equal(t, TaskDunningRelance, task.Type())
	payload, err := ParseDunningRelancePayload(task)
	require.NoError(t, err)
	assert.Equal(t, id, payload.InvoiceID)
	assert.Equal(t, "dunning:"+id+":2", payload.TaskID())
}

func TestWorkerHandleDunningRelance(t *testing.T) {
	id := uuid.NewString()

	cases := []struct {
		name      string
		err       error
		wantErr   bool
		skipRetry bool
	}{
		{name: "sent", err: nil},
		{name: "not overdue", err: apperr.Precondition("invoice is not overdue"), wantErr: true, skipRetry: true},
		{name: "gone", err: apperr.NotFound("invoice not found"), wantErr: true, skipRetry: true},
		{name: "dispatch failure retried", err: apperr.Dispatch("relance dispatch failed", errors.New("502")), wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			relancer := &stubRelancer{result: invoicesvc.RelanceResult{EscalationLevel: 2}, err: tc.err}
			w := &Worker{relancer: relancer, log: logger.Discard()}

			err := w.handleDunningRelance(context.Background(), relanceTask(t, id, 2))
			assert.Equal(t, 1, relancer.calls)
			if !tc.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}

func TestWorkerRejectsMalformedPayload(t *testing.T) {
	relancer := &stubRelancer{}
	w := &Worker{relancer: relancer, log: logger.Discard()}

	err := w.handleDunningRelance(context.Background(), asynq.NewTask(TaskDunningRelance, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.handleDunningRelance(context.Background(), relanceTask(t, "nope", 1))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 0, relancer.calls)
}
