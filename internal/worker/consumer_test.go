package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
	"github.com/AIObjectives/tttc-light-js-sub003/internal/service"
)

type fakeStore struct {
	record    *model.Job
	lookupErr error
	updateErr error

	lookups int
	updates []statusUpdate
}

type statusUpdate struct {
	id     string
	status model.JobStatus
	errMsg string
}

func (f *fakeStore) GetStatusByID(ctx context.Context, id string) (*model.Job, error) {
	f.lookups++
	return f.record, f.lookupErr
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id string, status model.JobStatus, errMsg string) error {
	f.updates = append(f.updates, statusUpdate{id: id, status: status, errMsg: errMsg})
	return f.updateErr
}

type fakeProcessor struct {
	err    error
	panics bool
	calls  int
}

func (f *fakeProcessor) Run(ctx context.Context, job *model.PipelineJob) error {
	f.calls++
	if f.panics {
		panic("stage blew up")
	}
	return f.err
}

func validBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(&model.PipelineJob{
		Config: model.JobConfig{ReportID: "r-1"},
		Data:   []model.SourceRow{{ID: "1", Comment: "hello", Interview: "Alice"}},
	})
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}
	return body
}

func TestHandleMessage_MalformedBodyNackedWithoutFailureHandling(t *testing.T) {
	store := &fakeStore{}
	proc := &fakeProcessor{}
	c := NewConsumer(store, proc)

	decision, err := c.HandleMessage(context.Background(), []byte("not json"), "req-1")

	if decision != DecisionNack {
		t.Errorf("expected nack, got %v", decision)
	}
	if err == nil {
		t.Error("expected an error for a malformed body")
	}
	if proc.calls != 0 {
		t.Error("processor must not run for a malformed body")
	}
	if len(store.updates) != 0 {
		t.Error("no status record may be touched for a malformed body")
	}
}

func TestHandleMessage_MissingIdentityNacked(t *testing.T) {
	c := NewConsumer(&fakeStore{}, &fakeProcessor{})

	decision, err := c.HandleMessage(context.Background(), []byte(`{"config":{},"data":[]}`), "req-1")

	if decision != DecisionNack || err == nil {
		t.Errorf("expected nack with error, got %v, %v", decision, err)
	}
}

func TestHandleMessage_CompletedJobAckedWithoutProcessing(t *testing.T) {
	store := &fakeStore{record: &model.Job{ID: "r-1", Status: model.StatusFinished}}
	proc := &fakeProcessor{}
	c := NewConsumer(store, proc)

	decision, err := c.HandleMessage(context.Background(), validBody(t), "req-1")

	if decision != DecisionAck || err != nil {
		t.Errorf("expected clean ack, got %v, %v", decision, err)
	}
	if proc.calls != 0 {
		t.Error("processor must not run for an already-finished job")
	}
}

func TestHandleMessage_InFlightJobDeferred(t *testing.T) {
	for _, status := range []model.JobStatus{
		model.StatusClustering, model.StatusExtraction, model.StatusSorting,
		model.StatusDedup, model.StatusSummarizing, model.StatusWrappingUp,
	} {
		store := &fakeStore{record: &model.Job{ID: "r-1", Status: status}}
		proc := &fakeProcessor{}
		c := NewConsumer(store, proc)

		decision, err := c.HandleMessage(context.Background(), validBody(t), "req-1")

		if decision != DecisionDefer || err != nil {
			t.Errorf("status %s: expected defer, got %v, %v", status, decision, err)
		}
		if proc.calls != 0 {
			t.Errorf("status %s: processor must not run while job is in flight", status)
		}
	}
}

func TestHandleMessage_ProcessableStatuses(t *testing.T) {
	records := []*model.Job{
		nil, // no record at all
		{ID: "r-1", Status: model.StatusQueued},
		{ID: "r-1", Status: model.StatusFailed},
	}
	for _, record := range records {
		store := &fakeStore{record: record}
		proc := &fakeProcessor{}
		c := NewConsumer(store, proc)

		decision, err := c.HandleMessage(context.Background(), validBody(t), "req-1")

		if decision != DecisionAck || err != nil {
			t.Errorf("record %+v: expected ack after processing, got %v, %v", record, decision, err)
		}
		if proc.calls != 1 {
			t.Errorf("record %+v: expected processor to run once, ran %d times", record, proc.calls)
		}
	}
}

func TestHandleMessage_ProcessingFailureNackedAndRecorded(t *testing.T) {
	store := &fakeStore{}
	proc := &fakeProcessor{err: errors.New("stage failed")}
	c := NewConsumer(store, proc)

	decision, err := c.HandleMessage(context.Background(), validBody(t), "req-1")

	if decision != DecisionNack || err == nil {
		t.Errorf("expected nack with error, got %v, %v", decision, err)
	}
	if len(store.updates) != 1 {
		t.Fatalf("expected one status update, got %d", len(store.updates))
	}
	update := store.updates[0]
	if update.id != "r-1" || update.status != model.StatusFailed || update.errMsg != "stage failed" {
		t.Errorf("unexpected failure update: %+v", update)
	}
}

func TestHandleMessage_PanicCoercedToError(t *testing.T) {
	store := &fakeStore{}
	proc := &fakeProcessor{panics: true}
	c := NewConsumer(store, proc)

	decision, err := c.HandleMessage(context.Background(), validBody(t), "req-1")

	if decision != DecisionNack || err == nil {
		t.Fatalf("expected nack with coerced error, got %v, %v", decision, err)
	}
	if len(store.updates) != 1 || store.updates[0].status != model.StatusFailed {
		t.Errorf("expected failure recorded for panicking processor, got %+v", store.updates)
	}
}

func TestHandleMessage_LookupErrorNacked(t *testing.T) {
	store := &fakeStore{lookupErr: errors.New("redis down")}
	proc := &fakeProcessor{}
	c := NewConsumer(store, proc)

	decision, err := c.HandleMessage(context.Background(), validBody(t), "req-1")

	if decision != DecisionNack || err == nil {
		t.Errorf("expected nack on lookup failure, got %v, %v", decision, err)
	}
	if proc.calls != 0 {
		t.Error("processor must not run when the idempotency check is unavailable")
	}
}

func TestProcessJobFailure_NoIdentityIsNoop(t *testing.T) {
	store := &fakeStore{}
	c := NewConsumer(store, &fakeProcessor{})

	c.ProcessJobFailure(context.Background(), nil, errors.New("x"), "req-1")
	c.ProcessJobFailure(context.Background(), &model.PipelineJob{}, errors.New("x"), "req-1")

	if len(store.updates) != 0 {
		t.Errorf("expected no updates for jobs without identity, got %+v", store.updates)
	}
}

func TestProcessJobFailure_MissingRecordSwallowed(t *testing.T) {
	store := &fakeStore{updateErr: service.ErrJobNotFound}
	c := NewConsumer(store, &fakeProcessor{})

	// Must not panic or escalate; nothing useful to report.
	c.ProcessJobFailure(context.Background(),
		&model.PipelineJob{Config: model.JobConfig{FirebaseJobID: "fb-1"}},
		errors.New("x"), "req-1")

	if len(store.updates) != 1 || store.updates[0].id != "fb-1" {
		t.Errorf("expected one attempted update keyed by fallback id, got %+v", store.updates)
	}
}
