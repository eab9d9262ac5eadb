package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingClient struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (c *recordingClient) EnqueueContext(_ context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if c.err != nil {
		return nil, c.err
	}
	c.tasks = append(c.tasks, task)
	c.opts = append(c.opts, opts)
	return &asynq.TaskInfo{ID: uuid.NewString(), Queue: "default"}, nil
}

func (c *recordingClient) Close() error { return nil }

func optionValues(opts []asynq.Option) map[asynq.OptionType]any {
	out := make(map[asynq.OptionType]any, len(opts))
	for _, o := range opts {
		out[o.Type()] = o.Value()
	}
	return out
}

func TestEnqueueProcess(t *testing.T) {
	rc := &recordingClient{}
	c := &Client{client: rc, timeout: 10 * time.Minute}
	id := uuid.New()

	require.NoError(t, c.EnqueueProcess(context.Background(), id))
	require.Len(t, rc.tasks, 1)
	assert.Equal(t, TypeDocumentProcess, rc.tasks[0].Type())

	got, err := ParseDocumentProcess(rc.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, id, got)

	opts := optionValues(rc.opts[0])
	assert.Equal(t, 0, opts[asynq.MaxRetryOpt])
	assert.Equal(t, 10*time.Minute, opts[asynq.TimeoutOpt])
}

func TestEnqueueSweep(t *testing.T) {
	rc := &recordingClient{}
	c := &Client{client: rc}

	require.NoError(t, c.EnqueueSweep(context.Background()))
	require.Len(t, rc.tasks, 1)
	assert.Equal(t, TypeReprocessSweep, rc.tasks[0].Type())
	assert.Equal(t, 0, optionValues(rc.opts[0])[asynq.MaxRetryOpt])
}

func TestEnqueueError(t *testing.T) {
	c := &Client{client: &recordingClient{err: errors.New("redis down")}}
	err := c.EnqueueProcess(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "enqueue document:process: redis down")
}

func TestParseDocumentProcessRejectsBadPayload(t *testing.T) {
	_, err := ParseDocumentProcess(asynq.NewTask(TypeDocumentProcess, []byte(`{`)))
	assert.ErrorContains(t, err, "unmarshal payload")

	_, err = ParseDocumentProcess(asynq.NewTask(TypeDocumentProcess, []byte(`{"document_id":"nope"}`)))
	assert.ErrorContains(t, err, "parse document ID")
}

func TestRegistryRoutesTasks(t *testing.T) {
	r := NewHandlersRegistry()
	var seen []string
	r.Register(TypeReprocessSweep, asynq.HandlerFunc(func(_ context.Context, t *asynq.Task) error {
		seen = append(seen, t.Type())
		return nil
	}))
	r.Register(TypeDocumentProcess, asynq.HandlerFunc(func(context.Context, *asynq.Task) error {
		return errors.New("boom")
	}))

	require.NoError(t, r.Mux().ProcessTask(context.Background(), NewReprocessSweepTask()))
	assert.Equal(t, []string{TypeReprocessSweep}, seen)

	task, err := NewDocumentProcessTask(uuid.New())
	require.NoError(t, err)
	assert.EqualError(t, r.Mux().ProcessTask(context.Background(), task), "boom")
}
