package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

func TestEnqueueOverdueScan(t *testing.T) {
	mr := miniredis.RunT(t)

	client := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer client.Close()

	info, err := client.EnqueueOverdueScan(context.Background(), OverdueScanPayload{
		AsOf: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, TaskOverdueScan, info.Type)
	require.Equal(t, QueueDefault, info.Queue)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: mr.Addr()})
	defer inspector.Close()
	qinfo, err := inspector.GetQueueInfo(QueueDefault)
	require.NoError(t, err)
	require.Equal(t, 1, qinfo.Pending)
}

func TestOverdueScanRequiresPool(t *testing.T) {
	job := NewOverdueScanJob(nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskOverdueScan, []byte("{}")))
	require.Error(t, err)
}
