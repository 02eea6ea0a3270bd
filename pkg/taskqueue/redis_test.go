package taskqueue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupQueue 使用miniredis创建队列
func setupQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	q, err := NewRedisQueue(&Config{
		RedisAddr:   mr.Addr(),
		Concurrency: 2,
		RetryLimit:  2,
		RetryDelay:  time.Second,
	}, WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q, mr
}

func TestNewRedisQueueUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisQueue(&Config{RedisAddr: addr})
	assert.Error(t, err)
}

// TestRedisQueue_Enqueue 测试队列入队功能
func TestRedisQueue_Enqueue(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	payload := &AnalysisPayload{FileID: "file-1", AnalysisID: "an-1"}
	taskID, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-1", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)

	task, err := q.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, TaskFinancialAnalysis, task.Type)
	assert.Equal(t, "file-1", task.FileID)
	assert.Equal(t, StatusPending, task.Status)
	assert.Equal(t, 2, task.MaxRetries)

	var decoded AnalysisPayload
	require.NoError(t, UnmarshalPayload(task.Payload, &decoded))
	assert.Equal(t, *payload, decoded)

	// 任务记录带有过期时间
	assert.Greater(t, mr.TTL(taskKeyPrefix+taskID), time.Duration(0))

	_, err = q.GetTask(ctx, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

// TestRedisQueue_GetTasksByFile 测试按文件查询任务
func TestRedisQueue_GetTasksByFile(t *testing.T) {
	q, mr := setupQueue(t)
	ctx := context.Background()

	id1, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-1", nil)
	require.NoError(t, err)
	id2, err := q.Enqueue(ctx, TaskNarrativeSummary, "file-1", &AnalysisPayload{MaxSentences: 5})
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, TaskFinancialAnalysis, "file-2", nil)
	require.NoError(t, err)

	tasks, err := q.GetTasksByFile(ctx, "file-1")
	require.NoError(t, err)
	ids := []string{}
	for _, task := range tasks {
		ids = append(ids, task.ID)
	}
	assert.ElementsMatch(t, []string{id1, id2}, ids)

	// 过期的任务被跳过
	mr.Del(taskKeyPrefix + id1)
	tasks, err = q.GetTasksByFile(ctx, "file-1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, id2, tasks[0].ID)
}

// TestRedisQueue_UpdateTaskStatus 测试状态更新
func TestRedisQueue_UpdateTaskStatus(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	taskID, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-1", nil)
	require.NoError(t, err)

	require.NoError(t, q.UpdateTaskStatus(ctx, taskID, StatusProcessing, nil, ""))
	task, err := q.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, task.Status)
	assert.NotNil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)

	result := &AnalysisResult{AnalysisID: "an-1", Company: "Acme", Success: true}
	require.NoError(t, q.UpdateTaskStatus(ctx, taskID, StatusCompleted, result, ""))
	task, err = q.GetTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.CompletedAt)

	var decoded AnalysisResult
	require.NoError(t, json.Unmarshal(task.Result, &decoded))
	assert.Equal(t, "Acme", decoded.Company)

	assert.ErrorIs(t, q.UpdateTaskStatus(ctx, "missing", StatusFailed, nil, "x"), ErrTaskNotFound)
}

// TestRedisQueue_DeleteTask 测试删除任务
func TestRedisQueue_DeleteTask(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	taskID, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-del", nil)
	require.NoError(t, err)

	require.NoError(t, q.DeleteTask(ctx, taskID))

	_, err = q.GetTask(ctx, taskID)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	tasks, err := q.GetTasksByFile(ctx, "file-del")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

// TestRedisQueue_WaitForTask 测试等待任务结束
func TestRedisQueue_WaitForTask(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()

	taskID, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-1", nil)
	require.NoError(t, err)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = q.UpdateTaskStatus(ctx, taskID, StatusCompleted, nil, "")
		_ = q.NotifyTaskUpdate(ctx, taskID)
	}()

	task, err := q.WaitForTask(ctx, taskID, 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)

	pending, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-1", nil)
	require.NoError(t, err)
	_, err = q.WaitForTask(ctx, pending, 200*time.Millisecond)
	assert.ErrorIs(t, err, ErrTaskTimeout)
}

// TestRedisWorkerProcess 测试工作者对任务状态的同步
func TestRedisWorkerProcess(t *testing.T) {
	q, _ := setupQueue(t)
	ctx := context.Background()
	w := NewRedisWorker(q, nil)

	okID, err := q.Enqueue(ctx, TaskFinancialAnalysis, "file-1", &AnalysisPayload{FileID: "file-1"})
	require.NoError(t, err)

	var seen *Task
	handler := HandlerFunc(func(ctx context.Context, task *Task) (interface{}, error) {
		seen = task
		return &AnalysisResult{Company: "Acme", Success: true}, nil
	})
	require.NoError(t, w.process(ctx, okID, handler))

	require.NotNil(t, seen)
	assert.Equal(t, "file-1", seen.FileID)
	task, err := q.GetTask(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.NotNil(t, task.StartedAt)
	assert.Contains(t, string(task.Result), "Acme")

	failID, err := q.Enqueue(ctx, TaskNarrativeSummary, "file-1", nil)
	require.NoError(t, err)
	boom := errors.New("extraction failed")
	err = w.process(ctx, failID, HandlerFunc(func(ctx context.Context, task *Task) (interface{}, error) {
		return nil, boom
	}))
	assert.ErrorIs(t, err, boom)

	task, err = q.GetTask(ctx, failID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Equal(t, "extraction failed", task.Error)

	// 记录已删除的任务不再处理
	err = w.process(ctx, "missing", handler)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRedisWorkerMux(t *testing.T) {
	q, _ := setupQueue(t)
	w := NewRedisWorker(q, nil)
	w.RegisterHandler(TaskFinancialAnalysis, HandlerFunc(func(ctx context.Context, task *Task) (interface{}, error) {
		return nil, nil
	}))
	assert.NotNil(t, w.Mux())
}

// TestTaskInfo 测试TaskInfo生成
func TestTaskInfo(t *testing.T) {
	now := time.Now()
	completedAt := now.Add(-time.Minute)

	task := &Task{
		ID:          "task-123",
		Type:        TaskNarrativeSummary,
		FileID:      "file-123",
		Status:      StatusCompleted,
		Result:      json.RawMessage(`{"success":true}`),
		CreatedAt:   now.Add(-10 * time.Minute),
		CompletedAt: &completedAt,
	}

	info := NewTaskInfo(task)
	assert.Equal(t, task.ID, info.ID)
	assert.Equal(t, task.FileID, info.FileID)
	assert.Equal(t, task.Result, info.Result)
	assert.Equal(t, 100.0, info.Progress)

	task.Status = StatusPending
	assert.Equal(t, 0.0, NewTaskInfo(task).Progress)
	assert.False(t, StatusProcessing.Finished())
}

func TestUnmarshalPayloadEmpty(t *testing.T) {
	var p AnalysisPayload
	assert.ErrorIs(t, UnmarshalPayload(nil, &p), ErrInvalidPayload)
}
