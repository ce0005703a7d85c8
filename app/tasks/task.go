package tasks

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

type TaskType string

const (
	TaskTypePollResources  TaskType = "poll_resources"
	TaskTypePollNavigation TaskType = "poll_navigation"
	TaskTypeFunc           TaskType = "func"
)

type TaskInterface interface {
	Execute(ctx context.Context) error
	GetID() string
	GetType() TaskType
	GetSessionID() string
	Start()
	GetDuration() time.Duration
}

// RepeatingTask is re-scheduled after Interval once each cycle has completed,
// until Done reports true.
type RepeatingTask interface {
	TaskInterface
	Interval() time.Duration
	Done() bool
}

type Task struct {
	ID        string
	Type      TaskType
	SessionID string
	StartedAt *time.Time
}

func (t *Task) GetID() string {
	return t.ID
}

func (t *Task) GetType() TaskType {
	return t.Type
}

func (t *Task) GetSessionID() string {
	return t.SessionID
}

func (t *Task) Start() {
	now := time.Now()
	t.StartedAt = &now
}

func (t *Task) GetDuration() time.Duration {
	if t.StartedAt == nil {
		return 0
	}
	return time.Since(*t.StartedAt)
}

func NewTask(taskType TaskType, sessionID string) Task {
	uniqueID := fmt.Sprintf("%d-%d", time.Now().UnixNano(), rand.Intn(10000))

	return Task{
		ID:        uniqueID,
		Type:      taskType,
		SessionID: sessionID,
	}
}

// FuncTask runs a function on the scheduler's timeline.
type FuncTask struct {
	Task
	fn func(ctx context.Context) error
}

func NewFuncTask(sessionID string, fn func(ctx context.Context) error) *FuncTask {
	return &FuncTask{
		Task: NewTask(TaskTypeFunc, sessionID),
		fn:   fn,
	}
}

func (t *FuncTask) Execute(ctx context.Context) error {
	return t.fn(ctx)
}
