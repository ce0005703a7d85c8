package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrSchedulerStopped = errors.New("scheduler stopped")
	ErrQueueFull        = errors.New("task queue is full")
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler executes tasks one at a time on a single worker goroutine, so
// tasks sharing a scheduler never overlap. Repeating tasks are re-armed on the
// clock only after their cycle has finished.
type Scheduler struct {
	clock     Clock
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface

	mu      sync.Mutex
	started bool
	stopped bool
	timers  map[string]Timer
}

func NewScheduler(clock Clock, queueSize int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	if queueSize <= 0 {
		queueSize = 16
	}

	return &Scheduler{
		clock:     clock,
		ctx:       ctx,
		cancel:    cancel,
		taskQueue: make(chan TaskInterface, queueSize),
		timers:    make(map[string]Timer),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.worker()
}

// Stop cancels every pending reschedule and waits for the running task, if
// any, to return. No task executes after Stop returns.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
	s.cancel()
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enqueueLocked(task)
}

// Schedule enqueues task after delay.
func (s *Scheduler) Schedule(task TaskInterface, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if delay <= 0 {
		return s.enqueueLocked(task)
	}
	if s.stopped {
		return ErrSchedulerStopped
	}

	s.armLocked(task, delay)
	return nil
}

// Run executes fn on the timeline and waits for it to finish.
func (s *Scheduler) Run(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	task := NewFuncTask(sessionID, func(ctx context.Context) error {
		err := fn(ctx)
		done <- err
		return err
	})

	if err := s.EnqueueTask(task); err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-s.ctx.Done():
		return ErrSchedulerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of armed reschedules.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

func (s *Scheduler) enqueueLocked(task TaskInterface) error {
	if s.stopped {
		return ErrSchedulerStopped
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

func (s *Scheduler) armLocked(task TaskInterface, delay time.Duration) {
	id := task.GetID()
	s.timers[id] = s.clock.AfterFunc(delay, func() {
		s.fire(task, delay)
	})
}

func (s *Scheduler) fire(task TaskInterface, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	delete(s.timers, task.GetID())

	if err := s.enqueueLocked(task); err != nil {
		slog.Warn("Task queue full, delaying task", "type", string(task.GetType()), "session", task.GetSessionID(), "delay", delay.String())
		s.armLocked(task, delay)
	}
}

func (s *Scheduler) worker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case task := <-s.taskQueue:
			if s.ctx.Err() != nil {
				return
			}
			s.executeTask(task)
		}
	}
}

func (s *Scheduler) executeTask(task TaskInterface) {
	task.Start()

	if err := task.Execute(s.ctx); err != nil {
		slog.Error("Task execution failed", "type", string(task.GetType()), "id", task.GetID(), "session", task.GetSessionID(), "error", err)
	}

	repeating, ok := task.(RepeatingTask)
	if !ok || repeating.Done() {
		return
	}

	if err := s.Schedule(repeating, repeating.Interval()); err != nil && !errors.Is(err, ErrSchedulerStopped) {
		slog.Error("Failed to reschedule task", "type", string(task.GetType()), "session", task.GetSessionID(), "error", err)
	}
}
