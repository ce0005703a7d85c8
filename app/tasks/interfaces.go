package tasks

import "time"

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by session harvesters to drive their pollers on one timeline.
// Example usage:
//
//	scheduler := NewScheduler(RealClock(), 16)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewResourcePollTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	Schedule(task TaskInterface, delay time.Duration) error
}
