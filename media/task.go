package media

import "time"

// Status is the lifecycle state of an upload task.
type Status string

const (
	StatusValidating Status = "validating"
	StatusUploading  Status = "uploading"
	StatusSucceeded  Status = "succeeded"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Task is a snapshot of one upload. Asset is set iff Status is succeeded.
type Task struct {
	ID         string
	File       File
	Kind       Kind
	Status     Status
	Progress   int
	Asset      *Asset
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// Done reports whether the task reached a terminal status.
func (t Task) Done() bool {
	switch t.Status {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
