package enrich

import "context"

// Task is a handle to a background enrichment run. Capture returns to its
// caller as soon as the placeholder exists; the caller may hold the handle to
// observe the outcome, or drop it.
type Task struct {
	TweetID string

	done chan struct{}
	err  error
}

// Wait blocks until the run finishes or ctx expires, returning the run's
// error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return t.err
	}
}

// Done reports whether the run has finished without blocking.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Enqueue starts enrichment as a detached background run with the
// orchestrator's timeout. The run is decoupled from the triggering request's
// context: capture acknowledgement must not depend on enrichment finishing.
func (o *Orchestrator) Enqueue(tweetID string) *Task {
	task := &Task{TweetID: tweetID, done: make(chan struct{})}

	go func() {
		defer close(task.done)

		ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
		defer cancel()

		if err := o.Run(ctx, tweetID); err != nil {
			o.log.WithField("tweet_id", tweetID).WithError(err).Error("background enrichment failed")
			task.err = err
		}
	}()

	return task
}
