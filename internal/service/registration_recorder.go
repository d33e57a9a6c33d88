package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"technofest/internal/metrics"
	"technofest/internal/repository"
)

const (
	recorderQueueSize = 100
	recorderBatchSize = 10
	recorderFlush     = time.Second
)

type registrationJob struct {
	eventID string
	userID  string
}

// Recorder writes registrations in the background. Each job appends a
// registration and bumps the event's participant count; failures are logged
// and counted, never returned.
type Recorder struct {
	events        repository.EventRepository
	registrations repository.RegistrationRepository
	metrics       metrics.Recorder

	// per-event locks serialize the read-then-set increment in this process
	eventMutexes sync.Map

	mu     sync.RWMutex
	closed bool
	jobs   chan registrationJob
	done   chan struct{}
}

// NewRecorder starts the background worker. Call Close to drain it.
func NewRecorder(events repository.EventRepository, registrations repository.RegistrationRepository, rec metrics.Recorder) *Recorder {
	return newRecorder(events, registrations, rec, recorderFlush)
}

func newRecorder(events repository.EventRepository, registrations repository.RegistrationRepository, rec metrics.Recorder, flush time.Duration) *Recorder {
	if rec == nil {
		rec = metrics.Nop{}
	}
	r := &Recorder{
		events:        events,
		registrations: registrations,
		metrics:       rec,
		jobs:          make(chan registrationJob, recorderQueueSize),
		done:          make(chan struct{}),
	}
	go r.worker(flush)
	return r
}

// Record queues a registration. When the queue is full it is written
// synchronously instead.
func (r *Recorder) Record(ctx context.Context, eventID, userID string) {
	job := registrationJob{eventID: eventID, userID: userID}

	r.mu.RLock()
	if !r.closed {
		select {
		case r.jobs <- job:
			r.mu.RUnlock()
			return
		default:
		}
	}
	r.mu.RUnlock()

	r.write(context.WithoutCancel(ctx), []registrationJob{job})
}

// Close stops accepting jobs and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.jobs)
	}
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) worker(flush time.Duration) {
	defer close(r.done)
	ctx := context.Background()
	batch := make([]registrationJob, 0, recorderBatchSize)
	ticker := time.NewTicker(flush)
	defer ticker.Stop()

	for {
		select {
		case job, ok := <-r.jobs:
			if !ok {
				if len(batch) > 0 {
					r.write(ctx, batch)
				}
				return
			}
			batch = append(batch, job)
			if len(batch) >= recorderBatchSize {
				r.write(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.write(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// write appends every registration, then applies one increment per event.
func (r *Recorder) write(ctx context.Context, jobs []registrationJob) {
	added := make(map[string]int)
	var order []string
	for _, job := range jobs {
		if _, err := r.registrations.Append(ctx, job.eventID, job.userID); err != nil {
			slog.ErrorContext(ctx, "record registration",
				slog.String("event_id", job.eventID), slog.String("user_id", job.userID), slog.Any("error", err))
			r.metrics.RecordRegistration(false)
			continue
		}
		if added[job.eventID] == 0 {
			order = append(order, job.eventID)
		}
		added[job.eventID]++
	}

	for _, eventID := range order {
		n := added[eventID]
		if err := r.increment(ctx, eventID, n); err != nil {
			slog.ErrorContext(ctx, "increment participants", slog.String("event_id", eventID), slog.Any("error", err))
			for range n {
				r.metrics.RecordRegistration(false)
			}
			continue
		}
		for range n {
			r.metrics.RecordRegistration(true)
		}
	}
}

func (r *Recorder) increment(ctx context.Context, eventID string, n int) error {
	mutex := r.getMutex(eventID)
	mutex.Lock()
	defer mutex.Unlock()

	event, err := r.events.Get(ctx, eventID)
	if err != nil {
		return err
	}
	return r.events.SetParticipants(ctx, eventID, event.Participants+n)
}

func (r *Recorder) getMutex(eventID string) *sync.Mutex {
	value, _ := r.eventMutexes.LoadOrStore(eventID, &sync.Mutex{})
	return value.(*sync.Mutex)
}
