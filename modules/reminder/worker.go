// Package reminder announces pending tasks whose due date is approaching.
package reminder

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	domain "github.com/example/todo-app/domain/notification"
	"github.com/example/todo-app/events"
	"github.com/example/todo-app/modules/task"
)

// WorkerConfig holds reminder worker configuration.
type WorkerConfig struct {
	Interval    time.Duration
	Lead        time.Duration
	CallTimeout time.Duration
}

// DefaultWorkerConfig returns the default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Interval:    time.Minute,
		Lead:        time.Hour,
		CallTimeout: 10 * time.Second,
	}
}

// TaskSource finds reminder candidates.
type TaskSource interface {
	DueSoonTasks(ctx context.Context, from, to time.Time) (*task.DueSoonResponse, error)
}

// PublishFunc announces one due task.
type PublishFunc func(event events.TaskDueSoonEvent) error

// Worker scans for tasks due within the lead window on a fixed interval.
type Worker struct {
	config  WorkerConfig
	source  TaskSource
	publish PublishFunc
	now     func() time.Time

	mu        sync.Mutex
	announced map[string]time.Time // reminder key -> due date
	running   bool
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// NewWorker creates a new Worker.
func NewWorker(cfg WorkerConfig, source TaskSource, publish PublishFunc) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultWorkerConfig().Interval
	}
	if cfg.Lead <= 0 {
		cfg.Lead = DefaultWorkerConfig().Lead
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultWorkerConfig().CallTimeout
	}
	return &Worker{
		config:    cfg,
		source:    source,
		publish:   publish,
		now:       time.Now,
		announced: make(map[string]time.Time),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the scan loop. The first scan runs immediately.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("reminder worker is already running")
	}
	w.running = true

	go w.run()
	log.Printf("[reminder] Worker started (interval: %s, lead: %s)", w.config.Interval, w.config.Lead)
	return nil
}

// Stop ends the scan loop and waits for it to exit or for ctx to expire.
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return nil
	}

	w.stopOnce.Do(func() { close(w.stop) })

	select {
	case <-w.done:
		log.Println("[reminder] Worker stopped")
		return nil
	case <-ctx.Done():
		log.Println("[reminder] Timeout waiting for worker to stop")
		return ctx.Err()
	}
}

func (w *Worker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	w.scan()
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.scan()
		}
	}
}

func (w *Worker) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), w.config.CallTimeout)
	defer cancel()

	if _, err := w.Scan(ctx); err != nil {
		log.Printf("[reminder] Error: scan failed: %v", err)
	}
}

// Scan publishes a TaskDueSoon event for every pending task due in
// (now, now+lead] that has not been announced for its current due date.
// It returns the number of events published.
func (w *Worker) Scan(ctx context.Context) (int, error) {
	now := w.now().UTC()
	resp, err := w.source.DueSoonTasks(ctx, now, now.Add(w.config.Lead))
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.prune(now)

	published := 0
	for _, t := range resp.Tasks {
		key := domain.ReminderKey(t.TaskID, t.DueDate)
		if _, seen := w.announced[key]; seen {
			continue
		}

		event := events.TaskDueSoonEvent{
			TaskID:  t.TaskID,
			UserID:  t.UserID,
			Title:   t.Title,
			DueDate: t.DueDate,
		}
		if err := w.publish(event); err != nil {
			log.Printf("[reminder] Warning: failed to publish TaskDueSoon event for task %s: %v", t.TaskID, err)
			continue
		}
		w.announced[key] = t.DueDate
		published++
	}

	if published > 0 {
		log.Printf("[reminder] Announced %d task(s) due before %s", published, now.Add(w.config.Lead).Format(time.RFC3339))
	}
	return published, nil
}

// Pending returns the number of remembered announcements.
func (w *Worker) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.announced)
}

// prune forgets announcements whose due date has passed; such tasks can no
// longer enter the window.
func (w *Worker) prune(now time.Time) {
	for key, due := range w.announced {
		if !due.After(now) {
			delete(w.announced, key)
		}
	}
}
