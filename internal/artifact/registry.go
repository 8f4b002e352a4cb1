package artifact

import (
	"log"
	"sync"

	"job-agent/internal/domain/event"
	"job-agent/internal/gateway"
)

// Registry keeps one Orchestrator per open job detail.
type Registry struct {
	gw       gateway.Client
	notifier event.Notifier
	logger   *log.Logger

	mu   sync.Mutex
	open map[int64]*Orchestrator
}

func NewRegistry(gw gateway.Client, notifier event.Notifier, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		gw:       gw,
		notifier: event.OrNop(notifier),
		logger:   logger,
		open:     map[int64]*Orchestrator{},
	}
}

// Open returns the orchestrator for jobID, creating it if needed. An existing one
// opened for a different user is closed and replaced.
func (r *Registry) Open(userID, jobID int64) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	if o, ok := r.open[jobID]; ok {
		if o.userID == userID {
			return o
		}
		o.close()
	}
	o := newOrchestrator(r.gw, r.notifier, r.logger, userID, jobID)
	r.open[jobID] = o
	return o
}

func (r *Registry) Get(jobID int64) (*Orchestrator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.open[jobID]
	return o, ok
}

// Close destroys the artifact state for jobID and cancels its generations.
func (r *Registry) Close(jobID int64) {
	r.mu.Lock()
	o, ok := r.open[jobID]
	delete(r.open, jobID)
	r.mu.Unlock()

	if ok {
		o.close()
	}
}

// Reset closes every open orchestrator.
func (r *Registry) Reset() {
	r.mu.Lock()
	open := r.open
	r.open = map[int64]*Orchestrator{}
	r.mu.Unlock()

	for _, o := range open {
		o.close()
	}
	if len(open) > 0 {
		r.logger.Printf("[Artifact] reset closed=%d", len(open))
	}
}
