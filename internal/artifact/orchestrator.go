// Package artifact runs AI document generation for one open job at a time per
// job id. Each artifact kind has its own slot, so a cover letter and a resume can
// generate concurrently while a second request for the same kind is refused.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"job-agent/internal/domain/artifact"
	"job-agent/internal/domain/event"
	"job-agent/internal/gateway"
)

var (
	ErrPending = errors.New("generation already pending for this artifact")
	ErrClosed  = errors.New("job detail closed")
)

type Orchestrator struct {
	gw       gateway.Client
	notifier event.Notifier
	logger   *log.Logger

	userID int64
	jobID  int64

	// ctx lives until the orchestrator is closed; background generations run
	// under it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	slots  map[artifact.Kind]artifact.State
	closed bool
}

func newOrchestrator(gw gateway.Client, notifier event.Notifier, logger *log.Logger, userID, jobID int64) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	slots := make(map[artifact.Kind]artifact.State, len(artifact.Kinds))
	for _, k := range artifact.Kinds {
		slots[k] = artifact.State{Kind: k, Status: artifact.StatusAbsent}
	}
	return &Orchestrator{
		gw:       gw,
		notifier: event.OrNop(notifier),
		logger:   logger,
		userID:   userID,
		jobID:    jobID,
		ctx:      ctx,
		cancel:   cancel,
		slots:    slots,
	}
}

func (o *Orchestrator) UserID() int64 { return o.userID }
func (o *Orchestrator) JobID() int64  { return o.jobID }

// State returns a copy of the slot for kind.
func (o *Orchestrator) State(kind artifact.Kind) artifact.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return copyState(o.slots[kind])
}

// States returns every slot in display order.
func (o *Orchestrator) States() []artifact.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]artifact.State, 0, len(artifact.Kinds))
	for _, k := range artifact.Kinds {
		out = append(out, copyState(o.slots[k]))
	}
	return out
}

// Generate runs one generation for kind and blocks until it settles. It returns
// ErrPending without calling the backend when kind is already generating.
func (o *Orchestrator) Generate(ctx context.Context, kind artifact.Kind) (artifact.State, error) {
	if err := o.begin(kind); err != nil {
		return o.State(kind), err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(o.ctx, cancel)
	defer stop()

	return o.run(runCtx, kind), nil
}

// Start is Generate without waiting. The outcome is published as an
// artifact_updated event.
func (o *Orchestrator) Start(kind artifact.Kind) error {
	if err := o.begin(kind); err != nil {
		return err
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(o.ctx, kind)
	}()
	return nil
}

func (o *Orchestrator) begin(kind artifact.Kind) error {
	if _, err := artifact.ParseKind(string(kind)); err != nil {
		return err
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if !artifact.CanStart(o.slots[kind].Status) {
		o.mu.Unlock()
		return ErrPending
	}
	st := artifact.State{Kind: kind, Status: artifact.StatusPending}
	o.slots[kind] = st
	o.mu.Unlock()

	o.publish(st)
	return nil
}

func (o *Orchestrator) run(ctx context.Context, kind artifact.Kind) artifact.State {
	st := o.call(ctx, kind)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return st
	}
	o.slots[kind] = st
	o.mu.Unlock()

	if st.Status == artifact.StatusFailed {
		o.logger.Printf("[Artifact] generation failed kind=%s job_id=%d: %s", kind, o.jobID, st.Message)
	}
	o.publish(st)
	return copyState(st)
}

func (o *Orchestrator) call(ctx context.Context, kind artifact.Kind) artifact.State {
	switch kind {
	case artifact.KindCoverLetter, artifact.KindResume:
		var res artifact.GenerationResult
		var err error
		if kind == artifact.KindCoverLetter {
			res, err = o.gw.GenerateCoverLetter(ctx, o.userID, o.jobID)
		} else {
			res, err = o.gw.GenerateResume(ctx, o.userID, o.jobID)
		}
		if err != nil {
			return failed(kind, err)
		}
		return artifact.State{Kind: kind, Status: artifact.StatusReady, Content: res.Content}

	case artifact.KindInterviewPrep:
		res, err := o.gw.GenerateInterviewPrep(ctx, o.userID, o.jobID)
		if err != nil {
			return failed(kind, err)
		}
		prep := artifact.InterviewPrep{}
		if res.Questions != nil {
			prep = *res.Questions
		}
		prep = prep.Normalize()
		return artifact.State{Kind: kind, Status: artifact.StatusReady, Prep: &prep}
	}
	return artifact.State{Kind: kind, Status: artifact.StatusFailed, Message: genericFailure(kind)}
}

// failed keeps backend business messages and replaces everything else with a
// fixed per-kind message.
func failed(kind artifact.Kind, err error) artifact.State {
	msg := genericFailure(kind)
	if errors.Is(err, gateway.ErrBusiness) {
		msg = gateway.UserMessage(err)
	}
	return artifact.State{Kind: kind, Status: artifact.StatusFailed, Message: msg}
}

func genericFailure(kind artifact.Kind) string {
	return fmt.Sprintf("Failed to generate %s. Please try again.", kind.Label())
}

func (o *Orchestrator) publish(st artifact.State) {
	evt := event.New(event.TypeArtifactUpdated)
	evt.JobID = o.jobID
	evt.Kind = string(st.Kind)
	evt.Message = st.Message
	evt.Data = copyState(st)
	o.notifier.Notify(evt)
}

// close cancels in-flight generations and drops every slot. Late results are
// discarded.
func (o *Orchestrator) close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	for _, k := range artifact.Kinds {
		o.slots[k] = artifact.State{Kind: k, Status: artifact.StatusAbsent}
	}
	o.mu.Unlock()
	o.cancel()
}

// Wait blocks until background generations started with Start have returned.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func copyState(st artifact.State) artifact.State {
	if st.Prep != nil {
		p := artifact.InterviewPrep{
			TechnicalQuestions:  append([]string{}, st.Prep.TechnicalQuestions...),
			BehavioralQuestions: append([]string{}, st.Prep.BehavioralQuestions...),
			Tips:                append([]string{}, st.Prep.Tips...),
		}
		st.Prep = &p
	}
	return st
}
