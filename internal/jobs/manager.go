// Package jobs owns the client-side job collection: the current search results,
// the saved set, applied markers and the in-flight guards around them.
package jobs

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"job-agent/internal/domain/event"
	"job-agent/internal/domain/job"
	"job-agent/internal/domain/user"
	"job-agent/internal/gateway"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrSuperseded is returned to a search whose result arrived after a newer
	// search started. The collection is left untouched.
	ErrSuperseded = errors.New("search superseded by a newer request")

	// ErrInFlight rejects a save toggle or apply while one is already running for
	// the same job.
	ErrInFlight = errors.New("request already in flight for this job")

	ErrNotSignedIn = errors.New("not signed in")
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseErrored Phase = "errored"
)

// SessionView is the part of the session store the manager reads.
type SessionView interface {
	User() (user.User, bool)
}

// URLOpener opens an apply URL in a new browsing context.
type URLOpener interface {
	OpenURL(ctx context.Context, url string) error
}

type Manager struct {
	gw       gateway.Client
	session  SessionView
	opener   URLOpener
	notifier event.Notifier
	logger   *log.Logger

	mu       sync.Mutex
	phase    Phase
	query    string
	location string
	jobs     []job.Job
	known    map[int64]job.Job

	// saved maps job id to saved-record id; 0 means saved but id not yet known.
	saved        map[int64]int64
	applied      map[int64]bool
	applications []job.Application
	pendingSave  map[int64]bool
	pendingApply map[int64]bool
	lastErr      string

	seq    uint64
	cancel context.CancelFunc

	// epoch counts resets. Save and apply results from an earlier epoch belong
	// to a previous session and are dropped.
	epoch uint64
}

func NewManager(gw gateway.Client, session SessionView, opener URLOpener, notifier event.Notifier, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		gw:       gw,
		session:  session,
		opener:   opener,
		notifier: event.OrNop(notifier),
		logger:   logger,
	}
	m.resetLocked()
	return m
}

func (m *Manager) resetLocked() {
	m.phase = PhaseIdle
	m.query = ""
	m.location = ""
	m.jobs = nil
	m.known = map[int64]job.Job{}
	m.saved = map[int64]int64{}
	m.applied = map[int64]bool{}
	m.applications = nil
	m.pendingSave = map[int64]bool{}
	m.pendingApply = map[int64]bool{}
	m.lastErr = ""
}

func (m *Manager) currentUser() (user.User, error) {
	if m.session == nil {
		return user.User{}, ErrNotSignedIn
	}
	u, ok := m.session.User()
	if !ok {
		return user.User{}, ErrNotSignedIn
	}
	return u, nil
}

// Search replaces the collection with the backend's results for query and
// location. A newer Search or Recommended cancels this one.
func (m *Manager) Search(ctx context.Context, query, location string) ([]job.Job, error) {
	u, err := m.currentUser()
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	location = strings.TrimSpace(location)
	return m.load(ctx, query, location, func(ctx context.Context) ([]job.Job, error) {
		return m.gw.SearchJobs(ctx, query, location, u.ID)
	})
}

// Recommended replaces the collection with the user's recommendations.
func (m *Manager) Recommended(ctx context.Context) ([]job.Job, error) {
	u, err := m.currentUser()
	if err != nil {
		return nil, err
	}
	return m.load(ctx, "", "", func(ctx context.Context) ([]job.Job, error) {
		return m.gw.RecommendedJobs(ctx, u.ID)
	})
}

func (m *Manager) load(ctx context.Context, query, location string, fetch func(context.Context) ([]job.Job, error)) ([]job.Job, error) {
	m.mu.Lock()
	m.seq++
	id := m.seq
	if m.cancel != nil {
		m.cancel()
	}
	cctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.phase = PhaseLoading
	m.query = query
	m.location = location
	m.lastErr = ""
	m.mu.Unlock()
	defer cancel()

	m.notify(event.New(event.TypeJobsUpdated))

	jobs, err := fetch(cctx)

	m.mu.Lock()
	if id != m.seq {
		m.mu.Unlock()
		if errors.Is(err, gateway.ErrUnauthorized) {
			return nil, err
		}
		return nil, ErrSuperseded
	}
	m.cancel = nil
	if err != nil {
		m.phase = PhaseErrored
		m.lastErr = gateway.UserMessage(err)
		m.mu.Unlock()
		m.logger.Printf("[Jobs] load failed query=%q location=%q: %v", query, location, err)
		evt := event.New(event.TypeJobsUpdated)
		evt.Message = gateway.UserMessage(err)
		m.notify(evt)
		return nil, err
	}
	jobs = job.Dedupe(jobs)
	m.jobs = jobs
	for _, j := range jobs {
		m.known[j.ID] = j
	}
	m.phase = PhaseLoaded
	out := append([]job.Job(nil), jobs...)
	m.mu.Unlock()

	evt := event.New(event.TypeJobsUpdated)
	evt.Data = len(out)
	m.notify(evt)
	return out, nil
}

// ToggleSave flips the saved state of jobID. The saved set changes immediately
// and is rolled back if the backend call fails.
func (m *Manager) ToggleSave(ctx context.Context, jobID int64) (bool, error) {
	m.mu.Lock()
	_, saved := m.saved[jobID]
	m.mu.Unlock()
	return m.SetSaved(ctx, jobID, !saved)
}

// SetSaved drives jobID to the wanted saved state. It is a no-op when the job is
// already there and returns ErrInFlight while a change for the job is running.
func (m *Manager) SetSaved(ctx context.Context, jobID int64, want bool) (bool, error) {
	u, err := m.currentUser()
	if err != nil {
		return false, err
	}

	m.mu.Lock()
	if m.pendingSave[jobID] {
		m.mu.Unlock()
		return false, ErrInFlight
	}
	savedID, isSaved := m.saved[jobID]
	if isSaved == want {
		m.mu.Unlock()
		return isSaved, nil
	}
	m.pendingSave[jobID] = true
	if want {
		m.saved[jobID] = 0
	} else {
		delete(m.saved, jobID)
	}
	epoch := m.epoch
	m.mu.Unlock()
	m.notifySaved(jobID, "")

	defer func() {
		m.mu.Lock()
		if m.epoch == epoch {
			delete(m.pendingSave, jobID)
		}
		m.mu.Unlock()
	}()

	if want {
		rec, err := m.gw.SaveJob(ctx, u.ID, jobID)
		if err != nil {
			m.rollbackSave(epoch, jobID, false, 0, err)
			return false, err
		}
		m.mu.Lock()
		if m.epoch == epoch {
			m.saved[jobID] = rec.SavedID
		}
		m.mu.Unlock()
		return true, nil
	}

	if savedID == 0 {
		id, found, err := m.resolveSavedID(ctx, u.ID, jobID)
		if err != nil {
			m.rollbackSave(epoch, jobID, true, 0, err)
			return true, err
		}
		if !found {
			return false, nil
		}
		savedID = id
	}
	if err := m.gw.UnsaveJob(ctx, savedID); err != nil {
		m.rollbackSave(epoch, jobID, true, savedID, err)
		return true, err
	}
	return false, nil
}

func (m *Manager) rollbackSave(epoch uint64, jobID int64, saved bool, savedID int64, cause error) {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Printf("[Jobs] save toggle failed job_id=%d after session change: %v", jobID, cause)
		return
	}
	if saved {
		m.saved[jobID] = savedID
	} else {
		delete(m.saved, jobID)
	}
	m.lastErr = gateway.UserMessage(cause)
	m.mu.Unlock()
	m.logger.Printf("[Jobs] save toggle failed job_id=%d, rolled back: %v", jobID, cause)
	m.notifySaved(jobID, gateway.UserMessage(cause))
}

// resolveSavedID finds the saved-record id for jobID from the backend's saved
// list. found is false when the backend has no such record.
func (m *Manager) resolveSavedID(ctx context.Context, userID, jobID int64) (int64, bool, error) {
	list, err := m.gw.ListSavedJobs(ctx, userID)
	if err != nil {
		return 0, false, err
	}
	for _, s := range list {
		if s.Job.ID == jobID {
			return s.ID, true, nil
		}
	}
	return 0, false, nil
}

// Apply records an application for jobID. Only a successful call marks the job
// applied and opens its apply URL.
func (m *Manager) Apply(ctx context.Context, jobID int64) (job.ApplicationReceipt, error) {
	u, err := m.currentUser()
	if err != nil {
		return job.ApplicationReceipt{}, err
	}

	m.mu.Lock()
	if m.pendingApply[jobID] {
		m.mu.Unlock()
		return job.ApplicationReceipt{}, ErrInFlight
	}
	m.pendingApply[jobID] = true
	j, known := m.known[jobID]
	epoch := m.epoch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.epoch == epoch {
			delete(m.pendingApply, jobID)
		}
		m.mu.Unlock()
	}()

	rec, err := m.gw.CreateApplication(ctx, u.ID, jobID)
	if err != nil {
		m.mu.Lock()
		if m.epoch == epoch {
			m.lastErr = gateway.UserMessage(err)
		}
		m.mu.Unlock()
		m.logger.Printf("[Jobs] apply failed job_id=%d: %v", jobID, err)
		evt := event.New(event.TypeApplied)
		evt.JobID = jobID
		evt.Message = gateway.UserMessage(err)
		m.notify(evt)
		return job.ApplicationReceipt{}, err
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.logger.Printf("[Jobs] apply job_id=%d finished after session change, result dropped", jobID)
		return rec, nil
	}
	m.applied[jobID] = true
	m.mu.Unlock()

	evt := event.New(event.TypeApplied)
	evt.JobID = jobID
	evt.Data = rec
	m.notify(evt)

	if known && j.ApplyURL != "" && m.opener != nil {
		if err := m.opener.OpenURL(ctx, j.ApplyURL); err != nil {
			m.logger.Printf("[Jobs] open apply url failed job_id=%d: %v", jobID, err)
		}
	}
	return rec, nil
}

// LoadSaved refreshes the saved set from the backend. Jobs with a toggle in
// flight keep their local state.
func (m *Manager) LoadSaved(ctx context.Context) ([]job.SavedJob, error) {
	u, err := m.currentUser()
	if err != nil {
		return nil, err
	}
	list, err := m.gw.ListSavedJobs(ctx, u.ID)
	if err != nil {
		m.setErr(err)
		return nil, err
	}

	m.mu.Lock()
	next := make(map[int64]int64, len(list))
	for jobID, savedID := range m.saved {
		if m.pendingSave[jobID] {
			next[jobID] = savedID
		}
	}
	for _, s := range list {
		if m.pendingSave[s.Job.ID] {
			continue
		}
		next[s.Job.ID] = s.ID
		m.remember(s.Job)
	}
	m.saved = next
	m.mu.Unlock()

	m.notifySaved(0, "")
	return list, nil
}

// LoadApplications refreshes the applied markers from the backend.
func (m *Manager) LoadApplications(ctx context.Context) ([]job.Application, error) {
	u, err := m.currentUser()
	if err != nil {
		return nil, err
	}
	list, err := m.gw.ListApplications(ctx, u.ID)
	if err != nil {
		m.setErr(err)
		return nil, err
	}

	m.mu.Lock()
	applied := make(map[int64]bool, len(list))
	for _, a := range list {
		applied[a.JobID] = true
		if a.Job != nil {
			m.remember(*a.Job)
		}
	}
	m.applied = applied
	m.applications = append([]job.Application(nil), list...)
	m.mu.Unlock()

	evt := event.New(event.TypeApplied)
	evt.Data = len(list)
	m.notify(evt)
	return list, nil
}

// remember indexes j for apply-URL lookup without overwriting a fuller record.
// Callers hold m.mu.
func (m *Manager) remember(j job.Job) {
	if prev, ok := m.known[j.ID]; ok && prev.ApplyURL != "" && j.ApplyURL == "" {
		return
	}
	m.known[j.ID] = j
}

type Dashboard struct {
	Recommended  []job.Job         `json:"recommended"`
	Applications []job.Application `json:"applications"`
	Saved        []job.SavedJob    `json:"saved"`
}

// LoadDashboard fetches recommendations, applications and saved jobs together.
func (m *Manager) LoadDashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		jobs, err := m.Recommended(gctx)
		d.Recommended = jobs
		return err
	})
	g.Go(func() error {
		apps, err := m.LoadApplications(gctx)
		d.Applications = apps
		return err
	})
	g.Go(func() error {
		saved, err := m.LoadSaved(gctx)
		d.Saved = saved
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

// Import asks the backend to pull new postings for query, then refreshes the
// recommendations.
func (m *Manager) Import(ctx context.Context, query string) (job.ImportSummary, error) {
	u, err := m.currentUser()
	if err != nil {
		return job.ImportSummary{}, err
	}
	sum, err := m.gw.ImportJobs(ctx, query, u.ID)
	if err != nil {
		m.setErr(err)
		return job.ImportSummary{}, err
	}
	m.logger.Printf("[Jobs] import done query=%q imported=%d total_found=%d", query, sum.Imported, sum.TotalFound)

	if _, err := m.Recommended(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		m.logger.Printf("[Jobs] refresh after import failed: %v", err)
	}
	return sum, nil
}

// Job returns a posting the manager has seen in any listing.
func (m *Manager) Job(jobID int64) (job.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.known[jobID]
	return j, ok
}

func (m *Manager) IsSaved(jobID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.saved[jobID]
	return ok
}

func (m *Manager) IsApplied(jobID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[jobID]
}

type Snapshot struct {
	Phase        Phase             `json:"phase"`
	Query        string            `json:"query,omitempty"`
	Location     string            `json:"location,omitempty"`
	Jobs         []job.Job         `json:"jobs"`
	Saved        []int64           `json:"saved"`
	Applied      []int64           `json:"applied"`
	Applications []job.Application `json:"applications,omitempty"`
	PendingSave  []int64           `json:"pending_save,omitempty"`
	PendingApply []int64           `json:"pending_apply,omitempty"`
	Error        string            `json:"error,omitempty"`
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Phase:        m.phase,
		Query:        m.query,
		Location:     m.location,
		Jobs:         append([]job.Job{}, m.jobs...),
		Saved:        sortedKeys(m.saved),
		Applied:      sortedKeys(m.applied),
		Applications: append([]job.Application(nil), m.applications...),
		PendingSave:  sortedKeys(m.pendingSave),
		PendingApply: sortedKeys(m.pendingApply),
		Error:        m.lastErr,
	}
}

// Reset drops all state and cancels an in-flight search. Late results from
// before the reset, including saves and applies, are discarded.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.seq++
	m.epoch++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.resetLocked()
	m.mu.Unlock()

	m.notify(event.New(event.TypeJobsUpdated))
}

func (m *Manager) setErr(err error) {
	m.mu.Lock()
	m.lastErr = gateway.UserMessage(err)
	m.mu.Unlock()
}

func (m *Manager) notifySaved(jobID int64, msg string) {
	evt := event.New(event.TypeSavedChanged)
	evt.JobID = jobID
	evt.Message = msg
	m.notify(evt)
}

func (m *Manager) notify(evt event.Event) {
	m.notifier.Notify(evt)
}

func sortedKeys[V any](in map[int64]V) []int64 {
	out := make([]int64, 0, len(in))
	for k := range in {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
