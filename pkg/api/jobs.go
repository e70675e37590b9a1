package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/qarchsearch/pkg/circuit"
	"github.com/matzehuels/qarchsearch/pkg/device"
	"github.com/matzehuels/qarchsearch/pkg/errors"
	"github.com/matzehuels/qarchsearch/pkg/observability"
	"github.com/matzehuels/qarchsearch/pkg/pipeline"
	"github.com/matzehuels/qarchsearch/pkg/search"
)

// Job states.
const (
	StatusQueued   = "queued"
	StatusRunning  = "running"
	StatusDone     = "done"
	StatusFailed   = "failed"
	StatusCanceled = "canceled"
)

// JobRequest is the body of POST /v1/jobs.
type JobRequest struct {
	QASM string `json:"qasm"`
	// Device is a built-in device name; DeviceSpec an inline description.
	// Exactly one must be set.
	Device       string         `json:"device,omitempty"`
	DeviceSpec   *device.Device `json:"device_spec,omitempty"`
	Durations    map[string]int `json:"durations,omitempty"`
	Dependencies []circuit.Pair `json:"dependencies,omitempty"`
	Benchmark    string         `json:"benchmark,omitempty"`
	Config       JobConfig      `json:"config"`
	Verify       bool           `json:"verify,omitempty"`
	Refresh      bool           `json:"refresh,omitempty"`
}

// JobConfig is the JSON form of search.Config. Durations are in seconds.
type JobConfig struct {
	TimeoutSeconds    float64 `json:"timeout_seconds,omitempty"`
	MaxDoublings      int     `json:"max_doublings,omitempty"`
	InitialBoundDepth int     `json:"initial_bound_depth,omitempty"`
	Preprocess        bool    `json:"preprocess,omitempty"`
	SwapDuration      int     `json:"swap_duration,omitempty"`
}

// Job is the state of one submitted search.
type Job struct {
	ID        string         `json:"id"`
	Status    string         `json:"status"`
	Submitted time.Time      `json:"submitted"`
	Started   *time.Time     `json:"started,omitempty"`
	Finished  *time.Time     `json:"finished,omitempty"`
	CacheHit  bool           `json:"cache_hit,omitempty"`
	Key       string         `json:"key,omitempty"`
	Report    *search.Report `json:"report,omitempty"`
	Error     *apiError      `json:"error,omitempty"`

	cancel context.CancelFunc
}

func (j *Job) finished() bool {
	return j.Status == StatusDone || j.Status == StatusFailed || j.Status == StatusCanceled
}

// jobStore keeps jobs in memory.
type jobStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[string]*Job)}
}

func (st *jobStore) add(j *Job) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.jobs[j.ID] = j
}

// snapshot returns a copy of the job safe to encode without the lock.
func (st *jobStore) snapshot(id string) (Job, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	j, ok := st.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *j, true
}

func (st *jobStore) update(id string, fn func(*Job)) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if j, ok := st.jobs[id]; ok {
		fn(j)
	}
}

// expire drops finished jobs older than ttl.
func (st *jobStore) expire(ttl time.Duration, now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, j := range st.jobs {
		if j.finished() && j.Finished != nil && now.Sub(*j.Finished) > ttl {
			delete(st.jobs, id)
		}
	}
}

// options converts a request into pipeline options.
func (req JobRequest) options() (pipeline.Options, error) {
	if req.QASM == "" {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidInput, "qasm is required")
	}
	if (req.Device == "") == (req.DeviceSpec == nil) {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidDevice, "exactly one of device and device_spec is required")
	}
	if req.Config.TimeoutSeconds < 0 {
		return pipeline.Options{}, errors.New(errors.ErrCodeInvalidConfig, "timeout_seconds must not be negative")
	}
	dev := req.DeviceSpec
	if dev == nil {
		d, err := device.Lookup(req.Device)
		if err != nil {
			return pipeline.Options{}, err
		}
		dev = d
	} else if err := dev.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	benchmark := req.Benchmark
	if benchmark == "" {
		benchmark = "inline"
	}
	return pipeline.Options{
		QASM:         req.QASM,
		DeviceSpec:   dev,
		Durations:    req.Durations,
		Dependencies: req.Dependencies,
		Benchmark:    benchmark,
		Verify:       req.Verify,
		Refresh:      req.Refresh,
		Config: search.Config{
			Timeout:           time.Duration(req.Config.TimeoutSeconds * float64(time.Second)),
			MaxDoublings:      req.Config.MaxDoublings,
			InitialBoundDepth: req.Config.InitialBoundDepth,
			Preprocess:        req.Config.Preprocess,
			SwapDuration:      req.Config.SwapDuration,
		},
	}, nil
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req JobRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode job request"))
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, err)
		return
	}
	// Reject bad programs and configs now rather than as failed jobs.
	// The check runs on a copy so the job still picks up its own logger.
	check := opts
	if err := check.ValidateAndSetDefaults(); err != nil {
		writeError(w, err)
		return
	}
	if _, err := pipeline.Load(check); err != nil {
		writeError(w, err)
		return
	}

	s.jobs.expire(s.jobTTL, time.Now())
	ctx, cancel := context.WithCancel(s.ctx)
	job := &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Submitted: time.Now().UTC(),
		cancel:    cancel,
	}
	s.jobs.add(job)
	observability.Jobs().OnJobSubmitted(r.Context(), job.ID)
	s.logger.Info("job submitted", "id", job.ID, "benchmark", opts.Benchmark, "device", opts.DeviceSpec.Name)

	s.wg.Add(1)
	go s.runJob(ctx, job.ID, opts)

	w.Header().Set("Location", "/v1/jobs/"+job.ID)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID, "status": StatusQueued})
}

func (s *Server) runJob(ctx context.Context, id string, opts pipeline.Options) {
	defer s.wg.Done()
	submitted := time.Now()

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-ctx.Done():
		s.finishJob(ctx, id, submitted, nil, ctx.Err())
		return
	}

	started := time.Now().UTC()
	s.jobs.update(id, func(j *Job) {
		j.Status = StatusRunning
		j.Started = &started
	})
	opts.Logger = s.logger.With("job", id)
	res, err := s.runner.Execute(ctx, opts)
	s.finishJob(ctx, id, submitted, res, err)
}

func (s *Server) finishJob(ctx context.Context, id string, submitted time.Time, res *pipeline.Result, err error) {
	finished := time.Now().UTC()
	status := StatusDone
	switch {
	case ctx.Err() != nil:
		status = StatusCanceled
	case err != nil:
		status = StatusFailed
	}
	s.jobs.update(id, func(j *Job) {
		j.Status = status
		j.Finished = &finished
		if res != nil {
			j.Report, j.CacheHit, j.Key = res.Report, res.CacheHit, res.Key
		}
		if err != nil {
			code := errors.GetCode(err)
			if code == "" {
				code = errors.ErrCodeInternal
			}
			j.Error = &apiError{Code: code, Message: errors.UserMessage(err)}
		}
		j.cancel()
	})
	observability.Jobs().OnJobComplete(ctx, id, status, time.Since(submitted))
	if err != nil {
		s.logger.Warn("job ended", "id", id, "status", status, "err", err)
		return
	}
	s.logger.Info("job done", "id", id, "results", len(res.Report.Results), "cached", res.CacheHit)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.snapshot(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeJobNotFound, "job %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, ok := s.jobs.snapshot(id)
	if !ok {
		writeError(w, errors.New(errors.ErrCodeJobNotFound, "job %q not found", id))
		return
	}
	if !job.finished() {
		job.cancel()
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	names := device.Builtins()
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string][]string{"devices": names})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := device.Lookup(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
