package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"numcheck/internal/identifier"
	"numcheck/internal/logging"
	"numcheck/internal/messaging"
	"numcheck/internal/notify"
	"numcheck/internal/score"
)

// BatchSize is the number of identifiers looked up concurrently per batch.
const BatchSize = 20

const (
	existenceBatchDelay = 500 * time.Millisecond
	bioBatchDelay       = 1000 * time.Millisecond
	profileDelay        = 500 * time.Millisecond
)

// ErrNotConnected is returned when a job is requested while no messaging
// connection is open.
var ErrNotConnected = errors.New("verify: no open connection")

// Kind identifies a verification job type.
type Kind string

const (
	// KindExistence checks whether identifiers are registered accounts.
	KindExistence Kind = "existence"
	// KindBio fetches profile text and set dates for registered identifiers.
	KindBio Kind = "bio"
	// KindPattern checks registration and scores digit-shape heuristics.
	KindPattern Kind = "pattern"
	// KindRange checks a generated prefix+counter block of identifiers.
	KindRange Kind = "range"
)

// ErrInvalidRange rejects a range whose bounds are malformed.
var ErrInvalidRange = errors.New("verify: range end must not precede start")

// ErrRangeTooLarge rejects a range beyond the interactive cap.
var ErrRangeTooLarge = errors.New("verify: range too large")

// Source provides the lookup capability of the live connection, when open.
type Source interface {
	Lookuper() (messaging.Lookuper, bool)
}

// Result is the per-identifier outcome of a job.
type Result struct {
	ID            string     `json:"id"`
	Registered    bool       `json:"registered"`
	Confidence    int        `json:"confidence,omitempty"`
	Repetitive    bool       `json:"repetitive,omitempty"`
	Bio           string     `json:"bio,omitempty"`
	BioSetAt      *time.Time `json:"bio_set_at,omitempty"`
	Business      bool       `json:"business,omitempty"`
	BioConfidence int        `json:"bio_confidence,omitempty"`
	Err           string     `json:"error,omitempty"`
}

// RejectedInput records an input that failed normalization.
type RejectedInput struct {
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// Summary is the complete outcome of one job.
type Summary struct {
	JobID        string          `json:"job_id"`
	Kind         Kind            `json:"kind"`
	Label        string          `json:"label,omitempty"`
	Total        int             `json:"total"`
	Registered   int             `json:"registered"`
	Unregistered int             `json:"unregistered"`
	Failed       int             `json:"failed"`
	Rejected     []RejectedInput `json:"rejected,omitempty"`
	Results      []Result        `json:"results"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
}

// Progress reports batch completion during a job.
type Progress struct {
	JobID   string
	Kind    Kind
	Done    int
	Total   int
	Batch   int
	Batches int
}

// ProgressFunc receives a Progress after each completed batch. Panics inside
// the sink are absorbed so a broken display surface cannot kill a job.
type ProgressFunc func(Progress)

// Options configures a Runner. Source is required.
type Options struct {
	Source    Source
	Notifier  notify.Service
	Logger    *slog.Logger
	BatchSize int

	// Sleep and Now exist for tests; nil selects real time.
	Sleep func(ctx context.Context, d time.Duration) bool
	Now   func() time.Time
}

// Runner executes verification jobs against the live connection in fixed-size
// concurrent batches, pausing between batches to stay under network rate
// limits.
type Runner struct {
	source    Source
	notifier  notify.Service
	logger    *slog.Logger
	batchSize int
	sleep     func(ctx context.Context, d time.Duration) bool
	now       func() time.Time
}

// NewRunner constructs a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Source == nil {
		return nil, errors.New("verify: source required")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Noop()
	}
	batch := opts.BatchSize
	if batch <= 0 {
		batch = BatchSize
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = realSleep
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		source:    opts.Source,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(opts.Logger, "verify"),
		batchSize: batch,
		sleep:     sleep,
		now:       now,
	}, nil
}

// Existence checks which of the raw inputs are registered accounts.
func (r *Runner) Existence(ctx context.Context, raws []string, onProgress ProgressFunc) (*Summary, error) {
	return r.run(ctx, KindExistence, raws, existenceBatchDelay, onProgress, r.lookupExistence)
}

// Bio fetches profile text, set dates and business status for registered
// inputs and scores each profile.
func (r *Runner) Bio(ctx context.Context, raws []string, onProgress ProgressFunc) (*Summary, error) {
	return r.run(ctx, KindBio, raws, bioBatchDelay, onProgress, r.lookupBio)
}

// Pattern checks which inputs are registered and scores each by digit shape,
// so repetitive and plain numbers can be split by registration.
func (r *Runner) Pattern(ctx context.Context, raws []string, onProgress ProgressFunc) (*Summary, error) {
	return r.run(ctx, KindPattern, raws, existenceBatchDelay, onProgress, r.lookupPattern)
}

// Range generates prefix+n for every n in [start, end] and checks which of
// the generated identifiers are registered. The range size is bounded by
// identifier.InteractiveCap.
func (r *Runner) Range(ctx context.Context, prefix string, start, end int, onProgress ProgressFunc) (*Summary, error) {
	cleaned, err := identifier.CleanPrefix(prefix)
	if err != nil {
		return nil, err
	}
	if start < 0 || end < start {
		return nil, ErrInvalidRange
	}
	if count := end - start + 1; count > identifier.InteractiveCap {
		return nil, fmt.Errorf("%w: %d identifiers requested, cap is %d",
			ErrRangeTooLarge, count, identifier.InteractiveCap)
	}

	raws := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		raws = append(raws, cleaned+strconv.Itoa(i))
	}
	summary, err := r.run(ctx, KindRange, raws, existenceBatchDelay, onProgress, r.lookupExistence)
	if err != nil {
		return nil, err
	}
	summary.Label = fmt.Sprintf("%s %d-%d", cleaned, start, end)
	return summary, nil
}

type lookupFunc func(ctx context.Context, lk messaging.Lookuper, res *Result)

func (r *Runner) run(ctx context.Context, kind Kind, raws []string, batchDelay time.Duration, onProgress ProgressFunc, lookup lookupFunc) (*Summary, error) {
	lk, ok := r.source.Lookuper()
	if !ok {
		return nil, ErrNotConnected
	}

	started := r.now()
	summary := &Summary{
		JobID:     uuid.NewString(),
		Kind:      kind,
		StartedAt: started,
	}

	var ids []string
	for _, req := range identifier.NormalizeAll(raws, 0) {
		if req.Rejected != nil {
			summary.Rejected = append(summary.Rejected, RejectedInput{Raw: req.Raw, Reason: req.Rejected.Error()})
			continue
		}
		ids = append(ids, req.Canonical)
	}
	summary.Total = len(ids)

	results := make([]Result, len(ids))
	for i, id := range ids {
		results[i].ID = id
	}

	batches := 0
	if len(ids) > 0 {
		batches = (len(ids) + r.batchSize - 1) / r.batchSize
	}

	r.logger.Info("job started",
		logging.String(logging.FieldJobID, summary.JobID),
		logging.String(logging.FieldEventType, "job_started"),
		logging.String("kind", string(kind)),
		logging.Int("total", len(ids)),
		logging.Int("batches", batches),
		logging.Int("rejected", len(summary.Rejected)))

	for batch := 0; batch*r.batchSize < len(ids); batch++ {
		if batch > 0 {
			if !r.sleep(ctx, batchDelay) {
				return nil, ctx.Err()
			}
		}

		start := batch * r.batchSize
		end := start + r.batchSize
		if end > len(ids) {
			end = len(ids)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			res := &results[i]
			g.Go(func() error {
				lookup(gctx, lk, res)
				return nil
			})
		}
		_ = g.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r.emitProgress(onProgress, Progress{
			JobID:   summary.JobID,
			Kind:    kind,
			Done:    end,
			Total:   len(ids),
			Batch:   batch + 1,
			Batches: batches,
		})
	}

	for _, res := range results {
		switch {
		case res.Err != "":
			summary.Failed++
		case res.Registered:
			summary.Registered++
		default:
			summary.Unregistered++
		}
	}
	summary.Results = results
	summary.FinishedAt = r.now()

	r.logger.Info("job completed",
		logging.String(logging.FieldJobID, summary.JobID),
		logging.String(logging.FieldEventType, "job_completed"),
		logging.String("kind", string(kind)),
		logging.Int("registered", summary.Registered),
		logging.Int("failed", summary.Failed),
		logging.Duration("elapsed", summary.FinishedAt.Sub(started)))
	if err := r.notifier.NotifyJobCompleted(ctx, string(kind), summary.Total, summary.Registered); err != nil {
		r.logger.Warn("job notification failed", logging.Error(err))
	}
	return summary, nil
}

// lookupExistence resolves one identifier's registration. Lookup errors are
// recorded on the result so the batch keeps going.
func (r *Runner) lookupExistence(ctx context.Context, lk messaging.Lookuper, res *Result) {
	registered, err := lk.ExistenceCheck(ctx, res.ID)
	if err != nil {
		res.Err = err.Error()
		return
	}
	res.Registered = registered
}

// lookupPattern scores the identifier offline, then resolves registration so
// the report can split the scored numbers by it.
func (r *Runner) lookupPattern(ctx context.Context, lk messaging.Lookuper, res *Result) {
	res.Confidence = score.Confidence(res.ID)
	res.Repetitive = score.Repetitive(res.ID)
	registered, err := lk.ExistenceCheck(ctx, res.ID)
	if err != nil {
		res.Err = err.Error()
		return
	}
	res.Registered = registered
}

// lookupBio resolves registration, then profile text and business status.
// The pause before the profile fetch keeps the two lookups from landing on
// the network back to back.
func (r *Runner) lookupBio(ctx context.Context, lk messaging.Lookuper, res *Result) {
	registered, err := lk.ExistenceCheck(ctx, res.ID)
	if err != nil {
		res.Err = err.Error()
		return
	}
	res.Registered = registered
	if !registered {
		return
	}

	if !r.sleep(ctx, profileDelay) {
		res.Err = ctx.Err().Error()
		return
	}

	// The profile fetch is best effort: a failure degrades to an empty bio,
	// the result stays registered and still gets scored.
	profile, err := lk.FetchProfile(ctx, res.ID)
	if err != nil {
		profile = messaging.Profile{}
	}
	res.Bio = profile.Bio
	res.BioSetAt = profile.BioSetAt

	business, err := lk.FetchBusinessStatus(ctx, res.ID)
	if err == nil {
		res.Business = business
	}
	res.BioConfidence = score.BioConfidence(res.Bio, res.BioSetAt, res.Business, r.now())
}

func (r *Runner) emitProgress(fn ProgressFunc, p Progress) {
	if fn == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("progress sink panicked",
				logging.String(logging.FieldJobID, p.JobID),
				logging.Any("panic", rec))
		}
	}()
	fn(p)
}

func realSleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
