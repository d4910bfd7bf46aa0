// Package importer drives a content store through one import run: roles,
// users, media, then posts and pages.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/hierarchy"
	"github.com/wordup-dev/wordup/internal/ignore"
	"github.com/wordup-dev/wordup/internal/metrics"
	"github.com/wordup-dev/wordup/internal/render"
	"github.com/wordup-dev/wordup/internal/resolver"
	"github.com/wordup-dev/wordup/internal/store"
)

// DefaultAdminID is the id WordPress gives the installing administrator.
const DefaultAdminID store.ID = 1

// MediaDir is the media sub directory of the content directory.
const MediaDir = "media"

// PostTypes is the fixed processing order of post types.
var PostTypes = []string{store.PostTypePost, store.PostTypePage}

// Input is everything one run reads besides the content files.
type Input struct {
	ContentDir string
	Roles      []config.RoleSpec
	Users      []config.UserSpec // index 0 is the administrator
	AdminID    store.ID          // NoID means DefaultAdminID
}

// Run is the per-run context handed to each phase.
type Run struct {
	Input    Input
	AdminID  store.ID
	Resolver *resolver.Resolver
	Matcher  *ignore.Matcher
	Result   *Result
	// Created holds, per post type, the id recorded for each index of the
	// sorted listing, NoID for skipped documents.
	Created map[string][]store.ID
}

// Importer runs imports against one store.
type Importer struct {
	store    store.ContentStore
	log      logrus.FieldLogger
	policy   Policy
	inferrer hierarchy.Inferrer
	renderer *render.Renderer
	matcher  *ignore.Matcher
	metrics  *metrics.Recorder
	progress func(DocumentOutcome)
	now      func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

func WithLogger(log logrus.FieldLogger) Option {
	return func(im *Importer) { im.log = log }
}

func WithPolicy(p Policy) Option {
	return func(im *Importer) { im.policy = p }
}

func WithInferrer(inf hierarchy.Inferrer) Option {
	return func(im *Importer) { im.inferrer = inf }
}

// WithIgnore sets the listing filter. Without it the content directory's
// .wordupignore is loaded on each run.
func WithIgnore(m *ignore.Matcher) Option {
	return func(im *Importer) { im.matcher = m }
}

func WithMetrics(r *metrics.Recorder) Option {
	return func(im *Importer) { im.metrics = r }
}

func WithRenderer(r *render.Renderer) Option {
	return func(im *Importer) { im.renderer = r }
}

// WithProgress registers fn to be called after each document.
func WithProgress(fn func(DocumentOutcome)) Option {
	return func(im *Importer) { im.progress = fn }
}

func withClock(now func() time.Time) Option {
	return func(im *Importer) { im.now = now }
}

// New creates an importer for s.
func New(s store.ContentStore, opts ...Option) *Importer {
	im := &Importer{
		store:    s,
		log:      logrus.StandardLogger(),
		policy:   DefaultPolicy,
		inferrer: hierarchy.FilenamePrefix{},
		renderer: render.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import runs every phase in order. On a fatal failure it returns the partial
// result together with a *PhaseError.
func (im *Importer) Import(ctx context.Context, in Input) (*Result, error) {
	run := &Run{
		Input:    in,
		AdminID:  in.AdminID,
		Resolver: resolver.New(im.store),
		Matcher:  im.matcher,
		Result:   newResult(uuid.NewString(), im.now()),
		Created:  make(map[string][]store.ID),
	}
	if run.AdminID == store.NoID {
		run.AdminID = DefaultAdminID
	}
	if len(in.Users) > 0 {
		run.Resolver.Record(resolver.KindAuthor, run.AdminID, in.Users[0].DisplayName)
	}

	log := im.log.WithField("run_id", run.Result.RunID)
	log.WithField("content_dir", in.ContentDir).Info("import started")

	err := im.runPhases(ctx, run)

	res := run.Result
	res.FinishedAt = im.now()
	res.Users = run.Resolver.ByID(resolver.KindAuthor)
	res.Media = run.Resolver.ByID(resolver.KindFeaturedImage)
	res.Categories = run.Resolver.ByID(resolver.KindCategory)
	res.Menus = run.Resolver.ByID(resolver.KindMenu)
	for postType, ids := range run.Created {
		res.PostIDs[postType] = append([]store.ID(nil), ids...)
	}
	im.metrics.ObserveImport(res.Duration())

	if err != nil {
		res.Aborted = true
		res.Error = err.Error()
		return res, err
	}
	log.WithField("duration", res.Duration().String()).Info("import finished")
	return res, nil
}

func (im *Importer) runPhases(ctx context.Context, run *Run) error {
	if run.Matcher == nil {
		m, err := ignore.Load(run.Input.ContentDir)
		if err != nil {
			if _, abortErr := im.handle(im.log.WithField("phase", "setup"), "setup", FailReadDir, ignore.FileName, err); abortErr != nil {
				return abortErr
			}
			m = ignore.NewMatcher(nil)
		}
		run.Matcher = m
	}

	phases := []func(context.Context, *Run) error{
		im.importRoles,
		im.importUsers,
		im.importMedia,
	}
	for _, phase := range phases {
		if err := phase(ctx, run); err != nil {
			return err
		}
	}
	for _, postType := range PostTypes {
		if err := im.importPostType(ctx, run, postType); err != nil {
			return err
		}
	}
	return nil
}

// handle applies the policy to a failure and logs it at the level matching
// the action. It returns a *PhaseError when the run must stop.
func (im *Importer) handle(log logrus.FieldLogger, phase string, f Failure, item string, err error) (Action, error) {
	action := im.policy.Action(f, err)
	entry := log.WithError(err).WithField("failure", string(f))
	switch action {
	case Ignore:
		entry.Warn("tolerated failure")
	case SkipUnit:
		entry.Info("skipped")
	default:
		entry.Error("aborting import")
		return action, &PhaseError{Phase: phase, Item: item, Err: err}
	}
	return action, nil
}

// checkContext aborts the run once ctx is done.
func (im *Importer) checkContext(ctx context.Context, log logrus.FieldLogger, phase string) error {
	if err := ctx.Err(); err != nil {
		log.WithError(err).Error("aborting import")
		return &PhaseError{Phase: phase, Err: err}
	}
	return nil
}
