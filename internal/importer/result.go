package importer

import (
	"time"

	"github.com/wordup-dev/wordup/internal/store"
)

// Phase names in execution order. Post types follow media.
const (
	PhaseRoles = "roles"
	PhaseUsers = "users"
	PhaseMedia = "media"
)

// Document outcomes.
const (
	OutcomeCreated = "created"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

// Counts tallies one phase.
type Counts struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
	Deleted int `json:"deleted"`
}

// DocumentOutcome records what happened to one content document.
type DocumentOutcome struct {
	File     string   `json:"file"`
	PostType string   `json:"post_type"`
	Title    string   `json:"title,omitempty"`
	Hash     string   `json:"hash,omitempty"`
	ID       store.ID `json:"id,omitempty"`
	Parent   store.ID `json:"parent,omitempty"`
	Outcome  string   `json:"outcome"`
	Reason   string   `json:"reason,omitempty"`
}

// MediaOutcome records one imported media file.
type MediaOutcome struct {
	File string   `json:"file"`
	ID   store.ID `json:"id"`
}

// Result is the record of one import run.
type Result struct {
	RunID      string             `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Phases     map[string]*Counts `json:"phases"`
	PhaseOrder []string           `json:"phase_order"`

	Users      map[store.ID]string   `json:"users"`
	Media      map[store.ID]string   `json:"media"`
	Categories map[store.ID]string   `json:"categories"`
	Menus      map[store.ID]string   `json:"menus"`
	PostIDs    map[string][]store.ID `json:"post_ids"`

	MediaFiles []MediaOutcome    `json:"media_files"`
	Documents  []DocumentOutcome `json:"documents"`

	Aborted bool   `json:"aborted"`
	Error   string `json:"error,omitempty"`
}

func newResult(runID string, started time.Time) *Result {
	return &Result{
		RunID:      runID,
		StartedAt:  started,
		Phases:     make(map[string]*Counts),
		Users:      make(map[store.ID]string),
		Media:      make(map[store.ID]string),
		Categories: make(map[store.ID]string),
		Menus:      make(map[store.ID]string),
		PostIDs:    make(map[string][]store.ID),
		MediaFiles: make([]MediaOutcome, 0),
		Documents:  make([]DocumentOutcome, 0),
	}
}

// Phase returns the counts for name, creating them on first use.
func (r *Result) Phase(name string) *Counts {
	c, ok := r.Phases[name]
	if !ok {
		c = &Counts{}
		r.Phases[name] = c
		r.PhaseOrder = append(r.PhaseOrder, name)
	}
	return c
}

// Duration is the wall time of the run.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// DocumentsByOutcome counts documents of postType with outcome.
func (r *Result) DocumentsByOutcome(postType, outcome string) int {
	n := 0
	for _, d := range r.Documents {
		if d.PostType == postType && d.Outcome == outcome {
			n++
		}
	}
	return n
}
