package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/ignore"
	"github.com/wordup-dev/wordup/internal/importer"
	"github.com/wordup-dev/wordup/internal/metrics"
	"github.com/wordup-dev/wordup/internal/state"
	"github.com/wordup-dev/wordup/internal/store"
	"github.com/wordup-dev/wordup/internal/watch"
)

const (
	storeMemory = "memory"
	storeWPCLI  = "wp-cli"
)

func RunImport(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	log := settings.Logger()

	contentDir, err := resolveContentDir(cmd, rootPath, settings)
	if err != nil {
		return err
	}
	dryRun, err := OptionalBoolFlag(cmd, "dry-run", false)
	if err != nil {
		return err
	}
	strict, err := OptionalBoolFlag(cmd, "strict", false)
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	watchMode, err := OptionalBoolFlag(cmd, "watch", false)
	if err != nil {
		return err
	}
	metricsFile, err := OptionalStringFlag(cmd, "metrics-file")
	if err != nil {
		return err
	}

	input := importer.Input{ContentDir: contentDir, AdminID: store.ID(settings.AdminID)}
	project, err := loadProject(cmd, rootPath)
	if err != nil {
		return err
	}
	if project != nil {
		if err := project.Validate(); err != nil {
			return fmt.Errorf("failed to validate project config: %w", err)
		}
		input.Roles = project.Roles()
		input.Users = project.Users()
		log.WithField("config", project.Source()).Debug("project config loaded")
	} else {
		log.Warn("no project config found, importing content only")
	}

	contentStore, storeName := newContentStore(settings, dryRun)

	policy := importer.DefaultPolicy
	if strict {
		policy = policy.Strict()
	}
	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.New()
	}
	progress := newImportProgressReporter("import", asJSON)

	im := importer.New(contentStore,
		importer.WithLogger(log),
		importer.WithPolicy(policy),
		importer.WithMetrics(recorder),
		importer.WithProgress(progress.Update),
	)

	runOnce := func(ctx context.Context) error {
		progress.Reset()
		res, importErr := im.Import(ctx, input)
		progress.Done()

		summary := NewRunSummary(res, storeName, contentDir, dryRun)
		if importErr == nil && !dryRun {
			if err := stateFromResult(res, contentDir, storeName, log).Save(contentDir); err != nil {
				return fmt.Errorf("failed to save import state: %w", err)
			}
			summary.StateFile = filepath.Join(contentDir, state.StateFile)
		}
		if metricsFile != "" {
			if err := recorder.WriteTextfile(metricsFile); err != nil {
				return fmt.Errorf("failed to write metrics: %w", err)
			}
		}
		if err := PrintRunSummary(summary, asJSON); err != nil {
			return err
		}
		if importErr != nil {
			return fmt.Errorf("failed to import content: %w", importErr)
		}
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !watchMode {
		return runOnce(ctx)
	}

	if err := runOnce(ctx); err != nil {
		log.WithError(err).Error("initial import failed")
	}
	return watchContent(ctx, contentDir, metricsFile, log, runOnce)
}

// newWPCLI is replaced in tests to record wp invocations.
var newWPCLI = func(settings *config.Settings) *store.WPCLI {
	return store.NewWPCLI(settings.WPBin, settings.WPPath, settings.AllowRoot)
}

func newContentStore(settings *config.Settings, dryRun bool) (store.ContentStore, string) {
	if dryRun {
		return store.NewMemory(store.ID(settings.AdminID)), storeMemory
	}
	return newWPCLI(settings), storeWPCLI
}

func watchContent(ctx context.Context, contentDir, metricsFile string, log logrus.FieldLogger, fn func(context.Context) error) error {
	matcher, err := ignore.Load(contentDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", ignore.FileName, err)
	}
	metricsRel := ""
	if metricsFile != "" {
		if abs, err := filepath.Abs(metricsFile); err == nil {
			if rel, err := filepath.Rel(contentDir, abs); err == nil && !strings.HasPrefix(rel, "..") {
				metricsRel = filepath.ToSlash(rel)
			}
		}
	}
	skip := func(rel string) bool {
		return rel == state.StateFile || rel == metricsRel || matcher.ShouldIgnore(rel)
	}

	w, err := watch.New(contentDir, watch.DefaultDebounce, log, skip)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", contentDir, err)
	}
	defer w.Close()

	log.Info("watching for changes, press Ctrl+C to stop")
	return w.Run(ctx, fn)
}

// stateFromResult builds the manifest of a completed run. A file that cannot
// be hashed is left out, so status reports it as added.
func stateFromResult(res *importer.Result, contentDir, storeName string, log logrus.FieldLogger) *state.State {
	st := state.NewState()
	st.RunID = res.RunID
	st.Store = storeName

	for _, media := range res.MediaFiles {
		key := path.Join(importer.MediaDir, media.File)
		hash, err := fileutil.HashFile(filepath.Join(contentDir, importer.MediaDir, media.File))
		if err != nil {
			log.WithError(err).WithField("file", key).Warn("not recorded in import state")
			continue
		}
		st.SetFile(key, state.FileState{
			Hash:     hash,
			Kind:     importer.MediaDir,
			ID:       media.ID,
			Outcome:  importer.OutcomeCreated,
			Imported: res.FinishedAt,
		})
	}
	for _, doc := range res.Documents {
		key := path.Join(doc.PostType, doc.File)
		hash := doc.Hash
		if hash == "" {
			var err error
			if hash, err = fileutil.HashFile(filepath.Join(contentDir, doc.PostType, doc.File)); err != nil {
				log.WithError(err).WithField("file", key).Warn("not recorded in import state")
				continue
			}
		}
		st.SetFile(key, state.FileState{
			Hash:     hash,
			Kind:     doc.PostType,
			Title:    doc.Title,
			ID:       doc.ID,
			Parent:   doc.Parent,
			Outcome:  doc.Outcome,
			Reason:   doc.Reason,
			Imported: res.FinishedAt,
		})
	}
	return st
}
