package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/wordup-dev/wordup/internal/document"
	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/ignore"
	"github.com/wordup-dev/wordup/internal/importer"
	"github.com/wordup-dev/wordup/internal/search"
	"github.com/wordup-dev/wordup/internal/state"
	"github.com/wordup-dev/wordup/internal/store"
)

const (
	severityWarning = "warning"
	severityError   = "error"
)

// ErrValidationFailed is returned once the report is printed when it holds
// errors.
var ErrValidationFailed = errors.New("validation failed")

func RunValidate(cmd *cobra.Command, args []string) error {
	rootPath, err := resolveWorkingDirectory()
	if err != nil {
		return err
	}
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	contentDir, err := resolveContentDir(cmd, rootPath, settings)
	if err != nil {
		return err
	}

	summary := ValidateSummary{
		Mode:       "validate",
		RootPath:   rootPath,
		ContentDir: contentDir,
	}

	authors := map[string]bool{}
	authorNames := make([]string, 0)
	project, err := loadProject(cmd, rootPath)
	switch {
	case err != nil:
		summary.ConfigErrors = append(summary.ConfigErrors, err.Error())
	case project == nil:
		summary.Missing = append(summary.Missing, "project config")
		summary.Suggestions = append(summary.Suggestions, "run wordup init")
	default:
		summary.ConfigFile = project.Source()
		if err := project.Validate(); err != nil {
			summary.ConfigErrors = append(summary.ConfigErrors, err.Error())
		}
		for _, user := range project.Users() {
			authors[user.DisplayName] = true
			authorNames = append(authorNames, user.DisplayName)
		}
	}

	matcher, err := ignore.Load(contentDir)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", ignore.FileName, err)
	}

	mediaNames, mediaExists, err := fileutil.ListFlat(filepath.Join(contentDir, importer.MediaDir))
	if err != nil {
		return fmt.Errorf("failed to list media: %w", err)
	}
	mediaNames = matcher.Filter(importer.MediaDir, mediaNames)
	media := fileutil.ToSet(mediaNames)
	for _, name := range mediaNames {
		check := MediaCheck{File: name, MIME: "unknown"}
		if mtype, err := mimetype.DetectFile(filepath.Join(contentDir, importer.MediaDir, name)); err == nil {
			check.MIME = mtype.String()
		}
		if check.MIME == "unknown" || strings.HasPrefix(check.MIME, "application/octet-stream") {
			summary.Issues = append(summary.Issues, document.ParseIssue{
				File:     name,
				PostType: importer.MediaDir,
				Severity: severityWarning,
				Message:  "media type not recognized",
			})
		}
		summary.Media = append(summary.Media, check)
	}
	sort.Slice(summary.Media, func(i, j int) bool { return summary.Media[i].File < summary.Media[j].File })

	refs := references{
		media:        media,
		authors:      authors,
		mediaIndex:   search.Build(mediaNames),
		authorsIndex: search.Build(authorNames),
	}
	anyContent := mediaExists
	for _, postType := range importer.PostTypes {
		dir := filepath.Join(contentDir, postType)
		names, exists, err := fileutil.ListFlat(dir)
		if err != nil {
			return fmt.Errorf("failed to list %s: %w", dir, err)
		}
		anyContent = anyContent || exists
		names = matcher.Filter(postType, names)
		sort.Strings(names)
		for _, name := range names {
			summary.Documents++
			issues := checkDocument(filepath.Join(dir, name), name, postType, refs)
			if !hasError(issues) {
				summary.Importable++
			}
			summary.Issues = append(summary.Issues, issues...)
		}
	}
	if !anyContent {
		summary.Missing = append(summary.Missing, "content directory")
		summary.Suggestions = append(summary.Suggestions, "run wordup init")
	} else if _, err := state.Load(contentDir); err != nil {
		summary.Issues = append(summary.Issues, document.ParseIssue{
			File:     state.StateFile,
			Severity: severityWarning,
			Message:  err.Error(),
		})
		summary.Suggestions = append(summary.Suggestions, "run wordup import to rewrite the state file")
	}

	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	summary.Healthy = len(summary.ConfigErrors) == 0 && !hasError(summary.Issues) && len(summary.Missing) == 0
	if !summary.Healthy && len(summary.ConfigErrors)+countErrors(summary.Issues) > 0 {
		summary.Suggestions = append(summary.Suggestions, "fix the errors above, then run wordup import")
	}

	if err := PrintValidateSummary(summary, asJSON); err != nil {
		return err
	}
	if n := len(summary.ConfigErrors) + countErrors(summary.Issues); n > 0 {
		return fmt.Errorf("%w: %d error(s)", ErrValidationFailed, n)
	}
	return nil
}

// references are the names a document may point at.
type references struct {
	media        map[string]bool
	authors      map[string]bool
	mediaIndex   *search.Index
	authorsIndex *search.Index
}

// checkDocument reports why a document would be skipped, and references the
// importer would drop.
func checkDocument(path, name, postType string, refs references) []document.ParseIssue {
	issue := func(severity, format string, args ...any) document.ParseIssue {
		return document.ParseIssue{File: name, PostType: postType, Severity: severity, Message: fmt.Sprintf(format, args...)}
	}

	doc, err := document.ParseFile(path)
	if err != nil {
		return []document.ParseIssue{issue(severityError, "%v", err)}
	}

	var issues []document.ParseIssue
	if image := doc.Scalar(document.FieldFeaturedImage); image != "" && !refs.media[image] {
		issues = append(issues, issue(severityWarning, "featured image %q not found in %s%s",
			image, importer.MediaDir, didYouMean(refs.mediaIndex, image)))
	}
	if author := doc.Scalar(document.FieldAuthor); author != "" && len(refs.authors) > 0 && !refs.authors[author] {
		issues = append(issues, issue(severityWarning, "author %q is not a configured user, the administrator will be used%s",
			author, didYouMean(refs.authorsIndex, author)))
	}
	if postType == store.PostTypePost {
		for _, tag := range doc.List(document.FieldTags) {
			if err := store.CheckTag(tag); err != nil {
				issues = append(issues, issue(severityWarning, "%v, it will be dropped", err))
			}
		}
	} else {
		for _, field := range []string{document.FieldCategory, document.FieldTags} {
			if len(doc.List(field)) > 0 {
				issues = append(issues, issue(severityWarning, "%s is ignored on %s documents", field, postType))
			}
		}
	}
	return issues
}

func didYouMean(idx *search.Index, name string) string {
	if suggestion := idx.Suggest(name); suggestion != "" {
		return fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return ""
}

func hasError(issues []document.ParseIssue) bool {
	return countErrors(issues) > 0
}

func countErrors(issues []document.ParseIssue) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == severityError {
			n++
		}
	}
	return n
}
