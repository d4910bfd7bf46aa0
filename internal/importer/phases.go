package importer

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/wordup-dev/wordup/internal/document"
	"github.com/wordup-dev/wordup/internal/fileutil"
	"github.com/wordup-dev/wordup/internal/hierarchy"
	"github.com/wordup-dev/wordup/internal/resolver"
	"github.com/wordup-dev/wordup/internal/store"
)

func (im *Importer) importRoles(ctx context.Context, run *Run) error {
	log := im.log.WithField("phase", PhaseRoles)
	counts := run.Result.Phase(PhaseRoles)

	for _, role := range run.Input.Roles {
		if err := im.checkContext(ctx, log, PhaseRoles); err != nil {
			return err
		}
		roleLog := log.WithField("role", role.Key)

		if err := im.store.CreateRole(ctx, role.Key, role.DisplayName, role.CloneFrom); err != nil {
			counts.Failed++
			if _, abort := im.handle(roleLog, PhaseRoles, FailRole, role.Key, err); abort != nil {
				return abort
			}
		} else {
			counts.Created++
			im.metrics.Entity("role")
			roleLog.Debug("role created")
		}

		for _, capability := range role.Capabilities {
			if err := im.store.AddCapability(ctx, role.Key, capability); err != nil {
				if _, abort := im.handle(roleLog.WithField("capability", capability), PhaseRoles, FailCapability, role.Key+":"+capability, err); abort != nil {
					return abort
				}
			}
		}
	}
	return nil
}

func (im *Importer) importUsers(ctx context.Context, run *Run) error {
	log := im.log.WithField("phase", PhaseUsers)
	counts := run.Result.Phase(PhaseUsers)

	for i := 1; i < len(run.Input.Users); i++ {
		if err := im.checkContext(ctx, log, PhaseUsers); err != nil {
			return err
		}
		user := run.Input.Users[i]
		userLog := log.WithField("user", user.DisplayName)

		id, err := im.store.CreateUser(ctx, store.UserInput{
			DisplayName: user.DisplayName,
			Email:       user.Email,
			Role:        user.Role,
			Password:    user.Password,
		})
		if err != nil {
			counts.Failed++
			if _, abort := im.handle(userLog, PhaseUsers, FailUser, user.Email, err); abort != nil {
				return abort
			}
			continue
		}
		counts.Created++
		im.metrics.Entity("user")
		run.Resolver.Record(resolver.KindAuthor, id, user.DisplayName)
		userLog.WithField("id", id).Debug("user created")
	}
	return nil
}

func (im *Importer) importMedia(ctx context.Context, run *Run) error {
	log := im.log.WithField("phase", PhaseMedia)
	counts := run.Result.Phase(PhaseMedia)
	dir := filepath.Join(run.Input.ContentDir, MediaDir)

	names, ok, err := im.listDir(log, PhaseMedia, dir)
	if err != nil || !ok {
		return err
	}

	// Native listing order, no sort.
	for _, name := range run.Matcher.Filter(MediaDir, names) {
		if err := im.checkContext(ctx, log, PhaseMedia); err != nil {
			return err
		}
		fileLog := log.WithField("file", name)

		id, err := im.store.ImportMedia(ctx, filepath.Join(dir, name))
		if err != nil {
			counts.Failed++
			if _, abort := im.handle(fileLog, PhaseMedia, FailMedia, name, err); abort != nil {
				return abort
			}
			continue
		}
		counts.Created++
		im.metrics.Entity("media")
		run.Resolver.Record(resolver.KindFeaturedImage, id, name)
		run.Result.MediaFiles = append(run.Result.MediaFiles, MediaOutcome{File: name, ID: id})
		fileLog.WithField("id", id).Debug("media imported")
	}
	return nil
}

// listDir lists dir. A missing directory is reported with ok=false and is not
// an error.
func (im *Importer) listDir(log logrus.FieldLogger, phase, dir string) ([]string, bool, error) {
	names, exists, err := fileutil.ListFlat(dir)
	if err != nil {
		if _, abort := im.handle(log.WithField("dir", dir), phase, FailReadDir, dir, err); abort != nil {
			return nil, false, abort
		}
		return nil, false, nil
	}
	if !exists {
		log.WithField("dir", dir).Info("directory missing, phase skipped")
		return nil, false, nil
	}
	return names, true, nil
}

func (im *Importer) importPostType(ctx context.Context, run *Run, postType string) error {
	log := im.log.WithFields(logrus.Fields{"phase": postType, "post_type": postType})
	counts := run.Result.Phase(postType)
	dir := filepath.Join(run.Input.ContentDir, postType)

	names, ok, err := im.listDir(log, postType, dir)
	if err != nil || !ok {
		return err
	}
	names = run.Matcher.Filter(postType, names)
	if len(names) == 0 {
		log.Info("no documents, phase skipped")
		return nil
	}

	if err := im.resetPostType(ctx, log, postType, counts); err != nil {
		return err
	}

	listing := hierarchy.SortDescending(names)
	created := make([]store.ID, 0, len(listing))
	for i := range listing {
		if err := im.checkContext(ctx, log, postType); err != nil {
			run.Created[postType] = created
			return err
		}
		outcome, err := im.importDocument(ctx, run, log, postType, dir, listing, i, created)
		created = append(created, outcome.ID)
		run.Result.Documents = append(run.Result.Documents, outcome)
		im.metrics.Document(postType, outcome.Outcome)
		if im.progress != nil {
			im.progress(outcome)
		}

		switch outcome.Outcome {
		case OutcomeCreated:
			counts.Created++
			im.metrics.Entity(postType)
		case OutcomeSkipped:
			counts.Skipped++
		case OutcomeFailed:
			counts.Failed++
		}
		if err != nil {
			run.Created[postType] = created
			return err
		}
	}
	run.Created[postType] = created
	return nil
}

// resetPostType deletes every existing entity of postType.
func (im *Importer) resetPostType(ctx context.Context, log logrus.FieldLogger, postType string, counts *Counts) error {
	ids, err := im.store.ListPostIDs(ctx, postType)
	if err != nil {
		if _, abort := im.handle(log, postType, FailListPosts, postType, err); abort != nil {
			return abort
		}
		return nil
	}
	if len(ids) == 0 {
		return nil
	}
	if err := im.store.DeletePosts(ctx, ids); err != nil {
		if _, abort := im.handle(log, postType, FailDeletePosts, postType, err); abort != nil {
			return abort
		}
		return nil
	}
	counts.Deleted += len(ids)
	log.WithField("count", len(ids)).Info("existing entries deleted")
	return nil
}

// importDocument handles listing[i]. The returned outcome always carries the
// id to record at index i, NoID unless the post was created.
func (im *Importer) importDocument(ctx context.Context, run *Run, log logrus.FieldLogger, postType, dir string, listing []string, i int, created []store.ID) (DocumentOutcome, error) {
	name := listing[i]
	docLog := log.WithField("file", name)
	outcome := DocumentOutcome{File: name, PostType: postType}

	skip := func(f Failure, err error) (DocumentOutcome, error) {
		outcome.Outcome = OutcomeSkipped
		outcome.Reason = err.Error()
		_, abort := im.handle(docLog, postType, f, name, err)
		return outcome, abort
	}

	doc, err := document.ParseFile(filepath.Join(dir, name))
	if err != nil {
		if errors.Is(err, document.ErrUnparsable) {
			return skip(FailParse, err)
		}
		return skip(FailReadDocument, err)
	}
	outcome.Title = doc.Title()
	outcome.Hash = doc.Hash

	input := store.PostInput{
		PostType: postType,
		Title:    doc.Title(),
		Author:   run.AdminID,
		Status:   doc.Status(),
	}

	if author := doc.Scalar(document.FieldAuthor); author != "" {
		id, err := run.Resolver.ResolveOrCreate(ctx, resolver.KindAuthor, author)
		if err != nil {
			if action, abort := im.handle(docLog, postType, FailAuthor, author, err); abort != nil || action == SkipUnit {
				return skipped(outcome, err), abort
			}
		} else {
			input.Author = id
		}
	}

	if image := doc.Scalar(document.FieldFeaturedImage); image != "" {
		id, err := run.Resolver.ResolveOrCreate(ctx, resolver.KindFeaturedImage, image)
		if err != nil {
			if action, abort := im.handle(docLog, postType, FailFeaturedImage, image, err); abort != nil || action == SkipUnit {
				return skipped(outcome, err), abort
			}
		} else {
			input.ThumbnailID = id
		}
	}

	if postType == store.PostTypePost {
		for _, category := range doc.List(document.FieldCategory) {
			id, err := im.resolveLazy(ctx, run, resolver.KindCategory, category)
			if err != nil {
				if action, abort := im.handle(docLog, postType, FailTerm, category, err); abort != nil || action == SkipUnit {
					return skipped(outcome, err), abort
				}
				continue
			}
			input.CategoryIDs = append(input.CategoryIDs, id)
		}
		for _, tag := range doc.List(document.FieldTags) {
			if err := store.CheckTag(tag); err != nil {
				if action, abort := im.handle(docLog, postType, FailTag, tag, err); abort != nil || action == SkipUnit {
					return skipped(outcome, err), abort
				}
				continue
			}
			input.Tags = append(input.Tags, tag)
		}
	}

	input.Parent = im.inferrer.Parent(postType, listing, i, created)
	outcome.Parent = input.Parent

	body, err := im.renderer.Body(name, doc.Body)
	if err != nil {
		return skip(FailRender, err)
	}

	id, err := im.createPost(ctx, input, name, body)
	if err != nil {
		outcome.Outcome = OutcomeFailed
		outcome.Reason = err.Error()
		_, abort := im.handle(docLog, postType, FailCreatePost, name, err)
		return outcome, abort
	}
	outcome.ID = id
	outcome.Outcome = OutcomeCreated
	docLog = docLog.WithField("id", id)
	docLog.WithField("parent", input.Parent).Debug("document imported")

	for _, menu := range doc.List(document.FieldMenu) {
		menuID, err := im.resolveLazy(ctx, run, resolver.KindMenu, menu)
		if err != nil {
			if _, abort := im.handle(docLog, postType, FailMenu, menu, err); abort != nil {
				return outcome, abort
			}
			continue
		}
		if _, err := im.store.AddMenuItemPost(ctx, menuID, id); err != nil {
			if _, abort := im.handle(docLog.WithField("menu", menu), postType, FailMenuItem, menu, err); abort != nil {
				return outcome, abort
			}
			continue
		}
		im.metrics.Entity("menu_item")
	}
	return outcome, nil
}

func skipped(outcome DocumentOutcome, err error) DocumentOutcome {
	outcome.Outcome = OutcomeSkipped
	outcome.Reason = err.Error()
	return outcome
}

// createPost writes body to a scratch file for the duration of the call.
func (im *Importer) createPost(ctx context.Context, input store.PostInput, name, body string) (store.ID, error) {
	scratch, err := fileutil.WriteScratch(name, body)
	if err != nil {
		return store.NoID, errors.Wrap(err, "write scratch body")
	}
	defer os.Remove(scratch)

	input.BodyFile = scratch
	return im.store.CreatePost(ctx, input)
}

// resolveLazy resolves a category or menu and counts it when it had to be
// created.
func (im *Importer) resolveLazy(ctx context.Context, run *Run, kind resolver.Kind, name string) (store.ID, error) {
	_, known := run.Resolver.Lookup(kind, name)
	id, err := run.Resolver.ResolveOrCreate(ctx, kind, name)
	if err == nil && !known {
		im.metrics.Entity(kind.String())
	}
	return id, err
}
