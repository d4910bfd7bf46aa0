package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"unicode"

	"github.com/go-faster/errors"
)

// Runner executes one WP-CLI invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, bin string, args []string) (string, error)
}

// ExecRunner runs WP-CLI as a child process.
type ExecRunner struct {
	Dir string
}

func (r ExecRunner) Run(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = r.Dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var execErr *exec.Error
		if errors.As(err, &execErr) {
			return "", errors.Wrapf(ErrUnavailable, "%s: %v", bin, execErr.Err)
		}
		if ctx.Err() != nil {
			return "", errors.Wrap(ctx.Err(), "wp-cli interrupted")
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		return "", errors.Wrapf(err, "wp %s: %s", strings.Join(firstWords(args, 2), " "), msg)
	}
	return stdout.String(), nil
}

func firstWords(args []string, n int) []string {
	if len(args) < n {
		return args
	}
	return args[:n]
}

// WPCLI drives a WordPress install through the wp command line tool.
type WPCLI struct {
	Bin       string
	Path      string
	AllowRoot bool
	Runner    Runner
}

var _ ContentStore = (*WPCLI)(nil)

// NewWPCLI builds a store that runs bin against the install at path.
func NewWPCLI(bin, path string, allowRoot bool) *WPCLI {
	if bin == "" {
		bin = "wp"
	}
	return &WPCLI{Bin: bin, Path: path, AllowRoot: allowRoot, Runner: ExecRunner{}}
}

func (w *WPCLI) run(ctx context.Context, args ...string) (string, error) {
	if w.Path != "" {
		args = append(args, "--path="+w.Path)
	}
	if w.AllowRoot {
		args = append(args, "--allow-root")
	}
	return w.Runner.Run(ctx, w.Bin, args)
}

// Command runs an arbitrary wp subcommand with the global flags appended.
func (w *WPCLI) Command(ctx context.Context, args ...string) (string, error) {
	return w.run(ctx, args...)
}

func (w *WPCLI) runID(ctx context.Context, args ...string) (ID, error) {
	out, err := w.run(ctx, args...)
	if err != nil {
		return NoID, err
	}
	return ParseID(lastLine(out))
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}

func (w *WPCLI) CreateRole(ctx context.Context, key, name, cloneFrom string) error {
	args := []string{"role", "create", key, name}
	if cloneFrom != "" {
		args = append(args, "--clone="+cloneFrom)
	}
	_, err := w.run(ctx, args...)
	return err
}

func (w *WPCLI) AddCapability(ctx context.Context, roleKey, capability string) error {
	_, err := w.run(ctx, "cap", "add", roleKey, capability)
	return err
}

func (w *WPCLI) CreateUser(ctx context.Context, in UserInput) (ID, error) {
	args := []string{
		"user", "create", UserLogin(in.DisplayName), in.Email,
		"--display_name=" + in.DisplayName,
		"--porcelain",
	}
	if in.Role != "" {
		args = append(args, "--role="+in.Role)
	}
	if in.Password != "" {
		args = append(args, "--user_pass="+in.Password)
	}
	return w.runID(ctx, args...)
}

// UserLogin derives a login name from a display name.
func UserLogin(displayName string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(displayName)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (w *WPCLI) ImportMedia(ctx context.Context, path string) (ID, error) {
	return w.runID(ctx, "media", "import", path, "--porcelain")
}

func (w *WPCLI) ListPostIDs(ctx context.Context, postType string) ([]ID, error) {
	out, err := w.run(ctx, "post", "list", "--post_type="+postType, "--post_status=any", "--format=ids")
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(out)
	ids := make([]ID, 0, len(fields))
	for _, field := range fields {
		id, err := ParseID(field)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (w *WPCLI) DeletePosts(ctx context.Context, ids []ID) error {
	if len(ids) == 0 {
		return nil
	}
	args := []string{"post", "delete"}
	for _, id := range ids {
		args = append(args, id.String())
	}
	args = append(args, "--force")
	_, err := w.run(ctx, args...)
	return err
}

func (w *WPCLI) CreateTerm(ctx context.Context, taxonomy, name string) (ID, error) {
	return w.runID(ctx, "term", "create", taxonomy, name, "--porcelain")
}

func (w *WPCLI) CreateMenu(ctx context.Context, name string) (ID, error) {
	return w.runID(ctx, "menu", "create", name, "--porcelain")
}

func (w *WPCLI) AddMenuItemPost(ctx context.Context, menuID, postID ID) (ID, error) {
	return w.runID(ctx, "menu", "item", "add-post", menuID.String(), postID.String(), "--porcelain")
}

func (w *WPCLI) CreatePost(ctx context.Context, in PostInput) (ID, error) {
	args := []string{
		"post", "create", in.BodyFile,
		"--post_type=" + in.PostType,
		"--post_title=" + in.Title,
		"--post_author=" + in.Author.String(),
		"--post_status=" + in.Status,
		"--post_parent=" + in.Parent.String(),
		"--porcelain",
	}
	if len(in.Tags) > 0 {
		args = append(args, "--tags_input="+strings.Join(in.Tags, ","))
	}
	if len(in.CategoryIDs) > 0 {
		args = append(args, "--post_category="+JoinIDs(in.CategoryIDs))
	}
	if in.ThumbnailID != NoID {
		meta, err := json.Marshal(map[string]string{"_thumbnail_id": in.ThumbnailID.String()})
		if err != nil {
			return NoID, errors.Wrap(err, "encode meta input")
		}
		args = append(args, "--meta_input="+string(meta))
	}
	return w.runID(ctx, args...)
}
