package provision

import (
	"context"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/store"
)

type fakeRunner struct {
	calls  [][]string
	failOn string
}

func (f *fakeRunner) Run(ctx context.Context, bin string, args []string) (string, error) {
	f.calls = append(f.calls, append([]string(nil), args...))
	joined := strings.Join(args, " ")
	if f.failOn != "" && strings.HasPrefix(joined, f.failOn) {
		return "", errors.New("wp exited with status 1")
	}
	if strings.HasPrefix(joined, "user get") {
		return "1\n", nil
	}
	return "Success\n", nil
}

func newTestInstaller(t *testing.T, runner *fakeRunner) (*Installer, *logrustest.Hook) {
	t.Helper()
	wp := store.NewWPCLI("wp", "/srv/wp", false)
	wp.Runner = runner
	logger, hook := logrustest.NewNullLogger()
	return New(wp, logger), hook
}

func testProject() *config.Project {
	return &config.Project{
		Slug: "acme",
		Type: config.TypeThemes,
		WPInstall: config.WPInstall{
			Title:         "Acme",
			AdminUser:     "admin",
			AdminPassword: "secret",
			AdminEmail:    "admin@example.com",
			Plugins: map[string]string{
				"woocommerce": "8.5.1",
				"custom":      "https://example.com/custom.zip",
			},
			Themes: map[string]string{"storefront": "latest"},
		},
	}
}

func TestInstall_RunsCommandsInOrder(t *testing.T) {
	runner := &fakeRunner{}
	in, _ := newTestInstaller(t, runner)

	res, err := in.Install(context.Background(), testProject(), Options{SiteURL: "http://localhost:8000", Scaffold: true})
	require.NoError(t, err)
	assert.Equal(t, store.ID(1), res.AdminID)

	want := [][]string{
		{"core", "install", "--url=http://localhost:8000", "--title=Acme", "--admin_user=admin",
			"--admin_password=secret", "--admin_email=admin@example.com", "--skip-email", "--path=/srv/wp"},
		{"config", "set", "WP_HOME", "http://localhost:8000", "--path=/srv/wp"},
		{"config", "set", "WP_SITEURL", "http://localhost:8000", "--path=/srv/wp"},
		{"user", "get", "admin", "--field=ID", "--path=/srv/wp"},
		{"plugin", "install", "https://example.com/custom.zip", "--activate", "--path=/srv/wp"},
		{"plugin", "install", "woocommerce", "--version=8.5.1", "--activate", "--path=/srv/wp"},
		{"theme", "install", "storefront", "--path=/srv/wp"},
		{"scaffold", "_s", "acme", "--path=/srv/wp"},
	}
	assert.Equal(t, want, runner.calls)
	assert.Len(t, res.Steps, len(want))
}

func TestInstall_PluginProjectScaffoldsPlugin(t *testing.T) {
	project := testProject()
	project.Type = config.TypePlugins
	project.Slug = "acme-tools/acme-tools.php"
	project.WPInstall.Plugins = nil
	project.WPInstall.Themes = nil
	project.WPInstall.Title = ""

	runner := &fakeRunner{}
	in, _ := newTestInstaller(t, runner)
	_, err := in.Install(context.Background(), project, Options{SiteURL: "http://localhost:8000", Scaffold: true})
	require.NoError(t, err)

	assert.Contains(t, runner.calls[0], "--title=acme-tools/acme-tools.php")
	assert.Equal(t, []string{"scaffold", "plugin", "acme-tools", "--path=/srv/wp"}, runner.calls[len(runner.calls)-1])
}

func TestInstall_StopsAtFirstFailure(t *testing.T) {
	runner := &fakeRunner{failOn: "plugin install https://example.com/custom.zip"}
	in, hook := newTestInstaller(t, runner)

	res, err := in.Install(context.Background(), testProject(), Options{SiteURL: "http://localhost:8000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin install custom")
	assert.Len(t, res.Steps, 4)
	for _, call := range runner.calls {
		assert.NotEqual(t, "theme", call[0], "themes are not installed after a failure")
	}
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestInstall_RequiresAdministrator(t *testing.T) {
	project := testProject()
	project.WPInstall.AdminPassword = ""

	runner := &fakeRunner{}
	in, _ := newTestInstaller(t, runner)
	_, err := in.Install(context.Background(), project, Options{SiteURL: "http://localhost:8000"})
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Empty(t, runner.calls)
}

func TestInstall_UnavailableWPCLI(t *testing.T) {
	wp := store.NewWPCLI("wp-missing-binary-for-test", "", false)
	_, err := New(wp, nil).Install(context.Background(), testProject(), Options{SiteURL: "http://localhost:8000"})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}
