// Package provision installs WordPress for a project: the core install with
// its administrator, the site address, plugins, themes and an optional
// starter scaffold.
package provision

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/wordup-dev/wordup/internal/config"
	"github.com/wordup-dev/wordup/internal/store"
)

// ErrIncomplete is returned when the project lacks what the core install needs.
var ErrIncomplete = errors.New("incomplete install config")

// Commander runs one wp subcommand.
type Commander interface {
	Command(ctx context.Context, args ...string) (string, error)
}

// Options tune one install.
type Options struct {
	SiteURL  string
	Scaffold bool
}

// Step is one completed provisioning command.
type Step struct {
	Name string `json:"name"`
	Item string `json:"item,omitempty"`
}

// Result describes a finished install.
type Result struct {
	SiteURL string   `json:"site_url"`
	AdminID store.ID `json:"admin_id"`
	Steps   []Step   `json:"steps"`
}

// Installer provisions a site through WP-CLI.
type Installer struct {
	wp  Commander
	log logrus.FieldLogger
}

// New creates an installer. A nil logger discards output.
func New(wp Commander, log logrus.FieldLogger) *Installer {
	if log == nil {
		discard := logrus.New()
		discard.SetLevel(logrus.PanicLevel)
		log = discard
	}
	return &Installer{wp: wp, log: log}
}

// Install runs the core install and then configures the site. The first
// failing command stops the install.
func (in *Installer) Install(ctx context.Context, project *config.Project, opts Options) (*Result, error) {
	admin := project.Users()[0]
	if admin.DisplayName == "" || admin.Email == "" || admin.Password == "" {
		return nil, errors.Wrap(ErrIncomplete, "wpInstall.adminUser, adminEmail and adminPassword are required")
	}
	if opts.SiteURL == "" {
		return nil, errors.Wrap(ErrIncomplete, "site url is required")
	}
	title := project.WPInstall.Title
	if title == "" {
		title = project.Slug
	}

	res := &Result{SiteURL: opts.SiteURL}
	step := func(name, item string, args ...string) (string, error) {
		log := in.log.WithField("step", name)
		if item != "" {
			log = log.WithField("item", item)
		}
		out, err := in.wp.Command(ctx, args...)
		if err != nil {
			log.WithError(err).Error("provisioning failed")
			if item != "" {
				return "", errors.Wrapf(err, "%s %s", name, item)
			}
			return "", errors.Wrap(err, name)
		}
		log.Info("done")
		res.Steps = append(res.Steps, Step{Name: name, Item: item})
		return out, nil
	}

	if _, err := step("core install", "",
		"core", "install",
		"--url="+opts.SiteURL,
		"--title="+title,
		"--admin_user="+admin.DisplayName,
		"--admin_password="+admin.Password,
		"--admin_email="+admin.Email,
		"--skip-email",
	); err != nil {
		return res, err
	}
	for _, constant := range []string{"WP_HOME", "WP_SITEURL"} {
		if _, err := step("config set", constant, "config", "set", constant, opts.SiteURL); err != nil {
			return res, err
		}
	}

	out, err := step("admin lookup", admin.DisplayName, "user", "get", admin.DisplayName, "--field=ID")
	if err != nil {
		return res, err
	}
	if res.AdminID, err = store.ParseID(lastLine(out)); err != nil {
		return res, errors.Wrap(err, "admin lookup")
	}

	for _, plugin := range project.Plugins() {
		if _, err := step("plugin install", plugin.Name, packageArgs("plugin", plugin, "--activate")...); err != nil {
			return res, err
		}
	}
	for _, theme := range project.Themes() {
		if _, err := step("theme install", theme.Name, packageArgs("theme", theme)...); err != nil {
			return res, err
		}
	}

	if opts.Scaffold {
		dirname := project.ProjectDirname()
		args := []string{"scaffold", "_s", dirname}
		if project.Type == config.TypePlugins {
			args = []string{"scaffold", "plugin", dirname}
		}
		if _, err := step("scaffold", dirname, args...); err != nil {
			return res, err
		}
	}
	return res, nil
}

func packageArgs(kind string, pkg config.Package, extra ...string) []string {
	args := []string{kind, "install", pkg.Source()}
	if pkg.Version != "" {
		args = append(args, "--version="+pkg.Version)
	}
	return append(args, extra...)
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
