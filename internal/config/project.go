// Package config loads the project definition and the environment settings.
package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Package types a project can be.
const (
	TypeThemes  = "themes"
	TypePlugins = "plugins"
)

// ProjectFileName is the base name searched for when no file is given.
const ProjectFileName = "wordup"

var (
	// ErrNotFound means no project file was found.
	ErrNotFound = errors.New("no wordup project config found")
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid project config")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RoleConfig declares one custom role.
type RoleConfig struct {
	Key          string   `mapstructure:"key" json:"key" validate:"required"`
	Name         string   `mapstructure:"name" json:"name,omitempty"`
	Clone        string   `mapstructure:"clone" json:"clone,omitempty"`
	Capabilities []string `mapstructure:"capabilities" json:"capabilities,omitempty"`
}

// UserConfig declares one additional user.
type UserConfig struct {
	Name     string `mapstructure:"name" json:"name" validate:"required"`
	Email    string `mapstructure:"email" json:"email" validate:"required,email"`
	Role     string `mapstructure:"role" json:"role,omitempty"`
	Password string `mapstructure:"password" json:"password,omitempty"`
}

// WPInstall describes the WordPress installation.
type WPInstall struct {
	Title         string            `mapstructure:"title" json:"title,omitempty"`
	AdminUser     string            `mapstructure:"adminUser" json:"adminUser,omitempty"`
	AdminPassword string            `mapstructure:"adminPassword" json:"adminPassword,omitempty"`
	AdminEmail    string            `mapstructure:"adminEmail" json:"adminEmail,omitempty" validate:"omitempty,email"`
	Plugins       map[string]string `mapstructure:"plugins" json:"plugins,omitempty"`
	Themes        map[string]string `mapstructure:"themes" json:"themes,omitempty"`
	Roles         []RoleConfig      `mapstructure:"roles" json:"roles,omitempty" validate:"dive"`
	Users         []UserConfig      `mapstructure:"users" json:"users,omitempty" validate:"dive"`
}

// Project is the wordup section of a project.
type Project struct {
	Slug      string    `mapstructure:"slug" json:"slug" validate:"required"`
	Type      string    `mapstructure:"type" json:"type" validate:"required,oneof=themes plugins"`
	WPInstall WPInstall `mapstructure:"wpInstall" json:"wpInstall"`

	source string
}

// RoleSpec is a role ready for import.
type RoleSpec struct {
	Key          string
	DisplayName  string
	CloneFrom    string
	Capabilities []string
}

// UserSpec is a user ready for import. Index 0 of Project.Users is the
// administrator.
type UserSpec struct {
	DisplayName string
	Email       string
	Role        string
	Password    string
}

// Source returns the file the project was loaded from, or "" when decoded.
func (p *Project) Source() string {
	return p.source
}

// LoadProject reads the project from file, or searches dir for wordup.yaml,
// wordup.yml, wordup.json and finally the "wordup" key of package.json.
func LoadProject(file, dir string) (*Project, error) {
	if file != "" {
		return readProject(file)
	}
	if dir == "" {
		dir = "."
	}

	v := viper.New()
	v.SetConfigName(ProjectFileName)
	v.AddConfigPath(dir)
	if err := v.ReadInConfig(); err == nil {
		return unmarshalProject(v, "", v.ConfigFileUsed())
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		return nil, errors.Wrap(err, "read project config")
	}

	pkg := filepath.Join(dir, "package.json")
	if _, err := os.Stat(pkg); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "searched %s", dir)
		}
		return nil, errors.Wrap(err, "inspect package.json")
	}
	return readProject(pkg)
}

func readProject(file string) (*Project, error) {
	v := viper.New()
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.Is(err, fs.ErrNotExist) || errors.As(err, &notFound) {
			return nil, errors.Wrapf(ErrNotFound, "%s", file)
		}
		return nil, errors.Wrapf(err, "read %s", file)
	}

	key := ""
	if strings.EqualFold(filepath.Base(file), "package.json") {
		key = ProjectFileName
	}
	return unmarshalProject(v, key, file)
}

func unmarshalProject(v *viper.Viper, key, source string) (*Project, error) {
	if key != "" {
		sub := v.Sub(key)
		if sub == nil {
			return nil, errors.Wrapf(ErrNotFound, "%s has no %q key", source, key)
		}
		v = sub
	}

	var p Project
	if err := v.Unmarshal(&p); err != nil {
		return nil, errors.Wrapf(err, "decode %s", source)
	}
	p.source = source
	return &p, nil
}

// Decode parses the base64 encoded JSON package config passed to the
// container. slug and type are required.
func Decode(b64 string) (*Project, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
	if err != nil {
		return nil, errors.Wrap(err, "could not parse wordup package.json settings")
	}

	var p Project
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, errors.Wrap(err, "could not parse wordup package.json settings")
	}
	if p.Slug == "" || p.Type == "" {
		return nil, errors.Wrap(ErrInvalid, "could not find wordup settings in package.json")
	}
	return &p, nil
}

// Validate checks the project against its struct rules.
func (p *Project) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errors.Wrap(err, "validate project")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	sort.Strings(msgs)
	return errors.Wrap(ErrInvalid, strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Project.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// ProjectDirname is the folder name under wp-content/<type>.
func (p *Project) ProjectDirname() string {
	if p.Type == TypePlugins {
		return path.Dir(p.Slug)
	}
	return p.Slug
}

// Package is one plugin or theme from wpInstall. A value that is an http(s)
// URL is the download source; anything else is a version constraint.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	URL     string `json:"url,omitempty"`
}

// Source is what wp installs from: the URL when set, otherwise the name.
func (p Package) Source() string {
	if p.URL != "" {
		return p.URL
	}
	return p.Name
}

// Plugins returns the declared plugins sorted by name.
func (p *Project) Plugins() []Package {
	return packages(p.WPInstall.Plugins)
}

// Themes returns the declared themes sorted by name.
func (p *Project) Themes() []Package {
	return packages(p.WPInstall.Themes)
}

func packages(declared map[string]string) []Package {
	names := make([]string, 0, len(declared))
	for name := range declared {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Package, 0, len(names))
	for _, name := range names {
		value := strings.TrimSpace(declared[name])
		pkg := Package{Name: name}
		switch {
		case validate.Var(value, "http_url") == nil:
			pkg.URL = value
		case value != "" && value != "*" && value != "latest":
			pkg.Version = value
		}
		out = append(out, pkg)
	}
	return out
}

// Roles returns the custom roles in declaration order. A role without a name
// is titled from its key.
func (p *Project) Roles() []RoleSpec {
	caser := cases.Title(language.English)
	out := make([]RoleSpec, 0, len(p.WPInstall.Roles))
	for _, r := range p.WPInstall.Roles {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			name = caser.String(strings.NewReplacer("_", " ", "-", " ").Replace(r.Key))
		}
		out = append(out, RoleSpec{
			Key:          r.Key,
			DisplayName:  name,
			CloneFrom:    r.Clone,
			Capabilities: append([]string(nil), r.Capabilities...),
		})
	}
	return out
}

// Users returns the administrator followed by the configured users.
func (p *Project) Users() []UserSpec {
	out := make([]UserSpec, 0, len(p.WPInstall.Users)+1)
	out = append(out, UserSpec{
		DisplayName: p.WPInstall.AdminUser,
		Email:       p.WPInstall.AdminEmail,
		Role:        "administrator",
		Password:    p.WPInstall.AdminPassword,
	})
	for _, u := range p.WPInstall.Users {
		role := u.Role
		if role == "" {
			role = "subscriber"
		}
		out = append(out, UserSpec{
			DisplayName: u.Name,
			Email:       u.Email,
			Role:        role,
			Password:    u.Password,
		})
	}
	return out
}
