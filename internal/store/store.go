// Package store defines the Content Store capability the importer drives and
// the adapters that implement it.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// ID identifies an entity created in the Content Store.
type ID int64

// NoID marks an absent identifier (root parent, no thumbnail, no author override).
const NoID ID = 0

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses a single numeric identifier, tolerating surrounding whitespace.
func ParseID(raw string) (ID, error) {
	raw = strings.TrimSpace(raw)
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return NoID, errors.Wrapf(err, "parse id %q", raw)
	}
	if n <= 0 {
		return NoID, errors.Errorf("invalid id %d", n)
	}
	return ID(n), nil
}

// JoinIDs renders ids as a comma separated list.
func JoinIDs(ids []ID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ",")
}

var (
	// ErrUnavailable means the store cannot be reached at all. It is always fatal.
	ErrUnavailable = errors.New("content store unavailable")
	// ErrConflict means the entity already exists.
	ErrConflict = errors.New("entity already exists")
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrInvalidTag means a tag cannot be passed to the store as is.
	ErrInvalidTag = errors.New("tag contains a comma")
)

// CheckTag rejects tags the comma-joined tag input would split in two.
func CheckTag(tag string) error {
	if strings.Contains(tag, ",") {
		return errors.Wrapf(ErrInvalidTag, "tag %q", tag)
	}
	return nil
}

// Post types handled by the importer, in processing order.
const (
	PostTypePost = "post"
	PostTypePage = "page"
)

// TaxonomyCategory is the taxonomy categories are created under.
const TaxonomyCategory = "category"

// UserInput carries the fields needed to create one user.
type UserInput struct {
	DisplayName string
	Email       string
	Role        string
	Password    string
}

// PostInput carries the fields needed to create one post or page.
type PostInput struct {
	PostType    string
	Title       string
	Author      ID
	Status      string
	Parent      ID
	ThumbnailID ID // NoID omits the featured image
	Tags        []string
	CategoryIDs []ID
	BodyFile    string
}

// ContentStore is the entity-management capability the importer consumes.
// Every call is synchronous; its result must be observed before dependent
// work continues.
type ContentStore interface {
	CreateRole(ctx context.Context, key, name, cloneFrom string) error
	AddCapability(ctx context.Context, roleKey, capability string) error
	CreateUser(ctx context.Context, in UserInput) (ID, error)
	ImportMedia(ctx context.Context, path string) (ID, error)
	ListPostIDs(ctx context.Context, postType string) ([]ID, error)
	DeletePosts(ctx context.Context, ids []ID) error
	CreateTerm(ctx context.Context, taxonomy, name string) (ID, error)
	CreateMenu(ctx context.Context, name string) (ID, error)
	AddMenuItemPost(ctx context.Context, menuID, postID ID) (ID, error)
	CreatePost(ctx context.Context, in PostInput) (ID, error)
}
