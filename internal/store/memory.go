package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
)

// Role is a role held by the memory store.
type Role struct {
	Key          string
	Name         string
	CloneFrom    string
	Capabilities []string
}

// User is a user held by the memory store.
type User struct {
	ID ID
	UserInput
}

// Media is an attachment held by the memory store.
type Media struct {
	ID       ID
	Path     string
	Filename string
	MIME     string
}

// Term is a taxonomy term held by the memory store.
type Term struct {
	ID       ID
	Taxonomy string
	Name     string
}

// Menu is a navigation menu held by the memory store.
type Menu struct {
	ID    ID
	Name  string
	Items []MenuItem
}

// MenuItem links a menu to a post.
type MenuItem struct {
	ID     ID
	PostID ID
}

// Post is a post or page held by the memory store. Body holds the content
// read from the body file at creation time.
type Post struct {
	ID ID
	PostInput
	Body string
}

// Memory is an in-process ContentStore. It backs dry runs and tests, and
// counts every call by method name.
type Memory struct {
	mu     sync.Mutex
	nextID ID
	calls  map[string]int

	roles map[string]*Role
	users map[ID]*User
	media map[ID]*Media
	terms map[ID]*Term
	menus map[ID]*Menu
	posts map[ID]*Post
}

var _ ContentStore = (*Memory)(nil)

// defaultRoles mirrors the roles a fresh WordPress install ships with.
var defaultRoles = []string{"administrator", "editor", "author", "contributor", "subscriber"}

// NewMemory creates a store holding only the default roles. Identifiers start
// after reserved, so a store whose administrator is id 1 passes reserved=1.
func NewMemory(reserved ID) *Memory {
	m := &Memory{
		nextID: reserved,
		calls:  make(map[string]int),
		roles:  make(map[string]*Role),
		users:  make(map[ID]*User),
		media:  make(map[ID]*Media),
		terms:  make(map[ID]*Term),
		menus:  make(map[ID]*Menu),
		posts:  make(map[ID]*Post),
	}
	for _, key := range defaultRoles {
		m.roles[key] = &Role{Key: key, Name: key}
	}
	return m
}

// Calls reports how many times method was invoked.
func (m *Memory) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

func (m *Memory) track(method string) {
	m.calls[method]++
}

func (m *Memory) allocate() ID {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateRole(ctx context.Context, key, name, cloneFrom string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateRole")

	if _, exists := m.roles[key]; exists {
		return errors.Wrapf(ErrConflict, "role %q", key)
	}
	role := &Role{Key: key, Name: name, CloneFrom: cloneFrom}
	if cloneFrom != "" {
		source, ok := m.roles[cloneFrom]
		if !ok {
			return errors.Wrapf(ErrNotFound, "clone source role %q", cloneFrom)
		}
		role.Capabilities = append([]string(nil), source.Capabilities...)
	}
	m.roles[key] = role
	return nil
}

func (m *Memory) AddCapability(ctx context.Context, roleKey, capability string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("AddCapability")

	role, ok := m.roles[roleKey]
	if !ok {
		return errors.Wrapf(ErrNotFound, "role %q", roleKey)
	}
	for _, existing := range role.Capabilities {
		if existing == capability {
			return nil
		}
	}
	role.Capabilities = append(role.Capabilities, capability)
	return nil
}

func (m *Memory) CreateUser(ctx context.Context, in UserInput) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateUser")

	email := strings.ToLower(strings.TrimSpace(in.Email))
	for _, u := range m.users {
		if strings.ToLower(u.Email) == email {
			return NoID, errors.Wrapf(ErrConflict, "user email %q", in.Email)
		}
	}
	id := m.allocate()
	m.users[id] = &User{ID: id, UserInput: in}
	return id, nil
}

func (m *Memory) ImportMedia(ctx context.Context, path string) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("ImportMedia")

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return NoID, errors.Wrapf(err, "detect media type of %s", path)
	}
	id := m.allocate()
	m.media[id] = &Media{ID: id, Path: path, Filename: filepath.Base(path), MIME: mtype.String()}
	return id, nil
}

func (m *Memory) ListPostIDs(ctx context.Context, postType string) ([]ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("ListPostIDs")

	ids := make([]ID, 0)
	for id, p := range m.posts {
		if p.PostType == postType {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) DeletePosts(ctx context.Context, ids []ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("DeletePosts")

	for _, id := range ids {
		if _, ok := m.posts[id]; !ok {
			return errors.Wrapf(ErrNotFound, "post %d", id)
		}
	}
	for _, id := range ids {
		delete(m.posts, id)
		for _, menu := range m.menus {
			kept := menu.Items[:0]
			for _, item := range menu.Items {
				if item.PostID != id {
					kept = append(kept, item)
				}
			}
			menu.Items = kept
		}
	}
	return nil
}

func (m *Memory) CreateTerm(ctx context.Context, taxonomy, name string) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateTerm")

	for _, t := range m.terms {
		if t.Taxonomy == taxonomy && t.Name == name {
			return NoID, errors.Wrapf(ErrConflict, "term %s/%s", taxonomy, name)
		}
	}
	id := m.allocate()
	m.terms[id] = &Term{ID: id, Taxonomy: taxonomy, Name: name}
	return id, nil
}

func (m *Memory) CreateMenu(ctx context.Context, name string) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreateMenu")

	for _, menu := range m.menus {
		if menu.Name == name {
			return NoID, errors.Wrapf(ErrConflict, "menu %q", name)
		}
	}
	id := m.allocate()
	m.menus[id] = &Menu{ID: id, Name: name}
	return id, nil
}

func (m *Memory) AddMenuItemPost(ctx context.Context, menuID, postID ID) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("AddMenuItemPost")

	menu, ok := m.menus[menuID]
	if !ok {
		return NoID, errors.Wrapf(ErrNotFound, "menu %d", menuID)
	}
	if _, ok := m.posts[postID]; !ok {
		return NoID, errors.Wrapf(ErrNotFound, "post %d", postID)
	}
	id := m.allocate()
	menu.Items = append(menu.Items, MenuItem{ID: id, PostID: postID})
	return id, nil
}

func (m *Memory) CreatePost(ctx context.Context, in PostInput) (ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track("CreatePost")

	body, err := os.ReadFile(in.BodyFile)
	if err != nil {
		return NoID, errors.Wrap(err, "read post body")
	}
	if in.Parent != NoID {
		if _, ok := m.posts[in.Parent]; !ok {
			return NoID, errors.Wrapf(ErrNotFound, "parent %d", in.Parent)
		}
	}
	id := m.allocate()
	in.Tags = append([]string(nil), in.Tags...)
	in.CategoryIDs = append([]ID(nil), in.CategoryIDs...)
	m.posts[id] = &Post{ID: id, PostInput: in, Body: string(body)}
	return id, nil
}

// Posts returns every stored post of postType ordered by id.
func (m *Memory) Posts(postType string) []Post {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Post, 0)
	for _, p := range m.posts {
		if p.PostType == postType {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Menus returns every stored menu ordered by id.
func (m *Memory) Menus() []Menu {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Menu, 0, len(m.menus))
	for _, menu := range m.menus {
		copied := *menu
		copied.Items = append([]MenuItem(nil), menu.Items...)
		out = append(out, copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Terms returns every stored term of taxonomy ordered by id.
func (m *Memory) Terms(taxonomy string) []Term {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Term, 0)
	for _, t := range m.terms {
		if t.Taxonomy == taxonomy {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Role returns the stored role for key.
func (m *Memory) Role(key string) (Role, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	role, ok := m.roles[key]
	if !ok {
		return Role{}, false
	}
	copied := *role
	copied.Capabilities = append([]string(nil), role.Capabilities...)
	return copied, true
}

// Media returns the stored attachment for id.
func (m *Memory) Media(id ID) (Media, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	media, ok := m.media[id]
	if !ok {
		return Media{}, false
	}
	return *media, true
}

// Users returns every stored user ordered by id.
func (m *Memory) Users() []User {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
