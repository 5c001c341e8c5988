package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/dbx"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/mail"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- users ---

// fakeUsers is an in-memory credential store with a unique email index.
type fakeUsers struct {
	mu      sync.Mutex
	seq     int
	byID    map[models.IdentityID]*models.User
	byEmail map[string]models.IdentityID

	getErr    error
	createErr error
	updateErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: map[models.IdentityID]*models.User{}, byEmail: map[string]models.IdentityID{}}
}

func (f *fakeUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return nil, common.ErrConflict
	}
	f.seq++
	cp := *u
	cp.ID = models.IdentityID(fmt.Sprintf("u-%d", f.seq))
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	f.byID[cp.ID] = &cp
	f.byEmail[cp.Email] = cp.ID
	out := cp
	return &out, nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	id, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *f.byID[id]
	return &out, nil
}

func (f *fakeUsers) GetByID(ctx context.Context, id models.IdentityID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (f *fakeUsers) UpdatePasswordHash(ctx context.Context, id models.IdentityID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

// --- recipes ---

type fakeRecipes struct {
	mu    sync.Mutex
	seq   int
	items map[string]*models.Recipe

	createErr error
	updateErr error
	deleteErr error
	listErr   error
	locked    []string
}

func newFakeRecipes() *fakeRecipes {
	return &fakeRecipes{items: map[string]*models.Recipe{}}
}

func (f *fakeRecipes) put(r models.Recipe) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[r.ID] = &r
}

func (f *fakeRecipes) get(id string) (*models.Recipe, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, false
	}
	cp := *r
	return &cp, true
}

func (f *fakeRecipes) Create(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	cp := *r
	cp.ID = fmt.Sprintf("r-%d", f.seq)
	cp.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	cp.UpdatedAt = cp.CreatedAt
	f.items[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRecipes) GetByID(ctx context.Context, id string) (*models.Recipe, error) {
	r, ok := f.get(id)
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r, nil
}

func (f *fakeRecipes) GetByIDForUpdate(ctx context.Context, id string) (*models.Recipe, error) {
	f.mu.Lock()
	f.locked = append(f.locked, id)
	f.mu.Unlock()
	return f.GetByID(ctx, id)
}

func (f *fakeRecipes) filter(keep func(*models.Recipe) bool) ([]*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.Recipe, 0)
	for _, r := range f.items {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRecipes) List(ctx context.Context) ([]*models.Recipe, error) {
	return f.filter(func(*models.Recipe) bool { return true })
}

func (f *fakeRecipes) ListByAuthor(ctx context.Context, author models.IdentityID) ([]*models.Recipe, error) {
	return f.filter(func(r *models.Recipe) bool { return r.AuthorID == author })
}

func (f *fakeRecipes) ListByCategory(ctx context.Context, category string) ([]*models.Recipe, error) {
	return f.filter(func(r *models.Recipe) bool { return r.Category == category })
}

func (f *fakeRecipes) Update(ctx context.Context, r *models.Recipe) (*models.Recipe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	if _, ok := f.items[r.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	cp.UpdatedAt = time.Now()
	f.items[r.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeRecipes) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.items[id]; !ok {
		return common.ErrorNotFound
	}
	delete(f.items, id)
	return nil
}

// --- repo manager ---

type fakeRepoManager struct {
	u *fakeUsers
	r *fakeRecipes
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: newFakeUsers(), r: newFakeRecipes()}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) Recipes(dbx.DBTX) recipes.Repository           { return m.r }

// --- blobs ---

type fakeBlobs struct {
	mu      sync.Mutex
	seq     int
	stored  map[string]string
	deleted []string
	putErr  error
	delErr  error
}

func newFakeBlobs() *fakeBlobs { return &fakeBlobs{stored: map[string]string{}} }

func (b *fakeBlobs) Put(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return "", b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.seq++
	ref := fmt.Sprintf("uploads/blob-%d-%s", b.seq, name)
	b.stored[ref] = string(data)
	return ref, nil
}

func (b *fakeBlobs) Delete(ctx context.Context, ref string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, ref)
	if b.delErr != nil {
		return b.delErr
	}
	delete(b.stored, ref)
	return nil
}

func (b *fakeBlobs) has(ref string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.stored[ref]
	return ok
}

// --- mail ---

type fakeMailer struct {
	mu   sync.Mutex
	msgs []mail.Message
	err  error
}

func (m *fakeMailer) Dispatch(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

// --- primitives ---

func newCodec(t *testing.T) *auth.TokenCodec {
	t.Helper()
	c, err := auth.NewTokenCodec([]byte("test-secret"))
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return c
}

func newHasher(t *testing.T) *auth.Hasher {
	t.Helper()
	h, err := auth.NewHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewHasher: %v", err)
	}
	return h
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}
