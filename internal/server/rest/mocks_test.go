package rest

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/dmitrijs2005/recipehub/internal/dbx"
	"github.com/dmitrijs2005/recipehub/internal/server/auth"
	"github.com/dmitrijs2005/recipehub/internal/server/mail"
	"github.com/dmitrijs2005/recipehub/internal/server/models"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/recipes"
	"github.com/dmitrijs2005/recipehub/internal/server/repositories/users"
	"github.com/dmitrijs2005/recipehub/internal/server/services"
)

type mockSessions struct {
	registerFn func(ctx context.Context, in services.RegisterInput) (*models.User, error)
	loginFn    func(ctx context.Context, email, password string) (*services.Session, error)
	profileFn  func(token string) (*auth.Claims, error)
}

func (m *mockSessions) Register(ctx context.Context, in services.RegisterInput) (*models.User, error) {
	return m.registerFn(ctx, in)
}

func (m *mockSessions) Login(ctx context.Context, email, password string) (*services.Session, error) {
	return m.loginFn(ctx, email, password)
}

func (m *mockSessions) Profile(token string) (*auth.Claims, error) {
	if m.profileFn == nil {
		if token == "" {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrTokenMalformed
	}
	return m.profileFn(token)
}

func (m *mockSessions) Logout(ctx context.Context) error { return nil }

// sessionFor accepts the single token "good" as the given identity.
func sessionFor(id auth.Identity) *mockSessions {
	return &mockSessions{profileFn: func(token string) (*auth.Claims, error) {
		switch token {
		case "":
			return nil, common.ErrorUnauthorized
		case "good":
			return &auth.Claims{UserID: id.ID, Email: id.Email, Name: id.Name}, nil
		case "expired":
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrTokenMalformed
	}}
}

type mockResets struct {
	forgotFn func(ctx context.Context, email string) error
	resetFn  func(ctx context.Context, id models.IdentityID, token, password string) error
}

func (m *mockResets) ForgotPassword(ctx context.Context, email string) error {
	return m.forgotFn(ctx, email)
}

func (m *mockResets) ResetPassword(ctx context.Context, id models.IdentityID, token, password string) error {
	return m.resetFn(ctx, id, token, password)
}

type mockRecipes struct {
	createFn     func(ctx context.Context, author models.IdentityID, in services.RecipeInput, up *services.Upload) (*models.Recipe, error)
	listFn       func(ctx context.Context) ([]*models.Recipe, error)
	getFn        func(ctx context.Context, id string) (*models.Recipe, error)
	listMineFn   func(ctx context.Context, caller models.IdentityID) ([]*models.Recipe, error)
	byCategoryFn func(ctx context.Context, category string) ([]*models.Recipe, error)
	updateFn     func(ctx context.Context, caller models.IdentityID, id string, in services.RecipeInput, up *services.Upload) (*models.Recipe, error)
	deleteFn     func(ctx context.Context, caller models.IdentityID, id string) (*models.Recipe, error)
}

func (m *mockRecipes) Create(ctx context.Context, author models.IdentityID, in services.RecipeInput, up *services.Upload) (*models.Recipe, error) {
	return m.createFn(ctx, author, in, up)
}

func (m *mockRecipes) List(ctx context.Context) ([]*models.Recipe, error) { return m.listFn(ctx) }

func (m *mockRecipes) Get(ctx context.Context, id string) (*models.Recipe, error) {
	return m.getFn(ctx, id)
}

func (m *mockRecipes) ListMine(ctx context.Context, caller models.IdentityID) ([]*models.Recipe, error) {
	return m.listMineFn(ctx, caller)
}

func (m *mockRecipes) ListByCategory(ctx context.Context, category string) ([]*models.Recipe, error) {
	return m.byCategoryFn(ctx, category)
}

func (m *mockRecipes) Update(ctx context.Context, caller models.IdentityID, id string, in services.RecipeInput, up *services.Upload) (*models.Recipe, error) {
	return m.updateFn(ctx, caller, id, in, up)
}

func (m *mockRecipes) Delete(ctx context.Context, caller models.IdentityID, id string) (*models.Recipe, error) {
	return m.deleteFn(ctx, caller, id)
}

type authEvent struct{ event, outcome string }

type fakeRecorder struct {
	mu   sync.Mutex
	auth []authEvent
	http []int
}

func (f *fakeRecorder) RecordAuth(event, outcome string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, authEvent{event, outcome})
}

func (f *fakeRecorder) RecordHTTP(method string, statusCode int, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.http = append(f.http, statusCode)
}

// memUsers is an in-memory credential store for end-to-end flows.
type memUsers struct {
	mu      sync.Mutex
	seq     int
	byEmail map[string]*models.User
}

func newMemUsers() *memUsers { return &memUsers{byEmail: map[string]*models.User{}} }

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail[u.Email]; ok {
		return nil, common.ErrConflict
	}
	m.seq++
	cp := *u
	cp.ID = models.IdentityID(fmt.Sprintf("00000000-0000-0000-0000-%012d", m.seq))
	m.byEmail[cp.Email] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (m *memUsers) GetByID(ctx context.Context, id models.IdentityID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) UpdatePasswordHash(ctx context.Context, id models.IdentityID, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byEmail {
		if u.ID == id {
			u.PasswordHash = hash
			return nil
		}
	}
	return common.ErrorNotFound
}

type memRepoManager struct {
	users *memUsers
}

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Users(dbx.DBTX) users.Repository              { return m.users }
func (m *memRepoManager) Recipes(dbx.DBTX) recipes.Repository          { return nil }

type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (c *captureMailer) Dispatch(ctx context.Context, msg mail.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func (c *captureMailer) last() (mail.Message, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sent) == 0 {
		return mail.Message{}, false
	}
	return c.sent[len(c.sent)-1], true
}
