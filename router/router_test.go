// file: router/router_test.go

package router_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"order-track-api/handler"
	"order-track-api/model"
	"order-track-api/repository"
	"order-track-api/router"
	"order-track-api/service"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory repositories so the full HTTP auth flow can be exercised without
// a database.

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{nextID: 1, byID: make(map[int]*model.User)}
}

func (f *fakeUserRepo) CreateUser(user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user.ID = f.nextID
	f.nextID++
	user.Role = model.RoleUser
	user.IsActive = true
	user.CreatedAt = time.Now()
	cp := *user
	f.byID[user.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) GetUserByID(id int) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) UpdatePassword(userID int, hashedPassword string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[userID]; ok {
		u.Password = hashedPassword
	}
	return nil
}

func (f *fakeUserRepo) deactivate(userID int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.byID[userID]; ok {
		u.IsActive = false
	}
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	records map[string]*model.RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{records: make(map[string]*model.RefreshToken)}
}

func (f *fakeTokenRepo) Create(token *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *token
	f.records[token.TokenID] = &cp
	return nil
}

func (f *fakeTokenRepo) GetByTokenID(tokenID string) (*model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[tokenID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeTokenRepo) Revoke(tokenID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.records[tokenID]; ok {
		rec.Revoked = true
	}
	return nil
}

func (f *fakeTokenRepo) RevokeAllForUser(userID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.UserID == userID {
			rec.Revoked = true
		}
	}
	return nil
}

func (f *fakeTokenRepo) Rotate(oldTokenID string, newToken *model.RefreshToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[oldTokenID]
	if !ok || rec.Revoked {
		return repository.ErrTokenAlreadyRevoked
	}
	rec.Revoked = true
	cp := *newToken
	f.records[newToken.TokenID] = &cp
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	nextID int
	orders map[int]*model.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{nextID: 1, orders: make(map[int]*model.Order)}
}

func (f *fakeOrderRepo) CreateOrder(order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	order.ID = f.nextID
	f.nextID++
	order.Status = model.OrderStatusPending
	order.CreatedAt = time.Now()
	cp := *order
	f.orders[order.ID] = &cp
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(userID int) ([]*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) GetOrderByID(orderID int) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(orderID int, status model.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return sql.ErrNoRows
	}
	o.Status = status
	return nil
}

type testEnv struct {
	handler   http.Handler
	userRepo  *fakeUserRepo
	tokenRepo *fakeTokenRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	userRepo := newFakeUserRepo()
	tokenRepo := newFakeTokenRepo()
	orderRepo := newFakeOrderRepo()

	codec := service.NewTokenCodec("router-test-secret", 15*time.Minute, 7*24*time.Hour)
	cache := service.NewMemoryRevocationCache(time.Minute)
	t.Cleanup(cache.Stop)

	authority := service.NewTokenAuthority(codec, tokenRepo, cache)
	userService := service.NewUserService(userRepo, authority)
	orderService := service.NewOrderService(orderRepo, nil)

	authHandler := handler.NewAuthHandler(userService, authority)
	orderHandler := handler.NewOrderHandler(orderService)
	authMW := handler.NewAuthMiddleware(authority, userRepo)

	return &testEnv{
		handler:   router.NewRouter(authHandler, orderHandler, authMW),
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
	}
}

func (e *testEnv) do(t *testing.T, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) registerAndLogin(t *testing.T, email string) *model.TokenPair {
	t.Helper()

	rr := e.do(t, http.MethodPost, "/auth/register", "", model.RegisterRequest{
		Username: "tester", Email: email, Password: "super-secret-pw",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = e.do(t, http.MethodPost, "/auth/login", "", model.LoginRequest{
		Email: email, Password: "super-secret-pw",
	})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	pair := &model.TokenPair{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), pair))
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair
}

func TestAuthFlow_LoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "flow@example.com")

	// The access token opens protected routes.
	rr := env.do(t, http.MethodPost, "/orders", pair.AccessToken, model.CreateOrderRequest{Item: "widget", Quantity: 2})
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/orders", pair.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	// Refresh rotates the pair; the old refresh token is single-use.
	rr = env.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	newPair := &model.TokenPair{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), newPair))
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)

	rr = env.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var rejection struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rejection))
	assert.Equal(t, "revoked", rejection.Reason)

	// Logout blacklists the access token immediately, before its expiry.
	rr = env.do(t, http.MethodPost, "/auth/logout", newPair.AccessToken, model.LogoutRequest{RefreshToken: newPair.RefreshToken})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	rr = env.do(t, http.MethodGet, "/orders", newPair.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: newPair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthFlow_RejectionReasons(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: "garbage"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	var rejection struct {
		Reason string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rejection))
	assert.Equal(t, "invalid", rejection.Reason)
}

func TestAuthFlow_InactiveUserIsLockedOut(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "inactive@example.com")

	// Deactivation takes effect on the very next request; the still-valid
	// access token does not retain old privileges.
	env.userRepo.deactivate(1)

	rr := env.do(t, http.MethodGet, "/orders", pair.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthFlow_MissingOrMalformedBearer(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/orders", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = env.do(t, http.MethodGet, "/orders", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuthFlow_AdminOnlyRoute(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "user@example.com")

	// A regular user cannot update order statuses.
	rr := env.do(t, http.MethodPut, "/orders/status?id=1", pair.AccessToken, model.UpdateOrderStatusRequest{Status: model.OrderStatusShipped})
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAuthFlow_PasswordChangeRevokesSessions(t *testing.T) {
	env := newTestEnv(t)
	pair := env.registerAndLogin(t, "pw@example.com")

	rr := env.do(t, http.MethodPut, "/auth/password", pair.AccessToken, model.ChangePasswordRequest{
		OldPassword: "super-secret-pw",
		NewPassword: "brand-new-secret",
	})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	// Every previously issued refresh token is now useless.
	rr = env.do(t, http.MethodPost, "/auth/refresh", "", model.RefreshRequest{RefreshToken: pair.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
