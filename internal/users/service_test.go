package users

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holocron/holocron/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	users  map[int64]User
	nextID int64

	txError  error
	getError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[int64]User), nextID: 1}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	saved := make(map[int64]User, len(m.users))
	for id, u := range m.users {
		saved[id] = u
	}
	if err := fn(ctx, m); err != nil {
		m.users = saved
		return err
	}
	return nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (User, error) {
	if m.getError != nil {
		return User{}, m.getError
	}
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) find(match func(User) bool) (User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *mockRepository) FindByEmail(ctx context.Context, email string) (User, error) {
	return m.find(func(u User) bool { return u.Email == email })
}

func (m *mockRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	return m.find(func(u User) bool { return u.Username == username })
}

func (m *mockRepository) List(ctx context.Context, page shared.Pagination) ([]User, error) {
	ids := make([]int64, 0, len(m.users))
	for id := range m.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := []User{}
	for i, id := range ids {
		if i >= page.Offset && len(out) < page.Limit {
			out = append(out, m.users[id])
		}
	}
	return out, nil
}

func (m *mockRepository) SetActive(ctx context.Context, id int64, active bool) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return u, nil
}

func (m *mockRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockRepository) LockByID(ctx context.Context, id int64) (User, error) {
	return m.Get(ctx, id)
}

func (m *mockRepository) UsernameTaken(ctx context.Context, username string, exceptID int64) (bool, error) {
	u, err := m.FindByUsername(ctx, username)
	return err == nil && u.ID != exceptID, nil
}

func (m *mockRepository) EmailTaken(ctx context.Context, email string, exceptID int64) (bool, error) {
	u, err := m.FindByEmail(ctx, email)
	return err == nil && u.ID != exceptID, nil
}

func (m *mockRepository) Insert(ctx context.Context, u User) (User, error) {
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return u, nil
}

func (m *mockRepository) Update(ctx context.Context, u User) (User, error) {
	if _, ok := m.users[u.ID]; !ok {
		return User{}, ErrNotFound
	}
	u.UpdatedAt = time.Now().UTC()
	m.users[u.ID] = u
	return u, nil
}

func strPtr(s string) *string { return &s }

func mustCreate(t *testing.T, svc *Service, username, email string) User {
	t.Helper()
	u, err := svc.CreateUser(context.Background(), CreateUserInput{Username: username, Email: email, Name: strPtr("Name " + username)})
	require.NoError(t, err)
	return u
}

// ============================================================================
// TESTS
// ============================================================================

func TestCreateUserRoundTrip(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)

	created, err := svc.CreateUser(context.Background(), CreateUserInput{
		Username: "  luke ",
		Email:    "luke@rebellion.org",
		Name:     strPtr(" Luke Skywalker "),
	})
	require.NoError(t, err)
	assert.Equal(t, "luke", created.Username)
	assert.Equal(t, "Luke Skywalker", *created.Name)
	assert.True(t, created.IsActive)

	got, err := svc.GetUser(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)
}

func TestCreateUserHonoursIsActive(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	inactive := false
	u, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "leia", Email: "leia@rebellion.org", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, u.IsActive)
}

func TestCreateUserNormalizesUnicode(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	composed := "padm\u00e9"
	decomposed := "padme\u0301"

	u, err := svc.CreateUser(context.Background(), CreateUserInput{Username: decomposed, Email: "p@naboo.gov"})
	require.NoError(t, err)
	assert.Equal(t, composed, u.Username)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Username: composed, Email: "other@naboo.gov"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestCreateUserConflicts(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	mustCreate(t, svc, "han", "han@falcon.space")

	_, err := svc.CreateUser(context.Background(), CreateUserInput{Username: "han", Email: "solo@falcon.space"})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = svc.CreateUser(context.Background(), CreateUserInput{Username: "solo", Email: "han@falcon.space"})
	assert.ErrorIs(t, err, shared.ErrConflict)
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	tests := []struct {
		name  string
		input CreateUserInput
		field string
	}{
		{name: "blank username", input: CreateUserInput{Username: "   ", Email: "a@b.co"}, field: "username"},
		{name: "long username", input: CreateUserInput{Username: strings.Repeat("x", 51), Email: "a@b.co"}, field: "username"},
		{name: "bad email", input: CreateUserInput{Username: "x", Email: "not-an-email"}, field: "email"},
		{name: "missing email", input: CreateUserInput{Username: "x"}, field: "email"},
		{name: "long name", input: CreateUserInput{Username: "x", Email: "a@b.co", Name: strPtr(strings.Repeat("n", 101))}, field: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(context.Background(), tt.input)
			require.ErrorIs(t, err, shared.ErrValidation)
			var domainErr *shared.Error
			require.True(t, errors.As(err, &domainErr))
			assert.Contains(t, domainErr.Fields, tt.field)
		})
	}
}

func TestUsernameLengthCountsCharacters(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	_, err := svc.CreateUser(context.Background(), CreateUserInput{Username: strings.Repeat("é", 50), Email: "e@e.co"})
	assert.NoError(t, err)
}

func TestUpdateUserEmailOnly(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	u := mustCreate(t, svc, "ben", "ben@jedi.org")

	updated, err := svc.UpdateUser(context.Background(), u.ID, UpdateUserInput{Email: shared.Some("obiwan@jedi.org")})
	require.NoError(t, err)
	assert.Equal(t, "obiwan@jedi.org", updated.Email)
	assert.Equal(t, u.Username, updated.Username)
	assert.Equal(t, u.Name, updated.Name)
	assert.Equal(t, u.IsActive, updated.IsActive)
}

func TestUpdateUserClearsName(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	u := mustCreate(t, svc, "rey", "rey@jakku.net")

	updated, err := svc.UpdateUser(context.Background(), u.ID, UpdateUserInput{Name: shared.Null[string]()})
	require.NoError(t, err)
	assert.Nil(t, updated.Name)

	unchanged, err := svc.UpdateUser(context.Background(), u.ID, UpdateUserInput{})
	require.NoError(t, err)
	assert.Nil(t, unchanged.Name)
	assert.Equal(t, "rey", unchanged.Username)
}

func TestUpdateUserRejectsNullRequiredFields(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	u := mustCreate(t, svc, "finn", "finn@order.net")

	_, err := svc.UpdateUser(context.Background(), u.ID, UpdateUserInput{
		Username: shared.Null[string](),
		Email:    shared.Some("broken"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
	var domainErr *shared.Error
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "must not be null", domainErr.Fields["username"])
	assert.Equal(t, "must be a valid email address", domainErr.Fields["email"])
}

func TestUpdateUserConflicts(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	a := mustCreate(t, svc, "anakin", "anakin@jedi.org")
	mustCreate(t, svc, "vader", "vader@empire.gov")

	_, err := svc.UpdateUser(context.Background(), a.ID, UpdateUserInput{Email: shared.Some("vader@empire.gov")})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = svc.UpdateUser(context.Background(), a.ID, UpdateUserInput{Username: shared.Some("vader")})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	same, err := svc.UpdateUser(context.Background(), a.ID, UpdateUserInput{Email: shared.Some("anakin@jedi.org")})
	require.NoError(t, err)
	assert.Equal(t, "anakin@jedi.org", same.Email)
}

func TestUpdateUserNotFound(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	_, err := svc.UpdateUser(context.Background(), 99, UpdateUserInput{Name: shared.Some("x")})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "User not found", shared.UserSafeMessage(err))
}

func TestSetActiveIsIdempotent(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	u := mustCreate(t, svc, "yoda", "yoda@dagobah.sys")

	for i := 0; i < 2; i++ {
		got, err := svc.SetActive(context.Background(), u.ID, false)
		require.NoError(t, err)
		assert.False(t, got.IsActive)
	}
	got, err := svc.SetActive(context.Background(), u.ID, true)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	_, err = svc.SetActive(context.Background(), 404, true)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteUserTwice(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	u := mustCreate(t, svc, "jabba", "jabba@tatooine.biz")

	require.NoError(t, svc.DeleteUser(context.Background(), u.ID))
	_, err := svc.GetUser(context.Background(), u.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(context.Background(), u.ID), shared.ErrNotFound)
}

func TestFindUserExactMatch(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil)
	u := mustCreate(t, svc, "chewie", "chewie@kashyyyk.org")

	byEmail, err := svc.FindUserByEmail(context.Background(), "chewie@kashyyyk.org")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	byName, err := svc.FindUserByUsername(context.Background(), "chewie")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byName.ID)

	_, err = svc.FindUserByUsername(context.Background(), "Chewie")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	_, err = svc.FindUserByEmail(context.Background(), "nobody@kashyyyk.org")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

