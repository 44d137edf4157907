package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookexchange-backend/internal/domains/user/model"
	"bookexchange-backend/pkg/jwt"
)

type memUserRepo struct {
	byID    map[uuid.UUID]*model.User
	byEmail map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:    make(map[uuid.UUID]*model.User),
		byEmail: make(map[string]*model.User),
	}
}

func (r *memUserRepo) Create(ctx context.Context, user *model.User) error {
	user.CreatedAt = time.Now()
	c := *user
	r.byID[user.ID] = &c
	r.byEmail[user.Email] = &c
	return nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.User, error) {
	result := make(map[uuid.UUID]*model.User)
	for _, id := range ids {
		if u, ok := r.byID[id]; ok {
			c := *u
			result[id] = &c
		}
	}
	return result, nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, model.ErrUserNotFound
	}
	c := *u
	return &c, nil
}

func (r *memUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *memUserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	var users []model.User
	for _, u := range r.byID {
		users = append(users, *u)
	}
	return users, nil
}

func newTestUserService(repo *memUserRepo) UserService {
	manager := jwt.NewManager("test-secret", time.Hour, 24*time.Hour)
	return NewUserService(repo, manager)
}

func TestRegister_HashesPasswordAndIssuesTokens(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)

	resp, err := svc.Register(context.Background(), model.RegisterRequest{
		Email:    "an@bookexchange.local",
		Password: "secret123",
		Name:     "An",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, model.RoleUser, resp.User.Role)

	stored, err := repo.GetByEmail(context.Background(), "an@bookexchange.local")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	req := model.RegisterRequest{
		Email:    "binh@bookexchange.local",
		Password: "secret123",
		Name:     "Binh",
	}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.ErrorIs(t, err, model.ErrEmailTaken)
}

func TestLogin_RoundTrip(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.RegisterRequest{
		Email:    "chi@bookexchange.local",
		Password: "secret123",
		Name:     "Chi",
	})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, model.LoginRequest{
		Email:    "chi@bookexchange.local",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPasswordIndistinguishableFromMissingUser(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	ctx := context.Background()

	_, err := svc.Register(ctx, model.RegisterRequest{
		Email:    "dung@bookexchange.local",
		Password: "secret123",
		Name:     "Dung",
	})
	require.NoError(t, err)

	_, wrongPass := svc.Login(ctx, model.LoginRequest{
		Email:    "dung@bookexchange.local",
		Password: "wrong-password",
	})
	_, missingUser := svc.Login(ctx, model.LoginRequest{
		Email:    "nobody@bookexchange.local",
		Password: "secret123",
	})

	require.ErrorIs(t, wrongPass, model.ErrInvalidPassword)
	require.ErrorIs(t, missingUser, model.ErrInvalidPassword)
}
