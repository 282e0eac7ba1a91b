package service

import (
	"context"
	"testing"

	"storefront-service/internal/dto"
	"storefront-service/internal/model"
	"storefront-service/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func ptr[T any](v T) *T { return &v }

func TestUserService_GetProfile(t *testing.T) {
	ctx := context.Background()
	u := &model.User{ID: primitive.NewObjectID(), Name: "Ana Maria Diaz", Email: "ana@example.com"}

	users := new(MockUserRepository)
	users.On("FindByID", ctx, "u1").Return(u, nil)
	users.On("FindByID", ctx, "u2").Return(nil, repository.ErrNotFound)
	svc := NewUserService(users)

	p, err := svc.GetProfile(ctx, shopper)
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.FirstName)
	assert.Equal(t, "Maria Diaz", p.LastName)
	assert.NotNil(t, p.Wishlist)

	_, err = svc.GetProfile(ctx, model.Identity{UserID: "u2"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetProfile(ctx, model.Identity{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestUserService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	hash, err := HashPassword("old-password")
	require.NoError(t, err)

	newUser := func() *model.User {
		return &model.User{
			ID:       primitive.NewObjectID(),
			Name:     "Ana Diaz",
			Email:    "ana@example.com",
			Password: hash,
			Provider: model.ProviderLocal,
			Address:  model.Address{Line1: "Calle 1", City: "Mendoza"},
		}
	}

	t.Run("partial update merges address", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "u1").Return(newUser(), nil)
		users.On("Replace", ctx, mock.Anything).Return(nil)
		svc := NewUserService(users)

		p, err := svc.UpdateProfile(ctx, shopper, dto.UpdateProfileRequest{
			LastName: ptr("Perez"),
			Address:  &dto.AddressPatch{City: ptr("Cordoba")},
			Wishlist: []string{"p1", "p2"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Ana Perez", p.Name)
		assert.Equal(t, "Calle 1", p.Address.Line1)
		assert.Equal(t, "Cordoba", p.Address.City)
		assert.Equal(t, []string{"p1", "p2"}, p.Wishlist)
	})

	t.Run("password change", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "u1").Return(newUser(), nil)
		var saved *model.User
		users.On("Replace", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).(*model.User)
		}).Return(nil)
		svc := NewUserService(users)

		_, err := svc.UpdateProfile(ctx, shopper, dto.UpdateProfileRequest{CurrentPassword: "old-password", NewPassword: "new-secret"})
		require.NoError(t, err)
		assert.True(t, CheckPasswordHash("new-secret", saved.Password))
	})

	t.Run("wrong current password", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "u1").Return(newUser(), nil)
		svc := NewUserService(users)

		_, err := svc.UpdateProfile(ctx, shopper, dto.UpdateProfileRequest{CurrentPassword: "nope", NewPassword: "new-secret"})
		assert.ErrorIs(t, err, ErrInvalidInput)
		users.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything)
	})

	t.Run("new password too short", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "u1").Return(newUser(), nil)
		svc := NewUserService(users)

		_, err := svc.UpdateProfile(ctx, shopper, dto.UpdateProfileRequest{CurrentPassword: "old-password", NewPassword: "abc"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("email taken", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByID", ctx, "u1").Return(newUser(), nil)
		users.On("Replace", ctx, mock.Anything).Return(repository.ErrEmailTaken)
		svc := NewUserService(users)

		_, err := svc.UpdateProfile(ctx, shopper, dto.UpdateProfileRequest{Email: ptr("other@example.com")})
		assert.ErrorIs(t, err, ErrEmailTaken)
	})
}
