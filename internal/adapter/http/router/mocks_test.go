package router

import (
	"context"

	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/domain"
	"github.com/Abdurahmanit/GroupProject/realty-service/internal/catalog/usecase"
	"github.com/stretchr/testify/mock"
)

type mockListingService struct{ mock.Mock }

func (m *mockListingService) Get(ctx context.Context, h string) (*usecase.SafeListing, error) {
	args := m.Called(ctx, h)
	l, _ := args.Get(0).(*usecase.SafeListing)
	return l, args.Error(1)
}

func (m *mockListingService) Create(ctx context.Context, actor domain.Actor, in usecase.ListingInput, files []usecase.UploadFile) (*usecase.SafeListing, error) {
	args := m.Called(ctx, actor, in, files)
	l, _ := args.Get(0).(*usecase.SafeListing)
	return l, args.Error(1)
}

func (m *mockListingService) Update(ctx context.Context, actor domain.Actor, h string, patch usecase.ListingPatch, files []usecase.UploadFile) (*usecase.SafeListing, error) {
	args := m.Called(ctx, actor, h, patch, files)
	l, _ := args.Get(0).(*usecase.SafeListing)
	return l, args.Error(1)
}

func (m *mockListingService) Delete(ctx context.Context, actor domain.Actor, h string) error {
	return m.Called(ctx, actor, h).Error(0)
}

func (m *mockListingService) HomeTypes() []domain.HomeType { return domain.HomeTypes() }
func (m *mockListingService) Features() []domain.Feature   { return domain.Features() }

type mockSearcher struct{ mock.Mock }

func (m *mockSearcher) Search(ctx context.Context, p usecase.SearchParams) (*usecase.SearchEnvelope, error) {
	args := m.Called(ctx, p)
	env, _ := args.Get(0).(*usecase.SearchEnvelope)
	return env, args.Error(1)
}

type mockAccountService struct{ mock.Mock }

func (m *mockAccountService) Profile(ctx context.Context, actor domain.Actor) (*usecase.ProfileView, error) {
	args := m.Called(ctx, actor)
	v, _ := args.Get(0).(*usecase.ProfileView)
	return v, args.Error(1)
}

func (m *mockAccountService) UpdateProfile(ctx context.Context, actor domain.Actor, patch domain.ProfilePatch) (*usecase.SafeAccount, error) {
	args := m.Called(ctx, actor, patch)
	a, _ := args.Get(0).(*usecase.SafeAccount)
	return a, args.Error(1)
}

func (m *mockAccountService) UploadProfilePicture(ctx context.Context, actor domain.Actor, f usecase.UploadFile) (string, error) {
	args := m.Called(ctx, actor, f)
	return args.String(0), args.Error(1)
}

func (m *mockAccountService) ResetProfilePicture(ctx context.Context, actor domain.Actor) (string, error) {
	args := m.Called(ctx, actor)
	return args.String(0), args.Error(1)
}

func (m *mockAccountService) AddFavorite(ctx context.Context, actor domain.Actor, h string) error {
	return m.Called(ctx, actor, h).Error(0)
}

func (m *mockAccountService) RemoveFavorite(ctx context.Context, actor domain.Actor, h string) error {
	return m.Called(ctx, actor, h).Error(0)
}

func (m *mockAccountService) DeleteByHandle(ctx context.Context, actor domain.Actor, h string) error {
	return m.Called(ctx, actor, h).Error(0)
}

func (m *mockAccountService) Delete(ctx context.Context, actor domain.Actor, accountID string) error {
	return m.Called(ctx, actor, accountID).Error(0)
}

type mockMediaService struct{ mock.Mock }

func (m *mockMediaService) Serve(ctx context.Context, proxyID string) (*usecase.MediaObject, error) {
	args := m.Called(ctx, proxyID)
	obj, _ := args.Get(0).(*usecase.MediaObject)
	return obj, args.Error(1)
}

func (m *mockMediaService) Cleanup(ctx context.Context, actor domain.Actor) (int64, error) {
	args := m.Called(ctx, actor)
	return args.Get(0).(int64), args.Error(1)
}
