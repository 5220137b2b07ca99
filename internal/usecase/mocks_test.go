package usecase_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/heatmap-service/internal/domain"
)

// MockPOIRepository is a mock of POIRepository
type MockPOIRepository struct {
	mock.Mock
}

func (m *MockPOIRepository) FetchPOIs(ctx context.Context, factorTags []string, bounds domain.Bounds) ([]domain.POI, error) {
	args := m.Called(ctx, factorTags, bounds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.POI), args.Error(1)
}

func (m *MockPOIRepository) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockListingsRepository is a mock of ListingsRepository
type MockListingsRepository struct {
	mock.Mock
}

func (m *MockListingsRepository) FetchListings(ctx context.Context, bounds domain.Bounds, filters domain.PropertyFilters, sources []string) (*domain.ListingsPage, error) {
	args := m.Called(ctx, bounds, filters, sources)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ListingsPage), args.Error(1)
}
