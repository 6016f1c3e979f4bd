package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/CyprienPascal/PIP/pkg/contracts/domain"
)

// MockSourceLister is a mock for the SourceLister interface
type MockSourceLister struct {
	mock.Mock
}

func (m *MockSourceLister) Sources(ctx context.Context) []domain.SourceInfo {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SourceInfo)
}
