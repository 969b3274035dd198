package usecase_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/i2y/toolwrap/internal/domain"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

// MockStandardManager is a mock implementation of usecase.StandardManager.
type MockStandardManager struct {
	mock.Mock
}

func (m *MockStandardManager) ConnectAll(ctx context.Context, configs []domain.ServerConfig) error {
	args := m.Called(ctx, configs)
	return args.Error(0)
}

func (m *MockStandardManager) Tools() []domain.ToolDescriptor {
	args := m.Called()
	if tools := args.Get(0); tools != nil {
		return tools.([]domain.ToolDescriptor)
	}
	return nil
}

func (m *MockStandardManager) CallTool(ctx context.Context, rawName string, params map[string]interface{}) (interface{}, error) {
	args := m.Called(ctx, rawName, params)
	return args.Get(0), args.Error(1)
}

func (m *MockStandardManager) DisconnectAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockCustomHandler is a mock implementation of usecase.CustomHandler.
type MockCustomHandler struct {
	mock.Mock
}

func (m *MockCustomHandler) DiscoverAll(ctx context.Context, configs []domain.ServerConfig) (map[string]domain.ToolDescriptor, error) {
	args := m.Called(ctx, configs)
	if tools := args.Get(0); tools != nil {
		return tools.(map[string]domain.ToolDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomHandler) Discover(ctx context.Context, config domain.ServerConfig) ([]domain.ToolDescriptor, error) {
	args := m.Called(ctx, config)
	if tools := args.Get(0); tools != nil {
		return tools.([]domain.ToolDescriptor), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCustomHandler) CallTool(ctx context.Context, rawName string, params map[string]interface{}) (interface{}, error) {
	args := m.Called(ctx, rawName, params)
	return args.Get(0), args.Error(1)
}

func (m *MockCustomHandler) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockArgumentValidator is a mock implementation of usecase.ArgumentValidator.
type MockArgumentValidator struct {
	mock.Mock
}

func (m *MockArgumentValidator) Validate(ctx context.Context, rawName string, params map[string]interface{}) error {
	args := m.Called(ctx, rawName, params)
	return args.Error(0)
}

func descriptor(rawName, description string) domain.ToolDescriptor {
	_, cleanName, serverName := domain.ParseToolName(rawName)
	return domain.ToolDescriptor{RawName: rawName, CleanName: cleanName, ServerName: serverName, Description: description}
}
