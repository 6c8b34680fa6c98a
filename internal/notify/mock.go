package notify

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(n Notification) {
	m.Called(n)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, token, title, body string) error {
	args := m.Called(ctx, token, title, body)
	return args.Error(0)
}
