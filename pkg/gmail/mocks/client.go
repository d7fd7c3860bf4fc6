// Package mocks provides a testify mock of the gmail client.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jobtrail/jobtrail/pkg/gmail"
)

// Client is a mock implementation of gmail.Client.
type Client struct {
	mock.Mock
}

func (m *Client) ListMessageIDs(ctx context.Context, after time.Time) ([]string, error) {
	args := m.Called(ctx, after)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *Client) GetMessage(ctx context.Context, id string) (gmail.Message, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(gmail.Message), args.Error(1)
}
