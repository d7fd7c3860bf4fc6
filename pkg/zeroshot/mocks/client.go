// Package mocks provides a testify mock of the zeroshot client.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/jobtrail/jobtrail/pkg/zeroshot"
)

// Client is a mock implementation of zeroshot.Client.
type Client struct {
	mock.Mock
}

func (m *Client) Classify(ctx context.Context, texts []string) ([]zeroshot.Prediction, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]zeroshot.Prediction), args.Error(1)
}
