package redisstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New(context.Background(), "http://localhost:6379", "")
	assert.Error(t, err)
}

func TestDefaultPrefix(t *testing.T) {
	s := NewWithClient(nil, "")
	assert.Equal(t, defaultPrefix, s.prefix)

	s = NewWithClient(nil, "custom:")
	assert.Equal(t, "custom:", s.prefix)
}
