package main

import (
	"testing"

	"oracle/pkg/store"

	"github.com/stretchr/testify/assert"
)

type closingStore struct {
	store.Store
	closed int
}

func (c *closingStore) Close() error {
	c.closed++
	return nil
}

func TestServerCloseReleasesStore(t *testing.T) {
	s, _ := newTestServer(t)
	assert.NoError(t, s.Close(), "file store has nothing to release")

	cs := &closingStore{Store: s.store}
	s.store = cs
	assert.NoError(t, s.Close())
	assert.Equal(t, 1, cs.closed)
}
