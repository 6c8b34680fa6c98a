package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_identifyLookup(t *testing.T) {
	r := NewRegistry()
	c := &Client{id: "c1"}

	assert.Nil(t, r.lookup("alice"), "expected no client before identification")

	r.identify(c, "alice")
	assert.Equal(t, c, r.lookup("alice"), "expected identified client to be returned")
	assert.Equal(t, "alice", c.userId)
	assert.True(t, c.identified)
	assert.Equal(t, 1, r.len())
}

func TestRegistry_latestIdentificationWins(t *testing.T) {
	r := NewRegistry()
	first := &Client{id: "c1", stop: make(chan struct{})}
	second := &Client{id: "c2", stop: make(chan struct{})}

	r.identify(first, "alice")
	r.identify(second, "alice")
	assert.Equal(t, second, r.lookup("alice"), "expected most recent identification to win")
	assert.True(t, first.isOpen(), "expected superseded client to be left open")

	// the superseded client closing late must not evict the replacement
	r.remove(first)
	assert.Equal(t, second, r.lookup("alice"), "expected stale remove to be ignored")

	r.remove(second)
	assert.Nil(t, r.lookup("alice"), "expected binding to be removed by its owner")
	assert.Equal(t, 0, r.len())
}

func TestRegistry_reidentifyAsAnotherUser(t *testing.T) {
	r := NewRegistry()
	c := &Client{id: "c1"}

	r.identify(c, "alice")
	r.identify(c, "bob")

	assert.Nil(t, r.lookup("alice"), "expected old binding to be released")
	assert.Equal(t, c, r.lookup("bob"))
	assert.Equal(t, 1, r.len())
}

func TestRegistry_removeUnidentified(t *testing.T) {
	r := NewRegistry()
	bound := &Client{id: "c1"}
	r.identify(bound, "")

	// an empty user id is accepted as-is
	assert.Equal(t, bound, r.lookup(""))

	r.remove(&Client{id: "c2"})
	assert.Equal(t, bound, r.lookup(""), "expected unidentified client removal to be a no-op")
}
