package server

// Registry maps a user id to the client currently bound to it. It is owned by
// the hub goroutine and has no locking of its own.
type Registry struct {
	users map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*Client)}
}

// identify binds userId to c, replacing any earlier binding for userId. The
// superseded client is left open. A client that was already bound under a
// different id releases that binding first.
func (r *Registry) identify(c *Client, userId string) {
	if c.identified && c.userId != userId {
		r.remove(c)
	}

	c.userId = userId
	c.identified = true
	r.users[userId] = c
}

func (r *Registry) lookup(userId string) *Client {
	return r.users[userId]
}

// remove drops the binding for c's user id only while it still points at c,
// so a stale connection closing late cannot evict its replacement.
func (r *Registry) remove(c *Client) {
	if !c.identified {
		return
	}

	if cur, ok := r.users[c.userId]; ok && cur == c {
		delete(r.users, c.userId)
	}
}

func (r *Registry) len() int {
	return len(r.users)
}
