package cart

// Registry keeps one cart per session ID. Callers serialize access.
type Registry struct {
	carts map[string]*Cart
}

func NewRegistry() *Registry {
	return &Registry{carts: make(map[string]*Cart)}
}

// For returns the cart of sessionID, creating it on first use.
func (r *Registry) For(sessionID string) *Cart {
	c, ok := r.carts[sessionID]
	if !ok {
		c = New()
		r.carts[sessionID] = c
	}
	return c
}

// Drop forgets the cart of sessionID.
func (r *Registry) Drop(sessionID string) {
	delete(r.carts, sessionID)
}
