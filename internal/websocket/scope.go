package websocket

import "github.com/google/uuid"

// Scope decides which customers' events a connection receives. Back-office
// connections see everything; agents see their assigned customers; a
// customer connection sees only itself.
type Scope struct {
	all       bool
	customers map[uuid.UUID]bool
}

// ScopeAll grants visibility of every customer's events.
func ScopeAll() Scope {
	return Scope{all: true}
}

// ScopeCustomers grants visibility of the given customers only.
func ScopeCustomers(ids ...uuid.UUID) Scope {
	customers := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		customers[id] = true
	}
	return Scope{customers: customers}
}

// Covers reports whether events about the customer are visible.
func (s Scope) Covers(customerID uuid.UUID) bool {
	return s.all || s.customers[customerID]
}
