package source

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the configured clients keyed by source name.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewRegistry returns an empty client registry.
func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

// Register adds a client. Registering a second client for the same source is
// a programming error and is rejected.
func (r *Registry) Register(client Client) error {
	if client == nil {
		return fmt.Errorf("register: nil client")
	}
	name := strings.ToLower(strings.TrimSpace(client.Source()))
	if name == "" {
		return fmt.Errorf("register: client has empty source name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.clients[name]; exists {
		return fmt.Errorf("register: source %q already registered", name)
	}
	r.clients[name] = client
	return nil
}

// Lookup returns the client for a source name.
func (r *Registry) Lookup(sourceName string) (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[strings.ToLower(strings.TrimSpace(sourceName))]
	return client, ok
}

// Sources returns the registered source names in sorted order.
func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
