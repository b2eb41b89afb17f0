package routing

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// DefaultPrefix is the sentinel used when no country prefix matches.
const DefaultPrefix = "default"

// knownPrefixes is ordered longest first so that 1809/1829/1849 win over 1
// and 52x country codes win over generic matches.
var knownPrefixes = []string{
	"1809", "1829", "1849", // Dominican Republic
	"593", // Ecuador
	"591", // Bolivia
	"595", // Paraguay
	"598", // Uruguay
	"502", // Guatemala
	"503", // El Salvador
	"504", // Honduras
	"505", // Nicaragua
	"506", // Costa Rica
	"507", // Panamá
	"52",  // México
	"57",  // Colombia
	"54",  // Argentina
	"58",  // Venezuela
	"51",  // Perú
	"56",  // Chile
	"1",   // United States
}

// ResolvePrefix maps a raw phone number to its country prefix. Non-digit
// characters are stripped before matching. Unmatched numbers resolve to
// DefaultPrefix.
func ResolvePrefix(phone string) string {
	digits := digitsOnly(phone)
	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(digits, prefix) {
			return prefix
		}
	}
	return DefaultPrefix
}

// Route describes the destination channel for one country prefix.
type Route struct {
	Country   string `json:"nombre"`
	ChannelID string `json:"grupo_id"`
}

type routesFile struct {
	Groups map[string]Route `json:"grupos"`
}

// Table holds the prefix to channel routing table. The table is reloadable
// because an out-of-band channel discovery process rewrites the file.
type Table struct {
	mu     sync.RWMutex
	routes map[string]Route
}

// NewTable builds a table from an in-memory route map.
func NewTable(routes map[string]Route) *Table {
	if routes == nil {
		routes = make(map[string]Route)
	}
	return &Table{routes: routes}
}

// LoadTable reads the routing table from a JSON file.
func LoadTable(path string) (*Table, error) {
	t := NewTable(nil)
	if err := t.Reload(path); err != nil {
		return nil, err
	}
	return t, nil
}

// Reload replaces the table contents from the JSON file at path.
func (t *Table) Reload(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read routes file: %w", err)
	}
	var parsed routesFile
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("parse routes file: %w", err)
	}
	t.mu.Lock()
	t.routes = parsed.Groups
	t.mu.Unlock()
	return nil
}

// Route returns the destination for a prefix, falling back to the default
// route entry when the prefix has no channel of its own.
func (t *Table) Route(prefix string) (Route, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if route, ok := t.routes[prefix]; ok && route.ChannelID != "" {
		return route, true
	}
	route, ok := t.routes[DefaultPrefix]
	return route, ok
}

// Snapshot copies the current route map for diagnostics.
func (t *Table) Snapshot() map[string]Route {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Route, len(t.routes))
	for k, v := range t.routes {
		out[k] = v
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
