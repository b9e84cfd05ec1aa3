package observability

import (
	"context"
	"net/http"
	"sort"
	"strings"
)

// HealthStatus is the state reported by a component or the whole service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDown     HealthStatus = "down"
	HealthStatusDegraded HealthStatus = "degraded"
)

// rank orders statuses from best to worst.
func (s HealthStatus) rank() int {
	switch s {
	case HealthStatusDown:
		return 2
	case HealthStatusDegraded:
		return 1
	default:
		return 0
	}
}

// Health is the report of a single component such as the key registry or
// the socket server.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ComponentUp returns an up report for name. Details may be nil.
func ComponentUp(name string, details map[string]string) Health {
	return Health{Name: name, Status: HealthStatusUp, Details: details}
}

// Degrade marks h degraded with msg. A down report stays down.
func (h Health) Degrade(msg string) Health {
	if h.Status == HealthStatusDown {
		return h
	}
	h.Status = HealthStatusDegraded
	h.Message = msg
	return h
}

// Fail marks h down with msg.
func (h Health) Fail(msg string) Health {
	h.Status = HealthStatusDown
	h.Message = msg
	return h
}

// MissingNames returns the entries of want that have(name) rejects, sorted
// and without duplicates.
func MissingNames(want []string, have func(string) bool) []string {
	seen := make(map[string]struct{}, len(want))
	var missing []string
	for _, name := range want {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if !have(name) {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}

// JoinNames renders names for a health message or detail value.
func JoinNames(names []string) string {
	return strings.Join(names, ",")
}

// ServiceHealth is the body served on the health endpoint.
type ServiceHealth struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// CollectHealth runs every checker and folds the reports into one
// ServiceHealth whose status is the worst component status.
func CollectHealth(ctx context.Context, service, version string, checkers ...HealthChecker) *ServiceHealth {
	sh := &ServiceHealth{Service: service, Status: HealthStatusUp, Version: version}
	for _, checker := range checkers {
		sh.AddComponent(checker.CheckHealth(ctx))
	}
	return sh
}

// AddComponent records ch and lowers the overall status when ch is worse.
func (sh *ServiceHealth) AddComponent(ch Health) {
	sh.Components = append(sh.Components, ch)
	if ch.Status.rank() > sh.Status.rank() {
		sh.Status = ch.Status
	}
}

// HTTPStatus maps the overall status to a reply code. Degraded still
// serves traffic so it answers 200.
func (sh *ServiceHealth) HTTPStatus() int {
	if sh.Status == HealthStatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}
