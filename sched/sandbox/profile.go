// Package sandbox declares the restriction set a process can be admitted
// under. The scheduler enforces only the time budget; path, operation and
// network restrictions are carried here and checked by the resource-access
// layer sitting above the scheduler, which reports violations back for
// revocation.
//
// A nil *Profile means "unrestricted" and is the zero-cost default for
// ordinary processes.
package sandbox

import (
	"fmt"
	"strings"
)

// Profile is the restriction set of one sandboxed process. Profiles are
// immutable after admission.
//
//   - NetworkIsolated cuts all network access.
//   - PathAllowlist restricts filesystem access to the listed prefixes
//     (empty => all paths allowed).
//   - OperationAllowlist restricts privileged operations by name
//     (empty => all operations allowed).
//   - TimeBudget caps elapsed wall ticks since admission; 0 means unlimited.
type Profile struct {
	NetworkIsolated    bool     `yaml:"network_isolated"`
	PathAllowlist      []string `yaml:"path_allowlist,omitempty"`
	OperationAllowlist []string `yaml:"operation_allowlist,omitempty"`
	TimeBudget         int64    `yaml:"time_budget,omitempty"`
}

// Validate checks that the profile is well formed.
func (p *Profile) Validate() error {
	if p == nil {
		return nil
	}
	if p.TimeBudget < 0 {
		return fmt.Errorf("sandbox profile: time_budget must be >= 0, got %d", p.TimeBudget)
	}
	for _, path := range p.PathAllowlist {
		if path == "" {
			return fmt.Errorf("sandbox profile: empty path in allowlist")
		}
	}
	for _, op := range p.OperationAllowlist {
		if op == "" {
			return fmt.Errorf("sandbox profile: empty operation in allowlist")
		}
	}
	return nil
}

// AllowsPath evaluates the path allowlist by prefix containment: "/data"
// admits "/data/out.txt". An empty list allows every path.
func (p *Profile) AllowsPath(path string) bool {
	if p == nil || len(p.PathAllowlist) == 0 {
		return true
	}
	for _, prefix := range p.PathAllowlist {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// AllowsOperation evaluates the operation allowlist by exact,
// case-insensitive name match. An empty list allows every operation.
func (p *Profile) AllowsOperation(op string) bool {
	if p == nil || len(p.OperationAllowlist) == 0 {
		return true
	}
	normalized := strings.ToLower(op)
	for _, allowed := range p.OperationAllowlist {
		if normalized == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// HasBudget reports whether the profile caps elapsed wall time.
func (p *Profile) HasBudget() bool {
	return p != nil && p.TimeBudget > 0
}

// Exceeded reports whether elapsed wall ticks have gone past the budget.
// Profiles without a budget never report exceeded.
func (p *Profile) Exceeded(elapsedTicks int64) bool {
	return p.HasBudget() && elapsedTicks > p.TimeBudget
}
