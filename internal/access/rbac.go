// Package access decides what an authenticated role may do.
package access

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed policy.yaml
var defaultPolicy []byte

type Permission struct {
	Resource string   `yaml:"resource"`
	Actions  []string `yaml:"actions"`
}

type Role struct {
	Description string       `yaml:"description"`
	Permissions []Permission `yaml:"permissions"`
}

type RBACPolicy struct {
	DefaultRole string              `yaml:"default_role"`
	Roles       map[string]Role     `yaml:"roles"`
	Inheritance map[string][]string `yaml:"inheritance"`
}

type RBAC struct {
	policy *RBACPolicy
	mu     sync.RWMutex
	cache  map[string]bool // "role|resource:action" -> allowed
}

func NewRBAC() *RBAC {
	return &RBAC{cache: make(map[string]bool)}
}

// LoadPolicy loads the policy from a YAML file, or the built-in policy when
// path is empty.
func (r *RBAC) LoadPolicy(path string) error {
	data := defaultPolicy
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read policy file: %w", err)
		}
	}
	return r.ParsePolicy(data)
}

func (r *RBAC) ParsePolicy(data []byte) error {
	var policy RBACPolicy
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("failed to parse policy file: %w", err)
	}
	if len(policy.Roles) == 0 {
		return fmt.Errorf("policy defines no roles")
	}

	r.mu.Lock()
	r.policy = &policy
	r.cache = make(map[string]bool)
	r.mu.Unlock()

	slog.Info("RBAC policy loaded", "roles", len(policy.Roles))
	return nil
}

// Roles returns role together with every role it inherits.
func (r *RBAC) Roles(role string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.expand(role)
}

func (r *RBAC) expand(role string) []string {
	if role == "" && r.policy != nil {
		role = r.policy.DefaultRole
	}
	if role == "" {
		return []string{}
	}

	all := map[string]bool{role: true}
	r.addInheritedRoles(role, all)

	result := make([]string, 0, len(all))
	for name := range all {
		result = append(result, name)
	}
	return result
}

// addInheritedRoles recursively adds inherited roles
func (r *RBAC) addInheritedRoles(role string, roles map[string]bool) {
	if r.policy == nil || r.policy.Inheritance == nil {
		return
	}
	for _, inheritedRole := range r.policy.Inheritance[role] {
		if !roles[inheritedRole] {
			roles[inheritedRole] = true
			r.addInheritedRoles(inheritedRole, roles)
		}
	}
}

// Can checks if a role can perform an action on a resource
func (r *RBAC) Can(role, resource, action string) bool {
	cacheKey := role + "|" + resource + ":" + action

	r.mu.RLock()
	if r.policy == nil {
		r.mu.RUnlock()
		slog.Warn("RBAC policy not loaded")
		return false
	}
	if allowed, found := r.cache[cacheKey]; found {
		r.mu.RUnlock()
		return allowed
	}
	allowed := r.evaluate(role, resource, action)
	r.mu.RUnlock()

	r.mu.Lock()
	r.cache[cacheKey] = allowed
	r.mu.Unlock()
	return allowed
}

func (r *RBAC) evaluate(role, resource, action string) bool {
	for _, roleName := range r.expand(role) {
		def, exists := r.policy.Roles[roleName]
		if !exists {
			continue
		}
		for _, perm := range def.Permissions {
			if perm.Resource != "*" && perm.Resource != resource {
				continue
			}
			for _, act := range perm.Actions {
				if act == "*" || act == action {
					return true
				}
			}
		}
	}
	return false
}
