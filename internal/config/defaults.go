package config

var defaults = map[string]any{
	"secret":    "",
	"log_level": "info",
	"listen":    ":8080",

	"allowed_networks": "",

	"base_url":     "http://localhost:8080",
	"frontend_url": "",

	"session.ttl":   8, // hours
	"session.store": "memory",

	"attendance.confirmation_window": "15m",
	"attendance.invite_ttl":          "0s",

	"notify.timeout":                   "10s",
	"notify.parallelism":               4,
	"notify.rate":                      5.0,
	"notify.burst":                     5,
	"notify.breaker.failure_threshold": 5,
	"notify.breaker.timeout":           "30s",
	"notify.dry_run":                   false,

	"rbac.policy_file": "",

	"email.host":       "host.docker.internal",
	"email.port":       25,
	"email.username":   "",
	"email.password":   "",
	"email.from":       "noreply@example.com",
	"email.tls_policy": "opportunistic",

	"storage.local.path": "./data/attendance.db",
}

func Defaults() map[string]any {
	values := make(map[string]any)
	for k, v := range defaults {
		values[k] = v
	}
	return values
}
