package account

import "time"

// Config holds the authentication flow settings.
type Config struct {
	BasePath       string        `env:"ACCOUNT_BASE_PATH" envDefault:"/auth"`
	AfterLoginPath string        `env:"ACCOUNT_AFTER_LOGIN_PATH" envDefault:"/dashboard"`
	FlowTTL        time.Duration `env:"ACCOUNT_FLOW_TTL" envDefault:"30m"`
	FlowCookie     string        `env:"ACCOUNT_FLOW_COOKIE" envDefault:"auth_flow"`
	DeviceCookie   string        `env:"ACCOUNT_DEVICE_COOKIE" envDefault:"registry_device"`
	// DashboardURL is the absolute link used in the welcome email.
	DashboardURL string `env:"ACCOUNT_DASHBOARD_URL" envDefault:"http://localhost:8080/dashboard"`
	SupportEmail string `env:"SUPPORT_EMAIL" envDefault:"registry@metisnation.org"`
}

// DefaultConfig returns the envDefault values.
func DefaultConfig() Config {
	return Config{
		BasePath:       "/auth",
		AfterLoginPath: "/dashboard",
		FlowTTL:        30 * time.Minute,
		FlowCookie:     "auth_flow",
		DeviceCookie:   "registry_device",
		DashboardURL:   "http://localhost:8080/dashboard",
		SupportEmail:   "registry@metisnation.org",
	}
}
