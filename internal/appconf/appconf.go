// Package appconf holds application-level configuration shared across the
// server, handlers, and middleware.
package appconf

// Environment describes the runtime environment of the application.
type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// String returns the lowercase name of the environment.
func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}

// EnvFlagToEnvironment maps a --env flag value onto an Environment.
// Unknown values fall back to development.
func EnvFlagToEnvironment(flag string) Environment {
	switch flag {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Config holds the HTTP-facing application configuration.
type Config struct {
	Port      int
	Env       Environment
	ApiKeys   []string
	RateLimit int
	Verbose   bool
}
