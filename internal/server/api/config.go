package api

import "time"

// ServerConfig configures the API listener.
type ServerConfig struct {
	Addr        string        `help:"API server listen address" default:":3243" env:"KEYBRIDGE_API_ADDR"`
	Password    string        `help:"API password; empty generates one on first run and stores it in the config dir" env:"KEYBRIDGE_API_PASSWORD"`
	RequireAuth bool          `help:"Reject connections that skip the password handshake" default:"false" env:"KEYBRIDGE_API_REQUIRE_AUTH"`
	IdleTimeout time.Duration `help:"Close request connections that send nothing for this long" default:"10s" env:"KEYBRIDGE_API_IDLE_TIMEOUT"`
}
