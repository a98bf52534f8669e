package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindUserConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  string
		want string
	}{
		{name: "none"},
		{name: "equals", args: []string{"server", "--config=/tmp/a.yaml"}, want: "/tmp/a.yaml"},
		{name: "separate", args: []string{"--config", "b.toml", "server"}, want: "b.toml"},
		{name: "dangling flag", args: []string{"--config"}},
		{name: "env", env: "/etc/keybridge/server.json", want: "/etc/keybridge/server.json"},
		{name: "flag beats env", args: []string{"--config=x.json"}, env: "y.json", want: "x.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("KEYBRIDGE_CONFIG", tt.env)
			assert.Equal(t, tt.want, findUserConfig(tt.args))
		})
	}
}
