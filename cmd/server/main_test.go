package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSwaggerURL(t *testing.T) {
	tests := []struct {
		name string
		host string
		port string
		want string
	}{
		{name: "no host uses listener port", host: "", port: "8080", want: "http://localhost:8080/swagger/index.html"},
		{name: "custom port", host: "", port: "9090", want: "http://localhost:9090/swagger/index.html"},
		{name: "bare host", host: "api.fest.io", port: "8080", want: "http://api.fest.io/swagger/index.html"},
		{name: "https host", host: "https://api.fest.io", port: "8080", want: "https://api.fest.io/swagger/index.html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, swaggerURL(tt.host, tt.port))
		})
	}
}
