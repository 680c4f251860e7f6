package server

import (
	"github.com/dpup/currenturl"
)

const (
	defaultHost          = "localhost"
	defaultPort          = 8000
	defaultGatewayPrefix = "/v1/"
)

func init() {
	currenturl.RegisterConfigKeys(
		currenturl.ConfigKeyInfo{
			Key:         "server.host",
			Description: "Host to bind the server to",
			Type:        "string",
			Default:     defaultHost,
		},
		currenturl.ConfigKeyInfo{
			Key:         "server.port",
			Description: "Port to bind the server to",
			Type:        "int",
			Default:     defaultPort,
		},
		currenturl.ConfigKeyInfo{
			Key:         "server.gatewayPrefix",
			Description: "Path prefix the GRPC Gateway is mounted at",
			Type:        "string",
			Default:     defaultGatewayPrefix,
		},
		currenturl.ConfigKeyInfo{
			Key:         "server.incomingHeaders",
			Description: "Safe-list of headers to forward to GRPC services, x-url is always forwarded",
			Type:        "[]string",
		},
		currenturl.ConfigKeyInfo{
			Key:         "server.maxMsgSizeBytes",
			Description: "Maximum GRPC message size in bytes",
			Type:        "int",
		},
		currenturl.ConfigKeyInfo{
			Key:         "server.tls.certFile",
			Description: "Path to TLS certificate file",
			Type:        "string",
		},
		currenturl.ConfigKeyInfo{
			Key:         "server.tls.keyFile",
			Description: "Path to TLS key file",
			Type:        "string",
		},
	)
}
