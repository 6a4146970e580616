// Package grpc provides a gRPC transport layer for streaming scan results to
// the Adversal platform. It handles connection lifecycle, TLS, keepalive, and
// per-call authentication metadata; services are bound on the returned
// connection by the caller.
package grpc

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/options"
)

// Transport provides gRPC connectivity for the SDK client.
type Transport struct {
	conn   *grpc.ClientConn
	config *options.GRPCConfig
	logger core.Logger
	mu     sync.RWMutex
}

// NewTransport creates a new gRPC transport.
func NewTransport(opts ...options.GRPCOption) *Transport {
	cfg := options.DefaultGRPCConfig()
	options.ApplyGRPCOptions(cfg, opts...)
	return newTransport(cfg)
}

func newTransport(cfg *options.GRPCConfig) *Transport {
	return &Transport{
		config: cfg,
		logger: core.LoggerFromVerbose("grpc", cfg.Verbose),
	}
}

// Connect establishes the gRPC connection.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil // Already connected
	}

	opts := []grpc.DialOption{
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(t.config.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(t.config.MaxSendMsgSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                t.config.KeepAliveTime,
			Timeout:             t.config.KeepAliveTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithUnaryInterceptor(t.authInterceptor()),
		grpc.WithStreamInterceptor(t.streamAuthInterceptor()),
	}

	// TLS configuration
	if t.config.UseTLS {
		tlsConfig := &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: t.config.InsecureSkipVerify, //nolint:gosec // Intentional for dev environments
		}
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	t.logger.Debug("connecting to %s (TLS: %v)", t.config.Address, t.config.UseTLS)

	//nolint:staticcheck // Using DialContext for backward compatibility until fully migrated to NewClient
	conn, err := grpc.DialContext(ctx, t.config.Address, opts...)
	if err != nil {
		return fmt.Errorf("grpc dial: %w", err)
	}

	t.conn = conn
	t.logger.Debug("connected to %s", t.config.Address)
	return nil
}

// Close closes the gRPC connection.
func (t *Transport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}

	err := t.conn.Close()
	t.conn = nil
	t.logger.Debug("connection closed")
	return err
}

// Conn returns the underlying gRPC connection.
func (t *Transport) Conn() *grpc.ClientConn {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn
}

// IsConnected returns true if connected.
func (t *Transport) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn != nil
}

// authInterceptor adds authentication metadata to unary calls.
func (t *Transport) authInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{},
		cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx = t.addAuthMetadata(ctx)
		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// streamAuthInterceptor adds authentication metadata to streaming calls.
func (t *Transport) streamAuthInterceptor() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn,
		method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		ctx = t.addAuthMetadata(ctx)
		return streamer(ctx, desc, cc, method, opts...)
	}
}

// addAuthMetadata adds authentication headers to context.
func (t *Transport) addAuthMetadata(ctx context.Context) context.Context {
	md := metadata.New(map[string]string{
		"authorization": "Bearer " + t.config.APIKey,
	})
	if t.config.AgentID != "" {
		md.Set("x-agent-id", t.config.AgentID)
	}
	return metadata.NewOutgoingContext(ctx, md)
}
