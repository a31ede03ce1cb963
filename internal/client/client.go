package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/dynamicpb"
)

// GRPCClient bundles a connection to a chain-data gRPC server with a
// reflection-backed descriptor resolver, so methods can be invoked by their
// fully-qualified name without generated stubs.
type GRPCClient struct {
	Conn     *grpc.ClientConn
	Resolver *Resolver
}

// Dial connects to a chain-data gRPC server. With insecureConn the
// connection is plaintext; otherwise TLS with system roots is used.
func Dial(address string, insecureConn bool) (*GRPCClient, error) {
	var creds credentials.TransportCredentials
	if insecureConn {
		creds = insecure.NewCredentials()
	} else {
		creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC client for %s: %w", address, err)
	}

	return &GRPCClient{
		Conn:     conn,
		Resolver: NewResolver(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *GRPCClient) Close() error {
	return c.Conn.Close()
}

// Invoke calls a unary method by its fully-qualified name
// (e.g. "tracker.chaindata.v1.Service.GetBody"). The request message is
// built from the JSON params and the response is returned as JSON.
func (c *GRPCClient) Invoke(ctx context.Context, methodFullName string, params []byte) ([]byte, error) {
	md, err := c.Resolver.FindMethod(ctx, methodFullName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve method %s: %w", methodFullName, err)
	}

	req := dynamicpb.NewMessage(md.Input())
	if len(params) > 0 {
		if err := protojson.Unmarshal(params, req); err != nil {
			return nil, fmt.Errorf("failed to build request for %s: %w", methodFullName, err)
		}
	}

	resp := dynamicpb.NewMessage(md.Output())
	fullMethod := fmt.Sprintf("/%s/%s", md.Parent().FullName(), md.Name())
	if err := c.Conn.Invoke(ctx, fullMethod, req, resp); err != nil {
		return nil, fmt.Errorf("gRPC call %s failed: %w", methodFullName, err)
	}

	out, err := protojson.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response of %s: %w", methodFullName, err)
	}
	return out, nil
}

// InvokeWithRetry retries Invoke with a linear backoff. maxRetries is the
// number of additional attempts after the first.
func (c *GRPCClient) InvokeWithRetry(ctx context.Context, methodFullName string, maxRetries uint, params []byte) ([]byte, error) {
	var lastErr error
	for attempt := uint(0); attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		out, err := c.Invoke(ctx, methodFullName, params)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("giving up after %d retries: %w", maxRetries, lastErr)
}
