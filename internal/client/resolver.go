package client

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/grpc"
	reflectpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Resolver resolves method descriptors through the server's reflection
// service, caching fetched file descriptors for the lifetime of the client.
type Resolver struct {
	reflection reflectpb.ServerReflectionClient

	mu    sync.Mutex
	files *protoregistry.Files
}

// NewResolver creates a resolver backed by the connection's reflection service.
func NewResolver(conn grpc.ClientConnInterface) *Resolver {
	return &Resolver{
		reflection: reflectpb.NewServerReflectionClient(conn),
		files:      new(protoregistry.Files),
	}
}

// FindMethod returns the descriptor for a fully-qualified method name,
// fetching the containing file from the server on first use.
func (r *Resolver) FindMethod(ctx context.Context, methodFullName string) (protoreflect.MethodDescriptor, error) {
	service, _, err := ParseMethodFullName(methodFullName)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if md, ok := r.lookupMethod(methodFullName); ok {
		return md, nil
	}

	if err := r.fetchFileContainingSymbol(ctx, service); err != nil {
		return nil, err
	}

	md, ok := r.lookupMethod(methodFullName)
	if !ok {
		return nil, fmt.Errorf("method %q not found on server", methodFullName)
	}
	return md, nil
}

func (r *Resolver) lookupMethod(methodFullName string) (protoreflect.MethodDescriptor, bool) {
	desc, err := r.files.FindDescriptorByName(protoreflect.FullName(methodFullName))
	if err != nil {
		return nil, false
	}
	md, ok := desc.(protoreflect.MethodDescriptor)
	return md, ok
}

// fetchFileContainingSymbol asks the reflection service for the file (plus
// transitive dependencies) declaring the symbol and registers the result.
func (r *Resolver) fetchFileContainingSymbol(ctx context.Context, symbol string) error {
	stream, err := r.reflection.ServerReflectionInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to open reflection stream: %w", err)
	}
	defer func() { _ = stream.CloseSend() }()

	req := &reflectpb.ServerReflectionRequest{
		MessageRequest: &reflectpb.ServerReflectionRequest_FileContainingSymbol{
			FileContainingSymbol: symbol,
		},
	}
	if err := stream.Send(req); err != nil {
		return fmt.Errorf("failed to send reflection request: %w", err)
	}

	resp, err := stream.Recv()
	if err != nil {
		return fmt.Errorf("failed to receive reflection response: %w", err)
	}

	fdResp := resp.GetFileDescriptorResponse()
	if fdResp == nil {
		if errResp := resp.GetErrorResponse(); errResp != nil {
			return fmt.Errorf("reflection lookup of %q failed: %s", symbol, errResp.GetErrorMessage())
		}
		return fmt.Errorf("unexpected reflection response for %q", symbol)
	}

	fdset := &descriptorpb.FileDescriptorSet{}
	for _, raw := range fdResp.GetFileDescriptorProto() {
		fdp := &descriptorpb.FileDescriptorProto{}
		if err := proto.Unmarshal(raw, fdp); err != nil {
			return fmt.Errorf("failed to unmarshal file descriptor: %w", err)
		}
		fdset.File = append(fdset.File, fdp)
	}

	files, err := protodesc.NewFiles(fdset)
	if err != nil {
		return fmt.Errorf("failed to build descriptors for %q: %w", symbol, err)
	}

	var registerErr error
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		if _, err := r.files.FindFileByPath(fd.Path()); err == nil {
			return true // already known
		}
		if err := r.files.RegisterFile(fd); err != nil {
			registerErr = fmt.Errorf("failed to register %s: %w", fd.Path(), err)
			return false
		}
		return true
	})
	return registerErr
}

// ParseMethodFullName splits a fully-qualified gRPC method name into its
// service and method parts.
func ParseMethodFullName(methodFullName string) (string, string, error) {
	if methodFullName == "" {
		return "", "", fmt.Errorf("method full name is empty")
	}

	lastDot := strings.LastIndex(methodFullName, ".")
	if lastDot == -1 {
		return "", "", fmt.Errorf("invalid method full name %q: no dot found", methodFullName)
	}

	service := methodFullName[:lastDot]
	method := methodFullName[lastDot+1:]
	if service == "" || method == "" {
		return "", "", fmt.Errorf("invalid method full name format: %q", methodFullName)
	}
	return service, method, nil
}
