package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/claims-tracker/internal/common"
)

const claimsServiceName = "claims.v1.ClaimsService"

// ClaimsServiceServer is the gRPC surface of the pipeline. Messages are
// google.protobuf.Struct so clients need no generated stubs:
//
//	ClassifyText      {"text", "source_name"}
//	ClassifyDocument  {"filename", "content_base64"}
//	Health            {}
type ClaimsServiceServer interface {
	ClassifyText(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClassifyDocument(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type ClaimsService struct {
	deps   Deps
	logger *slog.Logger
}

func NewClaimsService(deps Deps) *ClaimsService {
	return &ClaimsService{deps: deps, logger: deps.logger()}
}

func (s *ClaimsService) ClassifyText(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(req, "text")
	source := stringField(req, "source_name")
	if source == "" {
		source = "grpc"
	}
	out, err := s.deps.Processor.ClassifyText(ctx, text, source)
	if err != nil {
		s.logFailure("ClassifyText", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(toUploadResponse(out))
}

func (s *ClaimsService) ClassifyDocument(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := strings.TrimSpace(stringField(req, "filename"))
	if name == "" {
		return nil, common.InvalidArgumentError("filename is required")
	}
	data, err := base64.StdEncoding.DecodeString(stringField(req, "content_base64"))
	if err != nil {
		return nil, common.InvalidArgumentErrorf("content_base64 is not valid base64: %v", err)
	}
	out, err := s.deps.Processor.ProcessDocument(ctx, name, data)
	if err != nil {
		s.logFailure("ClassifyDocument", err)
		return nil, common.ToStatus(err)
	}
	return toStruct(toUploadResponse(out))
}

func (s *ClaimsService) Health(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.deps.health())
}

func (s *ClaimsService) logFailure(method string, err error) {
	if common.IsInputError(err) {
		s.logger.Warn("grpc.request.rejected", "method", method, "error", err)
		return
	}
	s.logger.Error("grpc.request.failed", "method", method, "error", err)
}

func stringField(st *structpb.Struct, key string) string {
	if st == nil {
		return ""
	}
	return st.GetFields()[key].GetStringValue()
}

// toStruct converts a JSON-tagged value into a Struct, keeping the JSON field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	st := &structpb.Struct{}
	if err := protojson.Unmarshal(b, st); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return st, nil
}

// requestIDInterceptor tags each call with an x-request-id from metadata, or a fresh one.
func requestIDInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-request-id"); len(ids) > 0 && ids[0] != "" {
			ctx = common.WithRequestID(ctx, ids[0])
		}
	}
	ctx, _ = common.EnsureRequestID(ctx)
	return handler(ctx, req)
}

// RegisterClaimsServiceServer registers srv on s.
func RegisterClaimsServiceServer(s grpc.ServiceRegistrar, srv ClaimsServiceServer) {
	s.RegisterService(&claimsServiceDesc, srv)
}

func unaryHandler(method string, call func(ClaimsServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ClaimsServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + claimsServiceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ClaimsServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var claimsServiceDesc = grpc.ServiceDesc{
	ServiceName: claimsServiceName,
	HandlerType: (*ClaimsServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("ClassifyText", ClaimsServiceServer.ClassifyText),
		unaryHandler("ClassifyDocument", ClaimsServiceServer.ClassifyDocument),
		unaryHandler("Health", ClaimsServiceServer.Health),
	},
	Streams: []grpc.StreamDesc{},
}

// ClaimsClient calls ClaimsService over an existing connection.
type ClaimsClient struct {
	cc grpc.ClientConnInterface
}

func NewClaimsClient(cc grpc.ClientConnInterface) *ClaimsClient {
	return &ClaimsClient{cc: cc}
}

func (c *ClaimsClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+claimsServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClaimsClient) ClassifyText(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ClassifyText", in, opts...)
}

func (c *ClaimsClient) ClassifyDocument(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ClassifyDocument", in, opts...)
}

func (c *ClaimsClient) Health(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "Health", in, opts...)
}

// describedServices hides ClaimsService from reflection: its messages are
// structpb.Struct and no file descriptor is registered for it.
type describedServices struct {
	*grpc.Server
}

func (s describedServices) GetServiceInfo() map[string]grpc.ServiceInfo {
	info := s.Server.GetServiceInfo()
	delete(info, claimsServiceName)
	return info
}

// NewGRPCServer builds a server with ClaimsService, the standard health
// service and reflection registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(requestIDInterceptor)}, opts...)
	gs := grpc.NewServer(opts...)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(claimsServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(describedServices{gs})
	RegisterClaimsServiceServer(gs, NewClaimsService(deps))
	return gs, hs
}
