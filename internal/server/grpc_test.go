package server

import (
	"context"
	"encoding/base64"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

func dialBufconn(t *testing.T, deps Deps) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs, _ := NewGRPCServer(deps)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	st, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatal(err)
	}
	return st
}

func extracted(st *structpb.Struct) map[string]any {
	return st.AsMap()["extractedData"].(map[string]any)
}

func TestGRPC_ClassifyText(t *testing.T) {
	client := NewClaimsClient(dialBufconn(t, newDeps(t, true)))
	ctx := context.Background()

	out, err := client.ClassifyText(ctx, mustStruct(t, map[string]any{"text": cleanClaimText}))
	if err != nil {
		t.Fatal(err)
	}
	data := extracted(out)
	if data["fraudStatus"] != "clean" || data["claimId"] != "CLM12345" || data["amount"] != float64(12000) {
		t.Errorf("unexpected extracted data %v", data)
	}
	if out.AsMap()["persisted"] != true {
		t.Error("expected claim to be stored")
	}

	_, err = client.ClassifyText(ctx, mustStruct(t, map[string]any{"text": "  "}))
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for blank text, got %v", err)
	}
}

func TestGRPC_ClassifyDocument(t *testing.T) {
	client := NewClaimsClient(dialBufconn(t, newDeps(t, false)))
	ctx := context.Background()

	out, err := client.ClassifyDocument(ctx, mustStruct(t, map[string]any{
		"filename":       "claim.pdf",
		"content_base64": base64.StdEncoding.EncodeToString([]byte(cleanClaimText)),
	}))
	if err != nil {
		t.Fatal(err)
	}
	if extracted(out)["hospital"] != "City Care" {
		t.Errorf("unexpected result %v", out.AsMap())
	}

	tests := []map[string]any{
		{"content_base64": ""},
		{"filename": "claim.pdf", "content_base64": "%%%"},
		{"filename": "claim.exe", "content_base64": base64.StdEncoding.EncodeToString([]byte(cleanClaimText))},
	}
	for _, req := range tests {
		if _, err := client.ClassifyDocument(ctx, mustStruct(t, req)); status.Code(err) != codes.InvalidArgument {
			t.Errorf("%v: expected InvalidArgument, got %v", req, err)
		}
	}
}

func TestGRPC_Health(t *testing.T) {
	conn := dialBufconn(t, newDeps(t, false))
	ctx := context.Background()

	out, err := NewClaimsClient(conn).Health(ctx, &structpb.Struct{})
	if err != nil {
		t.Fatal(err)
	}
	m := out.AsMap()
	if m["hospitals_count"] != float64(2) || m["diseases_count"] != float64(1) {
		t.Errorf("unexpected health %v", m)
	}

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: claimsServiceName})
	if err != nil {
		t.Fatal(err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING, got %v", resp.GetStatus())
	}
}

func TestGRPC_ReflectionListsOnlyDescribableServices(t *testing.T) {
	conn := dialBufconn(t, newDeps(t, false))
	stream, err := reflectionpb.NewServerReflectionClient(conn).ServerReflectionInfo(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = stream.CloseSend() }()

	ask := func(req *reflectionpb.ServerReflectionRequest) *reflectionpb.ServerReflectionResponse {
		t.Helper()
		if err := stream.Send(req); err != nil {
			t.Fatal(err)
		}
		resp, err := stream.Recv()
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	list := ask(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{ListServices: "*"},
	})
	var names []string
	for _, svc := range list.GetListServicesResponse().GetService() {
		names = append(names, svc.GetName())
	}
	if len(names) == 0 {
		t.Fatal("expected advertised services")
	}
	for _, name := range names {
		if name == claimsServiceName {
			t.Errorf("%s has no descriptor and must not be advertised", name)
			continue
		}
		resp := ask(&reflectionpb.ServerReflectionRequest{
			MessageRequest: &reflectionpb.ServerReflectionRequest_FileContainingSymbol{FileContainingSymbol: name},
		})
		if e := resp.GetErrorResponse(); e != nil {
			t.Errorf("describe %s: %s", name, e.GetErrorMessage())
		}
	}

	// the service itself still answers
	if _, err := NewClaimsClient(conn).Health(context.Background(), &structpb.Struct{}); err != nil {
		t.Errorf("health call: %v", err)
	}
}
