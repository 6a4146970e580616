package grpc

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthsvc "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/adversalio/sdk/pkg/compress"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/rts"
)

type capturedMD struct {
	mu sync.Mutex
	md metadata.MD
}

func (c *capturedMD) get(key string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.md.Get(key)
}

// startHealthServer runs a gRPC server with the standard health service and
// records the metadata of the last call.
func startHealthServer(t *testing.T, reject error) (string, *capturedMD) {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	captured := &capturedMD{}
	srv := grpc.NewServer(grpc.UnaryInterceptor(
		func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			if md, ok := metadata.FromIncomingContext(ctx); ok {
				captured.mu.Lock()
				captured.md = md
				captured.mu.Unlock()
			}
			if reject != nil {
				return nil, reject
			}
			return handler(ctx, req)
		}))
	healthpb.RegisterHealthServer(srv, healthsvc.NewServer())

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return lis.Addr().String(), captured
}

// startReportServer runs a gRPC server exposing only the raw report
// ingestion method.
func startReportServer(t *testing.T, handle func(body []byte) []byte) string {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	srv := grpc.NewServer(grpc.ForceServerCodec(rawCodec{}))
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: "adversal.v1.ReportService",
		HandlerType: (*interface{})(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "PushReport",
			Handler: func(_ interface{}, ctx context.Context, dec func(interface{}) error, _ grpc.UnaryServerInterceptor) (interface{}, error) {
				var body []byte
				if err := dec(&body); err != nil {
					return nil, err
				}
				resp := handle(body)
				return &resp, nil
			},
		}},
	}, struct{}{})

	go srv.Serve(lis)
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func testPusher(t *testing.T, addr string) *Pusher {
	t.Helper()
	p, err := NewPusher(
		options.WithGRPCAddress(addr),
		options.WithGRPCAPIKey("test-key"),
		options.WithGRPCAgentID("agent-1"),
		options.WithGRPCTLS(false, false),
		options.WithGRPCTimeout(5*time.Second),
	)
	if err != nil {
		t.Fatalf("NewPusher() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestTransport_ConnectClose(t *testing.T) {
	addr, _ := startHealthServer(t, nil)
	tr := NewTransport(
		options.WithGRPCAddress(addr),
		options.WithGRPCTLS(false, false),
	)

	if err := tr.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !tr.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if tr.Conn() == nil {
		t.Error("Conn() = nil after Connect")
	}
	if err := tr.Connect(context.Background()); err != nil {
		t.Errorf("second Connect() error = %v, want nil", err)
	}

	if err := tr.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if tr.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}
}

func TestPusher_TestConnection_SendsAuthMetadata(t *testing.T) {
	addr, captured := startHealthServer(t, nil)
	p := testPusher(t, addr)

	if err := p.TestConnection(context.Background()); err != nil {
		t.Fatalf("TestConnection() error = %v", err)
	}

	if got := captured.get("authorization"); len(got) != 1 || got[0] != "Bearer test-key" {
		t.Errorf("authorization metadata = %v, want [Bearer test-key]", got)
	}
	if got := captured.get("x-agent-id"); len(got) != 1 || got[0] != "agent-1" {
		t.Errorf("x-agent-id metadata = %v, want [agent-1]", got)
	}
}

func TestPusher_TestConnection_AuthRejected(t *testing.T) {
	addr, _ := startHealthServer(t, status.Error(codes.Unauthenticated, "bad key"))
	p := testPusher(t, addr)

	err := p.TestConnection(context.Background())
	if !errors.IsConfiguration(err) {
		t.Errorf("TestConnection() error = %v, want configuration error", err)
	}
}

func TestPusher_PushReport(t *testing.T) {
	received := make(chan []byte, 1)
	addr := startReportServer(t, func(body []byte) []byte {
		received <- body
		return []byte(`{"report_id":"r-123","cases_created":2,"message":"stored"}`)
	})
	p := testPusher(t, addr)

	report := rts.NewReport("target-x",
		[]rts.VulnerabilityCategory{rts.VulnBias},
		[]rts.AttackType{rts.AttackROT13})
	report.Finish()

	result, err := p.PushReport(context.Background(), report)
	if err != nil {
		t.Fatalf("PushReport() error = %v", err)
	}
	if result.ReportID != "r-123" {
		t.Errorf("ReportID = %q, want r-123", result.ReportID)
	}
	if result.CasesCreated != 2 {
		t.Errorf("CasesCreated = %d, want 2", result.CasesCreated)
	}

	// The wire payload is zstd-compressed report JSON, same as the HTTP path.
	body := <-received
	payload, err := compress.DefaultZSTD.Decompress(body)
	if err != nil {
		t.Fatalf("Decompress() error = %v", err)
	}
	var sent rts.Report
	if err := json.Unmarshal(payload, &sent); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if sent.TargetModel != "target-x" {
		t.Errorf("pushed TargetModel = %q, want target-x", sent.TargetModel)
	}
	if sent.ID != report.ID {
		t.Errorf("pushed ID = %q, want %q", sent.ID, report.ID)
	}
}

func TestPusher_PushReport_ServerUnavailable(t *testing.T) {
	// Nothing listens here; the RPC must fail with a network error, not hang.
	p := testPusher(t, "127.0.0.1:1")

	report := rts.NewReport("target-x",
		[]rts.VulnerabilityCategory{rts.VulnBias},
		[]rts.AttackType{rts.AttackROT13})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := p.PushReport(ctx, report); err == nil {
		t.Fatal("PushReport() should fail when no server is listening")
	}
}

func TestNewPusher_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts []options.GRPCOption
	}{
		{"missing address", []options.GRPCOption{
			options.WithGRPCAddress(""),
			options.WithGRPCAPIKey("k"),
		}},
		{"missing api key", []options.GRPCOption{
			options.WithGRPCAddress("localhost:9090"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewPusher(tt.opts...); !errors.IsConfiguration(err) {
				t.Errorf("NewPusher() error = %v, want configuration error", err)
			}
		})
	}
}
