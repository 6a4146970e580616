package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/adversalio/sdk/pkg/compress"
	"github.com/adversalio/sdk/pkg/core"
	"github.com/adversalio/sdk/pkg/errors"
	"github.com/adversalio/sdk/pkg/metrics"
	"github.com/adversalio/sdk/pkg/options"
	"github.com/adversalio/sdk/pkg/rts"
)

// pushReportMethod is the platform's report ingestion RPC.
const pushReportMethod = "/adversal.v1.ReportService/PushReport"

// rawCodec passes pre-encoded byte payloads through the gRPC framing layer.
// Report bodies are zstd-compressed JSON, the same body the HTTP push path
// sends, so the platform shares one decoder for both transports.
type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	b, ok := v.(*[]byte)
	if !ok {
		return nil, fmt.Errorf("rawCodec: expected *[]byte, got %T", v)
	}
	return *b, nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	b, ok := v.(*[]byte)
	if !ok {
		return fmt.Errorf("rawCodec: expected *[]byte, got %T", v)
	}
	*b = data
	return nil
}

func (rawCodec) Name() string { return "raw" }

// Pusher uploads scan reports over gRPC instead of HTTPS. Auth metadata and
// connection lifecycle come from Transport; the payload matches the HTTP
// client's byte for byte.
type Pusher struct {
	transport  *Transport
	config     *options.GRPCConfig
	compressor *compress.Compressor
	logger     core.Logger
	collector  metrics.Collector
}

// NewPusher creates a gRPC platform pusher.
func NewPusher(opts ...options.GRPCOption) (*Pusher, error) {
	cfg := options.DefaultGRPCConfig()
	options.ApplyGRPCOptions(cfg, opts...)

	if cfg.Address == "" {
		return nil, errors.E(errors.KindConfiguration, "grpc.NewPusher", "server address is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.E(errors.KindConfiguration, "grpc.NewPusher", "API key is required")
	}

	return &Pusher{
		transport:  newTransport(cfg),
		config:     cfg,
		compressor: compress.DefaultZSTD,
		logger:     core.LoggerFromVerbose("grpc", cfg.Verbose),
		collector:  metrics.GetDefaultCollector(),
	}, nil
}

// pushReply is the platform's response to a report upload.
type pushReply struct {
	ReportID     string `json:"report_id"`
	CasesCreated int    `json:"cases_created"`
	Message      string `json:"message,omitempty"`
}

// PushReport uploads a scan report.
func (p *Pusher) PushReport(ctx context.Context, report *rts.Report) (*core.PushResult, error) {
	const op = "grpc.PushReport"

	if err := p.transport.Connect(ctx); err != nil {
		return nil, errors.E(errors.KindNetwork, op, "connect", err)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "marshal report", err)
	}
	body, err := p.compressor.Compress(payload)
	if err != nil {
		return nil, errors.E(errors.KindInternal, op, "compress report", err)
	}
	p.logger.Debug("pushing report %s: %d bytes (%d uncompressed)", report.ID, len(body), len(payload))

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	var respBytes []byte
	err = p.transport.Conn().Invoke(ctx, pushReportMethod, &body, &respBytes, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		p.collector.CounterInc(metrics.PusherPushesTotal.Name, "status", "failed")
		return nil, p.wrapStatus(op, err)
	}
	p.collector.CounterInc(metrics.PusherPushesTotal.Name, "status", "success")

	var parsed pushReply
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, errors.E(errors.KindNetwork, op, "decode response", err)
	}

	return &core.PushResult{
		Success:      true,
		Message:      parsed.Message,
		ReportID:     parsed.ReportID,
		CasesCreated: parsed.CasesCreated,
	}, nil
}

// TestConnection checks the server's standard gRPC health service.
func (p *Pusher) TestConnection(ctx context.Context) error {
	const op = "grpc.TestConnection"

	if err := p.transport.Connect(ctx); err != nil {
		return errors.E(errors.KindNetwork, op, "connect", err)
	}
	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}
	if _, err := healthpb.NewHealthClient(p.transport.Conn()).Check(ctx, &healthpb.HealthCheckRequest{}); err != nil {
		return p.wrapStatus(op, err)
	}
	return nil
}

// Close tears down the underlying connection.
func (p *Pusher) Close() error {
	return p.transport.Close()
}

// wrapStatus maps gRPC status codes onto the error taxonomy the HTTP client
// uses for the equivalent HTTP statuses.
func (p *Pusher) wrapStatus(op string, err error) error {
	switch status.Code(err) {
	case codes.Unauthenticated, codes.PermissionDenied:
		return errors.E(errors.KindConfiguration, op, "authentication rejected", err)
	case codes.DeadlineExceeded, codes.Canceled:
		return errors.E(errors.KindTimeout, op, "rpc deadline exceeded", err)
	default:
		return errors.E(errors.KindNetwork, op, "rpc failed", err)
	}
}

// Ensure Pusher implements core.Pusher
var _ core.Pusher = (*Pusher)(nil)
