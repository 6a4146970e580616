// Package options provides functional options pattern for SDK configuration.
// This follows AWS SDK, gRPC, and other industry-standard Go SDKs.
package options

import (
	"time"
)

// =============================================================================
// Scan Options
// =============================================================================

// ScanConfig holds the final scan configuration.
type ScanConfig struct {
	// Purpose describes the target system's intended role, e.g.
	// "customer support assistant for a bank". Used by the synthesizer
	// and the judge to ground prompts and verdicts.
	Purpose string

	// SystemPrompt is the target's system prompt, when known. Gray-box
	// attacks quote fragments of it.
	SystemPrompt string

	// CasesPerCategory is the number of goldens synthesized per category.
	CasesPerCategory int

	// Concurrency is the worker pool size. 1 means sequential execution.
	Concurrency int

	// CaseTimeout bounds a single case end to end.
	CaseTimeout time.Duration

	// TargetTimeout bounds a single target invocation.
	TargetTimeout time.Duration

	// MaxAttackIterations bounds evolution loops in model-assisted attacks.
	MaxAttackIterations int

	// TreeBranching and TreeDepth bound the tree jailbreak search.
	TreeBranching int
	TreeDepth     int

	// Seed, when nonzero, shuffles case execution order reproducibly.
	// Zero keeps enumeration order.
	Seed int64

	Verbose bool
}

// ScanOption is a function that configures a scan.
type ScanOption func(*ScanConfig)

// DefaultScanConfig returns default scan configuration.
func DefaultScanConfig() *ScanConfig {
	return &ScanConfig{
		CasesPerCategory:    5,
		Concurrency:         4,
		CaseTimeout:         5 * time.Minute,
		TargetTimeout:       60 * time.Second,
		MaxAttackIterations: 5,
		TreeBranching:       3,
		TreeDepth:           3,
	}
}

// ApplyScanOptions applies options to config.
func ApplyScanOptions(cfg *ScanConfig, opts ...ScanOption) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithPurpose sets the target system's purpose description.
func WithPurpose(purpose string) ScanOption {
	return func(c *ScanConfig) {
		c.Purpose = purpose
	}
}

// WithSystemPrompt sets the target's known system prompt.
func WithSystemPrompt(prompt string) ScanOption {
	return func(c *ScanConfig) {
		c.SystemPrompt = prompt
	}
}

// WithCasesPerCategory sets the goldens synthesized per category.
func WithCasesPerCategory(n int) ScanOption {
	return func(c *ScanConfig) {
		c.CasesPerCategory = n
	}
}

// WithConcurrency sets the worker pool size. 1 disables the pool.
func WithConcurrency(n int) ScanOption {
	return func(c *ScanConfig) {
		c.Concurrency = n
	}
}

// WithCaseTimeout sets the per-case timeout.
func WithCaseTimeout(d time.Duration) ScanOption {
	return func(c *ScanConfig) {
		c.CaseTimeout = d
	}
}

// WithTargetTimeout sets the per-invocation timeout.
func WithTargetTimeout(d time.Duration) ScanOption {
	return func(c *ScanConfig) {
		c.TargetTimeout = d
	}
}

// WithMaxAttackIterations sets the evolution budget for iterative attacks.
func WithMaxAttackIterations(n int) ScanOption {
	return func(c *ScanConfig) {
		c.MaxAttackIterations = n
	}
}

// WithTreeSearch sets the branching factor and depth budget for the
// tree jailbreak.
func WithTreeSearch(branching, depth int) ScanOption {
	return func(c *ScanConfig) {
		c.TreeBranching = branching
		c.TreeDepth = depth
	}
}

// WithSeed sets the execution-order shuffle seed.
func WithSeed(seed int64) ScanOption {
	return func(c *ScanConfig) {
		c.Seed = seed
	}
}

// WithVerbose enables verbose logging.
func WithVerbose(v bool) ScanOption {
	return func(c *ScanConfig) {
		c.Verbose = v
	}
}

// =============================================================================
// Model Options
// =============================================================================

// ModelConfig holds configuration for an HTTP model backend.
type ModelConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	RateLimit   int // requests per second, 0 = unlimited
	BurstLimit  int
	Verbose     bool
}

// ModelOption is a function that configures a model backend.
type ModelOption func(*ModelConfig)

// DefaultModelConfig returns default model configuration.
func DefaultModelConfig() *ModelConfig {
	return &ModelConfig{
		Temperature: 1.0,
		MaxTokens:   2048,
		Timeout:     60 * time.Second,
		BurstLimit:  5,
	}
}

// ApplyModelOptions applies options to config.
func ApplyModelOptions(cfg *ModelConfig, opts ...ModelOption) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithModelBaseURL sets the API base URL.
func WithModelBaseURL(url string) ModelOption {
	return func(c *ModelConfig) {
		c.BaseURL = url
	}
}

// WithModelAPIKey sets the API key.
func WithModelAPIKey(key string) ModelOption {
	return func(c *ModelConfig) {
		c.APIKey = key
	}
}

// WithModelName sets the model identifier.
func WithModelName(name string) ModelOption {
	return func(c *ModelConfig) {
		c.Model = name
	}
}

// WithModelTemperature sets the sampling temperature.
func WithModelTemperature(t float64) ModelOption {
	return func(c *ModelConfig) {
		c.Temperature = t
	}
}

// WithModelMaxTokens sets the completion token cap.
func WithModelMaxTokens(n int) ModelOption {
	return func(c *ModelConfig) {
		c.MaxTokens = n
	}
}

// WithModelTimeout sets the request timeout.
func WithModelTimeout(d time.Duration) ModelOption {
	return func(c *ModelConfig) {
		c.Timeout = d
	}
}

// WithModelRateLimit sets rate limiting.
func WithModelRateLimit(rps int, burst int) ModelOption {
	return func(c *ModelConfig) {
		c.RateLimit = rps
		c.BurstLimit = burst
	}
}

// =============================================================================
// Client Options
// =============================================================================

// ClientConfig holds the platform client configuration.
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	AgentID    string // Agent ID for tracking which agent is pushing
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Compress   bool
	Verbose    bool
}

// ClientOption is a function that configures the client.
type ClientOption func(*ClientConfig)

// DefaultClientConfig returns default client configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Compress:   true,
	}
}

// ApplyClientOptions applies options to config.
func ApplyClientOptions(cfg *ClientConfig, opts ...ClientOption) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = url
	}
}

// WithAPIKey sets the API key.
func WithAPIKey(key string) ClientOption {
	return func(c *ClientConfig) {
		c.APIKey = key
	}
}

// WithAgentID sets the agent ID for tracking which agent is pushing data.
func WithAgentID(id string) ClientOption {
	return func(c *ClientConfig) {
		c.AgentID = id
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = d
	}
}

// WithRetry sets retry configuration.
func WithRetry(maxRetries int, retryDelay time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.MaxRetries = maxRetries
		c.RetryDelay = retryDelay
	}
}

// WithCompression enables or disables request body compression.
func WithCompression(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.Compress = enabled
	}
}

// WithClientVerbose enables verbose logging.
func WithClientVerbose(v bool) ClientOption {
	return func(c *ClientConfig) {
		c.Verbose = v
	}
}

// =============================================================================
// gRPC Options
// =============================================================================

// GRPCConfig holds gRPC transport configuration.
type GRPCConfig struct {
	Address            string
	APIKey             string
	AgentID            string
	UseTLS             bool
	InsecureSkipVerify bool
	CertFile           string
	Timeout            time.Duration
	KeepAliveTime      time.Duration
	KeepAliveTimeout   time.Duration
	MaxRecvMsgSize     int
	MaxSendMsgSize     int
	Verbose            bool
}

// GRPCOption is a function that configures gRPC transport.
type GRPCOption func(*GRPCConfig)

// DefaultGRPCConfig returns default gRPC configuration.
func DefaultGRPCConfig() *GRPCConfig {
	return &GRPCConfig{
		Address:          "localhost:9090",
		UseTLS:           true,
		Timeout:          30 * time.Second,
		KeepAliveTime:    30 * time.Second,
		KeepAliveTimeout: 10 * time.Second,
		MaxRecvMsgSize:   50 * 1024 * 1024, // 50MB
		MaxSendMsgSize:   50 * 1024 * 1024, // 50MB
	}
}

// ApplyGRPCOptions applies options to config.
func ApplyGRPCOptions(cfg *GRPCConfig, opts ...GRPCOption) {
	for _, opt := range opts {
		opt(cfg)
	}
}

// WithGRPCAddress sets the server address.
func WithGRPCAddress(addr string) GRPCOption {
	return func(c *GRPCConfig) {
		c.Address = addr
	}
}

// WithGRPCAPIKey sets the API key.
func WithGRPCAPIKey(key string) GRPCOption {
	return func(c *GRPCConfig) {
		c.APIKey = key
	}
}

// WithGRPCAgentID sets the agent ID.
func WithGRPCAgentID(id string) GRPCOption {
	return func(c *GRPCConfig) {
		c.AgentID = id
	}
}

// WithGRPCTLS configures TLS.
func WithGRPCTLS(useTLS bool, insecureSkipVerify bool) GRPCOption {
	return func(c *GRPCConfig) {
		c.UseTLS = useTLS
		c.InsecureSkipVerify = insecureSkipVerify
	}
}

// WithGRPCCert sets the certificate file.
func WithGRPCCert(certFile string) GRPCOption {
	return func(c *GRPCConfig) {
		c.CertFile = certFile
	}
}

// WithGRPCTimeout sets the timeout.
func WithGRPCTimeout(d time.Duration) GRPCOption {
	return func(c *GRPCConfig) {
		c.Timeout = d
	}
}

// WithGRPCKeepalive sets keepalive parameters.
func WithGRPCKeepalive(time, timeout time.Duration) GRPCOption {
	return func(c *GRPCConfig) {
		c.KeepAliveTime = time
		c.KeepAliveTimeout = timeout
	}
}

// WithGRPCVerbose enables verbose logging.
func WithGRPCVerbose(v bool) GRPCOption {
	return func(c *GRPCConfig) {
		c.Verbose = v
	}
}
