package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds all runtime configuration. It is built once at startup and
// handed to constructors; nothing below the CLI reads global state.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Trust     TrustConfig     `yaml:"trust" mapstructure:"trust"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Input     InputConfig     `yaml:"input" mapstructure:"input"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
}

// LLMConfig configures the language model provider shared by every stage
type LLMConfig struct {
	Provider       string        `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai anthropic claude ollama"`
	Model          string        `yaml:"model" mapstructure:"model"`
	APIKey         string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL        string        `yaml:"base_url,omitempty" mapstructure:"base_url" validate:"omitempty,url"`
	Timeout        time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	MaxTokens      int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Temperature    float64       `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	MaxToolRounds  int           `yaml:"max_tool_rounds" mapstructure:"max_tool_rounds" validate:"gte=0,lte=10"`
	StrictEvidence bool          `yaml:"strict_evidence" mapstructure:"strict_evidence"` // Drop sources the search never returned
}

// SearchConfig configures the web search collaborator
type SearchConfig struct {
	Endpoint     string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required,url"`
	MaxResults   int           `yaml:"max_results" mapstructure:"max_results" validate:"gte=1,lte=50"`
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries" validate:"gte=1,lte=10"`
	RetryBackoff time.Duration `yaml:"retry_backoff" mapstructure:"retry_backoff" validate:"gte=0"`
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl" validate:"gte=0"` // 0 disables memoisation
}

// Pipeline policy values
const (
	CorrectionPolicyVerdict     = "verdict"
	CorrectionPolicySynthesizer = "synthesizer"

	ExtractorLLM       = "llm"
	ExtractorHeuristic = "heuristic"
)

// PipelineConfig controls the orchestrator
type PipelineConfig struct {
	SubClaimThreshold   float64       `yaml:"subclaim_threshold" mapstructure:"subclaim_threshold" validate:"gte=0,lte=1"`
	SubClaimParallelism int           `yaml:"subclaim_parallelism" mapstructure:"subclaim_parallelism" validate:"gte=1,lte=16"`
	ClaimConcurrency    int           `yaml:"claim_concurrency" mapstructure:"claim_concurrency" validate:"gte=1,lte=64"`
	StageTimeout        time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout" validate:"gte=0"`
	BatchTimeout        time.Duration `yaml:"batch_timeout" mapstructure:"batch_timeout" validate:"gte=0"`
	CorrectionPolicy    string        `yaml:"correction_policy" mapstructure:"correction_policy" validate:"oneof=verdict synthesizer"`
	Extractor           string        `yaml:"extractor" mapstructure:"extractor" validate:"oneof=llm heuristic"`
}

// TrustConfig controls provenance analysis
type TrustConfig struct {
	ProvenanceWeight float64 `yaml:"provenance_weight" mapstructure:"provenance_weight" validate:"gte=0,lte=1"`
	MaxSources       int     `yaml:"max_sources" mapstructure:"max_sources" validate:"gte=1,lte=20"`
	CheckLinks       bool    `yaml:"check_links" mapstructure:"check_links"`
	LinkWorkers      int     `yaml:"link_workers" mapstructure:"link_workers" validate:"gte=1,lte=100"`
}

// HTTPConfig holds outbound HTTP settings
type HTTPConfig struct {
	Timeout         time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	UserAgent       string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`
	InsecureTLS     bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy       string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy      string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy         string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	RespectRobots   bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	DomainRateLimit float64       `yaml:"domain_rate_limit" mapstructure:"domain_rate_limit" validate:"gte=0"` // requests/sec per host for input fetches
}

// InputConfig bounds the text handed to the extractor
type InputConfig struct {
	MaxChars int `yaml:"max_chars" mapstructure:"max_chars" validate:"gte=1"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr" validate:"required"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"`
	MaxBodyBytes   int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=1"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LoggingConfig configures structured logging
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON   bool   `yaml:"json" mapstructure:"json"`
	LogDir string `yaml:"log_dir,omitempty" mapstructure:"log_dir"`
}

// AuthorityConfig drives source tier classification
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains" mapstructure:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains" mapstructure:"secondary_domains"`
	PathPatterns     []PathPattern     `yaml:"path_patterns,omitempty" mapstructure:"path_patterns" validate:"dive"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"`
}

// PathPattern maps a URL path regexp to a tier name
type PathPattern struct {
	Pattern string `yaml:"pattern" mapstructure:"pattern" validate:"required"`
	Tier    string `yaml:"tier" mapstructure:"tier" validate:"oneof=primary secondary tertiary"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		LLM: LLMConfig{
			Provider:       "", // Offline mode unless configured
			Timeout:        60 * time.Second,
			MaxTokens:      1500,
			Temperature:    0.2,
			MaxToolRounds:  3,
			StrictEvidence: true,
		},
		Search: SearchConfig{
			Endpoint:     "https://api.duckduckgo.com/",
			MaxResults:   5,
			MaxRetries:   3,
			RetryBackoff: 500 * time.Millisecond,
		},
		Pipeline: PipelineConfig{
			SubClaimThreshold:   0.85,
			SubClaimParallelism: 1,
			ClaimConcurrency:    4,
			StageTimeout:        60 * time.Second,
			BatchTimeout:        5 * time.Minute,
			CorrectionPolicy:    CorrectionPolicyVerdict,
			Extractor:           ExtractorLLM,
		},
		Trust: TrustConfig{
			ProvenanceWeight: 0.2,
			MaxSources:       5,
			LinkWorkers:      10,
		},
		HTTP: HTTPConfig{
			Timeout:         15 * time.Second,
			UserAgent:       "claimtrace/0.1 (+https://github.com/ppiankov/claimtrace)",
			MaxBodyBytes:    2_000_000,
			RespectRobots:   true,
			DomainRateLimit: 1,
		},
		Input: InputConfig{
			MaxChars: 5000,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   6 * time.Minute,
			MaxBodyBytes:   64 << 10,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Authority: AuthorityConfig{
			PrimaryDomains: []string{
				"doi.org",
				"arxiv.org",
				"pubmed.ncbi.nlm.nih.gov",
				"who.int",
				"europa.eu",
				"legislation.gov.uk",
			},
			SecondaryDomains: []string{
				"wikipedia.org",
				"britannica.com",
				"reuters.com",
				"apnews.com",
				"bbc.co.uk",
				"nature.com",
			},
		},
	}
}

var configValidator = validator.New()

// Validate checks ranges and enumerations declared in the struct tags
func (c *Config) Validate() error {
	if err := configValidator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
