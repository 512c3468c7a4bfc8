package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Options holds all configuration for an omnibust scan. The engine treats
// it as immutable for the duration of a session.
type Options struct {
	// Target
	URL              string   `yaml:"url"`
	Domain           string   `yaml:"domain"` // dns mode zone
	URLsFile         string   `yaml:"urls_file"`
	WordlistPath     string   `yaml:"wordlist"`
	Extensions       []string `yaml:"extensions"`
	ForceExtensions  bool     `yaml:"force_extensions"`
	BackupExtensions bool     `yaml:"backup_extensions"`

	// Performance
	Threads           int           `yaml:"threads"`
	Timeout           time.Duration `yaml:"timeout"`
	Delay             time.Duration `yaml:"delay"`
	RateLimit         int           `yaml:"rate_limit"` // req/sec across all workers, 0 = unlimited
	Retries           int           `yaml:"retries"`
	RetryServerErrors bool          `yaml:"retry_server_errors"`
	AdaptiveThrottle  bool          `yaml:"adaptive_throttle"`

	// Wildcard calibration
	Calibrate          bool `yaml:"calibrate"`
	CalibrateThreshold int  `yaml:"calibrate_threshold"` // bytes tolerance
	HashBody           bool `yaml:"hash_body"`

	// Filtering
	IncludeStatus []int  `yaml:"include_status"`
	ExcludeStatus []int  `yaml:"exclude_status"`
	ExcludeSize   []int  `yaml:"exclude_size"`
	MatchSize     []int  `yaml:"match_size"`
	MatchRegex    string `yaml:"match_regex"`
	FilterRegex   string `yaml:"filter_regex"`
	Dedupe        int    `yaml:"dedupe"` // >0 hides repeated response shapes past this count

	// Output
	OutputFile   string `yaml:"output"`
	OutputFormat string `yaml:"format"` // "text", "json", "csv"
	Quiet        bool   `yaml:"quiet"`
	NoColor      bool   `yaml:"no_color"`
	SortBy       string `yaml:"sort"`
	Tree         bool   `yaml:"tree"`

	// Recursion
	Recursive bool `yaml:"recursive"`
	MaxDepth  int  `yaml:"max_depth"`

	// Crawl
	Crawl      bool `yaml:"crawl"`
	CrawlDepth int  `yaml:"crawl_depth"`

	// HTTP
	RequestFile     string            `yaml:"request_file"`
	Headers         map[string]string `yaml:"headers"`
	UserAgent       string            `yaml:"user_agent"`
	Proxy           string            `yaml:"proxy"`
	FollowRedirects bool              `yaml:"follow_redirects"`
	Methods         []string          `yaml:"methods"`
	Body            string            `yaml:"body"` // fuzz mode request body template

	// DNS
	Resolver string `yaml:"resolver"` // host[:port], empty = system resolver
	ShowIPs  bool   `yaml:"show_ips"`

	// CIDR expansion
	CIDRTargets string `yaml:"cidr"`
	Ports       string `yaml:"ports"`

	// Misc
	ResumeFile  string `yaml:"resume_file"`
	OnResultCmd string `yaml:"on_result"`
}

// LoadFile reads a YAML config file into opts. Only keys present in the
// file are touched, so CLI flags applied afterwards (or before, for flags
// the user explicitly set) keep their values for absent keys.
//
// Duration keys accept Go duration strings ("15s", "250ms"); yaml.v3 has
// no native time.Duration support, so they are parsed before the struct
// decode sees the document.
func LoadFile(path string, opts *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	durations := map[string]*time.Duration{
		"timeout": &opts.Timeout,
		"delay":   &opts.Delay,
	}
	for key, dst := range durations {
		node, ok := raw[key]
		if !ok {
			continue
		}
		d, err := time.ParseDuration(node.Value)
		if err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
		*dst = d
		delete(raw, key)
	}

	rest, err := yaml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(rest, opts); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}
