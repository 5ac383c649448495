package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported publisher types.
const (
	TypeHTTP      = "http"
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
)

const (
	defaultWebhookMethod  = "POST"
	defaultWebhookTimeout = 5
)

// PublisherConfig is one entry of the publishers file.
type PublisherConfig struct {
	ID      string               `json:"id" yaml:"id"`
	Type    string               `json:"type" yaml:"type"`
	Enabled *bool                `json:"enabled" yaml:"enabled"`
	Kinds   []string             `json:"kinds" yaml:"kinds"`
	HTTP    *HTTPPublisherConfig `json:"http" yaml:"http"`
	SQS     *SQSPublisherConfig  `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig  `json:"sns" yaml:"sns"`
	GCP     *GCPQueueConfig      `json:"gcp_pubsub" yaml:"gcp_pubsub"`
}

// HTTPPublisherConfig describes a webhook receiving events as JSON.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// AWSCredentials are optional static keys. Without them the default AWS
// credential chain applies.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig targets an SQS queue. A ".fifo" queue gets one message
// group per Dolibarr record.
type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSPublisherConfig targets an SNS topic.
type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// GCPQueueConfig targets a Pub/Sub topic. With Ordered set, changes of one
// record share an ordering key.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Ordered         bool   `json:"ordered" yaml:"ordered"`
}

// EnabledValue reports the enabled flag, true when unset.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// KindFilter returns the routing filter of the entry.
func (cfg PublisherConfig) KindFilter() KindFilter {
	return sanitizeKinds(cfg.Kinds)
}

// ConfigRegistry holds the validated entries of a publishers file in file
// order. It is read-only once loaded.
type ConfigRegistry struct {
	entries []PublisherConfig
	byID    map[string]int
}

// LoadRegistry reads a publishers file. The extension picks the decoder
// (.yaml, .yml or .json); any other extension tries YAML then JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var doc struct {
		Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
	}
	if err := decodePublishersFile(raw, filepath.Ext(path), &doc); err != nil {
		return nil, err
	}
	if len(doc.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{byID: make(map[string]int, len(doc.Publishers))}
	for i, entry := range doc.Publishers {
		cfg := sanitizePublisherConfig(entry)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

func decodePublishersFile(raw []byte, ext string, out any) error {
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode publishers json: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode publishers yaml: %w", err)
		}
	default:
		if yaml.Unmarshal(raw, out) != nil && json.Unmarshal(raw, out) != nil {
			return errors.New("publishers file format not recognized (expected YAML or JSON)")
		}
	}
	return nil
}

// ByID looks an entry up by id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// All returns a copy of every entry.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.entries...)
}

// Enabled returns the entries whose enabled flag is not false.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}
	cfg.Kinds = sanitizeKinds(cfg.Kinds)

	if h := cfg.HTTP; h != nil {
		c := HTTPPublisherConfig{
			URL:            strings.TrimSpace(h.URL),
			Method:         strings.ToUpper(strings.TrimSpace(h.Method)),
			Headers:        trimHeaders(h.Headers),
			TimeoutSeconds: h.TimeoutSeconds,
		}
		if c.Method == "" {
			c.Method = defaultWebhookMethod
		}
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = defaultWebhookTimeout
		}
		cfg.HTTP = &c
	}
	if q := cfg.SQS; q != nil {
		cfg.SQS = &SQSPublisherConfig{
			QueueURL:    strings.TrimSpace(q.QueueURL),
			Region:      strings.TrimSpace(q.Region),
			Credentials: trimCredentials(q.Credentials),
		}
	}
	if t := cfg.SNS; t != nil {
		cfg.SNS = &SNSPublisherConfig{
			TopicARN:    strings.TrimSpace(t.TopicARN),
			Region:      strings.TrimSpace(t.Region),
			Credentials: trimCredentials(t.Credentials),
		}
	}
	if g := cfg.GCP; g != nil {
		cfg.GCP = &GCPQueueConfig{
			ProjectID:       strings.TrimSpace(g.ProjectID),
			Topic:           strings.TrimSpace(g.Topic),
			CredentialsFile: strings.TrimSpace(g.CredentialsFile),
			Ordered:         g.Ordered,
		}
	}
	return cfg
}

// trimCredentials returns nil for a block without an access key.
func trimCredentials(c *AWSCredentials) *AWSCredentials {
	if c == nil || strings.TrimSpace(c.AccessKeyID) == "" {
		return nil
	}
	return &AWSCredentials{
		AccessKeyID:     strings.TrimSpace(c.AccessKeyID),
		SecretAccessKey: strings.TrimSpace(c.SecretAccessKey),
		SessionToken:    strings.TrimSpace(c.SessionToken),
	}
}

func trimHeaders(headers map[string]string) map[string]string {
	var out map[string]string
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string, len(headers))
		}
		out[k] = v
	}
	return out
}

func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	if err := validateKinds(cfg.Kinds); err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	var err error
	switch cfg.Type {
	case "":
		err = errors.New("type is required")
	case TypeHTTP:
		err = cfg.HTTP.check()
	case TypeSQS:
		err = cfg.SQS.check()
	case TypeSNS:
		err = cfg.SNS.check()
	case TypeGCPPubSub:
		err = cfg.GCP.check()
	}
	if err != nil {
		return fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}
	return nil
}

func (c *HTTPPublisherConfig) check() error {
	switch {
	case c == nil:
		return errors.New("http block is required")
	case c.URL == "":
		return errors.New("http.url is required")
	}
	return nil
}

func (c *SQSPublisherConfig) check() error {
	switch {
	case c == nil:
		return errors.New("sqs block is required")
	case c.QueueURL == "":
		return errors.New("sqs.uri is required")
	case c.Region == "":
		return errors.New("sqs.region is required")
	}
	return c.Credentials.check("sqs")
}

func (c *SNSPublisherConfig) check() error {
	switch {
	case c == nil:
		return errors.New("sns block is required")
	case c.TopicARN == "":
		return errors.New("sns.topic_arn is required")
	case c.Region == "":
		return errors.New("sns.region is required")
	}
	return c.Credentials.check("sns")
}

func (c *GCPQueueConfig) check() error {
	if c == nil {
		return errors.New("gcp_pubsub block is required")
	}
	if c.ProjectID == "" || c.Topic == "" {
		return errors.New("gcp_pubsub.project_id and gcp_pubsub.topic are required")
	}
	return nil
}

func (c *AWSCredentials) check(block string) error {
	if c != nil && c.SecretAccessKey == "" {
		return fmt.Errorf("%s.credentials.secret_access_key is required with access_key_id", block)
	}
	return nil
}
