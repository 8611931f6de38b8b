package config

import (
	"strings"
	"time"

	"github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/logging"
	"github.com/jmgilman/go/nfc"
	"github.com/jmgilman/go/store"
	"github.com/jmgilman/go/transfer"
	"github.com/jmgilman/go/worker"
)

// Storage backends.
const (
	StorageMemory = "memory"
	StorageLocal  = "local"
	StorageMinIO  = "minio"
)

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

// UnmarshalText parses a duration string. "0" and "" mean zero.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration as a Go duration string.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is a decoded configuration.
type Config struct {
	Engine EngineConfig      `json:"engine" yaml:"engine"`
	Stores []StoreDefinition `json:"stores" yaml:"stores"`
}

// EngineConfig holds engine-wide settings.
type EngineConfig struct {
	Storage          StorageConfig `json:"storage" yaml:"storage"`
	Workers          int           `json:"workers" yaml:"workers"`
	QueueSize        int           `json:"queueSize" yaml:"queueSize"`
	FetchLimit       int           `json:"fetchLimit" yaml:"fetchLimit"`
	NFCTimeout       Duration      `json:"nfcTimeout" yaml:"nfcTimeout"`
	NFCSweepInterval Duration      `json:"nfcSweepInterval" yaml:"nfcSweepInterval"`
	RemoteTimeout    Duration      `json:"remoteTimeout" yaml:"remoteTimeout"`
	RemoteRetries    int           `json:"remoteRetries" yaml:"remoteRetries"`
	Log              LogSettings   `json:"log" yaml:"log"`
}

// StorageConfig selects the content backend.
type StorageConfig struct {
	Type string `json:"type" yaml:"type"`

	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	AccessKey string `json:"accessKey,omitempty" yaml:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty" yaml:"-"`
	UseSSL    bool   `json:"useSSL" yaml:"useSSL"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// LogSettings configures logging.
type LogSettings struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// StoreDefinition describes one store.
type StoreDefinition struct {
	Type             string            `json:"type" yaml:"type"`
	Name             string            `json:"name" yaml:"name"`
	PackageType      string            `json:"packageType" yaml:"packageType"`
	Description      string            `json:"description,omitempty" yaml:"description,omitempty"`
	Disabled         bool              `json:"disabled" yaml:"disabled"`
	PathMaskPatterns []string          `json:"pathMaskPatterns,omitempty" yaml:"pathMaskPatterns,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	AllowReleases  bool `json:"allowReleases,omitempty" yaml:"allowReleases,omitempty"`
	AllowSnapshots bool `json:"allowSnapshots,omitempty" yaml:"allowSnapshots,omitempty"`
	Readonly       bool `json:"readonly,omitempty" yaml:"readonly,omitempty"`

	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
	Timeout    Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	NFCTimeout Duration `json:"nfcTimeout,omitempty" yaml:"nfcTimeout,omitempty"`

	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
}

// Key returns the store key.
func (d StoreDefinition) Key() store.Key {
	return store.NewKey(d.PackageType, store.Type(d.Type), d.Name)
}

// ToStore converts the definition into a store. Member references are
// resolved against the group's package type.
func (d StoreDefinition) ToStore() (*store.ArtifactStore, error) {
	key := d.Key()
	if !key.Type.Valid() {
		return nil, errors.WithContext(errors.Newf(errors.CodeInvalidConfig, "invalid store type %q", d.Type), "store", d.Name)
	}

	s := &store.ArtifactStore{
		Key:              key,
		Description:      d.Description,
		Disabled:         d.Disabled,
		PathMaskPatterns: d.PathMaskPatterns,
		Metadata:         d.Metadata,
	}
	switch key.Type {
	case store.Hosted:
		s.AllowReleases = d.AllowReleases
		s.AllowSnapshots = d.AllowSnapshots
		s.Readonly = d.Readonly
	case store.Remote:
		s.URL = d.URL
		s.Timeout = d.Timeout.Std()
		s.NFCTimeout = d.NFCTimeout.Std()
	case store.Group:
		for _, ref := range d.Members {
			member, err := memberKey(d.PackageType, ref)
			if err != nil {
				return nil, errors.WithContext(err, "store", key.String())
			}
			s.Constituents = append(s.Constituents, member)
		}
	}
	return s, nil
}

func memberKey(packageType, ref string) (store.Key, error) {
	if strings.Count(ref, ":") == 1 {
		ref = packageType + ":" + ref
	}
	key, err := store.ParseKey(ref)
	if err != nil {
		return store.Key{}, errors.Wrapf(err, errors.CodeInvalidConfig, "invalid group member %q", ref)
	}
	return key, nil
}

// Validate checks what the schema cannot: unique store keys, known group
// members of the same package type, and complete storage settings.
func (c *Config) Validate() error {
	switch c.Engine.Storage.Type {
	case StorageMemory:
	case StorageLocal:
		if c.Engine.Storage.Root == "" {
			return errors.New(errors.CodeInvalidConfig, "local storage requires a root")
		}
	case StorageMinIO:
		if c.Engine.Storage.Endpoint == "" || c.Engine.Storage.Bucket == "" {
			return errors.New(errors.CodeInvalidConfig, "minio storage requires an endpoint and a bucket")
		}
	default:
		return errors.Newf(errors.CodeInvalidConfig, "unknown storage type %q", c.Engine.Storage.Type)
	}

	stores, err := c.ArtifactStores()
	if err != nil {
		return err
	}

	known := make(map[store.Key]bool, len(stores))
	for _, s := range stores {
		if known[s.Key] {
			return errors.WithContext(errors.New(errors.CodeInvalidConfig, "duplicate store"), "store", s.Key.String())
		}
		known[s.Key] = true
	}
	for _, s := range stores {
		for _, member := range s.Constituents {
			if !known[member] {
				return errors.WithContextMap(errors.New(errors.CodeInvalidConfig, "group member is not defined"), map[string]interface{}{
					"group":  s.Key.String(),
					"member": member.String(),
				})
			}
			if member.PackageType != s.Key.PackageType {
				return errors.WithContextMap(errors.New(errors.CodeInvalidConfig, "group member has a different package type"), map[string]interface{}{
					"group":  s.Key.String(),
					"member": member.String(),
				})
			}
		}
	}
	return nil
}

// ArtifactStores converts every definition.
func (c *Config) ArtifactStores() ([]*store.ArtifactStore, error) {
	out := make([]*store.ArtifactStore, 0, len(c.Stores))
	for _, d := range c.Stores {
		s, err := d.ToStore()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Registry returns an in-memory registry holding the configured stores.
func (c *Config) Registry() (*store.MemoryRegistry, error) {
	stores, err := c.ArtifactStores()
	if err != nil {
		return nil, err
	}
	return store.NewMemoryRegistry(stores...), nil
}

// PoolConfig returns the worker pool sizing.
func (e EngineConfig) PoolConfig() worker.Config {
	return worker.Config{Workers: e.Workers, QueueSize: e.QueueSize}
}

// NFCConfig returns the not-found cache settings.
func (e EngineConfig) NFCConfig() nfc.Config {
	cfg := nfc.DefaultConfig()
	cfg.Timeout = e.NFCTimeout.Std()
	if e.NFCSweepInterval > 0 {
		cfg.SweepInterval = e.NFCSweepInterval.Std()
	}
	return cfg
}

// HTTPConfig returns the remote fetcher settings.
func (e EngineConfig) HTTPConfig() transfer.HTTPConfig {
	cfg := transfer.DefaultHTTPConfig()
	if e.RemoteTimeout > 0 {
		cfg.Timeout = e.RemoteTimeout.Std()
	}
	cfg.RetryMax = e.RemoteRetries
	return cfg
}

// LogConfig returns the logger settings.
func (e EngineConfig) LogConfig() (logging.LogConfig, error) {
	cfg := logging.DefaultLogConfig()
	level, err := logging.ParseLogLevel(e.Log.Level)
	if err != nil {
		return cfg, errors.Wrap(err, errors.CodeInvalidConfig, "invalid log level")
	}
	cfg.Level = level

	switch e.Log.Format {
	case "", string(logging.FormatText):
		cfg.Format = logging.FormatText
	case string(logging.FormatJSON):
		cfg.Format = logging.FormatJSON
	default:
		return cfg, errors.Newf(errors.CodeInvalidConfig, "invalid log format %q", e.Log.Format)
	}
	return cfg, nil
}
