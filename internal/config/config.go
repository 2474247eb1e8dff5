package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeExtract = "extract"
	ModeStdio   = "stdio"
	ModeServer  = "server"

	// Default values
	DefaultPort         = 8080
	DefaultHost         = "127.0.0.1"
	DefaultLogLevel     = "info"
	DefaultMaxFileSize  = 100 * 1024 * 1024 // 100MB
	DefaultInput        = "Form ADT-1-29092023_signed.pdf"
	DefaultRecordFile   = "output.json"
	DefaultSummaryFile  = "summary.txt"
	DefaultAttachDir    = "attachments"
	DefaultPeriod       = "2022-23"
	DefaultFormID       = "ADT-1"
	DefaultNameMapField = "HiddenList_L"
	DefaultCollection   = "filings"

	envPrefix = "FILING"
)

// envKeyReplacer maps dashed keys such as record-file to FILING_RECORD_FILE
var envKeyReplacer = strings.NewReplacer("-", "_")

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the filing extractor
type Config struct {
	// Server configuration
	Mode string // "extract", "stdio" or "server"
	Host string
	Port int

	// Input and allowed root for client-supplied paths
	Input     string
	Directory string

	// Outputs, relative names resolve against OutputDir
	OutputDir      string
	RecordFile     string
	SummaryFile    string
	AttachmentsDir string

	// Filing configuration
	FilingPeriod string
	FormID       string
	FieldSpecs   string // optional TOML file with field spec overrides
	NameMapField string

	// Publishing, each sink is enabled by setting its key
	GCSBucket           string
	FirestoreProject    string
	FirestoreCollection string
	PostgresDSN         string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:                ModeExtract,
		Host:                DefaultHost,
		Port:                DefaultPort,
		Input:               DefaultInput,
		Directory:           currentDir,
		OutputDir:           ".",
		RecordFile:          DefaultRecordFile,
		SummaryFile:         DefaultSummaryFile,
		AttachmentsDir:      DefaultAttachDir,
		FilingPeriod:        DefaultPeriod,
		FormID:              DefaultFormID,
		NameMapField:        DefaultNameMapField,
		FirestoreCollection: DefaultCollection,
		Version:             "1.0.0",
		ServerName:          "mcp-filing-extractor",
		LogLevel:            DefaultLogLevel,
		MaxFileSize:         DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// flagKeys lists every key shared by flags, environment and viper
var flagKeys = []string{
	"mode", "host", "port", "input", "dir", "outdir",
	"record-file", "summary-file", "attachments-dir",
	"filing-period", "form-id", "field-specs", "name-map-field",
	"gcs-bucket", "firestore-project", "firestore-collection", "postgres-dsn",
	"loglevel", "maxfilesize",
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("input", cfg.Input)
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("outdir", cfg.OutputDir)
	viper.SetDefault("record-file", cfg.RecordFile)
	viper.SetDefault("summary-file", cfg.SummaryFile)
	viper.SetDefault("attachments-dir", cfg.AttachmentsDir)
	viper.SetDefault("filing-period", cfg.FilingPeriod)
	viper.SetDefault("form-id", cfg.FormID)
	viper.SetDefault("field-specs", cfg.FieldSpecs)
	viper.SetDefault("name-map-field", cfg.NameMapField)
	viper.SetDefault("gcs-bucket", cfg.GCSBucket)
	viper.SetDefault("firestore-project", cfg.FirestoreProject)
	viper.SetDefault("firestore-collection", cfg.FirestoreCollection)
	viper.SetDefault("postgres-dsn", cfg.PostgresDSN)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'extract' for a single document, 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("input", cfg.Input, "Filing PDF to process (extract mode)")
	pflag.String("dir", cfg.Directory, "Directory that MCP clients may read filings from")
	pflag.String("outdir", cfg.OutputDir, "Directory for the record, summary and attachments")
	pflag.String("record-file", cfg.RecordFile, "File name of the JSON record")
	pflag.String("summary-file", cfg.SummaryFile, "File name of the narrative summary")
	pflag.String("attachments-dir", cfg.AttachmentsDir, "Directory name for recovered attachments")
	pflag.String("filing-period", cfg.FilingPeriod, "Financial year quoted in the summary")
	pflag.String("form-id", cfg.FormID, "Form identifier quoted in the summary")
	pflag.String("field-specs", cfg.FieldSpecs, "Optional TOML file overriding field candidates and patterns")
	pflag.String("name-map-field", cfg.NameMapField, "Form field holding the attachment display-name map")
	pflag.String("gcs-bucket", cfg.GCSBucket, "Publish artifacts to this Cloud Storage bucket")
	pflag.String("firestore-project", cfg.FirestoreProject, "Publish records to Firestore in this project")
	pflag.String("firestore-collection", cfg.FirestoreCollection, "Firestore collection for records")
	pflag.String("postgres-dsn", cfg.PostgresDSN, "Publish records to this PostgreSQL database")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, key := range flagKeys {
		_ = viper.BindPFlag(key, pflag.Lookup(key))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nFiling Extractor - extracts auditor appointment filings (Form ADT-1)\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input=filing.pdf                      "+
			"# extract one document (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input=filing.pdf --outdir=out         "+
			"# write outputs under out/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio --dir=/path/to/filings      # MCP over stdio\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --host=0.0.0.0 --port=8081 # MCP over HTTP\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  Every option can be set as FILING_<OPTION>, dashes replaced by\n")
		fmt.Fprintf(os.Stderr, "  underscores, e.g. FILING_INPUT, FILING_RECORD_FILE, FILING_POSTGRES_DSN.\n")
		fmt.Fprintf(os.Stderr, "  A .env file in the working directory is loaded first.\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.Input = viper.GetString("input")
	cfg.Directory = viper.GetString("dir")
	cfg.OutputDir = viper.GetString("outdir")
	cfg.RecordFile = viper.GetString("record-file")
	cfg.SummaryFile = viper.GetString("summary-file")
	cfg.AttachmentsDir = viper.GetString("attachments-dir")
	cfg.FilingPeriod = viper.GetString("filing-period")
	cfg.FormID = viper.GetString("form-id")
	cfg.FieldSpecs = viper.GetString("field-specs")
	cfg.NameMapField = viper.GetString("name-map-field")
	cfg.GCSBucket = viper.GetString("gcs-bucket")
	cfg.FirestoreProject = viper.GetString("firestore-project")
	cfg.FirestoreCollection = viper.GetString("firestore-collection")
	cfg.PostgresDSN = viper.GetString("postgres-dsn")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid. It does not touch the
// filesystem; output directories are created when first written.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeExtract:
		if c.Input == "" {
			return errors.New("input file cannot be empty in extract mode")
		}
	case ModeStdio, ModeServer:
		if c.Directory == "" {
			return errors.New("filing directory cannot be empty")
		}
	default:
		return errors.New("mode must be one of 'extract', 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	for name, value := range map[string]string{
		"record file":     c.RecordFile,
		"summary file":    c.SummaryFile,
		"attachments dir": c.AttachmentsDir,
	} {
		if value == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.FirestoreProject != "" && c.FirestoreCollection == "" {
		return errors.New("firestore collection cannot be empty when a project is set")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// OutputPath resolves name against the output directory
func (c *Config) OutputPath(name string) string {
	if filepath.IsAbs(name) || c.OutputDir == "" {
		return name
	}
	return filepath.Join(c.OutputDir, name)
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The
// PostgreSQL DSN is redacted.
func (c *Config) String() string {
	dsn := ""
	if c.PostgresDSN != "" {
		dsn = "<redacted>"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Input: %s, Directory: %s, OutputDir: %s, "+
		"LogLevel: %s, MaxFileSize: %d, GCSBucket: %s, FirestoreProject: %s, PostgresDSN: %s}",
		c.Mode, c.Host, c.Port, c.Input, c.Directory, c.OutputDir,
		c.LogLevel, c.MaxFileSize, c.GCSBucket, c.FirestoreProject, dsn)
}

// IsExtractMode returns true for a single one-shot extraction
func (c *Config) IsExtractMode() bool {
	return c.Mode == ModeExtract
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
