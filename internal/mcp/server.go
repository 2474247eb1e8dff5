package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/config"
	"github.com/a3tai/mcp-filing-extractor/internal/descriptions"
	"github.com/a3tai/mcp-filing-extractor/internal/filing"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf"
	"github.com/a3tai/mcp-filing-extractor/internal/pdf/security"
	"github.com/a3tai/mcp-filing-extractor/internal/pipeline"
	"github.com/a3tai/mcp-filing-extractor/internal/publish"
)

// maxListedFiles caps the directory listing in server info
const maxListedFiles = 10

// ToolInfo describes a registered tool for server info
type ToolInfo struct {
	Name        string
	Description string
	Parameters  string
}

var tools = []ToolInfo{
	{
		Name:        "filing_extract",
		Description: "Extract the auditor appointment record, narrative summary and attachments from a filing PDF",
		Parameters:  "path (required), output_dir (optional, defaults to the configured output directory)",
	},
	{
		Name:        "filing_validate",
		Description: "Check that a file is a readable PDF within the size limit",
		Parameters:  "path (required)",
	},
	{
		Name:        "filing_server_info",
		Description: "Get server information, available tools and the filings in the allowed directory",
		Parameters:  "none",
	},
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	paths     *security.PathValidator
	validator *pdf.Validator
	open      pipeline.Opener
	fs        afero.Fs
	publisher *publish.Publisher
	specs     []filing.FieldSpec
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// Option customises a Server
type Option func(*Server)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPublisher publishes every extraction run
func WithPublisher(p *publish.Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithOpener replaces the document opener
func WithOpener(open pipeline.Opener) Option {
	return func(s *Server) { s.open = open }
}

// WithFs sets the filesystem outputs are written to
func WithFs(fs afero.Fs) Option {
	return func(s *Server) { s.fs = fs }
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	paths, err := security.NewPathValidator(cfg.Directory)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:    cfg,
		paths:     paths,
		validator: pdf.NewValidator(cfg.MaxFileSize),
		fs:        afero.NewOsFs(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.open == nil {
		s.open = pipeline.PDFOpener(cfg.MaxFileSize, s.logger)
	}

	if cfg.FieldSpecs != "" {
		specs, err := filing.LoadSpecOverrides(cfg.FieldSpecs, filing.DefaultSpecs())
		if err != nil {
			return nil, err
		}
		s.specs = specs
	}

	s.mcpServer = server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractTool := mcp.NewTool(
		"filing_extract",
		mcp.WithDescription(descriptions.GetToolDescription("filing_extract")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the filing PDF, absolute or relative to the allowed directory"),
		),
		mcp.WithString("output_dir",
			mcp.Description("Directory for output.json, summary.txt and attachments/"),
		),
	)
	s.mcpServer.AddTool(extractTool, s.handleFilingExtract)

	validateTool := mcp.NewTool(
		"filing_validate",
		mcp.WithDescription(descriptions.GetToolDescription("filing_validate")),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the filing PDF"),
		),
	)
	s.mcpServer.AddTool(validateTool, s.handleFilingValidate)

	infoTool := mcp.NewTool(
		"filing_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("filing_server_info")),
	)
	s.mcpServer.AddTool(infoTool, s.handleFilingServerInfo)
}

// Handler functions
func (s *Server) handleFilingExtract(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	outDir := s.config.OutputDir
	if dir, ok := request.GetArguments()["output_dir"].(string); ok && dir != "" {
		outDir = dir
	}
	outDir, err = s.paths.ResolveDirectory(outDir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := pipeline.Run(ctx, s.runOptions(input, outDir))
	if err != nil {
		s.logger.Warn("extraction failed", zap.String("path", input), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatExtractResult(result)), nil
}

func (s *Server) runOptions(input, outDir string) pipeline.Options {
	under := func(name string) string {
		if filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(outDir, name)
	}

	return pipeline.Options{
		Input:          input,
		RecordPath:     under(s.config.RecordFile),
		SummaryPath:    under(s.config.SummaryFile),
		AttachmentsDir: under(s.config.AttachmentsDir),
		NameMapField:   s.config.NameMapField,
		Summary:        filing.SummaryOptions{Period: s.config.FilingPeriod, FormID: s.config.FormID},
		Specs:          s.specs,
		FS:             s.fs,
		Open:           s.open,
		Publisher:      s.publisher,
		Logger:         s.logger,
	}
}

func (s *Server) handleFilingValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := s.validator.ValidateFile(resolved)

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("Filing %s is a valid and readable PDF (%d bytes)", result.Path, result.Size)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleFilingServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := listFilings(s.paths.Root())
	if err != nil {
		s.logger.Debug("cannot list filings", zap.String("dir", s.paths.Root()), zap.Error(err))
	}
	return mcp.NewToolResultText(s.formatServerInfo(files)), nil
}

type fileEntry struct {
	Name string
	Size int64
}

func listFilings(dir string) ([]fileEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var files []fileEntry
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, fileEntry{Name: e.Name(), Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Formatting methods
func (s *Server) formatExtractResult(result *pipeline.Result) string {
	text := fmt.Sprintf("Extracted filing: %s\n", result.Source)
	text += fmt.Sprintf("Run ID: %s\n", result.RunID)
	text += fmt.Sprintf("Record: %s\n", result.RecordPath)
	text += fmt.Sprintf("Summary: %s\n", result.SummaryPath)

	text += "\nFields:\n"
	for _, fv := range result.Record.Fields() {
		text += fmt.Sprintf("  %s: %s (%s)\n", fv.Key, fv.Value, result.Trace[fv.Key])
	}

	text += "\nNarrative:\n"
	text += result.Narrative()

	if len(result.Warnings) > 0 {
		text += "\n⚠️  Warnings:\n"
		for _, w := range result.Warnings {
			text += fmt.Sprintf("  • %s\n", w)
		}
	}

	if data, err := json.Marshal(result.Record); err == nil {
		text += "\nRecord JSON:\n" + string(data) + "\n"
	}

	return text
}

func (s *Server) formatServerInfo(files []fileEntry) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("📁 Allowed Directory: %s\n", s.paths.Root())
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("🧾 Form: %s, financial year %s\n", s.config.FormID, s.config.FilingPeriod)
	text += fmt.Sprintf("💾 Outputs: %s (%s, %s, %s/)\n", s.config.OutputDir, s.config.RecordFile, s.config.SummaryFile, s.config.AttachmentsDir)
	text += fmt.Sprintf("📤 Publish sinks: %d\n\n", s.publisher.Len())

	if len(files) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(files))
		for i, file := range files {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(files)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in allowed directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range tools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Description: %s\n", tool.Description)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode runs the server in stdio mode
func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", zap.String("dir", s.paths.Root()))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
