package mcp

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/pdfpilot/pdfpilot/internal/config"
	"github.com/pdfpilot/pdfpilot/internal/ocr"
	"github.com/pdfpilot/pdfpilot/internal/pipeline"
)

// DocumentProcessor is the pipeline surface the tool handlers call.
type DocumentProcessor interface {
	AnalyzeDocument(ctx context.Context, path string, tier ocr.Tier) (*pipeline.DocumentAnalysis, error)
	FillForm(ctx context.Context, req pipeline.FillFormRequest) (*pipeline.FillResult, error)
	ExtractContent(ctx context.Context, req pipeline.ExtractContentRequest) (*pipeline.ExtractResult, error)
}

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	processor DocumentProcessor
	engines   ocr.Availability
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, processor DocumentProcessor, engines ocr.Availability) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}

	// Create MCP server
	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:    cfg,
		processor: processor,
		engines:   engines,
		mcpServer: mcpServer,
	}

	// Register tools
	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfAnalyzeTool := mcp.NewTool(
		"pdf_analyze",
		mcp.WithDescription("Analyze a PDF document: structure, scanned-vs-digital classification, OCR text when scanned, and form-field detection"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("tier",
			mcp.Description("Service tier override: free, pro, or business"),
		),
	)
	s.mcpServer.AddTool(pdfAnalyzeTool, s.handlePDFAnalyze)

	pdfFillFormTool := mcp.NewTool(
		"pdf_fill_form",
		mcp.WithDescription("Fill a PDF form from natural-language instructions"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("instructions",
			mcp.Required(),
			mcp.Description("Natural-language filling instructions, e.g. 'set the name to John Doe'"),
		),
	)
	s.mcpServer.AddTool(pdfFillFormTool, s.handlePDFFillForm)

	pdfExtractContentTool := mcp.NewTool(
		"pdf_extract_content",
		mcp.WithDescription("Extract content from a PDF guided by a natural-language query"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Full path to the PDF file"),
		),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to extract, e.g. 'the price table on page 2'"),
		),
		mcp.WithString("output_format",
			mcp.Description("Requested output format: text, markdown, csv, or json"),
		),
	)
	s.mcpServer.AddTool(pdfExtractContentTool, s.handlePDFExtractContent)

	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription("Get server information, configured OCR engines, and usage guidance"),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

// Handler functions
func (s *Server) handlePDFAnalyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis, err := s.processor.AnalyzeDocument(ctx, s.resolvePath(path), s.tierFromRequest(request))
	if err != nil {
		return mcp.NewToolResultError(s.userFacingError(err)), nil
	}

	return mcp.NewToolResultText(s.formatAnalysis(analysis)), nil
}

func (s *Server) handlePDFFillForm(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	instructions, err := request.RequireString("instructions")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.processor.FillForm(ctx, pipeline.FillFormRequest{
		Path:         s.resolvePath(path),
		Instructions: instructions,
		Tier:         ocr.Tier(s.config.Tier),
	})
	if err != nil {
		return mcp.NewToolResultError(s.userFacingError(err)), nil
	}

	if !result.Success {
		// Business failures surface verbatim, never as tool errors.
		return mcp.NewToolResultText(result.Error), nil
	}

	responseText := fmt.Sprintf("Filled %d of %d form fields\n", result.FieldsFilled, result.FieldsTotal)
	if result.OutputPath != "" {
		responseText += fmt.Sprintf("Output: %s\n", result.OutputPath)
	}
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFExtractContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	args := request.GetArguments()
	outputFormat := ""
	if format, ok := args["output_format"].(string); ok {
		outputFormat = format
	}

	result, err := s.processor.ExtractContent(ctx, pipeline.ExtractContentRequest{
		Path:         s.resolvePath(path),
		Query:        query,
		OutputFormat: outputFormat,
		Tier:         ocr.Tier(s.config.Tier),
	})
	if err != nil {
		return mcp.NewToolResultError(s.userFacingError(err)), nil
	}

	responseText := fmt.Sprintf("Content type: %s\n", result.ContentType)
	responseText += fmt.Sprintf("Output format: %s\n", result.OutputFormat)
	responseText += fmt.Sprintf("Pages processed: %d\n", len(result.PagesProcessed))
	if result.Summary != "" {
		responseText += fmt.Sprintf("Summary: %s\n", result.Summary)
	}
	responseText += "\n" + result.Content
	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := fmt.Sprintf("%s v%s - Server Information\n", s.config.ServerName, s.config.Version)
	text += fmt.Sprintf("Default Directory: %s\n", s.config.PDFDirectory)
	text += fmt.Sprintf("Max File Size: %d MB\n", s.config.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("Service Tier: %s\n", s.config.Tier)

	if s.engines.Empty() {
		text += "OCR Engines: none available (scanned documents yield no text)\n"
	} else {
		names := make([]string, 0)
		for _, engine := range s.engines.List() {
			names = append(names, string(engine))
		}
		text += fmt.Sprintf("OCR Engines: %s\n", strings.Join(names, ", "))
	}

	if s.config.LLMProvider != "" {
		text += fmt.Sprintf("Interpreter: %s (%s)\n", s.config.LLMProvider, s.config.LLMModel)
	} else {
		text += "Interpreter: not configured (fill and extraction queries use fallback interpretation)\n"
	}

	text += "\nAvailable Tools:\n"
	text += "• pdf_analyze - structure, scanned classification, OCR, and form-field detection\n"
	text += "• pdf_fill_form - fill detected form fields from natural-language instructions\n"
	text += "• pdf_extract_content - query-guided content extraction (text, markdown, csv, json)\n"
	text += "• pdf_server_info - this summary\n"

	return mcp.NewToolResultText(text), nil
}

// resolvePath anchors relative paths at the configured PDF directory.
func (s *Server) resolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.config.PDFDirectory, path)
}

// tierFromRequest reads the optional tier argument, falling back to the
// configured tier.
func (s *Server) tierFromRequest(request mcp.CallToolRequest) ocr.Tier {
	args := request.GetArguments()
	if tier, ok := args["tier"].(string); ok && tier != "" {
		return ocr.Tier(tier)
	}
	return ocr.Tier(s.config.Tier)
}

// userFacingError gates internal error detail behind debug mode.
func (s *Server) userFacingError(err error) string {
	if s.config.IsDebug() {
		return fmt.Sprintf("failed to process document: %v", err)
	}
	return "failed to process document"
}

func (s *Server) formatAnalysis(analysis *pipeline.DocumentAnalysis) string {
	text := fmt.Sprintf("Document: %s\n", analysis.Path)
	text += fmt.Sprintf("Pages: %d\n", analysis.TotalPages)
	text += fmt.Sprintf("Tables: %d\n", analysis.TotalTables)
	text += fmt.Sprintf("Scanned: %t\n", analysis.IsScanned)
	if analysis.IsScanned {
		if analysis.OCREngineUsed != "" {
			text += fmt.Sprintf("OCR Engine: %s\n", analysis.OCREngineUsed)
		} else {
			text += "OCR Engine: none available\n"
		}
	}

	if analysis.HasForms {
		text += fmt.Sprintf("\nForm fields (%d):\n", len(analysis.FormFields))
		for i, field := range analysis.FormFields {
			text += fmt.Sprintf("%d. %s (%s, page %d)\n", i+1, field.Label, field.Type, field.Page)
		}
	} else {
		text += "\nNo form fields detected\n"
	}

	if analysis.OCRText != "" {
		text += "\nOCR Text:\n"
		text += analysis.OCRText
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
	if s.config.IsDebug() {
		log.Printf("Starting PDF intelligence server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	// Use the mark3labs/mcp-go server.ServeStdio function
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode runs the server in HTTP server mode
func (s *Server) runServerMode(ctx context.Context) error {
	// For now, we'll just use stdio mode since the mark3labs library
	// handles the transport differently
	log.Printf("Server mode not yet implemented with mark3labs/mcp-go")
	log.Printf("Falling back to stdio mode")
	return s.runStdioMode(ctx)
}
