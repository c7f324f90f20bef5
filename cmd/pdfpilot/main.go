package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/pdfpilot/pdfpilot/internal/config"
	"github.com/pdfpilot/pdfpilot/internal/docstruct"
	"github.com/pdfpilot/pdfpilot/internal/interpret"
	"github.com/pdfpilot/pdfpilot/internal/mcp"
	"github.com/pdfpilot/pdfpilot/internal/ocr"
	"github.com/pdfpilot/pdfpilot/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging configures logging based on the server mode
func setupLogging(cfg *config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.IsStdioMode() {
		// In stdio mode, log output goes to stderr to avoid interfering with
		// the MCP protocol on stdout
		log.SetOutput(os.Stderr)
		logrus.SetOutput(os.Stderr)
		if !cfg.IsDebug() {
			log.SetOutput(io.Discard)
			logrus.SetOutput(io.Discard)
		}
	} else {
		// In server mode, use normal stdout logging with more detail
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}
}

// buildProcessor assembles the document pipeline from configuration.
func buildProcessor(cfg *config.Config) (*pipeline.Processor, ocr.Availability, error) {
	backends, available := ocr.DetectBackends(ocr.BackendConfig{
		EnableTesseract: cfg.EnableTesseract,
		VisionAPIKey:    cfg.VisionAPIKey,
		EasyOCRURL:      cfg.EasyOCRURL,
		PaddleOCRURL:    cfg.PaddleOCRURL,
		RapidOCRURL:     cfg.RapidOCRURL,
	})

	model, err := interpret.NewModelFromConfig(interpret.ModelConfig{
		Provider:  cfg.LLMProvider,
		Model:     cfg.LLMModel,
		APIKey:    cfg.LLMAPIKey,
		ServerURL: cfg.LLMServerURL,
	})
	if err != nil {
		return nil, ocr.Availability{}, fmt.Errorf("failed to configure interpreter: %w", err)
	}

	processor := pipeline.NewProcessor(pipeline.Deps{
		Analyzer: docstruct.NewLightweightAnalyzer(cfg.MaxFileSize),
		Selector: ocr.NewSelector(available),
		Adapter:  ocr.NewAdapter(backends...),
		Gateway:  interpret.NewGateway(model),
		Language: cfg.OCRLanguage,
	})
	return processor, available, nil
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server) {
	// Set up signal handling for graceful shutdown
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	// Start server in a goroutine
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	// Wait for shutdown signal or server error
	select {
	case sig := <-signalCh:
		log.Printf("Received signal: %s", sig)
		log.Println("Initiating graceful shutdown...")
		cancel()

		// Wait for server to shutdown
		if err := <-serverErrCh; err != nil {
			log.Printf("Server shutdown with error: %v", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}

	log.Println("Server stopped successfully")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, _ context.CancelFunc, server *mcp.Server) {
	// In stdio mode, the parent process controls our lifecycle
	// We should exit cleanly when stdin is closed or we get an error

	// Start server and wait for it to complete
	if err := server.Run(ctx); err != nil {
		// Only log to stderr in debug mode to avoid protocol interference
		if os.Getenv("DEBUG") != "" {
			log.Printf("Server error: %v", err)
		}
		os.Exit(1)
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	// Load configuration from flags first
	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging based on mode
	setupLogging(cfg)

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	if cfg.IsDebug() && cfg.IsServerMode() {
		log.Printf("Starting with configuration: %s", cfg.String())
	}

	// Assemble the document pipeline
	processor, available, err := buildProcessor(cfg)
	if err != nil {
		log.Fatalf("Failed to build document pipeline: %v", err)
	}

	// Create MCP server
	server, err := mcp.NewServer(cfg, processor, available)
	if err != nil {
		log.Fatalf("Failed to create MCP server: %v", err)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle different modes
	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server)
	} else {
		runStdioMode(ctx, cancel, server)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDFPilot\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
