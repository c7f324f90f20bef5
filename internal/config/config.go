package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultTier        = "free"
	DefaultOCRLanguage = "eng"

	// Directory permissions
	DefaultDirPerm = 0o750
)

// Config holds all configuration for the PDF intelligence server
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Document configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes

	// OCR configuration
	Tier            string // Service tier: free, pro, business
	OCRLanguage     string
	EnableTesseract bool
	VisionAPIKey    string // Google Cloud Vision API key; empty disables the backend
	EasyOCRURL      string // EasyOCR sidecar endpoint; empty disables the backend
	PaddleOCRURL    string // PaddleOCR sidecar endpoint; empty disables the backend
	RapidOCRURL     string // RapidOCR sidecar endpoint; empty disables the backend

	// Interpreter configuration
	LLMProvider  string // openai, anthropic, ollama, mistral; empty disables interpretation
	LLMModel     string
	LLMAPIKey    string
	LLMServerURL string // Ollama only

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	return &Config{
		Mode:            ModeStdio, // Default to stdio mode for MCP compatibility
		Host:            DefaultHost,
		Port:            DefaultPort,
		PDFDirectory:    currentDir,
		MaxFileSize:     DefaultMaxFileSize,
		Tier:            DefaultTier,
		OCRLanguage:     DefaultOCRLanguage,
		EnableTesseract: true,
		Version:         "1.0.0",
		ServerName:      "pdfpilot",
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	// Set environment variable prefix
	viper.SetEnvPrefix("PDFPILOT")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("dir", cfg.PDFDirectory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("tier", cfg.Tier)
	viper.SetDefault("ocr_language", cfg.OCRLanguage)
	viper.SetDefault("enable_tesseract", cfg.EnableTesseract)
	viper.SetDefault("vision_api_key", cfg.VisionAPIKey)
	viper.SetDefault("easyocr_url", cfg.EasyOCRURL)
	viper.SetDefault("paddleocr_url", cfg.PaddleOCRURL)
	viper.SetDefault("rapidocr_url", cfg.RapidOCRURL)
	viper.SetDefault("llm_provider", cfg.LLMProvider)
	viper.SetDefault("llm_model", cfg.LLMModel)
	viper.SetDefault("llm_api_key", cfg.LLMAPIKey)
	viper.SetDefault("llm_server_url", cfg.LLMServerURL)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("tier", cfg.Tier, "Service tier: free, pro, or business")
	pflag.String("ocr-language", cfg.OCRLanguage, "OCR language code (e.g. eng, deu, jpn)")
	pflag.Bool("enable-tesseract", cfg.EnableTesseract, "Enable the local Tesseract OCR backend")
	pflag.String("vision-api-key", cfg.VisionAPIKey, "Google Cloud Vision API key (enables the cloud backend)")
	pflag.String("easyocr-url", cfg.EasyOCRURL, "EasyOCR sidecar endpoint (enables the backend)")
	pflag.String("paddleocr-url", cfg.PaddleOCRURL, "PaddleOCR sidecar endpoint (enables the backend)")
	pflag.String("rapidocr-url", cfg.RapidOCRURL, "RapidOCR sidecar endpoint (enables the backend)")
	pflag.String("llm-provider", cfg.LLMProvider, "LLM provider: openai, anthropic, ollama, or mistral")
	pflag.String("llm-model", cfg.LLMModel, "LLM model name")
	pflag.String("llm-api-key", cfg.LLMAPIKey, "LLM provider API key")
	pflag.String("llm-server-url", cfg.LLMServerURL, "LLM server URL (ollama only)")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("tier", pflag.Lookup("tier"))
	_ = viper.BindPFlag("ocr_language", pflag.Lookup("ocr-language"))
	_ = viper.BindPFlag("enable_tesseract", pflag.Lookup("enable-tesseract"))
	_ = viper.BindPFlag("vision_api_key", pflag.Lookup("vision-api-key"))
	_ = viper.BindPFlag("easyocr_url", pflag.Lookup("easyocr-url"))
	_ = viper.BindPFlag("paddleocr_url", pflag.Lookup("paddleocr-url"))
	_ = viper.BindPFlag("rapidocr_url", pflag.Lookup("rapidocr-url"))
	_ = viper.BindPFlag("llm_provider", pflag.Lookup("llm-provider"))
	_ = viper.BindPFlag("llm_model", pflag.Lookup("llm-model"))
	_ = viper.BindPFlag("llm_api_key", pflag.Lookup("llm-api-key"))
	_ = viper.BindPFlag("llm_server_url", pflag.Lookup("llm-server-url"))
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDFPilot - A Model Context Protocol server for PDF analysis, form filling, and extraction\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                         "+
			"# stdio mode, current directory (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=/path/to/pdfs                     "+
			"# stdio mode with custom directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --tier=business --vision-api-key=KEY    # cloud OCR for premium tier\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --llm-provider=ollama --llm-model=llama3 --llm-server-url=http://localhost:11434\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_MODE             Server mode\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_DIR              PDF directory\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_LOGLEVEL         Log level\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_TIER             Service tier\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_OCR_LANGUAGE     OCR language\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_VISION_API_KEY   Google Cloud Vision API key\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_LLM_PROVIDER     LLM provider\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_LLM_MODEL        LLM model\n")
		fmt.Fprintf(os.Stderr, "  PDFPILOT_LLM_API_KEY      LLM API key\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.PDFDirectory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.Tier = viper.GetString("tier")
	cfg.OCRLanguage = viper.GetString("ocr_language")
	cfg.EnableTesseract = viper.GetBool("enable_tesseract")
	cfg.VisionAPIKey = viper.GetString("vision_api_key")
	cfg.EasyOCRURL = viper.GetString("easyocr_url")
	cfg.PaddleOCRURL = viper.GetString("paddleocr_url")
	cfg.RapidOCRURL = viper.GetString("rapidocr_url")
	cfg.LLMProvider = viper.GetString("llm_provider")
	cfg.LLMModel = viper.GetString("llm_model")
	cfg.LLMAPIKey = viper.GetString("llm_api_key")
	cfg.LLMServerURL = viper.GetString("llm_server_url")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate service tier
	validTiers := map[string]bool{"free": true, "pro": true, "business": true}
	if !validTiers[c.Tier] {
		return fmt.Errorf("invalid tier: %s (must be one of: free, pro, business)", c.Tier)
	}

	if c.OCRLanguage == "" {
		return errors.New("OCR language cannot be empty")
	}

	// Validate LLM provider when set
	if c.LLMProvider != "" {
		validProviders := map[string]bool{"openai": true, "anthropic": true, "ollama": true, "mistral": true}
		if !validProviders[c.LLMProvider] {
			return fmt.Errorf("invalid LLM provider: %s (must be one of: openai, anthropic, ollama, mistral)", c.LLMProvider)
		}
		if c.LLMModel == "" {
			return errors.New("LLM model cannot be empty when a provider is set")
		}
	}

	// Validate log level
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

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, Tier: %s, MaxFileSize: %d}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.Tier, c.MaxFileSize)
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
