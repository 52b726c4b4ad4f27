package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pdfbinder/backend/internal/api"
	"github.com/pdfbinder/backend/internal/config"
	"github.com/pdfbinder/backend/internal/fileset"
	"github.com/pdfbinder/backend/internal/merge"
	"github.com/pdfbinder/backend/internal/pdfops"
	"github.com/pdfbinder/backend/internal/storage"
	"github.com/pdfbinder/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Get the executable's directory for config resolution
	exePath, err := os.Executable()
	if err != nil {
		fmt.Printf("Failed to get executable path: %v\n", err)
		os.Exit(1)
	}
	exeDir := filepath.Dir(exePath)

	// Load XML configuration
	configPath := filepath.Join(exeDir, "PDFBinder.config")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Ensure all data directories exist
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Printf("Failed to create directories: %v\n", err)
		os.Exit(1)
	}

	// Check if running in embedded mode (frontend built into binary)
	embeddedMode := web.HasEmbeddedFiles()

	// Initialize blob storage
	blobs, err := storage.NewLocalStore(cfg.GetBlobsDir())
	if err != nil {
		fmt.Printf("Failed to initialize storage: %v\n", err)
		os.Exit(1)
	}

	// Initialize the decode service with its on-disk result cache
	cache, err := pdfops.NewResultCache(cfg.GetCacheDir())
	if err != nil {
		fmt.Printf("Failed to initialize decode cache: %v\n", err)
		os.Exit(1)
	}
	decoder := pdfops.NewDecoder(cache)

	// Initialize workspace manager
	workspaceMgr := fileset.NewManager(decoder, blobs)

	// Load merge profile (built-in default when no profile.yaml exists)
	profiles := merge.NewProfileStore(cfg.GetProfilePath())
	if err := profiles.Load(); err != nil {
		fmt.Printf("Warning: failed to load merge profile: %v\n", err)
	}

	// Initialize merge job manager
	mergeMgr := merge.NewManager(blobs, profiles.Current)

	// Start background cleanup
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.Processing.CleanupIntervalMinutes) * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			workspaceMgr.CleanupOld(time.Duration(cfg.Processing.WorkspaceTimeoutMinutes) * time.Minute)
			mergeMgr.CleanupOldJobs(time.Duration(cfg.Processing.JobRetentionMinutes) * time.Minute)
			cache.Purge(time.Duration(cfg.Processing.CacheMaxAgeHours) * time.Hour)
		}
	}()

	// Initialize API handlers
	h := api.NewHandler(workspaceMgr, mergeMgr, profiles, Version)
	wsHandler := api.NewWebSocketHandler(mergeMgr)

	e := echo.New()
	e.HTTPErrorHandler = api.ErrorHandler

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.Advanced.EnableRequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/api/merge/") && strings.Contains(path, "/status") ||
				path == "/api/health"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
		LogLevel:          0,
	}))

	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout: time.Duration(cfg.Server.ReadTimeout) * time.Second,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.Contains(path, "/files") ||
				strings.Contains(path, "/download") ||
				strings.Contains(path, "/ws/")
		},
		ErrorMessage: "Request timeout",
	}))

	// Compression middleware
	if cfg.Processing.EnableCompression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.Processing.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				// Merged PDFs and thumbnails are already dense
				path := c.Request().URL.Path
				return strings.Contains(path, "/download") ||
					strings.HasSuffix(path, "/preview")
			},
		}))
	}

	// Body limit middleware
	e.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// CORS configuration
	if cfg.Server.EnableCORS {
		if embeddedMode {
			// In embedded mode, use config settings
			origins := strings.Split(cfg.Server.AllowOrigins, ",")
			for i := range origins {
				origins[i] = strings.TrimSpace(origins[i])
			}
			if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
				origins = []string{"*"}
			}
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: origins,
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		} else {
			// Development mode - only allow localhost
			e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
				AllowOrigins: []string{
					"http://localhost:5173", "http://127.0.0.1:5173",
					"http://localhost:3000", "http://127.0.0.1:3000",
				},
				AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
				AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			}))
		}
	}

	// API Routes
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", h.HandleHealth)

	// Workspaces and their ordered file sets
	apiGroup.POST("/workspaces", h.HandleCreateWorkspace)
	apiGroup.GET("/workspaces/:id", h.HandleGetWorkspace)
	apiGroup.POST("/workspaces/:id/files", h.HandleAddFile)
	apiGroup.POST("/workspaces/:id/files/json", h.HandleAddFileJSON)
	apiGroup.DELETE("/workspaces/:id/files/:fileId", h.HandleRemoveFile)
	apiGroup.PUT("/workspaces/:id/files/:fileId/position", h.HandleMoveFile)
	apiGroup.GET("/workspaces/:id/files/:fileId/preview", h.HandleGetPreview)
	apiGroup.POST("/workspaces/:id/clear", h.HandleClearWorkspace)

	// Conditional delete based on config
	if cfg.Security.AllowWorkspaceDeletion {
		apiGroup.DELETE("/workspaces/:id", h.HandleDeleteWorkspace)
	}

	// Merge jobs
	apiGroup.POST("/workspaces/:id/merge", h.HandleStartMerge)
	apiGroup.GET("/merge/:jobId", h.HandleMergeStatus)
	apiGroup.GET("/merge/:jobId/download", h.HandleDownload)
	apiGroup.GET("/ws/merge/:jobId", wsHandler.HandleMergeProgress)

	// Merge profile
	apiGroup.GET("/config/profile", h.HandleGetProfile)
	apiGroup.PUT("/config/profile", h.HandleUpdateProfile)

	// Register embedded frontend if available
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			fmt.Printf("Warning: failed to register static routes: %v\n", err)
		} else {
			fmt.Println("Serving embedded frontend from binary")
		}
	}

	// Configure server with settings from XML config
	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Print startup banner
	mode := "Development"
	if embeddedMode {
		mode = "Air-Gapped (Embedded)"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           PDF Binder Server                               ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Mode:       %-45s║\n", mode)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}

	e.Logger.Fatal(e.StartServer(s))
}
