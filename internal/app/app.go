package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/responsum/internal/common"
	"github.com/ternarybob/responsum/internal/handlers"
	"github.com/ternarybob/responsum/internal/interfaces"
	"github.com/ternarybob/responsum/internal/services/answer"
	"github.com/ternarybob/responsum/internal/services/auth"
	"github.com/ternarybob/responsum/internal/services/documents"
	"github.com/ternarybob/responsum/internal/services/index"
	"github.com/ternarybob/responsum/internal/services/janitor"
	"github.com/ternarybob/responsum/internal/services/llm"
	"github.com/ternarybob/responsum/internal/services/pdf"
	"github.com/ternarybob/responsum/internal/services/qa"
	storage "github.com/ternarybob/responsum/internal/storage/badger"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Embedded store (LLM audit trail)
	BadgerDB    *storage.BadgerDB
	AuditLogger llm.AuditLogger

	// LLM provider stack
	LLMService interfaces.LLMService

	// Document answering pipeline
	PDFExtractor   interfaces.PDFExtractor
	DocumentLoader interfaces.DocumentLoader
	IndexBuilder   interfaces.IndexBuilder
	AnswerService  interfaces.AnswerService
	QAService      interfaces.QAService

	// Request authentication
	AuthService *auth.Service

	// Temp file hygiene
	JanitorService *janitor.Service

	// HTTP handlers
	HealthHandler *handlers.HealthHandler
	RunHandler    *handlers.RunHandler
	AuditHandler  *handlers.AuditHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize storage (audit trail store)
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	app.initHandlers()

	logger.Info().
		Str("provider", string(cfg.LLM.Provider)).
		Bool("llm_available", app.LLMService != nil).
		Bool("audit_enabled", cfg.Storage.AuditEnabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase opens the embedded Badger store backing the LLM audit trail.
// The store is skipped entirely when auditing is disabled; an open failure
// degrades to a null audit logger rather than blocking startup.
func (a *App) initDatabase() error {
	if !a.Config.Storage.AuditEnabled {
		a.Logger.Debug().Msg("Audit storage disabled, skipping database")
		return nil
	}

	db, err := storage.NewBadgerDB(a.Logger, &a.Config.Storage)
	if err != nil {
		a.Logger.Warn().Err(err).
			Str("path", a.Config.Storage.Path).
			Msg("Failed to open audit store - LLM audit trail disabled")
		return nil
	}

	a.BadgerDB = db
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
func (a *App) initServices() error {
	// LLM service (Gemini embeddings plus the configured chat provider).
	// A missing or invalid API key disables the answering pipeline but the
	// server still starts, so /health can report the configuration state.
	llmService, auditLogger, err := llm.NewLLMService(a.Config, a.badgerStore(), a.Logger)
	if err != nil {
		a.LLMService = nil
		a.AuditLogger = llm.NewNullAuditLogger()
		a.Logger.Warn().Err(err).Msg("Failed to initialize LLM service - document answering will be unavailable")
		a.Logger.Info().Msg("To enable answering, set GEMINI_API_KEY or gemini.api_key in config")
	} else {
		a.LLMService = llmService
		a.AuditLogger = auditLogger

		// Probe connectivity in the background without disabling the
		// service; a transient provider outage at boot must not require a
		// restart to recover, and a slow probe must not delay startup.
		probe := a.LLMService
		common.SafeGo(a.Logger, "llm-health-probe", func() {
			if err := probe.HealthCheck(context.Background()); err != nil {
				a.Logger.Warn().Err(err).Msg("LLM service health check failed - calls may fail until the provider recovers")
			} else {
				a.Logger.Debug().Msg("LLM service health check passed")
			}
		})
	}

	// PDF extraction
	a.PDFExtractor = pdf.NewExtractor(a.Logger)
	a.Logger.Debug().Msg("PDF extractor initialized")

	// Document loader (URL fetch, upload handling, format sniffing)
	a.DocumentLoader = documents.NewService(a.Config, a.PDFExtractor, a.Logger)
	a.Logger.Debug().Msg("Document loader initialized")

	// Answering pipeline (requires the LLM service)
	if a.LLMService != nil {
		a.IndexBuilder = index.NewBuilder(a.Config, a.LLMService, a.AuditLogger, a.Logger)
		a.AnswerService = answer.NewService(a.Config, a.LLMService, a.AuditLogger, a.Logger)
		a.QAService = qa.NewService(a.DocumentLoader, a.IndexBuilder, a.AnswerService, a.Logger)
		a.Logger.Debug().Msg("QA pipeline initialized")
	} else {
		a.Logger.Debug().Msg("QA pipeline not initialized (LLM service unavailable)")
	}

	// Bearer token validation
	a.AuthService = auth.NewService(a.Config, a.Logger)

	// Temp directory janitor
	a.JanitorService = janitor.NewService(a.Config, a.Logger)
	if err := a.JanitorService.Start(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to start janitor service")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.HealthHandler = handlers.NewHealthHandler(a.Config, a.Logger)
	a.RunHandler = handlers.NewRunHandler(a.QAService, a.AuthService, a.Config, a.Logger)
	a.AuditHandler = handlers.NewAuditHandler(a.AuditLogger, a.AuthService, a.Logger)
	a.Logger.Debug().Msg("HTTP handlers initialized")
}

// badgerStore returns the underlying badgerhold store, or nil when auditing
// is disabled or the store failed to open.
func (a *App) badgerStore() *badgerhold.Store {
	if a.BadgerDB == nil {
		return nil
	}
	return a.BadgerDB.Store()
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop the janitor before anything it might sweep against
	if a.JanitorService != nil {
		a.JanitorService.Stop()
	}

	// Close LLM provider clients
	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		} else {
			a.Logger.Info().Msg("LLM service closed")
		}
	}

	// Close the audit logger before its backing store
	if a.AuditLogger != nil {
		if err := a.AuditLogger.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close audit logger")
		}
	}

	// Close storage last
	if a.BadgerDB != nil {
		if err := a.BadgerDB.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
