package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	agentadapter "github.com/ahmedfahim21/fingreat-go/adapters/agent"
	"github.com/ahmedfahim21/fingreat-go/adapters/analysis"
	audioadapter "github.com/ahmedfahim21/fingreat-go/adapters/audio"
	"github.com/ahmedfahim21/fingreat-go/adapters/kv"
	"github.com/ahmedfahim21/fingreat-go/adapters/market"
	"github.com/ahmedfahim21/fingreat-go/adapters/stt"
	"github.com/ahmedfahim21/fingreat-go/adapters/tts"
	"github.com/ahmedfahim21/fingreat-go/domain/repositories"
	"github.com/ahmedfahim21/fingreat-go/internal/api"
	"github.com/ahmedfahim21/fingreat-go/usecase"
)

func main() {
	// Load .env file if present
	godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx := context.Background()

	// Durable session store
	store, err := kv.NewBadgerStore(kv.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.Error(err))
	}
	defer store.Close()
	sessionStore := usecase.NewSessionStore(store, logger)

	// Streaming analysis client
	analyzer, err := analysis.NewClient(analysis.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to configure analysis client", zap.Error(err))
	}

	// Market data feed
	marketClient, err := market.NewClient(market.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to configure market client", zap.Error(err))
	}

	// Initialize usecase services
	sessionService := usecase.NewSessionService(analyzer, sessionStore, logger)
	agentService := usecase.NewAgentService(buildAgent(ctx, logger), sessionStore, logger)
	voiceService := buildVoiceService(ctx, sessionService, logger)
	if voiceService != nil {
		defer voiceService.Close()
	}

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Initialize API routes
	api.InitRoutes(e, &api.Handlers{
		Sessions: sessionService,
		Agents:   agentService,
		Market:   marketClient,
		Voice:    voiceService,
		Logger:   logger,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("FinGReaT orchestrator started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// buildAgent picks the follow-up agent: the master agent on the analysis
// backend when configured, a direct Gemini client as fallback.
func buildAgent(ctx context.Context, logger *zap.Logger) repositories.ConversationalAgent {
	if remote, err := agentadapter.NewRemoteAgent(agentadapter.NewRemoteConfigFromEnv(), logger); err == nil {
		logger.Info("Using remote master agent")
		return remote
	}

	gemini, err := agentadapter.NewGeminiAgent(ctx, agentadapter.NewGeminiConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("No follow-up agent configured: set ANALYSIS_API_URL or GEMINI_API_KEY", zap.Error(err))
	}
	logger.Info("Using direct Gemini agent")
	return gemini
}

// buildVoiceService assembles the voice pipeline. A missing audio gateway
// disables voice mode rather than failing startup; the rest of the
// orchestrator works without it.
func buildVoiceService(ctx context.Context, submitter usecase.PromptSubmitter, logger *zap.Logger) *usecase.VoiceService {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	gateway, err := audioadapter.Dial(dialCtx, audioadapter.NewConfigFromEnv(), logger)
	if err != nil {
		logger.Warn("Audio gateway unavailable, voice mode disabled", zap.Error(err))
		return nil
	}

	transcriber := buildTranscriber(logger)
	synthesizer := buildSynthesizer(logger)

	return usecase.NewVoiceService(
		gateway,
		gateway,
		transcriber,
		synthesizer,
		submitter,
		usecase.NewVoiceOptionsFromEnv(logger),
		logger,
	)
}

// buildTranscriber picks the STT backend: Whisper when an API key is
// configured, Google Cloud when its credentials are, a mock otherwise.
func buildTranscriber(logger *zap.Logger) repositories.SpeechToText {
	if whisper, err := stt.NewWhisperSTT(stt.NewWhisperConfigFromEnv(), logger); err == nil {
		logger.Info("Using Whisper speech-to-text")
		return whisper
	}
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		logger.Info("Using Google Cloud speech-to-text")
		return stt.NewGoogleSTT(logger)
	}
	logger.Warn("No speech-to-text configured, using mock")
	return stt.NewMockSTT("", logger)
}

// buildSynthesizer picks the TTS backend: OpenAI when an API key is
// configured, a mock otherwise.
func buildSynthesizer(logger *zap.Logger) repositories.TextToSpeech {
	if openai, err := tts.NewOpenAITTS(tts.NewOpenAIConfigFromEnv(), logger); err == nil {
		logger.Info("Using OpenAI text-to-speech")
		return openai
	}
	logger.Warn("No text-to-speech configured, using mock")
	return tts.NewMockTTS(repositories.AudioClip{Encoding: "pcm_s16le", SampleRate: 24000}, logger)
}
