// Package main provides the voiceassist CLI.
//
// The CLI reads a request as JSON from stdin, runs it through the
// assistant pipeline, and writes the response JSON to stdout. Designed
// for shell use and subprocess-based interop.
//
// Usage:
//
//	# Process a query
//	echo '{"query": "What is in my inbox?"}' | voiceassist query
//
//	# Authorize a pending action from an earlier turn
//	echo '{"session_id": "sess_...", "authorization_code": "123456"}' | voiceassist query
//
//	# Print version information
//	voiceassist version
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/config"
	"github.com/execdesk-labs/voiceassist/voicecore/eventbus"
	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/observability"
	"github.com/execdesk-labs/voiceassist/voicecore/orchestrator"
)

const (
	cmdQuery   = "query"
	cmdVersion = "version"
)

// Version information
const (
	Version   = "0.3.0"
	BuildTime = "2026-08-28"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	flags := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := flags.String("config", "", "path to YAML config file")
	envPath := flags.String("env", ".env", "path to .env file")
	mock := flags.Bool("mock", false, "use scripted LLM backends instead of real vendors")
	_ = flags.Parse(os.Args[2:])

	switch cmd {
	case cmdVersion:
		handleVersion()
	case cmdQuery:
		if err := handleQuery(os.Stdin, os.Stdout, *configPath, *envPath, *mock); err != nil {
			writeError("query_error", err.Error())
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: voiceassist <command> [flags]

Commands:
  query    Read a request JSON from stdin, process it, write response JSON to stdout
  version  Print version information

Flags:
  -config  Path to YAML config file (defaults used when omitted)
  -env     Path to .env file with vendor API keys (default ".env")
  -mock    Run against scripted LLM backends; no API keys needed

Input/Output:
  query reads JSON from stdin and writes JSON to stdout.
  Errors are written to stderr.

Examples:
  echo '{"query":"Draft a reply to John"}' | voiceassist query -mock
  echo '{"session_id":"sess_ab12","authorization_code":"123456"}' | voiceassist query -mock`)
}

func handleVersion() {
	writeJSON(os.Stdout, map[string]string{
		"version":    Version,
		"build_time": BuildTime,
	})
}

// handleQuery runs one request through a freshly wired pipeline.
//
// Each CLI invocation is its own process, so the in-memory session store
// cannot carry pending actions across invocations; multi-turn authorization
// needs the library embedded in a resident process. The flow still
// exercises the full pipeline including code issuance.
func handleQuery(in io.Reader, out io.Writer, configPath, envPath string, mock bool) error {
	// Missing .env is fine; vendor keys can come from the environment.
	_ = godotenv.Load(envPath)

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	// stdout is reserved for the response JSON; logs go to a file.
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "voiceassist.log"
	}
	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: logFile})

	if endpoint := os.Getenv("OTLP_ENDPOINT"); endpoint != "" {
		shutdown, err := observability.InitTracer("voiceassist", endpoint)
		if err != nil {
			logger.Warn("tracer init failed", "error", err.Error())
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = shutdown(ctx)
			}()
		}
	}

	backends, err := buildBackends(cfg, mock)
	if err != nil {
		return err
	}

	deps, err := orchestrator.BuildDeps(cfg, orchestrator.Providers{
		Email:    demoEmailProvider(),
		Calendar: demoCalendarProvider(),
		Sink:     adapters.NewMemorySink(),
		Backends: backends,
	}, eventbus.NewInMemoryBus(), logger)
	if err != nil {
		return err
	}
	orch := orchestrator.New(deps)

	raw, err := io.ReadAll(io.LimitReader(in, 1<<20))
	if err != nil {
		return err
	}
	var req orchestrator.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("invalid request JSON: %w", err)
	}

	resp, err := orch.ProcessQuery(context.Background(), req)
	if err != nil {
		return err
	}
	writeJSON(out, resp)
	return nil
}

// buildBackends constructs the reasoning cascade. Mock mode replaces every
// configured backend with scripted responses so the CLI runs offline.
func buildBackends(cfg *config.Config, mock bool) ([]llm.Backend, error) {
	if mock {
		return []llm.Backend{
			{Kind: llm.KindMock, Model: "scripted", Provider: llm.NewScripted(
				`{"intent": "triage_inbox", "confidence": 0.9}`,
				"Medium priority. Review the inbox when convenient.",
			)},
		}, nil
	}

	factory := llm.NewFactory(llm.FactoryOptions{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		GeminiKey:    os.Getenv("GEMINI_API_KEY"),
		DeepSeekKey:  os.Getenv("DEEPSEEK_API_KEY"),
		OllamaHost:   os.Getenv("OLLAMA_HOST"),
		Timeout:      time.Duration(cfg.LLMTimeout) * time.Second,
	})
	return factory.BuildAll(cfg.LLMBackends)
}

// demoEmailProvider seeds the mock inbox the CLI runs against. Real
// Gmail/Calendar integrations plug in as adapters implementations.
func demoEmailProvider() *adapters.MockEmailProvider {
	return adapters.NewMockEmailProvider(
		adapters.Thread{
			ThreadID: "thread_demo_1",
			From:     "sarah@clientcorp.com",
			Subject:  "Contract renewal",
			Preview:  "Could we get 30 minutes this week to walk through the renewal terms?",
			Unread:   true,
		},
		adapters.Thread{
			ThreadID: "thread_demo_2",
			From:     "mike@vendor.io",
			Subject:  "Invoice #4821",
			Preview:  "Attached is the invoice for August services.",
		},
	)
}

func demoCalendarProvider() *adapters.MockCalendarProvider {
	now := time.Now().UTC()
	return adapters.NewMockCalendarProvider(
		adapters.Event{
			EventID:   "event_demo_1",
			Title:     "Weekly team sync",
			Organizer: "team@execdesk.io",
			Start:     now.Add(26 * time.Hour),
			End:       now.Add(27 * time.Hour),
		},
	)
}

func writeJSON(out io.Writer, v any) {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode output: %v\n", err)
	}
}

func writeError(kind, message string) {
	payload := map[string]string{"error": kind, "message": message}
	raw, _ := json.Marshal(payload)
	fmt.Fprintln(os.Stderr, string(raw))
}
