package orchestrator

import (
	"fmt"
	"time"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/agents"
	"github.com/execdesk-labs/voiceassist/voicecore/authz"
	"github.com/execdesk-labs/voiceassist/voicecore/config"
	"github.com/execdesk-labs/voiceassist/voicecore/eventbus"
	"github.com/execdesk-labs/voiceassist/voicecore/llm"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/session"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Providers bundles the external integrations a deployment supplies.
type Providers struct {
	Email    adapters.EmailProvider
	Calendar adapters.CalendarProvider
	Sink     adapters.LogSink
	Backends []llm.Backend
}

// BuildDeps wires the standard pipeline from config and providers. The
// first backend is the primary and also serves classification and drafting;
// the full ordered list backs the reasoning cascade.
func BuildDeps(cfg *config.Config, providers Providers, bus eventbus.Bus, logger logging.Logger) (Deps, error) {
	if len(providers.Backends) == 0 {
		return Deps{}, fmt.Errorf("at least one llm backend is required")
	}

	tone, err := state.ToneFromString(cfg.DefaultTone)
	if err != nil {
		return Deps{}, err
	}

	backends := make([]llm.Backend, len(providers.Backends))
	for i, b := range providers.Backends {
		backends[i] = llm.Instrument(b)
	}
	primary := backends[0].Provider

	codeTTL := time.Duration(cfg.CodeTTLMinutes) * time.Minute
	codes := authz.NewService(
		authz.NewMemoryCodeStore(codeTTL),
		cfg.CodeLength,
		codeTTL,
		cfg.MaxCodeAttempts,
	)

	return Deps{
		Classifier: agents.NewClassifier(primary, logger),
		Retriever: agents.NewRetriever(providers.Email, providers.Calendar, logger,
			cfg.MaxThreadFetch, cfg.MaxSenderHistory, cfg.CalendarDaysAhead),
		Reasoner: agents.NewReasoner(backends, logger, cfg.AgentName),
		Drafter:  agents.NewDrafter(primary, logger, cfg.AgentName, tone),
		Gate:     agents.NewGate(codes, bus, logger),
		Executor: agents.NewExecutor(providers.Email, providers.Calendar, bus, logger),
		Auditor:  agents.NewAuditor(providers.Sink, logger, cfg.AgentName, cfg.MaxBufferedLogs),

		Sessions:     session.NewMemoryStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute),
		Bus:          bus,
		Logger:       logger,
		StageTimeout: time.Duration(cfg.StageTimeout) * time.Second,
	}, nil
}
