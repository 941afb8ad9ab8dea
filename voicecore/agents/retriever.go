package agents

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/execdesk-labs/voiceassist/voicecore/adapters"
	"github.com/execdesk-labs/voiceassist/voicecore/logging"
	"github.com/execdesk-labs/voiceassist/voicecore/state"
)

// Retriever fetches the external context a query needs, gated by intent:
// email context for inbox work, calendar context for scheduling, follow-up
// tasks for reminders. Each source is independently guarded; one provider
// being down degrades that source to empty and never aborts the others.
type Retriever struct {
	email    adapters.EmailProvider
	calendar adapters.CalendarProvider
	logger   logging.Logger

	maxThreads       int
	maxSenderHistory int
	calendarDays     int

	now func() time.Time
}

// NewRetriever creates a Retriever. Either provider may be nil, in which
// case its context stays empty.
func NewRetriever(email adapters.EmailProvider, calendar adapters.CalendarProvider, logger logging.Logger, maxThreads, maxSenderHistory, calendarDays int) *Retriever {
	return &Retriever{
		email:            email,
		calendar:         calendar,
		logger:           logger,
		maxThreads:       maxThreads,
		maxSenderHistory: maxSenderHistory,
		calendarDays:     calendarDays,
		now:              time.Now,
	}
}

func (r *Retriever) Name() string { return StageContextRetriever }

func (r *Retriever) Run(ctx context.Context, st *state.State) error {
	ctx, span := tracer.Start(ctx, "agents.retrieve")
	defer span.End()

	if st.Intent.NeedsEmailContext() && r.email != nil {
		st.EmailThreads = r.fetchThreads(ctx, st)
		st.SenderHistory = r.fetchSenderHistory(ctx, st)
	}

	if st.Intent.NeedsCalendarContext() && r.calendar != nil {
		st.CalendarEvents = r.fetchEvents(ctx, st)
		st.AvailabilitySlots = r.fetchAvailability(ctx, st)
	}

	if st.Intent.NeedsFollowUpContext() {
		// No follow-up provider is wired yet; the field stays present so
		// downstream stages and logs treat it uniformly.
		st.FollowUpTasks = []map[string]any{}
	}

	span.SetAttributes(
		attribute.Int("email_threads", len(st.EmailThreads)),
		attribute.Int("calendar_events", len(st.CalendarEvents)),
	)
	return nil
}

func (r *Retriever) fetchThreads(ctx context.Context, st *state.State) []adapters.Thread {
	threads, err := r.email.FetchThreads(ctx, adapters.FetchOptions{MaxResults: r.maxThreads})
	if err != nil {
		r.logger.Warn("email fetch degraded", "session_id", st.SessionID, "error", err.Error())
		return []adapters.Thread{}
	}
	return threads
}

// fetchSenderHistory looks up history for the first distinct senders in the
// fetched threads. The cap bounds external-call fan-out.
func (r *Retriever) fetchSenderHistory(ctx context.Context, st *state.State) map[string]adapters.SenderHistory {
	history := map[string]adapters.SenderHistory{}
	for _, thread := range st.EmailThreads {
		if len(history) >= r.maxSenderHistory {
			break
		}
		sender := thread.From
		if sender == "" {
			continue
		}
		if _, seen := history[sender]; seen {
			continue
		}
		h, err := r.email.GetSenderHistory(ctx, sender)
		if err != nil {
			r.logger.Warn("sender history degraded", "session_id", st.SessionID, "sender", sender, "error", err.Error())
			continue
		}
		history[sender] = *h
	}
	return history
}

func (r *Retriever) fetchEvents(ctx context.Context, st *state.State) []adapters.Event {
	start := r.now().UTC()
	end := start.AddDate(0, 0, r.calendarDays)
	events, err := r.calendar.GetEvents(ctx, start, end, "")
	if err != nil {
		r.logger.Warn("calendar fetch degraded", "session_id", st.SessionID, "error", err.Error())
		return []adapters.Event{}
	}
	return events
}

func (r *Retriever) fetchAvailability(ctx context.Context, st *state.State) []adapters.Slot {
	start := r.now().UTC()
	end := start.AddDate(0, 0, r.calendarDays)
	avail, err := r.calendar.CheckAvailability(ctx, start, end)
	if err != nil {
		r.logger.Warn("availability check degraded", "session_id", st.SessionID, "error", err.Error())
		return []adapters.Slot{}
	}
	if len(avail.FreeSlots) > 0 {
		return avail.FreeSlots
	}
	if !avail.Available {
		return []adapters.Slot{}
	}
	return []adapters.Slot{{Start: start, End: end}}
}
