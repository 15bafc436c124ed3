package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/service"
)

// Router sends each event to the sink of its channel.
type Router struct {
	sinks    map[service.Channel]service.NotificationSink
	fallback service.NotificationSink
}

// NewRouter creates a router. Events of channels without a sink go to fallback.
func NewRouter(fallback service.NotificationSink) *Router {
	return &Router{
		sinks:    make(map[service.Channel]service.NotificationSink),
		fallback: fallback,
	}
}

// Route registers the sink of a channel.
func (r *Router) Route(ch service.Channel, sink service.NotificationSink) *Router {
	r.sinks[ch] = sink
	return r
}

func (r *Router) Announce(ctx context.Context, e service.Event) {
	if sink, ok := r.sinks[e.Channel()]; ok {
		sink.Announce(ctx, e)
		return
	}
	if r.fallback != nil {
		r.fallback.Announce(ctx, e)
	}
}

// LogSink writes announcements to the log.
type LogSink struct{}

func (LogSink) Announce(ctx context.Context, e service.Event) {
	entry := logrus.WithField("event", e.Kind.String())
	if e.PlayerName != "" {
		entry = entry.WithField("player", e.PlayerName)
	}
	for _, msg := range Render(e, "") {
		for _, em := range msg.Embeds {
			entry.Infof("%s %s", em.Title, em.Description)
		}
		if msg.Content != "" {
			entry.Info(msg.Content)
		}
	}
}
