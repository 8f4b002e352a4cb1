package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"job-agent/internal/domain/event"
)

// Notify broadcasts evt to every client. It never blocks.
func (h *Hub) Notify(evt event.Event) {
	if h == nil {
		return
	}
	if evt.Timestamp == "" {
		evt = stamp(evt)
	}
	b, err := json.Marshal(evt)
	if err != nil {
		if h.logger != nil {
			h.logger.Printf("[WS] encode event failed type=%s: %v", evt.Type, err)
		}
		return
	}
	h.Broadcast(b)
}

func stamp(evt event.Event) event.Event {
	e := event.New(evt.Type)
	e.JobID = evt.JobID
	e.Kind = evt.Kind
	e.Message = evt.Message
	e.Data = evt.Data
	return e
}

var errNoClients = errors.New("no presentation client connected")

// Opener asks connected clients to open a URL in a new browsing context.
type Opener struct {
	hub *Hub
}

func NewOpener(hub *Hub) *Opener {
	return &Opener{hub: hub}
}

func (o *Opener) OpenURL(_ context.Context, url string) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("empty url")
	}
	if o.hub.ClientCount() == 0 {
		return errNoClients
	}
	evt := event.New(event.TypeOpenURL)
	evt.Data = map[string]string{"url": url}
	o.hub.Notify(evt)
	return nil
}

var _ event.Notifier = (*Hub)(nil)
