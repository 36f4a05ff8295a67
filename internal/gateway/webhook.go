package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/genoeg/kotori/internal/line"
)

// maxWebhookBody bounds the webhook payload size.
const maxWebhookBody = 1 << 20 // 1MB

// replyTimeout bounds the outbound reply call. Replies are dispatched after
// the webhook has been acknowledged, so they carry their own deadline.
const replyTimeout = 15 * time.Second

// handleWebhook receives LINE webhook deliveries. The platform retries on
// non-2xx, so the handler acknowledges as soon as the batch is processed;
// reply delivery failures are logged, never surfaced.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Line.ChannelSecret == "" {
		s.log.Error().Msg("webhook received but no channel secret configured")
		http.Error(w, "server misconfigured", http.StatusInternalServerError)
		return
	}

	rawBody, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	// Verification runs on the exact raw bytes, before any parsing.
	signature := r.Header.Get(line.SignatureHeader)
	if signature == "" || !line.VerifySignature(rawBody, s.cfg.Line.ChannelSecret, signature) {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature verification failed")
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	events, err := line.ParseEvents(rawBody)
	if err != nil {
		s.log.Error().Err(err).Msg("malformed webhook payload")
		http.Error(w, "malformed payload", http.StatusInternalServerError)
		return
	}

	// Events are handled in platform order. A failure on one event does
	// not stop the rest of the batch.
	for _, ev := range events {
		s.handleEvent(r.Context(), ev)
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (s *Server) handleEvent(ctx context.Context, ev line.Event) {
	// Every inbound message doubles as a journal entry.
	if s.logs != nil {
		if _, err := s.logs.Insert(ev.Text); err != nil {
			s.log.Error().Err(err).Msg("failed to journal inbound message")
		}
	}

	if s.runner == nil {
		s.log.Warn().Msg("no runner configured, dropping message")
		return
	}

	reply, err := s.runner.Run(ctx, ev.SenderID, ev.Text)
	if err != nil {
		s.log.Error().Err(err).Str("user", ev.SenderID).Msg("agent failed for event")
		return
	}
	if reply == "" || s.replier == nil {
		return
	}

	// Fire-and-forget: a reply token is single use and the platform has
	// already been acknowledged, so there is nothing to do on failure but
	// log it.
	go func(replyToken, text string) {
		replyCtx, cancel := context.WithTimeout(context.Background(), replyTimeout)
		defer cancel()
		if err := s.replier.Reply(replyCtx, replyToken, text); err != nil {
			s.log.Error().Err(err).Msg("reply delivery failed")
		}
	}(ev.ReplyToken, reply)
}
