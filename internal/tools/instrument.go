package tools

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/esgai/esgsearch/internal/models"
	"github.com/esgai/esgsearch/internal/security"
	"github.com/esgai/esgsearch/internal/service"
	"github.com/esgai/esgsearch/internal/store"
)

const recordTimeout = 5 * time.Second

// Instrument wraps a tool so each call is audited and recorded. The wrapped
// tool's result and error are returned unchanged; recording failures are only
// logged.
func Instrument(t Tool, creds models.Credentials, audit *security.AuditLogger, recorder store.Recorder) Tool {
	inner := t.Execute
	emailHash := security.HashIdentifier(creds.Email)

	t.Execute = func(ctx context.Context, input map[string]interface{}) (string, error) {
		start := time.Now()
		out, err := inner(ctx, input)
		elapsed := time.Since(start).Milliseconds()

		inv := store.NewInvocation(t.Name, emailHash)
		inv.Success = err == nil
		inv.DurationMs = elapsed
		if err != nil {
			inv.Error = err.Error()
			var statusErr *service.HTTPStatusError
			if errors.As(err, &statusErr) {
				inv.StatusCode = statusErr.StatusCode
			}
		}

		audit.LogToolCall(t.Name, creds.Email, inv.StatusCode, elapsed, inv.Success, inv.Error)

		if recorder != nil {
			rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
			if rerr := recorder.Record(rctx, inv); rerr != nil {
				log.Warn().Err(rerr).Str("tool", t.Name).Msg("failed to record tool invocation")
			}
			cancel()
		}
		return out, err
	}
	return t
}
