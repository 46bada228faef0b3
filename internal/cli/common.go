package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/regkit/internal/clock"
	"github.com/danieljhkim/regkit/internal/config"
	"github.com/danieljhkim/regkit/internal/confirm"
	"github.com/danieljhkim/regkit/internal/ctxlog"
	"github.com/danieljhkim/regkit/internal/engine"
	"github.com/danieljhkim/regkit/internal/fsops"
	"github.com/danieljhkim/regkit/internal/hash"
	"github.com/danieljhkim/regkit/internal/registrar"
	"github.com/danieljhkim/regkit/internal/tracing"
)

// shutdownTimeout bounds how long pending spans may take to flush.
const shutdownTimeout = 5 * time.Second

// session is what a command needs to drive the engine.
type session struct {
	ctx      context.Context
	engine   *engine.Engine
	elastix  *registrar.Elastix
	provider *tracing.Provider
}

// close flushes pending spans. A flush failure is only logged.
func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), shutdownTimeout)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		ctxlog.FromContext(s.ctx).Warn("failed to flush traces", "error", err)
	}
}

// newSession creates an engine with real implementations of all dependencies.
// Logs and stdout-exported spans go to the command's stderr.
func newSession(cmd *cobra.Command, cfg config.Config, assumeYes bool) (*session, error) {
	logger := ctxlog.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	ctx := ctxlog.WithLogger(cmd.Context(), logger)

	provider, err := tracing.NewProvider(cfg.Tracing, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	elastix := registrar.NewElastix(cfg.Elastix.Binary)
	eng := engine.New(
		elastix,
		fsops.NewRealFS(),
		hash.NewSHA256Hasher(),
		&clock.RealClock{},
		newConfirmer(cmd, cfg, assumeYes),
		engine.WithTracer(provider.Tracer()),
	)

	return &session{ctx: ctx, engine: eng, elastix: elastix, provider: provider}, nil
}

// newConfirmer answers overwrite prompts. --yes skips the prompt; otherwise
// the user is asked on the command's stdin. In JSON mode the prompt goes to
// stderr so stdout stays machine-readable.
func newConfirmer(cmd *cobra.Command, cfg config.Config, assumeYes bool) confirm.Confirmer {
	if assumeYes {
		return confirm.Fixed(true)
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		out = cmd.ErrOrStderr()
	}
	return confirm.NewConsole(cmd.InOrStdin(), out, cfg.Confirm.Retries)
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// FormatError is formatError for the main package.
func FormatError(err error) string {
	return formatError(err)
}

// outputJSON writes a value as indented JSON to w.
func outputJSON(w io.Writer, v interface{}) error {
	s, err := formatJSON(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, s)
	return err
}

// errorString returns err's message, or "" for nil.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
