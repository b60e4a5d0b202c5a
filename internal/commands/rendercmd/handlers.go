package rendercmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-storefront/internal/commands"
	"github.com/goliatone/go-storefront/internal/logging"
	"github.com/goliatone/go-storefront/internal/render"
	"github.com/goliatone/go-storefront/pkg/interfaces"
)

// ErrRendererRequired is returned when the handler has no renderer.
var ErrRendererRequired = errors.New("rendercmd: page renderer required")

// PageRenderer renders storefront pages.
type PageRenderer interface {
	RenderPage(ctx context.Context, req render.Request) (*render.Page, error)
}

// RenderPageHandler renders pages through the shared command handler.
type RenderPageHandler struct {
	inner *commands.Handler[RenderPageCommand]
}

// NewRenderPageHandler constructs a handler wired to renderer.
func NewRenderPageHandler(renderer PageRenderer, logger interfaces.Logger, opts ...commands.HandlerOption[RenderPageCommand]) *RenderPageHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg RenderPageCommand) error {
		if renderer == nil {
			return ErrRendererRequired
		}
		page, err := renderer.RenderPage(ctx, msg.Request())
		if err != nil {
			return err
		}
		for _, d := range page.Diagnostics {
			baseLogger.Debug("render.page.diagnostic", "kind", d.Kind, "section", d.Section, "path", d.Path)
		}
		if msg.ResultCallback != nil {
			msg.ResultCallback(page)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[RenderPageCommand]{
		commands.WithLogger[RenderPageCommand](baseLogger),
		commands.WithOperation[RenderPageCommand]("render.page"),
		commands.WithMessageFields(func(msg RenderPageCommand) map[string]any {
			return map[string]any{
				"store_id": msg.StoreID,
				"theme_id": msg.ThemeID,
				"path":     msg.Path,
			}
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[RenderPageCommand](baseLogger, commands.DefaultSlowThreshold)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RenderPageHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[RenderPageCommand].Execute.
func (h *RenderPageHandler) Execute(ctx context.Context, msg RenderPageCommand) error {
	return h.inner.Execute(ctx, msg)
}
