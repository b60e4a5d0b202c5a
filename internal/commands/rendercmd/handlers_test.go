package rendercmd

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-storefront/internal/render"
)

type stubRenderer struct {
	requests []render.Request
	page     *render.Page
	err      error
}

func (s *stubRenderer) RenderPage(_ context.Context, req render.Request) (*render.Page, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.page, nil
}

func TestRenderPageHandlerDeliversPage(t *testing.T) {
	renderer := &stubRenderer{page: &render.Page{HTML: "<html></html>", Template: "index"}}
	handler := NewRenderPageHandler(renderer, nil)

	var got *render.Page
	err := handler.Execute(context.Background(), RenderPageCommand{
		StoreID:        " acme ",
		ThemeID:        "dawn",
		ResultCallback: func(page *render.Page) { got = page },
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got == nil || got.Template != "index" {
		t.Fatalf("expected page via callback, got %+v", got)
	}
	if len(renderer.requests) != 1 {
		t.Fatalf("expected one render, got %d", len(renderer.requests))
	}
	req := renderer.requests[0]
	if req.StoreID != "acme" || req.Path != "/" {
		t.Fatalf("expected normalized request, got %+v", req)
	}
}

func TestRenderPageCommandValidation(t *testing.T) {
	renderer := &stubRenderer{page: &render.Page{}}
	handler := NewRenderPageHandler(renderer, nil)

	err := handler.Execute(context.Background(), RenderPageCommand{ThemeID: "dawn", Path: "products/x"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if len(renderer.requests) != 0 {
		t.Fatalf("expected renderer not to run")
	}
}

func TestRenderPageHandlerWrapsFailures(t *testing.T) {
	boom := errors.New("provider down")
	handler := NewRenderPageHandler(&stubRenderer{err: boom}, nil)

	err := handler.Execute(context.Background(), RenderPageCommand{StoreID: "acme", ThemeID: "dawn", Path: "/"})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) {
		t.Fatalf("expected command category, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}

	err = NewRenderPageHandler(nil, nil).Execute(context.Background(), RenderPageCommand{StoreID: "acme", ThemeID: "dawn"})
	if !errors.Is(err, ErrRendererRequired) {
		t.Fatalf("expected renderer required, got %v", err)
	}
}
