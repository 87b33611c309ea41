package apiclient

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"sync/atomic"
	"testing"
	"time"

	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/httpapi"
	"github.com/park285/chesspal/internal/msgcat"
	svcchess "github.com/park285/chesspal/internal/service/chess"
	"github.com/park285/chesspal/pkg/chessdto"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
)

func serve(t *testing.T, handler fasthttp.RequestHandler) *Client {
	t.Helper()
	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: handler}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() {
		_ = srv.Shutdown()
		_ = ln.Close()
	})
	return NewClient("http://chesspal.test",
		WithDial(func(string) (net.Conn, error) { return ln.Dial() }),
		WithTimeout(2*time.Second),
		WithPlayerID("alice"),
	)
}

func TestAgainstServer(t *testing.T) {
	svc, err := svcchess.NewService(svcchess.NewMemoryStore(), nil,
		corechess.NewSelector(rand.New(rand.NewSource(1))), svcchess.Config{}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	c := serve(t, httpapi.NewServer(svc, cat, nil, httpapi.Options{}).Handler)
	ctx := context.Background()

	if err := c.Health(ctx); err != nil {
		t.Fatalf("Health: %v", err)
	}
	game, err := c.CreateGame(ctx, chessdto.CreateGameRequest{Type: "local"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	moved, err := c.Move(ctx, game.ID, "g1", "f3")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if last := moved.State.Moves[len(moved.State.Moves)-1]; last.Notation != "Kf3" {
		t.Errorf("notation = %q; want Kf3", last.Notation)
	}

	_, err = c.Move(ctx, game.ID, "g1", "f3")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != fasthttp.StatusUnprocessableEntity || apiErr.Body.Code != "empty_square" {
		t.Fatalf("second Move err = %v; want 422 empty_square", err)
	}

	if err := c.DeleteGame(ctx, game.ID); err != nil {
		t.Fatalf("DeleteGame: %v", err)
	}
	if _, err := c.GetGame(ctx, game.ID); !errors.As(err, &apiErr) || apiErr.Status != fasthttp.StatusNotFound {
		t.Fatalf("GetGame after delete err = %v; want 404", err)
	}
}

func TestHealthRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(rc *fasthttp.RequestCtx) {
		if calls.Add(1) < 3 {
			rc.SetStatusCode(fasthttp.StatusServiceUnavailable)
			return
		}
		rc.SetBodyString("ok")
	})
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if n := calls.Load(); n != 3 {
		t.Errorf("calls = %d; want 3", n)
	}
}

func TestNoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	c := serve(t, func(rc *fasthttp.RequestCtx) {
		calls.Add(1)
		rc.SetStatusCode(fasthttp.StatusConflict)
		rc.SetBodyString(`{"code":"not_your_turn","message":"not your turn"}`)
	})
	_, err := c.GetGame(context.Background(), "g1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Body.Code != "not_your_turn" {
		t.Fatalf("err = %v; want not_your_turn", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d; want 1", n)
	}
}

func TestBackoffDuration(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{9, 3200 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := backoffDuration(tt.attempt); got != tt.want {
			t.Errorf("backoffDuration(%d) = %s; want %s", tt.attempt, got, tt.want)
		}
	}
}
