package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/msgcat"
	svcchess "github.com/park285/chesspal/internal/service/chess"
	"github.com/park285/chesspal/pkg/chessdto"
	"github.com/valyala/fasthttp"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	svc, err := svcchess.NewService(
		svcchess.NewMemoryStore(),
		svcchess.NewMemoryRepository(),
		corechess.NewSelector(rand.New(rand.NewSource(3))),
		svcchess.Config{},
		nil,
	)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	cat, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return NewServer(svc, cat, nil, opts)
}

func call(s *Server, method, uri, body string) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != "" {
		req.SetBodyString(body)
	}
	var rc fasthttp.RequestCtx
	rc.Init(&req, nil, nil)
	s.Handler(&rc)
	return &rc
}

func decode[T any](t *testing.T, rc *fasthttp.RequestCtx) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rc.Response.Body(), &out); err != nil {
		t.Fatalf("decode %q: %v", rc.Response.Body(), err)
	}
	return out
}

func createGame(t *testing.T, s *Server, body string) chessdto.GameResponse {
	t.Helper()
	rc := call(s, fasthttp.MethodPost, "/api/games", body)
	if rc.Response.StatusCode() != fasthttp.StatusCreated {
		t.Fatalf("create status = %d body=%s", rc.Response.StatusCode(), rc.Response.Body())
	}
	return decode[chessdto.GameResponse](t, rc)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Options{})
	rc := call(s, fasthttp.MethodGet, "/healthz", "")
	if rc.Response.StatusCode() != fasthttp.StatusOK || string(rc.Response.Body()) != "ok" {
		t.Fatalf("healthz = %d %q", rc.Response.StatusCode(), rc.Response.Body())
	}

	down := newTestServer(t, Options{Checks: map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}})
	rc = call(down, fasthttp.MethodGet, "/healthz", "")
	if rc.Response.StatusCode() != fasthttp.StatusServiceUnavailable {
		t.Fatalf("failing check status = %d", rc.Response.StatusCode())
	}
}

func TestCreateAndPlay(t *testing.T) {
	s := newTestServer(t, Options{})
	game := createGame(t, s, `{"type":"local","time":{"minutes":5,"increment":2}}`)
	if game.ID == "" || game.State == nil {
		t.Fatalf("incomplete game response: %+v", game)
	}
	if game.State.WhiteTimeMs != 300000 {
		t.Errorf("white clock = %d; want 300000", game.State.WhiteTimeMs)
	}
	if game.ShareURL != "" {
		t.Errorf("local game got share url %q", game.ShareURL)
	}

	rc := call(s, fasthttp.MethodGet, "/api/games/"+game.ID+"/destinations?square=e2", "")
	if rc.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("destinations status = %d body=%s", rc.Response.StatusCode(), rc.Response.Body())
	}
	dests := decode[chessdto.DestinationsResponse](t, rc)
	if strings.Join(dests.Destinations, ",") != "e3,e4" {
		t.Errorf("destinations = %v; want [e3 e4]", dests.Destinations)
	}

	rc = call(s, fasthttp.MethodPost, "/api/games/"+game.ID+"/moves", `{"from":"e2","to":"e4"}`)
	if rc.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("move status = %d body=%s", rc.Response.StatusCode(), rc.Response.Body())
	}
	moved := decode[chessdto.GameResponse](t, rc)
	if moved.State.CurrentTurn != corechess.Black || len(moved.State.Moves) != 1 {
		t.Fatalf("after e4: turn=%s moves=%d", moved.State.CurrentTurn, len(moved.State.Moves))
	}
	if moved.State.WhiteTimeMs != 302000 {
		t.Errorf("white clock after increment = %d; want 302000", moved.State.WhiteTimeMs)
	}

	rc = call(s, fasthttp.MethodGet, "/api/games/"+game.ID+"/pgn", "")
	pgn := decode[chessdto.PGNResponse](t, rc)
	if !strings.Contains(pgn.PGN, "1. e4 *") {
		t.Errorf("pgn missing movetext:\n%s", pgn.PGN)
	}

	rc = call(s, fasthttp.MethodGet, "/api/games", "")
	list := decode[chessdto.ListGamesResponse](t, rc)
	if len(list.Games) != 1 || list.Games[0].ID != game.ID {
		t.Errorf("list = %+v", list.Games)
	}

	rc = call(s, fasthttp.MethodDelete, "/api/games/"+game.ID, "")
	if rc.Response.StatusCode() != fasthttp.StatusNoContent {
		t.Fatalf("delete status = %d", rc.Response.StatusCode())
	}
	rc = call(s, fasthttp.MethodGet, "/api/games/"+game.ID, "")
	if rc.Response.StatusCode() != fasthttp.StatusNotFound {
		t.Fatalf("get after delete status = %d", rc.Response.StatusCode())
	}
}

func TestOnlineShareURL(t *testing.T) {
	s := newTestServer(t, Options{PublicURL: "https://chess.example"})
	game := createGame(t, s, `{"type":"online","playerColor":"white"}`)
	if game.State.Status != corechess.StatusWaiting {
		t.Errorf("status = %s; want waiting", game.State.Status)
	}
	if want := "https://chess.example/game/" + game.ID; game.ShareURL != want {
		t.Errorf("share url = %q; want %q", game.ShareURL, want)
	}

	rc := call(s, fasthttp.MethodPost, "/api/games/"+game.ID+"/moves", `{"from":"e2","to":"e4"}`)
	if rc.Response.StatusCode() != fasthttp.StatusConflict {
		t.Fatalf("move on waiting game status = %d", rc.Response.StatusCode())
	}
	if got := decode[chessdto.ErrorResponse](t, rc); got.Code != "game_waiting" {
		t.Errorf("code = %q; want game_waiting", got.Code)
	}

	rc = call(s, fasthttp.MethodPost, "/api/games/"+game.ID+"/join", "")
	if joined := decode[chessdto.GameResponse](t, rc); joined.State.Status != corechess.StatusActive {
		t.Errorf("joined status = %s; want active", joined.State.Status)
	}
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t, Options{})
	game := createGame(t, s, `{"type":"local"}`)
	base := "/api/games/" + game.ID

	tests := []struct {
		name   string
		method string
		uri    string
		body   string
		status int
		code   string
	}{
		{"unknown game", fasthttp.MethodGet, "/api/games/nope", "", fasthttp.StatusNotFound, "game_not_found"},
		{"bad json", fasthttp.MethodPost, "/api/games", "{", fasthttp.StatusBadRequest, "bad_request"},
		{"empty body", fasthttp.MethodPost, base + "/moves", "", fasthttp.StatusBadRequest, "bad_request"},
		{"bad type", fasthttp.MethodPost, "/api/games", `{"type":"blitz"}`, fasthttp.StatusUnprocessableEntity, "invalid_options"},
		{"bad square", fasthttp.MethodPost, base + "/moves", `{"from":"z9","to":"e4"}`, fasthttp.StatusUnprocessableEntity, "out_of_bounds"},
		{"empty square", fasthttp.MethodPost, base + "/moves", `{"from":"e4","to":"e5"}`, fasthttp.StatusUnprocessableEntity, "empty_square"},
		{"wrong side", fasthttp.MethodPost, base + "/moves", `{"from":"e7","to":"e5"}`, fasthttp.StatusConflict, "not_your_turn"},
		{"illegal", fasthttp.MethodPost, base + "/moves", `{"from":"e2","to":"e5"}`, fasthttp.StatusUnprocessableEntity, "illegal_move"},
		{"nothing to undo", fasthttp.MethodPost, base + "/undo", "", fasthttp.StatusConflict, "undo_not_available"},
		{"no ai in local", fasthttp.MethodPost, base + "/ai", "", fasthttp.StatusConflict, "no_ai_move"},
		{"bad method", fasthttp.MethodPut, base + "/moves", "", fasthttp.StatusMethodNotAllowed, "method_not_allowed"},
		{"unknown route", fasthttp.MethodGet, "/api/nope", "", fasthttp.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rc := call(s, tt.method, tt.uri, tt.body)
			if rc.Response.StatusCode() != tt.status {
				t.Fatalf("status = %d; want %d (body=%s)", rc.Response.StatusCode(), tt.status, rc.Response.Body())
			}
			got := decode[chessdto.ErrorResponse](t, rc)
			if got.Code != tt.code {
				t.Errorf("code = %q; want %q", got.Code, tt.code)
			}
			if got.Message == "" {
				t.Error("empty message")
			}
		})
	}
}

func TestResignAndProfile(t *testing.T) {
	s := newTestServer(t, Options{})
	game := createGame(t, s, `{"type":"ai","difficulty":"easy"}`)

	var req fasthttp.Request
	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI("/api/games/" + game.ID + "/resign")
	req.Header.Set(headerPlayerID, "alice")
	var rc fasthttp.RequestCtx
	rc.Init(&req, nil, nil)
	s.Handler(&rc)
	if rc.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("resign status = %d body=%s", rc.Response.StatusCode(), rc.Response.Body())
	}

	var preq fasthttp.Request
	preq.Header.SetMethod(fasthttp.MethodGet)
	preq.SetRequestURI("/api/profile")
	preq.Header.Set(headerPlayerID, "alice")
	var prc fasthttp.RequestCtx
	prc.Init(&preq, nil, nil)
	s.Handler(&prc)
	profile := decode[chessdto.ProfileResponse](t, &prc)
	if profile.GamesPlayed != 1 || profile.Losses != 1 {
		t.Errorf("profile = %+v; want one loss", profile)
	}

	again := call(s, fasthttp.MethodPost, "/api/games/"+game.ID+"/resign", "")
	if again.Response.StatusCode() != fasthttp.StatusConflict {
		t.Errorf("second resign status = %d; want 409", again.Response.StatusCode())
	}
}

func TestShareURLFromCatalog(t *testing.T) {
	dir := t.TempDir()
	body := "game:\n  share: \"{{.BaseURL}}/join?game={{.ID}}\"\n"
	if err := os.WriteFile(filepath.Join(dir, "share.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, Options{PublicURL: "https://chess.example/"})
	cat, err := msgcat.New(dir)
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	s.cat = cat

	game := createGame(t, s, `{"type":"online"}`)
	if want := "https://chess.example/join?game=" + game.ID; game.ShareURL != want {
		t.Errorf("share url = %q; want %q", game.ShareURL, want)
	}
}

type ctxKey struct{}

func TestHandlerContextDerivesFromRequest(t *testing.T) {
	var seen any
	s := newTestServer(t, Options{Checks: map[string]HealthCheck{
		"trace": func(ctx context.Context) error {
			seen = ctx.Value(ctxKey{})
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("no deadline")
			}
			return nil
		},
	}})

	var req fasthttp.Request
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI("/healthz")
	var rc fasthttp.RequestCtx
	rc.Init(&req, nil, nil)
	rc.SetUserValue(ctxKey{}, "req-42")
	s.Handler(&rc)

	if rc.Response.StatusCode() != fasthttp.StatusOK {
		t.Fatalf("healthz = %d %q", rc.Response.StatusCode(), rc.Response.Body())
	}
	if seen != "req-42" {
		t.Errorf("request value in handler context = %v; want req-42", seen)
	}
}
