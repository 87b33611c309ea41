package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/park285/chesspal/internal/adapter/chesspresenter"
	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/msgcat"
	svcchess "github.com/park285/chesspal/internal/service/chess"
	"github.com/park285/chesspal/pkg/chessdto"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	headerPlayerID   = "X-Player-Id"
	defaultPlayerID  = "local"
	requestTimeout   = 10 * time.Second
	maxRequestBody   = 1 << 20
	gamesPath        = "/api/games"
	gamesPathPrefix  = "/api/games/"
	profilePath      = "/api/profile"
	healthPath       = "/healthz"
	contentTypeJSON  = "application/json"
	contentTypePlain = "text/plain; charset=utf-8"
)

var errBadRequest = errors.New("bad request")

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Options struct {
	// PublicURL prefixes share links for online games.
	PublicURL string
	Checks    map[string]HealthCheck
}

// Server exposes the session service as a JSON API.
type Server struct {
	svc    *svcchess.Service
	cat    *msgcat.Catalog
	logger *zap.Logger
	opts   Options
	srv    *fasthttp.Server
}

func NewServer(svc *svcchess.Service, cat *msgcat.Catalog, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{svc: svc, cat: cat, logger: logger, opts: opts}
	s.srv = &fasthttp.Server{
		Handler:            s.Handler,
		Name:               "chesspal",
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: maxRequestBody,
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("http_listen", zap.String("addr", addr))
	return s.srv.ListenAndServe(addr)
}

// Serve accepts connections from ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

// Handler routes a request. Paths under /api/games/ are /{id} or /{id}/{action}.
func (s *Server) Handler(rc *fasthttp.RequestCtx) {
	start := time.Now()
	// RequestCtx is done when the server shuts down
	ctx, cancel := context.WithTimeout(rc, requestTimeout)
	defer cancel()

	path := string(rc.Path())
	method := string(rc.Method())

	switch {
	case path == healthPath:
		s.handleHealth(ctx, rc)
	case path == profilePath && method == fasthttp.MethodGet:
		s.handleProfile(ctx, rc)
	case path == gamesPath && method == fasthttp.MethodGet:
		s.handleList(ctx, rc)
	case path == gamesPath && method == fasthttp.MethodPost:
		s.handleCreate(ctx, rc)
	case strings.HasPrefix(path, gamesPathPrefix):
		s.routeGame(ctx, rc, method, strings.TrimPrefix(path, gamesPathPrefix))
	default:
		s.writeJSON(rc, fasthttp.StatusNotFound, chessdto.ErrorResponse{Code: "not_found", Message: "no such route"})
	}

	s.logger.Debug("http_request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", rc.Response.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Server) routeGame(ctx context.Context, rc *fasthttp.RequestCtx, method, rest string) {
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	id := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	if id == "" || len(parts) > 2 {
		s.writeJSON(rc, fasthttp.StatusNotFound, chessdto.ErrorResponse{Code: "not_found", Message: "no such route"})
		return
	}

	type route struct{ method, action string }
	switch (route{method, action}) {
	case route{fasthttp.MethodGet, ""}:
		s.respondGame(rc, id)(s.svc.GetGame(ctx, id))
	case route{fasthttp.MethodDelete, ""}:
		if err := s.svc.DeleteGame(ctx, id); err != nil {
			s.writeError(rc, id, err)
			return
		}
		rc.SetStatusCode(fasthttp.StatusNoContent)
	case route{fasthttp.MethodPost, "join"}:
		s.respondGame(rc, id)(s.svc.JoinGame(ctx, id))
	case route{fasthttp.MethodGet, "destinations"}:
		s.handleDestinations(ctx, rc, id)
	case route{fasthttp.MethodPost, "moves"}:
		s.handleMove(ctx, rc, id)
	case route{fasthttp.MethodPost, "ai"}:
		s.respondGame(rc, id)(s.svc.AIMove(ctx, id))
	case route{fasthttp.MethodPost, "undo"}:
		s.respondGame(rc, id)(s.svc.Undo(ctx, id))
	case route{fasthttp.MethodPost, "resign"}:
		s.respondGame(rc, id)(s.svc.Resign(ctx, id, playerID(rc)))
	case route{fasthttp.MethodPost, "draw"}:
		s.respondGame(rc, id)(s.svc.OfferDraw(ctx, id, playerID(rc)))
	case route{fasthttp.MethodPost, "timeout"}:
		s.handleTimeout(ctx, rc, id)
	case route{fasthttp.MethodPost, "sync"}:
		s.respondGame(rc, id)(s.svc.Sync(ctx, id))
	case route{fasthttp.MethodGet, "pgn"}:
		pgn, err := s.svc.PGN(ctx, id)
		if err != nil {
			s.writeError(rc, id, err)
			return
		}
		s.writeJSON(rc, fasthttp.StatusOK, chessdto.PGNResponse{ID: id, PGN: pgn})
	default:
		s.writeJSON(rc, fasthttp.StatusMethodNotAllowed, chessdto.ErrorResponse{Code: "method_not_allowed", Message: "method not allowed"})
	}
}

// gameDTO maps a view and renders the share link through the catalog, so the
// link format can be overridden along with the other messages.
func (s *Server) gameDTO(v *svcchess.GameView) *chessdto.GameResponse {
	out := chesspresenter.ToDTOGame(v, s.opts.PublicURL)
	if out != nil && out.ShareURL != "" {
		data := map[string]any{"BaseURL": strings.TrimRight(s.opts.PublicURL, "/"), "ID": out.ID}
		out.ShareURL = s.cat.Text("game.share", data, out.ShareURL)
	}
	return out
}

func playerID(rc *fasthttp.RequestCtx) string {
	if v := strings.TrimSpace(string(rc.Request.Header.Peek(headerPlayerID))); v != "" {
		return v
	}
	return defaultPlayerID
}

// respondGame returns a sink for (view, err) service results.
func (s *Server) respondGame(rc *fasthttp.RequestCtx, id string) func(*svcchess.GameView, error) {
	return func(v *svcchess.GameView, err error) {
		if err != nil {
			s.writeError(rc, id, err)
			return
		}
		s.writeJSON(rc, fasthttp.StatusOK, s.gameDTO(v))
	}
}

func (s *Server) handleHealth(ctx context.Context, rc *fasthttp.RequestCtx) {
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health_check_failed", zap.String("check", name), zap.Error(err))
			rc.SetContentType(contentTypePlain)
			rc.SetStatusCode(fasthttp.StatusServiceUnavailable)
			rc.SetBodyString(name + ": unavailable")
			return
		}
	}
	rc.SetContentType(contentTypePlain)
	rc.SetStatusCode(fasthttp.StatusOK)
	rc.SetBodyString("ok")
}

func (s *Server) handleProfile(ctx context.Context, rc *fasthttp.RequestCtx) {
	p, err := s.svc.Profile(ctx, playerID(rc))
	if err != nil {
		s.writeError(rc, "", err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chesspresenter.ToDTOProfile(p))
}

func (s *Server) handleList(ctx context.Context, rc *fasthttp.RequestCtx) {
	views, err := s.svc.ListGames(ctx)
	if err != nil {
		s.writeError(rc, "", err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chesspresenter.ToDTOSummaries(views))
}

func (s *Server) handleCreate(ctx context.Context, rc *fasthttp.RequestCtx) {
	var req chessdto.CreateGameRequest
	if err := decodeBody(rc, &req); err != nil {
		s.writeError(rc, "", err)
		return
	}
	opts := corechess.GameOptions{
		Type:        corechess.GameType(strings.ToLower(strings.TrimSpace(req.Type))),
		Difficulty:  corechess.Difficulty(strings.TrimSpace(req.Difficulty)),
		PlayerColor: corechess.Color(strings.ToLower(strings.TrimSpace(req.PlayerColor))),
	}
	if req.Time != nil {
		opts.Time = &corechess.GameTime{Minutes: req.Time.Minutes, Increment: req.Time.Increment}
	}
	v, err := s.svc.CreateGame(ctx, opts)
	if err != nil {
		s.writeError(rc, "", err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusCreated, s.gameDTO(v))
}

func (s *Server) handleDestinations(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	origin, err := corechess.ParseSquare(string(rc.QueryArgs().Peek("square")))
	if err != nil {
		s.writeError(rc, id, err)
		return
	}
	board, dests, err := s.svc.Destinations(ctx, id, origin)
	if err != nil {
		s.writeError(rc, id, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, chesspresenter.ToDTODestinations(origin, board, dests))
}

func (s *Server) handleMove(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	var req chessdto.MoveRequest
	if err := decodeBody(rc, &req); err != nil {
		s.writeError(rc, id, err)
		return
	}
	from, err := corechess.ParseSquare(req.From)
	if err != nil {
		s.writeError(rc, id, err)
		return
	}
	to, err := corechess.ParseSquare(req.To)
	if err != nil {
		s.writeError(rc, id, err)
		return
	}
	v, err := s.svc.Play(ctx, id, from, to)
	if err != nil {
		s.writeErrorSquare(rc, id, req.From, err)
		return
	}
	s.writeJSON(rc, fasthttp.StatusOK, s.gameDTO(v))
}

func (s *Server) handleTimeout(ctx context.Context, rc *fasthttp.RequestCtx, id string) {
	var req chessdto.TimeoutRequest
	if err := decodeBody(rc, &req); err != nil {
		s.writeError(rc, id, err)
		return
	}
	color := corechess.Color(strings.ToLower(strings.TrimSpace(req.Color)))
	s.respondGame(rc, id)(s.svc.Timeout(ctx, id, playerID(rc), color))
}

func decodeBody(rc *fasthttp.RequestCtx, out any) error {
	body := rc.PostBody()
	if len(body) == 0 {
		return fmt.Errorf("empty body: %w", errBadRequest)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode body: %v: %w", err, errBadRequest)
	}
	return nil
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{svcchess.ErrGameNotFound, fasthttp.StatusNotFound, "game_not_found"},
	{errBadRequest, fasthttp.StatusBadRequest, "bad_request"},
	{svcchess.ErrInvalidOptions, fasthttp.StatusUnprocessableEntity, "invalid_options"},
	{corechess.ErrIllegalMove, fasthttp.StatusUnprocessableEntity, "illegal_move"},
	{corechess.ErrEmptySquare, fasthttp.StatusUnprocessableEntity, "empty_square"},
	{corechess.ErrOutOfBounds, fasthttp.StatusUnprocessableEntity, "out_of_bounds"},
	{svcchess.ErrNotYourTurn, fasthttp.StatusConflict, "not_your_turn"},
	{svcchess.ErrGameFinished, fasthttp.StatusConflict, "game_finished"},
	{svcchess.ErrGameWaiting, fasthttp.StatusConflict, "game_waiting"},
	{svcchess.ErrNotJoinable, fasthttp.StatusConflict, "not_joinable"},
	{svcchess.ErrConcurrentUpdate, fasthttp.StatusConflict, "concurrent_update"},
	{svcchess.ErrNoAIMove, fasthttp.StatusConflict, "no_ai_move"},
	{svcchess.ErrUndoNotAvailable, fasthttp.StatusConflict, "undo_not_available"},
	{svcchess.ErrUndoOpponentMove, fasthttp.StatusConflict, "undo_opponent_move"},
}

func (s *Server) writeError(rc *fasthttp.RequestCtx, id string, err error) {
	s.writeErrorSquare(rc, id, "", err)
}

func (s *Server) writeErrorSquare(rc *fasthttp.RequestCtx, id, square string, err error) {
	data := map[string]any{"ID": id, "Detail": err.Error(), "Square": square}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			s.writeJSON(rc, m.status, chessdto.ErrorResponse{
				Code:      m.code,
				Message:   s.cat.Text("errors."+m.code, data, err.Error()),
				Retryable: m.target == svcchess.ErrConcurrentUpdate,
			})
			return
		}
	}
	s.logger.Error("http_internal_error", zap.String("game_id", id), zap.Error(err))
	s.writeJSON(rc, fasthttp.StatusInternalServerError, chessdto.ErrorResponse{
		Code:    "internal",
		Message: s.cat.Text("errors.internal", data, "internal error"),
	})
}

func (s *Server) writeJSON(rc *fasthttp.RequestCtx, status int, body any) {
	raw, err := json.Marshal(body)
	if err != nil {
		s.logger.Error("http_encode_error", zap.Error(err))
		rc.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	rc.SetContentType(contentTypeJSON)
	rc.SetStatusCode(status)
	rc.SetBody(raw)
}
