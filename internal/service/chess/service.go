package chess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrInvalidOptions   = errors.New("invalid game options")
	ErrGameNotFound     = errors.New("chess game not found")
	ErrNotJoinable      = errors.New("chess game is not joinable")
	ErrGameFinished     = errors.New("chess game already finished")
	ErrGameWaiting      = errors.New("chess game is waiting for an opponent")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrNoAIMove         = errors.New("no computer move available")
	ErrUndoNotAvailable = errors.New("no moves available to undo")
	ErrUndoOpponentMove = errors.New("cannot undo the opponent's move")
)

const (
	opponentComputer = "Computer"
	opponentHuman    = "Opponent"

	terminationResign  = "resignation"
	terminationDraw    = "agreement"
	terminationTimeout = "time forfeit"
)

type Config struct {
	// DefaultDifficulty is applied to AI games created without one.
	DefaultDifficulty corechess.Difficulty
	// AutoAIReply plays the computer's answer in the same update as the
	// human move.
	AutoAIReply bool
	// HistoryLimit trims the history returned by Profile; 0 keeps everything.
	HistoryLimit int
}

// GameView is a stored game together with derived read-only data.
type GameView struct {
	ID      string
	State   *corechess.GameState
	FEN     string
	Opening OpeningLabel
}

type Service struct {
	store    SessionStore
	repo     ProfileRepository
	selector *corechess.Selector
	cfg      Config
	logger   *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewService(store SessionStore, repo ProfileRepository, selector *corechess.Selector, cfg Config, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, errStoreNotAvailable
	}
	if repo == nil {
		repo = NewMemoryRepository()
	}
	if selector == nil {
		selector = corechess.NewSelector(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultDifficulty == "" {
		cfg.DefaultDifficulty = corechess.DifficultyMedium
	}
	preset, err := corechess.GetDifficulty(cfg.DefaultDifficulty)
	if err != nil {
		return nil, fmt.Errorf("default difficulty: %w", err)
	}
	cfg.DefaultDifficulty = preset.Name
	return &Service{
		store:    store,
		repo:     repo,
		selector: selector,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

func (s *Service) view(id string, state *corechess.GameState) *GameView {
	return &GameView{
		ID:      id,
		State:   state,
		FEN:     corechess.FEN(state),
		Opening: LabelOpening(state.Moves),
	}
}

func (s *Service) normalizeOptions(opts corechess.GameOptions) (corechess.GameOptions, error) {
	if !opts.Type.Valid() {
		return opts, fmt.Errorf("game type %q: %w", opts.Type, ErrInvalidOptions)
	}
	if opts.PlayerColor != "" && !opts.PlayerColor.Valid() {
		return opts, fmt.Errorf("player color %q: %w", opts.PlayerColor, ErrInvalidOptions)
	}
	// the selector only plays black, so the human side of an AI game is white
	if opts.Type == corechess.GameAI && opts.PlayerColor == corechess.Black {
		return opts, fmt.Errorf("ai games are played as white: %w", ErrInvalidOptions)
	}
	if opts.Type == corechess.GameAI && opts.Difficulty == "" {
		opts.Difficulty = s.cfg.DefaultDifficulty
	}
	if opts.Difficulty != "" {
		preset, err := corechess.GetDifficulty(opts.Difficulty)
		if err != nil {
			return opts, fmt.Errorf("%v: %w", err, ErrInvalidOptions)
		}
		opts.Difficulty = preset.Name
	}
	if tc := opts.Time; tc != nil {
		if tc.Minutes <= 0 || tc.Increment < 0 {
			return opts, fmt.Errorf("time control %d+%d: %w", tc.Minutes, tc.Increment, ErrInvalidOptions)
		}
	}
	return opts, nil
}

// CreateGame starts a game. Online games always wait for a second player.
func (s *Service) CreateGame(ctx context.Context, opts corechess.GameOptions) (*GameView, error) {
	opts, err := s.normalizeOptions(opts)
	if err != nil {
		return nil, err
	}
	state := corechess.NewGame(opts)
	if opts.Type == corechess.GameOnline {
		state.Status = corechess.StatusWaiting
	}
	id := s.newID()
	if err := s.store.Create(ctx, id, state); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	s.logger.Info("game_create",
		zap.String("game_id", id),
		zap.String("type", string(opts.Type)),
		zap.String("difficulty", string(opts.Difficulty)),
		zap.String("player_color", string(opts.PlayerColor)),
		zap.String("status", string(state.Status)),
	)
	return s.view(id, state), nil
}

// JoinGame activates a waiting online game.
func (s *Service) JoinGame(ctx context.Context, id string) (*GameView, error) {
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if cur.Options.Type != corechess.GameOnline {
			return nil, ErrNotJoinable
		}
		if cur.Status != corechess.StatusWaiting {
			return cur, nil
		}
		now := s.now().UTC()
		cur.Status = corechess.StatusActive
		cur.JoinedAt = &now
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("game_join", zap.String("game_id", id), zap.String("status", string(next.Status)))
	return s.view(id, next), nil
}

func (s *Service) GetGame(ctx context.Context, id string) (*GameView, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, ErrGameNotFound
	}
	return s.view(id, state), nil
}

func (s *Service) GameExists(ctx context.Context, id string) (bool, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return false, err
	}
	return state != nil, nil
}

func (s *Service) ListGames(ctx context.Context) ([]*GameView, error) {
	games, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]*GameView, 0, len(games))
	for _, g := range games {
		views = append(views, s.view(g.ID, g.State))
	}
	return views, nil
}

func (s *Service) DeleteGame(ctx context.Context, id string) error {
	ok, err := s.GameExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGameNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	s.logger.Info("game_delete", zap.String("game_id", id))
	return nil
}

// Destinations highlights origin and lists where the piece on it may move.
// Only pieces of the side to move can be selected.
func (s *Service) Destinations(ctx context.Context, id string, origin corechess.Position) (corechess.Board, []corechess.Position, error) {
	state, err := s.store.Load(ctx, id)
	if err != nil {
		return corechess.Board{}, nil, err
	}
	if state == nil {
		return corechess.Board{}, nil, ErrGameNotFound
	}
	p, err := state.Board.At(origin)
	if err != nil {
		return corechess.Board{}, nil, err
	}
	if p != nil && p.Color != state.CurrentTurn {
		return corechess.Board{}, nil, ErrNotYourTurn
	}
	board, err := corechess.Highlight(&state.Board, origin)
	if err != nil {
		return corechess.Board{}, nil, err
	}
	dests, err := corechess.PseudoLegalMoves(&state.Board, origin)
	if err != nil {
		return corechess.Board{}, nil, err
	}
	return board, dests, nil
}

func checkPlayable(state *corechess.GameState) error {
	switch {
	case state.Status == corechess.StatusWaiting:
		return ErrGameWaiting
	case state.Status.Terminal():
		return ErrGameFinished
	}
	return nil
}

// Play executes a human move. In AI games the computer plays black, so only
// white moves are accepted here.
func (s *Service) Play(ctx context.Context, id string, from, to corechess.Position) (*GameView, error) {
	var aiReply *corechess.MoveChoice
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if err := checkPlayable(cur); err != nil {
			return nil, err
		}
		p, err := cur.Board.At(from)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Color != cur.CurrentTurn {
			return nil, ErrNotYourTurn
		}
		if cur.Options.Type == corechess.GameAI && cur.CurrentTurn == corechess.Black {
			return nil, ErrNotYourTurn
		}
		next, err := corechess.ApplyMoveStrict(cur, from, to)
		if err != nil {
			return nil, err
		}
		if s.cfg.AutoAIReply {
			if choice, ok := s.selector.Select(next); ok {
				replied, err := corechess.ApplyMove(next, choice.From, choice.To)
				if err != nil {
					return nil, err
				}
				aiReply = &choice
				next = replied
			}
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}
	v := s.view(id, next)
	fields := []zap.Field{
		zap.String("game_id", id),
		zap.String("move_uci", from.String()+to.String()),
		zap.Int("ply", len(next.Moves)),
		zap.String("turn", string(next.CurrentTurn)),
		zap.String("eco_code", v.Opening.Code),
		zap.String("eco_title", v.Opening.Title),
	}
	if aiReply != nil {
		fields = append(fields, zap.String("ai_reply_uci", aiReply.From.String()+aiReply.To.String()))
	}
	s.logger.Info("game_move", fields...)
	return v, nil
}

// AIMove lets the computer play for the side to move.
func (s *Service) AIMove(ctx context.Context, id string) (*GameView, error) {
	var choice corechess.MoveChoice
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if err := checkPlayable(cur); err != nil {
			return nil, err
		}
		c, ok := s.selector.Select(cur)
		if !ok {
			return nil, ErrNoAIMove
		}
		choice = c
		return corechess.ApplyMove(cur, c.From, c.To)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("game_ai_move",
		zap.String("game_id", id),
		zap.String("move_uci", choice.From.String()+choice.To.String()),
		zap.String("difficulty", string(next.Options.Difficulty)),
		zap.Int("ply", len(next.Moves)),
	)
	return s.view(id, next), nil
}

// Undo takes back the last move. In online games a player may only take back
// their own move, i.e. not while it is their turn.
func (s *Service) Undo(ctx context.Context, id string) (*GameView, error) {
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if len(cur.Moves) == 0 {
			return nil, ErrUndoNotAvailable
		}
		if cur.Options.Type == corechess.GameOnline && cur.CurrentTurn == cur.Options.PlayerColor {
			return nil, ErrUndoOpponentMove
		}
		return corechess.Undo(cur)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("game_undo", zap.String("game_id", id), zap.Int("ply", len(next.Moves)))
	return s.view(id, next), nil
}

func playerColorOf(state *corechess.GameState) corechess.Color {
	if state.Options.PlayerColor.Valid() {
		return state.Options.PlayerColor
	}
	return corechess.White
}

// Resign ends the game as lost for player.
func (s *Service) Resign(ctx context.Context, id, player string) (*GameView, error) {
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if cur.Status.Terminal() {
			return nil, ErrGameFinished
		}
		return corechess.Finish(cur, corechess.StatusCheckmate), nil
	})
	if err != nil {
		return nil, err
	}
	winner := playerColorOf(next).Opponent()
	s.record(ctx, id, player, next, domain.ResultLoss, pgnResultFor(next.Status, winner), terminationResign)
	return s.view(id, next), nil
}

// OfferDraw ends the game as drawn. Offers are accepted immediately.
func (s *Service) OfferDraw(ctx context.Context, id, player string) (*GameView, error) {
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if cur.Status.Terminal() {
			return nil, ErrGameFinished
		}
		return corechess.Finish(cur, corechess.StatusDraw), nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, id, player, next, domain.ResultDraw, pgnDraw, terminationDraw)
	return s.view(id, next), nil
}

// Timeout flags the side whose clock ran out. The flagged side's clock is
// zeroed and the game ends.
func (s *Service) Timeout(ctx context.Context, id, player string, flagged corechess.Color) (*GameView, error) {
	if !flagged.Valid() {
		return nil, fmt.Errorf("flagged color %q: %w", flagged, ErrInvalidOptions)
	}
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		if err := checkPlayable(cur); err != nil {
			return nil, err
		}
		done := corechess.Finish(cur, corechess.StatusCheckmate)
		if flagged == corechess.White {
			done.WhiteTimeMs = 0
		} else {
			done.BlackTimeMs = 0
		}
		return done, nil
	})
	if err != nil {
		return nil, err
	}
	result := domain.ResultWin
	if flagged == playerColorOf(next) {
		result = domain.ResultLoss
	}
	s.record(ctx, id, player, next, result, pgnResultFor(next.Status, flagged.Opponent()), terminationTimeout)
	return s.view(id, next), nil
}

// Sync re-persists the game and stamps LastUpdated so pollers see a change.
func (s *Service) Sync(ctx context.Context, id string) (*GameView, error) {
	next, err := s.store.Update(ctx, id, func(cur *corechess.GameState) (*corechess.GameState, error) {
		now := s.now().UTC()
		cur.LastUpdated = &now
		return cur, nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(id, next), nil
}

// PGN exports the game with the result implied by its current status.
func (s *Service) PGN(ctx context.Context, id string) (string, error) {
	v, err := s.GetGame(ctx, id)
	if err != nil {
		return "", err
	}
	return buildPGN(s.pgnHeader(v.ID, "", v.State, pgnOngoing, ""), v.State.Moves), nil
}

func (s *Service) Profile(ctx context.Context, player string) (*domain.PlayerProfile, error) {
	p, err := s.repo.GetProfile(ctx, normalizePlayer(player))
	if err != nil {
		return nil, err
	}
	if s.cfg.HistoryLimit > 0 && len(p.History) > s.cfg.HistoryLimit {
		p.History = p.History[:s.cfg.HistoryLimit]
	}
	return p, nil
}

func normalizePlayer(player string) string {
	player = strings.TrimSpace(player)
	if player == "" {
		return "local"
	}
	return player
}

func opponentLabel(state *corechess.GameState) string {
	if state.Options.Type == corechess.GameAI {
		return opponentComputer
	}
	return opponentHuman
}

func (s *Service) pgnHeader(id, player string, state *corechess.GameState, result, termination string) pgnHeader {
	if player == "" {
		player = domain.DefaultPlayerName
	}
	white, black := player, opponentLabel(state)
	if playerColorOf(state) == corechess.Black {
		white, black = black, player
	}
	if result == pgnOngoing && state.Status.Terminal() {
		result = pgnResultFor(state.Status, "")
	}
	return pgnHeader{
		GameID:      id,
		White:       white,
		Black:       black,
		Date:        s.now(),
		Result:      result,
		Termination: termination,
		Opening:     LabelOpening(state.Moves),
		TimeControl: state.Options.Time,
	}
}

// record stores the finished game in the player's profile. Failures are
// logged; the game itself has already ended.
func (s *Service) record(ctx context.Context, id, player string, state *corechess.GameState, result domain.GameResult, pgnResult, termination string) {
	player = normalizePlayer(player)
	header := s.pgnHeader(id, player, state, pgnResult, termination)
	entry := domain.GameHistoryEntry{
		GameID:      id,
		Opponent:    opponentLabel(state),
		PlayerColor: string(playerColorOf(state)),
		Result:      result,
		Date:        s.now().UTC(),
		Moves:       len(state.Moves),
		ECOCode:     header.Opening.Code,
		ECOTitle:    header.Opening.Title,
		PGN:         buildPGN(header, state.Moves),
	}
	if _, err := s.repo.RecordResult(ctx, player, entry); err != nil {
		if errors.Is(err, ErrDuplicateResult) {
			return
		}
		s.logger.Error("game_result_persist_error", zap.String("game_id", id), zap.String("player", player), zap.Error(err))
		return
	}
	s.logger.Info("game_result",
		zap.String("game_id", id),
		zap.String("player", player),
		zap.String("result", string(result)),
		zap.String("termination", termination),
		zap.Int("moves", entry.Moves),
	)
}
