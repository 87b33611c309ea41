package chess

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/park285/chesspal/internal/domain"
)

var ErrDuplicateResult = errors.New("chess result already recorded")

// ProfileRepository stores per-player statistics and recent game history.
type ProfileRepository interface {
	// GetProfile returns the default profile when the player has none.
	GetProfile(ctx context.Context, playerID string) (*domain.PlayerProfile, error)
	// RecordResult counts the entry and keeps the newest domain.MaxHistory
	// entries. A game id ever recorded for the player is ErrDuplicateResult,
	// including ids whose history entry has been trimmed.
	RecordResult(ctx context.Context, playerID string, entry domain.GameHistoryEntry) (*domain.PlayerProfile, error)
}

const profileSchema = `
CREATE TABLE IF NOT EXISTS chesspal_profiles (
	player_id    TEXT PRIMARY KEY,
	name         TEXT NOT NULL DEFAULT 'Player',
	games_played INTEGER NOT NULL DEFAULT 0,
	wins         INTEGER NOT NULL DEFAULT 0,
	losses       INTEGER NOT NULL DEFAULT 0,
	draws        INTEGER NOT NULL DEFAULT 0,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS chesspal_history (
	id           BIGSERIAL PRIMARY KEY,
	player_id    TEXT NOT NULL,
	game_id      TEXT NOT NULL,
	opponent     TEXT NOT NULL,
	player_color TEXT NOT NULL,
	result       TEXT NOT NULL,
	played_at    TIMESTAMPTZ NOT NULL,
	moves        INTEGER NOT NULL,
	eco_code     TEXT NOT NULL DEFAULT '',
	eco_title    TEXT NOT NULL DEFAULT '',
	pgn          TEXT NOT NULL DEFAULT '',
	UNIQUE (player_id, game_id)
);
CREATE TABLE IF NOT EXISTS chesspal_results (
	player_id   TEXT NOT NULL,
	game_id     TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (player_id, game_id)
);`

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ProfileRepository {
	return &repository{db: db}
}

// Migrate creates the profile tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, profileSchema); err != nil {
		return fmt.Errorf("migrate chesspal tables: %w", err)
	}
	return nil
}

func (r *repository) GetProfile(ctx context.Context, playerID string) (*domain.PlayerProfile, error) {
	playerID = strings.TrimSpace(playerID)
	const query = `
		SELECT
			name,
			games_played,
			wins,
			losses,
			draws,
			updated_at
		FROM chesspal_profiles
		WHERE player_id = $1`

	profile := domain.NewProfile(playerID)
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&profile.Name,
		&profile.GamesPlayed,
		&profile.Wins,
		&profile.Losses,
		&profile.Draws,
		&profile.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select chess profile: %w", err)
	}

	history, err := r.history(ctx, playerID)
	if err != nil {
		return nil, err
	}
	profile.History = history
	return profile, nil
}

func (r *repository) history(ctx context.Context, playerID string) ([]domain.GameHistoryEntry, error) {
	const query = `
		SELECT
			game_id,
			opponent,
			player_color,
			result,
			played_at,
			moves,
			eco_code,
			eco_title,
			pgn
		FROM chesspal_history
		WHERE player_id = $1
		ORDER BY played_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, playerID, domain.MaxHistory)
	if err != nil {
		return nil, fmt.Errorf("select chess history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.GameHistoryEntry, 0, domain.MaxHistory)
	for rows.Next() {
		var (
			e      domain.GameHistoryEntry
			result string
		)
		if err := rows.Scan(
			&e.GameID,
			&e.Opponent,
			&e.PlayerColor,
			&result,
			&e.Date,
			&e.Moves,
			&e.ECOCode,
			&e.ECOTitle,
			&e.PGN,
		); err != nil {
			return nil, fmt.Errorf("scan chess history: %w", err)
		}
		e.Result = domain.GameResult(result)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chess history: %w", err)
	}
	return entries, nil
}

func (r *repository) RecordResult(ctx context.Context, playerID string, entry domain.GameHistoryEntry) (*domain.PlayerProfile, error) {
	playerID = strings.TrimSpace(playerID)
	if entry.Date.IsZero() {
		entry.Date = time.Now().UTC()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin record result: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// chesspal_results is never trimmed; it outlives the capped history.
	const claimResult = `
		INSERT INTO chesspal_results (player_id, game_id)
		VALUES ($1, $2)
		ON CONFLICT (player_id, game_id) DO NOTHING
		RETURNING game_id`

	var claimed string
	err = tx.QueryRowContext(ctx, claimResult, playerID, entry.GameID).Scan(&claimed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDuplicateResult
	}
	if err != nil {
		return nil, fmt.Errorf("claim chess result: %w", err)
	}

	const insertHistory = `
		INSERT INTO chesspal_history (
			player_id,
			game_id,
			opponent,
			player_color,
			result,
			played_at,
			moves,
			eco_code,
			eco_title,
			pgn
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (player_id, game_id) DO NOTHING
		RETURNING id`

	var id sql.NullInt64
	err = tx.QueryRowContext(
		ctx,
		insertHistory,
		playerID,
		entry.GameID,
		entry.Opponent,
		entry.PlayerColor,
		string(entry.Result),
		entry.Date,
		entry.Moves,
		entry.ECOCode,
		entry.ECOTitle,
		entry.PGN,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !id.Valid) {
		return nil, ErrDuplicateResult
	}
	if err != nil {
		return nil, fmt.Errorf("insert chess history: %w", err)
	}

	var wins, losses, draws int
	switch entry.Result {
	case domain.ResultWin:
		wins = 1
	case domain.ResultLoss:
		losses = 1
	default:
		draws = 1
	}

	const upsertProfile = `
		INSERT INTO chesspal_profiles (
			player_id,
			name,
			games_played,
			wins,
			losses,
			draws,
			updated_at,
			created_at
		)
		VALUES ($1, $2, 1, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (player_id)
		DO UPDATE SET
			games_played = chesspal_profiles.games_played + 1,
			wins = chesspal_profiles.wins + EXCLUDED.wins,
			losses = chesspal_profiles.losses + EXCLUDED.losses,
			draws = chesspal_profiles.draws + EXCLUDED.draws,
			updated_at = NOW()`

	if _, err := tx.ExecContext(ctx, upsertProfile, playerID, domain.DefaultPlayerName, wins, losses, draws); err != nil {
		return nil, fmt.Errorf("upsert chess profile: %w", err)
	}

	const trimHistory = `
		DELETE FROM chesspal_history
		WHERE player_id = $1
		  AND id NOT IN (
			SELECT id FROM chesspal_history
			WHERE player_id = $1
			ORDER BY played_at DESC, id DESC
			LIMIT $2
		  )`

	if _, err := tx.ExecContext(ctx, trimHistory, playerID, domain.MaxHistory); err != nil {
		return nil, fmt.Errorf("trim chess history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit record result: %w", err)
	}
	return r.GetProfile(ctx, playerID)
}
