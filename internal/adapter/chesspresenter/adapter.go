package chesspresenter

import (
	"strings"

	corechess "github.com/park285/chesspal/internal/chess"
	"github.com/park285/chesspal/internal/domain"
	svc "github.com/park285/chesspal/internal/service/chess"
	"github.com/park285/chesspal/pkg/chessdto"
)

// ShareURL builds the link a second player opens to join an online game.
// An empty base yields no link.
func ShareURL(baseURL, id string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" || strings.TrimSpace(id) == "" {
		return ""
	}
	return base + "/game/" + id
}

func ToDTOGame(v *svc.GameView, baseURL string) *chessdto.GameResponse {
	if v == nil {
		return nil
	}
	out := &chessdto.GameResponse{
		ID:    v.ID,
		State: v.State,
		FEN:   v.FEN,
	}
	if v.Opening.Code != "" {
		out.Opening = &chessdto.Opening{Code: v.Opening.Code, Title: v.Opening.Title}
	}
	if v.State != nil && v.State.Options.Type == corechess.GameOnline {
		out.ShareURL = ShareURL(baseURL, v.ID)
	}
	return out
}

func ToDTOSummaries(views []*svc.GameView) *chessdto.ListGamesResponse {
	out := &chessdto.ListGamesResponse{Games: make([]chessdto.GameSummary, 0, len(views))}
	for _, v := range views {
		if v == nil || v.State == nil {
			continue
		}
		out.Games = append(out.Games, chessdto.GameSummary{
			ID:          v.ID,
			Type:        string(v.State.Options.Type),
			Status:      string(v.State.Status),
			CurrentTurn: string(v.State.CurrentTurn),
			Moves:       len(v.State.Moves),
			LastUpdated: v.State.LastUpdated,
		})
	}
	return out
}

func ToDTODestinations(origin corechess.Position, board corechess.Board, dests []corechess.Position) *chessdto.DestinationsResponse {
	squares := make([]string, 0, len(dests))
	for _, d := range dests {
		squares = append(squares, d.String())
	}
	return &chessdto.DestinationsResponse{
		Square:       origin.String(),
		Destinations: squares,
		Board:        board,
	}
}

func ToDTOProfile(p *domain.PlayerProfile) *chessdto.ProfileResponse {
	if p == nil {
		return nil
	}
	out := &chessdto.ProfileResponse{
		PlayerID:    p.PlayerID,
		Name:        p.Name,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Draws:       p.Draws,
		History:     make([]chessdto.HistoryEntry, 0, len(p.History)),
	}
	if !p.UpdatedAt.IsZero() {
		t := p.UpdatedAt
		out.UpdatedAt = &t
	}
	for _, h := range p.History {
		out.History = append(out.History, chessdto.HistoryEntry{
			GameID:      h.GameID,
			Opponent:    h.Opponent,
			PlayerColor: h.PlayerColor,
			Result:      string(h.Result),
			Date:        h.Date,
			Moves:       h.Moves,
			ECOCode:     h.ECOCode,
			ECOTitle:    h.ECOTitle,
		})
	}
	return out
}
