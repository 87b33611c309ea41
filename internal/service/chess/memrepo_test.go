package chess

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/park285/chesspal/internal/domain"
)

func TestMemoryRepositoryRejectsDuplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	record := func(gameID string) error {
		_, err := repo.RecordResult(ctx, "carol", domain.GameHistoryEntry{
			GameID: gameID,
			Result: domain.ResultWin,
			Date:   fixedNow,
		})
		return err
	}

	if err := record("g0"); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := record("g0"); !errors.Is(err, ErrDuplicateResult) {
		t.Fatalf("immediate duplicate: err = %v; want ErrDuplicateResult", err)
	}

	// push g0 out of the capped history
	for i := 1; i <= domain.MaxHistory; i++ {
		if err := record(fmt.Sprintf("g%d", i)); err != nil {
			t.Fatalf("record g%d: %v", i, err)
		}
	}
	p, err := repo.GetProfile(ctx, "carol")
	if err != nil {
		t.Fatal(err)
	}
	for _, h := range p.History {
		if h.GameID == "g0" {
			t.Fatal("g0 still in history; test setup did not age it out")
		}
	}

	if err := record("g0"); !errors.Is(err, ErrDuplicateResult) {
		t.Fatalf("aged-out duplicate: err = %v; want ErrDuplicateResult", err)
	}
	p, _ = repo.GetProfile(ctx, "carol")
	if want := domain.MaxHistory + 1; p.GamesPlayed != want || p.Wins != want {
		t.Errorf("games=%d wins=%d; want %d each", p.GamesPlayed, p.Wins, want)
	}
}
