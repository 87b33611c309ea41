package chessdto

type TimeControl struct {
	Minutes   int `json:"minutes"`
	Increment int `json:"increment"`
}

type CreateGameRequest struct {
	Type        string       `json:"type"`
	Difficulty  string       `json:"difficulty,omitempty"`
	Time        *TimeControl `json:"time,omitempty"`
	PlayerColor string       `json:"playerColor,omitempty"`
}

// MoveRequest names squares in algebraic form ("e2").
type MoveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type TimeoutRequest struct {
	Color string `json:"color"`
}
