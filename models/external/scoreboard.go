package external

// Wire shapes for the ESPN-style scoreboard feed the settlement sweep reads
// final scores from.

type Scoreboard struct {
	Day    string            `json:"day"`
	Events []ScoreboardEvent `json:"events"`
}

type ScoreboardEvent struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       EventStatus   `json:"status"`
	Competitions []Competition `json:"competitions"`
}

type EventStatus struct {
	Type EventStatusType `json:"type"`
}

type EventStatusType struct {
	Name      string `json:"name"` // e.g. STATUS_FINAL
	Completed bool   `json:"completed"`
}

type Competition struct {
	ID          string       `json:"id"`
	Competitors []Competitor `json:"competitors"`
}

type Competitor struct {
	HomeAway string `json:"homeAway"`
	Score    string `json:"score"`
}

// FinalScore is a completed game's result, already resolved to plain integers.
type FinalScore struct {
	GameID    string
	HomeScore int
	AwayScore int
}
