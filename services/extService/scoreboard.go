package extService

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elliotttmiller/NSSPORTS-sub002/models/external"
)

// ScoreFeed supplies final scores for the games referenced by pending legs.
// The engine never determines game outcomes itself.
type ScoreFeed interface {
	FinalScores(ctx context.Context, gameIDs []string) (map[string]external.FinalScore, error)
}

const statusFinal = "STATUS_FINAL"

// ScoreboardClient reads an ESPN-style scoreboard endpoint and extracts final
// scores for completed games.
type ScoreboardClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewScoreboardClient(baseURL string) *ScoreboardClient {
	return &ScoreboardClient{
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *ScoreboardClient) FinalScores(ctx context.Context, gameIDs []string) (map[string]external.FinalScore, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoreboard request failed with status %d", resp.StatusCode)
	}

	var scoreboard external.Scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&scoreboard); err != nil {
		return nil, fmt.Errorf("decoding scoreboard: %w", err)
	}

	wanted := make(map[string]bool, len(gameIDs))
	for _, id := range gameIDs {
		wanted[id] = true
	}

	scores := make(map[string]external.FinalScore)
	for _, event := range scoreboard.Events {
		if !wanted[event.ID] || event.Status.Type.Name != statusFinal {
			continue
		}
		if len(event.Competitions) == 0 {
			continue
		}

		var home, away int
		var haveHome, haveAway bool
		for _, comp := range event.Competitions[0].Competitors {
			score, err := strconv.Atoi(comp.Score)
			if err != nil {
				continue
			}
			switch comp.HomeAway {
			case "home":
				home, haveHome = score, true
			case "away":
				away, haveAway = score, true
			}
		}
		if !haveHome || !haveAway {
			continue
		}

		scores[event.ID] = external.FinalScore{
			GameID:    event.ID,
			HomeScore: home,
			AwayScore: away,
		}
	}

	return scores, nil
}
