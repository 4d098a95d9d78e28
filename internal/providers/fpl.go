package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"fpl-optimizer/internal/fpl"
)

// FPLClient fetches the player pool, teams, and fixture list from the
// Fantasy Premier League API. Requests are rate limited and run through a
// circuit breaker so a flapping upstream degrades to cached data instead of
// hammering it.
type FPLClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger
}

// NewFPLClient creates a new FPL API client. requestsPerSecond bounds the
// steady-state request rate; breakerThreshold is the consecutive-failure
// count that opens the circuit.
func NewFPLClient(baseURL string, timeout time.Duration, requestsPerSecond, breakerThreshold int, logger *logrus.Logger) *FPLClient {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	settings := gobreaker.Settings{
		Name:    "fpl-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(breakerThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	}
	return &FPLClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

// FPL API response structures
type fplBootstrapResponse struct {
	Events []struct {
		ID        int  `json:"id"`
		IsCurrent bool `json:"is_current"`
		IsNext    bool `json:"is_next"`
		Finished  bool `json:"finished"`
	} `json:"events"`
	Teams []struct {
		ID        int    `json:"id"`
		Name      string `json:"name"`
		ShortName string `json:"short_name"`
		Strength  int    `json:"strength"`
	} `json:"teams"`
	Elements []struct {
		ID          int    `json:"id"`
		WebName     string `json:"web_name"`
		Team        int    `json:"team"`
		ElementType int    `json:"element_type"`
		NowCost     int    `json:"now_cost"`
		Status      string `json:"status"`
		EPNext      string `json:"ep_next"`
	} `json:"elements"`
}

type fplFixture struct {
	Event    *int `json:"event"`
	TeamH    int  `json:"team_h"`
	TeamA    int  `json:"team_a"`
	Finished bool `json:"finished"`
}

// FetchSnapshot pulls bootstrap data and the fixture list, validates both,
// and returns the cleaned snapshot plus the exclusion counts.
func (c *FPLClient) FetchSnapshot(ctx context.Context) (fpl.Snapshot, fpl.ExclusionReport, error) {
	var bootstrap fplBootstrapResponse
	if err := c.getJSON(ctx, "/bootstrap-static/", &bootstrap); err != nil {
		return fpl.Snapshot{}, fpl.ExclusionReport{}, fmt.Errorf("fetch bootstrap: %w", err)
	}

	var fixtureRows []fplFixture
	if err := c.getJSON(ctx, "/fixtures/", &fixtureRows); err != nil {
		return fpl.Snapshot{}, fpl.ExclusionReport{}, fmt.Errorf("fetch fixtures: %w", err)
	}

	raw := fpl.Snapshot{}
	for _, t := range bootstrap.Teams {
		raw.Teams = append(raw.Teams, fpl.Team{
			ID:        t.ID,
			Name:      t.Name,
			ShortName: t.ShortName,
			Strength:  t.Strength,
		})
	}
	for _, e := range bootstrap.Elements {
		raw.Players = append(raw.Players, fpl.Player{
			ID:           e.ID,
			Name:         e.WebName,
			TeamID:       e.Team,
			Role:         fpl.Role(e.ElementType),
			Price:        e.NowCost,
			Projected:    parseFloat(e.EPNext),
			Availability: fpl.ParseAvailability(e.Status),
		})
	}
	for _, f := range fixtureRows {
		// A missing event means the match is unscheduled; the team simply
		// has no fixture that week, which is how blanks surface.
		if f.Event == nil || f.Finished {
			continue
		}
		raw.Fixtures = append(raw.Fixtures,
			fpl.Fixture{TeamID: f.TeamH, OpponentID: f.TeamA, Week: *f.Event, Home: true},
			fpl.Fixture{TeamID: f.TeamA, OpponentID: f.TeamH, Week: *f.Event, Home: false},
		)
	}

	clean, report := fpl.Validate(raw)
	c.logger.WithFields(logrus.Fields{
		"players":           len(clean.Players),
		"teams":             len(clean.Teams),
		"fixtures":          len(clean.Fixtures),
		"excluded_players":  report.Players,
		"excluded_fixtures": report.Fixtures,
	}).Info("Fetched FPL snapshot")

	return clean, report, nil
}

// CurrentWeek returns the upcoming gameweek number, preferring the next
// unfinished event.
func (c *FPLClient) CurrentWeek(ctx context.Context) (int, error) {
	var bootstrap fplBootstrapResponse
	if err := c.getJSON(ctx, "/bootstrap-static/", &bootstrap); err != nil {
		return 0, fmt.Errorf("fetch bootstrap: %w", err)
	}
	for _, e := range bootstrap.Events {
		if e.IsNext {
			return e.ID, nil
		}
	}
	for _, e := range bootstrap.Events {
		if e.IsCurrent && !e.Finished {
			return e.ID, nil
		}
	}
	return 0, fmt.Errorf("no upcoming gameweek in bootstrap data")
}

func (c *FPLClient) getJSON(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body.([]byte), out)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
