// Posts the bot's guild count to bot listing sites.
package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/houraiteahouse/hourai/tasks"
)

const DefaultInterval = 10 * time.Second

// A listing site accepting guild counts. Endpoint is formatted with the bot's client id.
type Site struct {
	Name     string
	Endpoint string
	Token    string
	Payload  func(guildCount int) any
}

func DiscordBotsGG(token string) Site {
	return Site{
		Name:     "discord.bots.gg",
		Endpoint: "https://discord.bots.gg/api/v1/bots/%d/stats",
		Token:    token,
		Payload:  func(n int) any { return map[string]int{"guildCount": n} },
	}
}

func TopGG(token string) Site {
	return Site{
		Name:     "top.gg",
		Endpoint: "https://top.gg/api/bots/%d/stats",
		Token:    token,
		Payload:  func(n int) any { return map[string]int{"server_count": n} },
	}
}

func DiscordBotList(token string) Site {
	return Site{
		Name:     "discordbotlist.com",
		Endpoint: "https://discordbotlist.com/api/v1/bots/%d/stats",
		Token:    token,
		Payload:  func(n int) any { return map[string]int{"guilds": n} },
	}
}

type Poster struct {
	Client   *http.Client
	ClientID uint64
	// current guild count
	GuildCount func() int
	Logger     *slog.Logger
}

func (p *Poster) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func (p *Poster) Post(ctx context.Context, site Site) error {
	body, err := json.Marshal(site.Payload(p.GuildCount()))
	if err != nil {
		return err
	}
	endpoint := fmt.Sprintf(site.Endpoint, p.ClientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", site.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		postErrorCount.WithLabelValues(site.Name).Inc()
		return fmt.Errorf("posting guild count to %s: %w", site.Name, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	p.logger().Debug("guild count posted", "site", site.Name, "endpoint", endpoint, "status", resp.StatusCode, "response", string(respBody))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		postErrorCount.WithLabelValues(site.Name).Inc()
		return fmt.Errorf("posting guild count to %s: status %d", site.Name, resp.StatusCode)
	}
	postCount.WithLabelValues(site.Name).Inc()
	return nil
}

// One loop per site. Sites without a token are skipped with a warning.
func (p *Poster) Loops(sites []Site, interval time.Duration, ready func(ctx context.Context) error) []*tasks.Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	var loops []*tasks.Loop
	for _, site := range sites {
		if site.Token == "" {
			p.logger().Warn("no token specified for listing site, disabling", "site", site.Name)
			continue
		}
		loops = append(loops, &tasks.Loop{
			Name:     "listing/" + site.Name,
			Interval: interval,
			Ready:    ready,
			Logger:   p.Logger,
			Run: func(ctx context.Context) error {
				return p.Post(ctx, site)
			},
		})
	}
	return loops
}
