package listing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/houraiteahouse/hourai/pkg/robusthttp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	path  string
	auth  string
	count int
}

func testServer(t *testing.T, status int) (*httptest.Server, func() []received) {
	var mu sync.Mutex
	var got []received
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Lock()
		got = append(got, received{path: r.URL.Path, auth: r.Header.Get("Authorization"), count: body["guildCount"]})
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []received {
		mu.Lock()
		defer mu.Unlock()
		return append([]received(nil), got...)
	}
}

func testSite(srv *httptest.Server, token string) Site {
	site := DiscordBotsGG(token)
	site.Endpoint = srv.URL + "/api/v1/bots/%d/stats"
	return site
}

func TestPost(t *testing.T) {
	assert := assert.New(t)
	srv, got := testServer(t, http.StatusOK)

	p := &Poster{
		Client:     srv.Client(),
		ClientID:   42,
		GuildCount: func() int { return 7 },
	}
	require.NoError(t, p.Post(context.Background(), testSite(srv, "secret")))
	assert.Equal([]received{{path: "/api/v1/bots/42/stats", auth: "secret", count: 7}}, got())
}

func TestPostErrorStatus(t *testing.T) {
	srv, _ := testServer(t, http.StatusUnauthorized)
	p := &Poster{
		Client:     robusthttp.NewClient(robusthttp.WithMaxRetries(0)),
		ClientID:   42,
		GuildCount: func() int { return 7 },
	}
	assert.Error(t, p.Post(context.Background(), testSite(srv, "bad")))
}

func TestLoops(t *testing.T) {
	assert := assert.New(t)
	srv, got := testServer(t, http.StatusOK)

	p := &Poster{
		Client:     srv.Client(),
		ClientID:   42,
		GuildCount: func() int { return 3 },
	}
	loops := p.Loops([]Site{testSite(srv, ""), testSite(srv, "secret")}, time.Hour, nil)
	require.Len(t, loops, 1)

	require.NoError(t, loops[0].Start(context.Background()))
	assert.Eventually(func() bool { return len(got()) == 1 }, time.Second, 5*time.Millisecond)
	loops[0].Stop()
	assert.Equal(3, got()[0].count)
}

func TestSitePayloads(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(map[string]int{"server_count": 5}, TopGG("t").Payload(5))
	assert.Equal(map[string]int{"guilds": 5}, DiscordBotList("t").Payload(5))
}
