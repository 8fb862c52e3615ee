package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAgent = "siteaudit-test"

type fallbackRecorder struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fallbackRecorder) ObserveRobotsFallback(reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
}

func TestLoaderAppliesRules(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/robots.txt", r.URL.Path)
		assert.Equal(t, testAgent, r.Header.Get("User-Agent"))
		hits.Add(1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\nDisallow: /search?q=\n"))
	}))
	t.Cleanup(server.Close)

	loader := NewLoader(Config{UserAgent: testAgent, Respect: true}, server.Client(), nil, nil)
	gate := loader.Load(context.Background(), server.URL+"/blog/post")

	assert.True(t, gate.IsAllowed(server.URL))
	assert.True(t, gate.IsAllowed(server.URL+"/blog"))
	assert.False(t, gate.IsAllowed(server.URL+"/private"))
	assert.False(t, gate.IsAllowed(server.URL+"/private/deep"))
	assert.False(t, gate.IsAllowed(server.URL+"/search?q=x"))
	assert.True(t, gate.IsAllowed(server.URL+"/search"))
	assert.Equal(t, int32(1), hits.Load(), "robots.txt is fetched once per load")
}

func TestLoaderFailOpen(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		reason string
	}{
		{"not found", http.StatusNotFound, ReasonStatus},
		{"server error", http.StatusInternalServerError, ReasonStatus},
		{"forbidden", http.StatusForbidden, ReasonStatus},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("User-agent: *\nDisallow: /\n"))
			}))
			t.Cleanup(server.Close)

			recorder := &fallbackRecorder{}
			loader := NewLoader(Config{UserAgent: testAgent, Respect: true}, server.Client(), nil, recorder)

			rules, err := loader.Fetch(context.Background(), server.URL)
			require.ErrorIs(t, err, ErrUnavailable)
			assert.IsType(t, NoRestrictions{}, rules)

			gate := loader.Load(context.Background(), server.URL)
			for _, path := range []string{"/", "/private", "/anything/else"} {
				assert.True(t, gate.IsAllowed(server.URL+path), path)
			}
			assert.Equal(t, []string{tc.reason, tc.reason}, recorder.reasons)
		})
	}
}

func TestLoaderFailOpenOnNetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	recorder := &fallbackRecorder{}
	loader := NewLoader(Config{UserAgent: testAgent, Respect: true}, nil, nil, recorder)
	gate := loader.Load(context.Background(), addr)

	assert.True(t, gate.IsAllowed(addr+"/private"))
	assert.Equal(t, []string{ReasonNetwork}, recorder.reasons)
}

func TestLoaderInvalidStartURL(t *testing.T) {
	t.Parallel()

	loader := NewLoader(Config{Respect: true}, nil, nil, nil)
	rules, err := loader.Fetch(context.Background(), "/relative")
	require.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, rules.Allowed("https://x.com/anything", testAgent))
}

func TestLoaderDisabled(t *testing.T) {
	t.Parallel()

	recorder := &fallbackRecorder{}
	loader := NewLoader(Config{UserAgent: testAgent, Respect: false}, nil, nil, recorder)
	gate := loader.Load(context.Background(), "https://x.invalid")

	assert.True(t, gate.IsAllowed("https://x.invalid/private"))
	assert.Equal(t, []string{ReasonDisabled}, recorder.reasons)
}

func TestRuleSetUserAgentGroups(t *testing.T) {
	t.Parallel()

	rules, err := Parse([]byte("User-agent: siteaudit\nDisallow: /audit-only\n\nUser-agent: *\nDisallow: /\n"))
	require.NoError(t, err)

	assert.False(t, rules.Allowed("https://x.com/audit-only", "siteaudit/1.0"))
	assert.True(t, rules.Allowed("https://x.com/page", "siteaudit/1.0"))
	assert.False(t, rules.Allowed("https://x.com/page", "otherbot"))

	gate := NewGate(rules, "otherbot")
	assert.False(t, gate.IsAllowed("https://x.com/"))
	assert.True(t, NewGate(rules, "siteaudit/1.0").IsAllowed("https://x.com/page"))
}

func TestNilGateAllowsEverything(t *testing.T) {
	t.Parallel()

	var gate *Gate
	assert.True(t, gate.IsAllowed("https://x.com/"))
	assert.True(t, NewGate(nil, testAgent).IsAllowed("https://x.com/"))
}
