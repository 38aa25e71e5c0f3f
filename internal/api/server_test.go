package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/grantscout/grantscout/internal/grant"
)

type stubDiscoverer struct {
	gotCriteria grant.SearchCriteria
	gotMode     string
	result      grant.DiscoveryResult
}

func (d *stubDiscoverer) Discover(_ context.Context, criteria grant.SearchCriteria, mode string) grant.DiscoveryResult {
	d.gotCriteria = criteria
	d.gotMode = mode
	return d.result
}

func newTestServer(d Discoverer) *httptest.Server {
	return httptest.NewServer(NewServer(d, 10*time.Second, zap.NewNop()).Handler())
}

func TestFindGrantsFormMode(t *testing.T) {
	t.Parallel()

	disc := &stubDiscoverer{result: grant.DiscoveryResult{
		RunID:      "run-1",
		Mode:       grant.ModeForm,
		TotalFound: 1,
		Grants: []grant.EnrichedGrant{{
			RawGrantRecord: grant.RawGrantRecord{Title: "Test Grant"},
			ID:             1,
			RelevanceScore: 80,
		}},
	}}
	srv := newTestServer(disc)
	defer srv.Close()

	body := `{"mode":"form","criteria":{"industry":"AI","region":"Europe"}}`
	resp, err := http.Post(srv.URL+"/api/find-grants", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var result grant.DiscoveryResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Grants, 1)
	assert.Equal(t, "Test Grant", result.Grants[0].Title)

	assert.Equal(t, grant.ModeForm, disc.gotMode)
	assert.Equal(t, "AI", disc.gotCriteria.Industry)
	assert.Equal(t, "Europe", disc.gotCriteria.Region)
}

func TestFindGrantsQueryShorthandForcesChatMode(t *testing.T) {
	t.Parallel()

	disc := &stubDiscoverer{}
	srv := newTestServer(disc)
	defer srv.Close()

	body := `{"query":"grants for my fintech startup"}`
	resp, err := http.Post(srv.URL+"/api/find-grants", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, grant.ModeChat, disc.gotMode)
	assert.Equal(t, "grants for my fintech startup", disc.gotCriteria.FreeTextQuery)
}

func TestFindGrantsRejectsBadInput(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubDiscoverer{})
	t.Cleanup(srv.Close)

	tests := []struct {
		name string
		body string
	}{
		{"invalid JSON", `{not json`},
		{"unknown mode", `{"mode":"telepathy"}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			resp, err := http.Post(srv.URL+"/api/find-grants", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestApplyClarification(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubDiscoverer{})
	defer srv.Close()

	body := `{"criteria":{"industry":"AI/ML"},"choice":"Focus on global grants or just your region?"}`
	resp, err := http.Post(srv.URL+"/api/apply-clarification", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var parsed applyClarificationResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "Global", parsed.Criteria.Region)
	assert.True(t, parsed.Criteria.ExpandGeographic)
	assert.Equal(t, "AI/ML", parsed.Criteria.Industry)
}

func TestApplyClarificationRequiresChoice(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubDiscoverer{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/apply-clarification", "application/json", strings.NewReader(`{"criteria":{}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubDiscoverer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubDiscoverer{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
