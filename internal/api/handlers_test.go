package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsignal/dmarclens/internal/cache"
	"github.com/mailsignal/dmarclens/internal/config"
	"github.com/mailsignal/dmarclens/internal/logger"
	"github.com/mailsignal/dmarclens/internal/resolver"
)

type stubHostnames struct {
	results map[string]*string
}

func (s *stubHostnames) Resolve(_ context.Context, ips []string) map[string]*string {
	out := make(map[string]*string, len(ips))
	for _, ip := range ips {
		out[ip] = s.results[ip]
	}
	return out
}

type stubGeo struct {
	results map[string]*resolver.Geo
}

func (s *stubGeo) Resolve(_ context.Context, ips []string) map[string]*resolver.Geo {
	out := make(map[string]*resolver.Geo, len(ips))
	for _, ip := range ips {
		out[ip] = s.results[ip]
	}
	return out
}

func strPtr(s string) *string { return &s }

func newTestRouter(hostnames *stubHostnames, geo *stubGeo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	if hostnames == nil {
		hostnames = &stubHostnames{}
	}
	if geo == nil {
		geo = &stubGeo{}
	}

	log := logger.NewNop()
	h := NewHandler(log, cache.NewMemoryStore(), hostnames, geo)
	return NewRouter(h, log, config.ServerConfig{})
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestResolveHostnames(t *testing.T) {
	router := newTestRouter(&stubHostnames{results: map[string]*string{
		"203.0.113.5": strPtr("mail-sor-f41.google.com"),
	}}, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/resolve-hostnames",
		`{"ips":["203.0.113.5","198.51.100.9"]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results  map[string]*string `json:"results"`
		Services map[string]string  `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.NotNil(t, resp.Results["203.0.113.5"])
	assert.Equal(t, "mail-sor-f41.google.com", *resp.Results["203.0.113.5"])
	assert.Nil(t, resp.Results["198.51.100.9"])
	assert.Equal(t, "Google Workspace", resp.Services["203.0.113.5"])
	assert.Equal(t, "Other", resp.Services["198.51.100.9"])
}

func TestResolveHostnames_InvalidInput(t *testing.T) {
	router := newTestRouter(nil, nil)

	for _, body := range []string{`{}`, `{"ips":"not-a-list"}`, `not json`} {
		w := doJSON(t, router, http.MethodPost, "/api/v1/resolve-hostnames", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q should be rejected", body)
	}
}

func TestResolveGeo(t *testing.T) {
	router := newTestRouter(nil, &stubGeo{results: map[string]*resolver.Geo{
		"8.8.8.8": {Country: "United States", CountryCode: "US"},
	}})

	w := doJSON(t, router, http.MethodPost, "/api/v1/resolve-geo",
		`{"ips":["8.8.8.8","10.0.0.1"]}`)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Results map[string]*resolver.Geo `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	require.NotNil(t, resp.Results["8.8.8.8"])
	assert.Equal(t, "US", resp.Results["8.8.8.8"].CountryCode)
	assert.Nil(t, resp.Results["10.0.0.1"], "unresolvable IPs map to null, not an error")
}

func TestResolveGeo_InvalidInput(t *testing.T) {
	router := newTestRouter(nil, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/resolve-geo", `{"addresses":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseReport(t *testing.T) {
	router := newTestRouter(nil, nil)

	xmlDoc := `<feedback>
  <report_metadata><org_name>reporter.example</org_name></report_metadata>
  <policy_published><domain>example.com</domain></policy_published>
  <record>
    <row>
      <source_ip>203.0.113.5</source_ip>
      <count>100</count>
      <policy_evaluated><disposition>none</disposition><dkim>pass</dkim><spf>pass</spf></policy_evaluated>
    </row>
    <identifiers><header_from>example.com</header_from></identifiers>
  </record>
</feedback>`

	body, err := json.Marshal(map[string]string{"fileName": "reporter.xml", "xml": xmlDoc})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/v1/reports", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Report struct {
			FileName      string `json:"fileName"`
			TotalMessages int    `json:"totalMessages"`
		} `json:"report"`
		Statistics struct {
			PassedCount int `json:"passedCount"`
		} `json:"statistics"`
		Verdicts []struct {
			Compliance string `json:"compliance"`
		} `json:"verdicts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "reporter.xml", resp.Report.FileName)
	assert.Equal(t, 100, resp.Report.TotalMessages)
	assert.Equal(t, 100, resp.Statistics.PassedCount)
	require.Len(t, resp.Verdicts, 1)
	assert.Equal(t, "full", resp.Verdicts[0].Compliance)
}

func TestParseReport_MalformedXML(t *testing.T) {
	router := newTestRouter(nil, nil)

	body, err := json.Marshal(map[string]string{"fileName": "bad.xml", "xml": "<feedback><record>"})
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodPost, "/api/v1/reports", string(body))
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Error    string `json:"error"`
		FileName string `json:"fileName"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "bad.xml", resp.FileName)
	assert.NotEmpty(t, resp.Error)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}
