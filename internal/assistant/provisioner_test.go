package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOpenAI records assistant create and delete requests.
type fakeOpenAI struct {
	createBody map[string]any
	deletedID  string
	failCreate bool
}

func (f *fakeOpenAI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/assistants"):
			if f.failCreate {
				// 400 is not retried by the client, unlike 429/5xx.
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"message":"bad request"}}`))
				return
			}
			_ = json.NewDecoder(r.Body).Decode(&f.createBody)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"asst_abc123","object":"assistant","model":"gpt-4o-mini"}`))
		case r.Method == http.MethodDelete:
			parts := strings.Split(r.URL.Path, "/")
			f.deletedID = parts[len(parts)-1]
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id":"` + f.deletedID + `","object":"assistant.deleted","deleted":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestProvisioner(t *testing.T, fake *fakeOpenAI) *Provisioner {
	t.Helper()

	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	p, err := NewProvisioner(Config{APIKey: "test-key", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestConfigDefaults(t *testing.T) {
	config := Config{APIKey: "k"}
	config.ApplyDefaults()
	assert.Equal(t, "gpt-4o-mini", config.Model)
	assert.NoError(t, config.Validate())
}

func TestConfigMissingKey(t *testing.T) {
	config := Config{}
	config.ApplyDefaults()
	assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
}

func TestProvision(t *testing.T) {
	fake := &fakeOpenAI{}
	p := newTestProvisioner(t, fake)

	handle, err := p.Provision(context.Background(), "Acme Sarees")
	require.NoError(t, err)
	assert.Equal(t, "asst_abc123", handle)

	require.NotNil(t, fake.createBody)
	assert.Equal(t, "Sales Assistant - Acme Sarees", fake.createBody["name"])
	assert.Equal(t, "gpt-4o-mini", fake.createBody["model"])

	tools, ok := fake.createBody["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)

	tool := tools[0].(map[string]any)
	assert.Equal(t, "function", tool["type"])
	fn := tool["function"].(map[string]any)
	assert.Equal(t, "vectorSearch", fn["name"])

	params := fn["parameters"].(map[string]any)
	assert.Equal(t, "object", params["type"])
	assert.Contains(t, params["required"], "query")
}

func TestProvisionEmptyShopName(t *testing.T) {
	p := newTestProvisioner(t, &fakeOpenAI{})

	_, err := p.Provision(context.Background(), "")
	assert.ErrorIs(t, err, ErrProvisionFailed)
}

func TestProvisionServerError(t *testing.T) {
	p := newTestProvisioner(t, &fakeOpenAI{failCreate: true})

	_, err := p.Provision(context.Background(), "Acme")
	assert.ErrorIs(t, err, ErrProvisionFailed)
}

func TestDeprovision(t *testing.T) {
	fake := &fakeOpenAI{}
	p := newTestProvisioner(t, fake)

	err := p.Deprovision(context.Background(), "asst_abc123")
	require.NoError(t, err)
	assert.Equal(t, "asst_abc123", fake.deletedID)
}

func TestDeprovisionEmptyHandle(t *testing.T) {
	p := newTestProvisioner(t, &fakeOpenAI{})
	assert.Error(t, p.Deprovision(context.Background(), ""))
}
