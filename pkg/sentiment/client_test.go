package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPClient(Config{BaseURL: srv.URL + "/", Timeout: time.Second})
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestHTTPClient_Analyze_Success(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, AnalyzePath, r.URL.Path)

		var req analyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "物流很快，画面很棒", req.Text)

		writeJSON(w, `{"code":200,"msg":"success","result":{"status":"success","data":{
			"logistics":{"label":"😍 好评 (Positive)","score":"0.81"},
			"visuals":{"label":"😍 好评 (Positive)","score":"0.77"},
			"price":{"label":"⚪ 未提及 (None)","score":"0.90"}
		}}}`)
	})

	res, err := client.Analyze(context.Background(), "物流很快，画面很棒")
	require.NoError(t, err)
	assert.False(t, res.Blocked)
	require.Len(t, res.Dimensions, 3)
	assert.Equal(t, "0.81", res.Dimensions["logistics"].Score)
	assert.Equal(t, PolarityPositive, ParseLabel(res.Dimensions["visuals"].Label))
}

func TestHTTPClient_Analyze_Blocked(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"code":200,"msg":"success","result":{"status":"block","reason":"spam_detected"}}`)
	})

	res, err := client.Analyze(context.Background(), "加微信领福利")
	require.NoError(t, err)
	assert.True(t, res.Blocked)
	assert.Equal(t, "spam_detected", res.Reason)
}

func TestHTTPClient_Analyze_Degraded(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
		},
		{
			name: "业务码非 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"code":500,"msg":"Internal error"}`)
			},
		},
		{
			name: "非法 JSON",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `not json`)
			},
		},
		{
			name: "未知状态",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, `{"code":200,"result":{"status":"pending"}}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestServer(t, tt.handler)
			_, err := client.Analyze(context.Background(), "还行")
			assert.ErrorIs(t, err, ErrDependencyDegraded)
		})
	}
}

func TestHTTPClient_Analyze_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeJSON(w, `{"code":200,"result":{"status":"success","data":{}}}`)
	}))
	t.Cleanup(srv.Close)

	client := NewHTTPClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Analyze(context.Background(), "还行")
	assert.ErrorIs(t, err, ErrDependencyDegraded)
}

func TestHTTPClient_Analyze_Unreachable(t *testing.T) {
	client := NewHTTPClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})
	_, err := client.Analyze(context.Background(), "还行")
	assert.ErrorIs(t, err, ErrDependencyDegraded)
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		label string
		want  Polarity
	}{
		{"😡 差评 (Negative)", PolarityNegative},
		{"😐 中立 (Neutral)", PolarityNeutral},
		{"😍 好评 (Positive)", PolarityPositive},
		{"⚪ 未提及 (None)", PolarityAbsent},
		{"Positive", PolarityPositive},
		{"", PolarityAbsent},
		{"unknown", PolarityAbsent},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLabel(tt.label), tt.label)
	}
}

func TestMockClient(t *testing.T) {
	m := NewMockClient(nil, nil)
	res, err := m.Analyze(context.Background(), "x")
	require.NoError(t, err)
	assert.Empty(t, res.Dimensions)

	m = NewMockClient(nil, ErrDependencyDegraded)
	_, err = m.Analyze(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDependencyDegraded)
	assert.Equal(t, 1, m.Calls())
}
