package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	kgzip "github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ddgplugin/metrics"
)

const mixedCaseBody = `{
	"AbstractText": "Go is a programming language",
	"AbstractUrl": "https://en.wikipedia.org/wiki/Go",
	"Answer": {"from": "calculator", "result": "42"},
	"AnswerType": "calc",
	"DefinitionUrl": "",
	"RelatedTopics": [
		{"FirstUrl": "https://duckduckgo.com/Gopher", "Text": "Gopher"},
		null,
		{"Name": "Tools", "Topics": [{"FirstUrl": "https://duckduckgo.com/gofmt", "Text": "gofmt"}]}
	],
	"Results": [],
	"Heading": "Go",
	"Type": "A"
}`

func TestClient_Fetch(t *testing.T) {
	var gotUA, gotAccept, gotEncoding string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotEncoding = r.Header.Get("Accept-Encoding")
		w.Header().Set("Content-Type", "application/x-javascript")
		_, _ = w.Write([]byte(mixedCaseBody))
	}))
	defer srv.Close()

	api := NewClient("", time.Second).Fetch(context.Background(), srv.URL+"/?q=go")
	require.NotNil(t, api)

	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, acceptEncoding, gotEncoding)

	assert.Equal(t, "Go is a programming language", api.AbstractText.String())
	assert.Equal(t, "https://en.wikipedia.org/wiki/Go", api.AbstractURL.String())
	assert.Empty(t, api.Answer, "object answers decode as empty")
	assert.Equal(t, "calc", api.AnswerType.String())
	require.Len(t, api.RelatedTopics, 3)
	assert.Equal(t, "https://duckduckgo.com/Gopher", api.RelatedTopics[0].FirstURL.String())
	assert.Nil(t, api.RelatedTopics[1])
	assert.Equal(t, "Tools", api.RelatedTopics[2].Name.String())
	require.Len(t, api.RelatedTopics[2].Topics, 1)
}

func TestClient_Decompresses(t *testing.T) {
	tests := []struct {
		encoding string
		write    func(w http.ResponseWriter, body []byte)
	}{
		{"gzip", func(w http.ResponseWriter, body []byte) {
			zw := kgzip.NewWriter(w)
			_, _ = zw.Write(body)
			_ = zw.Close()
		}},
		{"br", func(w http.ResponseWriter, body []byte) {
			bw := brotli.NewWriter(w)
			_, _ = bw.Write(body)
			_ = bw.Close()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.encoding, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Encoding", tt.encoding)
				tt.write(w, []byte(`{"Answer":"42","AnswerType":"calc"}`))
			}))
			defer srv.Close()

			api := NewClient("agent", time.Second).Fetch(context.Background(), srv.URL)
			require.NotNil(t, api)
			assert.Equal(t, "42", api.Answer.String())
		})
	}
}

func TestClient_FailuresReturnNil(t *testing.T) {
	tests := []struct {
		name    string
		reason  string
		handler http.HandlerFunc
	}{
		{"server error", "status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed json", "decode", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"Answer": `))
		}},
		{"empty body", "empty", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			before := testutil.ToFloat64(metrics.FetchFailures.WithLabelValues(tt.reason))
			assert.Nil(t, NewClient("", time.Second).Fetch(context.Background(), srv.URL))
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.FetchFailures.WithLabelValues(tt.reason)))
		})
	}
}

func TestClient_NetworkErrorReturnsNil(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	assert.Nil(t, NewClient("", time.Second).Fetch(context.Background(), url))
	assert.Nil(t, NewClient("", time.Second).Fetch(context.Background(), "://bad url"))
}

func TestClient_Cancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	assert.Nil(t, NewClient("", 5*time.Second).Fetch(ctx, srv.URL))
	assert.Less(t, time.Since(start), 4*time.Second, "cancellation should abort the request")
}

func TestText_Unmarshal(t *testing.T) {
	var v struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
		D Text `json:"d"`
	}
	require.NoError(t, sonicStd.Unmarshal([]byte(`{"a":"x","b":12.5,"c":null,"d":[1]}`), &v))
	assert.Equal(t, Text("x"), v.A)
	assert.Equal(t, Text("12.5"), v.B)
	assert.Empty(t, v.C)
	assert.Empty(t, v.D)
}
