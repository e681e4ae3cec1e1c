package expo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"schoolbridge/internal/infra/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu       sync.Mutex
	requests [][]message
	auth     string
	respond  func(chunk []message) (int, any)
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	var chunk []message
	_ = json.NewDecoder(req.Body).Decode(&chunk)

	r.mu.Lock()
	r.requests = append(r.requests, chunk)
	r.auth = req.Header.Get("Authorization")
	r.mu.Unlock()

	code, body := http.StatusOK, any(okTickets(len(chunk)))
	if r.respond != nil {
		code, body = r.respond(chunk)
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func okTickets(n int) sendResponse {
	out := sendResponse{}
	for i := 0; i < n; i++ {
		out.Data = append(out.Data, ticket{Status: "ok", ID: fmt.Sprintf("ticket-%d", i)})
	}
	return out
}

func newTestGateway(t *testing.T, rec *recorder, opts Options) *Gateway {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	opts.URL = srv.URL
	return NewGateway(opts, logger.Discard())
}

func token(i int) string {
	return fmt.Sprintf("ExponentPushToken[tok-%d]", i)
}

func TestIsPushToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"ExponentPushToken[xxxxxxxxxxxxxxxxxxxxxx]", true},
		{"ExpoPushToken[abc]", true},
		{"F5741A13-BCDA-434B-A316-5DC0E6FFA94F", true},
		{"ExponentPushToken[missing-bracket", false},
		{"fcm:abcdef", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, IsPushToken(tt.token))
		})
	}
}

func TestDispatch_FiltersMalformedTokens(t *testing.T) {
	rec := &recorder{}
	g := newTestGateway(t, rec, Options{})

	err := g.Dispatch(context.Background(), []string{token(1), "not-a-token", token(2)}, "Title", "Body", map[string]string{"type": "announcement"})

	require.NoError(t, err)
	require.Len(t, rec.requests, 1)
	require.Len(t, rec.requests[0], 2)
	assert.Equal(t, token(1), rec.requests[0][0].To)
	assert.Equal(t, token(2), rec.requests[0][1].To)
	assert.Equal(t, "Title", rec.requests[0][0].Title)
	assert.Equal(t, "announcement", rec.requests[0][0].Data["type"])
}

func TestDispatch_NoValidTokensMakesNoCall(t *testing.T) {
	rec := &recorder{}
	g := newTestGateway(t, rec, Options{})

	err := g.Dispatch(context.Background(), []string{"bad", "also-bad"}, "Title", "Body", nil)

	require.NoError(t, err)
	assert.Empty(t, rec.requests)

	require.NoError(t, g.Dispatch(context.Background(), nil, "Title", "Body", nil))
	assert.Empty(t, rec.requests)
}

func TestDispatch_ChunksSequentially(t *testing.T) {
	rec := &recorder{}
	g := newTestGateway(t, rec, Options{})
	tokens := make([]string, 250)
	for i := range tokens {
		tokens[i] = token(i)
	}

	require.NoError(t, g.Dispatch(context.Background(), tokens, "T", "B", nil))

	require.Len(t, rec.requests, 3)
	assert.Len(t, rec.requests[0], 100)
	assert.Len(t, rec.requests[1], 100)
	assert.Len(t, rec.requests[2], 50)
	assert.Equal(t, token(100), rec.requests[1][0].To)
}

func TestDispatch_TicketErrorsDoNotAbort(t *testing.T) {
	rec := &recorder{respond: func(chunk []message) (int, any) {
		resp := okTickets(len(chunk))
		resp.Data[0] = ticket{Status: "error", Message: "not registered"}
		resp.Data[0].Details.Error = "DeviceNotRegistered"
		return http.StatusOK, resp
	}}
	g := newTestGateway(t, rec, Options{ChunkSize: 2})

	err := g.Dispatch(context.Background(), []string{token(1), token(2), token(3)}, "T", "B", nil)

	require.NoError(t, err)
	assert.Len(t, rec.requests, 2, "second chunk is still sent")
}

func TestDispatch_ChunkHTTPFailureContinues(t *testing.T) {
	calls := 0
	rec := &recorder{respond: func(chunk []message) (int, any) {
		calls++
		if calls == 1 {
			return http.StatusInternalServerError, map[string]string{"error": "boom"}
		}
		return http.StatusOK, okTickets(len(chunk))
	}}
	g := newTestGateway(t, rec, Options{ChunkSize: 1})

	err := g.Dispatch(context.Background(), []string{token(1), token(2)}, "T", "B", nil)

	require.NoError(t, err)
	assert.Len(t, rec.requests, 2)
}

func TestDispatch_EmptyPayloadIsSetupError(t *testing.T) {
	rec := &recorder{}
	g := newTestGateway(t, rec, Options{})

	err := g.Dispatch(context.Background(), []string{token(1)}, " ", "", nil)

	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, rec.requests)
}

func TestDispatch_EmptyPayloadWithoutTokensIsNoop(t *testing.T) {
	rec := &recorder{}
	g := newTestGateway(t, rec, Options{})

	err := g.Dispatch(context.Background(), []string{"not-a-token"}, "", "", nil)

	assert.NoError(t, err)
	assert.Empty(t, rec.requests)
}

func TestDispatch_SendsAccessToken(t *testing.T) {
	rec := &recorder{}
	g := newTestGateway(t, rec, Options{AccessToken: "expo-secret"})

	require.NoError(t, g.Dispatch(context.Background(), []string{token(1)}, "T", "B", nil))

	assert.Equal(t, "Bearer expo-secret", rec.auth)
}
