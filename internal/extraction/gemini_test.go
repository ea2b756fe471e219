package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dvloznov/finance-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// geminiServer answers generateContent calls with text and records the last
// request.
type geminiServer struct {
	*httptest.Server

	mu     sync.Mutex
	path   string
	apiKey string
	body   string
}

func (gs *geminiServer) last() (path, apiKey, body string) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	return gs.path, gs.apiKey, gs.body
}

func newGeminiServer(t *testing.T, status int, text string, usage map[string]int) *geminiServer {
	t.Helper()
	gs := &geminiServer{}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gs.mu.Lock()
		gs.path = r.URL.Path
		gs.apiKey = r.Header.Get("x-goog-api-key")
		gs.body = string(body)
		gs.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"code":500,"message":"backend unavailable","status":"INTERNAL"}}`))
			return
		}
		resp := map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			}},
		}
		if usage != nil {
			resp["usageMetadata"] = usage
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(gs.Close)
	return gs
}

func TestGeminiClient_ExtractStatement(t *testing.T) {
	text := "```json\n" + `{
  "account_name": "Everyday",
  "period_start": "2024-01-01",
  "period_end": "2024-01-31",
  "opening_balance": 100,
  "closing_balance": 250,
  "transactions": [{"date": "2024-01-20", "amount": 150, "description": "Paycheck"}]
}` + "\n```"
	srv := newGeminiServer(t, http.StatusOK, text, map[string]int{
		"promptTokenCount":     120,
		"candidatesTokenCount": 45,
		"totalTokenCount":      165,
	})

	content, err := NewContent(domain.FileTypeCSV, []byte("date,amount\n2024-01-20,150"), 0)
	require.NoError(t, err)

	c := NewGeminiClient("").WithBaseURL(srv.URL)
	res, err := c.Extract(context.Background(), Request{
		Kind:    KindStatement,
		Format:  domain.FileTypeCSV,
		Content: content,
		APIKey:  "user-key",
	})
	require.NoError(t, err)

	assert.Equal(t, KindStatement, res.Kind)
	require.NotNil(t, res.Statement)
	assert.Nil(t, res.Receipt)
	assert.Equal(t, "Everyday", res.Statement.AccountName)
	assert.Equal(t, 250.0, res.Statement.ClosingBalance)
	require.Len(t, res.Statement.Transactions, 1)
	assert.Equal(t, "Paycheck", res.Statement.Transactions[0].Description)

	assert.Equal(t, DefaultModel, res.Model)
	assert.Equal(t, Usage{InputTokens: 120, OutputTokens: 45}, res.Usage)
	assert.True(t, strings.HasPrefix(res.RawJSON, "{"))
	assert.NotContains(t, res.RawJSON, "```")

	path, apiKey, body := srv.last()
	assert.Contains(t, path, DefaultModel+":generateContent")
	assert.Equal(t, "user-key", apiKey)
	assert.Contains(t, body, "date,amount")
	assert.NotContains(t, body, "inlineData")
}

func TestGeminiClient_ExtractReceiptFromPDF(t *testing.T) {
	srv := newGeminiServer(t, http.StatusOK,
		`{"date":"2024-02-01","merchant":"Grocer","total_amount":45.3,"items":[{"description":"Milk","total_price":4.5}]}`,
		nil)

	content, err := NewContent(domain.FileTypePDF, []byte("%PDF-1.4 receipt"), 0)
	require.NoError(t, err)

	res, err := NewGeminiClient("gemini-test").WithBaseURL(srv.URL).Extract(context.Background(), Request{
		Kind:    KindReceipt,
		Format:  domain.FileTypePDF,
		Content: content,
		APIKey:  "user-key",
	})
	require.NoError(t, err)

	require.NotNil(t, res.Receipt)
	assert.Equal(t, "Grocer", res.Receipt.Merchant)
	assert.Equal(t, 45.3, res.Receipt.TotalAmount)
	assert.Equal(t, "gemini-test", res.Model)
	assert.Equal(t, Usage{}, res.Usage)

	path, _, body := srv.last()
	assert.Contains(t, path, "gemini-test:generateContent")
	assert.Contains(t, body, "inlineData")
	assert.Contains(t, body, "application/pdf")
}

func TestGeminiClient_ExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		text    string
		wantOp  string
		wantErr string
	}{
		{"empty response", http.StatusOK, "", "read response", "empty response"},
		{"schema violation", http.StatusOK, `{"period_end":"2024-01-31","opening_balance":0,"closing_balance":0,"transactions":[]}`, "decode response", "period_start"},
		{"not json", http.StatusOK, "I could not read this file.", "decode response", ""},
		{"server error", http.StatusInternalServerError, "", "generate content", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newGeminiServer(t, tt.status, tt.text, nil)
			_, err := NewGeminiClient("").WithBaseURL(srv.URL).Extract(context.Background(), Request{
				Kind:    KindStatement,
				Format:  domain.FileTypeCSV,
				Content: Content{Text: "x", MIMEType: "text/plain"},
				APIKey:  "user-key",
			})
			require.Error(t, err)

			var ee *Error
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, KindStatement, ee.Kind)
			assert.Equal(t, tt.wantOp, ee.Op)
			if tt.wantErr != "" {
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
