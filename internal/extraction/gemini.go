package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/finance-ingest/internal/logger"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// GeminiClient calls the Gemini API with structured JSON output. A genai
// client is created per call because the API key belongs to the user.
type GeminiClient struct {
	model   string
	baseURL string
}

// NewGeminiClient returns a client for model, or DefaultModel when empty.
func NewGeminiClient(model string) *GeminiClient {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiClient{model: model}
}

// WithBaseURL points the client at a different Gemini endpoint.
func (c *GeminiClient) WithBaseURL(url string) *GeminiClient {
	c.baseURL = url
	return c
}

// Model returns the configured model name.
func (c *GeminiClient) Model() string {
	return c.model
}

// Extract implements Client.
func (c *GeminiClient) Extract(ctx context.Context, req Request) (*Result, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.APIKey) == "" {
		return nil, ErrMissingCredential
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      req.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return nil, &Error{Kind: req.Kind, Op: "create genai client", Err: err}
	}

	parts := []*genai.Part{{Text: buildPrompt(req.Kind, req.Format, req.Content)}}
	if req.Content.Binary() {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: req.Content.MIMEType,
				Data:     req.Content.Data,
			},
		})
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	temperature := float32(0)
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema(req.Kind),
	}

	log.Debug().
		Str("model", c.model).
		Str("kind", string(req.Kind)).
		Str("format", string(req.Format)).
		Bool("binary", req.Content.Binary()).
		Msg("Calling Gemini")

	resp, err := client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &Error{Kind: req.Kind, Op: "generate content", Err: fmt.Errorf("timed out: %w", err)}
		}
		return nil, &Error{Kind: req.Kind, Op: "generate content", Err: err}
	}

	rawText := resp.Text()
	if rawText == "" {
		return nil, &Error{Kind: req.Kind, Op: "read response", Err: errors.New("empty response from model")}
	}

	res, err := Decode(req.Kind, cleanModelJSON(rawText))
	if err != nil {
		return nil, &Error{Kind: req.Kind, Op: "decode response", Err: err}
	}
	res.Model = c.model
	if u := resp.UsageMetadata; u != nil {
		res.Usage = Usage{
			InputTokens:  int64(u.PromptTokenCount),
			OutputTokens: int64(u.CandidatesTokenCount),
		}
	}
	return res, nil
}

func responseSchema(kind SourceKind) *genai.Schema {
	str := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeString, Description: desc} }
	num := func(desc string) *genai.Schema { return &genai.Schema{Type: genai.TypeNumber, Description: desc} }

	if kind == KindReceipt {
		item := &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"description": str("Item description"),
				"quantity":    num("Quantity purchased"),
				"unit_price":  num("Price per unit"),
				"total_price": num("Line total"),
			},
			Required:         []string{"description", "total_price"},
			PropertyOrdering: []string{"description", "quantity", "unit_price", "total_price"},
		}
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"date":         str("Receipt date, YYYY-MM-DD"),
				"merchant":     str("Merchant name"),
				"total_amount": num("Total paid"),
				"tax_amount":   num("Tax included in the total"),
				"items":        {Type: genai.TypeArray, Items: item},
			},
			Required:         []string{"date", "merchant", "total_amount", "items"},
			PropertyOrdering: []string{"date", "merchant", "total_amount", "tax_amount", "items"},
		}
	}

	txn := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"date":        str("Transaction date, YYYY-MM-DD"),
			"amount":      num("Signed amount: positive for money in, negative for money out"),
			"description": str("Statement description"),
			"merchant":    str("Counterparty name"),
		},
		Required:         []string{"date", "amount", "description"},
		PropertyOrdering: []string{"date", "amount", "description", "merchant"},
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"account_name":    str("Account name as printed"),
			"period_start":    str("First day of the statement period, YYYY-MM-DD"),
			"period_end":      str("Last day of the statement period, YYYY-MM-DD"),
			"opening_balance": num("Balance at period start"),
			"closing_balance": num("Balance at period end"),
			"transactions":    {Type: genai.TypeArray, Items: txn},
		},
		Required: []string{"period_start", "period_end", "opening_balance", "closing_balance", "transactions"},
		PropertyOrdering: []string{
			"account_name", "period_start", "period_end",
			"opening_balance", "closing_balance", "transactions",
		},
	}
}

var _ Client = (*GeminiClient)(nil)
