package service

import (
	"testing"

	"microcap-trading/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecommendation_ExtractsEmbeddedObject(t *testing.T) {
	text := `Here is my answer: {"analysis":"ok","trades":[],"confidence":0.5}, done`

	rec, err := ParseRecommendation(text)
	require.NoError(t, err)

	assert.Equal(t, "ok", rec.Analysis)
	assert.Empty(t, rec.Trades)
	assert.Equal(t, 0.5, rec.Confidence)
}

func TestParseRecommendation_UnbalancedBracesKeepRawText(t *testing.T) {
	text := "I think {\"analysis\": \"missing end\", \"trades\": [ and nothing else"

	rec, err := ParseRecommendation(text)
	assert.Nil(t, rec)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, text, perr.Raw)
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantErr    interface{}
		wantTrades []dto.TradeProposal
		check      func(t *testing.T, rec *dto.Recommendation)
	}{
		{
			name: "whole text is json",
			text: `{"analysis":"a","trades":[{"action":"buy","ticker":"abc","shares":10,"price":5,"stop_loss":4,"reason":"r"}],"confidence":0.8}`,
			wantTrades: []dto.TradeProposal{{
				Action: dto.ActionBuy, Ticker: "ABC",
				Shares: decimal.NewFromInt(10), Price: decimal.NewFromInt(5), StopLoss: decimal.NewFromInt(4),
				Reason: "r",
			}},
		},
		{
			name: "missing optional fields get defaults",
			text: "```json\n{\"trades\":[{\"action\":\"HOLD\",\"ticker\":\"xyz\"}]}\n```",
			wantTrades: []dto.TradeProposal{{
				Action: dto.ActionHold, Ticker: "XYZ", Reason: dto.DefaultReason,
			}},
			check: func(t *testing.T, rec *dto.Recommendation) {
				assert.Equal(t, dto.DefaultAnalysis, rec.Analysis)
				assert.Equal(t, 0.0, rec.Confidence)
			},
		},
		{
			name: "numeric strings are accepted",
			text: `{"trades":[{"action":"sell","ticker":"ABC","shares":"3","price":"2.25"}]}`,
			wantTrades: []dto.TradeProposal{{
				Action: dto.ActionSell, Ticker: "ABC",
				Shares: decimal.NewFromInt(3), Price: decimal.RequireFromString("2.25"),
				Reason: dto.DefaultReason,
			}},
		},
		{
			name: "wrong field types are recorded as issues",
			text: `{"trades":[{"action":"buy","ticker":"ABC","shares":"ten","price":true}]}`,
			check: func(t *testing.T, rec *dto.Recommendation) {
				require.Len(t, rec.Trades, 1)
				assert.True(t, rec.Trades[0].Shares.IsZero())
				assert.Equal(t, []string{"shares is not a number", "price is not a number"}, rec.Trades[0].Issues)
			},
		},
		{
			name: "non object trade entry is kept as an invalid proposal",
			text: `{"trades":["buy ABC"]}`,
			check: func(t *testing.T, rec *dto.Recommendation) {
				require.Len(t, rec.Trades, 1)
				assert.NotEmpty(t, rec.Trades[0].Issues)
			},
		},
		{
			name:    "error payload is a gateway error",
			text:    `{"error": "API call failed: timeout"}`,
			wantErr: &GatewayError{},
		},
		{
			name:    "trades not an array",
			text:    `{"analysis":"a","trades":{"action":"buy"}}`,
			wantErr: &SchemaError{},
		},
		{
			name:    "confidence out of range",
			text:    `{"analysis":"a","trades":[],"confidence":1.5}`,
			wantErr: &SchemaError{},
		},
		{
			name:    "analysis not a string",
			text:    `{"analysis":42,"trades":[]}`,
			wantErr: &SchemaError{},
		},
		{
			name:    "array is not an object",
			text:    `[1, 2, 3]`,
			wantErr: &ParseError{},
		},
		{
			name:    "no json at all",
			text:    "I cannot help with that.",
			wantErr: &ParseError{},
		},
		{
			name:    "extra closing brace",
			text:    `{"analysis":"ok","trades":[],"confidence":0.5}}`,
			wantErr: &ParseError{},
		},
		{
			name:    "extra closing brace inside prose",
			text:    `Answer: {"analysis":"ok","trades":[],"confidence":0.5}} thanks`,
			wantErr: &ParseError{},
		},
		{
			// the first-to-last brace span ends before the bracket
			name: "stray bracket after the span",
			text: `{"analysis":"ok","trades":[],"confidence":0.5}]`,
			check: func(t *testing.T, rec *dto.Recommendation) {
				assert.Equal(t, "ok", rec.Analysis)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecommendation(tt.text)
			switch want := tt.wantErr.(type) {
			case *GatewayError:
				assert.ErrorAs(t, err, &want)
				return
			case *SchemaError:
				assert.ErrorAs(t, err, &want)
				assert.Equal(t, tt.text, want.Raw)
				return
			case *ParseError:
				assert.ErrorAs(t, err, &want)
				assert.Equal(t, tt.text, want.Raw)
				return
			}
			require.NoError(t, err)
			if tt.wantTrades != nil {
				require.Len(t, rec.Trades, len(tt.wantTrades))
				for i, want := range tt.wantTrades {
					got := rec.Trades[i]
					assert.Equal(t, want.Action, got.Action)
					assert.Equal(t, want.Ticker, got.Ticker)
					assert.True(t, want.Shares.Equal(got.Shares), "shares %s", got.Shares)
					assert.True(t, want.Price.Equal(got.Price), "price %s", got.Price)
					assert.True(t, want.StopLoss.Equal(got.StopLoss), "stop loss %s", got.StopLoss)
					assert.Equal(t, want.Reason, got.Reason)
					assert.Empty(t, got.Issues)
				}
			}
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestDecodeObject_RejectsTrailingData(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{name: "object only", in: `{"a":1}`},
		{name: "trailing whitespace", in: "{\"a\":1} \n\t"},
		{name: "stray brace", in: `{"a":1}}`, wantErr: true},
		{name: "stray bracket", in: `{"a":1}]`, wantErr: true},
		{name: "second value", in: `{"a":1} 2`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := decodeObject(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRecommendation_KeepsDocumentAsSent(t *testing.T) {
	text := "Plan:\n{\"analysis\": \"a\", \"note\": \"keep\",\n \"trades\": [{\"action\": \"buy\", \"ticker\": \"abc\", \"shares\": 10, \"price\": 5.5, \"extra\": true}],\n \"confidence\": 0.8}\nGood luck"

	rec, err := ParseRecommendation(text)
	require.NoError(t, err)

	assert.Equal(t,
		`{"analysis":"a","note":"keep","trades":[{"action":"buy","ticker":"abc","shares":10,"price":5.5,"extra":true}],"confidence":0.8}`,
		string(rec.Document))
}

func TestExtractJSONObject_FallsBackToWholeText(t *testing.T) {
	// the first-to-last span covers two objects and fails, but the text itself does not decode either
	_, err := ExtractJSONObject(`{"a":1} and {"b":2}`)
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)

	obj, err := ExtractJSONObject(`  {"a":1}  `)
	require.NoError(t, err)
	assert.Contains(t, obj, "a")
}
