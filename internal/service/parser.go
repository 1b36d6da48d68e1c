package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"microcap-trading/internal/dto"
	"microcap-trading/pkg/validation"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ParseError is returned when no JSON object can be decoded from a response.
// Raw keeps the text exactly as received.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// GatewayError is a failure reported by the LLM side, either as a transport error
// or as an {"error": ...} payload.
type GatewayError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *GatewayError) Error() string {
	return "llm gateway error: " + e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Cause
}

// SchemaError is returned when the object decodes but its envelope has the wrong shape.
type SchemaError struct {
	Field  string
	Reason string
	Raw    string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid recommendation: %s %s", e.Field, e.Reason)
}

// ExtractJSONObject decodes the span from the first '{' to the last '}' and falls back
// to the whole text. Only objects are accepted.
func ExtractJSONObject(text string) (map[string]json.RawMessage, error) {
	obj, _, err := extractJSON(text)
	return obj, err
}

// extractJSON also returns the decoded object in compact form, keys and numbers as sent.
func extractJSON(text string) (map[string]json.RawMessage, json.RawMessage, error) {
	var spanErr error
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		obj, doc, err := decodeObject(text[start : end+1])
		if err == nil {
			return obj, doc, nil
		}
		spanErr = err
	}

	obj, doc, err := decodeObject(text)
	if err == nil {
		return obj, doc, nil
	}
	if spanErr != nil {
		return nil, nil, &ParseError{Raw: text, Cause: spanErr}
	}
	return nil, nil, &ParseError{Raw: text, Cause: err}
}

func decodeObject(s string) (map[string]json.RawMessage, json.RawMessage, error) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, nil, err
	}
	if obj == nil {
		return nil, nil, errors.New("response is not a JSON object")
	}
	// dec.More misses a stray '}' or ']'.
	offset := dec.InputOffset()
	if strings.TrimSpace(s[offset:]) != "" {
		return nil, nil, fmt.Errorf("trailing data after JSON object at offset %d", offset)
	}

	var doc bytes.Buffer
	if err := json.Compact(&doc, []byte(s[:offset])); err != nil {
		return nil, nil, err
	}
	return obj, doc.Bytes(), nil
}

type ResponseParser struct {
	validate *validator.Validate
}

func NewResponseParser(validate *validator.Validate) *ResponseParser {
	return &ResponseParser{validate: validate}
}

// Parse turns model text into a checked Recommendation. Errors are *ParseError,
// *GatewayError or *SchemaError.
func (p *ResponseParser) Parse(text string) (*dto.Recommendation, error) {
	obj, doc, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	if rawErr, ok := obj["error"]; ok {
		return nil, &GatewayError{Message: jsonString(rawErr), Raw: text}
	}

	rec := &dto.Recommendation{
		Analysis: dto.DefaultAnalysis,
		Trades:   []dto.TradeProposal{},
		Document: doc,
	}

	if raw, ok := obj["analysis"]; ok && !isNull(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &SchemaError{Field: "analysis", Reason: "must be a string", Raw: text}
		}
		rec.Analysis = s
	}

	if raw, ok := obj["confidence"]; ok && !isNull(raw) {
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, &SchemaError{Field: "confidence", Reason: "must be a number", Raw: text}
		}
		rec.Confidence = f
	}

	if raw, ok := obj["trades"]; ok && !isNull(raw) {
		var entries []json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &SchemaError{Field: "trades", Reason: "must be an array", Raw: text}
		}
		for _, entry := range entries {
			rec.Trades = append(rec.Trades, decodeProposal(entry))
		}
	}

	if err := p.validate.Struct(rec); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &SchemaError{Field: strings.ToLower(verrs[0].Field()), Reason: "fails " + verrs[0].Tag(), Raw: text}
		}
		return nil, &SchemaError{Field: "recommendation", Reason: err.Error(), Raw: text}
	}

	return rec, nil
}

// decodeProposal never fails: fields of the wrong type stay zero and are listed in Issues,
// which makes the executor treat the proposal as invalid.
func decodeProposal(raw json.RawMessage) dto.TradeProposal {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return dto.TradeProposal{Reason: dto.DefaultReason, Issues: []string{"trade entry is not an object"}}
	}

	var p dto.TradeProposal
	str := func(key string) string {
		v, ok := fields[key]
		if !ok || isNull(v) {
			return ""
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			p.Issues = append(p.Issues, key+" is not a string")
			return ""
		}
		return s
	}
	num := func(key string) decimal.Decimal {
		v, ok := fields[key]
		if !ok || isNull(v) {
			return decimal.Zero
		}
		d, err := parseNumber(v)
		if err != nil {
			p.Issues = append(p.Issues, key+" is not a number")
			return decimal.Zero
		}
		return d
	}

	p.Action = dto.Action(strings.ToLower(strings.TrimSpace(str("action"))))
	p.Ticker = strings.ToUpper(strings.TrimSpace(str("ticker")))
	p.Shares = num("shares")
	p.Price = num("price")
	p.StopLoss = num("stop_loss")
	p.Reason = str("reason")
	if p.Reason == "" {
		p.Reason = dto.DefaultReason
	}
	return p
}

// parseNumber accepts a JSON number or a string holding one.
func parseNumber(v json.RawMessage) (decimal.Decimal, error) {
	trimmed := bytes.TrimSpace(v)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromString(n.String())
}

func isNull(v json.RawMessage) bool {
	return string(bytes.TrimSpace(v)) == "null"
}

func jsonString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(v)
}

// ParseRecommendation parses text with a default validator.
func ParseRecommendation(text string) (*dto.Recommendation, error) {
	return NewResponseParser(validation.New()).Parse(text)
}
