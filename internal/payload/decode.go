package payload

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"call-duration-analyzer/internal/domain"
)

var errNotObject = errors.New("payload: document is not a JSON object")

// strategy turns a raw payload string into a document or reports why it could not.
type strategy struct {
	name   string
	decode func(string) (domain.Document, error)
}

// strategies are tried in order; the first success wins.
var strategies = []strategy{
	{name: "base64+gzip", decode: decodeCompressed},
	{name: "json", decode: decodeJSON},
}

// Decode normalizes a stored webhook payload into a document.
//
// Maps are returned unchanged. Strings are decoded as base64-wrapped gzip
// JSON, then as plain JSON. Anything else, or a string no strategy accepts,
// yields an empty document. Decode never fails.
func Decode(raw any) domain.Document {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case string:
		doc, _ := DecodeString(v)
		return doc
	default:
		return domain.Document{}
	}
}

// DecodeString runs the decode strategies against s. The returned document is
// never nil; the error joins every strategy failure when none succeeded.
func DecodeString(s string) (domain.Document, error) {
	errs := make([]error, 0, len(strategies))
	for _, st := range strategies {
		doc, err := st.decode(s)
		if err == nil {
			return doc, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", st.name, err))
	}
	return domain.Document{}, errors.Join(errs...)
}

func decodeCompressed(s string) (domain.Document, error) {
	compressed, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("payload: base64: %w", err)
	}
	zr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("payload: gzip header: %w", err)
	}
	defer zr.Close()

	text, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("payload: gzip body: %w", err)
	}
	return unmarshalObject(text)
}

func decodeJSON(s string) (domain.Document, error) {
	return unmarshalObject([]byte(s))
}

// unmarshalObject parses a JSON object, keeping numbers as json.Number so the
// raw representation of durations survives into the report.
func unmarshalObject(text []byte) (domain.Document, error) {
	dec := json.NewDecoder(bytes.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("payload: json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("payload: json: trailing data")
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return doc, nil
}
