package paramstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// connectionPayload is the JSON shape accepted for stored database credentials.
type connectionPayload struct {
	URL              string `json:"url"`
	ConnectionString string `json:"connection_string"`
}

// ConnectionString resolves a database URL stored under name. The parameter
// may hold the URL itself or a JSON object with "url" or "connection_string".
func ConnectionString(ctx context.Context, getter Getter, name string) (string, error) {
	if getter == nil {
		return "", errors.New("paramstore: getter is nil")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("paramstore: connection parameter name is empty")
	}

	raw, err := getter.GetParameter(ctx, name)
	if errors.Is(err, ErrParameterNotFound) {
		return "", fmt.Errorf("paramstore: connection parameter %q not found, set WEBHOOK_DB_URL or create it: %w", name, err)
	}
	if err != nil {
		return "", fmt.Errorf("paramstore: fetch connection string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		if raw == "" {
			return "", errors.New("paramstore: connection string is empty")
		}
		return raw, nil
	}

	var p connectionPayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", fmt.Errorf("paramstore: unmarshal connection parameter as JSON: %w", err)
	}
	url := strings.TrimSpace(p.URL)
	if url == "" {
		url = strings.TrimSpace(p.ConnectionString)
	}
	if url == "" {
		return "", errors.New("paramstore: connection string is empty")
	}
	return url, nil
}
