package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Mohammed-Khaledx/connect-chat/internal/chat"
)

// FetchGlobalMessages retrieves the global message backfill from the server's
// REST API, newest first. baseURL is the HTTP origin, e.g. http://localhost:8080.
func FetchGlobalMessages(ctx context.Context, baseURL string, limit int) ([]chat.Message, error) {
	endpoint := baseURL + "/api/messages/global"
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build backfill request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch backfill: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backfill status %d", resp.StatusCode)
	}

	var messages []chat.Message
	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, fmt.Errorf("decode backfill: %w", err)
	}
	return messages, nil
}
