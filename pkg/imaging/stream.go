package imaging

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// StreamAnalysisProgress subscribes to the websocket progress feed of one
// analysis job and sends every status onto updates until a terminal status
// arrives or the server closes the stream. The channel is closed before
// returning. This is the push counterpart of WaitForAnalysisComplete; the
// statuses carried are identical.
func (c *Client) StreamAnalysisProgress(ctx context.Context, analysisID string, updates chan<- AnalysisStatus) error {
	defer close(updates)

	wsURL, err := c.streamURL(analysisID)
	if err != nil {
		return err
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		if resp != nil {
			return &ServiceError{StatusCode: resp.StatusCode, Body: resp.Status}
		}
		return &NetworkError{URL: wsURL, Err: err}
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return &NetworkError{URL: wsURL, Err: err}
		}

		var status AnalysisStatus
		if err := sonic.Unmarshal(msg, &status); err != nil {
			return &MalformedResponseError{AnalysisID: analysisID, Reason: fmt.Sprintf("decoding stream message: %v", err)}
		}

		select {
		case updates <- status:
		case <-ctx.Done():
			return ctx.Err()
		}

		if status.Completed {
			return nil
		}
	}
}

func (c *Client) streamURL(analysisID string) (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimRight(u.Path, "/") + apiPrefix + "/analysis/" + url.PathEscape(analysisID) + "/stream"
	return u.String(), nil
}
