package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	config "github.com/blaircullen/socialdesk/configs"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

// CaptionGenerator drafts caption text for an article/account pair. A
// generation failure is reported to the operator and never touches
// queue state.
type CaptionGenerator interface {
	Generate(ctx context.Context, articleID, accountID string) (string, error)
}

type httpCaptionGenerator struct {
	cfg    config.Config
	client *http.Client
}

func NewHTTPCaptionGenerator(cfg config.Config) CaptionGenerator {
	return &httpCaptionGenerator{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (g *httpCaptionGenerator) Generate(ctx context.Context, articleID, accountID string) (string, error) {
	body, err := json.Marshal(transfer.CaptionRequest{
		ArticleID: articleID,
		AccountID: accountID,
	})
	if err != nil {
		return "", err
	}

	url := g.cfg.CaptionGeneratorURL + "/captions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result transfer.CaptionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("malformed caption response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("caption generator returned status %d", resp.StatusCode)
		}
		return "", errors.New(msg)
	}
	if result.Caption == "" {
		return "", errors.New("caption generator returned empty text")
	}

	return result.Caption, nil
}
