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
	"github.com/blaircullen/socialdesk/internal/models"
	"github.com/blaircullen/socialdesk/internal/transfer"
)

// Publisher is the external platform bridge. Implementations must be
// safe to call at most once per claimed sending transition; the queue
// guarantees it is never called twice without an intervening retry.
type Publisher interface {
	Publish(ctx context.Context, req *transfer.PublishRequest) (string, error)
}

type httpPublisher struct {
	cfg    config.Config
	client *http.Client
}

func NewHTTPPublisher(cfg config.Config) Publisher {
	return &httpPublisher{
		cfg:    cfg,
		client: &http.Client{},
	}
}

func (p *httpPublisher) Publish(ctx context.Context, req *transfer.PublishRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/publish/%s", p.cfg.PublisherURL, req.Platform)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var result transfer.PublishResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("malformed publisher response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := result.Error
		if msg == "" {
			msg = fmt.Sprintf("publisher returned status %d", resp.StatusCode)
		}
		return "", errors.New(msg)
	}
	if result.PlatformPostID == "" {
		return "", errors.New("publisher returned no post id")
	}

	return result.PlatformPostID, nil
}

// BuildPublishRequest assembles the platform-tagged payload for one
// post. Exactly one variant is populated, matching the account's
// platform.
func BuildPublishRequest(post *models.SocialPost, account *models.SocialAccount) *transfer.PublishRequest {
	req := &transfer.PublishRequest{
		PostID:     post.ID,
		Platform:   account.Platform,
		Handle:     account.Handle,
		Caption:    post.Caption,
		ImageURL:   post.ImageURL,
		ArticleURL: post.ArticleURL,
	}

	switch account.Platform {
	case models.PlatformX:
		req.X = &transfer.XOptions{}
	case models.PlatformFacebook:
		req.Facebook = &transfer.FacebookOptions{LinkAttachment: post.ArticleURL}
	case models.PlatformTruthSocial:
		req.TruthSocial = &transfer.TruthSocialOptions{Visibility: "public"}
	case models.PlatformInstagram:
		req.Instagram = &transfer.InstagramOptions{MediaType: "IMAGE"}
		// Instagram does not render caption links; fold the article
		// URL into the caption text.
		req.Caption = post.Caption + "\n" + post.ArticleURL
	}

	return req
}
