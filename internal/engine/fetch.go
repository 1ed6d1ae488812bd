package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/catalogcrawl/internal/fetcher"
	"github.com/IshaanNene/catalogcrawl/internal/observability"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// fetchDocument performs one GET and parses the body. Every failure comes
// back as an error; callers decide how to degrade.
func fetchDocument(ctx context.Context, f fetcher.Fetcher, m *observability.Metrics, logger *slog.Logger, rawURL, tag string) (*types.Response, *goquery.Document, error) {
	req, err := types.NewRequest(rawURL)
	if err != nil {
		return nil, nil, err
	}
	req.Tag = tag

	m.RequestsTotal.Add(1)
	resp, err := f.Fetch(ctx, req)
	if err != nil {
		m.RequestsFailed.Add(1)
		return nil, nil, err
	}
	m.BytesDownloaded.Add(int64(len(resp.Body)))
	logger.Debug("page fetched",
		"tag", tag,
		"url", rawURL,
		"final_url", resp.FinalURL,
		"duration", resp.FetchDuration,
	)

	doc, err := resp.Document()
	if err != nil {
		return nil, nil, &types.ParseError{URL: rawURL, Err: fmt.Errorf("parse document: %w", err)}
	}
	return resp, doc, nil
}

// recovered converts a recovered panic value into an error.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}
