/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package notify signals ErsatzTV after a successful apply. The reset
// is fire and forget: a failure is reported to the caller but never
// unwinds the committed database mutation.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const resetTimeout = 10 * time.Second

// ResetPlayout asks the server to rebuild the channel's playout so the
// new playlist takes effect without a restart.
func ResetPlayout(ctx context.Context, client *http.Client, baseURL, channelNumber string) error {
	if client == nil {
		client = &http.Client{Timeout: resetTimeout}
	}
	url := fmt.Sprintf("%s/api/channels/%s/playout/reset", strings.TrimRight(baseURL, "/"), channelNumber)

	ctx, cancel := context.WithTimeout(ctx, resetTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("build playout reset request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("playout reset: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("playout reset: unexpected status %s", resp.Status)
	}
	return nil
}
