/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package probe measures media durations for flat-mode items that do
// not declare one.
package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Prober reports a media file's duration.
type Prober interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// FFprobe shells out to ffprobe.
type FFprobe struct {
	// Binary overrides the executable name, default "ffprobe".
	Binary string
}

func (f *FFprobe) Duration(ctx context.Context, path string) (time.Duration, error) {
	bin := f.Binary
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	raw := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparseable duration %q", path, raw)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("ffprobe %s: non-positive duration %v", path, seconds)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
