/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version provides version information.
package version

// Version is the current version of lineup.
// This is set at build time via ldflags:
//
//	-X github.com/channelforge/lineup/internal/version.Version=X.Y.Z
var Version = "0.4.1"
