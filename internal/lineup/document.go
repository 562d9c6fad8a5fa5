/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package lineup assembles solved blocks and bumper runs into the
// playlist document, the serialized artifact the verify and apply
// stages re-load. Flat mode builds the same document directly from an
// ordered item list with loop expansion.
package lineup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/channelforge/lineup/internal/config"
)

// Row is one playlist entry. IncludeInGuide nil means the apply stage
// derives visibility from the schedule's guide mode.
type Row struct {
	Path           string           `yaml:"path"`
	Type           config.MediaType `yaml:"type"`
	IncludeInGuide *bool            `yaml:"include_in_guide,omitempty"`
}

// ChannelHeader mirrors the channel the document targets.
type ChannelHeader struct {
	Name   string `yaml:"name"`
	Number string `yaml:"number"`
	Group  string `yaml:"group,omitempty"`
}

// ScheduleHeader carries the schedule defaults apply needs.
type ScheduleHeader struct {
	Name      string `yaml:"name"`
	GuideMode string `yaml:"guide_mode,omitempty"`
	Shuffle   bool   `yaml:"shuffle,omitempty"`
}

// Document is a complete, re-loadable lineup. Serialization is
// deterministic: the same document always yields the same bytes.
type Document struct {
	Channel  ChannelHeader  `yaml:"channel"`
	Schedule ScheduleHeader `yaml:"schedule"`
	Playlist string         `yaml:"playlist"`
	Seed     int64          `yaml:"seed,omitempty"`
	Rows     []Row          `yaml:"rows"`
}

// Load reads a document from disk.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lineup document: %w", err)
	}
	return Parse(data)
}

// Parse decodes a document and checks minimal shape.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse lineup document: %w", err)
	}
	if len(doc.Rows) == 0 {
		return nil, fmt.Errorf("lineup document has no rows")
	}
	for i, row := range doc.Rows {
		if row.Path == "" {
			return nil, fmt.Errorf("rows[%d]: missing path", i)
		}
		if !config.ValidMediaType(row.Type) {
			return nil, fmt.Errorf("rows[%d]: unknown media type %q", i, row.Type)
		}
	}
	return &doc, nil
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	return yaml.Marshal(d)
}

// Save writes the document to disk.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return fmt.Errorf("encode lineup document: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write lineup document: %w", err)
	}
	return nil
}
