/*
Copyright (C) 2026 Channelforge

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResetPlayout_PostsToChannelEndpoint(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := ResetPlayout(context.Background(), srv.Client(), srv.URL+"/", "42"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	if gotMethod != http.MethodPost {
		t.Fatalf("method: got %s want POST", gotMethod)
	}
	if gotPath != "/api/channels/42/playout/reset" {
		t.Fatalf("path: got %s", gotPath)
	}
}

func TestResetPlayout_NonSuccessStatusIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if err := ResetPlayout(context.Background(), srv.Client(), srv.URL, "42"); err == nil {
		t.Fatalf("expected error for 500 response")
	}
}
