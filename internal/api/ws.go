// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/websocket"
)

const registerTimeout = 5 * time.Second

// checkOrigin allows "*", listed origins, and with no list, same-host
// origins. Requests without an Origin header are rejected.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return false
		}
		if len(allowed) == 0 {
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// WebSocket upgrades GET /ws and attaches the connection to the hub.
//
// @Summary Training progress stream
// @Tags Training
// @Success 101 "Switching Protocols"
// @Failure 503 {object} APIResponse
// @Router /ws [get]
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "progress stream is not available", nil)
		return
	}
	upgrader := gws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checkOrigin(h.cfg.CORSOrigins),
	}
	// Upgrade writes its own error response.
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn)
	select {
	case h.hub.Register <- client:
	case <-time.After(registerTimeout):
		h.logger.Warn().Msg("websocket hub did not accept client, closing connection")
		_ = conn.Close()
		return
	}
	client.Start()
}
