package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"chatloop/app/service/feed"
	"chatloop/app/service/history"
	"chatloop/app/service/session"
	"chatloop/app/service/settings"

	"github.com/gofiber/fiber/v2"
)

const keepAliveInterval = 15 * time.Second

type submitRequest struct {
	Text string `json:"text"`
}

type settingsRequest struct {
	Model          *string `json:"model"`
	Tone           *string `json:"tone"`
	ShowTimestamps *bool   `json:"show_timestamps"`
	SimulateDelay  *bool   `json:"simulate_delay"`
}

func (s *Server) getSession(c *fiber.Ctx) error {
	return c.JSON(s.sessionSvc.Snapshot())
}

func (s *Server) getModels(c *fiber.Ctx) error {
	return c.JSON(s.sessionSvc.Catalog())
}

// getTranscript renders the conversation as plain text, honoring the
// timestamp visibility setting.
func (s *Server) getTranscript(c *fiber.Ctx) error {
	snapshot := s.sessionSvc.Snapshot()

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.SendString(history.Format(snapshot.Messages, snapshot.Settings.ShowTimestamps))
}

// getEvents streams a snapshot after every state change as server-sent
// events. The event id is the snapshot version.
func (s *Server) getEvents(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	snapshots := feed.New(s.sessionSvc)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer snapshots.Close()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
			case snapshot, ok := <-snapshots.Channel():
				if !ok {
					return
				}

				data, err := json.Marshal(snapshot)
				if err != nil {
					slog.Error("Failed to marshal snapshot", "error", err)
					return
				}

				if _, err = fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snapshot.Version, data); err != nil {
					return
				}
			}

			if err := w.Flush(); err != nil {
				slog.Debug("Event stream closed", "error", err)
				return
			}
		}
	})

	return nil
}

func (s *Server) postMessage(c *fiber.Ctx) error {
	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.Text) == "" {
		return c.JSON(s.sessionSvc.Snapshot())
	}

	if !s.sessionSvc.Submit(req.Text) {
		return fiber.NewError(fiber.StatusConflict, "a reply is still pending")
	}

	return c.Status(fiber.StatusAccepted).JSON(s.sessionSvc.Snapshot())
}

func (s *Server) deleteMessages(c *fiber.Ctx) error {
	s.sessionSvc.Clear()

	return c.JSON(s.sessionSvc.Snapshot())
}

func (s *Server) patchSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	// validated up front so a bad tone cannot leave a half-applied patch
	var tone settings.Tone
	if req.Tone != nil {
		parsed, err := settings.ParseTone(*req.Tone)
		if err != nil {
			return settingError(err)
		}
		tone = parsed
	}

	if req.Model != nil {
		if _, err := s.sessionSvc.SetModel(*req.Model); err != nil {
			return settingError(err)
		}
	}
	if req.Tone != nil {
		if err := s.sessionSvc.SetTone(tone); err != nil {
			return settingError(err)
		}
	}
	if req.ShowTimestamps != nil {
		s.sessionSvc.SetShowTimestamps(*req.ShowTimestamps)
	}
	if req.SimulateDelay != nil {
		s.sessionSvc.SetSimulateDelay(*req.SimulateDelay)
	}

	return c.JSON(s.sessionSvc.Snapshot())
}

func settingError(err error) error {
	switch {
	case errors.Is(err, settings.ErrInvalidModelID),
		errors.Is(err, settings.ErrInvalidTone),
		errors.Is(err, session.ErrInvalidSettingValue),
		errors.Is(err, session.ErrUnknownSetting):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	default:
		return err
	}
}
