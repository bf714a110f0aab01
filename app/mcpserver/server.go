package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"chatloop/app/service/history"
	"chatloop/app/service/session"
	"chatloop/app/service/settings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/samber/do"
)

const (
	serverName    = "chatloop"
	serverVersion = "1.0.0"
)

// Server exposes the chat session as MCP tools over stdio.
type Server struct {
	sessionSvc *session.Service
	mcpServer  *server.MCPServer
}

func NewServer(sessionSvc *session.Service) *Server {
	s := &Server{
		sessionSvc: sessionSvc,
		mcpServer:  server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false)),
	}
	s.registerTools()

	return s
}

func New(di *do.Injector) (*Server, error) {
	return NewServer(do.MustInvoke[*session.Service](di)), nil
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("chat_submit",
			mcp.WithDescription("Send a message to the assistant. Ignored while a reply is pending."),
			mcp.WithString("text", mcp.Required(), mcp.Description("Message text")),
		),
		s.handleSubmit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_clear",
			mcp.WithDescription("Clear the conversation and cancel any pending reply."),
		),
		s.handleClear,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_snapshot",
			mcp.WithDescription("Return the conversation, settings and status as JSON."),
		),
		s.handleSnapshot,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_transcript",
			mcp.WithDescription("Return the conversation as plain text."),
		),
		s.handleTranscript,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("chat_set_setting",
			mcp.WithDescription("Change a setting: model, tone, show_timestamps or simulate_delay."),
			mcp.WithString("kind",
				mcp.Required(),
				mcp.Enum(
					string(session.SettingModel),
					string(session.SettingTone),
					string(session.SettingShowTimestamps),
					string(session.SettingSimulateDelay),
				),
			),
			mcp.WithString("value", mcp.Required(), mcp.Description("New value in text form")),
		),
		s.handleSetSetting,
	)
}

// Run serves MCP over stdin/stdout until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("MCP tools served over stdio")

	return server.NewStdioServer(s.mcpServer).Listen(ctx, os.Stdin, os.Stdout)
}

func (s *Server) handleSubmit(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !s.sessionSvc.Submit(text) {
		if s.sessionSvc.Snapshot().Status.Sending {
			return mcp.NewToolResultError("a reply is still pending"), nil
		}
		return mcp.NewToolResultText("nothing to send"), nil
	}

	return s.snapshotResult()
}

func (s *Server) handleClear(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.sessionSvc.Clear()

	return s.snapshotResult()
}

func (s *Server) handleSnapshot(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.snapshotResult()
}

func (s *Server) handleTranscript(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snapshot := s.sessionSvc.Snapshot()

	return mcp.NewToolResultText(history.Format(snapshot.Messages, snapshot.Settings.ShowTimestamps)), nil
}

func (s *Server) handleSetSetting(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	value, err := request.RequireString("value")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err = s.sessionSvc.ChangeSetting(session.SettingKind(kind), value); err != nil {
		if isValidationError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("ChangeSetting: %w", err)
	}

	return s.snapshotResult()
}

func (s *Server) snapshotResult() (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.sessionSvc.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return mcp.NewToolResultText(string(data)), nil
}

func isValidationError(err error) bool {
	return errors.Is(err, settings.ErrInvalidModelID) ||
		errors.Is(err, settings.ErrInvalidTone) ||
		errors.Is(err, session.ErrInvalidSettingValue) ||
		errors.Is(err, session.ErrUnknownSetting)
}
