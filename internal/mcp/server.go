package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/timeriffic/timeriffic/internal/services"
	"github.com/timeriffic/timeriffic/internal/usecase"
)

// Server exposes the profile store as MCP tools
type Server struct {
	server *mcp.Server
	svc    *services.Services
}

// NewServer creates a new MCP server over an open profile store. The caller
// keeps ownership of svc.
func NewServer(svc *services.Services, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "timeriffic",
		Version: version,
	}, nil)

	s := &Server{
		server: mcpServer,
		svc:    svc,
	}

	s.registerTools()

	return s
}

// Run serves MCP over stdio until ctx is done or the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_profiles",
		Description: "List profiles in display order together with their timed actions",
	}, s.handleListProfiles)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "insert_profile",
		Description: "Add a profile at the end of the list or before another profile",
	}, s.handleInsertProfile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_profile",
		Description: "Rename, enable or disable a profile",
	}, s.handleUpdateProfile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_profile",
		Description: "Delete a profile and all of its timed actions",
	}, s.handleDeleteProfile)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_actions",
		Description: "List the timed actions of one profile in display order",
	}, s.handleListActions)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "insert_action",
		Description: "Add a timed action to a profile",
	}, s.handleInsertAction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "update_action",
		Description: "Change the fields of a timed action",
	}, s.handleUpdateAction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_action",
		Description: "Delete a single timed action",
	}, s.handleDeleteAction)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "reset",
		Description: "Delete every profile and action, then restore the example profiles if seeding is enabled",
	}, s.handleReset)
}

// Input/Output types for each tool

type ProfileEntry struct {
	RowID   int64         `json:"rowId"`
	Index   int64         `json:"index"`
	Title   string        `json:"title"`
	Enabled bool          `json:"enabled"`
	Actions []ActionEntry `json:"actions"`
}

type ActionEntry struct {
	RowID        int64  `json:"rowId"`
	ProfileIndex int64  `json:"profileIndex"`
	Offset       int64  `json:"offset"`
	Description  string `json:"description"`
	Active       bool   `json:"active"`
	Time         string `json:"time"`
	Days         string `json:"days"`
	Payload      string `json:"payload"`
	NextFireMs   int64  `json:"nextFireMs"`
}

type ListProfilesInput struct {
	EnabledOnly *bool `json:"enabledOnly,omitempty" jsonschema:"Only list enabled profiles and active actions"`
	Descending  *bool `json:"descending,omitempty" jsonschema:"List in reverse display order"`
}

type ListProfilesOutput struct {
	Profiles []ProfileEntry `json:"profiles"`
}

type InsertProfileInput struct {
	Title   string `json:"title" jsonschema:"Profile title"`
	Before  *int64 `json:"before,omitempty" jsonschema:"Index of the profile to insert before (append if omitted)"`
	Enabled *bool  `json:"enabled,omitempty" jsonschema:"Whether the profile is enabled (default true)"`
}

type InsertProfileOutput struct {
	Index int64 `json:"index"`
}

type UpdateProfileInput struct {
	Index   int64   `json:"index" jsonschema:"Index of the profile to change"`
	Title   *string `json:"title,omitempty" jsonschema:"New title"`
	Enabled *bool   `json:"enabled,omitempty" jsonschema:"New enabled state"`
}

type MessageOutput struct {
	Message string `json:"message"`
	Count   int64  `json:"count,omitempty"`
}

type DeleteProfileInput struct {
	Index int64 `json:"index" jsonschema:"Index of the profile to delete"`
}

type ListActionsInput struct {
	ProfileIndex int64 `json:"profileIndex" jsonschema:"Index of the owning profile"`
	ActiveOnly   *bool `json:"activeOnly,omitempty" jsonschema:"Only list active actions"`
	Descending   *bool `json:"descending,omitempty" jsonschema:"List in reverse display order"`
}

type ListActionsOutput struct {
	Actions []ActionEntry `json:"actions"`
}

type InsertActionInput struct {
	ProfileIndex int64  `json:"profileIndex" jsonschema:"Index of the owning profile"`
	Before       *int64 `json:"before,omitempty" jsonschema:"Offset of the action to insert before (append if omitted)"`
	Description  string `json:"description" jsonschema:"Action description"`
	Active       *bool  `json:"active,omitempty" jsonschema:"Whether the action is active (default true)"`
	Time         string `json:"time" jsonschema:"Time of day as HH:MM"`
	Days         string `json:"days" jsonschema:"Days of week, for example Mon-Thu or Fri,Sat or weekend"`
	Payload      string `json:"payload,omitempty" jsonschema:"Opaque action payload"`
	NextFireMs   int64  `json:"nextFireMs,omitempty" jsonschema:"Next fire time in epoch milliseconds"`
}

type InsertActionOutput struct {
	ProfileIndex int64 `json:"profileIndex"`
	Offset       int64 `json:"offset"`
}

type UpdateActionInput struct {
	RowID       int64   `json:"rowId" jsonschema:"Row id of the action to change"`
	Description *string `json:"description,omitempty" jsonschema:"New description"`
	Active      *bool   `json:"active,omitempty" jsonschema:"New active state"`
	Time        *string `json:"time,omitempty" jsonschema:"New time of day as HH:MM"`
	Days        *string `json:"days,omitempty" jsonschema:"New days of week"`
	Payload     *string `json:"payload,omitempty" jsonschema:"New payload"`
	NextFireMs  *int64  `json:"nextFireMs,omitempty" jsonschema:"New next fire time in epoch milliseconds"`
}

type DeleteActionInput struct {
	RowID int64 `json:"rowId" jsonschema:"Row id of the action to delete"`
}

type ResetInput struct{}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func int64Or(v *int64, def int64) int64 {
	if v == nil {
		return def
	}
	return *v
}

func toActionEntry(a services.TimedAction) ActionEntry {
	return ActionEntry{
		RowID:        a.RowID,
		ProfileIndex: a.ProfileIndex,
		Offset:       a.Offset,
		Description:  a.Description,
		Active:       a.Active,
		Time:         a.TimeOfDay.String(),
		Days:         a.Days.String(),
		Payload:      a.Payload,
		NextFireMs:   a.NextFireMs,
	}
}

func toActionEntries(actions []services.TimedAction) []ActionEntry {
	entries := make([]ActionEntry, 0, len(actions))
	for _, a := range actions {
		entries = append(entries, toActionEntry(a))
	}
	return entries
}

// Tool handlers

func (s *Server) handleListProfiles(ctx context.Context, req *mcp.CallToolRequest, input ListProfilesInput) (*mcp.CallToolResult, ListProfilesOutput, error) {
	opts := services.ListOptions{
		EnabledOnly: boolOr(input.EnabledOnly, false),
		Descending:  boolOr(input.Descending, false),
	}

	tree, err := usecase.NewProfiles(s.svc).Tree(ctx, opts)
	if err != nil {
		return nil, ListProfilesOutput{}, fmt.Errorf("failed to list profiles: %w", err)
	}

	profiles := make([]ProfileEntry, 0, len(tree))
	for _, p := range tree {
		profiles = append(profiles, ProfileEntry{
			RowID:   p.RowID,
			Index:   p.Index,
			Title:   p.Title,
			Enabled: p.Enabled,
			Actions: toActionEntries(p.Actions),
		})
	}

	return nil, ListProfilesOutput{Profiles: profiles}, nil
}

func (s *Server) handleInsertProfile(ctx context.Context, req *mcp.CallToolRequest, input InsertProfileInput) (*mcp.CallToolResult, InsertProfileOutput, error) {
	index, err := s.svc.Profiles.InsertProfile(ctx, int64Or(input.Before, 0), input.Title, boolOr(input.Enabled, true))
	if err != nil {
		return nil, InsertProfileOutput{}, fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil, InsertProfileOutput{Index: index}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, req *mcp.CallToolRequest, input UpdateProfileInput) (*mcp.CallToolResult, MessageOutput, error) {
	err := s.svc.Profiles.UpdateProfileByIndex(ctx, input.Index, services.ProfileUpdate{
		Title:   input.Title,
		Enabled: input.Enabled,
	})
	if err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return nil, MessageOutput{
		Message: fmt.Sprintf("Updated profile %d", input.Index),
		Count:   1,
	}, nil
}

func (s *Server) handleDeleteProfile(ctx context.Context, req *mcp.CallToolRequest, input DeleteProfileInput) (*mcp.CallToolResult, MessageOutput, error) {
	p, err := s.svc.Profiles.GetProfile(ctx, input.Index)
	if err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to delete profile: %w", err)
	}

	deleted, err := s.svc.Profiles.DeleteProfile(ctx, p.RowID)
	if err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil, MessageOutput{
		Message: fmt.Sprintf("Deleted profile %d '%s' and %d action(s)", input.Index, p.Title, deleted-1),
		Count:   deleted,
	}, nil
}

func (s *Server) handleListActions(ctx context.Context, req *mcp.CallToolRequest, input ListActionsInput) (*mcp.CallToolResult, ListActionsOutput, error) {
	if _, err := s.svc.Profiles.GetProfile(ctx, input.ProfileIndex); err != nil {
		return nil, ListActionsOutput{}, fmt.Errorf("failed to list actions: %w", err)
	}

	actions, err := s.svc.Actions.ListActions(ctx, input.ProfileIndex, services.ListOptions{
		EnabledOnly: boolOr(input.ActiveOnly, false),
		Descending:  boolOr(input.Descending, false),
	})
	if err != nil {
		return nil, ListActionsOutput{}, fmt.Errorf("failed to list actions: %w", err)
	}
	return nil, ListActionsOutput{Actions: toActionEntries(actions)}, nil
}

func (s *Server) handleInsertAction(ctx context.Context, req *mcp.CallToolRequest, input InsertActionInput) (*mcp.CallToolResult, InsertActionOutput, error) {
	in, err := usecase.ResolveAction(usecase.ActionOptions{
		Description: input.Description,
		Active:      boolOr(input.Active, true),
		Time:        input.Time,
		Days:        input.Days,
		Payload:     input.Payload,
		NextFireMs:  input.NextFireMs,
	})
	if err != nil {
		return nil, InsertActionOutput{}, err
	}

	offset, err := s.svc.Actions.InsertTimedAction(ctx, input.ProfileIndex, int64Or(input.Before, 0), in)
	if err != nil {
		return nil, InsertActionOutput{}, fmt.Errorf("failed to insert action: %w", err)
	}
	return nil, InsertActionOutput{
		ProfileIndex: input.ProfileIndex,
		Offset:       offset,
	}, nil
}

func (s *Server) handleUpdateAction(ctx context.Context, req *mcp.CallToolRequest, input UpdateActionInput) (*mcp.CallToolResult, MessageOutput, error) {
	upd, err := usecase.ResolveActionUpdate(usecase.ActionChanges{
		Description: input.Description,
		Active:      input.Active,
		Time:        input.Time,
		Days:        input.Days,
		Payload:     input.Payload,
		NextFireMs:  input.NextFireMs,
	})
	if err != nil {
		return nil, MessageOutput{}, err
	}

	if err := s.svc.Actions.UpdateAction(ctx, input.RowID, upd); err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to update action: %w", err)
	}
	return nil, MessageOutput{
		Message: fmt.Sprintf("Updated action row %d", input.RowID),
		Count:   1,
	}, nil
}

func (s *Server) handleDeleteAction(ctx context.Context, req *mcp.CallToolRequest, input DeleteActionInput) (*mcp.CallToolResult, MessageOutput, error) {
	deleted, err := s.svc.Actions.DeleteAction(ctx, input.RowID)
	if err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to delete action: %w", err)
	}
	if deleted == 0 {
		return nil, MessageOutput{}, fmt.Errorf("%w: action row %d", services.ErrUnknownRow, input.RowID)
	}
	return nil, MessageOutput{
		Message: fmt.Sprintf("Deleted action row %d", input.RowID),
		Count:   deleted,
	}, nil
}

func (s *Server) handleReset(ctx context.Context, req *mcp.CallToolRequest, input ResetInput) (*mcp.CallToolResult, MessageOutput, error) {
	if err := s.svc.Reset(ctx); err != nil {
		return nil, MessageOutput{}, fmt.Errorf("failed to reset: %w", err)
	}
	return nil, MessageOutput{Message: "Reset profile store"}, nil
}
