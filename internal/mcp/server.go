package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"notekeeper/internal/library"
)

// NewServer creates an MCP server exposing library operations as tools.
// Every tool takes a user_id because libraries are per-user aggregates.
func NewServer(svc *library.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"Notekeeper",
		"1.0.0",
		server.WithToolCapabilities(true),
	)

	// Tool: get_library - the user's folders with their notes
	s.AddTool(
		mcp.NewTool("get_library",
			mcp.WithDescription("Get the user's full library: every folder in display order, each with its notes. Use this to see how notes are organized."),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("The owning user's id (24-character hex string)"),
			),
		),
		handleGetLibrary(svc),
	)

	// Tool: get_folder_notes - notes of one folder
	s.AddTool(
		mcp.NewTool("get_folder_notes",
			mcp.WithDescription("Get a single folder with its notes by folder id."),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("The owning user's id (24-character hex string)"),
			),
			mcp.WithString("folder_id",
				mcp.Required(),
				mcp.Description("The folder id (24-character hex string)"),
			),
		),
		handleGetFolderNotes(svc),
	)

	// Tool: search_folders - find folders by name
	s.AddTool(
		mcp.NewTool("search_folders",
			mcp.WithDescription("Find folders whose name contains the given text, case-insensitively."),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("The owning user's id (24-character hex string)"),
			),
			mcp.WithString("name",
				mcp.Required(),
				mcp.Description("Text to look for in folder names"),
			),
		),
		handleSearchFolders(svc),
	)

	// Tool: get_bin - all trashed notes
	s.AddTool(
		mcp.NewTool("get_bin",
			mcp.WithDescription("Get every trashed note across all folders, with the date each one is scheduled to be purged."),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("The owning user's id (24-character hex string)"),
			),
		),
		handleGetBin(svc),
	)

	// Tool: create_note - add a note to a folder
	s.AddTool(
		mcp.NewTool("create_note",
			mcp.WithDescription("Create a new note inside a folder."),
			mcp.WithString("user_id",
				mcp.Required(),
				mcp.Description("The owning user's id (24-character hex string)"),
			),
			mcp.WithString("folder_id",
				mcp.Required(),
				mcp.Description("The destination folder id (24-character hex string)"),
			),
			mcp.WithString("title",
				mcp.Required(),
				mcp.Description("Note title, must not be empty"),
			),
			mcp.WithString("body",
				mcp.Description("Note body text"),
			),
			mcp.WithString("style",
				mcp.Description("Free-form style identifier for the note"),
			),
		),
		handleCreateNote(svc),
	)

	return s
}

func handleGetLibrary(svc *library.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}

		lib, err := svc.GetLibrary(ctx, userID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get library: %v", err)), nil
		}

		data, _ := json.MarshalIndent(lib, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleGetFolderNotes(svc *library.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}
		folderID, err := req.RequireString("folder_id")
		if err != nil {
			return mcp.NewToolResultError("folder_id is required"), nil
		}

		folder, err := svc.GetFolder(ctx, userID, folderID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get folder: %v", err)), nil
		}

		data, _ := json.MarshalIndent(folder, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleSearchFolders(svc *library.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}
		name, err := req.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name is required"), nil
		}

		folders, err := svc.SearchFolders(ctx, userID, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search folders: %v", err)), nil
		}

		data, _ := json.MarshalIndent(folders, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleGetBin(svc *library.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}

		bin, err := svc.GetBin(ctx, userID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get bin: %v", err)), nil
		}

		data, _ := json.MarshalIndent(bin, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleCreateNote(svc *library.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		userID, err := req.RequireString("user_id")
		if err != nil {
			return mcp.NewToolResultError("user_id is required"), nil
		}
		folderID, err := req.RequireString("folder_id")
		if err != nil {
			return mcp.NewToolResultError("folder_id is required"), nil
		}
		title, err := req.RequireString("title")
		if err != nil {
			return mcp.NewToolResultError("title is required"), nil
		}

		note, err := svc.CreateNote(ctx, userID, library.NoteCreate{
			FolderID: folderID,
			Title:    title,
			Body:     req.GetString("body", ""),
			Style:    req.GetString("style", ""),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
		}

		data, _ := json.MarshalIndent(note, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}
