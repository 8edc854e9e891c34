// Package mcpserver exposes the draft board as MCP tools over streamable HTTP.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ckwame-jpg/fantasy-tool/internal/adapters/repository"
	service "github.com/ckwame-jpg/fantasy-tool/internal/app"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/filter"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/model"
	"github.com/ckwame-jpg/fantasy-tool/internal/domain/roster"
	"github.com/ckwame-jpg/fantasy-tool/pkg/logger"
)

// Name is the implementation name announced to MCP clients.
const Name = "fantasy-draftboard"

// Board is the subset of the service the tools call.
type Board interface {
	Board(ctx context.Context, req service.BoardRequest) (service.BoardView, error)
	BoardPlayer(ctx context.Context, q model.BoardQuery, playerID string) (model.NormalizedPlayer, error)
	DraftState(ctx context.Context, draftID string) (service.DraftView, error)
	DraftPlayer(ctx context.Context, draftID, playerID string) (model.NormalizedPlayer, error)
	RemovePlayer(ctx context.Context, draftID, playerID string) error
	Roster(ctx context.Context, draftID string) (roster.Lineup, error)
	Favorites(ctx context.Context) ([]string, error)
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BoardArgs selects a board view.
type BoardArgs struct {
	Season        int    `json:"season,omitempty" jsonschema:"Season year (0 = configured default)"`
	Position      string `json:"position,omitempty" jsonschema:"QB|RB|WR|TE|K|DEF or ALL"`
	Search        string `json:"search,omitempty" jsonschema:"Case-insensitive name substring"`
	Tier          string `json:"tier,omitempty" jsonschema:"T1|T2|T3|T4"`
	Sort          string `json:"sort,omitempty" jsonschema:"Sort field and a leading - for descending (default adp)"`
	Limit         int    `json:"limit,omitempty" jsonschema:"Max players returned (default 25)"`
	DraftID       string `json:"draft_id,omitempty" jsonschema:"Hide players already drafted in this draft"`
	FavoritesOnly bool   `json:"favorites_only,omitempty" jsonschema:"Only favorite players"`
}

// PlayerArgs selects one player of a board.
type PlayerArgs struct {
	PlayerID string `json:"player_id" jsonschema:"Player id (required)"`
	Season   int    `json:"season,omitempty" jsonschema:"Season year (0 = configured default)"`
	Position string `json:"position,omitempty" jsonschema:"Board position filter"`
}

// DraftArgs selects a draft.
type DraftArgs struct {
	DraftID string `json:"draft_id" jsonschema:"Draft id (required)"`
}

// PickArgs names a player of a draft.
type PickArgs struct {
	DraftID  string `json:"draft_id" jsonschema:"Draft id (required)"`
	PlayerID string `json:"player_id" jsonschema:"Player id (required)"`
}

// EmptyArgs is the input of tools without parameters.
type EmptyArgs struct{}

const defaultToolLimit = 25

// Server registers the draft board tools on an MCP server.
type Server struct {
	board  Board
	server *mcp.Server
	tools  []ToolInfo
	log    logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates an MCP server exposing board.
func New(board Board, version string, opts ...Option) *Server {
	s := &Server{
		board:  board,
		server: mcp.NewServer(&mcp.Implementation{Name: Name, Version: version}, nil),
		log:    logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.register()
	return s
}

// MCP returns the underlying server, e.g. to connect another transport.
func (s *Server) MCP() *mcp.Server { return s.server }

// Tools lists the registered tools.
func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo(nil), s.tools...)
}

// Handler serves the tools over streamable HTTP with plain JSON responses.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.server, tool, handler)
}

func (s *Server) register() {
	addTool(s, &mcp.Tool{
		Name:        "board",
		Description: "Ranked draft board with tiers, filtered and sorted",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args BoardArgs) (*mcp.CallToolResult, any, error) {
		req := service.BoardRequest{
			Query:    model.BoardQuery{Season: args.Season, Position: args.Position},
			Criteria: filter.Criteria{Search: strings.TrimSpace(args.Search), FavoritesOnly: args.FavoritesOnly},
			Sort:     filter.ParseSort(args.Sort),
			Limit:    args.Limit,
			DraftID:  strings.TrimSpace(args.DraftID),
		}
		if args.Tier != "" {
			req.Criteria.Tier = model.Tier(strings.ToUpper(strings.TrimSpace(args.Tier)))
		}
		if req.Limit <= 0 {
			req.Limit = defaultToolLimit
		}
		return s.result(ctx, "board")(s.board.Board(ctx, req))
	})

	addTool(s, &mcp.Tool{
		Name:        "board_player",
		Description: "One player's rank, tier, score and stats",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args PlayerArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.PlayerID) == "" {
			return toolError(errors.New("player_id is required")), nil, nil
		}
		q := model.BoardQuery{Season: args.Season, Position: args.Position}
		return s.result(ctx, "board_player")(s.board.BoardPlayer(ctx, q, args.PlayerID))
	})

	addTool(s, &mcp.Tool{
		Name:        "draft_state",
		Description: "Drafted players, sync state and pacing of a draft",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args DraftArgs) (*mcp.CallToolResult, any, error) {
		return s.result(ctx, "draft_state")(s.board.DraftState(ctx, args.DraftID))
	})

	addTool(s, &mcp.Tool{
		Name:        "draft_player",
		Description: "Draft a player into a draft",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args PickArgs) (*mcp.CallToolResult, any, error) {
		return s.result(ctx, "draft_player")(s.board.DraftPlayer(ctx, args.DraftID, args.PlayerID))
	})

	addTool(s, &mcp.Tool{
		Name:        "remove_player",
		Description: "Remove a drafted player from a draft",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args PickArgs) (*mcp.CallToolResult, any, error) {
		if err := s.board.RemovePlayer(ctx, args.DraftID, args.PlayerID); err != nil {
			return s.fail(ctx, "remove_player", err), nil, nil
		}
		return s.result(ctx, "remove_player")(s.board.DraftState(ctx, args.DraftID))
	})

	addTool(s, &mcp.Tool{
		Name:        "roster",
		Description: "Starting lineup and bench built from a draft's picks",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, args DraftArgs) (*mcp.CallToolResult, any, error) {
		return s.result(ctx, "roster")(s.board.Roster(ctx, args.DraftID))
	})

	addTool(s, &mcp.Tool{
		Name:        "favorites",
		Description: "Favorite player ids",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyArgs) (*mcp.CallToolResult, any, error) {
		return s.result(ctx, "favorites")(s.board.Favorites(ctx))
	})
}

// result turns a service call into a tool result. Service errors become tool errors, not protocol errors.
func (s *Server) result(ctx context.Context, tool string) func(any, error) (*mcp.CallToolResult, any, error) {
	return func(v any, err error) (*mcp.CallToolResult, any, error) {
		if err != nil {
			return s.fail(ctx, tool, err), nil, nil
		}
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("encode %s result: %w", tool, err)
		}
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}, nil, nil
	}
}

func (s *Server) fail(ctx context.Context, tool string, err error) *mcp.CallToolResult {
	if !errors.Is(err, repository.ErrNotFound) {
		s.log.Warn(ctx, "tool call failed", logger.String("tool", tool), logger.Error(err))
	}
	return toolError(err)
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
