package cmd

import (
	"context"
	"strings"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/autopilot/internal/config"
	"github.com/teemow/autopilot/internal/rewards"
	"github.com/teemow/autopilot/internal/server"
	"github.com/teemow/autopilot/internal/todoist"
	"github.com/teemow/autopilot/internal/ynab"
)

func TestParseCommaSeparatedList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: nil,
		},
		{
			name:     "single value",
			input:    "ynab",
			expected: []string{"ynab"},
		},
		{
			name:     "multiple values",
			input:    "ynab,todoist",
			expected: []string{"ynab", "todoist"},
		},
		{
			name:     "values with spaces around comma",
			input:    "ynab, todoist",
			expected: []string{"ynab", "todoist"},
		},
		{
			name:     "values with leading/trailing spaces",
			input:    "  ynab  ,  todoist  ",
			expected: []string{"ynab", "todoist"},
		},
		{
			name:     "trailing comma",
			input:    "ynab,todoist,",
			expected: []string{"ynab", "todoist"},
		},
		{
			name:     "leading comma",
			input:    ",ynab,todoist",
			expected: []string{"ynab", "todoist"},
		},
		{
			name:     "multiple consecutive commas",
			input:    "ynab,,todoist",
			expected: []string{"ynab", "todoist"},
		},
		{
			name:     "only commas and spaces",
			input:    ",  , , ",
			expected: nil,
		},
		{
			name:     "single value with surrounding whitespace",
			input:    "  ynab  ",
			expected: []string{"ynab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseCommaSeparatedList(tt.input)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			assert.Equal(t, tt.expected, result)
		})
	}
}

func newTestServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	ynabClient, err := ynab.NewClient(ynab.Config{Token: "test"})
	require.NoError(t, err)
	todoistClient, err := todoist.NewClient(todoist.Config{Token: "test"})
	require.NoError(t, err)
	tracker, err := rewards.New(config.RewardsConfig{Cards: []config.CardConfig{{Name: "Card", BaseRate: 1}}})
	require.NoError(t, err)

	sc, err := server.NewServerContext(context.Background(), server.Options{
		YNAB:    ynabClient,
		Todoist: todoistClient,
		Rewards: tracker,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func toolGroups(s *mcpserver.MCPServer) map[string]int {
	groups := map[string]int{}
	for _, tool := range toolsOf(s) {
		groups[strings.SplitN(tool.Name, "_", 2)[0]]++
	}
	return groups
}

func TestRegisterAllTools(t *testing.T) {
	sc := newTestServerContext(t)

	all := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, registerAllTools(all, sc, false, nil))
	groups := toolGroups(all)
	assert.Equal(t, 8, groups["ynab"])
	assert.Equal(t, 3, groups["todoist"])
	assert.Equal(t, 1, groups["rewards"])

	readOnly := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, registerAllTools(readOnly, sc, true, nil))
	groups = toolGroups(readOnly)
	assert.Equal(t, 6, groups["ynab"])
	assert.Equal(t, 1, groups["todoist"])

	only := mcpserver.NewMCPServer("test", "test", mcpserver.WithToolCapabilities(true))
	require.NoError(t, registerAllTools(only, sc, true, []string{"Rewards"}))
	assert.Equal(t, map[string]int{"rewards": 1}, toolGroups(only))

	err := registerAllTools(mcpserver.NewMCPServer("test", "test"), sc, true, []string{"gmail"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool group")
}

func TestIsLoopback(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"127.0.0.1:8080", true},
		{"localhost:8080", true},
		{"[::1]:8080", true},
		{":8080", false},
		{"0.0.0.0:8080", false},
		{"192.168.1.10:8080", false},
	}
	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, isLoopback(tt.addr))
		})
	}
}
