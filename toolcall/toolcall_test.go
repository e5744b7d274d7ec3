package toolcall_test

import (
	"testing"

	"github.com/solchat-ai/solchat/toolcall"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var searchFields = []toolcall.Field{
	{Name: "query", Type: toolcall.TypeString, Required: true},
	{Name: "max_results", Type: toolcall.TypeNumber, Default: float64(5)},
	{Name: "include_domains", Type: toolcall.TypeStringList},
}

func Test_ParseName(t *testing.T) {
	tcases := []struct {
		name string
		text string
		exp  string
	}{
		{
			name: "well_formed",
			text: "<tool_call>\n<tool>WebSearch</tool>\n<args>\n<query>nosana token</query>\n</args>\n</tool_call>",
			exp:  "WebSearch",
		},
		{
			name: "surrounding_prose",
			text: "Sure, let me look that up.\n<tool_call><tool>TokenMarketData</tool></tool_call>\nDone.",
			exp:  "TokenMarketData",
		},
		{
			name: "unterminated_block",
			text: "<tool_call><tool>WebSearch</tool><args><query>solana</query>",
			exp:  "WebSearch",
		},
		{
			name: "whitespace_name",
			text: "<tool_call><tool>  FetchPage  </tool></tool_call>",
			exp:  "FetchPage",
		},
		{
			name: "empty_tool",
			text: "<tool_call>\n<tool></tool>\n</tool_call>",
			exp:  "",
		},
		{
			name: "no_markup",
			text: "I can answer that directly without any tool.",
			exp:  "",
		},
		{
			name: "empty_completion",
			text: "",
			exp:  "",
		},
		{
			name: "block_without_tool_tag",
			text: "<tool_call><args><query>solana</query></args></tool_call>",
			exp:  "",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, toolcall.ParseName(tc.text))
		})
	}
}

func Test_Parse(t *testing.T) {
	text := `<tool_call>
<tool>WebSearch</tool>
<args>
<query>nosana mint address</query>
<max_results>3</max_results>
<include_domains>solana.com, github.com</include_domains>
</args>
</tool_call>`

	inv := toolcall.Parse(text, searchFields)
	require.False(t, inv.IsEmpty())
	assert.Equal(t, "WebSearch", inv.Tool)
	assert.Equal(t, "nosana mint address", inv.Params["query"])
	assert.Equal(t, float64(3), inv.Params["max_results"])
	assert.Equal(t, []string{"solana.com", "github.com"}, inv.Params["include_domains"])
}

func Test_Parse_Defaults(t *testing.T) {
	text := `<tool_call><tool>WebSearch</tool><args><query>solana validators</query></args></tool_call>`

	inv := toolcall.Parse(text, searchFields)
	assert.Equal(t, "solana validators", inv.Params["query"])
	// missing optional field falls back to the declared default
	assert.Equal(t, float64(5), inv.Params["max_results"])
	// no default declared, field stays absent
	_, ok := inv.Params["include_domains"]
	assert.False(t, ok)
}

func Test_Parse_MalformedNumber(t *testing.T) {
	text := `<tool_call><tool>WebSearch</tool><args><query>solana</query><max_results>lots</max_results></args></tool_call>`

	inv := toolcall.Parse(text, searchFields)
	assert.Equal(t, float64(5), inv.Params["max_results"])
}

func Test_Parse_MissingRequired(t *testing.T) {
	// a missing required field is left absent, validation rejects it later
	text := `<tool_call><tool>WebSearch</tool><args></args></tool_call>`

	inv := toolcall.Parse(text, searchFields)
	assert.Equal(t, "WebSearch", inv.Tool)
	_, ok := inv.Params["query"]
	assert.False(t, ok)
}

func Test_Parse_NoTool(t *testing.T) {
	for _, text := range []string{
		"",
		"plain prose answer",
		"<tool_call><tool></tool></tool_call>",
		"<tool_call></tool_call>",
	} {
		inv := toolcall.Parse(text, searchFields)
		assert.True(t, inv.IsEmpty(), "text: %q", text)
		assert.Equal(t, "{}", inv.ArgsJSON())
	}
}

func Test_Parse_Idempotent(t *testing.T) {
	text := `<tool_call><tool>WebSearch</tool><args><query>jito restaking</query></args></tool_call>`

	first := toolcall.Parse(text, searchFields)
	second := toolcall.Parse(text, searchFields)
	assert.Equal(t, first, second)
}

func Test_ArgsJSON(t *testing.T) {
	inv := toolcall.Invocation{
		Tool:   "WebSearch",
		Params: map[string]any{"query": "solana"},
	}
	assert.JSONEq(t, `{"query":"solana"}`, inv.ArgsJSON())

	empty := toolcall.Invocation{}
	assert.Equal(t, "{}", empty.ArgsJSON())
}
