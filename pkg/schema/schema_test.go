package schema_test

import (
	"reflect"
	"testing"

	"github.com/solchat-ai/solchat/pkg/llmutils"
	"github.com/solchat-ai/solchat/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// searchRequest mirrors the shape of a tool parameter struct.
type searchRequest struct {
	Query      string   `json:"query" jsonschema:"title=Query,description=Search query,example=nosana mint address"`
	MaxResults int      `json:"max_results,omitempty" jsonschema:"title=Max Results,description=Maximum number of results,default=5"`
	Domains    []string `json:"include_domains,omitempty" jsonschema:"title=Include Domains,description=Domains to restrict the search to"`
	Filter     *filter  `json:"filter,omitempty" jsonschema:"title=Filter,description=Optional result filter"`
}

type filter struct {
	Lang string `json:"lang" jsonschema:"title=Lang,description=Result language"`
}

func Test_Schema(t *testing.T) {
	s, err := schema.New(reflect.TypeOf(searchRequest{}))
	require.NoError(t, err)
	require.NotNil(t, s.Parameters)

	exp := `{
	"properties": {
		"query": {
			"type": "string",
			"title": "Query",
			"description": "Search query",
			"examples": [
				"nosana mint address"
			]
		},
		"max_results": {
			"type": "integer",
			"title": "Max Results",
			"description": "Maximum number of results",
			"default": 5
		},
		"include_domains": {
			"items": {
				"type": "string"
			},
			"type": "array",
			"title": "Include Domains",
			"description": "Domains to restrict the search to"
		},
		"filter": {
			"properties": {
				"lang": {
					"type": "string",
					"title": "Lang",
					"description": "Result language"
				}
			},
			"type": "object",
			"required": [
				"lang"
			],
			"title": "Filter",
			"description": "Optional result filter"
		}
	},
	"type": "object",
	"required": [
		"query"
	]
}`
	assert.Equal(t, exp, s.String())
	assert.Equal(t, exp, llmutils.ToJSONIndent(s.Parameters))
}

func Test_Schema_Cached(t *testing.T) {
	s1, err := schema.New(reflect.TypeOf(searchRequest{}))
	require.NoError(t, err)
	s2, err := schema.New(reflect.TypeOf(searchRequest{}))
	require.NoError(t, err)
	assert.Same(t, s1, s2)
}
