package metricskey

import "github.com/effective-security/metrics"

// Stats
var (
	StatsToolPassesCompleted = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_passes_completed",
		Help:         "stats_tool_passes_completed provides total tool passes completed",
		RequiredTags: []string{"outcome"},
	}

	StatsToolSelectionFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_selection_failed",
		Help:         "stats_tool_selection_failed provides total tool selection completions failed",
		RequiredTags: []string{"model"},
	}

	StatsToolCallsSucceeded = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_succeeded",
		Help:         "stats_tool_calls_succeeded provides total tool calls succeeded",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_failed",
		Help:         "stats_tool_calls_failed provides total tool calls failed",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsRejected = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_rejected",
		Help:         "stats_tool_calls_rejected provides total tool calls rejected by validation",
		RequiredTags: []string{"tool"},
	}

	StatsToolCallsNotFound = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_tool_calls_not_found",
		Help:         "stats_tool_calls_not_found provides total tool calls naming an unknown tool",
		RequiredTags: []string{"tool"},
	}

	StatsMarketSourcesFailed = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_market_sources_failed",
		Help:         "stats_market_sources_failed provides total market data source failures",
		RequiredTags: []string{"source"},
	}

	StatsLLMInputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_input_tokens",
		Help:         "stats_llm_input_tokens provides total input tokens sent to LLM",
		RequiredTags: []string{"model"},
	}

	StatsLLMOutputTokens = metrics.Describe{
		Type:         metrics.TypeCounter,
		Name:         "stats_llm_output_tokens",
		Help:         "stats_llm_output_tokens provides total output tokens received from LLM",
		RequiredTags: []string{"model"},
	}
)

// Perf
var (
	PerfToolPass = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_pass",
		Help:         "perf_tool_pass provides duration of one tool orchestration pass",
		RequiredTags: []string{"model"},
	}

	PerfToolCall = metrics.Describe{
		Type:         metrics.TypeSample,
		Name:         "perf_tool_call",
		Help:         "perf_tool_call provides duration of tool call",
		RequiredTags: []string{"tool"},
	}
)

// Metrics returns slice of metrics from this repo
// keep sorted by name
var Metrics = []*metrics.Describe{
	&PerfToolCall,
	&PerfToolPass,
	&StatsLLMInputTokens,
	&StatsLLMOutputTokens,
	&StatsMarketSourcesFailed,
	&StatsToolCallsFailed,
	&StatsToolCallsNotFound,
	&StatsToolCallsRejected,
	&StatsToolCallsSucceeded,
	&StatsToolPassesCompleted,
	&StatsToolSelectionFailed,
}
