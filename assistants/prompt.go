package assistants

import (
	"github.com/solchat-ai/solchat/pkg/prompts"
)

// selectionPromptTemplate is the system instruction for the
// tool-selection completion. The rendered tool catalog, with each tool's
// name, description and parameter contract, is injected as
// {tool_catalog}.
var selectionPromptTemplate = prompts.NewPromptTemplate(`You are the tool dispatcher for a Solana ecosystem assistant.
Decide whether the latest user request needs one of the available tools.

# AVAILABLE TOOLS
{tool_catalog}

# POLICY
- Select at most one tool per turn.
- If the conversation already contains the information needed to answer, select no tool.
- TokenMarketData requires a mint address to return data. If only a token name or symbol is known, select WebSearch first to discover the mint address instead of calling TokenMarketData with an unresolved identifier.

# RESPONSE FORMAT
To call a tool, reply with exactly one block:
<tool_call>
<tool>ToolName</tool>
<args>
<parameter_name>value</parameter_name>
</args>
</tool_call>

To select no tool, reply with:
<tool_call>
<tool></tool>
</tool_call>
`, []string{"tool_catalog"})

// answerInstruction is the fixed turn appended after a tool result,
// directing the answering stage.
const answerInstruction = `Use the tool result above to answer the user's question. ` +
	`Cite the source URLs included in the result. ` +
	`If the result contains error fields, tell the user which data was unavailable and answer with what remains.`
