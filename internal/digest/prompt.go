package digest

import (
	"fmt"
	"strings"

	"github.com/lueurxax/chat-digest-bot/internal/core/llm"
)

const systemPrompt = `You are an assistant that writes chat digests. Analyze the messages and produce a structured digest:
1. Identify the main topics and discussions
2. Briefly summarize the important points
3. Keep a neutral tone
4. Do not add information that is not in the messages
5. Use Markdown for formatting, do not use # for headings
6. Use emoji for visual structure
Write the digest in the language most of the messages are written in.`

const userPromptHeader = "Messages:\n"

// BuildRequest builds the completion request for messages in chronological order.
// The result depends only on its input.
func BuildRequest(messages []string) llm.Request {
	var sb strings.Builder

	sb.WriteString(userPromptHeader)

	for i, m := range messages {
		if i > 0 {
			sb.WriteByte('\n')
		}

		sb.WriteString(fmt.Sprintf("%d. %s", i+1, m))
	}

	return llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   sb.String(),
	}
}
