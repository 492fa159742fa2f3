package engine

import "strings"

// RenderChatML renders role-tagged turns in ChatML form, with a trailing
// assistant header when addAssistant is set. Runtimes without a model-side
// template API use this as their chat template.
func RenderChatML(msgs []ChatMessage, addAssistant bool) string {
	var b strings.Builder
	for _, m := range msgs {
		b.WriteString("<|im_start|>")
		b.WriteString(m.Role)
		b.WriteByte('\n')
		b.WriteString(m.Content)
		b.WriteString("<|im_end|>\n")
	}
	if addAssistant {
		b.WriteString("<|im_start|>assistant\n")
	}
	return b.String()
}
