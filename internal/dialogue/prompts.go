package dialogue

import (
	"fmt"
	"sort"
	"strings"

	"github.com/capitalize-ai/callcenter-agent/internal/model"
)

// systemPrompts holds one fixed instruction template per intent.
var systemPrompts = map[model.Intent]string{
	model.IntentTechSupport: `You are a helpful technical support agent for a call center.
Your goal is to:
- Understand technical issues clearly
- Provide step-by-step solutions
- Ask clarifying questions when needed
- Escalate complex issues when appropriate
- Be patient and empathetic

Keep responses concise but thorough. Always maintain a professional, helpful tone.`,

	model.IntentSales: `You are a knowledgeable sales representative for a call center.
Your goal is to:
- Understand customer needs and budget
- Recommend appropriate products/services
- Provide accurate pricing and feature information
- Handle objections professionally
- Close sales when appropriate

Be consultative, not pushy. Focus on value and benefits.`,

	model.IntentComplaint: `You are an empathetic customer service agent handling complaints.
Your goal is to:
- Listen actively and acknowledge concerns
- Apologize sincerely when appropriate
- Find solutions or alternatives
- De-escalate tense situations
- Follow up to ensure satisfaction

Show genuine concern and work toward resolution.`,

	model.IntentGeneral: `You are a friendly customer service agent for a call center.
Your goal is to:
- Understand what the customer needs
- Route them to the right department if needed
- Provide general information about the company
- Maintain a welcoming, professional demeanor

Be helpful and guide customers to the right resources.`,
}

// systemPrompt returns the instruction template for an intent,
// defaulting to the general template.
func systemPrompt(intent *model.Intent) string {
	if intent != nil {
		if prompt, ok := systemPrompts[*intent]; ok {
			return prompt
		}
	}
	return systemPrompts[model.IntentGeneral]
}

// contextPrompt renders customer and session data as a context block
// appended to the system prompt. Keys are sorted so the rendered
// prompt, and therefore the cache key, is deterministic.
func contextPrompt(customerName string, sessionData map[string]string) string {
	var parts []string

	if customerName != "" {
		parts = append(parts, fmt.Sprintf("Customer name: %s", customerName))
	}

	keys := make([]string, 0, len(sessionData))
	for key := range sessionData {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if sessionData[key] != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", key, sessionData[key]))
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("\nContext: %s\n", strings.Join(parts, ", "))
}
