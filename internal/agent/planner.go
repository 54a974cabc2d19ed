package agent

import (
	"Vybe_AI/internal/memory"
	"Vybe_AI/internal/models"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// buildPlanningPrompt assembles the planning request for the LLM: objective,
// tool allow-list and up to a few retrieved memories, each truncated to 200
// characters.
func buildPlanningPrompt(objective string, authorizedTools []string, memories []memory.Document) string {
	var memoryContext strings.Builder
	if len(memories) > 0 {
		memoryContext.WriteString("\n\nRelevant past experiences:\n")
		for i, m := range memories {
			fmt.Fprintf(&memoryContext, "%d. %s...\n", i+1, truncate(m.Content, 200))
		}
	}

	toolsList := strings.Join(authorizedTools, ", ")

	return fmt.Sprintf(`You are an autonomous AI agent tasked with creating a detailed execution plan.

OBJECTIVE: %s

AVAILABLE TOOLS: %s

%s

Create a detailed step-by-step execution plan as a JSON array. Each step should specify the tool to use and its arguments.

Example format:
{
  "steps": [
    {"tool": "web_search", "args": {"query": "specific search query"}, "description": "Search for information about X"},
    {"tool": "ai_write_file", "args": {"filename": "report.md", "content": "file content"}, "description": "Create final report"}
  ]
}

Rules:
1. Be specific and actionable
2. Only use tools from the available tools list
3. Break complex tasks into smaller steps
4. Include verification steps when appropriate
5. Order steps logically

Return ONLY the JSON object, no additional text.`, objective, toolsList, memoryContext.String())
}

// planDocument is the strict shape required of the LLM's planning response.
type planDocument struct {
	Steps []models.PlanStep `json:"steps"`
}

// extractJSONObject returns the substring from the first '{' to the last '}'
// of a raw LLM response. Models wrap the object in prose or code fences often
// enough that requiring a bare object would reject valid plans.
func extractJSONObject(response string) (string, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return response[start : end+1], true
}

// parsePlan turns a raw LLM response into an AgentPlan. A response without a
// parseable object or without a non-nil "steps" list is an error; the caller
// falls back to keyword planning.
func parsePlan(response string, now time.Time) (*models.AgentPlan, error) {
	raw, ok := extractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("no JSON object found in planning response")
	}

	var doc planDocument
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse planning response: %w", err)
	}
	if doc.Steps == nil {
		return nil, fmt.Errorf("planning response has no steps")
	}

	return &models.AgentPlan{
		Steps:     doc.Steps,
		CreatedAt: models.ISOTime(now),
	}, nil
}

// fallbackPlan builds a deterministic plan from objective keywords when LLM
// planning fails. The result may be empty; an empty plan fails the run.
func fallbackPlan(objective string, now time.Time) *models.AgentPlan {
	steps := []models.PlanStep{}
	lower := strings.ToLower(objective)

	if strings.Contains(lower, "research") || strings.Contains(lower, "search") {
		steps = append(steps, models.PlanStep{
			Tool:        ToolWebSearch,
			Args:        map[string]interface{}{"query": fmt.Sprintf("information about %s", objective)},
			Description: "Research the topic",
		})
	}

	if strings.Contains(lower, "image") || strings.Contains(lower, "visual") {
		steps = append(steps, models.PlanStep{
			Tool:        ToolGenerateImage,
			Args:        map[string]interface{}{"prompt": fmt.Sprintf("illustration of %s", objective)},
			Description: "Generate relevant image",
		})
	}

	if strings.Contains(lower, "write") || strings.Contains(lower, "document") {
		steps = append(steps, models.PlanStep{
			Tool: ToolWriteFile,
			Args: map[string]interface{}{
				"filename": fmt.Sprintf("agent_output_%d.md", now.Unix()),
				"content":  fmt.Sprintf("# Agent Output\n\nObjective: %s\n\nThis file was created by autonomous agent.", objective),
			},
			Description: "Create output document",
		})
	}

	return &models.AgentPlan{
		Steps:     steps,
		CreatedAt: models.ISOTime(now),
	}
}
