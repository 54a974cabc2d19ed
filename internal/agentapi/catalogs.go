package agentapi

import "Vybe_AI/internal/agent"

// ToolInfo describes one authorizable tool for the configuration UI.
type ToolInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SystemPromptInfo is one preset system prompt.
type SystemPromptInfo struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// AvailableTools returns the catalog of tools agents can be authorized for.
func AvailableTools() []ToolInfo {
	return []ToolInfo{
		{ID: agent.ToolWebSearch, Name: "Web Search", Description: "Search the internet for information"},
		{ID: agent.ToolGenerateImage, Name: "Generate Images", Description: "Create AI-generated images using Stable Diffusion"},
		{ID: agent.ToolSpeakText, Name: "Text-to-Speech", Description: "Convert text to speech audio"},
		{ID: agent.ToolTranscribeAudio, Name: "Audio Transcription", Description: "Transcribe audio files to text"},
		{ID: agent.ToolListFiles, Name: "List Files", Description: "List files in the workspace directory"},
		{ID: agent.ToolReadFile, Name: "Read File", Description: "Read contents of files in the workspace"},
		{ID: agent.ToolWriteFile, Name: "Write File", Description: "Create or modify files in the workspace"},
		{ID: agent.ToolDeleteFile, Name: "Delete File", Description: "Delete files from the workspace"},
		{ID: agent.ToolQueryRAG, Name: "Query Knowledge Base", Description: "Search the RAG knowledge base for information"},
		{ID: agent.ToolExecutePython, Name: "Execute Python Code", Description: "Run Python code in a secure sandboxed environment"},
		{ID: agent.ToolGenerateVideo, Name: "Generate Videos", Description: "Create AI-generated videos using ComfyUI"},
		{ID: agent.ToolStoreMemory, Name: "Store Memory", Description: "Store information in long-term agent memory"},
		{ID: agent.ToolRetrieveMemories, Name: "Retrieve Memories", Description: "Retrieve relevant past experiences from memory"},
		{ID: agent.ToolMemoryStats, Name: "Memory Statistics", Description: "Get statistics about the agent memory system"},
		{ID: agent.ToolHomeAssistant, Name: "Home Assistant", Description: "Control Home Assistant smart home devices"},
	}
}

// DefaultSystemPrompts returns the built-in system prompt presets.
func DefaultSystemPrompts() []SystemPromptInfo {
	return []SystemPromptInfo{
		{ID: 1, Name: "General Assistant", Description: "Helpful, concise assistant", Content: "You are a helpful, concise assistant."},
		{ID: 2, Name: "Coder", Description: "Code-focused assistant", Content: "You are a coding assistant. Provide code and explanations."},
		{ID: 3, Name: "Analyst", Description: "Analysis and reasoning", Content: "You analyze and reason step-by-step, explaining clearly."},
		{ID: 4, Name: "Summarizer", Description: "Summarize text", Content: "Summarize the provided content into key points."},
		{ID: 5, Name: "Creative Writer", Description: "Story and creative writing", Content: "Write engaging, creative prose with clear style."},
	}
}
