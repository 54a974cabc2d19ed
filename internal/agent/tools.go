package agent

import (
	"Vybe_AI/internal/memory"
	"context"
	"fmt"
	"strings"
)

// Tool names the agents can plan with. The dispatch table is closed: a step
// naming anything else is a failed step, never a crash.
const (
	ToolWebSearch        = "web_search"
	ToolGenerateImage    = "ai_generate_image"
	ToolSpeakText        = "ai_speak_text"
	ToolTranscribeAudio  = "ai_transcribe_audio"
	ToolListFiles        = "ai_list_files"
	ToolReadFile         = "ai_read_file"
	ToolWriteFile        = "ai_write_file"
	ToolDeleteFile       = "ai_delete_file"
	ToolQueryRAG         = "ai_query_rag"
	ToolExecutePython    = "ai_execute_python"
	ToolGenerateVideo    = "ai_generate_video"
	ToolStoreMemory      = "ai_store_agent_memory"
	ToolRetrieveMemories = "ai_retrieve_agent_memories"
	ToolMemoryStats      = "ai_get_memory_stats"
	ToolHomeAssistant    = "home_assistant"
)

// KnownTools returns every implemented tool name in a stable order.
func KnownTools() []string {
	return []string{
		ToolWebSearch,
		ToolGenerateImage,
		ToolSpeakText,
		ToolTranscribeAudio,
		ToolListFiles,
		ToolReadFile,
		ToolWriteFile,
		ToolDeleteFile,
		ToolQueryRAG,
		ToolExecutePython,
		ToolGenerateVideo,
		ToolStoreMemory,
		ToolRetrieveMemories,
		ToolMemoryStats,
		ToolHomeAssistant,
	}
}

// CodeRunner executes a snippet in a sandbox and returns its output.
type CodeRunner interface {
	Run(ctx context.Context, code string) (string, error)
}

// VideoGenerator starts an asynchronous video generation job.
type VideoGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HomeAutomation calls a smart-home service on one entity.
type HomeAutomation interface {
	Execute(ctx context.Context, service, entityID string, data map[string]interface{}) (string, error)
}

// Toolset holds the collaborators behind the tool table. Memory, Python,
// Video and Home may be nil; tools backed by a nil collaborator fail as
// regular step failures.
type Toolset struct {
	Workspace        *Workspace
	Memory           memory.Store
	MemoryCollection string
	Python           CodeRunner
	Video            VideoGenerator
	Home             HomeAutomation
}

// Known reports whether the tool name is in the dispatch table.
func (t *Toolset) Known(tool string) bool {
	switch tool {
	case ToolWebSearch, ToolGenerateImage, ToolSpeakText, ToolTranscribeAudio,
		ToolListFiles, ToolReadFile, ToolWriteFile, ToolDeleteFile,
		ToolQueryRAG, ToolExecutePython, ToolGenerateVideo,
		ToolStoreMemory, ToolRetrieveMemories, ToolMemoryStats,
		ToolHomeAssistant:
		return true
	}
	return false
}

// Dispatch runs one tool call and returns a short human-readable receipt.
// Expected-input problems come back as "...failed: <reason>" receipts with a
// nil error; a non-nil error marks the step failed.
func (t *Toolset) Dispatch(ctx context.Context, agentID, tool string, args map[string]interface{}) (string, error) {
	switch tool {
	case ToolWebSearch:
		return fmt.Sprintf("Web search completed for: %s", stringArg(args, "query", "unknown")), nil
	case ToolGenerateImage:
		return fmt.Sprintf("Image generated for prompt: %s", stringArg(args, "prompt", "unknown")), nil
	case ToolSpeakText:
		return fmt.Sprintf("Text-to-speech completed for: %s", stringArg(args, "text", "unknown")), nil
	case ToolTranscribeAudio:
		return fmt.Sprintf("Audio transcribed from: %s", stringArg(args, "audio_file", "unknown")), nil
	case ToolListFiles:
		return t.listFiles(args)
	case ToolReadFile:
		return t.readFile(args)
	case ToolWriteFile:
		return t.writeFile(args)
	case ToolDeleteFile:
		return t.deleteFile(args)
	case ToolQueryRAG:
		return t.queryRAG(ctx, args)
	case ToolExecutePython:
		return t.executePython(ctx, args)
	case ToolGenerateVideo:
		return t.generateVideo(ctx, args)
	case ToolStoreMemory:
		return t.storeMemory(ctx, agentID, args)
	case ToolRetrieveMemories:
		return t.retrieveMemories(ctx, agentID, args)
	case ToolMemoryStats:
		return t.memoryStats(ctx, args)
	case ToolHomeAssistant:
		return t.homeAssistant(ctx, args)
	}
	return "", fmt.Errorf("tool %s not available", tool)
}

func (t *Toolset) listFiles(args map[string]interface{}) (string, error) {
	if t.Workspace == nil {
		return "", fmt.Errorf("workspace is not configured")
	}
	dir := stringArg(args, "directory", "")
	names, err := t.Workspace.List(dir)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = "workspace"
	}
	return fmt.Sprintf("Listed %d files in directory %s: %s", len(names), dir, strings.Join(names, ", ")), nil
}

func (t *Toolset) readFile(args map[string]interface{}) (string, error) {
	filename := stringArg(args, "filename", "")
	if filename == "" {
		return "File read failed: filename is required", nil
	}
	if t.Workspace == nil {
		return "", fmt.Errorf("workspace is not configured")
	}
	content, err := t.Workspace.Read(filename)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Read file %s (%d bytes):\n%s", filename, len(content), content), nil
}

func (t *Toolset) writeFile(args map[string]interface{}) (string, error) {
	filename := stringArg(args, "filename", "")
	if filename == "" {
		return "File write failed: filename is required", nil
	}
	if t.Workspace == nil {
		return "", fmt.Errorf("workspace is not configured")
	}
	content := stringArg(args, "content", "")
	if err := t.Workspace.Write(filename, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wrote to file: %s", filename), nil
}

func (t *Toolset) deleteFile(args map[string]interface{}) (string, error) {
	filename := stringArg(args, "filename", "")
	if filename == "" {
		return "File delete failed: filename is required", nil
	}
	if t.Workspace == nil {
		return "", fmt.Errorf("workspace is not configured")
	}
	if err := t.Workspace.Delete(filename); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted file: %s", filename), nil
}

func (t *Toolset) queryRAG(ctx context.Context, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query", "")
	if query == "" {
		return "RAG query failed: query is required", nil
	}
	if t.Memory == nil {
		return "", fmt.Errorf("memory store is not configured")
	}
	docs, err := t.Memory.Query(ctx, t.MemoryCollection, query, 3)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Queried RAG system for: %s (%d documents found)", query, len(docs)), nil
}

func (t *Toolset) executePython(ctx context.Context, args map[string]interface{}) (string, error) {
	code := stringArg(args, "code", "")
	if code == "" {
		return "Code execution failed: code is required", nil
	}
	if t.Python == nil {
		return "", fmt.Errorf("python runner is not configured")
	}
	output, err := t.Python.Run(ctx, code)
	if err != nil {
		return fmt.Sprintf("Code execution failed: %v", err), nil
	}
	if output == "" {
		output = "No output"
	}
	return fmt.Sprintf("Code executed successfully. Output: %s", output), nil
}

func (t *Toolset) generateVideo(ctx context.Context, args map[string]interface{}) (string, error) {
	prompt := stringArg(args, "prompt", "")
	if prompt == "" {
		return "Video generation failed: prompt is required", nil
	}
	if t.Video == nil {
		return "", fmt.Errorf("video generator is not configured")
	}
	message, err := t.Video.Generate(ctx, prompt)
	if err != nil {
		return fmt.Sprintf("Video generation failed: %v", err), nil
	}
	if message == "" {
		message = "Processing"
	}
	return fmt.Sprintf("Video generation started: %s", message), nil
}

func (t *Toolset) storeMemory(ctx context.Context, agentID string, args map[string]interface{}) (string, error) {
	content := stringArg(args, "content", "")
	if content == "" {
		return "Failed to store memory: content is required", nil
	}
	if t.Memory == nil {
		return "", fmt.Errorf("memory store is not configured")
	}
	metadata := map[string]string{"agent_id": agentID}
	if raw, ok := args["metadata"].(map[string]interface{}); ok {
		for k, v := range raw {
			metadata[k] = fmt.Sprintf("%v", v)
		}
		metadata["agent_id"] = agentID
	}
	doc := memory.Document{Content: content, Metadata: metadata}
	if err := t.Memory.Ingest(ctx, t.MemoryCollection, doc); err != nil {
		return fmt.Sprintf("Failed to store memory: %v", err), nil
	}
	return fmt.Sprintf("Memory stored in collection %s", t.MemoryCollection), nil
}

func (t *Toolset) retrieveMemories(ctx context.Context, agentID string, args map[string]interface{}) (string, error) {
	query := stringArg(args, "query", "")
	if query == "" {
		query = agentID
	}
	if t.Memory == nil {
		return "", fmt.Errorf("memory store is not configured")
	}
	docs, err := t.Memory.Query(ctx, t.MemoryCollection, query, 3)
	if err != nil {
		return fmt.Sprintf("Failed to retrieve memories: %v", err), nil
	}
	if len(docs) == 0 {
		return "No relevant memories found.", nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Retrieved %d relevant memories:\n", len(docs))
	for i, doc := range docs {
		fmt.Fprintf(&sb, "%d. %s...\n", i+1, truncate(doc.Content, 100))
	}
	return sb.String(), nil
}

func (t *Toolset) memoryStats(ctx context.Context, args map[string]interface{}) (string, error) {
	if t.Memory == nil {
		return "", fmt.Errorf("memory store is not configured")
	}
	stats, err := t.Memory.Stats(ctx, t.MemoryCollection)
	if err != nil {
		return fmt.Sprintf("Failed to get memory stats: %v", err), nil
	}
	return fmt.Sprintf("Memory stats - Total memories: %d, Collection: %s", stats.Count, stats.Collection), nil
}

func (t *Toolset) homeAssistant(ctx context.Context, args map[string]interface{}) (string, error) {
	service := stringArg(args, "service", "")
	entityID := stringArg(args, "entity_id", "")
	if service == "" || entityID == "" {
		return "Error: Both 'service' and 'entity_id' are required for Home Assistant control", nil
	}
	if t.Home == nil {
		return "", fmt.Errorf("home assistant is not configured")
	}
	serviceData := make(map[string]interface{})
	for k, v := range args {
		if k == "service" || k == "entity_id" {
			continue
		}
		serviceData[k] = v
	}
	message, err := t.Home.Execute(ctx, service, entityID, serviceData)
	if err != nil {
		return fmt.Sprintf("Home Assistant Error: %v", err), nil
	}
	if message == "" {
		message = "Command executed successfully"
	}
	return fmt.Sprintf("Home Assistant: %s", message), nil
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if args == nil {
		return fallback
	}
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}
