package models

// GenerateContentRequest 是传递给 LLM 客户端的生成请求。
// Agent 引擎只需要纯文本补全，不涉及多模态内容或函数调用。
type GenerateContentRequest struct {
	SystemPrompt string // 可选的系统提示词。
	Prompt       string // 用户提示词。
}

// GenerateContentResponse 是 LLM 客户端返回的生成结果。
type GenerateContentResponse struct {
	Text         string // 模型生成的纯文本。
	ResponseID   string // 提供商返回的响应 ID（如有）。
	ModelVersion string // 实际使用的模型名称。
}

// ErrorInfo 是结构化日志中错误字段的统一结构。
type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
