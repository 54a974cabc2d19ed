package models

import "time"

// AgentEvent 定义了发送到 Kafka 和 WebSocket 订阅端的 Agent 进度事件的统一结构。
type AgentEvent struct {
	AgentID         string      `json:"agent_id"`
	OrchestrationID string      `json:"orchestration_id,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
	Status          AgentStatus `json:"status"`
	Action          AgentAction `json:"action"`
}

// RunRecord 代表一个持久化的 agent 运行记录，在 agent 进入终态时写入，
// 并通过 run-history 接口对外提供查询。
type RunRecord struct {
	ID          string        `json:"agent_id" bson:"_id"`              // agent 的唯一 ID
	Summary     StatusSummary `json:"summary" bson:"summary"`           // 终态时的状态快照
	Actions     []AgentAction `json:"actions" bson:"actions"`           // 完整动作日志
	RecordedAt  time.Time     `json:"recorded_at" bson:"recorded_at"`   // 记录写入时间
	CompletedAt *string       `json:"completed_at" bson:"completed_at"` // agent 的完成时间
}
