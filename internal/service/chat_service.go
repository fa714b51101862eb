// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"errors"
	"time"

	"news-rag-go/internal/model"
	"news-rag-go/pkg/log"
	"news-rag-go/pkg/metrics"
	"news-rag-go/pkg/timeout"

	"github.com/google/uuid"
)

// 流水线各阶段的失败标签
const (
	StageHistory   = "history_failed"
	StageRetrieval = "retrieval_failed"
	StageLLM       = "llm_failed"
	StageSave      = "save_failed"
)

// TimeoutReply 是整条流水线超时时返回的回答。
const TimeoutReply = "Timed out processing your request. Please try again in a moment."

// DefaultOverallTimeout 是整条流水线的默认时限。
const DefaultOverallTimeout = 10 * time.Second

// StageError 记录流水线在哪个阶段失败。
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// StageOf 返回错误链中的阶段标签，没有时返回空字符串。
func StageOf(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}

// HistoryStore 是流水线读写会话历史所需的能力，由 SessionCache 实现。
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) (model.SessionHistory, error)
	Save(ctx context.Context, sessionID string, history model.SessionHistory) error
}

// Answerer 根据段落生成回答，由 AnswerService 实现。
type Answerer interface {
	Answer(ctx context.Context, query string, passages []model.ScoredPassage) (string, error)
}

// ChatService 定义了聊天操作的接口。
type ChatService interface {
	Chat(ctx context.Context, sessionID, message string) (model.ChatReply, error)
}

type chatService struct {
	sessions       HistoryStore
	searchService  SearchService
	answerer       Answerer
	topK           int
	overallTimeout time.Duration
	now            func() time.Time
}

// NewChatService 创建一个新的 ChatService 实例。
func NewChatService(sessions HistoryStore, searchService SearchService, answerer Answerer, topK int, overallTimeout time.Duration) ChatService {
	if overallTimeout <= 0 {
		overallTimeout = DefaultOverallTimeout
	}
	return &chatService{
		sessions:       sessions,
		searchService:  searchService,
		answerer:       answerer,
		topK:           topK,
		overallTimeout: overallTimeout,
		now:            time.Now,
	}
}

// TimeoutChatReply 返回超时时的兜底结果。
func TimeoutChatReply() model.ChatReply {
	return model.ChatReply{Response: TimeoutReply, Passages: []model.ScoredPassage{}}
}

// Chat 在总时限内依次执行 读取历史 -> 检索 -> 生成 -> 保存历史。
// 超时返回兜底结果而不是错误；阶段失败返回 *StageError。
func (s *chatService) Chat(ctx context.Context, sessionID, message string) (model.ChatReply, error) {
	reply, timedOut, err := timeout.Run(ctx, s.overallTimeout, func(ctx context.Context) (model.ChatReply, error) {
		return s.run(ctx, sessionID, message)
	})
	switch {
	case timedOut:
		log.Warnw("[ChatService] 流水线超时, 返回兜底回答", "sessionId", sessionID, "timeout", s.overallTimeout)
		metrics.ChatPipeline.WithLabelValues("timeout").Inc()
		return TimeoutChatReply(), nil
	case err != nil:
		stage := StageOf(err)
		if stage == "" {
			stage = "cancelled"
		}
		log.Errorw("[ChatService] 流水线失败", "sessionId", sessionID, "stage", stage, "error", err)
		metrics.ChatPipeline.WithLabelValues(stage).Inc()
		return model.ChatReply{}, err
	}
	metrics.ChatPipeline.WithLabelValues("ok").Inc()
	return reply, nil
}

func (s *chatService) run(ctx context.Context, sessionID, message string) (model.ChatReply, error) {
	history, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return model.ChatReply{}, &StageError{Stage: StageHistory, Err: err}
	}
	// 用户消息先追加到内存中的历史，只有保存阶段完成后才持久化
	history = append(history, model.SessionMessage{
		ID:        uuid.NewString(),
		Type:      model.MessageTypeUser,
		Content:   message,
		Timestamp: s.now().UTC(),
	})

	passages, err := s.searchService.Retrieve(ctx, message, s.topK)
	if err != nil {
		return model.ChatReply{}, &StageError{Stage: StageRetrieval, Err: err}
	}

	answer, err := s.answerer.Answer(ctx, message, passages)
	if err != nil {
		return model.ChatReply{}, &StageError{Stage: StageLLM, Err: err}
	}

	history = append(history, model.SessionMessage{
		ID:        uuid.NewString(),
		Type:      model.MessageTypeBot,
		Content:   answer,
		Timestamp: s.now().UTC(),
		Passages:  passages,
	})

	if err := s.sessions.Save(ctx, sessionID, history); err != nil {
		return model.ChatReply{}, &StageError{Stage: StageSave, Err: err}
	}
	return model.ChatReply{Response: answer, Passages: passages}, nil
}
