package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/genoeg/kotori/internal/domain"
	"github.com/genoeg/kotori/internal/llm"
	"github.com/genoeg/kotori/internal/logging"
)

// TurnStore is the conversation history the runner reads and extends.
type TurnStore interface {
	AppendTurn(turn domain.Turn) error
	RecentTurns(userID string, limit int) ([]domain.Turn, error)
}

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	Model         string
	MaxTokens     int
	HistoryWindow int
	ToolTimeout   time.Duration
}

// Runner is the agent orchestration loop. It takes an inbound message,
// builds context from history, calls the model, executes at most one round
// of tool calls, and returns the reply text.
//
// One round is a structural limit, not a prompt suggestion: the follow-up
// completion is made with tool choice "none", so the model cannot chain
// tool calls no matter what it asks for.
type Runner struct {
	cfg    RunnerConfig
	client llm.Client
	turns  TurnStore
	tools  *Registry
	locks  *userLocks
	log    *logging.Logger
}

// NewRunner creates an agent runner.
func NewRunner(cfg RunnerConfig, client llm.Client, turns TurnStore, tools *Registry, log *logging.Logger) *Runner {
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 10
	}
	if cfg.ToolTimeout <= 0 {
		cfg.ToolTimeout = 15 * time.Second
	}
	return &Runner{
		cfg:    cfg,
		client: client,
		turns:  turns,
		tools:  tools,
		locks:  newUserLocks(),
		log:    log.Sub("agent"),
	}
}

// Run processes one inbound message and returns the reply text. Model
// failures are returned as errors; tool and persistence failures are not.
func (r *Runner) Run(ctx context.Context, userID, text string) (string, error) {
	unlock := r.locks.lock(userID)
	defer unlock()

	start := time.Now()

	// History is read before the new message is appended. The window then
	// never pushes out context the model needs for the message itself.
	history, err := r.turns.RecentTurns(userID, r.cfg.HistoryWindow)
	if err != nil {
		r.log.Error().Err(err).Str("user", userID).Msg("failed to load history, continuing without it")
		history = nil
	}

	r.log.Info().
		Str("user", userID).
		Int("historyLen", len(history)).
		Msg("processing message")

	r.appendTurn(domain.Turn{UserID: userID, Role: domain.RoleUser, Content: text})

	messages := turnsToMessages(trimOrphanedToolTurns(history))
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	system := BuildSystemPrompt(time.Now())

	resp, err := r.client.Complete(ctx, llm.CompletionRequest{
		Model:      r.cfg.Model,
		System:     system,
		Messages:   messages,
		Tools:      r.tools.Definitions(),
		ToolChoice: "auto",
		MaxTokens:  r.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		r.appendTurn(domain.Turn{UserID: userID, Role: domain.RoleAssistant, Content: resp.Content})
		r.logResponse(userID, resp, start)
		return resp.Content, nil
	}

	r.log.Info().Str("user", userID).Int("toolCalls", len(resp.ToolCalls)).Msg("executing tool calls")

	assistantCalls := make([]domain.ToolCall, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		assistantCalls[i] = domain.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}
	}
	r.appendTurn(domain.Turn{
		UserID:    userID,
		Role:      domain.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: assistantCalls,
	})

	outcomes := r.executeToolCalls(ctx, resp.ToolCalls)

	messages = append(messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: resp.ToolCalls,
	})
	for i, tc := range resp.ToolCalls {
		result := outcomes[i].JSON()
		r.appendTurn(domain.Turn{
			UserID:     userID,
			Role:       domain.RoleTool,
			Content:    result,
			ToolCallID: tc.ID,
			ToolName:   tc.Name,
		})
		messages = append(messages, llm.Message{
			Role:       llm.RoleTool,
			Content:    result,
			ToolCallID: tc.ID,
			Name:       tc.Name,
		})
	}

	final, err := r.client.Complete(ctx, llm.CompletionRequest{
		Model:      r.cfg.Model,
		System:     system,
		Messages:   messages,
		Tools:      r.tools.Definitions(),
		ToolChoice: "none",
		MaxTokens:  r.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("model follow-up completion: %w", err)
	}

	r.appendTurn(domain.Turn{UserID: userID, Role: domain.RoleAssistant, Content: final.Content})
	r.logResponse(userID, final, start)
	return final.Content, nil
}

// executeToolCalls runs the requested tools concurrently and returns their
// outcomes indexed like the input. Each execution gets its own deadline so
// one stuck backend cannot consume the whole request budget.
func (r *Runner) executeToolCalls(ctx context.Context, calls []llm.ToolCall) []Outcome {
	outcomes := make([]Outcome, len(calls))

	var wg sync.WaitGroup
	for i, tc := range calls {
		wg.Add(1)
		go func(i int, tc llm.ToolCall) {
			defer wg.Done()

			toolCtx, cancel := context.WithTimeout(ctx, r.cfg.ToolTimeout)
			defer cancel()

			outcome := r.tools.Invoke(toolCtx, tc.Name, json.RawMessage(tc.Arguments))
			if !outcome.Success {
				r.log.Warn().Str("tool", tc.Name).Str("error", outcome.Error).Msg("tool failed")
			} else {
				r.log.Debug().Str("tool", tc.Name).Msg("tool completed")
			}
			outcomes[i] = outcome
		}(i, tc)
	}
	wg.Wait()

	return outcomes
}

// appendTurn persists a turn. Persistence failures degrade future context
// but never abort the conversation, so they are logged and swallowed.
func (r *Runner) appendTurn(turn domain.Turn) {
	if err := r.turns.AppendTurn(turn); err != nil {
		r.log.Error().Err(err).Str("user", turn.UserID).Str("role", turn.Role).Msg("failed to persist turn")
	}
}

func (r *Runner) logResponse(userID string, resp *llm.CompletionResponse, start time.Time) {
	r.log.Info().
		Str("user", userID).
		Str("model", resp.Model).
		Int("inputTokens", resp.Usage.InputTokens).
		Int("outputTokens", resp.Usage.OutputTokens).
		Dur("duration", time.Since(start)).
		Msg("response generated")
}

// trimOrphanedToolTurns repairs a history window that cut a tool exchange
// in half. The provider rejects a tool result without the assistant turn
// that requested it, and an assistant tool request without its results.
func trimOrphanedToolTurns(turns []domain.Turn) []domain.Turn {
	// Drop tool results from the head until a non-tool turn appears.
	for len(turns) > 0 && turns[0].Role == domain.RoleTool {
		turns = turns[1:]
	}
	// Drop a trailing assistant turn whose tool results fell outside the
	// window (can only happen if persistence of the results failed).
	for len(turns) > 0 {
		last := turns[len(turns)-1]
		if last.Role == domain.RoleAssistant && len(last.ToolCalls) > 0 {
			turns = turns[:len(turns)-1]
			continue
		}
		break
	}
	return turns
}

// turnsToMessages converts stored history to model messages.
func turnsToMessages(turns []domain.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, turn := range turns {
		msg := llm.Message{Role: turn.Role, Content: turn.Content}
		if len(turn.ToolCalls) > 0 {
			msg.ToolCalls = make([]llm.ToolCall, len(turn.ToolCalls))
			for i, tc := range turn.ToolCalls {
				msg.ToolCalls[i] = llm.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}
			}
		}
		if turn.ToolCallID != "" {
			msg.ToolCallID = turn.ToolCallID
			msg.Name = turn.ToolName
		}
		msgs = append(msgs, msg)
	}
	return msgs
}
