package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/calebhsu/prescreen/backend/internal/model/interview"
)

// Service invokes the external reasoning model to choose the next interview
// action. It is deliberately thin: one invoke per turn, no in-line retries;
// an error return tells the orchestrator to apply its deterministic
// fallback instead of blocking the patient.
type Service struct {
	chain    compose.Runnable[map[string]any, *schema.Message]
	strategy Strategy
}

// NewService compiles the prompt chain for the given chat model and
// strategy.
func NewService(ctx context.Context, chatModel model.ChatModel, strategy Strategy) (*Service, error) {
	if strategy == nil {
		strategy = StrategyByName("")
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage(userPromptTemplate),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reasoning chain: %w", err)
	}

	return &Service{chain: runnable, strategy: strategy}, nil
}

// Strategy returns the active prompt strategy.
func (s *Service) Strategy() Strategy {
	return s.strategy
}

// PlanNext asks the model for the next action given the bounded context
// window. Transport and invoke failures are returned as errors; output that
// arrives but cannot be interpreted is resolved fail-closed and reported as
// a successful terminal decision.
func (s *Service) PlanNext(ctx context.Context, window interview.Window) (interview.Decision, error) {
	contextJSON, err := json.Marshal(window)
	if err != nil {
		return interview.Decision{}, fmt.Errorf("marshal context window: %w", err)
	}

	input := map[string]any{
		"system":  s.strategy.SystemPrompt(),
		"context": string(contextJSON),
	}

	msg, err := s.chain.Invoke(ctx, input)
	if err != nil {
		return interview.Decision{}, fmt.Errorf("invoke reasoning chain: %w", err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		log.Printf("[reasoning] empty response from model, failing closed")
		return interview.FailClosed(), nil
	}

	decision, outcome := Interpret(msg.Content)
	switch outcome {
	case OutcomeSalvaged:
		log.Printf("[reasoning] salvaged JSON object from wrapped model output")
	case OutcomeUnparseable:
		log.Printf("[reasoning] unparseable model output, failing closed: %.120q", msg.Content)
	}

	return decision, nil
}
