// File: cmd/policy.go
package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/llmclient"
)

// buildPolicy constructs the policy named by agent.policy.
func buildPolicy(cfg *config.Config, logger *zap.Logger) (agent.Policy, error) {
	switch cfg.Agent.Policy {
	case config.PolicyDeterministic:
		return agent.DeterministicPolicy{}, nil
	case config.PolicyModel, config.PolicyHybrid:
		client, err := llmclient.NewOllamaClient(cfg.Model, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		model := agent.NewModelPolicy(client, cfg.Model.Timeout, logger)
		if cfg.Agent.Policy == config.PolicyModel {
			return model, nil
		}
		return agent.NewHybridPolicy(model), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", cfg.Agent.Policy)
	}
}
