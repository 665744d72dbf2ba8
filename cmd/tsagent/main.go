// Package main provides a command-line chat interface over the
// conversation engine. It wires the configured backends, a small set
// of local demo tools, and an interactive approval prompt.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/TeamSparkAI/tsagent-sub003/internal/chat"
	"github.com/TeamSparkAI/tsagent-sub003/internal/config"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider/anthropic"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider/bedrock"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider/gemini"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider/ollama"
	"github.com/TeamSparkAI/tsagent-sub003/internal/provider/openai"
	"github.com/TeamSparkAI/tsagent-sub003/internal/session"
	"github.com/TeamSparkAI/tsagent-sub003/internal/tools"
)

const systemPrompt = "You are a helpful assistant. Use the available tools when they help answer the user."

func buildRegistry(ctx context.Context, cfg *config.Config) *provider.Registry {
	registry := provider.NewRegistry()
	registry.Register(anthropic.Backend, func() (provider.Provider, error) {
		return anthropic.New(cfg.Backends.Anthropic.APIKey, cfg.Backends.Anthropic.BaseURL)
	})
	registry.Register(openai.Backend, func() (provider.Provider, error) {
		return openai.New(cfg.Backends.OpenAI.APIKey, cfg.Backends.OpenAI.BaseURL)
	})
	registry.Register(gemini.Backend, func() (provider.Provider, error) {
		return gemini.New(ctx, cfg.Backends.Gemini.APIKey)
	})
	registry.Register(bedrock.Backend, func() (provider.Provider, error) {
		return bedrock.New(ctx, cfg.Backends.Bedrock.Region)
	})
	registry.Register(ollama.Backend, func() (provider.Provider, error) {
		return ollama.New(cfg.Backends.Ollama.Host), nil
	})
	return registry
}

type echoRequest struct {
	Text string `mapstructure:"text"`
}

func buildTools() *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.Info{
		ServerName:  "local",
		ToolName:    "echo",
		Description: "Echo the provided text back to the model",
		InputSchema: &tools.Schema{
			Type: "object",
			Properties: map[string]tools.Property{
				"text": {Type: "string", Description: "text to echo"},
			},
			Required: []string{"text"},
		},
	}, tools.Typed(func(ctx context.Context, req echoRequest) (string, error) {
		return req.Text, nil
	}))
	registry.Register(tools.Info{
		ServerName:  "local",
		ToolName:    "current_time",
		Description: "Return the current time in RFC 3339 format",
		InputSchema: &tools.Schema{Type: "object"},
	}, func(ctx context.Context, args map[string]any) (string, error) {
		return time.Now().Format(time.RFC3339), nil
	})
	return registry
}

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n")
		cfg = config.DefaultConfig()
	}

	ctx := context.Background()
	registry := buildRegistry(ctx, cfg)
	toolRegistry := buildTools()
	policy := &tools.StaticPolicy{
		Tools:   cfg.Approvals.Tools,
		Servers: cfg.Approvals.Servers,
	}

	settings := session.Settings{
		MaxChatTurns:    cfg.Session.MaxChatTurns,
		MaxOutputTokens: cfg.Session.MaxOutputTokens,
		Temperature:     cfg.Session.Temperature,
		TopP:            cfg.Session.TopP,
		ToolPermission:  session.ToolPermission(cfg.Session.ToolPermission),
	}
	sess, err := session.New(registry, toolRegistry, policy, settings, systemPrompt, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Backends: %s\n", strings.Join(registry.Backends(), ", "))
	fmt.Println("Commands: /model <backend> <model>, /models <backend>, /clear, /quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt(sess))
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, sess, registry, line); quit {
				return
			}
			continue
		}

		reply, err := sess.HandleMessage(ctx, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printReply(reply)

		for reply.Pending() {
			approvals := promptApprovals(scanner, reply.PendingToolCalls)
			reply, err = sess.HandleApprovals(ctx, approvals)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				break
			}
			printReply(reply)
		}
	}
}

func prompt(sess *session.Session) string {
	if sess.Model() == "" {
		return "(no model)> "
	}
	return fmt.Sprintf("%s/%s> ", sess.Backend(), sess.Model())
}

// runCommand handles a slash command, returning true on /quit.
func runCommand(ctx context.Context, sess *session.Session, registry *provider.Registry, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/clear":
		if err := sess.ClearModel(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	case "/models":
		if len(fields) != 2 {
			fmt.Println("Usage: /models <backend>")
			return false
		}
		adapter, err := registry.Create(fields[1])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		models, err := adapter.ListModels(ctx)
		if err != nil {
			fmt.Printf("Error listing models: %v\n", err)
			return false
		}
		for _, m := range models {
			if m.Name != "" && m.Name != m.ID {
				fmt.Printf("  %s (%s)\n", m.ID, m.Name)
			} else {
				fmt.Printf("  %s\n", m.ID)
			}
		}
	case "/model":
		if len(fields) != 3 {
			fmt.Println("Usage: /model <backend> <model>")
			return false
		}
		if err := sess.SwitchModel(fields[1], fields[2]); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Switched to %s/%s\n", fields[1], fields[2])
	default:
		fmt.Printf("Unknown command: %s\n", fields[0])
	}
	return false
}

func printReply(reply *chat.ModelReply) {
	for _, turn := range reply.Turns {
		for _, result := range turn.Results {
			switch result.Type {
			case chat.ResultTypeText:
				fmt.Println(result.Text)
			case chat.ResultTypeToolCall:
				tc := result.ToolCall
				status := "ok"
				if tc.Error != "" {
					status = tc.Error
				}
				fmt.Printf("  [tool %s/%s: %s, %dms]\n", tc.ServerName, tc.ToolName, status, tc.ElapsedMs)
			}
		}
		if turn.Error != "" {
			fmt.Printf("  [error: %s]\n", turn.Error)
		}
	}
}

// promptApprovals asks the user to disposition every pending call.
func promptApprovals(scanner *bufio.Scanner, pending []chat.ToolCallRequest) []chat.ToolCallApproval {
	approvals := make([]chat.ToolCallApproval, 0, len(pending))
	for _, call := range pending {
		decision := chat.DecisionDeny
		fmt.Printf("Allow tool call %s/%s %v? [y=once, a=always, n=deny]: ", call.ServerName, call.ToolName, call.Args)
		if scanner.Scan() {
			switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
			case "y", "yes":
				decision = chat.DecisionAllowOnce
			case "a", "always":
				decision = chat.DecisionAllowSession
			}
		}
		approvals = append(approvals, chat.ToolCallApproval{
			ToolCallID: call.ToolCallID,
			ServerName: call.ServerName,
			ToolName:   call.ToolName,
			Args:       call.Args,
			Decision:   decision,
		})
	}
	return approvals
}
