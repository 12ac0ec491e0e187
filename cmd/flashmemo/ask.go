package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wwwbq/FlashMemo/internal/config"
	"github.com/wwwbq/FlashMemo/pkg/llm"
	"github.com/wwwbq/FlashMemo/pkg/retrieval"
)

var (
	askKnowledge bool
	askLimit     int
	askSystem    string
)

var askCmd = &cobra.Command{
	Use:   "ask [question...]",
	Short: "Ask a question, optionally grounded on stored notes",
	Long: `Ask a question. With --kb the question is first routed to the relevant tags
and the notes found there are passed to the model as context.

Without a question an interactive session starts. In it, /clear resets the
conversation, /export json|md prints the history and /exit quits.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		service := openService(cfg)
		client := newChatClient(cfg)
		if askSystem != "" {
			client.InsertSystem(askSystem)
		}

		limit := cfg.Retrieval.Limit
		if askLimit > 0 {
			limit = askLimit
		}
		agent := retrieval.NewAgent(service.Storage(), client,
			retrieval.WithRouterPrompt(cfg.Prompts.Router),
			retrieval.WithSummaryPrompt(cfg.Prompts.Summary),
			retrieval.WithLimit(limit),
			retrieval.WithLogger(slog.Default()),
		)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		if len(args) > 0 {
			answer, err := agent.Ask(ctx, strings.Join(args, " "), askKnowledge)
			if err != nil {
				fatal("Error asking", err)
			}
			fmt.Println(answer)
			return
		}

		interactive(ctx, agent, client)
	},
}

func newChatClient(cfg *config.Config) *llm.Client {
	client, err := llm.New(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		MaxRetries: cfg.LLM.MaxRetries,
		Logger:     slog.Default(),
	})
	if err != nil {
		fatal("Error configuring chat client", err)
	}
	return client
}

func interactive(ctx context.Context, agent *retrieval.Agent, client *llm.Client) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/exit" || line == "/quit":
			return
		case line == "/clear":
			agent.ClearHistory()
			fmt.Println("history cleared")
			continue
		case strings.HasPrefix(line, "/export"):
			format := strings.TrimSpace(strings.TrimPrefix(line, "/export"))
			if format == "" {
				format = llm.FormatMarkdown
			}
			out, err := client.ExportHistory(format, true)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error exporting history: %v\n", err)
				continue
			}
			fmt.Println(out)
			continue
		}

		answer, err := agent.Ask(ctx, line, askKnowledge)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Println(answer)
	}
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().BoolVar(&askKnowledge, "kb", false, "Ground the answer on stored notes")
	askCmd.Flags().IntVar(&askLimit, "limit", 0, "Maximum notes passed as context (default from config)")
	askCmd.Flags().StringVar(&askSystem, "system", "", "System prompt prepended to the conversation")
}
