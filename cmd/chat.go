package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/happylearn/buddy/internal/app"
	"github.com/happylearn/buddy/internal/chat"
	"github.com/happylearn/buddy/internal/client"
	"github.com/happylearn/buddy/internal/store"
)

var chatCmd = &cobra.Command{
	Use:         "chat",
	Short:       "Chat with Happy in the terminal",
	Annotations: map[string]string{tuiAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd)
	},
}

func init() {
	addChatFlags(chatCmd)
}

func addChatFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("url", "", "Tutor proxy URL (default http://localhost:8787/ai-tutor)")
	f.String("user", "", "Learner id used to save chat history")
	f.String("grade", "", "Starting grade, e.g. \"Grade 4\"")
	f.String("subject", "", "Starting subject, e.g. Mathematics")
	f.Bool("resume", false, "Continue the saved conversation")
	f.Bool("pick", false, "Choose grade and subject before chatting")
	f.Bool("no-history", false, "Do not save the conversation")
}

// runChat wires the session to the proxy client and the history store and
// launches the TUI.
func runChat(cmd *cobra.Command) error {
	flags := cmd.Flags()
	if v, _ := flags.GetString("url"); v != "" {
		cfg.Client.URL = v
	}
	if v, _ := flags.GetString("user"); v != "" {
		cfg.Client.UserID = v
	}
	if v, _ := flags.GetString("grade"); v != "" {
		cfg.Client.Grade = v
	}
	if v, _ := flags.GetString("subject"); v != "" {
		cfg.Client.Subject = v
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	opts := chat.Options{UserID: cfg.Client.UserID, Logger: logger}
	if noHistory, _ := flags.GetBool("no-history"); !noHistory {
		st, err := openStore()
		if err != nil {
			logger.Warn("chat history unavailable", zap.Error(err))
		} else {
			defer st.Close()
			opts.History = st.HistoryRepo()
		}
	}

	c := client.New(cfg.Client.URL, client.WithAPIKey(cfg.Client.APIKey))
	session := chat.NewSession(c, cfg.TutorContext(), opts)

	appOpts := app.Options{Session: session}
	appOpts.PickPath, _ = flags.GetBool("pick")

	if resume, _ := flags.GetBool("resume"); resume && opts.History != nil {
		restored, err := session.Resume(cmd.Context())
		if err != nil {
			return fmt.Errorf("resume conversation: %w", err)
		}
		if restored {
			appOpts.Notice = "Welcome back! Picking up where you left off."
		}
	}

	return app.Run(appOpts)
}

// historyRepo opens the store for history subcommands.
func historyRepo() (store.HistoryRepo, func() error, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	return st.HistoryRepo(), st.Close, nil
}
