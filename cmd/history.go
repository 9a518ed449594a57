package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happylearn/buddy/internal/tutor"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect or clear saved conversations",
}

var historyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved conversation for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeFn, err := historyRepo()
		if err != nil {
			return err
		}
		defer closeFn()

		userID := historyUser(cmd)
		h, err := repo.Get(context.Background(), userID)
		if err != nil {
			return fmt.Errorf("get history: %w", err)
		}
		if h == nil {
			fmt.Printf("No saved conversation for %q.\n", userID)
			return nil
		}

		fmt.Printf("Learner:  %s\n", h.UserID)
		fmt.Printf("Path:     %s - %s\n", h.Grade, h.Subject)
		fmt.Printf("Updated:  %s\n", h.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Messages: %d\n", len(h.Messages))
		fmt.Println(strings.Repeat("\u2500", 60))

		for _, m := range h.Messages {
			who := "Happy"
			if m.Role == tutor.RoleUser {
				who = "You"
			}
			fmt.Printf("%s:\n%s\n\n", who, m.Content)
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the saved conversation for a learner",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeFn, err := historyRepo()
		if err != nil {
			return err
		}
		defer closeFn()

		userID := historyUser(cmd)
		if err := repo.Delete(context.Background(), userID); err != nil {
			return err
		}
		fmt.Printf("Cleared conversation for %q.\n", userID)
		return nil
	},
}

func init() {
	historyCmd.PersistentFlags().String("user", "", "Learner id (default from config)")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func historyUser(cmd *cobra.Command) string {
	if u, _ := cmd.Flags().GetString("user"); u != "" {
		return u
	}
	return cfg.Client.UserID
}
