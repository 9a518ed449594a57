package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happylearn/buddy/internal/prompt"
	"github.com/happylearn/buddy/internal/tutor"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Preview the tutor system prompt (no network)",
	Long: `Render a tutor system prompt without calling the model.

By default the personality prompt is printed for --personality and
--subject. With --cbc the server's CBC prompt is printed for --grade and
--subject instead.`,
	RunE: runPrompt,
}

func init() {
	f := promptCmd.Flags()
	f.String("personality", prompt.Encouraging, "Tutor personality: "+strings.Join(prompt.Profiles(), ", "))
	f.String("subject", tutor.DefaultSubject, "Subject to focus on")
	f.String("grade", tutor.DefaultGrade, "Grade level (with --cbc)")
	f.Bool("cbc", false, "Render the CBC proxy prompt")
	f.Bool("list", false, "List known personalities")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	subject, _ := flags.GetString("subject")

	if list, _ := flags.GetBool("list"); list {
		for _, name := range prompt.Profiles() {
			p, _ := prompt.LookupProfile(name)
			fmt.Printf("%-12s  temp %.1f  %s\n", name, p.Temperature, p.Tone)
		}
		return nil
	}

	if cbc, _ := flags.GetBool("cbc"); cbc {
		grade, _ := flags.GetString("grade")
		fmt.Println(prompt.CBCSystemPrompt(tutor.Context{Grade: grade, Subject: subject}))
		return nil
	}

	personality, _ := flags.GetString("personality")
	t, err := prompt.BuildTutorPrompt(personality, subject)
	if err != nil {
		return err
	}

	sep := strings.Repeat("\u2500", 60)
	fmt.Printf("Personality: %s\n", personality)
	fmt.Printf("Temperature: %.1f\n", t.Temperature)
	fmt.Println(sep)
	fmt.Println(t.Text)
	return nil
}
