package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/invopop/jsonschema"
	"github.com/natexcvi/lexbot/config"
	"github.com/natexcvi/lexbot/evaluation"
	"github.com/natexcvi/lexbot/lex"
	"github.com/natexcvi/lexbot/memory"
	"github.com/natexcvi/lexbot/prebuilt"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	envFile     string
	repetitions int
	rawLLM      bool
)

var rootCmd = &cobra.Command{
	Use:   "lexbot",
	Short: "Operate the CBP help desk agent outside of Lambda.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return config.LoadDotEnv(envFile)
	},
}

func loadHelpDesk(ctx context.Context) (*prebuilt.HelpDesk, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.SetupLogging()
	return prebuilt.NewHelpDeskFromConfig(ctx, cfg)
}

func withSpinner[T any](f func() (T, error)) (T, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Just a moment..."
	s.Writer = os.Stderr
	s.Start()
	defer s.Stop()
	return f()
}

var askCmd = &cobra.Command{
	Use:   "ask QUESTION",
	Short: "Ask the help desk a single question.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		helpDesk, err := loadHelpDesk(ctx)
		if err != nil {
			return err
		}
		answer, err := withSpinner(func() (string, error) {
			return helpDesk.Ask(ctx, args[0], memory.NewWindowMemory(helpDesk.MemoryWindow))
		})
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

var invokeCmd = &cobra.Command{
	Use:   "invoke EVENT_FILE",
	Short: "Run a Lex V2 event through the Lambda handler and print the response.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		var event lex.Event
		if err := json.Unmarshal(data, &event); err != nil {
			return fmt.Errorf("failed to parse event: %w", err)
		}
		ctx := cmd.Context()
		helpDesk, err := loadHelpDesk(ctx)
		if err != nil {
			return err
		}
		resp, err := withSpinner(func() (*lex.Response, error) {
			return helpDesk.Router().Dispatch(ctx, &event)
		})
		if err != nil {
			return err
		}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the Lex events the handler accepts.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := json.MarshalIndent(jsonschema.Reflect(&lex.Event{}), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(schema))
		return nil
	},
}

var evalCmd = &cobra.Command{
	Use:   "eval PACK_FILE",
	Short: "Score the help desk's answers against a question pack.",
	Long: `Score the help desk's answers against a question pack.
The pack is a JSON list of cases:
	[{"question": "What are CBP office hours?", "keywords": ["8am", "5pm"]}]
Each answer scores the fraction of its case's keywords it mentions.
`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pack, err := evaluation.LoadTestPack(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		helpDesk, err := loadHelpDesk(ctx)
		if err != nil {
			return err
		}
		tester := evaluation.NewAgentTester(helpDesk)
		if rawLLM {
			tester = evaluation.NewLLMCaseTester(helpDesk.Engine)
		}
		evaluator := evaluation.NewEvaluator(tester, &evaluation.Options[evaluation.Case, string]{
			GoodnessFunction: evaluation.KeywordGoodness,
			Repetitions:      repetitions,
		})
		report, err := withSpinner(func() ([]float64, error) {
			return evaluator.Evaluate(ctx, pack)
		})
		if err != nil {
			return err
		}
		total := 0.0
		for i, score := range report {
			fmt.Printf("%.2f\t%s\n", score, pack[i].Question)
			total += score
		}
		if len(report) > 0 {
			fmt.Printf("mean\t%.2f\n", total/float64(len(report)))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	evalCmd.Flags().IntVar(&repetitions, "repetitions", 1, "how many times to run the pack")
	evalCmd.Flags().BoolVar(&rawLLM, "raw-llm", false, "ask the bare model, without the agent or document search")
}

func main() {
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(evalCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
