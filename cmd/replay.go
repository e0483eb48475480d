package cmd

import (
	"fmt"
	"os"

	"github.com/rill-lang/rill/runtime/trace"
	"github.com/spf13/cobra"
)

var ReplayCmd = &cobra.Command{
	Use:          "replay --trace recorded.jsonl --against new.jsonl",
	Short:        "Check that a run's trace replays against a recorded one",
	RunE:         runReplay,
	SilenceUsage: true,
}

var (
	tracePath   *string
	againstPath *string
)

func init() {
	tracePath = ReplayCmd.Flags().String("trace", "", "recorded trace to replay against")
	againstPath = ReplayCmd.Flags().String("against", "", "trace of the run to validate")
	_ = ReplayCmd.MarkFlagRequired("trace")
	_ = ReplayCmd.MarkFlagRequired("against")
}

// runReplay steps the candidate trace through the recorded one. Any
// divergence in operation order, arguments, or leftover records fails
// the run.
func runReplay(cmd *cobra.Command, args []string) error {
	recorded, err := openTrace(*tracePath)
	if err != nil {
		return err
	}
	candidate, err := openTrace(*againstPath)
	if err != nil {
		return err
	}

	for _, rec := range candidate.Records() {
		matched, err := recorded.Next(rec.Effect, rec.Op, rec.Args)
		if err != nil {
			return err
		}
		if !matched.Inline() && !rec.Inline() && matched.Sha256 != rec.Sha256 {
			return fmt.Errorf("trace diverged at seq %d: %s.%s produced different output", matched.Seq, rec.Effect, rec.Op)
		}
	}
	if n := recorded.Remaining(); n > 0 {
		return fmt.Errorf("trace diverged: %d recorded operations never happened", n)
	}
	fmt.Printf("ok\t%d operations replayed\n", candidate.Len())
	return nil
}

func openTrace(path string) (*trace.Replayer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open trace: %w", err)
	}
	defer func() { _ = f.Close() }()
	return trace.NewReplayer(f)
}
