// File: cmd/diff.go
package cmd

import (
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/uipilot/internal/agent"
	"github.com/xkilldash9x/uipilot/internal/canonical"
	"github.com/xkilldash9x/uipilot/internal/screen"
	"github.com/xkilldash9x/uipilot/internal/snapshot"
	"github.com/xkilldash9x/uipilot/internal/state"
)

func newDiffCmd() *cobra.Command {
	var initial bool

	diffCmd := &cobra.Command{
		Use:   "diff <before> <after>",
		Short: "Print the semantic diff and signals between two snapshots",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			before, err := loadCanonical(args[0])
			if err != nil {
				return err
			}
			after, err := loadCanonical(args[1])
			if err != nil {
				return err
			}

			diff := canonical.SemanticDiff(before, after, initial)
			data, err := json.MarshalIndent(diff, "", "  ")
			if err != nil {
				return agent.NewJSONSerializeError("semantic diff", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}

	diffCmd.Flags().BoolVar(&initial, "initial", false, "treat the after snapshot as the first screen of a run")
	return diffCmd
}

func loadCanonical(path string) (*canonical.CanonicalScreenState, error) {
	snap, err := snapshot.LoadFile(path)
	if err != nil {
		return nil, err
	}
	st := state.BuildState(snap.URL, snap.Title, screen.Classify(snap.Elements))
	return canonical.Canonicalize(st), nil
}
