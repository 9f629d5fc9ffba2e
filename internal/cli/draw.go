package cli

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"secretsanta/internal/derangement"
	"secretsanta/internal/domain"
)

func (a *app) newDrawCmd() *cobra.Command {
	var (
		attempts int
		seed     uint64
	)

	cmd := &cobra.Command{
		Use:   "draw NAME...",
		Short: "Draw an assignment for the given names without storing it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := make([]string, len(args))
			for i, arg := range args {
				names[i] = strings.TrimSpace(arg)
				if names[i] == "" {
					return fmt.Errorf("argument %d: %w", i+1, domain.ErrInvalidName)
				}
			}

			opts := derangement.Options{MaxAttempts: a.cfg.MaxAttempts}
			if attempts > 0 {
				opts.MaxAttempts = attempts
			}
			if cmd.Flags().Changed("seed") {
				opts.Rand = rand.New(rand.NewPCG(seed, seed))
			}

			res, err := derangement.Generate(names, opts)
			if err != nil {
				return fmt.Errorf("draw %d names: %w", len(names), err)
			}
			cycles, err := derangement.FindCycles(names, res.Receivers)
			if err != nil {
				return err
			}
			a.log.Debug("draw finished", "participants", len(names), "attempts", res.Attempts)

			out := cmd.OutOrStdout()
			for i, giver := range names {
				fmt.Fprintf(out, "%s -> %s\n", giver, res.Receivers[i])
			}
			fmt.Fprintf(out, "cycles: %s\n", joinInts(derangement.CycleLengths(cycles)))
			return nil
		},
	}

	cmd.Flags().IntVar(&attempts, "attempts", 0, "attempt budget (defaults to max_attempts from config)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "seed for a reproducible draw")

	return cmd
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, " ")
}
