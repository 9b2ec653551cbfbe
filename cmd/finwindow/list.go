package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var listCmd = &cobra.Command{
	Use:   "list [prefix]",
	Short: "List data files in the configured source",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	prefix := cfg.Source.Prefix
	if len(args) == 1 {
		prefix = args[0]
	}

	store, err := newStorage(cfg)
	if err != nil {
		return fmt.Errorf("creating storage: %w", err)
	}

	files, err := newLoader(cfg, store, nil, log).Files(cmd.Context(), prefix)
	if err != nil {
		return err
	}
	for _, f := range files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	log.Debug("listed files", zap.String("prefix", prefix), zap.Int("count", len(files)))
	return nil
}
