package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/artgap/treasury"
	"github.com/artgap/treasury/store/file"
)

// app carries the wired engine shared by all commands.
type app struct {
	eng *treasury.Treasury
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		dbPath  string
		verbose bool
	)

	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "treasuryctl",
		Short:         "Administer a treasury ledger: balances, transfers, passes, mining",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			eng, err := wireEngine(cfgPath, dbPath, verbose)
			if err != nil {
				return err
			}
			if err := eng.Start(cmd.Context()); err != nil {
				return err
			}
			a.eng = eng
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.eng == nil {
				return nil
			}
			return a.eng.Stop()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a config file (yaml/toml/json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "treasury.json", "path to the ledger snapshot file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newBalanceCmd(a),
		newAccountsCmd(a),
		newCreditCmd(a),
		newDebitCmd(a),
		newTransferCmd(a),
		newSellCmd(a),
		newRechargeCmd(a),
		newDepositCmd(a),
		newMineCmd(a),
		newSessionCmd(a),
		newRewardsCmd(a),
		newAuditCmd(a),
		newPassCmd(a),
		newTxsCmd(a),
		newNotificationsCmd(a),
	)

	return rootCmd
}

func wireEngine(cfgPath, dbPath string, verbose bool) (*treasury.Treasury, error) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	v := viper.New()
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	opts, err := treasury.FromViper(v)
	if err != nil {
		return nil, err
	}
	opts = append(opts, treasury.WithLogger(logger))

	st, err := file.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return treasury.New(st, opts...), nil
}
