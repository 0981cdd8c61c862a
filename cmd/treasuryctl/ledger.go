package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/artgap/treasury/id"
	"github.com/artgap/treasury/transaction"
	"github.com/artgap/treasury/types"
)

func parseAmount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", raw)
	}
	return d, nil
}

func newBalanceCmd(a *app) *cobra.Command {
	var usd bool
	cmd := &cobra.Command{
		Use:   "balance <user>",
		Short: "Show a user's balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			balances, err := a.eng.Balances(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, c := range types.Currencies() {
				if v, ok := balances[c]; ok {
					fmt.Fprintf(cmd.OutOrStdout(), "%-5s %s\n", c, v)
				}
			}
			if usd {
				val, err := a.eng.Valuation(cmd.Context(), args[0], true)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "USD gross %s, net %s (network rate %s)\n",
					val.USDGross, val.USDNet, val.NetworkRate)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&usd, "usd", false, "also show the USD valuation")
	return cmd
}

func newAccountsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List all accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := a.eng.Accounts(cmd.Context())
			if err != nil {
				return err
			}
			for _, acct := range accounts {
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s ARTC %s, passes %d\n",
					acct.UserID, acct.Balances.Get(types.ARTC), len(acct.Passes))
			}
			return nil
		},
	}
}

func newCreditCmd(a *app) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "credit <user> <currency> <amount>",
		Short: "Credit a user's balance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency, err := types.ParseCurrency(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			tx, err := a.eng.Credit(cmd.Context(), args[0], currency, amount, desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s credited %s %s (%s)\n", args[0], amount, currency, tx.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "message", "m", "", "transaction description")
	return cmd
}

func newDebitCmd(a *app) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "debit <user> <currency> <amount>",
		Short: "Debit a user's balance",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency, err := types.ParseCurrency(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			tx, err := a.eng.Debit(cmd.Context(), args[0], currency, amount, desc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s debited %s %s (%s)\n", args[0], amount, currency, tx.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "message", "m", "", "transaction description")
	return cmd
}

func newTransferCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <from> <to> <currency> <amount>",
		Short: "Transfer between two users",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency, err := types.ParseCurrency(args[2])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[3])
			if err != nil {
				return err
			}
			res, err := a.eng.Transfer(cmd.Context(), args[0], args[1], currency, amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s: %s %s (%s / %s)\n",
				args[0], args[1], amount, currency, res.Out.ID, res.In.ID)
			return nil
		},
	}
}

func newSellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <buyer> <seller> <currency> <gross>",
		Short: "Settle a fee-split sale",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			currency, err := types.ParseCurrency(args[2])
			if err != nil {
				return err
			}
			gross, err := parseAmount(args[3])
			if err != nil {
				return err
			}
			b, err := a.eng.FeeSplitTransfer(cmd.Context(), args[0], args[1], currency, gross)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"gross %s, platform fee %s, network fee %s, seller proceeds %s %s\n",
				b.Gross, b.PlatformFee, b.NetworkFee, b.SellerProceeds, b.Currency)
			return nil
		},
	}
}

func newRechargeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "recharge <user> <amount>",
		Short: "Set a user's ARTC balance to an absolute amount",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			tx, err := a.eng.Recharge(cmd.Context(), args[0], amount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s ARTC set to %s (%s)\n", args[0], amount, tx.ID)
			return nil
		},
	}
}

func newDepositCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Manage deposits",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "request <user> <currency> <amount>",
			Short: "Record a pending deposit",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				currency, err := types.ParseCurrency(args[1])
				if err != nil {
					return err
				}
				amount, err := parseAmount(args[2])
				if err != nil {
					return err
				}
				tx, err := a.eng.Deposit(cmd.Context(), args[0], currency, amount, "manual deposit")
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deposit pending: %s\n", tx.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "confirm <tx-id>",
			Short: "Confirm a pending deposit",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				txID, err := id.ParseTransactionID(args[0])
				if err != nil {
					return err
				}
				tx, err := a.eng.ConfirmDeposit(cmd.Context(), txID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deposit confirmed: %s %s credited to %s\n",
					tx.Amount, tx.Currency, tx.AccountID)
				return nil
			},
		},
	)

	return cmd
}

func newTxsCmd(a *app) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "txs <user>",
		Short: "List a user's transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := a.eng.Transactions(cmd.Context(), args[0], transaction.ListOpts{Limit: limit, Offset: offset})
			if err != nil {
				return err
			}
			for _, tx := range txs {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %8s %-5s %-9s %s\n",
					tx.Timestamp.Format("2006-01-02 15:04:05"), tx.Type, tx.Amount, tx.Currency, tx.Status, tx.Description)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max records to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip")
	return cmd
}

func newNotificationsCmd(a *app) *cobra.Command {
	var unread bool
	cmd := &cobra.Command{
		Use:   "notifications <user>",
		Short: "List a user's notifications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			notes, err := a.eng.Notifications(cmd.Context(), args[0], unread)
			if err != nil {
				return err
			}
			for _, n := range notes {
				marker := " "
				if !n.Read {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %s: %s\n",
					marker, n.TS.Format("2006-01-02 15:04:05"), n.Title, n.Message)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&unread, "unread", false, "only unread notifications")
	return cmd
}
