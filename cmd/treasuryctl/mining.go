package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artgap/treasury/audit"
	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/types"
)

func newMineCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mine <user>",
		Short: "Run a quick mine for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			evt, err := a.eng.Mine(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mined %s ARTC (%s)\n", evt.Reward, evt.ID)
			return nil
		},
	}
}

func newSessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage mining sessions",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "start <user>",
			Short: "Start a mining session",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := a.eng.StartSession(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "session %s running until %s\n",
					sess.ID, sess.End.Format("2006-01-02 15:04:05"))
				return nil
			},
		},
		&cobra.Command{
			Use:   "status <user>",
			Short: "Show session status",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := a.eng.SessionStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if st.Active {
					fmt.Fprintf(cmd.OutOrStdout(), "active, %s remaining\n", st.Remaining.Round(time.Second))
					return nil
				}
				if st.End.IsZero() {
					fmt.Fprintln(cmd.OutOrStdout(), "no session")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ended %s, claimed: %v\n",
					st.End.Format("2006-01-02 15:04:05"), st.Claimed)
				return nil
			},
		},
		&cobra.Command{
			Use:   "claim <user>",
			Short: "Claim a finished session's reward",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tx, err := a.eng.Claim(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "claimed %s ARTC (%s)\n", tx.Amount, tx.ID)
				return nil
			},
		},
	)

	return cmd
}

func newRewardsCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "rewards <user>",
		Short: "List a user's mining rewards",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := a.eng.MiningEvents(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			for _, evt := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-5s %s ARTC\n",
					evt.CreatedAt.Format("2006-01-02 15:04:05"), evt.Source, evt.Reward)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "max records to show")
	return cmd
}

func newAuditCmd(a *app) *cobra.Command {
	var user, typ string
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := a.eng.AuditTrail(cmd.Context(), audit.ListOpts{
				Type:   typ,
				UserID: user,
				Limit:  limit,
			})
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-20s %s\n",
					e.TS.Format("2006-01-02 15:04:05"), e.Type, e.UserID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "filter by user ID")
	cmd.Flags().StringVar(&typ, "type", "", "filter by entry type")
	cmd.Flags().IntVar(&limit, "limit", 0, "max records to show")
	return cmd
}

func newPassCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pass",
		Short: "Manage entitlement passes",
	}

	var currency string
	grant := &cobra.Command{
		Use:   "grant <user> <tier> <period>",
		Short: "Grant (purchase) a pass",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := types.ParseCurrency(currency)
			if err != nil {
				return err
			}
			p, err := a.eng.GrantPass(cmd.Context(), args[0], pass.Tier(args[1]), pass.Period(args[2]), cur)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s pass %s valid until %s (paid %s %s)\n",
				p.Tier, p.ID, p.End.Format("2006-01-02"), p.PaidAmount, p.Currency)
			return nil
		},
	}
	grant.Flags().StringVar(&currency, "currency", "USD", "purchase currency")

	list := &cobra.Command{
		Use:   "list <user>",
		Short: "List a user's passes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			passes, err := a.eng.Passes(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, p := range passes {
				line := fmt.Sprintf("%-8s %s -> %s", p.Tier,
					p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
				if p.Limits.FreeNFT != nil {
					line += fmt.Sprintf("  free NFTs left: %d", *p.Limits.FreeNFT)
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.AddCommand(grant, list)
	return cmd
}
