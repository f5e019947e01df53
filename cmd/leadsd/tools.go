package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-leads-backend/internal/sequence"
	"github.com/tbourn/go-leads-backend/internal/services"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}
			a.log.Info().Str("driver", a.cfg.DB.Driver).Msg("schema up to date")
			return nil
		},
	}
}

// nextIDCmd allocates from a sequence namespace outside the API, e.g. to
// reserve ids for a bulk import.
func nextIDCmd(a *app) *cobra.Command {
	var (
		width    int
		alphabet string
		count    int
	)
	cmd := &cobra.Command{
		Use:   "next-id <namespace>",
		Short: "allocate identifiers from a sequence namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			abc, err := sequence.ParseAlphabet(alphabet)
			if err != nil {
				return err
			}
			if count < 1 {
				return fmt.Errorf("count must be positive")
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			ids := sequence.New(db, a.log)
			ns := strings.ToLower(strings.TrimSpace(args[0]))
			for i := 0; i < count; i++ {
				id, err := ids.Next(cmd.Context(), ns, width, abc)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", services.JobIDWidth, "identifier width")
	cmd.Flags().StringVar(&alphabet, "alphabet", "decimal", "decimal or base36")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "how many identifiers to allocate")
	return cmd
}

// reconcileCmd compares stored balances with their journals and fails when
// any user drifted.
func reconcileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile <user>...",
		Short: "check wallet balances against the transaction journal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			if sqlDB, err := db.DB(); err == nil {
				defer sqlDB.Close()
			}

			wallets := services.NewWalletService(db, a.cfg.Leads.CoinRate, a.cfg.Leads.Currency)
			drifted := 0
			for _, user := range args {
				balance, journal, err := wallets.Reconcile(cmd.Context(), user)
				if err != nil {
					return err
				}
				status := "ok"
				if balance != journal {
					status = "DRIFT"
					drifted++
					a.log.Error().Str("user_id", user).Int64("balance", balance).Int64("journal", journal).Msg("wallet drift")
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%d\t%s\n", user, balance, journal, status)
			}
			if drifted > 0 {
				return fmt.Errorf("%d wallet(s) out of balance", drifted)
			}
			return nil
		},
	}
}
