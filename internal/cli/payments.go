package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dkazakov/paysync/internal/services"
)

const dueDateLayout = "2006-01-02"

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

func newAddCmd(r *root) *cobra.Command {
	var (
		name     string
		amount   float64
		currency string
		due      string
		category string
		group    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a payment in the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := time.Parse(dueDateLayout, due)
			if err != nil {
				return fmt.Errorf("invalid due date %q, expected YYYY-MM-DD: %w", due, err)
			}

			p, err := r.app.Payments.Add(cmd.Context(), services.PaymentInput{
				Name:         name,
				Amount:       amount,
				CurrencyCode: currency,
				DueDate:      dueDate,
				Category:     category,
				GroupID:      group,
			})
			if err != nil {
				return err
			}
			cmd.Printf("created %s\n", p.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "payment name")
	cmd.Flags().Float64Var(&amount, "amount", 0, "payment amount")
	cmd.Flags().StringVar(&currency, "currency", "", "3-letter currency code")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "payment category")
	cmd.Flags().StringVar(&group, "group", "", "group id linking related payments")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func newEditCmd(r *root) *cobra.Command {
	var (
		name     string
		amount   float64
		currency string
		due      string
		category string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace the user-editable fields of a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := time.Parse(dueDateLayout, due)
			if err != nil {
				return fmt.Errorf("invalid due date %q, expected YYYY-MM-DD: %w", due, err)
			}

			_, err = r.app.Payments.Update(cmd.Context(), args[0], services.PaymentInput{
				Name:         name,
				Amount:       amount,
				CurrencyCode: currency,
				DueDate:      dueDate,
				Category:     category,
			})
			return err
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "payment name")
	cmd.Flags().Float64Var(&amount, "amount", 0, "payment amount")
	cmd.Flags().StringVar(&currency, "currency", "", "3-letter currency code")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&category, "category", "", "payment category")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("currency")
	_ = cmd.MarkFlagRequired("due")

	return cmd
}

func newListCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List payments in the local store",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := r.app.Payments.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range rows {
				paid := " "
				if p.IsPaid {
					paid = "x"
				}
				cmd.Printf("[%s] %s  %8.2f %s  due %s  %-8s  %s\n",
					paid, p.ID, p.Amount, p.CurrencyCode,
					p.DueDate.Format(dueDateLayout), p.SyncStatus, p.Name)
			}
			return nil
		},
	}
}

func newPayCmd(r *root) *cobra.Command {
	var undo bool

	cmd := &cobra.Command{
		Use:   "pay <id>",
		Short: "Mark a payment paid (or unpaid with --undo)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := r.app.Payments.SetPaid(cmd.Context(), args[0], !undo)
			return err
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "mark unpaid instead")
	return cmd
}

func newDeleteCmd(r *root) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a payment locally (and remotely on the next sync)",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.Payments.Delete(cmd.Context(), args[0])
		},
	}
}
