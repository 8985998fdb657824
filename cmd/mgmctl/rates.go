package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mgm-veiculos/mgm-api-go/internal/app"
	"github.com/mgm-veiculos/mgm-api-go/internal/domain"
	"github.com/mgm-veiculos/mgm-api-go/internal/service"
)

func (c *cli) newRatesCmd() *cobra.Command {
	rates := &cobra.Command{
		Use:   "rates",
		Short: "Show or change the commission per vehicle type",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the current rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd.Context(), func(a *app.App) error {
				r, err := a.Settings.GetRates(cmd.Context())
				if err != nil {
					return err
				}
				printRates(cmd, r)
				return nil
			})
		},
	}

	var car, moto string
	set := &cobra.Command{
		Use:   "set",
		Short: "Change one or both rates (e.g. --carro 250 --moto \"R$ 120,00\")",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if car == "" && moto == "" {
				return fmt.Errorf("pass --carro and/or --moto")
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				r, err := a.Settings.GetRates(cmd.Context())
				if err != nil {
					return err
				}
				if r.Car, err = parseRate(car, r.Car); err != nil {
					return err
				}
				if r.Motorcycle, err = parseRate(moto, r.Motorcycle); err != nil {
					return err
				}
				saved, err := a.Settings.SaveRates(cmd.Context(), r)
				if err != nil {
					return err
				}
				printRates(cmd, saved)
				return nil
			})
		},
	}
	set.Flags().StringVar(&car, "carro", "", "commission for cars")
	set.Flags().StringVar(&moto, "moto", "", "commission for motorcycles")

	rates.AddCommand(get, set)
	return rates
}

func parseRate(s string, current domain.Money) (domain.Money, error) {
	if s == "" {
		return current, nil
	}
	m, err := domain.ParseMoney(s)
	if err != nil {
		return current, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return m, nil
}

func printRates(cmd *cobra.Command, r domain.CommissionRates) {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "carro\t%s\n", r.Car.BRL())
	fmt.Fprintf(tw, "moto\t%s\n", r.Motorcycle.BRL())
	tw.Flush()
}

func (c *cli) newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search [query]",
		Short: "Find vehicles in every stage by model, plate, year or client",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := ""
			if len(args) == 1 {
				q = args[0]
			}
			return c.withApp(cmd.Context(), func(a *app.App) error {
				vehicles, err := a.Vehicles.Search(cmd.Context(), q)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tMODELO\tPLACA\tANO\tSTATUS\tCLIENTE")
				for _, v := range vehicles {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", v.ID, v.Model, v.Plate, v.Year, v.Status, v.Client)
				}
				return tw.Flush()
			})
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print a bcrypt hash for GESTOR_PASSWORD_HASH or CONSULTA_PASSWORD_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := service.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
