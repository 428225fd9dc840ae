package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fintrack-server/src/finance"
	"fintrack-server/src/models"
	"fintrack-server/src/payoff"
	"fintrack-server/src/projection"
)

func newCalcCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Run a calculation offline and print the result as JSON",
	}

	cmd.AddCommand(newLoanCommand())
	cmd.AddCommand(newAmortizeCommand())
	cmd.AddCommand(newIRRCommand())
	cmd.AddCommand(newPayoffCommand())
	cmd.AddCommand(newRetireCommand())

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSONFile decodes path into v. "-" reads stdin.
func readJSONFile(cmd *cobra.Command, path string, v any) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func newLoanCommand() *cobra.Command {
	var principal, rate, years float64

	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Monthly payment for a fixed-rate loan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if years <= 0 || years > finance.MaxTermYears {
				return fmt.Errorf("--years must be positive and at most %d", finance.MaxTermYears)
			}
			payment := finance.LoanPayment(principal, rate, years)
			total := payment * years * finance.MonthsPerYear
			return printJSON(cmd.OutOrStdout(), map[string]float64{
				"monthly_payment": payment,
				"total_paid":      total,
				"total_interest":  total - principal,
			})
		},
	}

	cmd.Flags().Float64Var(&principal, "principal", 0, "amount borrowed")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual rate as a fraction (0.05 is 5%)")
	cmd.Flags().Float64Var(&years, "years", 0, "term in years")

	return cmd
}

func newAmortizeCommand() *cobra.Command {
	var principal string
	var rate float64
	var years int

	cmd := &cobra.Command{
		Use:   "amortize",
		Short: "Month-by-month amortization schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := decimal.NewFromString(principal)
			if err != nil {
				return fmt.Errorf("invalid --principal: %w", err)
			}
			if !p.IsPositive() {
				return fmt.Errorf("--principal must be positive")
			}
			if years <= 0 || years > finance.MaxTermYears {
				return fmt.Errorf("--years must be between 1 and %d", finance.MaxTermYears)
			}
			return printJSON(cmd.OutOrStdout(), finance.AmortizationSchedule(p, rate, years))
		},
	}

	cmd.Flags().StringVar(&principal, "principal", "0", "amount borrowed")
	cmd.Flags().Float64Var(&rate, "rate", 0, "annual rate as a fraction")
	cmd.Flags().IntVar(&years, "years", 0, "term in years")

	return cmd
}

func newIRRCommand() *cobra.Command {
	var cashflows []float64
	var guess float64
	var maxIterations int

	cmd := &cobra.Command{
		Use:   "irr",
		Short: "Internal rate of return of periodic cashflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := finance.IRR(cashflows, finance.WithGuess(guess), finance.WithMaxIterations(maxIterations))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]float64{
				"irr": rate,
				"npv": finance.NPV(rate, cashflows),
			})
		},
	}

	cmd.Flags().Float64SliceVar(&cashflows, "cashflows", nil, "cashflows, first one usually negative")
	cmd.Flags().Float64Var(&guess, "guess", 0.1, "starting rate")
	cmd.Flags().IntVar(&maxIterations, "max-iterations", 1000, "Newton-Raphson iteration limit")
	_ = cmd.MarkFlagRequired("cashflows")

	return cmd
}

type payoffInput struct {
	Strategy     string               `json:"strategy"`
	ExtraPayment decimal.Decimal      `json:"extra_payment"`
	CustomOrder  []int64              `json:"custom_order"`
	Debts        []models.DebtAccount `json:"debts"`
}

func newPayoffCommand() *cobra.Command {
	var file, strategy, start string
	var compare bool

	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Simulate a debt payoff strategy from a JSON file of debts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var in payoffInput
			if err := readJSONFile(cmd, file, &in); err != nil {
				return err
			}
			if strategy != "" {
				in.Strategy = strategy
			}
			var startDate time.Time
			if start != "" {
				var err error
				if startDate, err = time.Parse("2006-01-02", start); err != nil {
					return fmt.Errorf("invalid --start: %w", err)
				}
			}

			if compare {
				cmp, err := payoff.Compare(in.Debts, in.ExtraPayment, startDate)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), cmp)
			}

			s, err := payoff.ParseStrategy(in.Strategy)
			if err != nil {
				return err
			}
			plan, err := payoff.Simulate(in.Debts, payoff.Options{
				Strategy:     s,
				ExtraPayment: in.ExtraPayment,
				CustomOrder:  in.CustomOrder,
				StartDate:    startDate,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON file with debts and options, - for stdin")
	cmd.Flags().StringVar(&strategy, "strategy", "", "override the file's strategy")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD) for payoff dates")
	cmd.Flags().BoolVar(&compare, "compare", false, "run every strategy and report the cheapest")

	return cmd
}

func newRetireCommand() *cobra.Command {
	var file, scenario, presetsFile string
	var all bool

	cmd := &cobra.Command{
		Use:   "retire",
		Short: "Project a retirement plan from a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var plan models.RetirementPlan
			if err := readJSONFile(cmd, file, &plan); err != nil {
				return err
			}

			presets := projection.DefaultPresets()
			if presetsFile != "" {
				var err error
				if presets, err = projection.LoadPresets(presetsFile); err != nil {
					return err
				}
			}

			if all {
				projs, err := presets.RunAll(plan)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), projs)
			}

			s, err := projection.ParseScenario(scenario)
			if err != nil {
				return err
			}
			proj, err := presets.Run(plan, s)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), proj)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON retirement plan, - for stdin")
	cmd.Flags().StringVar(&scenario, "scenario", "baseline", "baseline, optimistic or pessimistic")
	cmd.Flags().StringVar(&presetsFile, "presets", "", "YAML file overriding scenario offsets")
	cmd.Flags().BoolVar(&all, "all", false, "run every scenario")

	return cmd
}
