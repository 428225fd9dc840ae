package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"fintrack-server/src/finance"
)

func CompoundInterest() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal        float64 `json:"principal"`
			Rate             float64 `json:"rate"`
			Years            float64 `json:"years"`
			CompoundsPerYear int     `json:"compounds_per_year"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		amount := finance.CompoundInterest(req.Principal, req.Rate, req.Years, req.CompoundsPerYear)
		writeResult(w, map[string]float64{
			"amount":   amount,
			"interest": amount - req.Principal,
		})
	}
}

func LoanPayment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal  float64 `json:"principal"`
			AnnualRate float64 `json:"annual_rate"`
			TermYears  float64 `json:"term_years"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.TermYears <= 0 || req.TermYears > finance.MaxTermYears {
			http.Error(w, "term_years must be positive and at most 100", http.StatusBadRequest)
			return
		}
		payment := finance.LoanPayment(req.Principal, req.AnnualRate, req.TermYears)
		total := payment * req.TermYears * finance.MonthsPerYear
		writeResult(w, map[string]float64{
			"monthly_payment": payment,
			"total_paid":      total,
			"total_interest":  total - req.Principal,
		})
	}
}

func Amortization() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal  decimal.Decimal `json:"principal"`
			AnnualRate float64         `json:"annual_rate"`
			TermYears  int             `json:"term_years"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.TermYears <= 0 || req.TermYears > finance.MaxTermYears || !req.Principal.IsPositive() {
			http.Error(w, "principal must be positive and term_years between 1 and 100", http.StatusBadRequest)
			return
		}
		schedule := finance.AmortizationSchedule(req.Principal, req.AnnualRate, req.TermYears)
		if len(schedule) == 0 {
			http.Error(w, "empty schedule", http.StatusUnprocessableEntity)
			return
		}
		last := schedule[len(schedule)-1]
		writeJSON(w, http.StatusOK, map[string]any{
			"monthly_payment": schedule[0].Payment,
			"total_interest":  last.TotalInterest,
			"schedule":        schedule,
		})
	}
}

func IRR() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Cashflows     []float64 `json:"cashflows"`
			Guess         *float64  `json:"guess"`
			Tolerance     *float64  `json:"tolerance"`
			MaxIterations *int      `json:"max_iterations"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if len(req.Cashflows) < 2 {
			http.Error(w, "at least two cashflows are required", http.StatusBadRequest)
			return
		}
		var opts []finance.IRROption
		if req.Guess != nil {
			opts = append(opts, finance.WithGuess(*req.Guess))
		}
		if req.Tolerance != nil {
			opts = append(opts, finance.WithTolerance(*req.Tolerance))
		}
		if req.MaxIterations != nil {
			opts = append(opts, finance.WithMaxIterations(*req.MaxIterations))
		}
		rate, err := finance.IRR(req.Cashflows, opts...)
		if err != nil {
			log.Printf("ERROR: IRR failed for %d cashflows: %v", len(req.Cashflows), err)
			writeError(w, err, "failed to calculate irr")
			return
		}
		writeResult(w, map[string]float64{
			"irr": rate,
			"npv": finance.NPV(rate, req.Cashflows),
		})
	}
}

func FutureValue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Principal           float64 `json:"principal"`
			MonthlyContribution float64 `json:"monthly_contribution"`
			AnnualRate          float64 `json:"annual_rate"`
			Years               float64 `json:"years"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		fv := finance.FutureValueWithContributions(req.Principal, req.MonthlyContribution, req.AnnualRate, req.Years)
		contributed := req.Principal + req.MonthlyContribution*req.Years*finance.MonthsPerYear
		writeResult(w, map[string]float64{
			"future_value": fv,
			"contributed":  contributed,
			"growth":       fv - contributed,
		})
	}
}

func PresentValue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FutureValue float64 `json:"future_value"`
			Rate        float64 `json:"rate"`
			Years       float64 `json:"years"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		writeResult(w, map[string]float64{
			"present_value": finance.PresentValue(req.FutureValue, req.Rate, req.Years),
		})
	}
}

func InflationAdjusted() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount        float64 `json:"amount"`
			InflationRate float64 `json:"inflation_rate"`
			Years         float64 `json:"years"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		writeResult(w, map[string]float64{
			"real_value": finance.InflationAdjustedValue(req.Amount, req.InflationRate, req.Years),
		})
	}
}

func ROI() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CurrentValue      float64 `json:"current_value"`
			InitialInvestment float64 `json:"initial_investment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		writeResult(w, map[string]float64{
			"roi":    finance.ROI(req.CurrentValue, req.InitialInvestment),
			"return": finance.InvestmentReturn(req.CurrentValue, req.InitialInvestment),
		})
	}
}

func DebtToIncome() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MonthlyDebtPayments []float64 `json:"monthly_debt_payments"`
			MonthlyIncome       float64   `json:"monthly_income"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		writeResult(w, map[string]float64{
			"debt_to_income": finance.DebtToIncomeRatio(req.MonthlyDebtPayments, req.MonthlyIncome),
		})
	}
}
