package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack-server/src/budgeting"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/finance"
	"fintrack-server/src/middleware"
	"fintrack-server/src/models"
	"fintrack-server/src/payoff"
	"fintrack-server/src/projection"
)

func dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// serve runs h against a POST with body, authenticated as user 42.
func serve(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), 42, "casey", false))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{db.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("saving: %w", db.ErrConflict), http.StatusConflict},
		{finance.ErrIRRNoConvergence, http.StatusUnprocessableEntity},
		{payoff.ErrNegativeAmortization, http.StatusUnprocessableEntity},
		{payoff.ErrHorizonExceeded, http.StatusUnprocessableEntity},
		{projection.ErrGoalUnreachable, http.StatusUnprocessableEntity},
		{payoff.ErrUnknownStrategy, http.StatusBadRequest},
		{fmt.Errorf("%w: bad month", budgeting.ErrInvalidBudget), http.StatusBadRequest},
		{fmt.Errorf("%w: debts[0]: name is required", errInvalidDebt), http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		status, msg := errorStatus(tt.err, "failed")
		assert.Equal(t, tt.want, status, "%v", tt.err)
		if status == http.StatusInternalServerError {
			assert.Equal(t, "failed", msg)
		}
	}
}

func TestFinanceHandlers(t *testing.T) {
	var out map[string]float64

	rec := serve(t, CompoundInterest(), "/api/finance/compound-interest", `{"principal":1000,"rate":0.1,"years":1,"compounds_per_year":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &out)
	assert.InDelta(t, 1100.0, out["amount"], 1e-9)
	assert.InDelta(t, 100.0, out["interest"], 1e-9)

	rec = serve(t, LoanPayment(), "/api/finance/loan-payment", `{"principal":36000,"annual_rate":0,"term_years":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &out)
	assert.InDelta(t, 1000.0, out["monthly_payment"], 1e-9)
	assert.InDelta(t, 0.0, out["total_interest"], 1e-6)

	rec = serve(t, LoanPayment(), "/api/finance/loan-payment", `{"principal":1000,"annual_rate":0.05,"term_years":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, ROI(), "/api/finance/roi", `{"current_value":1250,"initial_investment":1000}`)
	decode(t, rec, &out)
	assert.InDelta(t, 25.0, out["roi"], 1e-9)
	assert.InDelta(t, 250.0, out["return"], 1e-9)

	rec = serve(t, DebtToIncome(), "/api/finance/debt-to-income", `{"monthly_debt_payments":[1000,500],"monthly_income":5000}`)
	decode(t, rec, &out)
	assert.InDelta(t, 30.0, out["debt_to_income"], 1e-9)

	rec = serve(t, CompoundInterest(), "/api/finance/compound-interest", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIRRHandler(t *testing.T) {
	rec := serve(t, IRR(), "/api/finance/irr", `{"cashflows":[-100,110]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]float64
	decode(t, rec, &out)
	assert.InDelta(t, 0.10, out["irr"], 1e-4)
	assert.InDelta(t, 0.0, out["npv"], 1e-3)

	rec = serve(t, IRR(), "/api/finance/irr", `{"cashflows":[100,100]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, IRR(), "/api/finance/irr", `{"cashflows":[-1000,300,400,500],"max_iterations":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = serve(t, IRR(), "/api/finance/irr", `{"cashflows":[-100]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAmortizationHandler(t *testing.T) {
	rec := serve(t, Amortization(), "/api/finance/amortization", `{"principal":"1200","annual_rate":0,"term_years":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		MonthlyPayment decimal.Decimal           `json:"monthly_payment"`
		TotalInterest  decimal.Decimal           `json:"total_interest"`
		Schedule       []finance.AmortizationRow `json:"schedule"`
	}
	decode(t, rec, &out)
	assert.Equal(t, "100", out.MonthlyPayment.String())
	assert.True(t, out.TotalInterest.IsZero())
	require.Len(t, out.Schedule, 12)
	assert.True(t, out.Schedule[11].RemainingBalance.IsZero())

	rec = serve(t, Amortization(), "/api/finance/amortization", `{"principal":"0","annual_rate":0.05,"term_years":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTermYearsBounded(t *testing.T) {
	for _, years := range []string{"-1", "101", "768614336404564651"} {
		rec := serve(t, Amortization(), "/api/finance/amortization", `{"principal":"1000","annual_rate":0.05,"term_years":`+years+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, years)

		rec = serve(t, LoanPayment(), "/api/finance/loan-payment", `{"principal":1000,"annual_rate":0.05,"term_years":`+years+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, years)
	}

	rec := serve(t, Amortization(), "/api/finance/amortization", `{"principal":"1000","annual_rate":0.05,"term_years":100}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, Amortization(), "/api/finance/amortization", `{"principal":"1000","annual_rate":1e308,"term_years":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestNonFiniteResultIsRejected(t *testing.T) {
	rec := serve(t, PresentValue(), "/api/finance/present-value", `{"future_value":100,"rate":-1,"years":1}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "present_value")

	rec = serve(t, PresentValue(), "/api/finance/present-value", `{"future_value":100,"rate":0.1,"years":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]float64
	decode(t, rec, &out)
	assert.InDelta(t, 90.909, out["present_value"], 1e-3)

	rec = httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"x": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestBuildNetWorth(t *testing.T) {
	accounts := []models.Account{
		{Type: "depository", CurrentBalance: dec(5000)},
		{Type: "credit", CurrentBalance: dec(-800)},
	}
	investments := []models.Investment{{CurrentValue: dec(12000)}}
	debts := []models.DebtAccount{{CurrentBalance: dec(3000)}}

	s := BuildNetWorth(accounts, investments, debts)
	assert.Equal(t, "5000", s.Cash.String())
	assert.Equal(t, "17000", s.Assets.String())
	assert.Equal(t, "3800", s.Liabilities.String())
	assert.Equal(t, "13200", s.NetWorth.String())

	empty := BuildNetWorth(nil, nil, nil)
	assert.True(t, empty.NetWorth.IsZero())
}

func TestBuildInvestmentSummary(t *testing.T) {
	s, err := BuildInvestmentSummary([]models.Investment{
		{AssetType: "stock", CurrentValue: dec(1500), PurchaseValue: dec(1000)},
		{AssetType: "bond", CurrentValue: dec(500), PurchaseValue: dec(500)},
		{AssetType: "stock", CurrentValue: dec(1000), PurchaseValue: dec(1000)},
	})
	require.NoError(t, err)
	assert.Equal(t, "3000", s.TotalValue.String())
	assert.Equal(t, "500", s.TotalReturn.String())
	assert.InDelta(t, 20.0, s.ROI, 1e-9)
	// Per-holding ROIs 50, 0, 0 weighted by cost 1000, 500, 1000.
	assert.InDelta(t, 20.0, s.WeightedROI, 1e-9)
	require.Len(t, s.Allocation, 2)
	assert.Equal(t, "stock", s.Allocation[0].AssetType)
	assert.InDelta(t, 83.333, s.Allocation[0].Percent, 1e-3)

	s, err = BuildInvestmentSummary(nil)
	require.NoError(t, err)
	assert.Empty(t, s.Allocation)
	assert.Equal(t, 0.0, s.ROI)
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	debts := []models.DebtAccount{
		{CurrentBalance: dec(2000), MinimumPayment: dec(100)},
		{CurrentBalance: decimal.Zero, MinimumPayment: dec(75)},
	}
	goals := []models.Goal{
		{ID: 1, Title: "car", TargetAmount: dec(1000), CurrentAmount: dec(250), TargetDate: now.AddDate(0, 0, 10)},
		{ID: 2, Title: "trip", TargetAmount: dec(1000), CurrentAmount: dec(750), TargetDate: now.AddDate(0, 0, -3)},
	}

	dash, err := BuildDashboard(NetWorthSummary{}, nil, debts, goals, 1000, now)
	require.NoError(t, err)
	assert.Equal(t, "100", dash.MinimumDue.String())
	assert.InDelta(t, 10.0, dash.DebtToIncome, 1e-9)
	require.Len(t, dash.Goals, 2)
	assert.Equal(t, 10, dash.Goals[0].DaysToGoal)
	assert.Equal(t, 0, dash.Goals[1].DaysToGoal)
	assert.InDelta(t, 50.0, dash.AverageGoal, 1e-9)
}

func TestPayoffPlanWithBodyDebts(t *testing.T) {
	body := `{
		"strategy": "snowball",
		"extra_payment": 100,
		"start_date": "2025-01-01",
		"debts": [
			{"id": 1, "name": "card", "current_balance": 300, "interest_rate": 0, "minimum_payment": 50},
			{"id": 2, "name": "loan", "current_balance": 1000, "interest_rate": 0, "minimum_payment": 50}
		]
	}`
	rec := serve(t, PayoffPlan(nil), "/api/debt/payoff-plan", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var plan payoff.Plan
	decode(t, rec, &plan)
	assert.Equal(t, payoff.Snowball, plan.Strategy)
	assert.Equal(t, 7, plan.Months)
	assert.Equal(t, []int64{1, 2}, plan.Order)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), plan.PayoffDate)
}

func TestPayoffPlanErrors(t *testing.T) {
	debts := `[{"id": 1, "name": "card", "current_balance": 10000, "interest_rate": 24, "minimum_payment": 100}]`

	rec := serve(t, PayoffPlan(nil), "/api/debt/payoff-plan", `{"strategy":"fastest","debts":`+debts+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, PayoffPlan(nil), "/api/debt/payoff-plan", `{"strategy":"avalanche","start_date":"01/02/2025","debts":`+debts+`}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, PayoffPlan(nil), "/api/debt/payoff-plan", `{"strategy":"avalanche","extra_payment":50,"debts":`+debts+`}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "interest")
}

func TestPayoffRejectsInvalidBodyDebts(t *testing.T) {
	tests := []struct {
		name string
		debt string
		want string
	}{
		{"negative minimum", `{"id": 1, "name": "card", "current_balance": 500, "interest_rate": 10, "minimum_payment": -25}`, "minimum_payment"},
		{"negative balance", `{"id": 1, "name": "card", "current_balance": -500, "interest_rate": 10, "minimum_payment": 25}`, "current_balance"},
		{"negative rate", `{"id": 1, "name": "card", "current_balance": 500, "interest_rate": -3, "minimum_payment": 25}`, "interest_rate"},
		{"missing name", `{"id": 1, "current_balance": 500, "interest_rate": 10, "minimum_payment": 25}`, "name is required"},
	}
	valid := `{"id": 2, "name": "loan", "current_balance": 1000, "interest_rate": 5, "minimum_payment": 50}`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `{"strategy":"avalanche","debts":[` + valid + `,` + tt.debt + `]}`

			rec := serve(t, PayoffPlan(nil), "/api/debt/payoff-plan", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "debts[1]")
			assert.Contains(t, rec.Body.String(), tt.want)

			rec = serve(t, ComparePayoff(nil), "/api/debt/compare", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestComparePayoff(t *testing.T) {
	body := `{
		"extra_payment": 200,
		"debts": [
			{"id": 1, "name": "car", "current_balance": 500, "interest_rate": 5, "minimum_payment": 25},
			{"id": 2, "name": "card", "current_balance": 1000, "interest_rate": 20, "minimum_payment": 25}
		]
	}`
	rec := serve(t, ComparePayoff(nil), "/api/debt/compare", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cmp payoff.Comparison
	decode(t, rec, &cmp)
	assert.Equal(t, payoff.Avalanche, cmp.Best)
	assert.Len(t, cmp.Plans, 3)
}

func TestRetirementProjectionWithBodyPlan(t *testing.T) {
	body := `{
		"current_age": 60,
		"retirement_age": 62,
		"life_expectancy": 64,
		"current_savings": 1000,
		"annual_contribution": 100,
		"expected_return": 0.10
	}`
	h := RetirementProjection(nil, nil, projection.DefaultPresets())

	rec := serve(t, h, "/api/planning/retirement/projection", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var proj projection.Projection
	decode(t, rec, &proj)
	assert.Equal(t, projection.Baseline, proj.Scenario)
	assert.Equal(t, "1718.2", proj.FinalBalance.String())

	rec = serve(t, h, "/api/planning/retirement/projection?scenario=rosy", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h, "/api/planning/retirement/projection", `{"current_age": 70, "life_expectancy": 60}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h, "/api/planning/retirement/projection", `{"current_age": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetirementScenariosWithBodyPlan(t *testing.T) {
	body := `{"current_age": 40, "retirement_age": 65, "life_expectancy": 85,
		"current_savings": 50000, "annual_contribution": 10000, "expected_return": 0.06}`
	rec := serve(t, RetirementScenarios(nil, projection.DefaultPresets()), "/api/planning/retirement/scenarios", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var projs []projection.Projection
	decode(t, rec, &projs)
	require.Len(t, projs, 3)
	assert.Equal(t, projection.Optimistic, projs[1].Scenario)
}

func TestRequestValidation(t *testing.T) {
	txn, ok := transactionRequest{Date: "2025-02-30", Amount: dec(-5)}.toModel(1)
	assert.False(t, ok)
	assert.Nil(t, txn)

	txn, ok = transactionRequest{Date: "2025-02-14", Amount: dec(-5), Category: "Food"}.toModel(1)
	require.True(t, ok)
	assert.Equal(t, models.SourceManual, txn.Source)
	assert.Equal(t, int64(1), txn.UserID)

	goal, msg := goalRequest{Title: "house", TargetAmount: decimal.Zero, TargetDate: "2030-01-01"}.toModel(1)
	assert.Nil(t, goal)
	assert.Equal(t, "target_amount must be positive", msg)

	goal, msg = goalRequest{Title: "house", TargetAmount: dec(50000), TargetDate: "someday"}.toModel(1)
	assert.Nil(t, goal)
	assert.Contains(t, msg, "target_date")

	goal, _ = goalRequest{Title: "house", TargetAmount: dec(50000), TargetDate: "2030-01-01"}.toModel(1)
	require.NotNil(t, goal)
	assert.Equal(t, 2030, goal.TargetDate.Year())

	debt, msg := debtRequest{Name: "card", CurrentBalance: dec(100), InterestRate: -1}.toModel(1)
	assert.Nil(t, debt)
	assert.Contains(t, msg, "interest_rate")

	debt, _ = debtRequest{Name: "card", CurrentBalance: dec(100), InterestRate: 19.99}.toModel(1)
	require.NotNil(t, debt)
	assert.Equal(t, "100", debt.OriginalBalance.String())

	inv, msg := investmentRequest{Name: "fund", CurrentValue: dec(-1)}.toModel(1)
	assert.Nil(t, inv)
	assert.NotEmpty(t, msg)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	h := Register(nil, []byte("secret"))
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad json", `{`, "invalid request"},
		{"bad email", `{"email":"nope","username":"casey","password":"Str0ng!pass"}`, "invalid email format"},
		{"short username", `{"email":"c@example.com","username":"c","password":"Str0ng!pass"}`, "username must be"},
		{"weak password", `{"email":"c@example.com","username":"casey","password":"password"}`, "password must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, "/api/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCreateBudgetValidatesBeforeSaving(t *testing.T) {
	h := CreateBudget(nil)

	rec := serve(t, h, "/api/budget", `{"month":"2025-13","total_amount":100}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, h, "/api/budget", `{"month":"2025-02","total_amount":100,
		"categories":[{"name":"Food","limit":50},{"name":"food","limit":20}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
