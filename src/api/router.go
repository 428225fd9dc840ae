package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plaid/plaid-go/v41/plaid"

	appdb "fintrack-server/src/db"
	"fintrack-server/src/handlers"
	"fintrack-server/src/middleware"
	"fintrack-server/src/projection"
	"fintrack-server/src/util"
)

// Deps is everything the routes need. PlaidClient may be nil, in which case
// the banking routes are not mounted. WebhookKeys defaults to fetching keys
// from Plaid.
type Deps struct {
	Pool           *pgxpool.Pool
	Cache          *appdb.Cache
	PlaidClient    *plaid.APIClient
	WebhookKeys    util.KeySource
	Presets        projection.Presets
	JWTSecret      []byte
	DemoMode       bool
	AllowedOrigins []string
}

func NewRouter(d Deps) *chi.Mux {
	if d.Presets == nil {
		d.Presets = projection.DefaultPresets()
	}
	pool, cache := d.Pool, d.Cache

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORSMiddleware(d.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", handlers.Login(pool, d.JWTSecret))
		r.Post("/register", handlers.Register(pool, d.JWTSecret))

		// Plaid authenticates its webhook with a signed header, not a user token.
		if d.PlaidClient != nil {
			keys := d.WebhookKeys
			if keys == nil {
				keys = util.PlaidKeySource(d.PlaidClient)
			}
			r.Post("/banking/webhook", handlers.PlaidWebhook(keys, d.PlaidClient, pool, cache))
		}

		// Protected routes
		r.With(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.DemoModeMiddleware(d.DemoMode)).Group(func(r chi.Router) {
			// User
			r.Get("/user", handlers.GetUser(pool))
			r.Put("/user", handlers.UpdateUser(pool))
			r.Post("/user/change-password", handlers.ChangePassword(pool))
			r.Delete("/user", handlers.DeleteUser(pool, cache))

			// Calculators
			r.Route("/finance", func(r chi.Router) {
				r.Post("/compound-interest", handlers.CompoundInterest())
				r.Post("/loan-payment", handlers.LoanPayment())
				r.Post("/amortization", handlers.Amortization())
				r.Post("/irr", handlers.IRR())
				r.Post("/future-value", handlers.FutureValue())
				r.Post("/present-value", handlers.PresentValue())
				r.Post("/inflation-adjusted", handlers.InflationAdjusted())
				r.Post("/roi", handlers.ROI())
				r.Post("/debt-to-income", handlers.DebtToIncome())
				r.Get("/net-worth", handlers.GetNetWorth(pool, cache))
				r.Get("/dashboard", handlers.GetDashboard(pool, cache))
			})

			// Transactions
			r.Get("/transactions", handlers.GetTransactions(pool))
			r.Post("/transactions", handlers.CreateTransaction(pool, cache))
			r.Put("/transactions/{id}", handlers.UpdateTransaction(pool, cache))
			r.Delete("/transactions/{id}", handlers.DeleteTransaction(pool, cache))

			// Budget
			r.Post("/budget", handlers.CreateBudget(pool))
			r.Get("/budget", handlers.GetAllBudgetsForUser(pool))
			r.Get("/budget/{month}", handlers.GetBudgetByMonth(pool))
			r.Put("/budget/{month}", handlers.UpdateBudget(pool))
			r.Delete("/budget/{month}", handlers.DeleteBudget(pool))

			// Debt
			r.Route("/debt", func(r chi.Router) {
				r.Post("/", handlers.CreateDebt(pool, cache))
				r.Get("/", handlers.GetDebts(pool))
				r.Post("/payoff-plan", handlers.PayoffPlan(pool))
				r.Post("/compare", handlers.ComparePayoff(pool))
				r.Get("/{id}", handlers.GetDebt(pool))
				r.Put("/{id}", handlers.UpdateDebt(pool, cache))
				r.Delete("/{id}", handlers.DeleteDebt(pool, cache))
				r.Post("/{id}/payments", handlers.RecordDebtPayment(pool, cache))
			})

			// Planning
			r.Route("/planning", func(r chi.Router) {
				r.Get("/retirement", handlers.GetRetirementPlan(pool))
				r.Put("/retirement", handlers.SaveRetirementPlan(pool, cache))
				r.Post("/retirement/projection", handlers.RetirementProjection(pool, cache, d.Presets))
				r.Post("/retirement/scenarios", handlers.RetirementScenarios(pool, d.Presets))

				r.Post("/goals", handlers.CreateGoal(pool, cache))
				r.Get("/goals", handlers.GetGoals(pool))
				r.Get("/goals/{id}", handlers.GetGoal(pool))
				r.Put("/goals/{id}", handlers.UpdateGoal(pool, cache))
				r.Delete("/goals/{id}", handlers.DeleteGoal(pool, cache))
				r.Post("/goals/{id}/projection", handlers.GoalProjection(pool))
			})

			// Investments
			r.Route("/investments", func(r chi.Router) {
				r.Post("/", handlers.CreateInvestment(pool, cache))
				r.Get("/", handlers.GetInvestments(pool))
				r.Get("/summary", handlers.GetInvestmentSummary(pool))
				r.Put("/{id}", handlers.UpdateInvestment(pool, cache))
				r.Delete("/{id}", handlers.DeleteInvestment(pool, cache))
			})

			// Banking
			if d.PlaidClient != nil {
				r.Route("/banking", func(r chi.Router) {
					r.Post("/create-link-token", handlers.CreateLinkToken(d.PlaidClient))
					r.Post("/exchange-public-token", handlers.ExchangePublicToken(d.PlaidClient, pool, cache))
					r.Get("/items", handlers.GetPlaidItems(pool))
					r.Get("/accounts", handlers.GetAccounts(pool))
					r.Post("/items/{item_id}/sync", handlers.SyncItem(d.PlaidClient, pool, cache))
				})
			}
		})

		// Super Admin Routes
		r.With(middleware.JWTAuthMiddleware(d.JWTSecret), middleware.SuperAdminMiddleware).Group(func(r chi.Router) {
			r.Post("/admin/cache/clear/{cache_name}", handlers.ClearCache(cache))
		})
	})

	return r
}
