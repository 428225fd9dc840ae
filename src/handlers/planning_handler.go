package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	appdb "fintrack-server/src/db"
	db "fintrack-server/src/db/sql"
	"fintrack-server/src/models"
	"fintrack-server/src/projection"
	"fintrack-server/src/util"
)

func GetRetirementPlan(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		plan, err := db.GetRetirementPlan(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get retirement plan for user %d: %v", userID, err)
			writeError(w, err, "failed to get retirement plan")
			return
		}
		writeJSON(w, http.StatusOK, plan)
	}
}

// SaveRetirementPlan validates and stores the plan. Life events without an id
// get one.
func SaveRetirementPlan(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var plan models.RetirementPlan
		if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
			log.Printf("ERROR: Failed to decode retirement plan for user %d: %v", userID, err)
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		plan.UserID = userID
		for i := range plan.LifeEvents {
			if plan.LifeEvents[i].ID == "" {
				plan.LifeEvents[i].ID = uuid.NewString()
			}
		}
		if err := projection.Validate(plan); err != nil {
			writeError(w, err, "invalid retirement plan")
			return
		}

		saved, err := db.SaveRetirementPlan(r.Context(), pool, &plan)
		if err != nil {
			log.Printf("ERROR: Failed to save retirement plan for user %d: %v", userID, err)
			http.Error(w, "failed to save retirement plan", http.StatusInternalServerError)
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Saved retirement plan id %d for user %d", saved.ID, userID)
		writeJSON(w, http.StatusOK, saved)
	}
}

// planFromRequest decodes a plan from the body, or loads the stored plan when
// the body is empty. The second result reports whether the stored plan was
// used.
func planFromRequest(r *http.Request, pool *pgxpool.Pool) (*models.RetirementPlan, bool, error) {
	var plan models.RetirementPlan
	err := json.NewDecoder(r.Body).Decode(&plan)
	if err == nil {
		return &plan, false, nil
	}
	if !errors.Is(err, io.EOF) {
		return nil, false, errBadBody
	}
	stored, err := db.GetRetirementPlan(r.Context(), pool, currentUserID(r))
	return stored, true, err
}

var errBadBody = errors.New("invalid request")

func RetirementProjection(pool *pgxpool.Pool, cache *appdb.Cache, presets projection.Presets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		scenario, err := projection.ParseScenario(r.URL.Query().Get("scenario"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		plan, stored, err := planFromRequest(r, pool)
		if errors.Is(err, errBadBody) {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Printf("ERROR: Failed to load retirement plan for user %d: %v", userID, err)
			writeError(w, err, "failed to load retirement plan")
			return
		}

		cacheKey := appdb.Key(appdb.ProjectionCache, userID, string(scenario))
		if stored {
			if cached, found := cache.Get(cacheKey); found {
				writeJSON(w, http.StatusOK, cached)
				return
			}
		}

		proj, err := presets.Run(*plan, scenario)
		if err != nil {
			log.Printf("ERROR: Retirement projection failed for user %d (%s): %v", userID, scenario, err)
			writeError(w, err, "failed to project retirement")
			return
		}
		if stored {
			cache.Set(appdb.ProjectionCache, userID, cacheKey, proj)
		}
		writeJSON(w, http.StatusOK, proj)
	}
}

func RetirementScenarios(pool *pgxpool.Pool, presets projection.Presets) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		plan, _, err := planFromRequest(r, pool)
		if errors.Is(err, errBadBody) {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if err != nil {
			log.Printf("ERROR: Failed to load retirement plan for user %d: %v", userID, err)
			writeError(w, err, "failed to load retirement plan")
			return
		}

		projections, err := presets.RunAll(*plan)
		if err != nil {
			log.Printf("ERROR: Retirement scenarios failed for user %d: %v", userID, err)
			writeError(w, err, "failed to project retirement")
			return
		}
		writeJSON(w, http.StatusOK, projections)
	}
}

type goalRequest struct {
	Title         string          `json:"title"`
	TargetAmount  decimal.Decimal `json:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	TargetDate    string          `json:"target_date"`
	Category      string          `json:"category"`
	Priority      int             `json:"priority"`
}

func (req goalRequest) toModel(userID int64) (*models.Goal, string) {
	date, ok := util.ValidateDate(req.TargetDate)
	switch {
	case req.Title == "":
		return nil, "title is required"
	case !req.TargetAmount.IsPositive():
		return nil, "target_amount must be positive"
	case req.CurrentAmount.IsNegative():
		return nil, "current_amount must not be negative"
	case !ok:
		return nil, "target_date must be YYYY-MM-DD"
	}
	return &models.Goal{
		UserID:        userID,
		Title:         req.Title,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    date,
		Category:      req.Category,
		Priority:      req.Priority,
	}, ""
}

func CreateGoal(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		goal, msg := req.toModel(userID)
		if goal == nil {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		created, err := db.CreateGoal(r.Context(), pool, goal)
		if err != nil {
			log.Printf("ERROR: Failed to create goal for user %d: %v", userID, err)
			writeError(w, err, "failed to create goal")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Created goal id %d for user %d", created.ID, userID)
		writeJSON(w, http.StatusCreated, created)
	}
}

func GetGoals(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		goals, err := db.GetGoalsForUser(r.Context(), pool, userID)
		if err != nil {
			log.Printf("ERROR: Failed to get goals for user %d: %v", userID, err)
			http.Error(w, "failed to get goals", http.StatusInternalServerError)
			return
		}
		if goals == nil {
			goals = []models.Goal{}
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func GetGoal(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		goal, err := db.GetGoalByID(r.Context(), pool, userID, id)
		if err != nil {
			log.Printf("ERROR: Goal id %d not found for user %d: %v", id, userID, err)
			writeError(w, err, "failed to get goal")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"goal":     goal,
			"progress": goal.Progress(),
		})
	}
}

func UpdateGoal(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		goal, msg := req.toModel(userID)
		if goal == nil {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		goal.ID = id
		updated, err := db.UpdateGoal(r.Context(), pool, goal)
		if err != nil {
			log.Printf("ERROR: Failed to update goal id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to update goal")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Updated goal id %d for user %d", id, userID)
		writeJSON(w, http.StatusOK, updated)
	}
}

func DeleteGoal(pool *pgxpool.Pool, cache *appdb.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		if err := db.DeleteGoal(r.Context(), pool, userID, id); err != nil {
			log.Printf("ERROR: Failed to delete goal id %d for user %d: %v", id, userID, err)
			writeError(w, err, "failed to delete goal")
			return
		}
		cache.InvalidateUser(userID)
		log.Printf("INFO: Deleted goal id %d for user %d", id, userID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "goal deleted"})
	}
}

func GoalProjection(pool *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := currentUserID(r)
		id, err := idParam(r, "id")
		if err != nil {
			http.Error(w, "invalid goal id", http.StatusBadRequest)
			return
		}
		var req struct {
			MonthlyContribution decimal.Decimal `json:"monthly_contribution"`
			AnnualReturn        float64         `json:"annual_return"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request", http.StatusBadRequest)
			return
		}
		if req.MonthlyContribution.IsNegative() {
			http.Error(w, "monthly_contribution must not be negative", http.StatusBadRequest)
			return
		}

		goal, err := db.GetGoalByID(r.Context(), pool, userID, id)
		if err != nil {
			log.Printf("ERROR: Goal id %d not found for user %d: %v", id, userID, err)
			writeError(w, err, "failed to get goal")
			return
		}
		proj, err := projection.ProjectGoal(*goal, req.MonthlyContribution, req.AnnualReturn, time.Now())
		if err != nil {
			log.Printf("ERROR: Goal projection failed for goal %d, user %d: %v", id, userID, err)
			writeError(w, err, "failed to project goal")
			return
		}
		writeJSON(w, http.StatusOK, proj)
	}
}
