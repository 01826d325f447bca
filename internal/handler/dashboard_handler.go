package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/moremoney/moremoney-backend/internal/domain"
	"github.com/moremoney/moremoney-backend/internal/middleware"
	"github.com/moremoney/moremoney-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// dashboardErrorMessage is sent next to the zeroed body when the snapshot fails
const dashboardErrorMessage = "Erro ao carregar dashboard"

// DashboardHandler handles dashboard-related HTTP requests
type DashboardHandler struct {
	dashboardService *service.DashboardService
	now              func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		now:              time.Now,
	}
}

// MonthlyPointResponse is one month of the income/expense series
type MonthlyPointResponse struct {
	Month   string `json:"mes"`
	Income  string `json:"receita"`
	Expense string `json:"despesa"`
}

// CategoryTotalResponse is one category rollup row
type CategoryTotalResponse struct {
	Category string `json:"categoria"`
	Count    int64  `json:"quantidade"`
	Total    string `json:"total"`
}

// RecentTransactionResponse is one entry of the recent-activity feed
type RecentTransactionResponse struct {
	ID          int32  `json:"id"`
	Description string `json:"descricao"`
	Kind        string `json:"tipo"`
	Amount      string `json:"valor"`
	Date        string `json:"data"`
	CreatedAt   string `json:"criadoEm"`
}

// PeriodResponse echoes the resolved [inicio, fim) bounds; null means open
type PeriodResponse struct {
	Start *string `json:"inicio"`
	End   *string `json:"fim"`
}

// DashboardResponse represents the dashboard API response
type DashboardResponse struct {
	Balance            string                      `json:"saldo"`
	TotalIncome        string                      `json:"totalReceitas"`
	TotalExpense       string                      `json:"totalDespesas"`
	MonthlySeries      []MonthlyPointResponse      `json:"evolucaoMensal"`
	ExpenseByCategory  []CategoryTotalResponse     `json:"despesasPorCategoria"`
	IncomeByCategory   []CategoryTotalResponse     `json:"receitasPorCategoria"`
	RecentTransactions []RecentTransactionResponse `json:"ultimosLancamentos"`
	Period             PeriodResponse              `json:"periodo"`
	Error              string                      `json:"error,omitempty"`
}

// periodToken builds the Period Resolver token from the query string.
// ?mes=YYYY-MM wins over ?inicio=YYYY-MM-DD&fim=YYYY-MM-DD; neither means nil.
func periodToken(c echo.Context) *string {
	params := c.QueryParams()
	if _, ok := params["mes"]; ok {
		token := params.Get("mes")
		return &token
	}
	_, hasStart := params["inicio"]
	_, hasEnd := params["fim"]
	if hasStart || hasEnd {
		token := params.Get("inicio") + domain.RangeSeparator + params.Get("fim")
		return &token
	}
	return nil
}

// ResolveRequestPeriod resolves the period selected by the query string.
// A malformed selector is logged and yields the unbounded period.
func ResolveRequestPeriod(c echo.Context, today time.Time) domain.Period {
	token := periodToken(c)
	period, ok := domain.ResolvePeriod(token, today)
	if !ok {
		log.Debug().Str("token", *token).Msg("Malformed period selector, using unbounded period")
	}
	return period
}

// GetDashboard godoc
// @Summary Dashboard snapshot
// @Description Totals, monthly series, category rollups and recent activity for the caller
// @Tags dashboard
// @Produce json
// @Security BearerAuth
// @Param mes query string false "Month selector YYYY-MM; absent means current year, malformed means all time"
// @Param inicio query string false "Custom range start YYYY-MM-DD (inclusive)"
// @Param fim query string false "Custom range end YYYY-MM-DD (inclusive)"
// @Success 200 {object} DashboardResponse
// @Failure 401 {object} ProblemDetails
// @Failure 500 {object} DashboardResponse
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return NewUnauthorizedError(c, "Authentication required")
	}

	period := ResolveRequestPeriod(c, h.now())

	snapshot, err := h.dashboardService.GetSnapshot(c.Request().Context(), userID, period)
	if err != nil {
		empty := domain.EmptySnapshot()
		empty.Period = period
		response := toDashboardResponse(empty)
		response.Error = dashboardErrorMessage
		return c.JSON(http.StatusInternalServerError, response)
	}

	return c.JSON(http.StatusOK, toDashboardResponse(snapshot))
}

func toDashboardResponse(s *domain.DashboardSnapshot) DashboardResponse {
	series := make([]MonthlyPointResponse, 0, len(s.MonthlySeries))
	for _, p := range s.MonthlySeries {
		series = append(series, MonthlyPointResponse{
			Month:   p.Month,
			Income:  p.Income.StringFixed(2),
			Expense: p.Expense.StringFixed(2),
		})
	}

	recent := make([]RecentTransactionResponse, 0, len(s.RecentTransactions))
	for _, t := range s.RecentTransactions {
		recent = append(recent, RecentTransactionResponse{
			ID:          t.ID,
			Description: t.Description,
			Kind:        string(t.Kind),
			Amount:      t.Amount.StringFixed(2),
			Date:        t.Date.Format(domain.DateLayout),
			CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		})
	}

	return DashboardResponse{
		Balance:            s.Balance.StringFixed(2),
		TotalIncome:        s.TotalIncome.StringFixed(2),
		TotalExpense:       s.TotalExpense.StringFixed(2),
		MonthlySeries:      series,
		ExpenseByCategory:  toCategoryTotalResponses(s.ExpenseByCategory),
		IncomeByCategory:   toCategoryTotalResponses(s.IncomeByCategory),
		RecentTransactions: recent,
		Period:             toPeriodResponse(s.Period),
	}
}

func toCategoryTotalResponses(totals []domain.CategoryTotal) []CategoryTotalResponse {
	out := make([]CategoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, CategoryTotalResponse{
			Category: t.Category,
			Count:    t.Count,
			Total:    t.Total.StringFixed(2),
		})
	}
	return out
}

func toPeriodResponse(p domain.Period) PeriodResponse {
	var r PeriodResponse
	if p.Start != nil {
		s := p.Start.Format(domain.DateLayout)
		r.Start = &s
	}
	if p.End != nil {
		e := p.End.Format(domain.DateLayout)
		r.End = &e
	}
	return r
}
