/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the ledger's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

UNITS:
  Amounts are integer millilitres. *_liters fields are decimal strings
  derived from them for display.

VALIDATION:
  Validation is done by the ledger, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/warp/hydration-engine/generic"
	"github.com/warp/hydration-engine/hydration"
)

// =============================================================================
// REQUESTS
// =============================================================================

type RegisterRequest struct {
	DailyGoal int64 `json:"daily_goal"`
}

type LogIntakeRequest struct {
	Amount int64 `json:"amount"`
}

type UpdateGoalRequest struct {
	DailyGoal int64 `json:"daily_goal"`
}

// =============================================================================
// RESPONSES
// =============================================================================

type StatsDTO struct {
	Account        string `json:"account"`
	DailyGoal      int64  `json:"daily_goal"`
	TodayIntake    int64  `json:"today_intake"`
	TodayLiters    string `json:"today_liters"`
	TotalIntake    int64  `json:"total_intake"`
	TotalLiters    string `json:"total_liters"`
	StreakDays     int    `json:"streak_days"`
	ProgressPct    int    `json:"progress_pct"`
	LastUpdateDate string `json:"last_update_date"`
	Stale          bool   `json:"stale"`
}

type DayIntakeDTO struct {
	Day    string `json:"day"`
	Amount int64  `json:"amount"`
}

type HistoryDTO struct {
	Days []DayIntakeDTO `json:"days"`
}

type GlobalStatsDTO struct {
	TotalUsers       int64  `json:"total_users"`
	TotalWaterLogged int64  `json:"total_water_logged"`
	TotalLiters      string `json:"total_liters"`
}

type HealthDTO struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toStatsDTO(s hydration.UserStats) StatsDTO {
	return StatsDTO{
		Account:        string(s.Account),
		DailyGoal:      int64(s.DailyGoal),
		TodayIntake:    int64(s.TodayIntake),
		TodayLiters:    s.TodayIntake.Liters().String(),
		TotalIntake:    int64(s.TotalIntake),
		TotalLiters:    s.TotalIntake.Liters().String(),
		StreakDays:     s.StreakDays,
		ProgressPct:    s.ProgressPct,
		LastUpdateDate: s.LastUpdateDate.String(),
		Stale:          s.Stale,
	}
}

func toHistoryDTO(days []generic.DayKey, amounts []generic.Milliliters) HistoryDTO {
	out := HistoryDTO{Days: make([]DayIntakeDTO, len(days))}
	for i, d := range days {
		out.Days[i] = DayIntakeDTO{Day: d.String(), Amount: int64(amounts[i])}
	}
	return out
}

func toRecentDTO(recent []hydration.DayIntake) HistoryDTO {
	out := HistoryDTO{Days: make([]DayIntakeDTO, len(recent))}
	for i, r := range recent {
		out.Days[i] = DayIntakeDTO{Day: r.Day.String(), Amount: int64(r.Amount)}
	}
	return out
}

func toGlobalStatsDTO(s generic.GlobalStats) GlobalStatsDTO {
	return GlobalStatsDTO{
		TotalUsers:       s.TotalUsers,
		TotalWaterLogged: int64(s.TotalWaterLogged),
		TotalLiters:      s.TotalWaterLogged.Liters().String(),
	}
}
