package stattrackd

import (
	"net/http"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpapi"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpmw"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
)

// dailySummaries is the read surface consumed by dashboards. Rows are
// append-only and totals only ever increase, so consumers may cache
// aggressively.
func (api *API) dailySummaries(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := httpmw.UserID(r)

	summaries, err := api.Database.GetDailySummariesByUserID(ctx, userID)
	if err != nil {
		httpapi.InternalServerError(ctx, rw, err)
		return
	}

	resp := make([]stattracksdk.DailySummary, 0, len(summaries))
	for _, summary := range summaries {
		resp = append(resp, stattracksdk.DailySummary{
			UserID:               summary.UserID,
			SummaryDate:          summary.SummaryDate,
			TotalDurationSeconds: summary.TotalDurationSeconds,
			UpdatedAt:            summary.UpdatedAt,
		})
	}
	httpapi.Write(ctx, rw, http.StatusOK, resp)
}
