package stattrackd

import (
	"math"
	"net/http"
	"time"

	"golang.org/x/xerrors"

	"cdr.dev/slog/v3"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpapi"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/httpmw"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/ingest"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/sessionkey"
	"github.com/ymohit1603/StatTrack-Backend-sub000/stattracksdk"
)

func (api *API) postHeartbeats(rw http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req []stattracksdk.Heartbeat
	if !httpapi.Read(ctx, rw, r, &req) {
		return
	}
	if len(req) == 0 {
		httpapi.Write(ctx, rw, http.StatusBadRequest, stattracksdk.Response{
			Message: "Heartbeat batch must not be empty.",
		})
		return
	}

	credential := httpmw.SessionTokenFromRequest(r)
	if credential == "" {
		httpapi.Write(ctx, rw, http.StatusUnauthorized, stattracksdk.Response{
			Message: httpmw.SignedOutErrorMessage,
			Detail:  "No session credential was provided.",
		})
		return
	}

	count, err := api.ingestor.Ingest(ctx, credential, convertHeartbeats(req))
	switch {
	case err == nil:
		httpapi.Write(ctx, rw, http.StatusAccepted, stattracksdk.HeartbeatsResponse{
			Count: count,
		})
	case xerrors.Is(err, ingest.ErrEmptyBatch):
		httpapi.Write(ctx, rw, http.StatusBadRequest, stattracksdk.Response{
			Message: "Heartbeat batch must not be empty.",
		})
	case xerrors.Is(err, sessionkey.ErrInvalidCredential), xerrors.Is(err, sessionkey.ErrExpiredCredential):
		httpapi.Write(ctx, rw, http.StatusUnauthorized, stattracksdk.Response{
			Message: httpmw.SignedOutErrorMessage,
			Detail:  err.Error(),
		})
	default:
		// Covers verifier unavailability and storage failures. Chunks
		// committed before the failure stay committed; the client may
		// retry the batch and dedup will drop what already landed.
		api.Logger.Error(ctx, "ingest heartbeats",
			slog.F("accepted", count),
			slog.Error(err),
		)
		httpapi.InternalServerError(ctx, rw, err)
	}
}

func convertHeartbeats(req []stattracksdk.Heartbeat) []ingest.Heartbeat {
	beats := make([]ingest.Heartbeat, 0, len(req))
	for _, beat := range req {
		sec, frac := math.Modf(beat.Time)
		beats = append(beats, ingest.Heartbeat{
			Entity:        beat.Entity,
			Type:          beat.Type,
			Category:      beat.Category,
			Project:       beat.Project,
			Language:      beat.Language,
			Branch:        beat.Branch,
			Dependencies:  beat.Dependencies,
			MachineName:   beat.MachineName,
			IsWrite:       beat.IsWrite,
			Lines:         optionalCounter(beat.Lines),
			LineAdditions: optionalCounter(beat.LineAdditions),
			LineDeletions: optionalCounter(beat.LineDeletions),
			Time:          time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(),
		})
	}
	return beats
}

func optionalCounter(v *int64) int64 {
	if v == nil {
		return -1
	}
	return *v
}
