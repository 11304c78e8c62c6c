package ingest

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ymohit1603/StatTrack-Backend-sub000/stattrackd/database"
)

const (
	// InactivityTimeout separates one coding session from the next.
	// A gap of exactly this length stays within the session.
	InactivityTimeout = 15 * time.Minute
	// MinSessionDuration is the floor below which a session is noise
	// (a lone keystroke ping) and is never persisted.
	MinSessionDuration = time.Minute

	// unknownProject buckets heartbeats that carry no project.
	unknownProject = "unknown"
)

// Session is a reconstructed contiguous block of coding activity.
type Session struct {
	UserID          uuid.UUID
	Project         string
	StartTime       time.Time
	EndTime         time.Time
	DurationSeconds int64
	Branch          string
	Languages       []string
}

type sessionKey struct {
	userID  uuid.UUID
	project string
}

// ReconstructSessions groups heartbeats by (user, project), orders
// each group by event time and splits it wherever the gap between
// neighboring heartbeats exceeds InactivityTimeout. Sessions shorter
// than MinSessionDuration are dropped, which always includes
// single-heartbeat groups (duration zero).
//
// The function is pure: it never blocks and touches no storage.
func ReconstructSessions(beats []database.Heartbeat) []Session {
	groups := make(map[sessionKey][]database.Heartbeat)
	for _, beat := range beats {
		key := sessionKey{
			userID:  beat.UserID,
			project: unknownProject,
		}
		if beat.Project.Valid && beat.Project.String != "" {
			key.project = beat.Project.String
		}
		groups[key] = append(groups[key], beat)
	}

	// Deterministic output order regardless of map iteration.
	keys := make([]sessionKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].userID != keys[j].userID {
			return keys[i].userID.String() < keys[j].userID.String()
		}
		return keys[i].project < keys[j].project
	})

	var sessions []Session
	for _, key := range keys {
		group := groups[key]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Time.Before(group[j].Time)
		})

		start := 0
		for i := 1; i < len(group); i++ {
			if group[i].Time.Sub(group[i-1].Time) > InactivityTimeout {
				sessions = appendSession(sessions, key, group[start:i])
				start = i
			}
		}
		sessions = appendSession(sessions, key, group[start:])
	}
	return sessions
}

// appendSession closes the buffer buf as a session and appends it,
// unless it is below the minimum duration.
func appendSession(sessions []Session, key sessionKey, buf []database.Heartbeat) []Session {
	if len(buf) == 0 {
		return sessions
	}

	first, last := buf[0], buf[len(buf)-1]
	duration := int64(math.Ceil(last.Time.Sub(first.Time).Seconds()))
	if time.Duration(duration)*time.Second < MinSessionDuration {
		return sessions
	}

	seen := make(map[string]struct{})
	languages := make([]string, 0)
	for _, beat := range buf {
		if !beat.Language.Valid || beat.Language.String == "" {
			continue
		}
		if _, ok := seen[beat.Language.String]; ok {
			continue
		}
		seen[beat.Language.String] = struct{}{}
		languages = append(languages, beat.Language.String)
	}
	sort.Strings(languages)

	return append(sessions, Session{
		UserID:          key.userID,
		Project:         key.project,
		StartTime:       first.Time,
		EndTime:         last.Time,
		DurationSeconds: duration,
		Branch:          last.Branch.String,
		Languages:       languages,
	})
}
