package attendance

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"geoattend-backend/internal/platform/apierr"
)

// SyncEvents replays an offline batch for one employee, in order and one at
// a time, through the same CheckIn and CheckOut as the live API. A failing
// event is reported and the batch continues.
func (s *Service) SyncEvents(ctx context.Context, employeeID string, events []SyncEvent) []SyncResult {
	results := make([]SyncResult, 0, len(events))
	for _, ev := range events {
		results = append(results, s.replay(ctx, employeeID, ev))
	}
	return results
}

func (s *Service) replay(ctx context.Context, employeeID string, ev SyncEvent) SyncResult {
	in := EventRequest{QRToken: ev.QRToken, DeviceTimestamp: ev.DeviceTimestamp, Location: ev.Location}

	var err error
	switch {
	case ev.LocalID == "":
		err = apierr.Invalid("localId is required")
	case ev.DeviceTimestamp.IsZero():
		err = apierr.Invalid("deviceTimestamp is required")
	case ev.Type == EventCheckIn:
		_, err = s.CheckIn(ctx, employeeID, in)
	case ev.Type == EventCheckOut:
		_, err = s.CheckOut(ctx, employeeID, in)
	default:
		err = apierr.Invalid("type must be checkin or checkout")
	}

	return SyncResult{LocalID: ev.LocalID, Status: classify(err), Message: s.syncMessage(employeeID, ev, err)}
}

// classify maps an outcome to synced, conflict (a state machine rejection)
// or error (everything else).
func classify(err error) SyncStatus {
	switch {
	case err == nil:
		return SyncSynced
	case apierr.Is(err, apierr.CodeAlreadyCheckedIn), apierr.Is(err, apierr.CodeNoOpenCheckIn):
		return SyncConflict
	default:
		return SyncError
	}
}

func (s *Service) syncMessage(employeeID string, ev SyncEvent, err error) string {
	if err == nil {
		return "OK"
	}
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	s.logger.Error("sync event failed",
		zap.String("employee_id", employeeID),
		zap.String("local_id", ev.LocalID),
		zap.Error(err),
	)
	return "An unexpected error occurred"
}
