package timelinestore

import (
	"encoding/json"
	"time"

	"fulfillment/internal/core/domain/model/kernel"
	"fulfillment/internal/core/domain/model/timeline"
)

// eventRecord is the JSON form of a stage event stored as one list element. Every
// element carries the dispatch that opened the list.
type eventRecord struct {
	Dispatch string         `json:"dispatch"`
	Stage    timeline.Stage `json:"stage"`
	Message  string         `json:"message"`
	Time     time.Time      `json:"time"`
}

func fromDomain(dispatchID kernel.UUID, event timeline.StageEvent) ([]byte, error) {
	return json.Marshal(eventRecord{
		Dispatch: dispatchID.String(),
		Stage:    event.Stage(),
		Message:  event.Message(),
		Time:     event.Timestamp(),
	})
}

func decodeRecord(raw string) (eventRecord, error) {
	var rec eventRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return eventRecord{}, err
	}
	return rec, nil
}

func (r eventRecord) toDomain() (timeline.StageEvent, error) {
	return timeline.NewStageEvent(r.Stage, r.Message, r.Time)
}

func (r eventRecord) dispatchID() (kernel.UUID, error) {
	return kernel.UUIDFromString(r.Dispatch)
}
