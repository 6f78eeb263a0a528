package tasks

import (
	"encoding/json"
	"fmt"
)

// envelope tags the serialized payload with its kind so the concrete type can
// be restored. Used by session stores that persist tasks out of process.
type envelope struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func MarshalTask(t Task) ([]byte, error) {
	payload, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s task: %w", t.Kind(), err)
	}
	return json.Marshal(envelope{Kind: t.Kind(), Payload: payload})
}

func UnmarshalTask(data []byte) (Task, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task envelope: %w", err)
	}

	switch env.Kind {
	case KindReceiving:
		return decodeAs[ReceivingTask](env.Payload)
	case KindPutaway:
		return decodeAs[PutawayTask](env.Payload)
	case KindPicking:
		return decodeAs[PickingTask](env.Payload)
	case KindTransfer:
		return decodeAs[TransferTask](env.Payload)
	case KindCycleCount:
		return decodeAs[CycleCountTask](env.Payload)
	case KindAdjustment:
		return decodeAs[AdjustmentTask](env.Payload)
	case KindQualityInspection:
		return decodeAs[QualityInspectionTask](env.Payload)
	case KindReplenishment:
		return decodeAs[ReplenishmentTask](env.Payload)
	}
	return nil, fmt.Errorf("unknown task kind %q", env.Kind)
}

func decodeAs[T Task](payload json.RawMessage) (Task, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}
	return t, nil
}
