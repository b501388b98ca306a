package kafka

import (
	"time"

	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"max.ks1230/expense-tracker/internal/entity/event"
)

var ErrMalformedEvent = errors.New("malformed week closed event")

func encodeWeekClosed(e event.WeekClosed) ([]byte, error) {
	totals := make(map[string]interface{}, len(e.Totals))
	for c, v := range e.Totals {
		totals[c] = v
	}
	st, err := structpb.NewStruct(map[string]interface{}{
		"username":    e.Username,
		"closed_week": e.ClosedWeek,
		"opened_week": e.OpenedWeek,
		"totals":      totals,
		"closed_at":   e.ClosedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, errors.Wrap(err, "build week closed payload")
	}
	return proto.Marshal(st)
}

func decodeWeekClosed(data []byte) (event.WeekClosed, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(data, &st); err != nil {
		return event.WeekClosed{}, errors.Wrap(err, "unmarshal week closed")
	}
	fields := st.GetFields()

	username := fields["username"].GetStringValue()
	if username == "" {
		return event.WeekClosed{}, errors.Wrap(ErrMalformedEvent, "no username")
	}
	e := event.WeekClosed{
		Username:   username,
		ClosedWeek: int(fields["closed_week"].GetNumberValue()),
		OpenedWeek: int(fields["opened_week"].GetNumberValue()),
		Totals:     make(map[string]float64),
	}
	for c, v := range fields["totals"].GetStructValue().GetFields() {
		e.Totals[c] = v.GetNumberValue()
	}
	if raw := fields["closed_at"].GetStringValue(); raw != "" {
		closedAt, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return event.WeekClosed{}, errors.Wrap(ErrMalformedEvent, err.Error())
		}
		e.ClosedAt = closedAt
	}
	return e, nil
}
