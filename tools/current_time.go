package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

type CurrentTimeInput struct {
	Timezone string `json:"timezone,omitempty" jsonschema_description:"IANA time zone name such as Europe/Berlin (default local time)."`
}

type CurrentTime struct {
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	Unix     int64  `json:"unix"`
}

// CurrentTimeTool reports the wall clock; now is injectable for tests.
func CurrentTimeTool(now func() time.Time) ToolDefinition {
	if now == nil {
		now = time.Now
	}
	return ToolDefinition{
		Name:        "current_time",
		Description: "Get the current date and time, optionally in a given time zone.",
		InputSchema: GenerateSchema[CurrentTimeInput](),
		Mode:        NonBlocking,
		Result:      StructuredResult,
		Function: func(_ context.Context, input json.RawMessage) (any, error) {
			in, err := decode[CurrentTimeInput](input)
			if err != nil {
				return nil, err
			}
			loc := time.Local
			if in.Timezone != "" {
				if loc, err = time.LoadLocation(in.Timezone); err != nil {
					return nil, fmt.Errorf("unknown timezone %q", in.Timezone)
				}
			}
			t := now().In(loc)
			return CurrentTime{Time: t.Format(time.RFC3339), Timezone: loc.String(), Unix: t.Unix()}, nil
		},
	}
}
