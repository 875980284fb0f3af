// Package builtin provides the tools splice ships with. They are small on
// purpose: enough to exercise the full tool-call round trip against real
// providers and the mock server.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/papercomputeco/splice/pkg/tool"
)

const (
	clockName        = "clock"
	clockDescription = "Get the current date and time, optionally in a named IANA time zone."

	clockSchema = `{
  "type": "object",
  "properties": {
    "timezone": {
      "type": "string",
      "description": "IANA time zone name, e.g. \"America/New_York\". Defaults to UTC."
    }
  }
}`
)

// ClockInput represents the input arguments for the clock tool.
type ClockInput struct {
	Timezone string `json:"timezone,omitempty"`
}

// ClockOutput represents the output of the clock tool.
type ClockOutput struct {
	Time     string `json:"time"`
	Unix     int64  `json:"unix"`
	Timezone string `json:"timezone"`
}

// NewClock creates the clock tool. The now function is injectable so tests
// can pin the reported time; pass nil for time.Now.
func NewClock(now func() time.Time) tool.Handler {
	if now == nil {
		now = time.Now
	}

	return tool.NewFunc(clockName, clockDescription, json.RawMessage(clockSchema),
		func(_ context.Context, in ClockInput) (ClockOutput, error) {
			loc := time.UTC
			if in.Timezone != "" {
				var err error
				loc, err = time.LoadLocation(in.Timezone)
				if err != nil {
					return ClockOutput{}, fmt.Errorf("unknown timezone %q", in.Timezone)
				}
			}

			t := now().In(loc)
			return ClockOutput{
				Time:     t.Format(time.RFC3339),
				Unix:     t.Unix(),
				Timezone: loc.String(),
			}, nil
		})
}
