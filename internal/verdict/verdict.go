// Package verdict turns captured command output and an exit status into
// a pass/fail verdict with a short operator-facing summary.
package verdict

import (
	"fmt"
	"regexp"
	"strconv"
)

// Verdict is the outcome of one command run. The zero value is Unknown,
// used only before any run has been classified.
type Verdict int

const (
	Unknown Verdict = iota
	Pass
	Fail
)

func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText lets verdicts serialize as their lowercase names.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText accepts the names MarshalText produces; anything else
// is Unknown.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass":
		*v = Pass
	case "fail":
		*v = Fail
	default:
		*v = Unknown
	}
	return nil
}

// Result is a classified run.
type Result struct {
	Verdict Verdict
	Summary string
}

var testSummaryRe = regexp.MustCompile(`(\d+) tests, (\d+) assertions, (\d+) failures(?:, (\d+) errors)?`)
var specSummaryRe = regexp.MustCompile(`(\d+) examples, (\d+) failures(?:, (\d+) not implemented)?`)

// Classify applies the policy in priority order: a unit-test summary
// line wins, then a spec-style summary line, then a non-zero exit
// status, and a quiet zero-status run passes with the full output as
// its summary. Missing optional count groups are zero.
func Classify(output string, exitStatus int) Result {
	if match := testSummaryRe.FindStringSubmatch(output); match != nil {
		failures := parseCount(match[3])
		errors := parseCount(match[4])
		return Result{
			Verdict: verdictFor(failures+errors > 0),
			Summary: match[0],
		}
	}
	if match := specSummaryRe.FindStringSubmatch(output); match != nil {
		failures := parseCount(match[2])
		return Result{
			Verdict: verdictFor(failures > 0),
			Summary: match[0],
		}
	}
	if exitStatus != 0 {
		return Result{
			Verdict: Fail,
			Summary: fmt.Sprintf("Error code %d. See the log for details.", exitStatus),
		}
	}
	return Result{Verdict: Pass, Summary: output}
}

func verdictFor(failed bool) Verdict {
	if failed {
		return Fail
	}
	return Pass
}

func parseCount(group string) int {
	if group == "" {
		return 0
	}
	count, err := strconv.Atoi(group)
	if err != nil {
		return 0
	}
	return count
}
