// Package fields enumerates the semantic field names the SCA decoder knows
// about and maps each to a relative JSON pointer path. It is the single
// source of truth for field→path mapping: no other package in this module
// literalizes a path string.
package fields

import "fmt"

// Field is a closed enumeration of semantic names carried by SCA events.
type Field int

const (
	// ID is the agent-scoped numeric identifier carried on check events.
	ID Field = iota
	ScanID
	Policy
	PolicyID
	Hash
	HashFile
	Check
	CheckID
	CheckTitle
	CheckResult
	CheckStatus
	CheckReason
	CheckPreviousResult
	CheckCompliance
	CheckRules
	CheckFile
	CheckDirectory
	CheckRegistry
	CheckProcess
	CheckCommand
	Passed
	Failed
	Invalid
	TotalChecks
	Score
	StartTime
	EndTime
	Name
	File
	References
	Description
	FirstScan
	ForceAlert
	Policies
	ElementsSent
	Type
	Root

	// aBegin and aEnd bound the closed set for iteration; they are not
	// themselves valid fields.
	aBegin = ID
	aEnd   = Root + 1
)

// relativePaths holds, for each Field, the JSON pointer path relative to
// whatever prefix the caller roots it at (the source prefix for source-side
// lookups, "/sca" for destination-side lookups).
var relativePaths = [...]string{
	ID:                  "/id",
	ScanID:               "/scan_id",
	Policy:               "/policy",
	PolicyID:             "/policy_id",
	Hash:                 "/hash",
	HashFile:             "/hash_file",
	Check:                "/check",
	CheckID:              "/check/id",
	CheckTitle:           "/check/title",
	CheckResult:          "/check/result",
	CheckStatus:          "/check/status",
	CheckReason:          "/check/reason",
	CheckPreviousResult:  "/check/previous_result",
	CheckCompliance:      "/check/compliance",
	CheckRules:           "/check/rules",
	CheckFile:            "/check/file",
	CheckDirectory:       "/check/directory",
	CheckRegistry:        "/check/registry",
	CheckProcess:         "/check/process",
	CheckCommand:         "/check/command",
	Passed:               "/passed",
	Failed:               "/failed",
	Invalid:              "/invalid",
	TotalChecks:          "/total_checks",
	Score:                "/score",
	StartTime:            "/start_time",
	EndTime:              "/end_time",
	Name:                 "/name",
	File:                 "/file",
	References:           "/references",
	Description:          "/description",
	FirstScan:            "/first_scan",
	ForceAlert:           "/force_alert",
	Policies:             "/policies",
	ElementsSent:         "/elements_sent",
	Type:                 "/type",
	Root:                 "",
}

// names backs Field.String; kept separate from relativePaths because several
// fields share the same JSON leaf shape but need distinct log-friendly names.
var names = [...]string{
	ID:                  "ID",
	ScanID:               "SCAN_ID",
	Policy:               "POLICY",
	PolicyID:             "POLICY_ID",
	Hash:                 "HASH",
	HashFile:             "HASH_FILE",
	Check:                "CHECK",
	CheckID:              "CHECK_ID",
	CheckTitle:           "CHECK_TITLE",
	CheckResult:          "CHECK_RESULT",
	CheckStatus:          "CHECK_STATUS",
	CheckReason:          "CHECK_REASON",
	CheckPreviousResult:  "CHECK_PREVIOUS_RESULT",
	CheckCompliance:      "CHECK_COMPLIANCE",
	CheckRules:           "CHECK_RULES",
	CheckFile:            "CHECK_FILE",
	CheckDirectory:       "CHECK_DIRECTORY",
	CheckRegistry:        "CHECK_REGISTRY",
	CheckProcess:         "CHECK_PROCESS",
	CheckCommand:         "CHECK_COMMAND",
	Passed:               "PASSED",
	Failed:               "FAILED",
	Invalid:              "INVALID",
	TotalChecks:          "TOTAL_CHECKS",
	Score:                "SCORE",
	StartTime:            "START_TIME",
	EndTime:              "END_TIME",
	Name:                 "NAME",
	File:                 "FILE",
	References:           "REFERENCES",
	Description:          "DESCRIPTION",
	FirstScan:            "FIRST_SCAN",
	ForceAlert:           "FORCE_ALERT",
	Policies:             "POLICIES",
	ElementsSent:         "ELEMENTS_SENT",
	Type:                 "TYPE",
	Root:                 "ROOT",
}

// ErrUnknownField is returned by RelativePath when called with a Field value
// outside the closed enumeration.
var ErrUnknownField = fmt.Errorf("fields: unknown field")

// RelativePath returns the JSON pointer path for f, relative to whatever
// prefix the caller roots it at. It returns ErrUnknownField if f was
// constructed outside the closed set (e.g. via an out-of-range int
// conversion).
func RelativePath(f Field) (string, error) {
	if f < aBegin || f >= aEnd {
		return "", fmt.Errorf("%w: %d", ErrUnknownField, int(f))
	}
	return relativePaths[f], nil
}

// String returns the canonical name of f, or "UNKNOWN" if f is out of range.
func (f Field) String() string {
	if f < aBegin || f >= aEnd {
		return "UNKNOWN"
	}
	return names[f]
}

// Begin is the first Field in iteration order.
func Begin() Field { return aBegin }

// End is one past the last Field in iteration order; callers should iterate
// `for f := fields.Begin(); f < fields.End(); f++`.
func End() Field { return aEnd }

// All returns every Field in the closed enumeration, in stable order.
func All() []Field {
	out := make([]Field, 0, int(aEnd-aBegin))
	for f := aBegin; f < aEnd; f++ {
		out = append(out, f)
	}
	return out
}

// PathTable maps every Field to an absolute JSON pointer rooted at prefix.
// Each decoder dispatch builds a source-side PathTable (rooted at the
// caller-supplied event prefix) and a destination-side one (always rooted at
// "/sca") together, per the DecodeContext invariant.
type PathTable map[Field]string

// NewPathTable builds a PathTable by prefixing every field's relative path
// with root. root should not have a trailing slash; pass "" for the
// document root.
func NewPathTable(root string) PathTable {
	t := make(PathTable, int(aEnd-aBegin))
	for _, f := range All() {
		rel, _ := RelativePath(f) // f always in range here
		t[f] = root + rel
	}
	return t
}

// Path returns the absolute pointer for f, or "" with ok=false if f is not
// in the table (only possible for a Field outside the closed enumeration).
func (t PathTable) Path(f Field) (string, bool) {
	p, ok := t[f]
	return p, ok
}
