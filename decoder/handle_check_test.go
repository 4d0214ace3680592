package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazuh-io/scadecode/eventview"
)

const checkTargetField = "/sca_processed"

func newCheckDoc(extra string) *eventview.Document {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"policy_id": "PID",
			"check": {"id": 42, "title": "t", "result": "passed"` + extra + `}
		}
	}`
	return eventview.Parse([]byte(body))
}

// S1 — new check, never seen.
func TestHandleCheck_S1_NewCheck(t *testing.T) {
	store, conn := newStore("ok not found", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := newCheckDoc("")
	err := d.Decode(doc)
	require.NoError(t, err)

	require.Len(t, conn.sent, 2)
	assert.Equal(t, "agent 001 sca query 42", conn.sent[0])
	assert.Contains(t, conn.sent[1], "agent 001 sca insert ")
	assert.Contains(t, conn.sent[1], `"result":"passed"`)

	typ, ok := doc.GetString("/sca/type")
	require.True(t, ok)
	assert.Equal(t, "check", typ)

	result, ok := doc.GetString("/sca/check/result")
	require.True(t, ok)
	assert.Equal(t, "passed", result)

	assert.False(t, doc.Exists("/sca/check/previous_result"))

	ok2, got := doc.GetBool(checkTargetField)
	require.True(t, got)
	assert.True(t, ok2)
}

// S2 — existing check, result changed.
func TestHandleCheck_S2_ResultChanged(t *testing.T) {
	store, conn := newStore("ok found failed", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := newCheckDoc("")
	require.NoError(t, d.Decode(doc))

	require.Len(t, conn.sent, 2)
	assert.Equal(t, "agent 001 sca update 42|passed|||1", conn.sent[1])

	typ, _ := doc.GetString("/sca/type")
	assert.Equal(t, "check", typ)
	prev, ok := doc.GetString("/sca/check/previous_result")
	require.True(t, ok)
	assert.Equal(t, "failed", prev)
	result, _ := doc.GetString("/sca/check/result")
	assert.Equal(t, "passed", result)
}

// S3 — existing check, result unchanged: update issued, no normalization.
func TestHandleCheck_S3_ResultUnchanged(t *testing.T) {
	store, conn := newStore("ok found passed", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := newCheckDoc("")
	require.NoError(t, d.Decode(doc))

	require.Len(t, conn.sent, 2)
	assert.Equal(t, "agent 001 sca update 42|passed|||1", conn.sent[1])
	assert.False(t, doc.Exists("/sca/type"))
}

func TestHandleCheck_StatusReasonPath(t *testing.T) {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"policy_id": "PID",
			"check": {"id": 42, "title": "t", "status": "failed", "reason": "disk full"}
		}
	}`
	store, conn := newStore("ok found passed", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := eventview.Parse([]byte(body))
	require.NoError(t, d.Decode(doc))
	assert.Equal(t, "agent 001 sca update 42||failed|disk full|1", conn.sent[1])

	status, ok := doc.GetString("/sca/check/status")
	require.True(t, ok)
	assert.Equal(t, "failed", status)
	reason, ok := doc.GetString("/sca/check/reason")
	require.True(t, ok)
	assert.Equal(t, "disk full", reason)
	assert.False(t, doc.Exists("/sca/check/result"))
}

func TestHandleCheck_InvalidEvent_MissingCrossFieldRule(t *testing.T) {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"policy_id": "PID",
			"check": {"id": 42, "title": "t"}
		}
	}`
	store, conn := newStore()
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := eventview.Parse([]byte(body))
	err := d.Decode(doc)
	require.Error(t, err)
	assert.Empty(t, conn.sent, "no store write occurs for an invalid event")

	ok, got := doc.GetBool(checkTargetField)
	require.True(t, got)
	assert.False(t, ok)
}

func TestHandleCheck_InvalidEvent_MissingMandatoryField(t *testing.T) {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"check": {"id": 42, "title": "t", "result": "passed"}
		}
	}`
	store, _ := newStore()
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := eventview.Parse([]byte(body))
	err := d.Decode(doc)
	require.Error(t, err)
}

func TestHandleCheck_StoreErrorOnPrimaryQueryAborts(t *testing.T) {
	store, conn := newStore("err boom")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := newCheckDoc("")
	err := d.Decode(doc)
	require.Error(t, err)
	require.Len(t, conn.sent, 1, "no save query is issued after a primary query error")
}

func TestHandleCheck_SaveQueryFailureIsNonFatal(t *testing.T) {
	// The update/insert write itself errors; the handler still succeeds
	// and still normalizes, per the lenient saveQuery behavior pinned in
	// DESIGN.md.
	store, conn := newStore("ok not found", "err disk full")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := newCheckDoc("")
	err := d.Decode(doc)
	require.NoError(t, err)
	require.Len(t, conn.sent, 2)

	typ, ok := doc.GetString("/sca/type")
	require.True(t, ok)
	assert.Equal(t, "check", typ)
}

func TestHandleCheck_CSVFieldsSplitIntoArrays(t *testing.T) {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"policy_id": "PID",
			"check": {
				"id": 42, "title": "t", "result": "failed",
				"file": "/etc/passwd,/etc/shadow,/etc/hosts"
			}
		}
	}`
	store, _ := newStore("ok not found", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := eventview.Parse([]byte(body))
	require.NoError(t, d.Decode(doc))

	arr, ok := doc.GetArray("/sca/check/file")
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.Equal(t, "/etc/passwd", arr[0].String())
	assert.Equal(t, "/etc/shadow", arr[1].String())
	assert.Equal(t, "/etc/hosts", arr[2].String())
}

func TestHandleCheck_CompliancePushedOnNotFound(t *testing.T) {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"policy_id": "PID",
			"check": {
				"id": 42, "title": "t", "result": "failed",
				"compliance": {"cis": "1.1.1", "bad": 5},
				"rules": ["f: /etc/passwd exists", "d: /tmp exists", "x: unknown"]
			}
		}
	}`
	store, conn := newStore("ok not found", "ok", "ok", "ok", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := eventview.Parse([]byte(body))
	require.NoError(t, d.Decode(doc))

	var compSent, ruleSent []string
	for _, s := range conn.sent {
		if hasPrefix(s, "agent 001 sca insert_compliance") {
			compSent = append(compSent, s)
		}
		if hasPrefix(s, "agent 001 sca insert_rules") {
			ruleSent = append(ruleSent, s)
		}
	}
	require.Len(t, compSent, 1, "the non-string compliance value is skipped")
	assert.Equal(t, "agent 001 sca insert_compliance 42|cis|1.1.1", compSent[0])

	require.Len(t, ruleSent, 2, "the unrecognized rule prefix is skipped")
}

func TestHandleCheck_NoComplianceRulesOnFound(t *testing.T) {
	body := `{
		"agent": {"id": "001"},
		"parameters": {
			"type": "check",
			"id": 1,
			"policy": "P",
			"policy_id": "PID",
			"check": {
				"id": 42, "title": "t", "result": "passed",
				"compliance": {"cis": "1.1.1"}
			}
		}
	}`
	store, conn := newStore("ok found passed", "ok")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", checkTargetField, store, fwd)

	doc := eventview.Parse([]byte(body))
	require.NoError(t, d.Decode(doc))
	require.Len(t, conn.sent, 2, "insert_compliance/insert_rules only fire when query returns NOT_FOUND")
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
