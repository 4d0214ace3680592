package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wazuh-io/scadecode/eventview"
)

const policiesTargetField = "/sca_processed"

func newPoliciesDoc(ids ...string) *eventview.Document {
	body := `{"agent": {"id": "001"}, "parameters": {"type": "policies", "policies": [`
	for i, id := range ids {
		if i > 0 {
			body += ","
		}
		body += `"` + id + `"`
	}
	body += `]}}`
	return eventview.Parse([]byte(body))
}

// S7 — policies, remove stale: the store holds A, B, C but the agent only
// reports A and B; C is deleted.
func TestHandlePolicies_S7_RemovesStale(t *testing.T) {
	store, conn := newStore(
		"ok found A,B,C", // query_policies
		"ok",             // delete_policy C
		"ok",             // delete_check C
	)
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", policiesTargetField, store, fwd)

	doc := newPoliciesDoc("A", "B")
	require.NoError(t, d.Decode(doc))

	require.Len(t, conn.sent, 3, "query_policies + delete_policy + delete_check for the one stale ID")
	assert.Equal(t, "agent 001 sca query_policies", conn.sent[0])
	assert.Equal(t, "agent 001 sca delete_policy C", conn.sent[1])
	assert.Equal(t, "agent 001 sca delete_check C", conn.sent[2])
}

func TestHandlePolicies_NoStaleReportedSetCoversStore(t *testing.T) {
	store, conn := newStore("ok found A,B")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", policiesTargetField, store, fwd)

	doc := newPoliciesDoc("A", "B")
	require.NoError(t, d.Decode(doc))

	require.Len(t, conn.sent, 1, "only query_policies; nothing stale to delete")
}

func TestHandlePolicies_EmptyPoliciesArrayIsNoop(t *testing.T) {
	store, conn := newStore()
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", policiesTargetField, store, fwd)

	doc := newPoliciesDoc()
	require.NoError(t, d.Decode(doc))
	assert.Empty(t, conn.sent, "an empty policies list never reaches the store")

	ok, got := doc.GetBool(policiesTargetField)
	require.True(t, got)
	assert.True(t, ok, "an empty list is still a successfully handled event")
}

func TestHandlePolicies_QueryPoliciesNotFoundIsNoop(t *testing.T) {
	store, conn := newStore("ok not found")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", policiesTargetField, store, fwd)

	doc := newPoliciesDoc("A")
	require.NoError(t, d.Decode(doc))
	require.Len(t, conn.sent, 1)
}

func TestHandlePolicies_QueryPoliciesErrorIsNoop(t *testing.T) {
	store, conn := newStore("err boom")
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", policiesTargetField, store, fwd)

	doc := newPoliciesDoc("A")
	err := d.Decode(doc)
	require.NoError(t, err, "a query_policies error is logged, not fatal to the event")
	require.Len(t, conn.sent, 1)
}

func TestHandlePolicies_InvalidEventFails(t *testing.T) {
	store, conn := newStore()
	fwd, _ := newForwarder()
	d := New("/parameters", "/agent/id", policiesTargetField, store, fwd)

	doc := eventview.Parse([]byte(`{"agent":{"id":"001"},"parameters":{"type":"policies"}}`))
	err := d.Decode(doc)
	require.Error(t, err)
	assert.Empty(t, conn.sent)
}
