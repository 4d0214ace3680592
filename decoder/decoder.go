// Package decoder implements the SCA event decoder: the dispatcher that
// reads /type from an input event and routes it to a per-kind handler,
// reconciling agent-reported state against the policy-monitoring store and
// normalizing a subset of the event under the /sca destination prefix.
//
// A Decoder is built once per configured rule, binding the source-event
// path prefixes and the shared store/forwarder client handles. It is then
// invoked per event with Decode, which owns the event for the duration of
// the call. No state is retained across invocations inside the Decoder;
// all state lives in the store.
package decoder

import (
	"fmt"

	"github.com/wazuh-io/scadecode/eventview"
	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/forwarder"
	"github.com/wazuh-io/scadecode/storeclient"
)

// destRoot is where every handler normalizes output; fixed per spec §3.
const destRoot = "/sca"

// Decoder dispatches SCA events to handleCheck, handleSummary,
// handlePolicies, or handleDump based on the event's /type field.
//
// Decoder is safe for sequential use by a single worker (spec §5); it
// performs no internal parallelism and is not required to be safe for
// concurrent invocation.
type Decoder struct {
	sourceSCAPath string
	agentIDPath   string
	targetField   string

	store     *storeclient.Client
	forwarder *forwarder.Client

	hooks hookSet
	stats Stats
}

// New builds a Decoder. sourceSCAPath is the JSON pointer prefix under
// which the input event carries its SCA fields (e.g. "/parameters").
// agentIDPath is the JSON pointer to the reporting agent's identifier.
// targetField is the JSON pointer Decode writes its boolean success/failure
// result to.
func New(sourceSCAPath, agentIDPath, targetField string, store *storeclient.Client, fwd *forwarder.Client, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		sourceSCAPath: sourceSCAPath,
		agentIDPath:   agentIDPath,
		targetField:   targetField,
		store:         store,
		forwarder:     fwd,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns a snapshot of this decoder's invocation counters.
func (d *Decoder) Stats() StatsSnapshot {
	return d.stats.Snapshot()
}

// Decode dispatches one event. It fails with a "not found" condition if
// sourceSCAPath or agentIDPath is absent, or if agentIDPath is not a
// string; it fails with a "missing /type" condition if /type is absent or
// not a string, and with "unknown type" if /type is not one of
// check/summary/policies/dump_end. On any outcome it writes exactly one of
// true/false to targetField before returning.
func (d *Decoder) Decode(doc *eventview.Document) error {
	err := d.dispatch(doc)
	doc.SetBool(err == nil, d.targetField)
	return err
}

func (d *Decoder) dispatch(doc *eventview.Document) error {
	if !doc.Exists(d.sourceSCAPath) {
		return fmt.Errorf("decoder: sca prefix %q not found", d.sourceSCAPath)
	}
	if !doc.Exists(d.agentIDPath) {
		return fmt.Errorf("decoder: agent id path %q not found", d.agentIDPath)
	}
	agentID, ok := doc.GetString(d.agentIDPath)
	if !ok {
		return fmt.Errorf("decoder: agent id at %q is not a string", d.agentIDPath)
	}

	typePath, _ := fields.NewPathTable(d.sourceSCAPath).Path(fields.Type)
	kind, ok := doc.GetString(typePath)
	if !ok {
		return fmt.Errorf("decoder: missing /type at %q", typePath)
	}

	ctx := &decodeContext{
		doc:       doc,
		agentID:   agentID,
		store:     d.store,
		forwarder: d.forwarder,
		src:       fields.NewPathTable(d.sourceSCAPath),
		dst:       fields.NewPathTable(destRoot),
		hooks:     &d.hooks,
		stats:     &d.stats,
	}

	switch kind {
	case "check":
		d.stats.incChecks()
		return handleCheck(ctx)
	case "summary":
		d.stats.incSummaries()
		return handleSummary(ctx)
	case "policies":
		return handlePolicies(ctx)
	case "dump_end":
		return handleDump(ctx)
	default:
		return fmt.Errorf("decoder: unknown type %q", kind)
	}
}
