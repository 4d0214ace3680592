package decoder

import (
	"github.com/wazuh-io/scadecode/eventview"
	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/forwarder"
	"github.com/wazuh-io/scadecode/storeclient"
)

// decodeContext is the per-call, immutable view handed to every handler: the
// mutable event document, the agent identifier, handles to the shared store
// and forwarder clients, and the source/destination path tables. No state
// is retained across invocations — everything a handler needs beyond this
// struct lives in the store.
type decodeContext struct {
	doc       *eventview.Document
	agentID   string
	store     *storeclient.Client
	forwarder *forwarder.Client
	src       fields.PathTable
	dst       fields.PathTable
	hooks     *hookSet
	stats     *Stats
}

// srcPath returns the absolute source-side path for f. Every Field is
// always present in a PathTable built by fields.NewPathTable, so the bool
// is only false for a Field outside the closed enumeration.
func (c *decodeContext) srcPath(f fields.Field) string {
	p, _ := c.src.Path(f)
	return p
}

func (c *decodeContext) dstPath(f fields.Field) string {
	p, _ := c.dst.Path(f)
	return p
}

// query builds "agent {agentID} sca {verb} {args}" for this context's
// agent.
func (c *decodeContext) query(verb string, args ...string) string {
	return storeclient.BuildQuery(c.agentID, verb, args...)
}

// pushDump delegates to the forwarder client and, when it actually sends,
// reports the send through the configured OnDump hooks and bumps Stats.
func (c *decodeContext) pushDump(policyID string, firstScan bool) {
	sent, corrID := c.forwarder.PushDumpRequest(c.agentID, policyID, firstScan)
	if sent {
		c.stats.incDumps()
		c.hooks.dump(c.agentID, policyID, firstScan, corrID)
	}
}

func (c *decodeContext) warn(component, msg string) {
	c.hooks.warn(component, msg)
}

func (c *decodeContext) debug(component, msg string) {
	c.hooks.debug(component, msg)
}
