package decoder

// OnWarnFunc is called when a handler hits a non-fatal error (a store
// transport failure on an auxiliary write, a malformed compliance/rule
// entry, ...). component names the part of the decoder that logged it.
type OnWarnFunc func(component, msg string)

// OnDebugFunc is called for low-severity diagnostics (e.g. an empty
// policies list skipped without a store round-trip).
type OnDebugFunc func(component, msg string)

// OnDumpFunc is called whenever pushDumpRequest actually sends a dump
// request to the forwarder, tagged with the correlation ID logged
// alongside the send. It is observational only; it never gates decoder
// behavior.
type OnDumpFunc func(agentID, policyID string, firstScan bool, correlationID string)

// hookSet holds every configured hook, mirroring the router's functional
// option pattern: options append to slices, and every hook registered is
// called in order.
type hookSet struct {
	onWarn  []OnWarnFunc
	onDebug []OnDebugFunc
	onDump  []OnDumpFunc
}

// DecoderOption configures a Decoder at construction time.
type DecoderOption func(*Decoder)

// WithOnWarn registers a hook called on every non-fatal warning.
func WithOnWarn(fn OnWarnFunc) DecoderOption {
	return func(d *Decoder) { d.hooks.onWarn = append(d.hooks.onWarn, fn) }
}

// WithOnDebug registers a hook called on every debug-level diagnostic.
func WithOnDebug(fn OnDebugFunc) DecoderOption {
	return func(d *Decoder) { d.hooks.onDebug = append(d.hooks.onDebug, fn) }
}

// WithOnDump registers a hook called whenever a dump request is actually
// sent to the forwarder.
func WithOnDump(fn OnDumpFunc) DecoderOption {
	return func(d *Decoder) { d.hooks.onDump = append(d.hooks.onDump, fn) }
}

func (h *hookSet) warn(component, msg string) {
	for _, fn := range h.onWarn {
		fn(component, msg)
	}
}

func (h *hookSet) debug(component, msg string) {
	for _, fn := range h.onDebug {
		fn(component, msg)
	}
}

func (h *hookSet) dump(agentID, policyID string, firstScan bool, corrID string) {
	for _, fn := range h.onDump {
		fn(agentID, policyID, firstScan, corrID)
	}
}
