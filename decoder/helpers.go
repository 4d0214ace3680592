package decoder

import (
	"strings"

	"github.com/tidwall/gjson"
	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/storeclient"
)

// insertCompliance issues insert_compliance for every string-valued
// (key, value) pair in the check event's compliance object. Non-string
// values are skipped with a warn.
func insertCompliance(ctx *decodeContext, checkID string) {
	obj, ok := ctx.doc.GetObject(ctx.srcPath(fields.CheckCompliance))
	if !ok {
		return
	}
	for key, val := range obj {
		if val.Type != gjson.String {
			ctx.warn("insertCompliance", "non-string compliance value for key "+key)
			continue
		}
		q := ctx.query("insert_compliance", checkID, key, val.String())
		if code, _, err := ctx.store.Query(q); err != nil || code != storeclient.CodeOK {
			ctx.warn("insertCompliance", "store write failed for key "+key)
		}
	}
}

// ruleTypeByPrefix maps a rule string's first character to its store-side
// rule type tag.
var ruleTypeByPrefix = map[byte]string{
	'f': "file",
	'd': "directory",
	'r': "registry",
	'c': "command",
	'p': "process",
	'n': "numeric",
}

// insertRules issues insert_rules for every recognized entry in the check
// event's rules array. An element that isn't a string, or whose first
// character doesn't map to a known rule type, is skipped with a warn.
func insertRules(ctx *decodeContext, checkID string) {
	arr, ok := ctx.doc.GetArray(ctx.srcPath(fields.CheckRules))
	if !ok {
		return
	}
	for _, elem := range arr {
		if elem.Type != gjson.String {
			ctx.warn("insertRules", "non-string rule element")
			continue
		}
		rule := elem.String()
		if rule == "" {
			ctx.warn("insertRules", "empty rule element")
			continue
		}
		ruleType, known := ruleTypeByPrefix[rule[0]]
		if !known {
			ctx.warn("insertRules", "unknown rule prefix "+string(rule[0]))
			continue
		}
		q := ctx.query("insert_rules", checkID, ruleType, rule)
		if code, _, err := ctx.store.Query(q); err != nil || code != storeclient.CodeOK {
			ctx.warn("insertRules", "store write failed for rule "+rule)
		}
	}
}

// deletePolicyAndCheck executes delete_policy then delete_check for
// policyID. A delete_check failure is logged but does not change the
// return value: it mirrors the source behavior where the check-delete
// failure is non-fatal once the primary policy delete has succeeded.
func deletePolicyAndCheck(ctx *decodeContext, policyID string) bool {
	q := ctx.query("delete_policy", policyID)
	code, _, err := ctx.store.Query(q)
	if err != nil || code != storeclient.CodeOK {
		return false
	}

	q = ctx.query("delete_check", policyID)
	code, _, err = ctx.store.Query(q)
	if err != nil || code != storeclient.CodeOK {
		ctx.warn("deletePolicyAndCheck", "delete_check failed for policy "+policyID)
	}
	return true
}

// splitCSV splits a comma-separated string field into its elements. An
// empty input yields an empty slice, not a one-element slice containing "".
func splitCSV(val string) []string {
	if val == "" {
		return nil
	}
	return strings.Split(val, ",")
}
