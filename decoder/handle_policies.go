package decoder

import (
	"fmt"
	"strings"

	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/storeclient"
	"github.com/wazuh-io/scadecode/validator"
)

var policiesConditions = []validator.Condition{
	{Field: fields.Policies, Type: validator.ArrayType, Mandatory: true},
}

// handlePolicies implements the "policies" event kind: §4.6.3. It deletes
// any policy the store still holds that the agent no longer reports.
func handlePolicies(ctx *decodeContext) error {
	if !validator.IsValidEvent(ctx.doc, ctx.src, policiesConditions) {
		return fmt.Errorf("invalid policies event")
	}

	reported, ok := ctx.doc.GetArray(ctx.srcPath(fields.Policies))
	if !ok || len(reported) == 0 {
		ctx.debug("handlePolicies", "empty policies list, nothing to reconcile")
		return nil
	}

	q := ctx.query("query_policies")
	res, payload := ctx.store.SearchAndParse(q, true)
	if res != storeclient.Found {
		if res == storeclient.SearchError {
			ctx.warn("handlePolicies", "query_policies failed")
		}
		return nil
	}

	reportedIDs := make(map[string]struct{}, len(reported))
	for _, r := range reported {
		reportedIDs[r.String()] = struct{}{}
	}

	for _, storedID := range strings.Split(payload, ",") {
		if storedID == "" {
			continue
		}
		if _, ok := reportedIDs[storedID]; !ok {
			deletePolicyAndCheck(ctx, storedID)
		}
	}
	return nil
}
