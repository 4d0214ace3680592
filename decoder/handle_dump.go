package decoder

import (
	"fmt"
	"strconv"

	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/storeclient"
	"github.com/wazuh-io/scadecode/validator"
)

var dumpConditions = []validator.Condition{
	{Field: fields.ElementsSent, Type: validator.IntType, Mandatory: true},
	{Field: fields.PolicyID, Type: validator.StringType, Mandatory: true},
	{Field: fields.ScanID, Type: validator.IntType, Mandatory: true},
}

// handleDump implements the "dump_end" event kind: §4.6.4. It clears
// checks beyond what this dump reported, then requests a fresh dump if the
// store's check-results and scan-info hashes now disagree.
func handleDump(ctx *decodeContext) error {
	if !validator.IsValidEvent(ctx.doc, ctx.src, dumpConditions) {
		return fmt.Errorf("invalid dump_end event")
	}

	policyID, _ := ctx.doc.GetString(ctx.srcPath(fields.PolicyID))
	scanID, _ := ctx.doc.GetInt(ctx.srcPath(fields.ScanID))
	scanIDStr := strconv.FormatInt(scanID, 10)

	deleteQuery := ctx.query("delete_check_distinct", policyID, scanIDStr)
	if code, _, err := ctx.store.Query(deleteQuery); err != nil || code != storeclient.CodeOK {
		ctx.warn("handleDump", "delete_check_distinct failed for policy "+policyID)
	}

	resultsQuery := ctx.query("query_results", policyID)
	resultsRes, hashCheckResults := ctx.store.SearchAndParse(resultsQuery, true)
	switch resultsRes {
	case storeclient.Found:
		scanQuery := ctx.query("query_scan", policyID)
		scanRes, hashScanInfo := ctx.store.SearchAndParse(scanQuery, true)
		switch scanRes {
		case storeclient.Found:
			if hashScanInfo != hashCheckResults {
				ctx.pushDump(policyID, false)
			}
		case storeclient.SearchError:
			ctx.warn("handleDump", "query_scan failed for policy "+policyID)
		}
	case storeclient.SearchError:
		ctx.warn("handleDump", "query_results failed for policy "+policyID)
	}

	return nil
}
