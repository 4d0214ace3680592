package decoder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/storeclient"
	"github.com/wazuh-io/scadecode/validator"
)

var summaryConditions = []validator.Condition{
	{Field: fields.PolicyID, Type: validator.StringType, Mandatory: true},
	{Field: fields.ScanID, Type: validator.IntType, Mandatory: true},
	{Field: fields.StartTime, Type: validator.IntType, Mandatory: true},
	{Field: fields.EndTime, Type: validator.IntType, Mandatory: true},
	{Field: fields.Passed, Type: validator.IntType, Mandatory: true},
	{Field: fields.Failed, Type: validator.IntType, Mandatory: true},
	{Field: fields.Invalid, Type: validator.IntType, Mandatory: true},
	{Field: fields.TotalChecks, Type: validator.IntType, Mandatory: true},
	{Field: fields.Score, Type: validator.IntType, Mandatory: true},
	{Field: fields.Hash, Type: validator.StringType, Mandatory: true},
	{Field: fields.HashFile, Type: validator.StringType, Mandatory: true},
	{Field: fields.File, Type: validator.StringType, Mandatory: true},
	{Field: fields.Name, Type: validator.StringType, Mandatory: true},
	{Field: fields.Description, Type: validator.StringType, Mandatory: false},
	{Field: fields.References, Type: validator.StringType, Mandatory: false},
}

// handleSummary implements the "summary" event kind: §4.6.2.
func handleSummary(ctx *decodeContext) error {
	if !validator.IsValidEvent(ctx.doc, ctx.src, summaryConditions) {
		return fmt.Errorf("fail on isValidScanInfoEvent")
	}

	policyID, _ := ctx.doc.GetString(ctx.srcPath(fields.PolicyID))
	eventHash, _ := ctx.doc.GetString(ctx.srcPath(fields.Hash))
	eventHashFile, _ := ctx.doc.GetString(ctx.srcPath(fields.HashFile))
	isFirstScan := ctx.doc.Exists(ctx.srcPath(fields.FirstScan))
	forceAlert := ctx.doc.Exists(ctx.srcPath(fields.ForceAlert))

	queryScan := ctx.query("query_scan", policyID)
	scanRes, scanPayload := ctx.store.SearchAndParse(queryScan, true)

	var scanInfoUpdate, normalize, skipSave bool
	switch scanRes {
	case storeclient.Found:
		storedHash := ""
		if scanPayload != "" {
			storedHash = strings.SplitN(scanPayload, " ", 2)[0]
		}
		scanInfoUpdate = true
		normalize = (storedHash != eventHash && !isFirstScan) || forceAlert
	case storeclient.NotFound:
		scanInfoUpdate = false
		normalize = true
	case storeclient.SearchError:
		skipSave = true
		ctx.warn("handleSummary", "query_scan failed for policy "+policyID)
	}

	if !skipSave {
		if saveScanInfo(ctx, scanInfoUpdate) {
			if normalize {
				fillScanInfo(ctx)
			}
			if !scanInfoUpdate && isFirstScan {
				ctx.pushDump(policyID, true)
			}
		}
	}

	queryPolicy := ctx.query("query_policy", policyID)
	policyRes, _ := ctx.store.SearchAndParse(queryPolicy, false)
	switch policyRes {
	case storeclient.Found:
		updatePolicyInfo(ctx, policyID, eventHashFile)
	case storeclient.NotFound:
		insertPolicyInfo(ctx, policyID)
	case storeclient.SearchError:
		ctx.warn("handleSummary", "query_policy failed for policy "+policyID)
	}

	checkResultsAndDump(ctx, policyID, isFirstScan, eventHash)
	return nil
}

// saveScanInfo issues update_scan_info_start or insert_scan_info per the
// field orders in spec §6. It reports whether the store accepted the
// write.
func saveScanInfo(ctx *decodeContext, update bool) bool {
	startTime := intArg(ctx, fields.StartTime)
	endTime := intArg(ctx, fields.EndTime)
	scanID := intArg(ctx, fields.ScanID)
	policyID, _ := ctx.doc.GetString(ctx.srcPath(fields.PolicyID))
	passed := intArg(ctx, fields.Passed)
	failed := intArg(ctx, fields.Failed)
	invalid := intArg(ctx, fields.Invalid)
	total := intArg(ctx, fields.TotalChecks)
	score := intArg(ctx, fields.Score)
	hash, _ := ctx.doc.GetString(ctx.srcPath(fields.Hash))

	var q string
	if update {
		q = ctx.query("update_scan_info_start", policyID, startTime, endTime, scanID, passed, failed, invalid, total, score, hash)
	} else {
		q = ctx.query("insert_scan_info", startTime, endTime, scanID, policyID, passed, failed, invalid, total, score, hash)
	}

	code, _, err := ctx.store.Query(q)
	if err != nil || code != storeclient.CodeOK {
		ctx.warn("saveScanInfo", "scan info write failed for policy "+policyID)
		return false
	}
	return true
}

func fillScanInfo(ctx *decodeContext) {
	ctx.doc.SetString("summary", ctx.dstPath(fields.Type))

	if name, ok := ctx.doc.GetString(ctx.srcPath(fields.Name)); ok {
		ctx.doc.SetString(name, ctx.dstPath(fields.Policy))
	}

	for _, f := range []fields.Field{
		fields.ScanID, fields.Description, fields.PolicyID, fields.Passed,
		fields.Failed, fields.Invalid, fields.TotalChecks, fields.Score, fields.File,
	} {
		if ctx.doc.Exists(ctx.srcPath(f)) {
			ctx.doc.Set(ctx.dstPath(f), ctx.srcPath(f))
		}
	}
}

// insertPolicyInfo issues insert_policy, substituting "NULL" for absent
// optional strings per spec §4.6.2/§6.
func insertPolicyInfo(ctx *decodeContext, policyID string) {
	q := ctx.query("insert_policy",
		stringArgOrNull(ctx, fields.Name),
		stringArgOrNull(ctx, fields.File),
		policyID,
		stringArgOrNull(ctx, fields.Description),
		stringArgOrNull(ctx, fields.References),
		stringArgOrNull(ctx, fields.HashFile),
	)
	if code, _, err := ctx.store.Query(q); err != nil || code != storeclient.CodeOK {
		ctx.warn("insertPolicyInfo", "insert_policy failed for policy "+policyID)
	}
}

// updatePolicyInfo implements §4.6.2's updatePolicyInfo: on a hash-file
// mismatch it deletes the stale policy/checks and requests a fresh
// first-scan dump; a match or NotFound reply is a silent no-op.
func updatePolicyInfo(ctx *decodeContext, policyID, eventHashFile string) {
	q := ctx.query("query_policy_sha256", policyID)
	res, oldHashFile := ctx.store.SearchAndParse(q, true)
	switch res {
	case storeclient.Found:
		if oldHashFile != eventHashFile {
			deletePolicyAndCheck(ctx, policyID)
			ctx.pushDump(policyID, true)
		}
	case storeclient.NotFound:
		// silent, per spec.
	case storeclient.SearchError:
		ctx.warn("updatePolicyInfo", "query_policy_sha256 failed for policy "+policyID)
	}
}

// checkResultsAndDump implements §4.6.2 step 5: a dump is requested when
// the stored check-results hash disagrees with the event's hash, or when
// there is no stored hash at all.
func checkResultsAndDump(ctx *decodeContext, policyID string, isFirstScan bool, eventHash string) {
	q := ctx.query("query_results", policyID)
	res, storedHash := ctx.store.SearchAndParse(q, true)
	switch res {
	case storeclient.Found:
		if storedHash != eventHash {
			ctx.pushDump(policyID, isFirstScan)
		}
	case storeclient.NotFound:
		ctx.pushDump(policyID, isFirstScan)
	case storeclient.SearchError:
		ctx.warn("checkResultsAndDump", "query_results failed for policy "+policyID)
	}
}

func intArg(ctx *decodeContext, f fields.Field) string {
	v, _ := ctx.doc.GetInt(ctx.srcPath(f))
	return strconv.FormatInt(v, 10)
}

func stringArgOrNull(ctx *decodeContext, f fields.Field) string {
	v, ok := ctx.doc.GetString(ctx.srcPath(f))
	if !ok || v == "" {
		return "NULL"
	}
	return v
}
