package decoder

import (
	"fmt"
	"strconv"

	"github.com/wazuh-io/scadecode/fields"
	"github.com/wazuh-io/scadecode/storeclient"
	"github.com/wazuh-io/scadecode/validator"
)

var checkConditions = []validator.Condition{
	{Field: fields.Check, Type: validator.ObjectType, Mandatory: true},
	{Field: fields.CheckID, Type: validator.IntType, Mandatory: true},
	{Field: fields.CheckTitle, Type: validator.StringType, Mandatory: true},
	{Field: fields.ID, Type: validator.IntType, Mandatory: true},
	{Field: fields.Policy, Type: validator.StringType, Mandatory: true},
	{Field: fields.PolicyID, Type: validator.StringType, Mandatory: true},
	{Field: fields.CheckResult, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckStatus, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckReason, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckCompliance, Type: validator.ObjectType, Mandatory: false},
	{Field: fields.CheckRules, Type: validator.ArrayType, Mandatory: false},
	{Field: fields.CheckFile, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckDirectory, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckRegistry, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckProcess, Type: validator.StringType, Mandatory: false},
	{Field: fields.CheckCommand, Type: validator.StringType, Mandatory: false},
}

// csvFields is every CHECK_* field whose source value is a comma-separated
// string and whose destination is a JSON array.
var csvFields = []fields.Field{
	fields.CheckFile,
	fields.CheckDirectory,
	fields.CheckRegistry,
	fields.CheckProcess,
	fields.CheckCommand,
}

// handleCheck implements the "check" event kind: §4.6.1.
func handleCheck(ctx *decodeContext) error {
	if !isValidCheckEvent(ctx) {
		return fmt.Errorf("invalid check event")
	}

	checkID, _ := ctx.doc.GetInt(ctx.srcPath(fields.CheckID))
	checkIDStr := strconv.FormatInt(checkID, 10)

	queryPrevious := ctx.query("query", checkIDStr)
	res, prev := ctx.store.SearchAndParse(queryPrevious, true)

	var saveQuery string
	switch res {
	case storeclient.Found:
		result, _ := ctx.doc.GetString(ctx.srcPath(fields.CheckResult))
		status, _ := ctx.doc.GetString(ctx.srcPath(fields.CheckStatus))
		reason, _ := ctx.doc.GetString(ctx.srcPath(fields.CheckReason))
		idVal, _ := ctx.doc.GetInt(ctx.srcPath(fields.ID))
		saveQuery = ctx.query("update", checkIDStr, result, status, reason, strconv.FormatInt(idVal, 10))
	case storeclient.NotFound:
		root := ctx.doc.Str(ctx.srcPath(fields.Root))
		if root == "" {
			root = "{}"
		}
		saveQuery = ctx.query("insert", root)
	case storeclient.SearchError:
		return fmt.Errorf("check event: store query failed for check %s", checkIDStr)
	}

	if code, _, err := ctx.store.Query(saveQuery); err != nil || code != storeclient.CodeOK {
		ctx.warn("handleCheck", "save query failed for check "+checkIDStr)
	}

	if res == storeclient.NotFound {
		insertCompliance(ctx, checkIDStr)
		insertRules(ctx, checkIDStr)
	}

	if shouldNormalizeCheck(ctx, prev) {
		fillCheckEvent(ctx, prev)
	}
	return nil
}

func isValidCheckEvent(ctx *decodeContext) bool {
	if !validator.IsValidEvent(ctx.doc, ctx.src, checkConditions) {
		return false
	}
	_, hasResult := ctx.doc.GetString(ctx.srcPath(fields.CheckResult))
	_, hasStatus := ctx.doc.GetString(ctx.srcPath(fields.CheckStatus))
	_, hasReason := ctx.doc.GetString(ctx.srcPath(fields.CheckReason))
	return hasResult || (hasStatus && hasReason)
}

// shouldNormalizeCheck implements the normalize predicate from §4.6.1 step 8:
// prefer comparing CHECK_RESULT against the prior stored value; fall back to
// CHECK_STATUS only when CHECK_RESULT is absent or empty.
func shouldNormalizeCheck(ctx *decodeContext, prev string) bool {
	result, _ := ctx.doc.GetString(ctx.srcPath(fields.CheckResult))
	if result != "" {
		return prev != result
	}
	status, _ := ctx.doc.GetString(ctx.srcPath(fields.CheckStatus))
	return status != "" && prev != status
}

func fillCheckEvent(ctx *decodeContext, prev string) {
	ctx.doc.SetString("check", ctx.dstPath(fields.Type))
	if prev != "" {
		ctx.doc.SetString(prev, ctx.dstPath(fields.CheckPreviousResult))
	}

	for _, f := range []fields.Field{fields.ID, fields.Policy, fields.PolicyID, fields.CheckID, fields.CheckTitle} {
		if ctx.doc.Exists(ctx.srcPath(f)) {
			ctx.doc.Set(ctx.dstPath(f), ctx.srcPath(f))
		}
	}

	for _, f := range csvFields {
		val, ok := ctx.doc.GetString(ctx.srcPath(f))
		if !ok {
			continue
		}
		ctx.doc.SetArray(ctx.dstPath(f))
		for _, item := range splitCSV(val) {
			ctx.doc.AppendString(item, ctx.dstPath(f))
		}
	}

	if result, ok := ctx.doc.GetString(ctx.srcPath(fields.CheckResult)); ok && result != "" {
		ctx.doc.Set(ctx.dstPath(fields.CheckResult), ctx.srcPath(fields.CheckResult))
		return
	}
	ctx.doc.Set(ctx.dstPath(fields.CheckStatus), ctx.srcPath(fields.CheckStatus))
	ctx.doc.Set(ctx.dstPath(fields.CheckReason), ctx.srcPath(fields.CheckReason))
}
