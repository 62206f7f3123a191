// Package hook implements the LaunchDarkly evaluation-series hook that turns
// every flag evaluation into a pair of JSON log records.
package hook

import (
	"context"
	"sort"

	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldreason"
	"github.com/launchdarkly/go-server-sdk/v7/ldhooks"

	"github.com/TimurManjosov/ldprobe/internal/canonical"
	"github.com/TimurManjosov/ldprobe/internal/jsonlog"
)

const hookName = "evaluation-logging-hook"

// Event names carried on the records the hook emits.
const (
	EventBeforeEvaluation = "before_flag_evaluation"
	EventAfterEvaluation  = "after_flag_evaluation"
)

// EvaluationLogger is registered with the SDK client and invoked around
// every flag evaluation. BeforeEvaluation and AfterEvaluation only format
// and emit; the series data passes through unmodified, and neither stage
// can fail the evaluation it wraps.
type EvaluationLogger struct {
	ldhooks.Unimplemented
	emitter *jsonlog.Emitter
}

// NewEvaluationLogger creates a hook that writes through the given emitter.
func NewEvaluationLogger(emitter *jsonlog.Emitter) *EvaluationLogger {
	return &EvaluationLogger{emitter: emitter}
}

// Metadata identifies the hook to the SDK.
func (h *EvaluationLogger) Metadata() ldhooks.Metadata {
	return ldhooks.NewMetadata(hookName)
}

// BeforeEvaluation emits a before_flag_evaluation record.
func (h *EvaluationLogger) BeforeEvaluation(
	_ context.Context,
	series ldhooks.EvaluationSeriesContext,
	data ldhooks.EvaluationSeriesData,
) (ldhooks.EvaluationSeriesData, error) {
	h.emitter.Emit(map[string]any{
		"event":        EventBeforeEvaluation,
		"flagKey":      series.FlagKey(),
		"defaultValue": series.DefaultValue().AsArbitraryValue(),
		"method":       series.Method(),
		"context":      contextSummary(series.Context()),
	})
	return data, nil
}

// AfterEvaluation emits an after_flag_evaluation record carrying the
// evaluation detail alongside the same context summary as the before stage.
func (h *EvaluationLogger) AfterEvaluation(
	_ context.Context,
	series ldhooks.EvaluationSeriesContext,
	data ldhooks.EvaluationSeriesData,
	detail ldreason.EvaluationDetail,
) (ldhooks.EvaluationSeriesData, error) {
	payload := map[string]any{
		"event":        EventAfterEvaluation,
		"flagKey":      series.FlagKey(),
		"method":       series.Method(),
		"value":        detail.Value.AsArbitraryValue(),
		"defaultValue": series.DefaultValue().AsArbitraryValue(),
		"reason":       reasonSummary(detail.Reason),
		"context":      contextSummary(series.Context()),
	}
	if detail.VariationIndex.IsDefined() {
		payload["variationIndex"] = detail.VariationIndex.IntValue()
	}
	h.emitter.Emit(payload)
	return data, nil
}

// contextSummary reduces a context to its kinds and canonical key. The raw
// key is included only for single-kind contexts; every other attribute is
// deliberately left out of the logs to avoid leaking personal data.
func contextSummary(ctx ldcontext.Context) map[string]any {
	if ctx.Err() != nil {
		// Degraded rendering; never let a malformed context stop logging.
		return map[string]any{"repr": ctx.String()}
	}

	summary := map[string]any{"canonicalKey": canonical.Key(ctx)}
	if ctx.Multiple() {
		kinds := make([]string, 0, ctx.IndividualContextCount())
		for i := 0; i < ctx.IndividualContextCount(); i++ {
			kinds = append(kinds, string(ctx.IndividualContextByIndex(i).Kind()))
		}
		sort.Strings(kinds)
		summary["kinds"] = kinds
	} else {
		summary["kinds"] = []string{string(ctx.Kind())}
		summary["key"] = ctx.Key()
	}
	return summary
}

// reasonSummary keeps the reason kind always and every other field only when
// the SDK actually set it, so absent data is omitted rather than null.
func reasonSummary(reason ldreason.EvaluationReason) map[string]any {
	summary := map[string]any{"kind": string(reason.GetKind())}
	if index := reason.GetRuleIndex(); index >= 0 {
		summary["ruleIndex"] = index
	}
	if id := reason.GetRuleID(); id != "" {
		summary["ruleId"] = id
	}
	if reason.IsInExperiment() {
		summary["inExperiment"] = true
	}
	if kind := reason.GetErrorKind(); kind != "" {
		summary["errorKind"] = string(kind)
	}
	if key := reason.GetPrerequisiteKey(); key != "" {
		summary["prerequisiteKey"] = key
	}
	return summary
}
