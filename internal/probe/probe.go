// Package probe drives a single flag evaluation against LaunchDarkly and
// reports the evaluation lifecycle on stdout as JSON log lines.
//
// The flow is strictly linear: build the client configuration (with the
// evaluation-logging hook attached), construct the client, report
// data-source health, evaluate the flag once, report the result and the
// health again, and close the client. Closing flushes buffered analytics
// events and runs on every exit path.
package probe

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/launchdarkly/go-server-sdk/v7/interfaces"
	"github.com/launchdarkly/go-server-sdk/v7/ldcomponents"
	"github.com/launchdarkly/go-server-sdk/v7/ldhooks"

	"github.com/TimurManjosov/ldprobe/internal/config"
	"github.com/TimurManjosov/ldprobe/internal/hook"
	"github.com/TimurManjosov/ldprobe/internal/jsonlog"
)

// Params are the per-run arguments collected from the command line.
type Params struct {
	SDKKey       string
	Project      string
	FlagKey      string
	UserKey      string
	DefaultValue bool
	SimulateDown bool
}

// Run performs exactly one flag evaluation and emits the lifecycle records.
//
// Client construction failures are tolerated where the SDK tolerates them
// (a client that timed out connecting still evaluates, using defaults); the
// data_source_status records make the failure visible to the log pipeline.
// An evaluation error is likewise reported, not fatal, mirroring the SDK's
// own behavior of returning the default value. Only the inability to
// construct a client at all makes Run return an error.
func Run(params Params, settings *config.Config, emitter *jsonlog.Emitter) error {
	emitter.SetCommonField("runId", uuid.NewString())
	emitter.SetCommonField("project", params.Project)
	emitter.SetCommonField("sdkKeyHash", fingerprint(params.SDKKey))

	ldConfig, initWait := buildClientConfig(params, settings, emitter)

	if params.SimulateDown {
		emitter.Emit(map[string]any{
			"event":            "simulation_mode",
			"serviceUri":       settings.SimulationURI,
			"reconnectDelayMs": settings.SimulationRetry.Milliseconds(),
			"initWaitMs":       settings.SimulationWait.Milliseconds(),
		})
	}

	client, err := ld.MakeCustomClient(params.SDKKey, ldConfig, initWait)
	if client == nil {
		return fmt.Errorf("failed to create LaunchDarkly client: %w", err)
	}
	defer func() {
		// Flush pending events and close connections; runs even when the
		// evaluation below went wrong.
		_ = client.Close()
	}()

	statusProvider := client.GetDataSourceStatusProvider()
	emitter.Emit(statusPayload(statusProvider.GetStatus()))

	// Minimal, privacy-safe context: the key plus a project tag attribute,
	// nothing else.
	evalContext := ldcontext.NewBuilder(params.UserKey).
		SetString("project", params.Project).
		Build()

	// The hook fires its before/after records inside this call.
	value, evalErr := client.BoolVariation(params.FlagKey, evalContext, params.DefaultValue)

	summary := map[string]any{
		"event":   "evaluation_result_summary",
		"flagKey": params.FlagKey,
		"value":   value,
	}
	if evalErr != nil {
		summary["error"] = evalErr.Error()
	}
	emitter.Emit(summary)

	emitter.Emit(statusPayload(statusProvider.GetStatus()))

	return nil
}

// buildClientConfig assembles the SDK configuration. Streaming is always on
// and the evaluation-logging hook is always attached. Under simulation all
// three service URIs point at the configured unreachable endpoint and the
// reconnect delay shrinks so the data source reports failure quickly instead
// of hanging. Returns the configuration and the construction wait.
func buildClientConfig(params Params, settings *config.Config, emitter *jsonlog.Emitter) (ld.Config, time.Duration) {
	cfg := ld.Config{
		Hooks: []ldhooks.Hook{hook.NewEvaluationLogger(emitter)},
		// Keep SDK diagnostics off stdout so the output stays pure NDJSON.
		Logging: ldcomponents.Logging().MinLevel(ldlog.Error),
	}
	if !settings.SendEvents {
		cfg.Events = ldcomponents.NoEvents()
	}

	if params.SimulateDown {
		cfg.ServiceEndpoints = interfaces.ServiceEndpoints{
			Streaming: settings.SimulationURI,
			Polling:   settings.SimulationURI,
			Events:    settings.SimulationURI,
		}
		cfg.DataSource = ldcomponents.StreamingDataSource().
			InitialReconnectDelay(settings.SimulationRetry)
		return cfg, settings.SimulationWait
	}

	cfg.ServiceEndpoints = interfaces.ServiceEndpoints{
		Streaming: settings.StreamURI,
		Polling:   settings.BaseURI,
		Events:    settings.EventsURI,
	}
	cfg.DataSource = ldcomponents.StreamingDataSource().
		InitialReconnectDelay(settings.ReconnectDelay)
	return cfg, settings.InitWait
}

// statusPayload formats a data-source status record. The lastError object is
// present only when the SDK recorded an error, and inside it the HTTP status
// code and timestamp appear only when set.
func statusPayload(status interfaces.DataSourceStatus) map[string]any {
	payload := map[string]any{
		"event":      "data_source_status",
		"state":      string(status.State),
		"stateSince": status.StateSince.UnixMilli(),
	}
	if status.LastError.Kind != "" {
		lastError := map[string]any{"kind": string(status.LastError.Kind)}
		if status.LastError.StatusCode != 0 {
			lastError["statusCode"] = status.LastError.StatusCode
		}
		if !status.LastError.Time.IsZero() {
			lastError["time"] = status.LastError.Time.UnixMilli()
		}
		payload["lastError"] = lastError
	}
	return payload
}

// fingerprint derives a stable, non-reversible tag from the SDK key so log
// lines from different environments can be told apart without exposing the
// credential.
func fingerprint(sdkKey string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(sdkKey))
}
