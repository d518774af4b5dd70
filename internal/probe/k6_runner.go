package probe

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/ethanadams/sigv4probe/internal/config"
	"github.com/ethanadams/sigv4probe/internal/jitter"
	"github.com/ethanadams/sigv4probe/internal/k6output"
	"github.com/ethanadams/sigv4probe/internal/logging"
	"github.com/ethanadams/sigv4probe/internal/metrics"
	"github.com/oklog/ulid/v2"
)

const executorNameK6 = "k6"

// K6Runner runs probe steps as k6 load-test scripts against the
// xk6-sigv4 extension (k6/x/sigv4), rather than signing and sending the
// request itself.
type K6Runner struct {
	k6Binary string
	config   *config.Config
	metrics  *metrics.Collector
}

// NewK6Runner creates a new k6-script-driven probe runner.
func NewK6Runner(cfg *config.Config, mc *metrics.Collector) *K6Runner {
	return &K6Runner{
		k6Binary: cfg.K6.BinaryPath,
		config:   cfg,
		metrics:  mc,
	}
}

// RunProbe executes a configured probe (handles single or multi-step).
func (r *K6Runner) RunProbe(ctx context.Context, probe *config.Probe) error {
	log.Printf("Running probe: %s", probe.Name)

	probeStart := time.Now()

	entropy := ulid.Monotonic(rand.Reader, 0)
	runID := ulid.MustNew(ulid.Timestamp(probeStart), entropy)
	path := probe.GetPath("/")

	isSingleStep := probe.IsSingleStep()
	if isSingleStep {
		log.Printf("Probe %s using run ID: %s (path: %s)", probe.Name, runID.String(), path)
	} else {
		log.Printf("Probe %s (%d steps) using run ID: %s (path: %s)", probe.Name, len(probe.Steps), runID.String(), path)
	}

	for i, step := range probe.Steps {
		if !isSingleStep {
			log.Printf("  [%d/%d] Running: %s", i+1, len(probe.Steps), step.Name)
		}

		if err := r.runStep(ctx, probe.Name, &step, path, runID.String()); err != nil {
			if !isSingleStep {
				log.Printf("  [%d/%d] Failed: %s - %v", i+1, len(probe.Steps), step.Name, err)
			}
			r.metrics.RecordProbeRun(probe.Name, step.Name, executorNameK6, false, time.Since(probeStart))
			return fmt.Errorf("probe %s failed at step %s: %w", probe.Name, step.Name, err)
		}

		if !isSingleStep {
			log.Printf("  [%d/%d] Completed: %s", i+1, len(probe.Steps), step.Name)
		}
	}

	duration := time.Since(probeStart)
	log.Printf("Probe %s completed successfully in %v", probe.Name, duration)
	r.metrics.RecordProbeRun(probe.Name, "", executorNameK6, true, duration)

	return nil
}

// runStep shells out to k6 for a single script-driven step.
func (r *K6Runner) runStep(ctx context.Context, probeName string, step *config.ProbeStep, defaultPath, runID string) error {
	if step.Script == "" {
		return fmt.Errorf("step %s has no k6 script configured", step.Name)
	}

	if step.Jitter != nil && step.Jitter.IsEnabled() {
		maxJitter, _ := step.Jitter.ParseMaxJitter(0)
		if maxJitter > 0 {
			if err := jitter.Apply(ctx, maxJitter, fmt.Sprintf("step %s/%s", probeName, step.Name)); err != nil {
				return fmt.Errorf("step jitter interrupted: %w", err)
			}
		}
	}

	stepStart := time.Now()

	bodySizeLabel := ""
	if step.BodySize != nil {
		bodySizeLabel = step.BodySize.String()
	}

	path := defaultPath
	if step.Path != nil && *step.Path != "" {
		path = *step.Path
	}

	timeout := step.TimeoutDuration()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	outputFile := filepath.Join(os.TempDir(), fmt.Sprintf("k6-output-%s-%s-%d.json", probeName, step.Name, time.Now().Unix()))
	defer os.Remove(outputFile)

	args := []string{
		"run",
		"--out", fmt.Sprintf("json=%s", outputFile),
		"--summary-mode=disabled",
		"--no-usage-report",
		"--quiet",
	}

	cmd := exec.CommandContext(ctx, r.k6Binary, append(args, step.Script)...)

	env := append(os.Environ(),
		fmt.Sprintf("SIGV4_ENDPOINT=%s", r.config.Target.Endpoint),
		fmt.Sprintf("SIGV4_ACCESS_KEY=%s", r.config.Target.AccessKey),
		fmt.Sprintf("SIGV4_SECRET_KEY=%s", r.config.Target.SecretKey),
		fmt.Sprintf("SIGV4_REGION=%s", r.config.Target.Region),
		fmt.Sprintf("SIGV4_SERVICE=%s", r.config.Target.Service),
		fmt.Sprintf("PROBE_NAME=%s", probeName),
		fmt.Sprintf("STEP_NAME=%s", step.Name),
		fmt.Sprintf("STEP_PATH=%s", path),
		fmt.Sprintf("PROBE_RUN_ID=%s", runID),
	)
	cmd.Env = env

	output, err := cmd.CombinedOutput()
	duration := time.Since(stepStart)

	if err != nil {
		log.Printf("    step %s failed: %v", step.Name, err)
		if len(output) > 0 {
			log.Printf("    output: %s", string(output))
		}
		r.metrics.RecordProbeRun(probeName, step.Name, executorNameK6, false, duration)
		return fmt.Errorf("k6 run failed: %w", err)
	}

	if len(output) > 0 {
		logging.Debug("    k6 output: %s", string(output))
	}

	if err := r.parseAndRecordMetrics(outputFile, probeName, step.Name, path, bodySizeLabel); err != nil {
		log.Printf("    Warning: failed to parse k6 output: %v", err)
	}

	r.metrics.RecordProbeRun(probeName, step.Name, executorNameK6, true, duration)

	return nil
}

// parseAndRecordMetrics extracts k6's built-in request-timing and
// transfer metrics from its JSON output stream and folds them into the
// same Collector methods the HTTP runner uses, so "http" and "k6"
// executions land in the same Prometheus series.
func (r *K6Runner) parseAndRecordMetrics(outputFile, probeName, stepName, path, bodySizeLabel string) error {
	points, err := k6output.ParseJSONOutput(outputFile)
	if err != nil {
		return err
	}

	grouped := k6output.GroupMetricsByName(points)

	logging.Debug("    Parsed %d metric points, found metric types: %v", len(points), func() []string {
		keys := make([]string, 0, len(grouped))
		for k := range grouped {
			keys = append(keys, k)
		}
		return keys
	}())

	var reqDuration time.Duration
	if durationPoints, ok := grouped["http_req_duration"]; ok && len(durationPoints) > 0 {
		reqDuration = time.Duration(durationPoints[0].Value) * time.Millisecond
	}

	var bytesSent int64
	if sentPoints, ok := grouped["data_sent"]; ok {
		for _, p := range sentPoints {
			bytesSent += int64(p.Value)
		}
	}

	success := true
	if checkPoints, ok := grouped["checks"]; ok {
		for _, p := range checkPoints {
			if p.Value == 0 {
				success = false
				break
			}
		}
	}

	r.metrics.RecordRequest(probeName, executorNameK6, stepName, path, bodySizeLabel, reqDuration, bytesSent, success)

	if tlsPoints, ok := grouped["http_req_tls_handshaking"]; ok && len(tlsPoints) > 0 {
		r.metrics.RecordHTTPTimingPhase(probeName, stepName, executorNameK6, "tls", time.Duration(tlsPoints[0].Value)*time.Millisecond)
	}
	if connectPoints, ok := grouped["http_req_connecting"]; ok && len(connectPoints) > 0 {
		r.metrics.RecordHTTPTimingPhase(probeName, stepName, executorNameK6, "connect", time.Duration(connectPoints[0].Value)*time.Millisecond)
	}
	if waitingPoints, ok := grouped["http_req_waiting"]; ok && len(waitingPoints) > 0 {
		r.metrics.RecordHTTPTimingPhase(probeName, stepName, executorNameK6, "ttfb", time.Duration(waitingPoints[0].Value)*time.Millisecond)
	}

	log.Printf("Parsed %d metric points from probe %s step %s", len(points), probeName, stepName)

	return nil
}
