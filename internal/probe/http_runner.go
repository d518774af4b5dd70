package probe

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptrace"
	"time"

	"github.com/ethanadams/sigv4probe/internal/config"
	"github.com/ethanadams/sigv4probe/internal/jitter"
	"github.com/ethanadams/sigv4probe/internal/logging"
	"github.com/ethanadams/sigv4probe/internal/metrics"
	"github.com/ethanadams/sigv4probe/internal/sigv4"
	"github.com/oklog/ulid/v2"
)

// httpTimingTracer captures detailed HTTP timing using httptrace
type httpTimingTracer struct {
	start         time.Time
	dnsStart      time.Time
	dnsDone       time.Time
	connectStart  time.Time
	connectDone   time.Time
	tlsStart      time.Time
	tlsDone       time.Time
	firstByteTime time.Time
	wroteRequest  time.Time
}

func newHTTPTimingTracer() *httpTimingTracer {
	return &httpTimingTracer{start: time.Now()}
}

func (t *httpTimingTracer) trace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart:             func(_ httptrace.DNSStartInfo) { t.dnsStart = time.Now() },
		DNSDone:              func(_ httptrace.DNSDoneInfo) { t.dnsDone = time.Now() },
		ConnectStart:         func(_, _ string) { t.connectStart = time.Now() },
		ConnectDone:          func(_, _ string, _ error) { t.connectDone = time.Now() },
		TLSHandshakeStart:    func() { t.tlsStart = time.Now() },
		TLSHandshakeDone:     func(_ tls.ConnectionState, _ error) { t.tlsDone = time.Now() },
		WroteRequest:         func(_ httptrace.WroteRequestInfo) { t.wroteRequest = time.Now() },
		GotFirstResponseByte: func() { t.firstByteTime = time.Now() },
	}
}

func (t *httpTimingTracer) toMetrics(transferDone time.Time) metrics.HTTPTimings {
	timings := metrics.HTTPTimings{
		Total: transferDone.Sub(t.start),
	}

	if !t.dnsStart.IsZero() && !t.dnsDone.IsZero() {
		timings.DNSLookup = t.dnsDone.Sub(t.dnsStart)
	}
	if !t.connectStart.IsZero() && !t.connectDone.IsZero() {
		timings.TCPConnect = t.connectDone.Sub(t.connectStart)
	}
	if !t.tlsStart.IsZero() && !t.tlsDone.IsZero() {
		timings.TLSHandshake = t.tlsDone.Sub(t.tlsStart)
	}
	if !t.wroteRequest.IsZero() && !t.firstByteTime.IsZero() {
		timings.TTFB = t.firstByteTime.Sub(t.wroteRequest)
	}
	if !t.firstByteTime.IsZero() {
		timings.Transfer = transferDone.Sub(t.firstByteTime)
	}

	return timings
}

const executorNameHTTP = "http"

// HTTPRunner runs probes as raw signed HTTP requests (no client SDK).
type HTTPRunner struct {
	client   *http.Client
	endpoint string
	signer   *sigv4.Signer // cached signer for the lifetime of the runner
	config   *config.Config
	metrics  *metrics.Collector
}

// NewHTTPRunner creates a new signed-HTTP probe runner.
func NewHTTPRunner(cfg *config.Config, mc *metrics.Collector) (*HTTPRunner, error) {
	if cfg.Target.Endpoint == "" {
		return nil, fmt.Errorf("target endpoint is required")
	}
	if cfg.Target.AccessKey == "" || cfg.Target.SecretKey == "" {
		return nil, fmt.Errorf("target access key and secret key are required")
	}

	region := cfg.Target.Region
	if region == "" {
		region = "us-east-1"
	}
	service := cfg.Target.Service
	if service == "" {
		service = "execute-api"
	}

	creds := sigv4.Credentials{
		AccessKeyID: cfg.Target.AccessKey,
		SecretKey:   []byte(cfg.Target.SecretKey),
	}

	return &HTTPRunner{
		client: &http.Client{
			Timeout: 5 * time.Minute, // default, overridden per-request
		},
		endpoint: cfg.Target.Endpoint,
		signer:   sigv4.NewSigner(creds, region, service),
		config:   cfg,
		metrics:  mc,
	}, nil
}

// Close releases the runner's cached signing key.
func (r *HTTPRunner) Close() { r.signer.Close() }

// RunProbe executes a configured probe (handles single or multi-step).
func (r *HTTPRunner) RunProbe(ctx context.Context, probe *config.Probe) error {
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

		if err := r.runStep(ctx, probe.Name, &step, path); err != nil {
			if !isSingleStep {
				log.Printf("  [%d/%d] Failed: %s - %v", i+1, len(probe.Steps), step.Name, err)
			}
			r.metrics.RecordProbeRun(probe.Name, step.Name, executorNameHTTP, false, time.Since(probeStart))
			return fmt.Errorf("probe %s failed at step %s: %w", probe.Name, step.Name, err)
		}

		if !isSingleStep {
			log.Printf("  [%d/%d] Completed: %s", i+1, len(probe.Steps), step.Name)
		}
	}

	duration := time.Since(probeStart)
	log.Printf("Probe %s completed successfully in %v", probe.Name, duration)
	r.metrics.RecordProbeRun(probe.Name, "", executorNameHTTP, true, duration)

	return nil
}

// runStep executes a single signed-request step.
func (r *HTTPRunner) runStep(ctx context.Context, probeName string, step *config.ProbeStep, defaultPath string) error {
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

	timeout := step.TimeoutDuration()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	path := defaultPath
	if step.Path != nil && *step.Path != "" {
		path = *step.Path
	}

	err := r.sendStep(ctx, probeName, step, path, bodySizeLabel)
	duration := time.Since(stepStart)

	if err != nil {
		log.Printf("    step %s failed: %v", step.Name, err)
		r.metrics.RecordProbeRun(probeName, step.Name, executorNameHTTP, false, duration)
		return fmt.Errorf("step execution failed: %w", err)
	}

	r.metrics.RecordProbeRun(probeName, step.Name, executorNameHTTP, true, duration)
	return nil
}

// sendStep builds, signs, and sends a single HTTP request for step.
func (r *HTTPRunner) sendStep(ctx context.Context, probeName string, step *config.ProbeStep, path, bodySizeLabel string) error {
	method := step.GetMethod()
	url := r.endpoint + path

	var body io.Reader
	var bodySize int64
	if step.BodySize != nil && *step.BodySize > 0 {
		bodySize = step.BodySize.Int64()
		data := make([]byte, bodySize)
		if _, err := rand.Read(data); err != nil {
			return fmt.Errorf("failed to generate request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if bodySize > 0 {
		req.ContentLength = bodySize
		req.Header.Set("Content-Type", "application/octet-stream")
	}
	for name, value := range step.Headers {
		req.Header.Set(name, value)
	}

	adapter, adaptErr := sigv4.NewHTTPRequestAdapter(req)
	if adaptErr != nil {
		return fmt.Errorf("failed to adapt request for signing: %w", adaptErr)
	}

	signStart := time.Now()
	if err := r.signer.Sign(adapter, sigv4.NewSigningInstant(signStart), sigv4.WithObserver(logging.SigningObserver{})); err != nil {
		return fmt.Errorf("failed to sign request: %w", err)
	}
	signDuration := time.Since(signStart)

	if b := adapter.Body(); b != nil {
		if n, ok := b.Length(); ok {
			r.metrics.RecordTeeBufferSize(probeName, executorNameHTTP, n)
		}
	}

	tracer := newHTTPTimingTracer()
	req = req.WithContext(httptrace.WithClientTrace(req.Context(), tracer.trace()))

	resp, err := r.client.Do(req)
	if err != nil {
		r.metrics.RecordRequest(probeName, executorNameHTTP, step.Name, path, bodySizeLabel, time.Since(tracer.start), 0, false)
		return fmt.Errorf("http %s failed: %w", method, err)
	}
	defer resp.Body.Close()

	bytesRead, readErr := io.Copy(io.Discard, resp.Body)
	transferDone := time.Now()

	timings := tracer.toMetrics(transferDone)
	r.metrics.RecordHTTPTiming(probeName, step.Name, executorNameHTTP, timings)
	r.metrics.RecordHTTPTimingPhase(probeName, step.Name, executorNameHTTP, "sign", signDuration)

	if readErr != nil {
		r.metrics.RecordRequest(probeName, executorNameHTTP, step.Name, path, bodySizeLabel, timings.Total, bytesRead, false)
		return fmt.Errorf("failed to read http response: %w", readErr)
	}

	if resp.StatusCode >= 400 {
		r.metrics.RecordRequest(probeName, executorNameHTTP, step.Name, path, bodySizeLabel, timings.Total, bytesRead, false)
		return fmt.Errorf("http %s returned status %d", method, resp.StatusCode)
	}

	logging.Debug("    %s %s -> %d (%d bytes) in %v (sign=%v, dns=%v, tls=%v, ttfb=%v)",
		method, path, resp.StatusCode, bytesRead, timings.Total, signDuration, timings.DNSLookup, timings.TLSHandshake, timings.TTFB)
	r.metrics.RecordRequest(probeName, executorNameHTTP, step.Name, path, bodySizeLabel, timings.Total, bytesRead, true)

	return nil
}
