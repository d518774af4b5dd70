// Package probe runs synthetic signed-request checks against a
// configured endpoint. Two Runner implementations share the config and
// metrics shape: HTTPRunner builds, signs, and sends the request itself;
// K6Runner hands the same signing off to a k6 script via the xk6-sigv4
// extension and parses the resulting JSON metrics stream.
//
// It deliberately has no notion of buckets, objects, or any other
// storage-service concept; a probe step is just "send this method to
// this path, optionally with a generated body, signed".
package probe

import (
	"context"

	"github.com/ethanadams/sigv4probe/internal/config"
)

// Runner executes one configured probe end to end (all of its steps).
type Runner interface {
	RunProbe(ctx context.Context, probe *config.Probe) error
}
