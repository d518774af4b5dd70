package sigv4probe

// This file imports the xk6-sigv4 extension so that xk6 can discover and register it.
// When xk6 builds with --with github.com/ethanadams/sigv4probe, it will import this
// package, which triggers the init() function in the xk6-sigv4 subpackage.

import (
	_ "github.com/ethanadams/sigv4probe/cmd/xk6-sigv4" // Import for side effects (init registration)
)
