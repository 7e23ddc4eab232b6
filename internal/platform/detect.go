package platform

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual host inspection.
type RealDetector struct{}

// NewDetector creates a new platform detector.
func NewDetector() Detector {
	return &RealDetector{}
}

// Detect reads the machine's raw hardware identifier and resolves it to a
// release tag. The identifier comes from gopsutil's kernel architecture
// (the uname -m value); if that is unavailable it falls back to
// runtime.GOARCH, which the resolver passes through as-is.
//
// An empty identifier from both sources is an error: every download URL
// constructed later depends on the resolved tag, so provisioning must not
// start without one.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{OS: runtime.GOOS}

	var raw string
	hostInfo, err := host.InfoWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		// Graceful fallback: GOARCH is coarser than uname -m but still
		// yields a usable tag.
		raw = runtime.GOARCH
	} else {
		raw = strings.TrimSpace(hostInfo.KernelArch)
		if raw == "" {
			raw = runtime.GOARCH
		}
	}

	if raw == "" {
		return nil, fmt.Errorf("no usable machine identifier")
	}

	info.RawArch = raw
	info.Arch = ResolveArch(raw)
	return info, nil
}

// staticDetector returns pre-resolved platform info. The architecture is
// resolved exactly once per run; callers that already hold the result pass
// it on through this instead of triggering a second detection.
type staticDetector struct {
	info *Info
}

// StaticDetector wraps already-detected platform info as a Detector.
func StaticDetector(info *Info) Detector {
	return &staticDetector{info: info}
}

func (d *staticDetector) Detect(ctx context.Context) (*Info, error) {
	return d.info, nil
}
