package device

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/shirou/gopsutil/host"
)

// FallbackID is sent to the relay when no stable identifier can be read.
const FallbackID = "unknown_id"

var hostID = host.HostID

// ID returns the per-install device identifier. A configured override wins,
// then the host id reported by the OS, then FallbackID.
func ID(override string) string {
	if id := strings.TrimSpace(override); id != "" {
		return id
	}

	id, err := hostID()
	if err != nil {
		slog.Warn(fmt.Sprintf("failed to read host id, using fallback: %v", err))
		return FallbackID
	}

	if id = strings.TrimSpace(id); id == "" {
		return FallbackID
	}

	return id
}
