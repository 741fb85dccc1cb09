package instance

import (
	"os"

	"github.com/wholesaledesk/ordering-backend/pkg/env"
)

const fallbackID = "local"

// GetID identifies this process in logs: ORDERDESK_INSTANCE_ID, the Cloud Run
// revision, then the hostname.
func GetID() string {
	if id, ok := env.Lookup("ORDERDESK_INSTANCE_ID", "K_REVISION"); ok {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
