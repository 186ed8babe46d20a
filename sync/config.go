package sync

import (
	"os"
	"strconv"
	"time"

	"github.com/rohanthewiz/serr"
)

// Config holds the sync client settings. All values come from
// environment variables so deployment configuration stays outside the
// binary.
type Config struct {
	Enabled  bool          // Whether sync is active (NOTESYNC_SYNC_ENABLED)
	HubURL   string        // Base URL of the hub (NOTESYNC_HUB_URL)
	Tenant   string        // Workspace scope on the hub (NOTESYNC_TENANT)
	Username string        // Authentication username (NOTESYNC_USERNAME)
	Password string        // Authentication password (NOTESYNC_PASSWORD)
	Interval time.Duration // Polling interval between cycles (NOTESYNC_SYNC_INTERVAL)
}

// defaultSyncInterval balances freshness against network overhead for a
// single-user, multi-device setup.
const defaultSyncInterval = 5 * time.Minute

// LoadConfig reads sync configuration from the environment. Returns a
// config even when sync is disabled so callers can inspect state
// without nil checks.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Interval: defaultSyncInterval,
	}

	if enabledStr := os.Getenv("NOTESYNC_SYNC_ENABLED"); enabledStr != "" {
		enabled, err := strconv.ParseBool(enabledStr)
		if err != nil {
			return nil, serr.Wrap(err, "invalid NOTESYNC_SYNC_ENABLED value, expected true/false")
		}
		cfg.Enabled = enabled
	}

	cfg.HubURL = os.Getenv("NOTESYNC_HUB_URL")
	cfg.Tenant = os.Getenv("NOTESYNC_TENANT")
	cfg.Username = os.Getenv("NOTESYNC_USERNAME")
	cfg.Password = os.Getenv("NOTESYNC_PASSWORD")

	if intervalStr := os.Getenv("NOTESYNC_SYNC_INTERVAL"); intervalStr != "" {
		interval, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, serr.Wrap(err, "invalid NOTESYNC_SYNC_INTERVAL value, expected duration like '5m' or '30s'")
		}
		cfg.Interval = interval
	}

	return cfg, nil
}

// Validate fails fast on missing credentials rather than discovering
// them mid-cycle. A disabled config is always valid.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.HubURL == "" {
		return serr.New("NOTESYNC_HUB_URL is required when sync is enabled")
	}
	if c.Tenant == "" {
		return serr.New("NOTESYNC_TENANT is required when sync is enabled")
	}
	if c.Username == "" {
		return serr.New("NOTESYNC_USERNAME is required when sync is enabled")
	}
	if c.Password == "" {
		return serr.New("NOTESYNC_PASSWORD is required when sync is enabled")
	}
	if c.Interval < 10*time.Second {
		return serr.New("NOTESYNC_SYNC_INTERVAL must be at least 10s to avoid overwhelming the hub")
	}

	return nil
}
