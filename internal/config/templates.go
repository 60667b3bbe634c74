package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# ram2 operator console configuration

[server]
# Backend trading engine base URL
base_url = "http://localhost:8000"
# Push channel endpoint
ws_url = "ws://localhost:8000/ws"
# Request timeout for one-shot calls
timeout = "15s"

[feed]
# Fixed delay between reconnect attempts
reconnect_delay = "1s"

[ui]
# Enable colored output
color_enabled = true
# Console redraw interval
refresh_interval = "1s"

[logging]
# Log level: debug, info, warn, error
level = "info"
# Log to the terminal
console = true
# Log to a rotated file under the config directory
file = true

[journal]
# Record every dispatched command in a local SQLite journal
enabled = true
`

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}
	return nil
}
