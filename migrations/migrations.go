// Package migrations embeds the schema files for every supported driver.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// Read returns the schema script for driver in direction "up" or "down"
func Read(driver, direction string) (string, error) {
	switch direction {
	case "up", "down":
	default:
		return "", fmt.Errorf("unknown migration direction %q", direction)
	}

	name := fmt.Sprintf("%s/001_create_schema.%s.sql", driver, direction)
	data, err := fs.ReadFile(files, name)
	if err != nil {
		return "", fmt.Errorf("failed to read migration %s: %w", name, err)
	}
	return string(data), nil
}
