package common

import (
	"fmt"
	"io"
	"strings"

	"github.com/ternarybob/banner"
)

// PrintBanner writes the startup banner for long-running commands (live view).
func PrintBanner(w io.Writer, config *Config, logger *Logger) {
	info := GetBuildInfo()

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 56
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	art := []string{
		` ____   ___  ____  ____    _`,
		`| __ ) / _ \|  _ \/ ___|  / \`,
		`|  _ \| | | | |_) \___ \ / _ \`,
		`| |_) | |_| |  _ < ___) / ___ \`,
		`|____/ \___/|_| \_\____/_/   \_\`,
	}

	fmt.Fprintf(w, "\n%s\n\n", hr)
	for _, line := range art {
		fmt.Fprintf(w, "%s%s%s\n", textColor, line, banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s  Portfolio & Watchlist Tracker%s\n\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	stream := "off"
	if config.Stream.Enabled {
		stream = config.Stream.URL
	}

	kvPad := 14
	kvLines := [][2]string{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Environment", config.Environment},
		{"API", config.API.BaseURL},
		{"Live feed", stream},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", info.Version).
		Str("commit", info.Commit).
		Str("environment", config.Environment).
		Str("api", config.API.BaseURL).
		Str("stream", stream).
		Msg("Application started")
}
