package packager

import (
	"context"
	"strconv"
	"strings"

	"github.com/docker/go-units"

	"github.com/oshokin/modbuilder/internal/logger"
	"github.com/oshokin/modbuilder/internal/service/common"
)

// printReport logs a human-readable summary of a finished build.
func printReport(ctx context.Context, result *Result) {
	logger.Info(ctx, Report(result))
}

// Report renders the summary printed after a successful build.
func Report(result *Result) string {
	var builder strings.Builder

	builder.WriteString("Module ")
	builder.WriteString(result.Package.Name)
	builder.WriteString(" ")
	builder.WriteString(result.Package.Version)
	builder.WriteString(" (")
	builder.WriteString(result.Package.ID)
	builder.WriteString(") packaged\n")

	if result.Archive != nil {
		builder.WriteString("Archive: ")
		builder.WriteString(result.Archive.Path)
		builder.WriteString("\nSize: ")
		builder.WriteString(units.HumanSize(float64(result.Archive.Size)))
		builder.WriteString("\nEntries: ")
		builder.WriteString(strconv.Itoa(len(result.Archive.Entries)))
		builder.WriteString("\nSHA-512: ")
		builder.WriteString(common.EncodeChecksum(result.Archive.Checksum))
	}

	if result.ManifestPath != "" {
		builder.WriteString("\nManifest: ")
		builder.WriteString(result.ManifestPath)
	}

	builder.WriteString("\nFlash the archive with Magisk, KernelSU or APatch and reboot the device.")

	return builder.String()
}
