package main

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"pmopulse/internal/app"
)

// Embedded dashboard UI shell
//go:embed all:web
var webFiles embed.FS

func main() {
	var frontendFS fs.FS
	if sub, err := fs.Sub(webFiles, "web"); err == nil {
		frontendFS = sub
	} else {
		slog.Warn("frontend embedding failed", slog.String("error", err.Error()))
	}

	application, err := app.NewApplication(frontendFS)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(context.Background()); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
