// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/mehak2807/urban-pulse-energy/internal/config"
	"github.com/mehak2807/urban-pulse-energy/internal/rng"
	"github.com/mehak2807/urban-pulse-energy/internal/scan"
)

// RunOnce performs a single scan without a broker or store and writes the
// progress lines and the reading as indented JSON to out.
func RunOnce(ctx context.Context, cfg *config.Config, src rng.Source, log *zap.SugaredLogger, out io.Writer) error {
	source, err := newSensorSource(cfg, src, log)
	if err != nil {
		return err
	}

	scanner := scan.New(source, src,
		scan.WithCellSize(cfg.CellSizeDeg),
		scan.WithPacing(cfg.ScanPacing),
		scan.WithProgress(func(p scan.Progress) {
			if p.Message != "" {
				fmt.Fprintf(out, "[%3.0f%%] %-10s %s\n", p.Percent, p.Phase, p.Message)
			}
		}),
		scan.WithLogger(log),
	)

	reading, err := scanner.Run(ctx, scanRequest(cfg))
	if err != nil {
		return err
	}
	fmt.Fprintln(out, formatReading(reading))

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(reading)
}
