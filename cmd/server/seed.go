package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/store/sqlite"
)

// seedPresets stores each named award preset for the financial year
// starting in fyStart. Presets already in the store are left alone so
// edits made through the API survive a restart.
func seedPresets(ctx context.Context, store *sqlite.Store, f *factory.GuideFactory, logger *slog.Logger, names []string, baseRate string, fyStart int) (int, error) {
	seeded := 0
	for _, name := range names {
		id := fmt.Sprintf("%s-fy%d", name, fyStart+1)

		_, err := store.GetGuideRecord(ctx, payroll.GuideID(id))
		if err == nil {
			logger.Debug("preset already stored", "guide_id", id)
			continue
		}
		if !errors.Is(err, payroll.ErrGuideNotFound) {
			return seeded, err
		}

		doc, err := awards.Preset(name, id, baseRate, fyStart)
		if err != nil {
			return seeded, err
		}
		guide, err := f.ParseGuide(doc)
		if err != nil {
			return seeded, fmt.Errorf("preset %s: %w", id, err)
		}
		if err := store.SaveGuide(ctx, *guide); err != nil {
			return seeded, err
		}
		logger.Info("seeded preset", "guide_id", id, "base_rate", baseRate)
		seeded++
	}
	return seeded, nil
}

// loadGuideDir stores every .json, .yaml and .yml guide in dir. A guide
// whose stored document is unchanged is skipped so its version stays put.
// Every file is parsed before anything is written.
func loadGuideDir(ctx context.Context, store *sqlite.Store, f *factory.GuideFactory, logger *slog.Logger, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read guides dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	guides := make([]*payroll.PayGuide, 0, len(paths))
	for _, p := range paths {
		g, err := f.ParseGuideFile(p)
		if err != nil {
			return 0, err
		}
		guides = append(guides, g)
	}

	loaded := 0
	for i, g := range guides {
		doc, err := f.MarshalGuide(g)
		if err != nil {
			return loaded, err
		}
		rec, err := store.GetGuideRecord(ctx, g.ID)
		switch {
		case err == nil && rec.ConfigJSON == doc:
			logger.Debug("guide unchanged", "guide_id", g.ID, "file", paths[i])
			continue
		case err != nil && !errors.Is(err, payroll.ErrGuideNotFound):
			return loaded, err
		}
		if err := store.SaveGuide(ctx, *g); err != nil {
			return loaded, err
		}
		logger.Info("loaded guide", "guide_id", g.ID, "file", paths[i])
		loaded++
	}
	return loaded, nil
}
