package uploads

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/lazypower/spacetime/internal/memory"
)

// Sweep removes stored files that no cover URL references. Files written
// after cutoff are left alone, since an upload is stored before the memory
// that references it is created. With dryRun set nothing is removed. It
// returns the orphaned file names.
func Sweep(ctx context.Context, d *Disk, coverURLs []string, cutoff time.Time, dryRun bool) ([]string, error) {
	names, err := d.List()
	if err != nil {
		return nil, err
	}

	referenced := lo.SliceToMap(coverURLs, func(u string) (string, bool) {
		name, _ := memory.CoverFileName(u)
		return name, true
	})

	var orphans []string
	for _, name := range names {
		if referenced[name] {
			continue
		}
		mod, err := d.ModTime(name)
		if err != nil {
			return nil, fmt.Errorf("sweep: %w", err)
		}
		if mod.After(cutoff) {
			continue
		}
		orphans = append(orphans, name)
	}

	if dryRun {
		return orphans, nil
	}
	for _, name := range orphans {
		if err := d.Delete(ctx, name); err != nil {
			return nil, fmt.Errorf("sweep: %w", err)
		}
	}
	return orphans, nil
}
