// Command trackgen generates a race track, optionally storing it in the
// track database and rendering it to an image.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/circuit/internal/config"
	"github.com/banshee-data/circuit/internal/monitoring"
	"github.com/banshee-data/circuit/internal/track"
	"github.com/banshee-data/circuit/internal/trackplot"
	"github.com/banshee-data/circuit/internal/trackstore"
	"github.com/banshee-data/circuit/internal/version"
)

var (
	seed        = flag.Uint64("seed", 1, "Random seed for checkpoint placement")
	configPath  = flag.String("config", "", "Simulation config JSON (defaults compiled in)")
	dbPath      = flag.String("db", "", "Track database to store the generated track in")
	plotPath    = flag.String("plot", "", "Write a rendering of the track to this file (.png, .svg, .pdf)")
	maxAttempts = flag.Int("attempts", 0, "Override the generation retry cap")
	list        = flag.Bool("list", false, "List tracks stored in -db and exit")
	deleteID    = flag.String("delete", "", "Delete the stored track with this id from -db and exit")
	rollback    = flag.Bool("rollback", false, "Roll back the most recent -db schema migration and exit")
	verbose     = flag.Bool("v", false, "Log generation diagnostics")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

type options struct {
	seed        uint64
	configPath  string
	dbPath      string
	plotPath    string
	maxAttempts int
	list        bool
	deleteID    string
	rollback    bool
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("trackgen"))
		return
	}
	monitoring.SetLogWriters(monitoring.LogWriters{Ops: os.Stderr})
	if *verbose {
		monitoring.SetLogWriters(monitoring.LogWriters{Ops: os.Stderr, Diag: os.Stderr})
	}

	opts := options{
		seed:        *seed,
		configPath:  *configPath,
		dbPath:      *dbPath,
		plotPath:    *plotPath,
		maxAttempts: *maxAttempts,
		list:        *list,
		deleteID:    *deleteID,
		rollback:    *rollback,
	}
	if err := run(context.Background(), opts, os.Stdout); err != nil {
		log.Fatalf("trackgen: %v", err)
	}
}

func loadConfig(path string) (*config.SimConfig, error) {
	if path == "" {
		return config.EmptySimConfig(), nil
	}
	return config.LoadSimConfig(path)
}

func run(ctx context.Context, opts options, out io.Writer) error {
	if opts.list || opts.deleteID != "" || opts.rollback {
		return maintain(ctx, opts, out)
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	tcfg := track.ConfigFromSim(cfg)
	if opts.maxAttempts > 0 {
		tcfg.MaxAttempts = opts.maxAttempts
	}

	gen := track.NewGenerator(tcfg, track.NewSource(opts.seed))
	t, attempts, err := gen.GenerateWithRetry()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "seed %d: %d samples, length %.1f, closure gap %.3f, %d attempt(s)\n",
		opts.seed, t.Len(), t.Length(), t.ClosureGap(), attempts)

	if opts.dbPath != "" {
		store, err := trackstore.Open(opts.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(ctx, t, opts.seed, attempts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "stored as %s\n", id)
	}

	if opts.plotPath != "" {
		title := fmt.Sprintf("seed %d", opts.seed)
		if err := trackplot.Render(t, nil, opts.plotPath, trackplot.Options{Title: title}); err != nil {
			return err
		}
		fmt.Fprintf(out, "plot written to %s\n", opts.plotPath)
	}
	return nil
}

// maintain runs the database-only operations: rollback, delete, list.
func maintain(ctx context.Context, opts options, out io.Writer) error {
	if opts.dbPath == "" {
		return fmt.Errorf("-list, -delete and -rollback require -db")
	}
	store, err := trackstore.Open(opts.dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if opts.rollback {
		if err := store.MigrateDown(); err != nil {
			return err
		}
		v, _, err := store.MigrateVersion()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "schema rolled back to version %d\n", v)
		return nil
	}
	if opts.deleteID != "" {
		if err := store.Delete(ctx, opts.deleteID); err != nil {
			return fmt.Errorf("deleting track %s: %w", opts.deleteID, err)
		}
		fmt.Fprintf(out, "deleted %s\n", opts.deleteID)
	}
	if opts.list {
		return listTracks(ctx, store, out)
	}
	return nil
}

func listTracks(ctx context.Context, store *trackstore.Store, out io.Writer) error {
	v, dirty, err := store.MigrateVersion()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "schema version %d (dirty=%t)\n", v, dirty)

	tracks, err := store.List(ctx)
	if err != nil {
		return err
	}
	for _, s := range tracks {
		fmt.Fprintf(out, "%s  seed=%-10d samples=%-4d length=%7.1f  %s\n",
			s.ID, s.Seed, s.Samples, s.Length, s.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
