package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/go-logr/zapr"
	"github.com/zfskit/zfskit/pkg/config"
	"github.com/zfskit/zfskit/pkg/models"
	"github.com/zfskit/zfskit/pkg/zfs"
	"github.com/zfskit/zfskit/pkg/zpool"
	"go.uber.org/zap"
	"k8s.io/klog/v2"
)

// Version can be set at build time using -ldflags
// Example: go build -ldflags="-X main.Version=1.0.0"
var Version = "dev"

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: zfsadm [flags] <status|pools|datasets|doctor|import-scan> [pool]\n")
	flag.PrintDefaults()
}

func main() {
	// Initialize klog first
	klog.InitFlags(nil)

	mode := flag.String("mode", "direct", "Operation mode: test, direct, or chroot")
	logLevel := flag.String("log-level", "info", "Log level: info or debug")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	dryRun := flag.Bool("dry-run", false, "Enable dry-run mode (no actual pool or dataset changes)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Printf("zfsadm version %s\n", Version)
		return
	}

	if *mode != "test" && *mode != "direct" && *mode != "chroot" {
		klog.Fatalf("Invalid mode: %s. Must be one of: test, direct, chroot", *mode)
	}
	if *logLevel != "info" && *logLevel != "debug" {
		klog.Fatalf("Invalid log level: %s. Must be one of: info, debug", *logLevel)
	}
	if *logFormat != "text" && *logFormat != "json" {
		klog.Fatalf("Invalid log format: %s. Must be one of: text, json", *logFormat)
	}
	if *logFormat == "json" {
		// Configure zap for JSON logging
		var zapLog *zap.Logger
		var err error
		if *logLevel == "debug" {
			zapLog, err = zap.NewDevelopment()
		} else {
			zapLog, err = zap.NewProduction()
		}
		if err != nil {
			klog.Fatalf("Failed to initialize JSON logger: %v", err)
		}
		defer zapLog.Sync()

		// Set klog to use zap backend for JSON output
		klog.SetLogger(zapr.NewLogger(zapLog))
	}
	if *logLevel == "debug" {
		flag.Set("v", "1")
	}

	cfg, err := config.NewConfig(*mode)
	if err != nil {
		klog.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.LogLevel = *logLevel
	if *dryRun {
		cfg.DryRun = true
		klog.Infof("Dry-run mode enabled via command-line flag")
	}

	if err := run(cfg, flag.Args()); err != nil {
		klog.Fatalf("zfsadm failed: %v", err)
	}
	klog.Flush()
}

func run(cfg *config.Config, args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing subcommand")
	}

	pools := zpool.NewManager(cfg)
	datasets := zfs.NewManager(cfg)

	switch args[0] {
	case "status":
		if len(args) > 1 {
			pool, err := pools.Status(args[1])
			if err != nil {
				return err
			}
			printStatus(pool)
			return nil
		}
		all, err := pools.StatusAll()
		if err != nil {
			return err
		}
		for _, pool := range all {
			printStatus(pool)
		}
		return nil

	case "pools":
		entries, err := pools.List()
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Printf("%s\t%s\t%s\t%s\t%s\t%s\n",
				entry.Name, entry.Size, entry.Alloc, entry.Free, entry.Cap, entry.Health)
		}
		return nil

	case "datasets":
		listed, err := datasets.ListTyped()
		if err != nil {
			return err
		}
		for _, ds := range listed {
			fmt.Printf("%s\t%s\n", ds.Type, ds.Name)
		}
		return nil

	case "doctor":
		all, err := pools.StatusAll()
		if err != nil {
			return err
		}
		healthy := true
		for _, pool := range all {
			if !cfg.IsPoolAllowed(pool.Name) {
				continue
			}
			problems := zpool.Evaluate(pool)
			if len(problems) == 0 {
				klog.Infof("Pool %s is healthy", pool.Name)
				continue
			}
			healthy = false
			for _, problem := range problems {
				klog.Warningf("Pool %s: %s", pool.Name, problem)
			}
		}
		if !healthy {
			return fmt.Errorf("one or more pools need attention")
		}
		return nil

	case "import-scan":
		available, err := pools.Available()
		if err != nil {
			return err
		}
		for _, pool := range available {
			id := ""
			if pool.ID != nil {
				id = fmt.Sprintf(" (id %d)", *pool.ID)
			}
			fmt.Printf("%s%s\t%s\n", pool.Name, id, pool.Health)
		}
		return nil
	}
	usage()
	return fmt.Errorf("unknown subcommand: %s", args[0])
}

func printStatus(pool *models.Zpool) {
	fmt.Printf("pool %s: %s\n", pool.Name, pool.Health)
	for _, vdev := range pool.Vdevs {
		if vdev.Kind != models.KindSingle {
			fmt.Printf("  %s (%s)\n", vdev.Kind, vdev.Health)
		}
		for _, disk := range vdev.Disks {
			fmt.Printf("    %s  %s\n", disk.Path, disk.Health)
		}
	}
	if pool.Errors != "" {
		fmt.Printf("  errors: %s\n", pool.Errors)
	}
}
