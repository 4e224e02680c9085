package main

import (
	"testing"

	"github.com/Nomadcxx/cinesync/internal/config"
)

func TestBuildOptionsFlagOverrides(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Library.SourceDirs = []string{"/src"}
	cfg.Library.DestDir = "/dest"
	cfg.Organize.Rename = true
	cfg.Organize.Collections = true
	cfg.Organize.Workers = 4

	// Simulate `organize --no-collections --workers 8`.
	if err := organizeCmd.Flags().Set("no-collections", "true"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}
	if err := organizeCmd.Flags().Set("workers", "8"); err != nil {
		t.Fatalf("setting flag: %v", err)
	}
	noCollections = true
	workers = 8
	defer func() {
		noCollections = false
		workers = 0
		organizeCmd.Flags().Set("no-collections", "false")
		organizeCmd.Flags().Set("workers", "0")
	}()

	opts := buildOptions(cfg, organizeCmd)

	if opts.Collections {
		t.Error("--no-collections did not override the config")
	}
	if opts.Workers != 8 {
		t.Errorf("Workers = %d, want 8 (flag override)", opts.Workers)
	}
	if !opts.Rename {
		t.Error("config rename=true was lost without a flag override")
	}
	if opts.DestDir != "/dest" {
		t.Errorf("DestDir = %q, want %q", opts.DestDir, "/dest")
	}
}

func TestBuildOptionsConfigDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Library.SourceDirs = []string{"/incoming"}
	cfg.Library.DestDir = "/library"
	cfg.Organize.AutoSelect = true
	cfg.Organize.FolderID = "tmdb"

	opts := buildOptions(cfg, organizeCmd)

	if !opts.AutoSelect {
		t.Error("config auto_select=true was not carried into the options")
	}
	if opts.FolderID != "tmdb" {
		t.Errorf("FolderID = %q, want %q", opts.FolderID, "tmdb")
	}
	if len(opts.SourceDirs) != 1 || opts.SourceDirs[0] != "/incoming" {
		t.Errorf("SourceDirs = %v, want [/incoming]", opts.SourceDirs)
	}
}
