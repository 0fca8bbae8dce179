package main

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/spf13/cobra"

	"latinize/internal/keys"
	"latinize/internal/latincache"
)

func TestExecuteFlushesStoreWhenCommandFails(t *testing.T) {
	env := setupCLITestEnv(t)
	failure := errors.New("import aborted")

	root, cc := newRootCommand()
	root.AddCommand(&cobra.Command{
		Use: "edit-then-fail",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cc.openStore(cmd)
			if err != nil {
				return err
			}
			store.SetTrack(keys.AlbumKey("pending"), latincache.Record{Title: "pending"})
			return failure
		},
	})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", env.configPath, "edit-then-fail"})

	err := execute(context.Background(), root, cc)
	if !errors.Is(err, failure) {
		t.Fatalf("expected command error, got %v", err)
	}
	if _, statErr := os.Stat(env.cachePath); statErr != nil {
		t.Fatalf("expected store flushed after failed command: %v", statErr)
	}

	reloaded := latincache.New(latincache.Options{Path: env.cachePath})
	if rec, ok := reloaded.Track(keys.AlbumKey("pending")); !ok || rec.Title != "pending" {
		t.Fatalf("expected pending edit persisted, got %+v (found=%v)", rec, ok)
	}
}

func TestExecuteClosesAfterCancelledRun(t *testing.T) {
	env := setupCLITestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root, cc := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"--config", env.configPath, "run", env.musicDir})

	if err := execute(ctx, root, cc); err == nil {
		t.Fatal("expected cancelled run to return an error")
	}
	if cc.logCloser != nil {
		t.Fatal("expected log sink released after cancelled run")
	}
	if cc.store != nil && !cc.storeClosed {
		t.Fatal("expected store closed after cancelled run")
	}
}
