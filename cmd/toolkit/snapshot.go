package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/qubicnetwork/go-universe/pkg/snapshots"
	"github.com/qubicnetwork/go-universe/pkg/universe"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect universe snapshots",
	Args:  cobra.ExactArgs(0),
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the epochs stored in the snapshot database",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, err := cmd.Flags().GetString("db")
		if err != nil {
			return fmt.Errorf("getting db flag: %s", err)
		}

		store, err := snapshots.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening snapshot store: %s", err)
		}
		defer func() { _ = store.Close() }()

		ctx, cls := context.WithTimeout(context.Background(), time.Second*30)
		defer cls()
		epochs, err := store.Epochs(ctx)
		if err != nil {
			return fmt.Errorf("listing epochs: %s", err)
		}
		for _, epoch := range epochs {
			cmd.Println(epoch)
		}
		return nil
	},
}

var snapshotInspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print occupancy statistics of a stored snapshot",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, _ []string) error {
		dbPath, err := cmd.Flags().GetString("db")
		if err != nil {
			return fmt.Errorf("getting db flag: %s", err)
		}
		epoch, err := cmd.Flags().GetInt64("epoch")
		if err != nil {
			return fmt.Errorf("getting epoch flag: %s", err)
		}

		store, err := snapshots.Open(dbPath)
		if err != nil {
			return fmt.Errorf("opening snapshot store: %s", err)
		}
		defer func() { _ = store.Close() }()

		ctx, cls := context.WithTimeout(context.Background(), time.Second*30)
		defer cls()

		var snap snapshots.Snapshot
		if epoch >= 0 {
			snap, err = store.Get(ctx, epoch)
		} else {
			snap, err = store.Latest(ctx)
		}
		if err != nil {
			return fmt.Errorf("loading snapshot: %s", err)
		}

		stats, err := universe.InspectSnapshot(snap.Data)
		if err != nil {
			return fmt.Errorf("inspecting snapshot: %s", err)
		}

		cmd.Printf("epoch:       %d\n", snap.Epoch)
		cmd.Printf("digest:      %s\n", snap.Digest)
		cmd.Printf("created:     %s\n", snap.CreatedAt.Format(time.RFC3339))
		cmd.Printf("capacity:    %d\n", stats.Capacity)
		cmd.Printf("population:  %d\n", stats.Population)
		cmd.Printf("issuances:   %d\n", stats.Issuances)
		cmd.Printf("ownerships:  %d\n", stats.Ownerships)
		cmd.Printf("possessions: %d\n", stats.Possessions)
		return nil
	},
}
