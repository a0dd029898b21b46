package main

import (
	"github.com/spf13/cobra"
)

var cliName = "toolkit"

var rootCmd = &cobra.Command{
	Use:   cliName,
	Short: "toolkit is a CLI for universe node operators",
	Long:  `toolkit is a CLI for universe node operators executing mundane tasks`,
	Args:  cobra.ExactArgs(0),
}

func main() {
	rootCmd.Execute() //nolint
}

func init() {
	rootCmd.AddCommand(assetNameCmd)
	rootCmd.AddCommand(snapshotCmd)

	assetNameCmd.AddCommand(assetNamePackCmd)
	assetNameCmd.AddCommand(assetNameUnpackCmd)

	snapshotCmd.PersistentFlags().String("db", "snapshots.db", "Path to the snapshot database")
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotInspectCmd)
	snapshotInspectCmd.Flags().Int64("epoch", -1, "Epoch to inspect (-1 inspects the latest)")
}
