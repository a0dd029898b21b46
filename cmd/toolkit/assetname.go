package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/qubicnetwork/go-universe/pkg/universe"
)

var assetNameCmd = &cobra.Command{
	Use:   "assetname",
	Short: "Asset name packing helpers",
	Long:  `Pack ASCII asset names into their uint64 wire form and back`,
	Args:  cobra.ExactArgs(0),
}

var assetNamePackCmd = &cobra.Command{
	Use:   "pack {name}",
	Short: "Pack an ASCII asset name into its uint64 wire form",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := universe.PackAssetName(args[0])
		if err != nil {
			return fmt.Errorf("packing name: %s", err)
		}
		cmd.Printf("%d (0x%014x)\n", uint64(name), uint64(name))
		return nil
	},
}

var assetNameUnpackCmd = &cobra.Command{
	Use:   "unpack {value}",
	Short: "Unpack a uint64 wire value into its ASCII asset name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("parsing value: %s", err)
		}
		name := universe.AssetName(value)
		if !name.Valid() {
			return fmt.Errorf("%d doesn't decode to a valid asset name", value)
		}
		cmd.Println(name.String())
		return nil
	},
}
