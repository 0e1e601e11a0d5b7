package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "chainkit",
		Short: "Read EVM chains through batched multicall requests",
		Long: `chainkit resolves per-chain RPC configuration, signs messages with named
accounts and batches contract reads into Multicall3 tryAggregate calls.

RPC endpoints are read from <KEY>_RPC_URL (for example POLYGON_RPC_URL) unless a
chain override file is configured. The dev account key is read from
PRIVATE_KEY_DEV. The JSON configuration path defaults to $CHAINKIT_CONFIG.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := c.load(cmd.Context())
			return err
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the JSON config file")

	root.AddCommand(
		newNetworksCmd(c),
		newAddressCmd(c),
		newSignCmd(c),
		newCallCmd(c),
		newLogsCmd(c),
		newServeCmd(c),
	)
	return root
}
