package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func newNetworksCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "networks",
		Short: "List supported chains and whether their RPC URL is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Chain ID", "Key", "RPC", "Max Multicall", "Block Time", "Multicall"})
			for _, id := range a.registry.Chains() {
				n, ok := a.registry.Config(id)
				if !ok {
					continue
				}
				rpc := "missing (" + n.RPCURLEnv + ")"
				if n.RPCURL != "" {
					rpc = "configured"
				}
				maxSize := "unbounded"
				if n.MaxMulticallSize > 0 {
					maxSize = strconv.Itoa(n.MaxMulticallSize)
				}
				table.Append([]string{
					strconv.FormatUint(uint64(n.ChainID), 10),
					n.Key,
					rpc,
					maxSize,
					n.BlockTime().String(),
					n.MulticallAddress.Hex(),
				})
			}
			table.Render()
			return nil
		},
	}
}
