package main

import (
	"encoding/json"

	chainerrors "ChainKit/internal/errors"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newLogsCmd(c *cli) *cobra.Command {
	var (
		chain   string
		address []string
		topics  []string
		from    uint64
		to      uint64
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Fetch event logs for a block range, split by the chain's fetch limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.chain(chain)
			if err != nil {
				return err
			}
			cfg, err := a.factory.Network(id)
			if err != nil {
				return err
			}

			query := gethcore.FilterQuery{}
			for _, addr := range address {
				if !common.IsHexAddress(addr) {
					return chainerrors.Newf(chainerrors.CodeInvalidArgument, "invalid address %q", addr)
				}
				query.Addresses = append(query.Addresses, common.HexToAddress(addr))
			}
			if len(topics) > 0 {
				first := make([]common.Hash, len(topics))
				for i, topic := range topics {
					first[i] = common.HexToHash(topic)
				}
				query.Topics = [][]common.Hash{first}
			}

			client, err := a.factory.ReadOnlyClient(cmd.Context(), id)
			if err != nil {
				return err
			}
			logs, err := client.FilterLogsChunked(cmd.Context(), query, from, to, cfg.MaxFetchEventsPerCall)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, entry := range logs {
				if err := enc.Encode(entry); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "chain key or id")
	cmd.Flags().StringSliceVar(&address, "address", nil, "emitting contract address (repeatable)")
	cmd.Flags().StringSliceVar(&topics, "topic", nil, "accepted topic0 hash (repeatable)")
	cmd.Flags().Uint64Var(&from, "from", 0, "first block")
	cmd.Flags().Uint64Var(&to, "to", 0, "last block")
	for _, name := range []string{"chain", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}
