package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/multicall"
	"ChainKit/internal/web3/abiutil"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func newCallCmd(c *cli) *cobra.Command {
	var (
		chain, address, abiSource, method string
		block                             int64
	)
	cmd := &cobra.Command{
		Use:   "call [args...]",
		Short: "Read a contract method through the chain's multicall contract",
		Long: `Read a view method. --abi takes a path to a JSON ABI file or the JSON itself.
Arguments are converted by their ABI type: integers accept decimal or 0x hex,
bytes take 0x hex, arrays and tuples take JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.chain(chain)
			if err != nil {
				return err
			}
			if !common.IsHexAddress(address) {
				return chainerrors.Newf(chainerrors.CodeInvalidArgument, "invalid address %q", address)
			}

			raw, err := readABI(abiSource)
			if err != nil {
				return err
			}
			contractABI, err := abiutil.ParseABI(raw)
			if err != nil {
				return err
			}
			m, ok := contractABI.Methods[method]
			if !ok {
				return chainerrors.Newf(chainerrors.CodeInvalidArgument, "method %q not found in abi", method)
			}
			values := make([]any, len(args))
			for i, arg := range args {
				values[i] = arg
			}
			converted, err := abiutil.ConvertArgs(m, values)
			if err != nil {
				return err
			}

			var opts []multicall.CallOption
			if block > 0 {
				opts = append(opts, multicall.AtBlock(big.NewInt(block)))
			}
			results, err := a.aggregator.CallSingleContract(cmd.Context(), id, contractABI, []multicall.SingleCall{
				{Target: common.HexToAddress(address), Method: method, Args: converted},
			}, opts...)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(abiutil.FormatValues(results[0].Values))
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "chain key or id")
	cmd.Flags().StringVar(&address, "address", "", "contract address")
	cmd.Flags().StringVar(&abiSource, "abi", "", "ABI file path or inline JSON")
	cmd.Flags().StringVar(&method, "method", "", "method name")
	cmd.Flags().Int64Var(&block, "block", 0, "block number to read at (latest when 0)")
	for _, name := range []string{"chain", "address", "abi", "method"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func readABI(source string) (string, error) {
	trimmed := strings.TrimSpace(source)
	if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
		return trimmed, nil
	}
	content, err := os.ReadFile(trimmed)
	if err != nil {
		return "", fmt.Errorf("read abi: %w", err)
	}
	return string(content), nil
}
