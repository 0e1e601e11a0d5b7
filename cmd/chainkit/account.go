package main

import (
	"fmt"
	"strings"

	"ChainKit/internal/web3/accounts"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

func newAddressCmd(c *cli) *cobra.Command {
	var chain, account string
	cmd := &cobra.Command{
		Use:   "address",
		Short: "Print the address of a named account",
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
			addr, err := a.factory.Address(cmd.Context(), id, account)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), addr.Hex())
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "chain key or id")
	cmd.Flags().StringVar(&account, "account", accounts.DefaultAccount, "account name")
	_ = cmd.MarkFlagRequired("chain")
	return cmd
}

func newSignCmd(c *cli) *cobra.Command {
	var (
		chain, account string
		text           bool
	)
	cmd := &cobra.Command{
		Use:   "sign <message>",
		Short: "Sign a personal message (EIP-191) with a named account",
		Long: `Sign a message with the "\x19Ethereum Signed Message:\n" prefix. The message
is hex decoded unless --text is given. The 65 byte signature is printed as hex
with V in {27, 28}.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.load(cmd.Context())
			if err != nil {
				return err
			}
			id, err := a.chain(chain)
			if err != nil {
				return err
			}

			message := []byte(args[0])
			if !text {
				raw := strings.TrimSpace(args[0])
				if !strings.HasPrefix(raw, "0x") {
					raw = "0x" + raw
				}
				message, err = hexutil.Decode(raw)
				if err != nil {
					return fmt.Errorf("decode message: %w", err)
				}
			}

			sig, err := a.factory.SignMessage(cmd.Context(), id, account, message)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
			return nil
		},
	}
	cmd.Flags().StringVar(&chain, "chain", "", "chain key or id")
	cmd.Flags().StringVar(&account, "account", accounts.DefaultAccount, "account name")
	cmd.Flags().BoolVar(&text, "text", false, "sign the argument as UTF-8 text instead of hex")
	_ = cmd.MarkFlagRequired("chain")
	return cmd
}
