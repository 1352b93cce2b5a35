package main

import (
	"fmt"

	"github.com/996BC/996.Mesh/core/blockchain"
	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/utils"
	"github.com/spf13/cobra"
)

func newChainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Inspect beam chains stored by the relay",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "view <public key>",
		Short: "Print the stored blocks of a beam",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := crypto.ParsePub(args[0])
			if err != nil {
				return err
			}
			if _, err := a.open(); err != nil {
				return err
			}
			blocks, err := a.d.GetChainBlocks(pub)
			if err != nil {
				return err
			}
			c, err := blockchain.New(pub, cp.Difficulty{}, a.d)
			if err != nil {
				return err
			}
			root, err := c.Root()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "beam %s height %d root %s\n", crypto.PubToID(pub), len(blocks), utils.ToHex(root))
			for _, b := range blocks {
				fmt.Fprintf(out, "%v received:%s hash:%s\n", b.Block, utils.TimeToString(b.Received),
					utils.ToHex(b.Hash()))
			}
			return nil
		},
	})
	return cmd
}
