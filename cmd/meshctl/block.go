package main

import (
	"context"
	"fmt"
	"time"

	"github.com/996BC/996.Mesh/core"
	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/utils"
	"github.com/spf13/cobra"
)

type mineFlags struct {
	index       uint64
	prev        string
	payload     string
	nonce       uint64
	tCost       uint32
	mCost       uint32
	pCost       uint32
	nBits       uint8
	hashLen     uint8
	parallel    int
	maxAttempts uint64
	timeout     time.Duration
}

func newBlockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "block",
		Short: "Build and mine blocks",
	}
	cmd.AddCommand(newBlockMineCmd(a))
	return cmd
}

func newBlockMineCmd(a *app) *cobra.Command {
	f := &mineFlags{}
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Search the nonce of a block and print it as hex",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			block, err := f.block()
			if err != nil {
				return err
			}

			ctx := context.Background()
			if f.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, f.timeout)
				defer cancel()
			}

			result, err := core.NewMiner(f.parallel).Mine(ctx, block, f.maxAttempts)
			if err != nil && result == nil {
				return err
			}
			if !result.Found {
				return fmt.Errorf("no nonce found after %d attempts, resume from %d", result.Attempts, result.Next)
			}

			data, err := block.WithNonce(result.Nonce).Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "nonce %d found after %d attempts\n", result.Nonce, result.Attempts)
			fmt.Fprintln(cmd.OutOrStdout(), utils.ToHex(data))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&f.index, "index", 0, "Height of the block in its chain.")
	flags.StringVar(&f.prev, "prev", "", "Hex hash of the previous block, zero hash when empty.")
	flags.StringVar(&f.payload, "payload", "", "Hex payload.")
	flags.Uint64Var(&f.nonce, "nonce", 0, "First nonce to try.")
	flags.Uint32Var(&f.tCost, "t-cost", params.DefaultTCost, "Argon2 passes.")
	flags.Uint32Var(&f.mCost, "m-cost", params.DefaultMCost, "Argon2 memory in KiB.")
	flags.Uint32Var(&f.pCost, "p-cost", params.DefaultPCost, "Argon2 lanes.")
	flags.Uint8Var(&f.nBits, "n-bits", params.DefaultNBits, "Required leading zero bits.")
	flags.Uint8Var(&f.hashLen, "hash-len", params.DefaultHashLen, "Digest length in bytes.")
	flags.IntVar(&f.parallel, "parallel", 1, "Mining goroutines.")
	flags.Uint64Var(&f.maxAttempts, "max-attempts", 0, "Give up after this many nonces, 0 for no limit.")
	flags.DurationVar(&f.timeout, "timeout", 0, "Give up after this long, 0 for no limit.")
	return cmd
}

func (f *mineFlags) block() (*cp.Block, error) {
	prev := utils.ZeroHash
	if f.prev != "" {
		var err error
		if prev, err = decodeHex("prev", f.prev); err != nil {
			return nil, err
		}
	}
	payload, err := decodeHex("payload", f.payload)
	if err != nil {
		return nil, err
	}

	d := cp.NewDifficulty(f.tCost, f.mCost, f.pCost, f.nBits, f.hashLen)
	return cp.NewBlock(f.index, prev, d, payload).WithNonce(f.nonce), nil
}
