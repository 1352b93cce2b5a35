package main

import (
	"fmt"
	"strings"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/keystore"
	"github.com/996BC/996.Mesh/params"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/envelope"
	"github.com/996BC/996.Mesh/transfer"
	"github.com/996BC/996.Mesh/utils"
	"github.com/spf13/cobra"
)

func newEnvelopeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Pack, inspect and annotate envelopes",
	}
	cmd.AddCommand(newEnvelopePackCmd(a), newEnvelopeUnpackCmd(a), newEnvelopeAddCmdCmd(a))
	return cmd
}

func newEnvelopePackCmd(a *app) *cobra.Command {
	var keyID, target string
	cmd := &cobra.Command{
		Use:   "pack <block hex>",
		Short: "Sign a mined block into an envelope for target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := decodeHex("block", args[0])
			if err != nil {
				return err
			}
			block, err := cp.BlockFromBytes(data)
			if err != nil {
				return err
			}

			keys, err := a.open()
			if err != nil {
				return err
			}
			targetPub, err := resolveTarget(keys, target)
			if err != nil {
				return err
			}

			packed, err := transfer.NewPackager(keys).Pack(keyID, block, targetPub)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), utils.ToHex(packed))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyID, "key", "", "Owned key signing the block.")
	cmd.Flags().StringVar(&target, "target", "", "Alias, key id or hex public key of the receiver.")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newEnvelopeUnpackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unpack <envelope hex>",
		Short: "Decode an envelope and check its signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packed, err := decodeHex("envelope", args[0])
			if err != nil {
				return err
			}
			u, err := transfer.NewPackager(keystore.NewMemory()).Unpack(packed)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			env := u.Envelope
			fmt.Fprintf(out, "sender   %s\n", crypto.PubToID(env.Pub))
			fmt.Fprintf(out, "target   %s\n", crypto.PubToID(env.Target))
			fmt.Fprintf(out, "verified %v\n", u.Verified)
			if env.Command != nil {
				fmt.Fprintf(out, "command  %v by %s %v\n", env.Command.Cmd, crypto.PubToID(env.Command.CPub), u.Cmd)
			}
			if block, err := cp.BlockFromBytes(env.Data); err == nil {
				fmt.Fprintf(out, "block    %v valid pow:%v\n", block, block.Verify())
			} else {
				fmt.Fprintf(out, "data     %s\n", utils.ShortHex(env.Data))
			}
			return nil
		},
	}
}

func newEnvelopeAddCmdCmd(a *app) *cobra.Command {
	var keyID, name string
	cmd := &cobra.Command{
		Use:   "addcmd <envelope hex>",
		Short: "Annotate an envelope with a signed command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseCmd(name)
			if err != nil {
				return err
			}
			packed, err := decodeHex("envelope", args[0])
			if err != nil {
				return err
			}
			env, err := envelope.Deserialize(packed)
			if err != nil {
				return err
			}

			keys, err := a.open()
			if err != nil {
				return err
			}
			annotated, err := transfer.NewPackager(keys).AddCmd(env, keyID, c)
			if err != nil {
				return err
			}
			result, err := envelope.Serialize(annotated)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), utils.ToHex(result))
			return nil
		},
	}
	cmd.Flags().StringVar(&keyID, "key", "", "Owned key signing the command.")
	cmd.Flags().StringVar(&name, "cmd", "", "broadcast, synchronize or handshake_encryption.")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("cmd")
	return cmd
}

// resolveTarget accepts an imported alias before a literal key
func resolveTarget(keys keystore.Resolver, target string) ([]byte, error) {
	if pub, err := keys.ResolvePub(target); err == nil {
		return pub, nil
	}
	return crypto.ParsePub(target)
}

func parseCmd(name string) (params.Cmd, error) {
	for _, c := range []params.Cmd{params.CmdBroadcast, params.CmdSynchronize, params.CmdHandshakeEncryption} {
		if strings.EqualFold(name, c.String()) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown command %q", name)
}
