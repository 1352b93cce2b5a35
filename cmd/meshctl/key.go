package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/utils"
	"github.com/spf13/cobra"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage owned keys and imported public keys",
	}
	cmd.AddCommand(
		newKeyNewCmd(a),
		newKeyListCmd(a),
		newKeyPubCmd(a),
		newKeyImportPubCmd(a),
		newKeyBackupCmd(a),
		newKeyRestoreCmd(a),
	)
	return cmd
}

func newKeyNewCmd(a *app) *cobra.Command {
	var algoName, alias string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a new signing key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			algo, err := crypto.ParseAlgo(algoName)
			if err != nil {
				return err
			}
			keys, err := a.open()
			if err != nil {
				return err
			}
			info, err := keys.Generate(algo, alias)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %v %s\n", info.ID, displayAlias(info.Alias), info.Algo, crypto.PubToID(info.Pub))
			return nil
		},
	}
	cmd.Flags().StringVar(&algoName, "algo", crypto.AlgoSecp256k1.String(), "secp256k1 or dilithium3.")
	cmd.Flags().StringVar(&alias, "alias", "", "Name of the key.")
	return cmd
}

func newKeyListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List owned keys and imported public keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.open()
			if err != nil {
				return err
			}
			owned, err := keys.List()
			if err != nil {
				return err
			}
			foreign, err := keys.ListPub()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, k := range owned {
				fmt.Fprintf(out, "owned   %s %s %v sealed:%v created:%s %s\n", k.ID, displayAlias(k.Alias), k.Algo,
					k.Sealed, utils.TimeToString(k.Created), crypto.PubToID(k.Pub))
			}
			for _, f := range foreign {
				fmt.Fprintf(out, "foreign %s encrypt:%v added:%s %s %q\n", f.Alias, f.CanEncrypt,
					utils.TimeToString(f.Added), crypto.PubToID(f.Pub), f.Description)
			}
			return nil
		},
	}
}

func newKeyPubCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pub <key id>",
		Short: "Print the public key of an owned key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.open()
			if err != nil {
				return err
			}
			_, pub, err := keys.Resolve(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", utils.ToHex(pub), crypto.PubToID(pub))
			return nil
		},
	}
}

func newKeyImportPubCmd(a *app) *cobra.Command {
	var desc string
	var canEncrypt bool
	cmd := &cobra.Command{
		Use:   "import-pub <alias> <public key>",
		Short: "Import a foreign public key as hex or key id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := crypto.ParsePub(args[1])
			if err != nil {
				return err
			}
			keys, err := a.open()
			if err != nil {
				return err
			}
			return keys.ImportPub(args[0], pub, desc, canEncrypt)
		},
	}
	cmd.Flags().StringVar(&desc, "desc", "", "Description of the key owner.")
	cmd.Flags().BoolVar(&canEncrypt, "encrypt", false, "The key may be used for encryption.")
	return cmd
}

func newKeyBackupCmd(a *app) *cobra.Command {
	var dir string
	var seal bool
	cmd := &cobra.Command{
		Use:   "backup <key id>",
		Short: "Write an owned key to a pKey or sKey file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := a.open()
			if err != nil {
				return err
			}
			key, _, err := keys.Resolve(args[0])
			if err != nil {
				return err
			}

			keyType := crypto.PlainKeyType
			if seal {
				pass, err := a.passphrase(true)
				if err != nil {
					return err
				}
				if err := crypto.SaveSKey(dir, args[0], key, pass, a.sealParams); err != nil {
					return err
				}
				keyType = crypto.SealKeyType
			} else if err := crypto.SavePKey(dir, args[0], key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), crypto.KeyFilePath(dir, args[0], keyType))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory of the key file.")
	cmd.Flags().BoolVar(&seal, "seal", true, "Seal the key file with a passphrase.")
	return cmd
}

func newKeyRestoreCmd(a *app) *cobra.Command {
	var alias string
	cmd := &cobra.Command{
		Use:   "restore <key file>",
		Short: "Import an owned key from a pKey or sKey file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.RestoreKeyFile(args[0], func() ([]byte, error) {
				return a.passphrase(false)
			})
			if err != nil {
				return err
			}
			keys, err := a.open()
			if err != nil {
				return err
			}

			id := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			info, err := keys.Import(id, alias, key)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %v %s\n", info.ID, displayAlias(info.Alias), info.Algo, crypto.PubToID(info.Pub))
			return nil
		},
	}
	cmd.Flags().StringVar(&alias, "alias", "", "Name of the key.")
	return cmd
}

// displayAlias keeps the whitespace separated key lines at a fixed field count
func displayAlias(alias string) string {
	if alias == "" {
		return "-"
	}
	return alias
}
