// meshctl manages keys, mines blocks and packs envelopes for a mesh node
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/db"
	"github.com/996BC/996.Mesh/keystore"
	"github.com/996BC/996.Mesh/utils"
	"github.com/howeyc/gopass"
	"github.com/spf13/cobra"
)

type app struct {
	dataDir    string
	logLevel   int
	sealed     bool
	sealParams crypto.SealParams
	passphrase func(confirm bool) ([]byte, error)

	d    *db.DB
	keys *keystore.Store
}

func main() {
	a := newApp()
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		os.Exit(1)
	}
}

func newApp() *app {
	return &app{
		sealParams: crypto.DefaultSealParams,
		passphrase: promptPassphrase,
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "meshctl",
		Short:        "Manage keys, blocks and envelopes of a mesh node",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logLevel < utils.LogErrorLevel || a.logLevel > utils.LogDebugLevel {
				return fmt.Errorf("invalid log level:%d", a.logLevel)
			}
			utils.SetLogLevel(a.logLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&a.dataDir, "data", "d", "mesh-data", "Path to the data directory.")
	root.PersistentFlags().IntVar(&a.logLevel, "log-level", utils.LogWarnLevel, "0 error, 1 warn, 2 info, 3 debug.")
	root.PersistentFlags().BoolVar(&a.sealed, "sealed", false, "Seal owned keys with a passphrase.")

	root.AddCommand(newKeyCmd(a), newBlockCmd(a), newEnvelopeCmd(a), newChainCmd(a))
	return root
}

// open lazily opens the database and the key store under dataDir
func (a *app) open() (*keystore.Store, error) {
	if a.keys != nil {
		return a.keys, nil
	}

	path := filepath.Join(a.dataDir, "db")
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, err
	}
	d, err := db.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open database failed:%v", err)
	}

	var pass []byte
	if a.sealed {
		if pass, err = a.passphrase(false); err != nil {
			d.Close()
			return nil, err
		}
	}

	a.d = d
	a.keys = keystore.NewStore(d, pass, a.sealParams)
	return a.keys, nil
}

func (a *app) close() {
	if a.d != nil {
		a.d.Close()
		a.d, a.keys = nil, nil
	}
	utils.Sync()
}

func promptPassphrase(confirm bool) ([]byte, error) {
	fmt.Print("Enter passphrase: ")
	pass, err := gopass.GetPasswdMasked()
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, fmt.Errorf("empty passphrase")
	}
	if !confirm {
		return pass, nil
	}

	fmt.Print("Repeat passphrase: ")
	again, err := gopass.GetPasswdMasked()
	if err != nil {
		return nil, err
	}
	if string(pass) != string(again) {
		return nil, fmt.Errorf("passphrases do not match")
	}
	return pass, nil
}

func decodeHex(name string, s string) ([]byte, error) {
	result, err := utils.FromHex(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s hex: %v", name, err)
	}
	return result, nil
}
