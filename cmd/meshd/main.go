// meshd is a relay node. It reads len:u32|envelope frames on stdin and writes
// every forwarded envelope to stdout as len:u16|target|len:u32|envelope.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/996BC/996.Mesh/crypto"
	"github.com/996BC/996.Mesh/db"
	"github.com/996BC/996.Mesh/keystore"
	"github.com/996BC/996.Mesh/relay"
	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/serialize/envelope"
	"github.com/996BC/996.Mesh/utils"
	"github.com/ardanlabs/conf/v3"
	"github.com/howeyc/gopass"
)

var build = "develop"

var logger = utils.GetDefaultLog()

func main() {
	cfg, help, err := parseConfig()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Fprintln(os.Stderr, help)
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	utils.SetLogLevel(cfg.LogLevel)

	if err := run(cfg, os.Stdin, os.Stdout); err != nil {
		logger.Error("meshd stopped:%v\n", err)
		utils.Sync()
		os.Exit(1)
	}
	utils.Sync()
}

func run(cfg *config, in io.Reader, out io.Writer) error {
	if text, err := conf.String(cfg); err == nil {
		logger.Info("startup config:\n%s\n", text)
	}

	// db
	path := filepath.Join(cfg.DataPath, "db")
	if err := os.MkdirAll(path, 0700); err != nil {
		return err
	}
	d, err := db.Open(path)
	if err != nil {
		return fmt.Errorf("open database failed:%v", err)
	}
	defer d.Close()
	logger.Info("database initialize successfully under the data path:%s\n", path)

	// key store
	var pass []byte
	if cfg.Key.Sealed {
		fmt.Fprint(os.Stderr, "Enter passphrase: ")
		if pass, err = gopass.GetPasswdMasked(); err != nil {
			return err
		}
	}
	keys := keystore.NewStore(d, pass, crypto.DefaultSealParams)

	// relay
	r, err := relay.New(keys, relay.Config{
		KeyID:      cfg.Key.ID,
		Difficulty: cfg.Chain.difficulty(),
		Store:      d,
		OnDeliver: func(block *cp.Block, env *envelope.Envelope) {
			logger.Info("received block %d from %s\n", block.Index, crypto.PubToID(env.Pub))
		},
	}, relay.NewFramePublisher(out))
	if err != nil {
		return err
	}
	logger.Info("relay %s is up\n", crypto.PubToID(r.Self()))

	pool := relay.NewPool(r, cfg.Relay.Workers, cfg.Relay.Queue)
	pool.Start()
	defer pool.Stop()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sc)

	return serve(in, pool, sc)
}

type inputEnd struct {
	submitted int
	err       error
}

// serve feeds frames from in to the pool until the stream ends or a signal arrives.
// At the end of the stream it waits for the submitted frames to be handled.
func serve(in io.Reader, pool *relay.Pool, quit <-chan os.Signal) error {
	end := make(chan inputEnd, 1)
	go func() {
		submitted := 0
		for {
			frame, err := relay.ReadFrame(in)
			if err == nil {
				_, err = pool.Submit(frame)
			}
			if err != nil {
				end <- inputEnd{submitted: submitted, err: err}
				return
			}
			submitted++
		}
	}()

	handled, expect := 0, -1
	for expect < 0 || handled < expect {
		select {
		case <-quit:
			logger.Info("Quiting......\n")
			return nil
		case e := <-end:
			if e.err != io.EOF {
				return e.err
			}
			logger.Info("input closed after %d frames\n", e.submitted)
			expect = e.submitted
		case result := <-pool.Results():
			handled++
			report(result)
		}
	}
	return nil
}

func report(result *relay.Result) {
	if result.Err != nil {
		logger.Debug("frame %s dropped:%v\n", result.Trace, result.Err)
		return
	}
	logger.Debug("frame %s %v\n", result.Trace, result.Action)
}
