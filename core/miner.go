package core

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/996BC/996.Mesh/serialize/cp"
	"github.com/996BC/996.Mesh/utils"
)

var logger = utils.NewLogger("core")

// MineResult is the outcome of a nonce search.
// Next is the first nonce not yet tried, a later search can resume from it.
type MineResult struct {
	Found    bool
	Nonce    uint64
	Attempts uint64
	Next     uint64
}

// Miner searches nonces on its own goroutines, verification work never runs on them
type Miner struct {
	parallel int
}

func NewMiner(parallel int) *Miner {
	if parallel < 1 {
		parallel = 1
	}
	return &Miner{parallel: parallel}
}

// Mine tries nonces from block.Nonce upwards until one meets the block difficulty,
// maxAttempts nonces were tried (0 means no limit) or ctx is done.
// Exhaustion is a result with Found false, cancellation returns ctx.Err().
func (m *Miner) Mine(ctx context.Context, block *cp.Block, maxAttempts uint64) (*MineResult, error) {
	// no nonce meets a difficulty the hash refuses, fail instead of spinning
	if err := block.Difficulty.Validate(); err != nil {
		return nil, err
	}
	caches := make([]*cp.PowCache, m.parallel)
	for i := range caches {
		pc, err := cp.NewPowCache(block)
		if err != nil {
			return nil, err
		}
		caches[i] = pc
	}

	mineCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var claimed uint64
	found := make(chan uint64, m.parallel)
	var wg sync.WaitGroup

	for _, pc := range caches {
		wg.Add(1)
		go m.pow(mineCtx, &wg, pc, block.Nonce, maxAttempts, &claimed, found)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	result := &MineResult{}
	select {
	case nonce := <-found:
		cancel()
		<-done
		result.Found = true
		result.Nonce = nonce
	case <-done:
		select {
		case nonce := <-found:
			result.Found = true
			result.Nonce = nonce
		default:
		}
	}

	result.Attempts = atomic.LoadUint64(&claimed)
	if maxAttempts != 0 && result.Attempts > maxAttempts {
		result.Attempts = maxAttempts
	}
	result.Next = block.Nonce + result.Attempts

	if !result.Found {
		if err := ctx.Err(); err != nil {
			logger.Debug("mining block %d cancelled after %d attempts\n", block.Index, result.Attempts)
			return result, err
		}
		logger.Debug("pow not found for block %d in %d attempts\n", block.Index, result.Attempts)
		return result, nil
	}

	logger.Debug("found nonce %d for block %d after %d attempts\n", result.Nonce, block.Index, result.Attempts)
	return result, nil
}

func (m *Miner) pow(ctx context.Context, wg *sync.WaitGroup, pc *cp.PowCache, start uint64,
	maxAttempts uint64, claimed *uint64, found chan<- uint64) {

	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		k := atomic.AddUint64(claimed, 1) - 1
		if maxAttempts != 0 && k >= maxAttempts {
			return
		}

		nonce := start + k
		if pc.Check(nonce) {
			found <- nonce
			return
		}
	}
}
