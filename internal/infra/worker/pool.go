// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain"
)

type Task func(ctx context.Context) error

// ErrStopped is returned by Submit once the pool was stopped or its context ended.
var ErrStopped = errors.New("worker pool stopped")

// Pool runs tasks on a fixed set of shards. Tasks submitted with the same key land
// on the same shard and run one at a time in submission order, so updates of one
// chat are handled sequentially while different chats proceed in parallel.
type Pool struct {
	wg     sync.WaitGroup
	shards []chan Task
	quit   chan struct{}
	stop   sync.Once
	log    *zerolog.Logger
}

func NewPool(workers, queue int, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = 64
	}
	l := logger.With().Str("component", "WorkerPool").Logger()
	p := &Pool{shards: make([]chan Task, workers), quit: make(chan struct{}), log: &l}
	for i := range p.shards {
		p.shards[i] = make(chan Task, queue)
	}
	return p
}

// Start launches one goroutine per shard. Cancelling ctx stops the pool like Stop.
func (p *Pool) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			p.stop.Do(func() { close(p.quit) })
		case <-p.quit:
		}
	}()
	for i, jobs := range p.shards {
		p.wg.Add(1)
		go func(id int, jobs <-chan Task) {
			defer p.wg.Done()
			defer p.drop(id, jobs)
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case task := <-jobs:
					p.run(ctx, id, task)
				}
			}
		}(i, jobs)
	}
}

func (p *Pool) run(ctx context.Context, id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Int("shard", id).Interface("panic", r).Msg("task panicked")
		}
	}()
	if err := task(ctx); err != nil {
		p.log.Error().Err(err).Int("shard", id).Msg("task error")
	}
}

// drop discards what is still queued on a shard that stopped and logs the loss.
func (p *Pool) drop(id int, jobs <-chan Task) {
	n := 0
	for {
		select {
		case <-jobs:
			n++
		default:
			if n > 0 {
				p.log.Warn().Int("shard", id).Int("dropped", n).Msg("queued tasks dropped at shutdown")
			}
			return
		}
	}
}

func (p *Pool) Stop() {
	p.stop.Do(func() { close(p.quit) })
	p.wg.Wait()
}

func (p *Pool) shard(key int64) int {
	n := int64(len(p.shards))
	i := key % n
	if i < 0 {
		i += n
	}
	return int(i)
}

// Submit queues task on the shard owning key. It never blocks: a saturated shard
// rejects the task with domain.ErrQueueFull, a stopped pool with ErrStopped.
func (p *Pool) Submit(key int64, task Task) error {
	if task == nil {
		return errors.New("nil task")
	}
	select {
	case <-p.quit:
		return ErrStopped
	default:
	}
	select {
	case p.shards[p.shard(key)] <- task:
		return nil
	default:
		return domain.ErrQueueFull
	}
}
