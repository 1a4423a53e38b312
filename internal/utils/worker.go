package utils

import (
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	TaskChanSize = 100
)

type WorkerFunction = func(t *tomb.Tomb, task any) error

type WorkerPool struct {
	n     int      // number of workers
	tasks chan any // pending tasks
}

func NewWorkerPool(size uint) *WorkerPool {
	if size == 0 {
		size = 1
	}
	return &WorkerPool{
		n:     int(size),
		tasks: make(chan any, TaskChanSize),
	}
}

func (pool *WorkerPool) Size() int { return pool.n }

// Setup starts the workers under t. A worker returning an error kills t.
func (pool *WorkerPool) Setup(t *tomb.Tomb, work WorkerFunction) {
	for id := 0; id < pool.n; id++ {
		t.Go(func() error {
			return pool.worker(t, id, work)
		})
	}
}

// AddTask queues a task, blocking while the queue is full. It reports false
// if t dies first.
func (pool *WorkerPool) AddTask(t *tomb.Tomb, task any) bool {
	if !t.Alive() {
		return false
	}
	select {
	case <-t.Dying():
		return false
	case pool.tasks <- task:
		return true
	}
}

// TryAddTask queues a task without blocking. It reports false if the queue
// is full or t is dying.
func (pool *WorkerPool) TryAddTask(t *tomb.Tomb, task any) bool {
	if !t.Alive() {
		return false
	}
	select {
	case pool.tasks <- task:
		return true
	default:
		return false
	}
}

// Workers wait on tasks in the task queue and action them.
func (pool *WorkerPool) worker(t *tomb.Tomb, id int, work WorkerFunction) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case task := <-pool.tasks:
			if err := work(t, task); err != nil {
				log.Error().Err(err).Int("id", id).Msg("worker exiting")
				return err
			}
		}
	}
}
