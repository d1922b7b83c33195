// Package task 提供进程内的延迟任务队列
// 配对级联、在线状态清扫、计数落库这类副作用都走这里异步执行，
// 请求路径只负责投递，不等待执行结果
package task

import (
	"go.uber.org/zap"
)

// Queue 延迟任务队列
// 固定数量 Worker 消费一个有界缓冲通道。任务至少执行一次：
// 队列满时降级为同步执行而不是丢弃，执行失败只记日志，
// 需要续作的任务（如游标清扫）由任务自身重新投递
type Queue struct {
	taskChan  chan namedTask
	workerNum int
}

type namedTask struct {
	name   string
	action func() error
}

// NewQueue 创建任务队列并启动 Worker
func NewQueue(workerNum, bufferSize int) *Queue {
	q := &Queue{
		taskChan:  make(chan namedTask, bufferSize),
		workerNum: workerNum,
	}
	for i := 0; i < workerNum; i++ {
		go q.startWorker()
	}
	zap.L().Info("Task queue workers started", zap.Int("workers", workerNum), zap.Int("buffer", bufferSize))
	return q
}

// startWorker 单个 Worker 消费循环，panic 后自我重启
func (q *Queue) startWorker() {
	defer func() {
		if rec := recover(); rec != nil {
			zap.L().Error("Task worker panic", zap.Any("recover", rec))
			go q.startWorker()
		}
	}()

	for t := range q.taskChan {
		q.run(t)
	}
}

func (q *Queue) run(t namedTask) {
	if t.action == nil {
		return
	}
	if err := t.action(); err != nil {
		zap.L().Error("deferred task failed", zap.String("task", t.name), zap.Error(err))
	}
}

// Submit 投递一个延迟任务
// 队列满时降级为同步执行，保证任务不丢
func (q *Queue) Submit(name string, action func() error) {
	t := namedTask{name: name, action: action}
	select {
	case q.taskChan <- t:
		// 成功放入
	default:
		zap.L().Warn("task queue full, executing synchronously", zap.String("task", name))
		q.run(t)
	}
}
