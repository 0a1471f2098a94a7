package agent

import (
	"container/heap"
	"time"

	"github.com/more-free/agentd/protocol"
)

// pendingUpdate is one status update awaiting the master's acknowledgement
// (spec §4.5). It is the agent's analogue of framework.updates.
type pendingUpdate struct {
	update    protocol.StatusUpdate
	tries     int
	nextRetry time.Time
}

// retryQueue orders pendingUpdates by nextRetry, the same container/heap
// shape util.PriorityQueue uses to order trigger posts by StartTime.
type retryQueue []*pendingUpdate

func (q retryQueue) Len() int            { return len(q) }
func (q retryQueue) Less(i, j int) bool  { return q[i].nextRetry.Before(q[j].nextRetry) }
func (q retryQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *retryQueue) Push(x interface{}) { *q = append(*q, x.(*pendingUpdate)) }
func (q *retryQueue) Pop() interface{} {
	old := *q
	n := len(old)
	x := old[n-1]
	*q = old[:n-1]
	return x
}

// retryScheduler wraps retryQueue the way util.PostPriorityQueue wraps
// util.PriorityQueue: Update re-heapifies by removing then re-adding, same
// TODO about heap.Fix being more efficient for a large pending set.
type retryScheduler struct {
	pq retryQueue
}

func newRetryScheduler() *retryScheduler {
	pq := make(retryQueue, 0)
	heap.Init(&pq)
	return &retryScheduler{pq: pq}
}

func (s *retryScheduler) push(p *pendingUpdate) {
	heap.Push(&s.pq, p)
}

func (s *retryScheduler) peek() *pendingUpdate {
	if s.pq.Len() == 0 {
		return nil
	}
	return s.pq[0]
}

func (s *retryScheduler) pop() *pendingUpdate {
	if s.pq.Len() == 0 {
		return nil
	}
	return heap.Pop(&s.pq).(*pendingUpdate)
}

// remove drops every pendingUpdate for taskID, used once an ack arrives.
//
// TODO use an index map instead of rebuilding the heap, same as
// PostPriorityQueue.Update does for its task-id keyed case.
func (s *retryScheduler) remove(taskID protocol.TaskID) {
	back := make([]*pendingUpdate, 0, s.pq.Len())
	for s.pq.Len() > 0 {
		p := s.pop()
		if p.update.Status.TaskID != taskID {
			back = append(back, p)
		}
	}
	for _, p := range back {
		s.push(p)
	}
}

func (s *retryScheduler) len() int { return s.pq.Len() }
