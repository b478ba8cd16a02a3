package store

import (
	"sync"

	"github.com/studieren/match_back/models"
)

const topicProfiles = "profiles"

func typeTopic(t models.ProfileType) string { return "profile_with_type:" + t.String() }

// Notifier 进程内变更通知，同一订阅者的多次通知会合并为一次
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]subscriber
}

type subscriber struct {
	topic string
	ch    chan struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]subscriber)}
}

// subscribe 返回的通道容量为 1，cancel 后不再收到通知
func (n *Notifier) subscribe(topic string) (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	n.subs[id] = subscriber{topic: topic, ch: ch}

	return ch, func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *Notifier) publish(topics ...string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, s := range n.subs {
		for _, topic := range topics {
			if s.topic != topic {
				continue
			}
			select {
			case s.ch <- struct{}{}:
			default:
			}
		}
	}
}

// sendLatest 丢弃未被读取的旧值，只保留最新列表
func sendLatest[T any](out chan T, v T) {
	select {
	case out <- v:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- v
}
