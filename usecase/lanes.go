package usecase

import (
	"hash/fnv"
	"sync"
)

const defaultLaneCount = 64

// ChatLanes serializes operations on the same chat. Chats are hashed onto a
// fixed set of mutexes, so unrelated chats may occasionally share a lane.
type ChatLanes struct {
	stripes []sync.Mutex
}

func NewChatLanes(n int) *ChatLanes {
	if n <= 0 {
		n = defaultLaneCount
	}
	return &ChatLanes{stripes: make([]sync.Mutex, n)}
}

// Lock acquires the lane of chatID and returns its unlock function.
func (l *ChatLanes) Lock(chatID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(chatID))
	m := &l.stripes[h.Sum32()%uint32(len(l.stripes))]
	m.Lock()
	return m.Unlock
}
