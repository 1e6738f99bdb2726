package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"medibot-be/internal/constant"
)

var ErrConversationNotFound = errors.New("conversation not found")

// Message is one chat turn. Sources is only populated on assistant messages
// and may be empty. Messages are never mutated after being appended.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Conversation struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	Messages  []Message `json:"messages"`
}

// Store holds the conversations of a single user session. It lives for the
// process lifetime only; nothing is persisted. One Store per session key, so
// cross-session sharing never happens, but Fiber may run two requests for the
// same session concurrently, hence the mutex.
type Store struct {
	mu            sync.Mutex
	conversations map[string]*Conversation
	order         []string // insertion order, for active-id reassignment on delete
	activeId      string
	counter       int
}

func NewStore() *Store {
	return &Store{
		conversations: make(map[string]*Conversation),
	}
}

// CreateConversation allocates a new conversation, makes it active and
// returns its id. Never fails.
func (s *Store) CreateConversation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() string {
	id := fmt.Sprintf("chat_%d", s.counter)
	s.counter++
	s.conversations[id] = &Conversation{
		Id:        id,
		Title:     fmt.Sprintf("%s %d", constant.DefaultTitlePrefix, s.counter),
		CreatedAt: time.Now(),
	}
	s.order = append(s.order, id)
	s.activeId = id
	return id
}

// ActiveMessages returns the active conversation's messages, creating a
// conversation first if none is active.
func (s *Store) ActiveMessages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeId == "" {
		s.createLocked()
	}
	return s.conversations[s.activeId].Messages
}

func (s *Store) SelectConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	s.activeId = id
	return nil
}

// DeleteConversation removes a conversation. If it was active, the most
// recently created remaining conversation becomes active, or none if the
// store is now empty.
func (s *Store) DeleteConversation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrConversationNotFound
	}
	delete(s.conversations, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeId == id {
		if len(s.order) > 0 {
			s.activeId = s.order[len(s.order)-1]
		} else {
			s.activeId = ""
		}
	}
	return nil
}

// AppendMessage adds a message to the active conversation, creating one if
// needed. The first user message of a conversation rewrites its title; later
// messages never touch it.
func (s *Store) AppendMessage(role, content string, sources ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeId == "" {
		s.createLocked()
	}
	conv := s.conversations[s.activeId]

	if len(conv.Messages) == 0 && role == constant.ChatMessageRoleUser &&
		strings.HasPrefix(conv.Title, constant.DefaultTitlePrefix) {
		conv.Title = truncateTitle(content)
	}

	conv.Messages = append(conv.Messages, Message{
		Role:      role,
		Content:   content,
		Sources:   sources,
		CreatedAt: time.Now(),
	})
}

func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.conversations = make(map[string]*Conversation)
	s.order = nil
	s.activeId = ""
}

func (s *Store) ActiveId() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeId
}

// Conversations lists all conversations newest-first, for the sidebar.
func (s *Store) Conversations() []*Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Conversation, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.conversations[s.order[i]])
	}
	return out
}

func (s *Store) Conversation(id string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func truncateTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= constant.TitleMaxLen {
		return text
	}
	return string(runes[:constant.TitleMaxLen]) + constant.TruncationMarker
}
