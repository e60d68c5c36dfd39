package command

import "sync"

// Mailbox is the single-slot latched command used on addressed transports,
// where the inbound command and the request for its response arrive as two
// separate events. The write event latches the command; the read event
// serves from the latch and clears it.
//
// Last write wins: a second command arriving before the first is served
// replaces it. A read event with nothing latched serves the zero byte, which
// decodes as an unrecognized command and yields the error sentinel.
type Mailbox struct {
	mu        sync.Mutex
	responder *Responder
	pending   byte
}

// NewMailbox builds a Mailbox answering from responder.
func NewMailbox(responder *Responder) *Mailbox {
	return &Mailbox{responder: responder}
}

// Latch records the inbound command byte, replacing any unserved one.
func (m *Mailbox) Latch(cmd byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = cmd
}

// Serve answers the latched command and clears the latch.
func (m *Mailbox) Serve() []byte {
	m.mu.Lock()
	cmd := m.pending
	m.pending = 0
	m.mu.Unlock()
	return m.responder.Respond(cmd)
}
