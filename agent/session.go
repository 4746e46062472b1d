package agent

import "fmt"

// Session holds one client's conversation context and step counter.
//
// The context, when non-empty, always starts with one system message
// followed by alternating user/assistant messages. At most one message
// carries image data: the latest user message. Advance enforces this by
// stripping the image out of the previous last message before appending
// the new one, so the payload sent to the model holds exactly one live
// screenshot regardless of step count.
//
// A Session is not safe for concurrent use. Each connection's loop is the
// sole owner; the wire protocol is strictly request/response per client.
type Session struct {
	clientID     string
	systemPrompt string
	context      Messages
	step         int
}

// NewSession creates an empty session for a client. The session carries no
// context until Init is called.
func NewSession(clientID, systemPrompt string) *Session {
	return &Session{
		clientID:     clientID,
		systemPrompt: systemPrompt,
	}
}

// ClientID returns the client identifier this session belongs to.
func (s *Session) ClientID() string { return s.clientID }

// Step returns the current step counter (0 before the first Init).
func (s *Session) Step() int { return s.step }

// Initialized returns true once Init has run.
func (s *Session) Initialized() bool { return len(s.context) > 0 }

// Init starts a task: it replaces any prior context with the system prompt
// plus the first user message (task text, screen info, first screenshot)
// and resets the step counter to 1. Callable from any state — a client may
// re-init mid-connection to begin a new task without reconnecting.
//
// Returns ErrInvalidInput if screenshot is empty; the session is untouched.
func (s *Session) Init(task, screenInfo, screenshot string) error {
	if screenshot == "" {
		return fmt.Errorf("%w: missing screenshot", ErrInvalidInput)
	}

	text := fmt.Sprintf("%s\n\nScreen Info: %s", task, screenInfo)
	s.context = Messages{
		SystemMessage(s.systemPrompt),
		UserMessage(text, screenshot),
	}
	s.step = 1
	return nil
}

// Advance records the next observed screen. It strips the image out of the
// previous step's user message (compaction, strictly before the append) and
// then appends a user message carrying screenInfo and the new screenshot.
// The assistant record between the two user messages carries no image and is
// never touched.
//
// Returns ErrNotInitialized if no Init has run, ErrInvalidInput if
// screenshot is empty; in both cases the session is untouched.
func (s *Session) Advance(screenInfo, screenshot string) error {
	if len(s.context) == 0 {
		return ErrNotInitialized
	}
	if screenshot == "" {
		return fmt.Errorf("%w: missing screenshot", ErrInvalidInput)
	}

	s.step++
	for i := len(s.context) - 1; i >= 0; i-- {
		if s.context[i].Role == RoleUser {
			s.context[i] = RemoveImages(s.context[i])
			break
		}
	}

	text := fmt.Sprintf("** Screen Info **\n\n%s", screenInfo)
	s.context = append(s.context, UserMessage(text, screenshot))
	return nil
}

// RecordAssistant appends the model's response to the context in tagged
// form. Accepts arbitrary strings; no validation.
func (s *Session) RecordAssistant(thinking, action string) {
	s.context = append(s.context, AssistantMessage(thinking, action))
}

// Context returns the ordered conversation for handing to the model.
// Callers must not mutate the returned slice.
func (s *Session) Context() Messages {
	return s.context
}
