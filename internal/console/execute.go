package console

import (
	"context"
	"fmt"
	"strings"
)

// Execute sends one command line and returns the text the console printed
// before the prompt reappeared, with the marker removed and line endings
// normalized to \n.
//
// Every call starts with SyncPrompt. A failed read or write is a
// ProtocolError and leaves the session Failed; the command may or may not
// have run on the server, so it is never resent.
func (s *Session) Execute(ctx context.Context, command string) (string, error) {
	if strings.ContainsAny(command, "\r\n") {
		return "", fmt.Errorf("%q: %w", command, ErrInvalidCommand)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable("execute"); err != nil {
		return "", err
	}
	if err := s.syncLocked(ctx); err != nil {
		return "", err
	}

	t := s.currentTransport()
	s.setState(StateBusy)
	s.logger.Debug("execute", "command", command)

	if err := t.Write([]byte(command + "\n")); err != nil {
		return "", s.fail(&ProtocolError{Op: "execute", Message: "write command", Cause: err})
	}
	raw, err := s.read(ctx, t, 0, s.prompt)
	if err != nil {
		return "", s.fail(&ProtocolError{Op: "execute", Message: readFailure(err), Cause: err})
	}

	s.setState(StatePromptReady)
	return normalizeReply(string(raw), s.cfg.Prompt), nil
}

var replyCleaner = strings.NewReplacer("\r", "", "\x00", "")

// normalizeReply drops the trailing prompt marker, CR characters and NUL
// padding.
func normalizeReply(raw, prompt string) string {
	return replyCleaner.Replace(strings.TrimSuffix(raw, prompt))
}
