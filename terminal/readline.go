package terminal

import (
	"context"

	"github.com/corvidterm/term/readline"
)

// ReadLine runs the interactive line editor (package readline) against
// this session's default event subscription and output, implementing the
// facade's read_line_async(options) operation.
func (s *Session) ReadLine(ctx context.Context, opts readline.Options) (string, error) {
	ed := readline.New(s, s.Events(), s, opts)
	return ed.Run(ctx)
}
