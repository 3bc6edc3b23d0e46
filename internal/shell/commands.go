package shell

import (
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/render"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
)

// Handler runs one command against a session. Handlers write their output
// through the session and may close it.
type Handler func(s *Session) error

// Command is a registry entry.
type Command struct {
	Name        string
	Description string
	Handler     Handler
}

// Registry maps command names to handlers. It is built once and never
// modified, so every session can share one Registry.
type Registry struct {
	order  []Command
	byName map[string]Command
}

// NewRegistry builds a registry from cmds. Names are normalized; a later
// command with the same name replaces an earlier one.
func NewRegistry(cmds ...Command) *Registry {
	r := &Registry{byName: make(map[string]Command, len(cmds))}
	for _, c := range cmds {
		c.Name = Normalize(c.Name)
		if _, dup := r.byName[c.Name]; !dup {
			r.order = append(r.order, c)
		} else {
			for i := range r.order {
				if r.order[i].Name == c.Name {
					r.order[i] = c
				}
			}
		}
		r.byName[c.Name] = c
	}
	return r
}

// DefaultRegistry returns the résumé command set.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Command{"help", "Show this list of commands", cmdHelp},
		Command{"summary", "A short introduction", section((*render.Renderer).Summary)},
		Command{"skills", "Technical skills by category", section((*render.Renderer).Skills)},
		Command{"experience", "Work history with highlights", section((*render.Renderer).Experience)},
		Command{"education", "Degrees and schools", section((*render.Renderer).Education)},
		Command{"links", "Website, profiles and résumé download", section((*render.Renderer).Links)},
		Command{"resume", "The whole résumé in one go", section((*render.Renderer).Resume)},
		Command{"clear", "Clear the screen", cmdClear},
		Command{"exit", "Close the session", cmdExit},
		Command{"quit", "Close the session", cmdExit},
	)
}

// Lookup finds the command for a typed name. The name is normalized first.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.byName[Normalize(name)]
	return c, ok
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, len(r.order))
	copy(out, r.order)
	return out
}

// HelpEntries returns the name and description of every command, for the
// help card.
func (r *Registry) HelpEntries() []render.HelpEntry {
	out := make([]render.HelpEntry, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, render.HelpEntry{Name: c.Name, Description: c.Description})
	}
	return out
}

// sectionFunc is the shape of every résumé section renderer.
type sectionFunc func(r *render.Renderer, res *resume.Resume, width int) string

func section(fn sectionFunc) Handler {
	return func(s *Session) error {
		return s.WriteBlock(fn(s.renderer, s.resume, s.width))
	}
}

func cmdHelp(s *Session) error {
	return s.WriteBlock(s.renderer.Help(s.registry.HelpEntries(), s.width))
}

func cmdClear(s *Session) error {
	return s.write(render.ClearScreen)
}

func cmdExit(s *Session) error {
	s.Close(goodbyeMessage)
	return nil
}
