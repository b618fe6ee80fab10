package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const ReplyForbidden = "You are not allowed to use this command."

// Invocation is a parsed command message.
type Invocation struct {
	AuthorID  uint64
	ChannelID uint64
	GuildID   uint64
	Name      string
	Args      []string
}

type Handler func(ctx context.Context, inv *Invocation) (string, error)

// Authorizer decides whether inv may run a restricted command.
type Authorizer func(inv *Invocation) bool

type Command struct {
	Name    string
	Aliases []string
	// Args is the number of required arguments.
	Args       int
	Usage      string
	Restricted bool
	Handler    Handler
}

func New(prefix string, authorize Authorizer, logger *zap.Logger, cmds ...*Command) (*Router, error) {
	if prefix == "" {
		return nil, fmt.Errorf("empty command prefix")
	}

	r := &Router{
		prefix:    prefix,
		authorize: authorize,
		table:     make(map[string]*Command),
		log:       logger.With(zap.String("via", "router")),
	}

	for _, cmd := range cmds {
		if cmd.Handler == nil {
			return nil, fmt.Errorf("command %q has no handler", cmd.Name)
		}
		if cmd.Restricted && authorize == nil {
			return nil, fmt.Errorf("command %q is restricted but no authorizer is set", cmd.Name)
		}

		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			if name == "" || strings.ContainsAny(name, " \t\n") {
				return nil, fmt.Errorf("invalid command name %q", name)
			}
			if prev, ok := r.table[name]; ok {
				return nil, fmt.Errorf("command name %q of %q already used by %q", name, cmd.Name, prev.Name)
			}
			r.table[name] = cmd
		}
	}

	return r, nil
}

// Router maps command names and aliases to their commands. The table is fixed
// once New returns.
type Router struct {
	prefix    string
	authorize Authorizer
	table     map[string]*Command
	log       *zap.Logger
}

func (r *Router) Prefix() string {
	return r.prefix
}

// Names lists every registered name and alias, sorted.
func (r *Router) Names() []string {
	names := lo.Keys(r.table)
	sort.Strings(names)
	return names
}

func (r *Router) Lookup(name string) (*Command, bool) {
	cmd, ok := r.table[name]
	return cmd, ok
}

// Parse splits content into a known command and its arguments.
func (r *Router) Parse(content string) (*Command, []string, bool) {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, r.prefix) {
		return nil, nil, false
	}

	fields := strings.Fields(strings.TrimPrefix(content, r.prefix))
	if len(fields) == 0 {
		return nil, nil, false
	}

	cmd, ok := r.table[fields[0]]
	if !ok {
		return nil, nil, false
	}

	return cmd, fields[1:], true
}

// Dispatch runs the command in content. The returned text is what should be
// sent back; handled is false for messages that are not commands.
func (r *Router) Dispatch(ctx context.Context, inv Invocation, content string) (reply string, handled bool) {
	cmd, args, ok := r.Parse(content)
	if !ok {
		return "", false
	}

	inv.Name = cmd.Name
	inv.Args = args
	log := r.log.With(zap.String("command", cmd.Name), zap.Uint64("author", inv.AuthorID))

	if cmd.Restricted && !r.authorize(&inv) {
		log.Info("forbidden")
		return ReplyForbidden, true
	}

	if len(args) < cmd.Args {
		return fmt.Sprintf("Usage: %s%s", r.prefix, lo.Ternary(cmd.Usage != "", cmd.Usage, cmd.Name)), true
	}

	out, err := cmd.Handler(ctx, &inv)
	if err != nil {
		log.With(zap.Error(err)).Info("command failed")
		return fmt.Sprintf("command failed: %s", err), true
	}

	log.Debug("handled")
	return out, true
}

// Owners authorizes a fixed set of user ids.
func Owners(ids ...uint64) Authorizer {
	return func(inv *Invocation) bool {
		return lo.Contains(ids, inv.AuthorID)
	}
}
